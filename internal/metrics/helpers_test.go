package metrics

import (
	"time"

	"github.com/KaramelBytes/productpulse/internal/eventstore"
)

// base is a Monday.
var base = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func day(n int) time.Time { return base.AddDate(0, 0, n) }

func sess(id, user string, at time.Time) eventstore.Session {
	return eventstore.Session{ID: id, UserID: user, StartTime: at, EndTime: at.Add(20 * time.Minute), DeviceType: "Desktop"}
}

func user(id string, signup time.Time) eventstore.User {
	return eventstore.User{ID: id, SignupDate: signup, Channel: "Organic", Region: "NA"}
}

func use(session, feature string, at time.Time) eventstore.FeatureUsageEvent {
	return eventstore.FeatureUsageEvent{SessionID: session, Feature: feature, Timestamp: at}
}

// smallDataset covers every table with a few deliberately broken references.
func smallDataset() *eventstore.Dataset {
	ds := &eventstore.Dataset{
		Users: []eventstore.User{
			user("U1", day(0)), user("U2", day(0)), user("U3", day(2)), user("U4", day(40)),
		},
		Sessions: []eventstore.Session{
			sess("S1", "U1", day(0)),
			sess("S2", "U1", day(1)),
			sess("S3", "U2", day(1)),
			sess("S4", "U1", day(7)),
			sess("S5", "U3", day(9)),
			sess("S6", "U3", day(35)),
			sess("S7", "U2", day(40)),
		},
		Usage: []eventstore.FeatureUsageEvent{
			use("S1", "Dashboard", day(0)),
			use("S1", "Reports", day(0)),
			use("S2", "Dashboard", day(1)),
			use("S3", "Search", day(1)),
			use("S4", "Dashboard", day(7)),
			use("S5", "Reports", day(9)),
			use("S6", "Dashboard", day(35)),
			use("S99", "Dashboard", day(3)),
		},
		Feedback: []eventstore.FeedbackEntry{
			{ID: "F1", UserID: "U1", Rating: 5, Feature: "Dashboard", Comments: "Love it, great work", SessionID: "S1"},
			{ID: "F2", UserID: "U2", Rating: 1, Feature: "Search", Comments: "Slow and confusing", SessionID: "S3"},
			{ID: "F3", UserID: "U3", Rating: 3, Feature: "Reports", Comments: "ok", SessionID: "S6"},
			{ID: "F4", UserID: "U3", Rating: 5, Feature: "Reports", Comments: "great", SessionID: "S404"},
		},
	}
	return ds
}
