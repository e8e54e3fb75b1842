package eventstore

import "time"

// User is one row of users.csv.
type User struct {
	ID         string
	SignupDate time.Time
	Channel    string
	Region     string
}

// Session is one row of sessions.csv. Every session references exactly one user.
type Session struct {
	ID         string
	UserID     string
	StartTime  time.Time
	EndTime    time.Time
	DeviceType string
}

// FeatureUsageEvent is one row of feature_usage.csv.
type FeatureUsageEvent struct {
	SessionID string
	Feature   string
	Timestamp time.Time
}

// FeedbackEntry is one row of feedback.csv.
type FeedbackEntry struct {
	ID        string
	UserID    string
	Rating    int
	Feature   string
	Comments  string
	SessionID string
}

// Dataset holds the four input tables. Loaded once, never mutated afterwards.
type Dataset struct {
	Users     []User
	Sessions  []Session
	Usage     []FeatureUsageEvent
	Feedback  []FeedbackEntry
	SourceDir string
}

// Counts returns row counts keyed by table name.
func (d *Dataset) Counts() map[string]int {
	if d == nil {
		return map[string]int{}
	}
	return map[string]int{
		TableUsers:    len(d.Users),
		TableSessions: len(d.Sessions),
		TableUsage:    len(d.Usage),
		TableFeedback: len(d.Feedback),
	}
}

// Table names double as file base names inside a data directory.
const (
	TableUsers    = "users"
	TableSessions = "sessions"
	TableUsage    = "feature_usage"
	TableFeedback = "feedback"
)

// Tables lists the table names in load order.
var Tables = []string{TableUsers, TableSessions, TableUsage, TableFeedback}
