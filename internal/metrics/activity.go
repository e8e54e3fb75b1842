package metrics

import (
	"sort"
	"time"

	"github.com/KaramelBytes/productpulse/internal/eventstore"
)

// PeriodCount is the distinct-user count for one day or week.
type PeriodCount struct {
	Start time.Time `json:"start"`
	Key   string    `json:"key"`
	Users int       `json:"users"`
}

// Summary describes a series of per-period counts.
type Summary struct {
	Periods int     `json:"periods"`
	Mean    float64 `json:"mean"`
	Median  float64 `json:"median"`
	Min     int     `json:"min"`
	Max     int     `json:"max"`
}

// ActivitySeries is an ordered series with its summary. Periods without
// sessions are absent rather than zero-filled.
type ActivitySeries struct {
	Points  []PeriodCount `json:"points"`
	Summary Summary       `json:"summary"`
}

// RollingPoint is the trailing mean of the last N observed daily counts.
// Valid is false until N observations are available.
type RollingPoint struct {
	Start time.Time `json:"start"`
	Mean  float64   `json:"mean"`
	Valid bool      `json:"valid"`
}

// ActivityResult holds DAU and WAU series.
type ActivityResult struct {
	Daily         ActivitySeries `json:"daily"`
	Weekly        ActivitySeries `json:"weekly"`
	Rolling       []RollingPoint `json:"rolling"`
	RollingWindow int            `json:"rolling_window"`
}

// ComputeActivity groups sessions by calendar day of start time and by
// Monday-start week, counting distinct users per period.
func ComputeActivity(sessions []eventstore.Session, rollingWindow int) ActivityResult {
	daily := distinctPerPeriod(sessions, civilDay, "2006-01-02")
	weekly := distinctPerPeriod(sessions, weekStart, "2006-01-02")
	if rollingWindow <= 0 {
		rollingWindow = 1
	}
	return ActivityResult{
		Daily:         daily,
		Weekly:        weekly,
		Rolling:       rollingMean(daily.Points, rollingWindow),
		RollingWindow: rollingWindow,
	}
}

func distinctPerPeriod(sessions []eventstore.Session, bucket func(time.Time) time.Time, layout string) ActivitySeries {
	users := make(map[time.Time]map[string]struct{})
	for _, s := range sessions {
		k := bucket(s.StartTime)
		set := users[k]
		if set == nil {
			set = make(map[string]struct{})
			users[k] = set
		}
		set[s.UserID] = struct{}{}
	}
	if len(users) == 0 {
		return ActivitySeries{Points: []PeriodCount{}}
	}
	keys := make([]time.Time, 0, len(users))
	for k := range users {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	points := make([]PeriodCount, len(keys))
	counts := make([]int, len(keys))
	for i, k := range keys {
		n := len(users[k])
		points[i] = PeriodCount{Start: k, Key: k.Format(layout), Users: n}
		counts[i] = n
	}
	return ActivitySeries{Points: points, Summary: summarize(counts)}
}

func rollingMean(points []PeriodCount, window int) []RollingPoint {
	out := make([]RollingPoint, len(points))
	sum := 0
	for i, p := range points {
		sum += p.Users
		if i >= window {
			sum -= points[i-window].Users
		}
		out[i] = RollingPoint{Start: p.Start}
		if i+1 >= window {
			out[i].Mean = float64(sum) / float64(window)
			out[i].Valid = true
		}
	}
	return out
}
