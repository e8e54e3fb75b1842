package metrics

import (
	"time"

	"github.com/KaramelBytes/productpulse/internal/eventstore"
)

// RetentionRecord is the exact-day retention for one probe offset.
type RetentionRecord struct {
	Day           int     `json:"day"`
	Retained      int     `json:"retained"`
	RetentionRate float64 `json:"retention_rate"`
}

// RetentionResult holds all probes over a common cohort.
type RetentionResult struct {
	CohortSize int               `json:"cohort_size"`
	Probes     []RetentionRecord `json:"probes"`
	// SkippedSessions counts sessions before signup or for users missing from the users table.
	SkippedSessions int `json:"skipped_sessions"`
}

// dayOffsets returns, per user, the set of non-negative day offsets between
// signup and session start dates.
func dayOffsets(users []eventstore.User, sessions []eventstore.Session) (map[string]map[int]struct{}, int) {
	signup := make(map[string]time.Time, len(users))
	for _, u := range users {
		if _, ok := signup[u.ID]; !ok {
			signup[u.ID] = u.SignupDate
		}
	}
	offsets := make(map[string]map[int]struct{})
	skipped := 0
	for _, s := range sessions {
		sd, ok := signup[s.UserID]
		if !ok {
			skipped++
			continue
		}
		d := dayDiff(sd, s.StartTime)
		if d < 0 {
			skipped++
			continue
		}
		set := offsets[s.UserID]
		if set == nil {
			set = make(map[int]struct{})
			offsets[s.UserID] = set
		}
		set[d] = struct{}{}
	}
	return offsets, skipped
}

// ComputeRetention counts, for each probe day, users with a session on exactly
// that day after signup. The cohort is every user with at least one session on
// or after the signup date. Probes are evaluated independently, in the given order.
func ComputeRetention(users []eventstore.User, sessions []eventstore.Session, probeDays []int) RetentionResult {
	offsets, skipped := dayOffsets(users, sessions)
	cohort := len(offsets)

	probes := make([]RetentionRecord, 0, len(probeDays))
	for _, day := range probeDays {
		retained := 0
		for _, set := range offsets {
			if _, ok := set[day]; ok {
				retained++
			}
		}
		probes = append(probes, RetentionRecord{
			Day:           day,
			Retained:      retained,
			RetentionRate: ratio(float64(retained), float64(cohort)),
		})
	}
	return RetentionResult{CohortSize: cohort, Probes: probes, SkippedSessions: skipped}
}

// CohortRow is one signup-month cohort in the monthly retention matrix.
type CohortRow struct {
	Cohort string `json:"cohort"`
	Size   int    `json:"size"`
	// Rates is indexed by month offset; Rates[0] is the signup month.
	Rates    []float64 `json:"rates"`
	Retained []int     `json:"retained"`
}

// CohortMatrix is monthly cohort retention: signup month x months since signup.
type CohortMatrix struct {
	MaxOffset int         `json:"max_offset"`
	Rows      []CohortRow `json:"rows"`
}

// ComputeCohortMatrix groups users by signup month and reports the share of
// each cohort active in each subsequent calendar month. Only sessions at or
// after the signup instant participate.
func ComputeCohortMatrix(users []eventstore.User, sessions []eventstore.Session) CohortMatrix {
	signup := make(map[string]time.Time, len(users))
	for _, u := range users {
		if _, ok := signup[u.ID]; !ok {
			signup[u.ID] = u.SignupDate
		}
	}

	type cohortAcc struct {
		members  map[string]struct{}
		byOffset map[int]map[string]struct{}
	}
	cohorts := make(map[string]*cohortAcc)
	maxOffset := -1
	for _, s := range sessions {
		sd, ok := signup[s.UserID]
		if !ok || s.StartTime.Before(sd) {
			continue
		}
		off := monthDiff(sd, s.StartTime)
		if off < 0 {
			continue
		}
		key := monthStart(sd).Format("2006-01")
		acc := cohorts[key]
		if acc == nil {
			acc = &cohortAcc{members: map[string]struct{}{}, byOffset: map[int]map[string]struct{}{}}
			cohorts[key] = acc
		}
		acc.members[s.UserID] = struct{}{}
		set := acc.byOffset[off]
		if set == nil {
			set = map[string]struct{}{}
			acc.byOffset[off] = set
		}
		set[s.UserID] = struct{}{}
		if off > maxOffset {
			maxOffset = off
		}
	}

	keys := sortedKeys(cohorts)
	rows := make([]CohortRow, 0, len(keys))
	for _, k := range keys {
		acc := cohorts[k]
		row := CohortRow{
			Cohort:   k,
			Size:     len(acc.members),
			Rates:    make([]float64, maxOffset+1),
			Retained: make([]int, maxOffset+1),
		}
		for off := 0; off <= maxOffset; off++ {
			n := len(acc.byOffset[off])
			row.Retained[off] = n
			row.Rates[off] = ratio(float64(n), float64(row.Size))
		}
		rows = append(rows, row)
	}
	if maxOffset < 0 {
		maxOffset = 0
	}
	return CohortMatrix{MaxOffset: maxOffset, Rows: rows}
}
