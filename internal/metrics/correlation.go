package metrics

import (
	"context"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/productpulse/internal/eventstore"
)

// Contingency is the 2x2 table of feature usage against the repeat-user label.
type Contingency struct {
	TP int `json:"tp"` // repeat users who used the feature
	FP int `json:"fp"` // non-repeat users who used the feature
	FN int `json:"fn"` // repeat users who did not use the feature
	TN int `json:"tn"` // non-repeat users who did not use the feature
}

// Total is the number of users the table covers.
func (c Contingency) Total() int { return c.TP + c.FP + c.FN + c.TN }

// Phi is the phi coefficient of the table. Any zero margin yields 0.
func (c Contingency) Phi() float64 {
	tp, fp, fn, tn := float64(c.TP), float64(c.FP), float64(c.FN), float64(c.TN)
	den := math.Sqrt((tp + fp) * (tp + fn) * (tn + fp) * (tn + fn))
	if den == 0 {
		return 0
	}
	phi := (tp*tn - fp*fn) / den
	if phi > 1 {
		phi = 1
	} else if phi < -1 {
		phi = -1
	}
	if math.IsNaN(phi) {
		return 0
	}
	return phi
}

// CorrelationRecord is the association between one feature and repeat usage.
type CorrelationRecord struct {
	Feature           string      `json:"feature"`
	UsersUsed         int         `json:"users_used"`
	Table             Contingency `json:"table"`
	RepeatRateUsed    float64     `json:"repeat_rate_used"`
	RepeatRateNotUsed float64     `json:"repeat_rate_not_used"`
	Lift              float64     `json:"lift"`
	Phi               float64     `json:"phi"`
}

// CorrelationResult ranks features by phi descending.
type CorrelationResult struct {
	Features        []CorrelationRecord `json:"features"`
	TotalUsers      int                 `json:"total_users"`
	RepeatUsers     int                 `json:"repeat_users"`
	RepeatThreshold int                 `json:"repeat_threshold"`
	DroppedEvents   int                 `json:"dropped_events"`
}

// RepeatLabels marks each user from the users table as a repeat user when they
// have at least threshold sessions. Users with no sessions are non-repeat.
func RepeatLabels(users []eventstore.User, sessions []eventstore.Session, threshold int) map[string]bool {
	counts := make(map[string]int)
	for _, s := range sessions {
		counts[s.UserID]++
	}
	labels := make(map[string]bool, len(users))
	for _, u := range users {
		labels[u.ID] = counts[u.ID] >= threshold
	}
	return labels
}

// ContingencyFor builds the 2x2 table for one feature's user set. Users
// outside the labelled population are ignored so the table always sums to
// the population size.
func ContingencyFor(used map[string]struct{}, labels map[string]bool, repeatTotal int) Contingency {
	var c Contingency
	for uid := range used {
		repeat, ok := labels[uid]
		if !ok {
			continue
		}
		if repeat {
			c.TP++
		} else {
			c.FP++
		}
	}
	c.FN = repeatTotal - c.TP
	c.TN = len(labels) - c.TP - c.FP - c.FN
	return c
}

func newCorrelationRecord(feature string, c Contingency) CorrelationRecord {
	used := ratio(float64(c.TP), float64(c.TP+c.FP))
	notUsed := ratio(float64(c.FN), float64(c.FN+c.TN))
	return CorrelationRecord{
		Feature:           feature,
		UsersUsed:         c.TP + c.FP,
		Table:             c,
		RepeatRateUsed:    used,
		RepeatRateNotUsed: notUsed,
		Lift:              used - notUsed,
		Phi:               c.Phi(),
	}
}

// ComputeCorrelation relates each feature's usage to the repeat-user label.
// With parallel set, per-feature tables are computed concurrently; each
// goroutine only reads the shared labels and writes its own result slot.
func ComputeCorrelation(ctx context.Context, users []eventstore.User, sessions []eventstore.Session, events []eventstore.FeatureUsageEvent, idx *SessionIndex, threshold int, parallel bool) (CorrelationResult, error) {
	if idx == nil {
		idx = NewIndex(sessions)
	}
	if threshold <= 0 {
		threshold = 2
	}
	labels := RepeatLabels(users, sessions, threshold)
	repeatTotal := 0
	for _, r := range labels {
		if r {
			repeatTotal++
		}
	}

	joined, dropped := JoinUsage(idx, events)
	byFeature := featureUsers(joined)
	features := sortedKeys(byFeature)
	records := make([]CorrelationRecord, len(features))

	if parallel && len(features) > 1 {
		g, gctx := errgroup.WithContext(ctx)
		for i, f := range features {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				records[i] = newCorrelationRecord(f, ContingencyFor(byFeature[f], labels, repeatTotal))
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return CorrelationResult{}, err
		}
	} else {
		for i, f := range features {
			records[i] = newCorrelationRecord(f, ContingencyFor(byFeature[f], labels, repeatTotal))
		}
	}

	sort.SliceStable(records, func(i, j int) bool { return records[i].Phi > records[j].Phi })

	return CorrelationResult{
		Features:        records,
		TotalUsers:      len(labels),
		RepeatUsers:     repeatTotal,
		RepeatThreshold: threshold,
		DroppedEvents:   dropped,
	}, nil
}
