package metrics

import (
	"sort"
	"time"

	"github.com/KaramelBytes/productpulse/internal/eventstore"
)

// FeatureWeek is the event count for one feature in one Monday-start week.
type FeatureWeek struct {
	Week    time.Time `json:"week"`
	Key     string    `json:"key"`
	Feature string    `json:"feature"`
	Events  int       `json:"events"`
}

// FeatureTotal is the total event count for a feature across the dataset.
type FeatureTotal struct {
	Feature string `json:"feature"`
	Events  int    `json:"events"`
}

// FeatureTrend is the weekly event volume of the most used features.
type FeatureTrend struct {
	Top    []FeatureTotal `json:"top"`
	Weekly []FeatureWeek  `json:"weekly"`
}

// ComputeFeatureTrend selects the topN features by raw event count and
// reports their weekly event counts. Ties are broken by feature name.
func ComputeFeatureTrend(events []eventstore.FeatureUsageEvent, topN int) FeatureTrend {
	totals := make(map[string]int)
	for _, ev := range events {
		totals[ev.Feature]++
	}
	top := make([]FeatureTotal, 0, len(totals))
	for _, f := range sortedKeys(totals) {
		top = append(top, FeatureTotal{Feature: f, Events: totals[f]})
	}
	sort.SliceStable(top, func(i, j int) bool { return top[i].Events > top[j].Events })
	if topN > 0 && len(top) > topN {
		top = top[:topN]
	}
	selected := make(map[string]bool, len(top))
	for _, t := range top {
		selected[t.Feature] = true
	}

	type key struct {
		week    time.Time
		feature string
	}
	counts := make(map[key]int)
	for _, ev := range events {
		if !selected[ev.Feature] {
			continue
		}
		counts[key{week: weekStart(ev.Timestamp), feature: ev.Feature}]++
	}
	weekly := make([]FeatureWeek, 0, len(counts))
	for k, n := range counts {
		weekly = append(weekly, FeatureWeek{Week: k.week, Key: k.week.Format("2006-01-02"), Feature: k.feature, Events: n})
	}
	sort.Slice(weekly, func(i, j int) bool {
		if !weekly[i].Week.Equal(weekly[j].Week) {
			return weekly[i].Week.Before(weekly[j].Week)
		}
		return weekly[i].Feature < weekly[j].Feature
	})
	return FeatureTrend{Top: top, Weekly: weekly}
}
