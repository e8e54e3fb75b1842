package metrics

import (
	"sort"

	"github.com/KaramelBytes/productpulse/internal/eventstore"
)

// AdoptionRecord is the adoption of a single feature.
type AdoptionRecord struct {
	Feature      string  `json:"feature"`
	Adopters     int     `json:"adopters"`
	AdoptionRate float64 `json:"adoption_rate"`
}

// AdoptionResult is the per-feature adoption table plus the any-feature rate.
type AdoptionResult struct {
	Features        []AdoptionRecord `json:"features"`
	ActiveUsers     int              `json:"active_users"`
	OverallAdopters int              `json:"overall_adopters"`
	OverallRate     float64          `json:"overall_rate"`
	DroppedEvents   int              `json:"dropped_events"`
}

// ComputeAdoption measures the share of active users (users with at least one
// session) that used each feature at least once. Rows are ordered by adopters
// descending, then feature name.
func ComputeAdoption(sessions []eventstore.Session, events []eventstore.FeatureUsageEvent, idx *SessionIndex) AdoptionResult {
	if idx == nil {
		idx = NewIndex(sessions)
	}
	active := make(map[string]struct{})
	for _, s := range sessions {
		active[s.UserID] = struct{}{}
	}

	joined, dropped := JoinUsage(idx, events)
	byFeature := featureUsers(joined)
	anyFeature := make(map[string]struct{})
	for _, uf := range joined {
		anyFeature[uf.UserID] = struct{}{}
	}

	activeCount := float64(len(active))
	records := make([]AdoptionRecord, 0, len(byFeature))
	for _, f := range sortedKeys(byFeature) {
		n := len(byFeature[f])
		records = append(records, AdoptionRecord{
			Feature:      f,
			Adopters:     n,
			AdoptionRate: ratio(float64(n), activeCount),
		})
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Adopters > records[j].Adopters
	})

	return AdoptionResult{
		Features:        records,
		ActiveUsers:     len(active),
		OverallAdopters: len(anyFeature),
		OverallRate:     ratio(float64(len(anyFeature)), activeCount),
		DroppedEvents:   dropped,
	}
}
