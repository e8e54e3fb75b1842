package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeFeatureTrend(t *testing.T) {
	ds := smallDataset()
	trend := ComputeFeatureTrend(ds.Usage, 2)

	assert.Equal(t, []FeatureTotal{{"Dashboard", 5}, {"Reports", 2}}, trend.Top)
	require.Len(t, trend.Weekly, 5)

	got := make([][3]any, len(trend.Weekly))
	for i, w := range trend.Weekly {
		got[i] = [3]any{w.Key, w.Feature, w.Events}
	}
	assert.Equal(t, [][3]any{
		{"2024-01-01", "Dashboard", 3},
		{"2024-01-01", "Reports", 1},
		{"2024-01-08", "Dashboard", 1},
		{"2024-01-08", "Reports", 1},
		{"2024-02-05", "Dashboard", 1},
	}, got)
}

func TestComputeFeatureTrend_TiesByName(t *testing.T) {
	events := smallDataset().Usage[:4] // Dashboard 2, Reports 1, Search 1
	trend := ComputeFeatureTrend(events, 2)
	assert.Equal(t, []FeatureTotal{{"Dashboard", 2}, {"Reports", 1}}, trend.Top)
}
