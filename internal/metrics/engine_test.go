package metrics

import (
	"context"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/productpulse/internal/eventstore"
)

func TestRun_SmallDataset(t *testing.T) {
	res, err := Run(context.Background(), smallDataset(), DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Adoption.DroppedEvents)
	assert.Equal(t, 1, res.Correlation.DroppedEvents)
	assert.Equal(t, 1, res.Sentiment.DroppedFeedback)
	assert.Equal(t, 4, res.Correlation.TotalUsers)
	assert.Equal(t, 3, res.Correlation.RepeatUsers)
	assert.Len(t, res.Retention.Probes, 3)
	assert.Len(t, res.Funnel.Stages, 4)

	h := res.Highlights
	assert.Equal(t, 1, h.LatestDAU)
	assert.Equal(t, "First Transaction", h.LargestDropStage)
	assert.InDelta(t, 2.0/3.0, h.MonthOneRetention, 1e-12)
	assert.InDelta(t, 1.0/3.0, h.NegativeShare, 1e-12)
	assert.Equal(t, []FeatureTotal{{"Dashboard", 5}, {"Reports", 2}, {"Search", 1}}, h.TopFeatures)
}

func TestRun_ParallelMatchesSequential(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Parallel = false
	seq, err := Run(context.Background(), smallDataset(), cfg)
	require.NoError(t, err)

	cfg.Parallel = true
	par, err := Run(context.Background(), smallDataset(), cfg)
	require.NoError(t, err)

	assert.Equal(t, seq, par)
}

func TestRun_Idempotent(t *testing.T) {
	ds := smallDataset()
	first, err := Run(context.Background(), ds, DefaultConfig())
	require.NoError(t, err)
	second, err := Run(context.Background(), ds, DefaultConfig())
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRun_SubstitutedConfig(t *testing.T) {
	cfg := Config{
		RetentionDays:   []int{7},
		RepeatThreshold: 3,
		Funnel:          []StageInput{{"in", 10}, {"out", 5}},
		TopFeatures:     1,
	}
	res, err := Run(context.Background(), smallDataset(), cfg)
	require.NoError(t, err)

	require.Len(t, res.Retention.Probes, 1)
	assert.Equal(t, 7, res.Retention.Probes[0].Day)
	assert.Equal(t, 1, res.Correlation.RepeatUsers)
	assert.Len(t, res.FeatureTrend.Top, 1)
	assert.Equal(t, "out", res.Highlights.LargestDropStage)
	assert.Equal(t, 7, res.Activity.RollingWindow)
}

func TestRun_EmptyDataset(t *testing.T) {
	res, err := Run(context.Background(), &eventstore.Dataset{}, DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, res.Activity.Daily.Points)
	assert.Empty(t, res.Adoption.Features)
	assert.Zero(t, res.Retention.CohortSize)
	assert.Empty(t, res.Correlation.Features)
	assert.Empty(t, res.Sentiment.Buckets)
}

func TestRun_Errors(t *testing.T) {
	_, err := Run(context.Background(), nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrNoDataset)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Run(ctx, smallDataset(), DefaultConfig())
	assert.ErrorIs(t, err, context.Canceled)
}
