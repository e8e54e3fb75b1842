package metrics

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/productpulse/internal/eventstore"
)

func TestComputeAdoption_Rate(t *testing.T) {
	var sessions []eventstore.Session
	var events []eventstore.FeatureUsageEvent
	for i := 0; i < 10; i++ {
		sid := fmt.Sprintf("S%d", i)
		sessions = append(sessions, sess(sid, fmt.Sprintf("U%d", i), day(0)))
		if i < 4 {
			events = append(events, use(sid, "X", day(0)), use(sid, "X", day(0)))
		}
	}
	res := ComputeAdoption(sessions, events, nil)

	require.Len(t, res.Features, 1)
	assert.Equal(t, "X", res.Features[0].Feature)
	assert.Equal(t, 4, res.Features[0].Adopters)
	assert.InDelta(t, 0.4, res.Features[0].AdoptionRate, 1e-9)
	assert.Equal(t, 10, res.ActiveUsers)
	assert.InDelta(t, 0.4, res.OverallRate, 1e-9)
}

func TestComputeAdoption_OrderAndDrops(t *testing.T) {
	ds := smallDataset()
	res := ComputeAdoption(ds.Sessions, ds.Usage, NewIndex(ds.Sessions))

	require.Len(t, res.Features, 3)
	assert.Equal(t, "Dashboard", res.Features[0].Feature)
	assert.Equal(t, 2, res.Features[0].Adopters)
	// Dashboard and Reports both have two adopters; name breaks the tie.
	assert.Equal(t, "Reports", res.Features[1].Feature)
	assert.Equal(t, "Search", res.Features[2].Feature)
	assert.Equal(t, 1, res.DroppedEvents)
	assert.Equal(t, 3, res.ActiveUsers)

	for _, r := range res.Features {
		assert.GreaterOrEqual(t, r.AdoptionRate, 0.0)
		assert.LessOrEqual(t, r.AdoptionRate, 1.0)
	}
}

func TestComputeAdoption_Empty(t *testing.T) {
	res := ComputeAdoption(nil, nil, nil)
	assert.Empty(t, res.Features)
	assert.Zero(t, res.OverallRate)
}
