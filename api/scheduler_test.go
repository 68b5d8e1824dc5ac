package api

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/wage-engine/factory"
	"github.com/warp/wage-engine/store/sqlite"
	"github.com/warp/wage-engine/wage"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestActivePolicy_FallbackWhenNothingStored(t *testing.T) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	defer store.Close()

	active := NewActivePolicy(store, wage.DefaultPolicy(), zaptest.NewLogger(t))
	p, err := active.ActivePolicy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, wage.DefaultPolicyID, p.ID)
	assert.Equal(t, 1, p.Version)
}

func TestActivePolicy_FollowsEffectiveDate(t *testing.T) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	defer store.Close()
	_, err = SeedPresets(context.Background(), store)
	require.NoError(t, err)

	active := NewActivePolicy(store, wage.DefaultPolicy(), zaptest.NewLogger(t))
	tests := []struct {
		now  time.Time
		want string
	}{
		{time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), "kr-2024"},
		{time.Date(2025, time.December, 31, 23, 0, 0, 0, time.UTC), "kr-2025"},
		{time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), "kr-2026"},
		{time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC), wage.DefaultPolicyID},
	}
	for _, tt := range tests {
		now := tt.now
		active.Now = func() time.Time { return now }
		p, err := active.Reload(context.Background())
		require.NoError(t, err)
		assert.Equal(t, tt.want, p.ID, now.String())
	}
}

func TestActivePolicy_PinnedPresetNotStored(t *testing.T) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	defer store.Close()

	active := NewActivePolicy(store, wage.DefaultPolicy(), zaptest.NewLogger(t))
	active.PinnedID = "kr-2026"
	p, err := active.ActivePolicy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, wage.Won(10320), p.MinimumHourlyWage)
}

func TestSeedPresets_Idempotent(t *testing.T) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	added, err := SeedPresets(ctx, store)
	require.NoError(t, err)
	assert.Len(t, added, len(factory.Presets()))

	added, err = SeedPresets(ctx, store)
	require.NoError(t, err)
	assert.Empty(t, added)
}

func TestPolicyRefresher_PicksUpNewVersions(t *testing.T) {
	// GIVEN: A running refresher over a store with the 2025 preset
	opts := goleak.IgnoreCurrent()
	defer goleak.VerifyNone(t, opts)

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	_, err = SavePolicy(ctx, store, factory.Statutory2025())
	require.NoError(t, err)

	active := NewActivePolicy(store, wage.DefaultPolicy(), zaptest.NewLogger(t))
	active.Now = func() time.Time { return testNow }

	refresher := NewPolicyRefresher(active, 10*time.Millisecond, zaptest.NewLogger(t))
	refresher.Start()
	refresher.Start()
	defer refresher.Stop()

	require.Eventually(t, func() bool {
		p, err := active.ActivePolicy(ctx)
		return err == nil && p.ID == "kr-2025" && p.Version == 1
	}, time.Second, 5*time.Millisecond)

	// WHEN: A corrected version of the policy is stored
	corrected := factory.Statutory2025()
	corrected.MinimumHourlyWage = 10040
	_, err = SavePolicy(ctx, store, corrected)
	require.NoError(t, err)

	// THEN: The refresher switches to it without a restart
	require.Eventually(t, func() bool {
		p, err := active.ActivePolicy(ctx)
		return err == nil && p.Version == 2 && p.MinimumHourlyWage == 10040
	}, time.Second, 5*time.Millisecond)
}

func TestPolicyRefresher_StopIsIdempotent(t *testing.T) {
	opts := goleak.IgnoreCurrent()
	defer goleak.VerifyNone(t, opts)

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	defer store.Close()

	var reloads atomic.Int32
	active := NewActivePolicy(store, wage.DefaultPolicy(), zaptest.NewLogger(t))
	active.Now = func() time.Time {
		reloads.Add(1)
		return testNow
	}

	refresher := NewPolicyRefresher(active, time.Hour, zaptest.NewLogger(t))
	refresher.Stop()
	refresher.Start()
	require.Eventually(t, func() bool { return reloads.Load() >= 1 }, time.Second, 5*time.Millisecond)
	refresher.Stop()
	refresher.Stop()
}

func TestSavePolicyIfChanged(t *testing.T) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	p := factory.Statutory2025()
	version, saved, err := SavePolicyIfChanged(ctx, store, p)
	require.NoError(t, err)
	assert.True(t, saved)
	assert.Equal(t, 1, version)

	// Same content, e.g. the same policy file on every restart.
	version, saved, err = SavePolicyIfChanged(ctx, store, p)
	require.NoError(t, err)
	assert.False(t, saved)
	assert.Equal(t, 1, version)

	p.Rounding = wage.RoundingSinglePoint
	version, saved, err = SavePolicyIfChanged(ctx, store, p)
	require.NoError(t, err)
	assert.True(t, saved)
	assert.Equal(t, 2, version)
}
