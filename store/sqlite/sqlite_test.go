package sqlite_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/wage-engine/contract"
	"github.com/warp/wage-engine/factory"
	"github.com/warp/wage-engine/store/sqlite"
	"github.com/warp/wage-engine/wage"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func record(t *testing.T, id, contractID, key string, at time.Time) contract.Record {
	t.Helper()
	in := wage.EstimateInput{
		HourlyWage:      10030,
		StartTime:       "22:00",
		EndTime:         "06:00",
		BreakMinutes:    60,
		WorkDaysPerWeek: 3,
	}
	est, err := wage.Default().Estimate(in)
	require.NoError(t, err)
	return contract.Record{
		ID:             id,
		ContractID:     contractID,
		PolicyID:       "default",
		PolicyVersion:  1,
		Input:          in,
		Result:         est,
		IdempotencyKey: key,
		CreatedAt:      at,
	}
}

var t0 = time.Date(2025, time.April, 1, 10, 0, 0, 0, time.UTC)

// =============================================================================
// CALCULATIONS
// =============================================================================

func TestStore_SaveAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := record(t, "c-1", "ct-1", "k-1", t0)
	require.NoError(t, store.Save(ctx, rec))

	got, err := store.Get(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	byKey, err := store.FindByIdempotencyKey(ctx, "k-1")
	require.NoError(t, err)
	assert.Equal(t, rec, byKey)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, contract.ErrNotFound)
	_, err = store.FindByIdempotencyKey(ctx, "missing")
	assert.ErrorIs(t, err, contract.ErrNotFound)
}

func TestStore_DuplicateIdempotencyKey(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, record(t, "c-1", "ct-1", "k-1", t0)))
	err := store.Save(ctx, record(t, "c-2", "ct-1", "k-1", t0))
	assert.ErrorIs(t, err, contract.ErrDuplicateIdempotencyKey)

	// Records without a key never collide.
	require.NoError(t, store.Save(ctx, record(t, "c-3", "ct-1", "", t0)))
	require.NoError(t, store.Save(ctx, record(t, "c-4", "ct-1", "", t0)))
}

func TestStore_SaveBatchIsAtomic(t *testing.T) {
	// GIVEN: a batch whose last record reuses an existing key
	// WHEN: the batch is saved
	// THEN: none of the batch is written
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, record(t, "c-1", "ct-1", "k-1", t0)))

	err := store.SaveBatch(ctx, []contract.Record{
		record(t, "c-2", "ct-1", "k-2", t0.Add(time.Second)),
		record(t, "c-3", "ct-1", "k-1", t0.Add(2*time.Second)),
	})
	assert.ErrorIs(t, err, contract.ErrDuplicateIdempotencyKey)

	list, err := store.ListByContract(ctx, "ct-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestStore_ListByContractOrdersByTime(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Sub-second offsets that would sort wrongly as trimmed RFC3339Nano text.
	offsets := []time.Duration{150 * time.Millisecond, 100 * time.Millisecond, 0, 2 * time.Second}
	for i, off := range offsets {
		require.NoError(t, store.Save(ctx, record(t, fmt.Sprintf("c-%d", i), "ct-1", "", t0.Add(off))))
	}
	require.NoError(t, store.Save(ctx, record(t, "other", "ct-2", "", t0)))

	list, err := store.ListByContract(ctx, "ct-1")
	require.NoError(t, err)
	require.Len(t, list, 4)
	ids := []string{list[0].ID, list[1].ID, list[2].ID, list[3].ID}
	assert.Equal(t, []string{"c-2", "c-1", "c-0", "c-3"}, ids)

	empty, err := store.ListByContract(ctx, "none")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStore_WithContractService(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	svc := contract.NewService(store, contract.StaticPolicy(factory.Statutory2026()))

	first, err := svc.Calculate(ctx, contract.CalculateRequest{
		ContractID:     "ct-9",
		IdempotencyKey: "submit-1",
		Input: wage.EstimateInput{
			HourlyWage: 10320, StartTime: "09:00", EndTime: "18:00", BreakMinutes: 60, WorkDaysPerWeek: 5,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "kr-2026", first.PolicyID)
	assert.Equal(t, wage.Won(2152339), first.Result.Monthly.TotalWage)

	again, err := svc.Calculate(ctx, contract.CalculateRequest{ContractID: "ct-9", IdempotencyKey: "submit-1"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
}

// =============================================================================
// POLICIES
// =============================================================================

func TestStore_PolicyVersions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc, err := factory.MarshalPolicy(factory.Statutory2025())
	require.NoError(t, err)

	v1, err := store.SavePolicy(ctx, sqlite.PolicyRecord{ID: "kr-2025", Name: "Korea 2025", ConfigJSON: doc, EffectiveFrom: factory.Statutory2025().EffectiveFrom})
	require.NoError(t, err)
	v2, err := store.SavePolicy(ctx, sqlite.PolicyRecord{ID: "kr-2025", Name: "Korea 2025 (corrected)", ConfigJSON: doc, EffectiveFrom: factory.Statutory2025().EffectiveFrom})
	require.NoError(t, err)
	assert.Equal(t, 1, v1)
	assert.Equal(t, 2, v2)

	latest, err := store.GetPolicy(ctx, "kr-2025")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 2, latest.Version)
	assert.Equal(t, "Korea 2025 (corrected)", latest.Name)

	old, err := store.GetPolicyVersion(ctx, "kr-2025", 1)
	require.NoError(t, err)
	require.NotNil(t, old)
	assert.Equal(t, "Korea 2025", old.Name)

	_, err = store.SavePolicy(ctx, sqlite.PolicyRecord{ID: "kr-2025", Version: 2, Name: "dup", ConfigJSON: doc})
	assert.Error(t, err)

	missing, err := store.GetPolicy(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStore_LatestEffectivePolicy(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, p := range factory.Presets() {
		doc, err := factory.MarshalPolicy(p)
		require.NoError(t, err)
		_, err = store.SavePolicy(ctx, sqlite.PolicyRecord{ID: p.ID, Name: p.Name, ConfigJSON: doc, EffectiveFrom: p.EffectiveFrom})
		require.NoError(t, err)
	}

	list, err := store.ListPolicies(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	got, err := store.LatestEffectivePolicy(ctx, time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "kr-2025", got.ID)

	none, err := store.LatestEffectivePolicy(ctx, time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Nil(t, none)
}
