package contract_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/wage-engine/contract"
	"github.com/warp/wage-engine/contract/store"
	"github.com/warp/wage-engine/factory"
	"github.com/warp/wage-engine/wage"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestService(t *testing.T, policy wage.Policy) (*contract.Service, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	svc := contract.NewService(mem, contract.StaticPolicy(policy))

	var seq atomic.Int64
	base := time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)
	svc.NewID = func() string { return fmt.Sprintf("calc-%d", seq.Add(1)) }
	svc.Now = func() time.Time { return base.Add(time.Duration(seq.Load()) * time.Second) }
	return svc, mem
}

func fullTime() wage.EstimateInput {
	return wage.EstimateInput{
		HourlyWage:      10030,
		StartTime:       "09:00",
		EndTime:         "18:00",
		BreakMinutes:    60,
		WorkDaysPerWeek: 5,
	}
}

// =============================================================================
// CALCULATE
// =============================================================================

func TestCalculate_RecordsPolicyVersion(t *testing.T) {
	svc, _ := newTestService(t, factory.Statutory2025())
	ctx := context.Background()

	rec, err := svc.Calculate(ctx, contract.CalculateRequest{ContractID: "ct-1", Input: fullTime()})
	require.NoError(t, err)

	assert.Equal(t, "calc-1", rec.ID)
	assert.Equal(t, "ct-1", rec.ContractID)
	assert.Equal(t, "kr-2025", rec.PolicyID)
	assert.Equal(t, 1, rec.PolicyVersion)
	assert.Equal(t, wage.Won(2091857), rec.Result.Monthly.TotalWage)
	assert.True(t, rec.Result.MinimumWage.Compliant)

	got, err := svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestCalculate_IdempotencyKeyReturnsFirstRecord(t *testing.T) {
	// GIVEN: a calculation submitted with key "k-1"
	// WHEN: the same key is submitted again with different input
	// THEN: the first record comes back and nothing new is stored
	svc, mem := newTestService(t, factory.Statutory2025())
	ctx := context.Background()

	first, err := svc.Calculate(ctx, contract.CalculateRequest{ContractID: "ct-1", IdempotencyKey: "k-1", Input: fullTime()})
	require.NoError(t, err)

	changed := fullTime()
	changed.HourlyWage = 20000
	second, err := svc.Calculate(ctx, contract.CalculateRequest{ContractID: "ct-1", IdempotencyKey: "k-1", Input: changed})
	require.NoError(t, err)
	assert.Equal(t, first, second)

	list, err := mem.ListByContract(ctx, "ct-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCalculate_Errors(t *testing.T) {
	svc, _ := newTestService(t, wage.DefaultPolicy())
	ctx := context.Background()

	_, err := svc.Calculate(ctx, contract.CalculateRequest{Input: fullTime()})
	assert.ErrorIs(t, err, contract.ErrContractRequired)

	bad := fullTime()
	bad.StartTime = "9am"
	_, err = svc.Calculate(ctx, contract.CalculateRequest{ContractID: "ct-1", Input: bad})
	assert.ErrorIs(t, err, wage.ErrParse)

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, contract.ErrNotFound)
}

func TestCalculate_PolicyError(t *testing.T) {
	boom := errors.New("db down")
	svc := contract.NewService(store.NewMemory(), contract.PolicyFunc(func(context.Context) (wage.Policy, error) {
		return wage.Policy{}, boom
	}))

	_, err := svc.Calculate(context.Background(), contract.CalculateRequest{ContractID: "ct-1", Input: fullTime()})
	assert.ErrorIs(t, err, boom)
}

// =============================================================================
// BATCH
// =============================================================================

func TestCalculateBatch_PreservesOrder(t *testing.T) {
	svc, mem := newTestService(t, wage.DefaultPolicy())
	ctx := context.Background()

	var reqs []contract.CalculateRequest
	for i := 1; i <= 20; i++ {
		in := fullTime()
		in.WorkDaysPerWeek = float64(i%7 + 1)
		reqs = append(reqs, contract.CalculateRequest{
			ContractID:     "ct-batch",
			IdempotencyKey: fmt.Sprintf("b-%d", i),
			Input:          in,
		})
	}

	recs, err := svc.CalculateBatch(ctx, reqs)
	require.NoError(t, err)
	require.Len(t, recs, len(reqs))
	for i, rec := range recs {
		assert.Equal(t, reqs[i].IdempotencyKey, rec.IdempotencyKey)
		assert.Equal(t, reqs[i].Input.WorkDaysPerWeek*8, rec.Result.Monthly.WeeklyWorkHours)
	}

	list, err := mem.ListByContract(ctx, "ct-batch")
	require.NoError(t, err)
	assert.Len(t, list, 20)
}

func TestCalculateBatch_ReusesExistingKeys(t *testing.T) {
	svc, mem := newTestService(t, wage.DefaultPolicy())
	ctx := context.Background()

	first, err := svc.Calculate(ctx, contract.CalculateRequest{ContractID: "ct-1", IdempotencyKey: "k-1", Input: fullTime()})
	require.NoError(t, err)

	recs, err := svc.CalculateBatch(ctx, []contract.CalculateRequest{
		{ContractID: "ct-1", IdempotencyKey: "k-1", Input: fullTime()},
		{ContractID: "ct-1", IdempotencyKey: "k-2", Input: fullTime()},
	})
	require.NoError(t, err)
	assert.Equal(t, first, recs[0])
	assert.NotEqual(t, first.ID, recs[1].ID)

	list, err := mem.ListByContract(ctx, "ct-1")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestCalculateBatch_InvalidRequestWritesNothing(t *testing.T) {
	svc, mem := newTestService(t, wage.DefaultPolicy())
	ctx := context.Background()

	bad := fullTime()
	bad.WorkDaysPerWeek = 0
	_, err := svc.CalculateBatch(ctx, []contract.CalculateRequest{
		{ContractID: "ct-1", Input: fullTime()},
		{ContractID: "ct-1", Input: bad},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, wage.ErrInvalidInput)

	list, err := mem.ListByContract(ctx, "ct-1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCalculateBatch_RepeatedKeyRejected(t *testing.T) {
	svc, _ := newTestService(t, wage.DefaultPolicy())
	_, err := svc.CalculateBatch(context.Background(), []contract.CalculateRequest{
		{ContractID: "ct-1", IdempotencyKey: "same", Input: fullTime()},
		{ContractID: "ct-1", IdempotencyKey: "same", Input: fullTime()},
	})
	assert.ErrorIs(t, err, contract.ErrDuplicateIdempotencyKey)
}

// keyTakingStore saves another record under key just before the first
// SaveBatch, like a concurrent request with the same key would.
type keyTakingStore struct {
	*store.Memory
	key   string
	taken bool
}

func (s *keyTakingStore) SaveBatch(ctx context.Context, rs []contract.Record) error {
	if !s.taken {
		s.taken = true
		err := s.Memory.Save(ctx, contract.Record{ID: "concurrent", ContractID: "ct-1", IdempotencyKey: s.key})
		if err != nil {
			return err
		}
	}
	return s.Memory.SaveBatch(ctx, rs)
}

func TestCalculateBatch_KeyTakenBeforeSave(t *testing.T) {
	// GIVEN: A key that another request records between lookup and save
	taker := &keyTakingStore{Memory: store.NewMemory(), key: "k"}
	svc := contract.NewService(taker, contract.StaticPolicy(wage.DefaultPolicy()))
	ctx := context.Background()

	// WHEN: The batch is recorded
	recs, err := svc.CalculateBatch(ctx, []contract.CalculateRequest{
		{ContractID: "ct-1", IdempotencyKey: "k", Input: fullTime()},
		{ContractID: "ct-1", IdempotencyKey: "k-other", Input: fullTime()},
	})

	// THEN: The taken key returns the stored record and the rest is saved
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "concurrent", recs[0].ID)
	assert.Equal(t, "k-other", recs[1].IdempotencyKey)

	list, err := taker.ListByContract(ctx, "ct-1")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestCalculate_InvalidPolicyIsUnavailable(t *testing.T) {
	broken := wage.DefaultPolicy()
	broken.WeeksPerMonth = -1
	svc := contract.NewService(store.NewMemory(), contract.StaticPolicy(broken))

	_, err := svc.Calculate(context.Background(), contract.CalculateRequest{ContractID: "ct-1", Input: fullTime()})
	assert.ErrorIs(t, err, contract.ErrPolicyUnavailable)

	_, err = svc.CalculateBatch(context.Background(), []contract.CalculateRequest{{ContractID: "ct-1", Input: fullTime()}})
	assert.ErrorIs(t, err, contract.ErrPolicyUnavailable)
}
