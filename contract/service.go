package contract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/warp/wage-engine/wage"
	"golang.org/x/sync/errgroup"
)

// batchConcurrency bounds how many estimates a batch computes at once.
const batchConcurrency = 8

// Service computes estimates under the active policy and records them.
type Service struct {
	Store    Store
	Policies PolicySource

	// Now and NewID are replaceable in tests.
	Now   func() time.Time
	NewID func() string
}

// NewService creates a service backed by store.
func NewService(store Store, policies PolicySource) *Service {
	return &Service{
		Store:    store,
		Policies: policies,
		Now:      func() time.Time { return time.Now().UTC() },
		NewID:    func() string { return uuid.NewString() },
	}
}

// Calculate computes and records one calculation. A request whose
// idempotency key was already used returns the recorded calculation.
func (s *Service) Calculate(ctx context.Context, req CalculateRequest) (Record, error) {
	if strings.TrimSpace(req.ContractID) == "" {
		return Record{}, ErrContractRequired
	}
	if existing, ok, err := s.existing(ctx, req.IdempotencyKey); err != nil || ok {
		return existing, err
	}

	svc, err := s.wageService(ctx)
	if err != nil {
		return Record{}, err
	}
	rec, err := s.compute(svc, req)
	if err != nil {
		return Record{}, err
	}

	if err := s.Store.Save(ctx, rec); err != nil {
		if errors.Is(err, ErrDuplicateIdempotencyKey) {
			// Lost a race with an identical request.
			return s.Store.FindByIdempotencyKey(ctx, req.IdempotencyKey)
		}
		return Record{}, fmt.Errorf("failed to save calculation: %w", err)
	}
	return rec, nil
}

// CalculateBatch computes every request concurrently and records them in
// one atomic write, preserving request order. Requests whose idempotency
// key already exists come back as the recorded calculation and are not
// written again. Any invalid request fails the whole batch.
func (s *Service) CalculateBatch(ctx context.Context, reqs []CalculateRequest) ([]Record, error) {
	svc, err := s.wageService(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Record, len(reqs))
	fresh := make([]bool, len(reqs))
	seen := make(map[string]int)

	for i, req := range reqs {
		if strings.TrimSpace(req.ContractID) == "" {
			return nil, fmt.Errorf("request %d: %w", i, ErrContractRequired)
		}
		if req.IdempotencyKey != "" {
			if j, dup := seen[req.IdempotencyKey]; dup {
				return nil, fmt.Errorf("request %d repeats idempotency key of request %d: %w", i, j, ErrDuplicateIdempotencyKey)
			}
			seen[req.IdempotencyKey] = i
		}
		existing, ok, err := s.existing(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if ok {
			out[i] = existing
			continue
		}
		fresh[i] = true
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for i := range reqs {
		if !fresh[i] {
			continue
		}
		g.Go(func() error {
			rec, err := s.compute(svc, reqs[i])
			if err != nil {
				return fmt.Errorf("request %d: %w", i, err)
			}
			out[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	err = s.saveFresh(ctx, out, fresh)
	if errors.Is(err, ErrDuplicateIdempotencyKey) {
		// Another request took a key after the lookup above.
		if err := s.reuseExisting(ctx, reqs, out, fresh); err != nil {
			return nil, err
		}
		err = s.saveFresh(ctx, out, fresh)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save calculations: %w", err)
	}
	return out, nil
}

func (s *Service) saveFresh(ctx context.Context, out []Record, fresh []bool) error {
	var toSave []Record
	for i, rec := range out {
		if fresh[i] {
			toSave = append(toSave, rec)
		}
	}
	if len(toSave) == 0 {
		return nil
	}
	return s.Store.SaveBatch(ctx, toSave)
}

// reuseExisting swaps in the stored record for every fresh request whose
// key now exists.
func (s *Service) reuseExisting(ctx context.Context, reqs []CalculateRequest, out []Record, fresh []bool) error {
	for i, req := range reqs {
		if !fresh[i] {
			continue
		}
		existing, ok, err := s.existing(ctx, req.IdempotencyKey)
		if err != nil {
			return err
		}
		if ok {
			out[i] = existing
			fresh[i] = false
		}
	}
	return nil
}

// Get returns one record.
func (s *Service) Get(ctx context.Context, id string) (Record, error) {
	return s.Store.Get(ctx, id)
}

// ListByContract returns a contract's records, oldest first.
func (s *Service) ListByContract(ctx context.Context, contractID string) ([]Record, error) {
	return s.Store.ListByContract(ctx, contractID)
}

func (s *Service) existing(ctx context.Context, key string) (Record, bool, error) {
	if key == "" {
		return Record{}, false, nil
	}
	rec, err := s.Store.FindByIdempotencyKey(ctx, key)
	switch {
	case err == nil:
		return rec, true, nil
	case errors.Is(err, ErrNotFound):
		return Record{}, false, nil
	default:
		return Record{}, false, fmt.Errorf("failed to check idempotency key: %w", err)
	}
}

func (s *Service) wageService(ctx context.Context) (*wage.Service, error) {
	policy, err := s.Policies.ActivePolicy(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPolicyUnavailable, err)
	}
	svc, err := wage.NewService(policy)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPolicyUnavailable, err)
	}
	return svc, nil
}

func (s *Service) compute(svc *wage.Service, req CalculateRequest) (Record, error) {
	est, err := svc.Estimate(req.Input)
	if err != nil {
		return Record{}, err
	}
	p := svc.Policy()
	return Record{
		ID:             s.NewID(),
		ContractID:     req.ContractID,
		PolicyID:       p.ID,
		PolicyVersion:  p.Version,
		Input:          req.Input,
		Result:         est,
		IdempotencyKey: req.IdempotencyKey,
		CreatedAt:      s.Now(),
	}, nil
}
