// Package store provides contract.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/wage-engine/contract"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	records     map[string]contract.Record
	byContract  map[string][]string
	idempotency map[string]string
}

func NewMemory() *Memory {
	return &Memory{
		records:     make(map[string]contract.Record),
		byContract:  make(map[string][]string),
		idempotency: make(map[string]string),
	}
}

// Save adds a single record. Append-only.
func (m *Memory) Save(_ context.Context, r contract.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.IdempotencyKey != "" {
		if _, ok := m.idempotency[r.IdempotencyKey]; ok {
			return contract.ErrDuplicateIdempotencyKey
		}
	}
	m.saveLocked(r)
	return nil
}

// SaveBatch adds multiple records atomically.
func (m *Memory) SaveBatch(_ context.Context, rs []contract.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Check all idempotency keys first (atomic check)
	keys := make(map[string]bool)
	for _, r := range rs {
		if r.IdempotencyKey == "" {
			continue
		}
		if _, ok := m.idempotency[r.IdempotencyKey]; ok || keys[r.IdempotencyKey] {
			return contract.ErrDuplicateIdempotencyKey
		}
		keys[r.IdempotencyKey] = true
	}

	for _, r := range rs {
		m.saveLocked(r)
	}
	return nil
}

func (m *Memory) saveLocked(r contract.Record) {
	m.records[r.ID] = r
	m.byContract[r.ContractID] = append(m.byContract[r.ContractID], r.ID)
	if r.IdempotencyKey != "" {
		m.idempotency[r.IdempotencyKey] = r.ID
	}
}

func (m *Memory) Get(_ context.Context, id string) (contract.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[id]
	if !ok {
		return contract.Record{}, contract.ErrNotFound
	}
	return r, nil
}

func (m *Memory) ListByContract(_ context.Context, contractID string) ([]contract.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := m.byContract[contractID]
	out := make([]contract.Record, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.records[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) FindByIdempotencyKey(_ context.Context, key string) (contract.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.idempotency[key]
	if !ok {
		return contract.Record{}, contract.ErrNotFound
	}
	return m.records[id], nil
}

var _ contract.Store = (*Memory)(nil)
