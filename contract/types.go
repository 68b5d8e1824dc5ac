/*
Package contract records wage calculations made for employment contracts.

PURPOSE:
  The contract builder asks for a wage estimate while the author fills in a
  shift. Once the author commits the figures, the calculation is recorded
  here together with the policy version that produced it, so a contract
  issued under 2025 rules keeps its 2025 numbers after the policy changes.

KEY TYPES:
  Record:           one saved calculation (input + result + policy version)
  CalculateRequest: what a caller submits
  Store:            persistence interface (sqlite, memory)
  Service:          computes with the active policy and persists

IDEMPOTENCY:
  Every request may carry an idempotency key. Submitting the same key twice
  returns the first record instead of creating a second one, so a double
  click in the UI never produces two calculations.

SEE ALSO:
  - wage/service.go:       the calculation itself
  - store/sqlite/sqlite.go: durable Store implementation
  - contract/store/memory.go: in-memory Store for tests
*/
package contract

import (
	"time"

	"github.com/warp/wage-engine/wage"
)

// Record is an immutable saved calculation.
type Record struct {
	ID             string             `json:"id"`
	ContractID     string             `json:"contract_id"`
	PolicyID       string             `json:"policy_id"`
	PolicyVersion  int                `json:"policy_version"`
	Input          wage.EstimateInput `json:"input"`
	Result         wage.Estimate      `json:"result"`
	IdempotencyKey string             `json:"idempotency_key,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
}

// CalculateRequest asks for a calculation to be made and recorded.
type CalculateRequest struct {
	ContractID     string
	IdempotencyKey string
	Input          wage.EstimateInput
}
