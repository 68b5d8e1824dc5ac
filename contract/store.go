package contract

import (
	"context"
	"errors"

	"github.com/warp/wage-engine/wage"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("calculation not found")

	// ErrDuplicateIdempotencyKey is returned by Store.Save when the key is
	// already taken. Service handles it by returning the existing record.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	// ErrContractRequired is returned when a request has no contract id.
	ErrContractRequired = errors.New("contract id is required")

	// ErrPolicyUnavailable is returned when the active policy cannot be
	// loaded or fails validation. It is a server fault even when the
	// underlying error is an invalid-input error.
	ErrPolicyUnavailable = errors.New("active policy unavailable")
)

// Store persists records. Records are never updated or deleted.
type Store interface {
	// Save persists one record.
	Save(ctx context.Context, r Record) error

	// SaveBatch persists records atomically: all or none.
	SaveBatch(ctx context.Context, rs []Record) error

	// Get returns ErrNotFound when id is unknown.
	Get(ctx context.Context, id string) (Record, error)

	// ListByContract returns records oldest first.
	ListByContract(ctx context.Context, contractID string) ([]Record, error)

	// FindByIdempotencyKey returns ErrNotFound when no record has the key.
	FindByIdempotencyKey(ctx context.Context, key string) (Record, error)
}

// PolicySource supplies the policy new calculations use.
type PolicySource interface {
	ActivePolicy(ctx context.Context) (wage.Policy, error)
}

// PolicyFunc adapts a function to PolicySource.
type PolicyFunc func(ctx context.Context) (wage.Policy, error)

func (f PolicyFunc) ActivePolicy(ctx context.Context) (wage.Policy, error) { return f(ctx) }

// StaticPolicy always returns p.
func StaticPolicy(p wage.Policy) PolicySource {
	return PolicyFunc(func(context.Context) (wage.Policy, error) { return p, nil })
}
