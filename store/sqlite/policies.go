package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const (
	dateLayout = "2006-01-02"

	// timeLayout is fixed width so stored timestamps sort as text.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// PolicyRecord is one stored version of a policy document.
type PolicyRecord struct {
	ID            string
	Version       int
	Name          string
	ConfigJSON    string
	EffectiveFrom time.Time
	CreatedAt     time.Time
}

// SavePolicy stores a new version of a policy. When Version is 0 the next
// version number is assigned. Returns the stored version.
func (s *Store) SavePolicy(ctx context.Context, p PolicyRecord) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if p.Version == 0 {
		var current sql.NullInt64
		if err := tx.QueryRowContext(ctx, `SELECT MAX(version) FROM policies WHERE id = ?`, p.ID).Scan(&current); err != nil {
			return 0, fmt.Errorf("failed to read policy version: %w", err)
		}
		p.Version = int(current.Int64) + 1
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	var effective sql.NullString
	if !p.EffectiveFrom.IsZero() {
		effective = sql.NullString{String: p.EffectiveFrom.Format(dateLayout), Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO policies (id, version, name, config_json, effective_from, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Version, p.Name, p.ConfigJSON, effective, p.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return 0, fmt.Errorf("policy %s version %d already exists", p.ID, p.Version)
		}
		return 0, fmt.Errorf("failed to save policy: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit policy: %w", err)
	}
	return p.Version, nil
}

const policyColumns = `id, version, name, config_json, effective_from, created_at`

// GetPolicy returns the latest version of a policy, or nil if none exists.
func (s *Store) GetPolicy(ctx context.Context, id string) (*PolicyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+policyColumns+` FROM policies WHERE id = ? ORDER BY version DESC LIMIT 1`, id)
	return scanPolicyOrNil(row)
}

// GetPolicyVersion returns one specific version, or nil.
func (s *Store) GetPolicyVersion(ctx context.Context, id string, version int) (*PolicyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+policyColumns+` FROM policies WHERE id = ? AND version = ?`, id, version)
	return scanPolicyOrNil(row)
}

// ListPolicies returns the latest version of every policy.
func (s *Store) ListPolicies(ctx context.Context) ([]PolicyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+policyColumns+` FROM policies p
		WHERE version = (SELECT MAX(version) FROM policies WHERE id = p.id)
		ORDER BY effective_from, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list policies: %w", err)
	}
	defer rows.Close()

	var out []PolicyRecord
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// LatestEffectivePolicy returns the latest version of the policy with the
// most recent effective_from not after asOf, or nil if none applies.
func (s *Store) LatestEffectivePolicy(ctx context.Context, asOf time.Time) (*PolicyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT `+policyColumns+` FROM policies p
		WHERE effective_from IS NOT NULL AND effective_from <= ?
		  AND version = (SELECT MAX(version) FROM policies WHERE id = p.id)
		ORDER BY effective_from DESC, created_at DESC
		LIMIT 1`, asOf.Format(dateLayout))
	return scanPolicyOrNil(row)
}

func scanPolicyOrNil(row scanner) (*PolicyRecord, error) {
	p, err := scanPolicy(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanPolicy(row scanner) (PolicyRecord, error) {
	var (
		p         PolicyRecord
		effective sql.NullString
		createdAt string
	)
	if err := row.Scan(&p.ID, &p.Version, &p.Name, &p.ConfigJSON, &effective, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PolicyRecord{}, err
		}
		return PolicyRecord{}, fmt.Errorf("failed to scan policy: %w", err)
	}
	if effective.Valid {
		t, err := time.Parse(dateLayout, effective.String)
		if err != nil {
			return PolicyRecord{}, fmt.Errorf("failed to parse effective_from: %w", err)
		}
		p.EffectiveFrom = t
	}
	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return PolicyRecord{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	p.CreatedAt = t
	return p, nil
}
