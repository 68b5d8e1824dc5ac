/*
Package sqlite provides a SQLite-backed store for policies and calculations.

PURPOSE:
  Persists the two things the wage service must remember:
  - policy versions (so calculations can be traced to the rules they used)
  - calculations recorded for contracts (contract.Store)

APPEND-ONLY:
  Neither table is updated in place. A policy change inserts a new version;
  a recalculation inserts a new record.

KEY TABLES:
  policies:     (id, version) primary key, config stored as JSON
  calculations: one row per recorded calculation, input/result as JSON,
                unique idempotency key

CONCURRENCY:
  Uses sync.RWMutex around writes; SQLite itself serialises writers.
  Opened in WAL mode so readers don't block the writer.

USAGE:
  store, err := sqlite.New("./data/wages.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - contract/store.go: interface implemented here
  - factory/policy.go: policy document format stored in config_json
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/warp/wage-engine/contract"
)

// Store implements contract.Store and policy persistence.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Each connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS policies (
		id TEXT NOT NULL,
		version INTEGER NOT NULL,
		name TEXT NOT NULL,
		config_json TEXT NOT NULL,
		effective_from TEXT,
		created_at TEXT NOT NULL,
		PRIMARY KEY (id, version)
	);

	CREATE INDEX IF NOT EXISTS idx_policies_effective_from
		ON policies(effective_from);

	CREATE TABLE IF NOT EXISTS calculations (
		id TEXT PRIMARY KEY,
		contract_id TEXT NOT NULL,
		policy_id TEXT NOT NULL,
		policy_version INTEGER NOT NULL,
		input_json TEXT NOT NULL,
		result_json TEXT NOT NULL,
		total_wage INTEGER NOT NULL,
		idempotency_key TEXT UNIQUE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_calculations_contract
		ON calculations(contract_id, created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CALCULATION STORE (contract.Store interface)
// =============================================================================

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Save inserts one calculation.
func (s *Store) Save(ctx context.Context, r contract.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertRecord(ctx, s.db, r)
}

// SaveBatch inserts calculations in one transaction.
func (s *Store) SaveBatch(ctx context.Context, rs []contract.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, r := range rs {
		if err := s.insertRecord(ctx, tx, r); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) insertRecord(ctx context.Context, db execer, r contract.Record) error {
	inputJSON, err := json.Marshal(r.Input)
	if err != nil {
		return fmt.Errorf("failed to encode input: %w", err)
	}
	resultJSON, err := json.Marshal(r.Result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO calculations
		(id, contract_id, policy_id, policy_version, input_json, result_json, total_wage, idempotency_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		r.ContractID,
		r.PolicyID,
		r.PolicyVersion,
		string(inputJSON),
		string(resultJSON),
		int64(r.Result.Monthly.TotalWage),
		nullString(r.IdempotencyKey),
		r.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return contract.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("failed to save calculation: %w", err)
	}
	return nil
}

const recordColumns = `id, contract_id, policy_id, policy_version, input_json, result_json, idempotency_key, created_at`

// Get returns a calculation by id.
func (s *Store) Get(ctx context.Context, id string) (contract.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM calculations WHERE id = ?`, id)
	return scanRecord(row)
}

// FindByIdempotencyKey returns the calculation saved under key.
func (s *Store) FindByIdempotencyKey(ctx context.Context, key string) (contract.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM calculations WHERE idempotency_key = ?`, key)
	return scanRecord(row)
}

// ListByContract returns a contract's calculations, oldest first.
func (s *Store) ListByContract(ctx context.Context, contractID string) ([]contract.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM calculations WHERE contract_id = ? ORDER BY created_at, rowid`, contractID)
	if err != nil {
		return nil, fmt.Errorf("failed to list calculations: %w", err)
	}
	defer rows.Close()

	records := []contract.Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (contract.Record, error) {
	var (
		r                     contract.Record
		inputJSON, resultJSON string
		key                   sql.NullString
		createdAt             string
	)
	err := row.Scan(&r.ID, &r.ContractID, &r.PolicyID, &r.PolicyVersion, &inputJSON, &resultJSON, &key, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return contract.Record{}, contract.ErrNotFound
	}
	if err != nil {
		return contract.Record{}, fmt.Errorf("failed to scan calculation: %w", err)
	}
	if err := json.Unmarshal([]byte(inputJSON), &r.Input); err != nil {
		return contract.Record{}, fmt.Errorf("failed to decode input: %w", err)
	}
	if err := json.Unmarshal([]byte(resultJSON), &r.Result); err != nil {
		return contract.Record{}, fmt.Errorf("failed to decode result: %w", err)
	}
	r.IdempotencyKey = key.String
	r.CreatedAt, err = time.Parse(timeLayout, createdAt)
	if err != nil {
		return contract.Record{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return r, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

var _ contract.Store = (*Store)(nil)
