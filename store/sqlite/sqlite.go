/*
Package sqlite provides a SQLite-backed implementation of store.Store.

PURPOSE:
  Persists the records the pay engine reads: the employee directory with
  its contract history, raw punches, manual payments, tip payouts and tip
  pools. Nothing derived (sessions, pay, labor cost) is ever written here.

PUNCH SEMANTICS:
  - No UPDATE of a punch's identity; edits replace timestamp/kind/note
  - No DELETE statements on punches: DeletePunch sets deleted_at
  - Listings skip soft-deleted rows

KEY TABLES:
  employees:   Directory records, contract history as JSON
  punches:     Clock events (soft delete via deleted_at)
  payments:    Manual per-job payments
  tip_payouts: Tips already paid out
  tip_pools:   Pools with their shares as JSON

INDEXES:
  - idx_punches_employee_ts: Session reconstruction (hot path)
  - idx_payments_date / idx_payouts_date / idx_pools_date: Period queries

TIME ENCODING:
  Punch instants are stored in UTC with a fixed-width layout so that string
  comparison in SQL matches chronological order. Calendar days are stored
  as "2006-01-02".

CONCURRENCY:
  Uses sync.RWMutex for thread-safety; SQLite is opened in WAL mode so
  readers don't block each other.

USAGE:
  st, err := sqlite.New("./data/pay.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()

SEE ALSO:
  - store/store.go: Interface definitions
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/pay-engine/compensation"
	"github.com/warp/pay-engine/generic"
	"github.com/warp/pay-engine/punch"
	"github.com/warp/pay-engine/store"
	"github.com/warp/pay-engine/tippool"
)

// instantLayout is RFC3339Nano with a fixed number of fraction digits.
const instantLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements store.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ store.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// ":memory:" gives each connection its own database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Employee directory
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		position TEXT,
		status TEXT NOT NULL,
		active_from TEXT NOT NULL,
		active_until TEXT,
		tip_eligible INTEGER,
		contracts_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Punches (source of truth, soft delete only)
	CREATE TABLE IF NOT EXISTS punches (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		ts TEXT NOT NULL,
		kind TEXT NOT NULL,
		note TEXT,
		deleted_at TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_punches_employee_ts
		ON punches(employee_id, ts);
	CREATE INDEX IF NOT EXISTS idx_punches_ts
		ON punches(ts) WHERE deleted_at IS NULL;

	-- Manual payments (per-job contractors)
	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		amount_cents INTEGER NOT NULL,
		note TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payments_date
		ON payments(date);

	-- Tips already paid out
	CREATE TABLE IF NOT EXISTS tip_payouts (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		amount_cents INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payouts_date
		ON tip_payouts(date);

	-- Tip pools
	CREATE TABLE IF NOT EXISTS tip_pools (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		status TEXT NOT NULL,
		pool_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_pools_date
		ON tip_pools(date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// SaveEmployee inserts or replaces an employee and its contract history.
func (s *Store) SaveEmployee(ctx context.Context, e compensation.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	contractsJSON, err := json.Marshal(e.Contracts)
	if err != nil {
		return fmt.Errorf("failed to encode contracts: %w", err)
	}

	var activeUntil sql.NullString
	if e.ActiveUntil != nil {
		activeUntil = nullString(e.ActiveUntil.String())
	}
	var tipEligible sql.NullBool
	if e.TipEligible != nil {
		tipEligible = sql.NullBool{Bool: *e.TipEligible, Valid: true}
	}

	query := `
		INSERT INTO employees
		(id, name, position, status, active_from, active_until, tip_eligible, contracts_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			position = excluded.position,
			status = excluded.status,
			active_from = excluded.active_from,
			active_until = excluded.active_until,
			tip_eligible = excluded.tip_eligible,
			contracts_json = excluded.contracts_json,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx, query,
		string(e.ID),
		e.Name,
		nullString(e.Position),
		string(e.Status),
		e.ActiveFrom.String(),
		activeUntil,
		tipEligible,
		string(contractsJSON),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

// GetEmployee retrieves an employee by ID.
func (s *Store) GetEmployee(ctx context.Context, id generic.EmployeeID) (compensation.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, employeeSelect+" WHERE id = ?", string(id))
	e, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return compensation.Employee{}, fmt.Errorf("employee %s: %w", id, generic.ErrNotFound)
	}
	if err != nil {
		return compensation.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}
	return e, nil
}

// ListEmployees returns all employees ordered by id.
func (s *Store) ListEmployees(ctx context.Context) ([]compensation.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, employeeSelect+" ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var employees []compensation.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

const employeeSelect = `
	SELECT id, name, position, status, active_from, active_until, tip_eligible, contracts_json
	FROM employees`

type scanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row scanner) (compensation.Employee, error) {
	var (
		e                       compensation.Employee
		id, status, from, cjson string
		position, until         sql.NullString
		tipEligible             sql.NullBool
	)
	if err := row.Scan(&id, &e.Name, &position, &status, &from, &until, &tipEligible, &cjson); err != nil {
		return compensation.Employee{}, err
	}

	e.ID = generic.EmployeeID(id)
	e.Position = position.String
	e.Status = compensation.Status(status)

	var err error
	if e.ActiveFrom, err = generic.ParseDate(from); err != nil {
		return compensation.Employee{}, fmt.Errorf("employee %s: bad active_from %q: %w", id, from, err)
	}
	if until.Valid {
		u, err := generic.ParseDate(until.String)
		if err != nil {
			return compensation.Employee{}, fmt.Errorf("employee %s: bad active_until %q: %w", id, until.String, err)
		}
		e.ActiveUntil = &u
	}
	if tipEligible.Valid {
		v := tipEligible.Bool
		e.TipEligible = &v
	}
	if err := json.Unmarshal([]byte(cjson), &e.Contracts); err != nil {
		return compensation.Employee{}, fmt.Errorf("employee %s: bad contracts: %w", id, err)
	}
	return e, nil
}

// =============================================================================
// PUNCHES
// =============================================================================

// AppendPunch records a new clock event.
func (s *Store) AppendPunch(ctx context.Context, e punch.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO punches (id, employee_id, ts, kind, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		string(e.ID),
		string(e.EmployeeID),
		formatInstant(e.Timestamp),
		string(e.Kind),
		nullString(e.Note),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("punch %s: %w", e.ID, generic.ErrDuplicate)
		}
		return fmt.Errorf("failed to append punch: %w", err)
	}
	return nil
}

// EditPunch applies a manager correction to a live punch.
func (s *Store) EditPunch(ctx context.Context, e punch.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE punches SET employee_id = ?, ts = ?, kind = ?, note = ?
		WHERE id = ? AND deleted_at IS NULL
	`, string(e.EmployeeID), formatInstant(e.Timestamp), string(e.Kind), nullString(e.Note), string(e.ID))
	if err != nil {
		return fmt.Errorf("failed to edit punch: %w", err)
	}
	return requireAffected(res, "punch", string(e.ID))
}

// DeletePunch soft-deletes a live punch.
func (s *Store) DeletePunch(ctx context.Context, id generic.PunchID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE punches SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL",
		time.Now().UTC().Format(time.RFC3339), string(id),
	)
	if err != nil {
		return fmt.Errorf("failed to delete punch: %w", err)
	}
	return requireAffected(res, "punch", string(id))
}

// GetPunch retrieves a live punch by ID.
func (s *Store) GetPunch(ctx context.Context, id generic.PunchID) (punch.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, punchSelect+" WHERE id = ? AND deleted_at IS NULL", string(id))
	e, err := scanPunch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return punch.Event{}, fmt.Errorf("punch %s: %w", id, generic.ErrNotFound)
	}
	if err != nil {
		return punch.Event{}, fmt.Errorf("failed to get punch: %w", err)
	}
	return e, nil
}

// ListPunches returns live punches matching the filter, ordered by timestamp.
func (s *Store) ListPunches(ctx context.Context, filter store.PunchFilter) ([]punch.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := punchSelect + " WHERE deleted_at IS NULL"
	var args []any
	if filter.EmployeeID != "" {
		query += " AND employee_id = ?"
		args = append(args, string(filter.EmployeeID))
	}
	if !filter.From.IsZero() {
		query += " AND ts >= ?"
		args = append(args, formatInstant(filter.From))
	}
	if !filter.To.IsZero() {
		query += " AND ts < ?"
		args = append(args, formatInstant(filter.To))
	}
	query += " ORDER BY ts, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list punches: %w", err)
	}
	defer rows.Close()

	var events []punch.Event
	for rows.Next() {
		e, err := scanPunch(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

const punchSelect = "SELECT id, employee_id, ts, kind, note FROM punches"

func scanPunch(row scanner) (punch.Event, error) {
	var (
		id, employeeID, ts, kind string
		note                     sql.NullString
	)
	if err := row.Scan(&id, &employeeID, &ts, &kind, &note); err != nil {
		return punch.Event{}, err
	}
	instant, err := time.Parse(instantLayout, ts)
	if err != nil {
		return punch.Event{}, fmt.Errorf("punch %s: bad timestamp %q: %w", id, ts, err)
	}
	return punch.Event{
		ID:         generic.PunchID(id),
		EmployeeID: generic.EmployeeID(employeeID),
		Timestamp:  instant,
		Kind:       punch.Kind(kind),
		Note:       note.String,
	}, nil
}

// =============================================================================
// PAYMENTS
// =============================================================================

// SavePayment records a manual payment.
func (s *Store) SavePayment(ctx context.Context, p compensation.ManualPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payments (id, employee_id, date, amount_cents, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, p.ID, string(p.EmployeeID), p.Date.String(), int64(p.AmountCents), nullString(p.Note),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("payment %s: %w", p.ID, generic.ErrDuplicate)
		}
		return fmt.Errorf("failed to save payment: %w", err)
	}
	return nil
}

// ListPayments returns payments dated inside the period.
func (s *Store) ListPayments(ctx context.Context, period generic.Period) ([]compensation.ManualPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, date, amount_cents, note FROM payments
		WHERE date >= ? AND date <= ?
		ORDER BY id
	`, period.Start.String(), period.End.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []compensation.ManualPayment
	for rows.Next() {
		var (
			p                compensation.ManualPayment
			employeeID, date string
			amount           int64
			note             sql.NullString
		)
		if err := rows.Scan(&p.ID, &employeeID, &date, &amount, &note); err != nil {
			return nil, err
		}
		if p.Date, err = generic.ParseDate(date); err != nil {
			return nil, fmt.Errorf("payment %s: bad date %q: %w", p.ID, date, err)
		}
		p.EmployeeID = generic.EmployeeID(employeeID)
		p.AmountCents = generic.Cents(amount)
		p.Note = note.String
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// =============================================================================
// TIPS
// =============================================================================

// SavePayout records tips paid out to an employee.
func (s *Store) SavePayout(ctx context.Context, p tippool.Payout) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tip_payouts (id, employee_id, date, amount_cents, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, p.ID, string(p.EmployeeID), p.Date.String(), int64(p.AmountCents),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("payout %s: %w", p.ID, generic.ErrDuplicate)
		}
		return fmt.Errorf("failed to save payout: %w", err)
	}
	return nil
}

// ListPayouts returns payouts dated inside the period.
func (s *Store) ListPayouts(ctx context.Context, period generic.Period) ([]tippool.Payout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, employee_id, date, amount_cents FROM tip_payouts
		WHERE date >= ? AND date <= ?
		ORDER BY id
	`, period.Start.String(), period.End.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list payouts: %w", err)
	}
	defer rows.Close()

	var payouts []tippool.Payout
	for rows.Next() {
		var (
			p                tippool.Payout
			employeeID, date string
			amount           int64
		)
		if err := rows.Scan(&p.ID, &employeeID, &date, &amount); err != nil {
			return nil, err
		}
		if p.Date, err = generic.ParseDate(date); err != nil {
			return nil, fmt.Errorf("payout %s: bad date %q: %w", p.ID, date, err)
		}
		p.EmployeeID = generic.EmployeeID(employeeID)
		p.AmountCents = generic.Cents(amount)
		payouts = append(payouts, p)
	}
	return payouts, rows.Err()
}

// SavePool inserts or replaces a tip pool.
func (s *Store) SavePool(ctx context.Context, p tippool.Pool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	poolJSON, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode tip pool: %w", err)
	}

	query := `
		INSERT INTO tip_pools (id, date, status, pool_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			status = excluded.status,
			pool_json = excluded.pool_json,
			updated_at = excluded.updated_at
	`
	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx, query, string(p.ID), p.Date.String(), string(p.Status), string(poolJSON), now, now)
	if err != nil {
		return fmt.Errorf("failed to save tip pool: %w", err)
	}
	return nil
}

// GetPool retrieves a tip pool by ID.
func (s *Store) GetPool(ctx context.Context, id generic.PoolID) (tippool.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var poolJSON string
	err := s.db.QueryRowContext(ctx, "SELECT pool_json FROM tip_pools WHERE id = ?", string(id)).Scan(&poolJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return tippool.Pool{}, fmt.Errorf("tip pool %s: %w", id, generic.ErrNotFound)
	}
	if err != nil {
		return tippool.Pool{}, fmt.Errorf("failed to get tip pool: %w", err)
	}
	return decodePool(poolJSON)
}

// ListPools returns pools dated inside the period.
func (s *Store) ListPools(ctx context.Context, period generic.Period) ([]tippool.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT pool_json FROM tip_pools
		WHERE date >= ? AND date <= ?
		ORDER BY id
	`, period.Start.String(), period.End.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list tip pools: %w", err)
	}
	defer rows.Close()

	var pools []tippool.Pool
	for rows.Next() {
		var poolJSON string
		if err := rows.Scan(&poolJSON); err != nil {
			return nil, err
		}
		p, err := decodePool(poolJSON)
		if err != nil {
			return nil, err
		}
		pools = append(pools, p)
	}
	return pools, rows.Err()
}

func decodePool(raw string) (tippool.Pool, error) {
	var p tippool.Pool
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return tippool.Pool{}, fmt.Errorf("failed to decode tip pool: %w", err)
	}
	return p, nil
}

// Helper functions

func formatInstant(t time.Time) string {
	return t.UTC().Format(instantLayout)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func requireAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, generic.ErrNotFound)
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// =============================================================================
// ADMIN
// =============================================================================

// Reset deletes all data. Use only for demos and testing.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	tables := []string{"tip_pools", "tip_payouts", "payments", "punches", "employees"}
	for _, table := range tables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return tx.Commit()
}
