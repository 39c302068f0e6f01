/*
Package store defines persistence for the records the pay engine reads.

PURPOSE:
  The calculation packages never touch storage: a caller loads a snapshot of
  employees, punches, payments, payouts and tip pools and hands it over.
  Store is the contract between that caller (the HTTP service) and the
  database. Derived data (sessions, pay, labor cost) is never stored.

PUNCH SEMANTICS:
  Punches are the source of truth and are never rewritten by the engine.
  - AppendPunch(): New clock event. Duplicate ids are rejected.
  - EditPunch(): Manager correction. Same identity, new values.
  - DeletePunch(): Soft delete. The row stays for audit; listings skip it.

IMPLEMENTATIONS:
  - store/memory: In-memory for testing and development
  - store/sqlite: SQLite for the server

SEE ALSO:
  - payroll/aggregate.go: Consumes the snapshot
*/
package store

import (
	"context"
	"time"

	"github.com/warp/pay-engine/compensation"
	"github.com/warp/pay-engine/generic"
	"github.com/warp/pay-engine/punch"
	"github.com/warp/pay-engine/tippool"
)

// PunchFilter selects punches by employee and instant. From is inclusive,
// To is exclusive; zero values leave that side open.
type PunchFilter struct {
	EmployeeID generic.EmployeeID
	From       time.Time
	To         time.Time
}

// Match reports whether an event passes the filter.
func (f PunchFilter) Match(e punch.Event) bool {
	if f.EmployeeID != "" && e.EmployeeID != f.EmployeeID {
		return false
	}
	if !f.From.IsZero() && e.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !e.Timestamp.Before(f.To) {
		return false
	}
	return true
}

// WindowFor returns the punch window that covers a period of civil days in
// loc, extended by one day on the right so overnight clock-outs are included.
func WindowFor(period generic.Period, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(period.Start.Year(), period.Start.Month(), period.Start.Day(), 0, 0, 0, 0, loc)
	end := time.Date(period.End.Year(), period.End.Month(), period.End.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 2)
	return start, end
}

// =============================================================================
// STORE - Interface for record persistence
// =============================================================================

type EmployeeStore interface {
	// SaveEmployee inserts or replaces a directory record including its
	// contract history.
	SaveEmployee(ctx context.Context, e compensation.Employee) error
	GetEmployee(ctx context.Context, id generic.EmployeeID) (compensation.Employee, error)
	ListEmployees(ctx context.Context) ([]compensation.Employee, error)
}

type PunchStore interface {
	AppendPunch(ctx context.Context, e punch.Event) error
	EditPunch(ctx context.Context, e punch.Event) error
	DeletePunch(ctx context.Context, id generic.PunchID) error
	GetPunch(ctx context.Context, id generic.PunchID) (punch.Event, error)
	// ListPunches returns live punches ordered by timestamp.
	ListPunches(ctx context.Context, filter PunchFilter) ([]punch.Event, error)
}

type PaymentStore interface {
	SavePayment(ctx context.Context, p compensation.ManualPayment) error
	ListPayments(ctx context.Context, period generic.Period) ([]compensation.ManualPayment, error)
}

type TipStore interface {
	SavePayout(ctx context.Context, p tippool.Payout) error
	ListPayouts(ctx context.Context, period generic.Period) ([]tippool.Payout, error)

	// SavePool inserts or replaces a pool.
	SavePool(ctx context.Context, p tippool.Pool) error
	GetPool(ctx context.Context, id generic.PoolID) (tippool.Pool, error)
	ListPools(ctx context.Context, period generic.Period) ([]tippool.Pool, error)
}

// Store is everything the service persists.
// Lookups return generic.ErrNotFound for missing records; inserts of an
// existing id return generic.ErrDuplicate.
type Store interface {
	EmployeeStore
	PunchStore
	PaymentStore
	TipStore

	// Reset removes every record. Demo scenarios start from it.
	Reset(ctx context.Context) error
}
