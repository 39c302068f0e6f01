// Package memory provides an in-memory store.Store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/warp/pay-engine/compensation"
	"github.com/warp/pay-engine/generic"
	"github.com/warp/pay-engine/punch"
	"github.com/warp/pay-engine/store"
	"github.com/warp/pay-engine/tippool"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	employees map[generic.EmployeeID]compensation.Employee
	punches   map[generic.PunchID]punchRecord
	payments  map[string]compensation.ManualPayment
	payouts   map[string]tippool.Payout
	pools     map[generic.PoolID]tippool.Pool
}

type punchRecord struct {
	event   punch.Event
	deleted bool
}

var _ store.Store = (*Memory)(nil)

func New() *Memory {
	return &Memory{
		employees: make(map[generic.EmployeeID]compensation.Employee),
		punches:   make(map[generic.PunchID]punchRecord),
		payments:  make(map[string]compensation.ManualPayment),
		payouts:   make(map[string]tippool.Payout),
		pools:     make(map[generic.PoolID]tippool.Pool),
	}
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (m *Memory) SaveEmployee(_ context.Context, e compensation.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[e.ID] = cloneEmployee(e)
	return nil
}

func (m *Memory) GetEmployee(_ context.Context, id generic.EmployeeID) (compensation.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.employees[id]
	if !ok {
		return compensation.Employee{}, fmt.Errorf("employee %s: %w", id, generic.ErrNotFound)
	}
	return cloneEmployee(e), nil
}

func (m *Memory) ListEmployees(_ context.Context) ([]compensation.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]compensation.Employee, 0, len(m.employees))
	for _, e := range m.employees {
		out = append(out, cloneEmployee(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func cloneEmployee(e compensation.Employee) compensation.Employee {
	e.Contracts = append([]compensation.ContractVersion(nil), e.Contracts...)
	return e
}

// =============================================================================
// PUNCHES
// =============================================================================

func (m *Memory) AppendPunch(_ context.Context, e punch.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.punches[e.ID]; ok {
		return fmt.Errorf("punch %s: %w", e.ID, generic.ErrDuplicate)
	}
	m.punches[e.ID] = punchRecord{event: e}
	return nil
}

func (m *Memory) EditPunch(_ context.Context, e punch.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.punches[e.ID]
	if !ok || rec.deleted {
		return fmt.Errorf("punch %s: %w", e.ID, generic.ErrNotFound)
	}
	rec.event = e
	m.punches[e.ID] = rec
	return nil
}

func (m *Memory) DeletePunch(_ context.Context, id generic.PunchID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.punches[id]
	if !ok || rec.deleted {
		return fmt.Errorf("punch %s: %w", id, generic.ErrNotFound)
	}
	rec.deleted = true
	m.punches[id] = rec
	return nil
}

func (m *Memory) GetPunch(_ context.Context, id generic.PunchID) (punch.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.punches[id]
	if !ok || rec.deleted {
		return punch.Event{}, fmt.Errorf("punch %s: %w", id, generic.ErrNotFound)
	}
	return rec.event, nil
}

func (m *Memory) ListPunches(_ context.Context, filter store.PunchFilter) ([]punch.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []punch.Event
	for _, rec := range m.punches {
		if !rec.deleted && filter.Match(rec.event) {
			out = append(out, rec.event)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID < out[j].ID
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

// =============================================================================
// PAYMENTS AND TIPS
// =============================================================================

func (m *Memory) SavePayment(_ context.Context, p compensation.ManualPayment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.payments[p.ID]; ok {
		return fmt.Errorf("payment %s: %w", p.ID, generic.ErrDuplicate)
	}
	m.payments[p.ID] = p
	return nil
}

func (m *Memory) ListPayments(_ context.Context, period generic.Period) ([]compensation.ManualPayment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []compensation.ManualPayment
	for _, p := range m.payments {
		if period.Contains(p.Date) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) SavePayout(_ context.Context, p tippool.Payout) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.payouts[p.ID]; ok {
		return fmt.Errorf("payout %s: %w", p.ID, generic.ErrDuplicate)
	}
	m.payouts[p.ID] = p
	return nil
}

func (m *Memory) ListPayouts(_ context.Context, period generic.Period) ([]tippool.Payout, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []tippool.Payout
	for _, p := range m.payouts {
		if period.Contains(p.Date) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) SavePool(_ context.Context, p tippool.Pool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pools[p.ID] = clonePool(p)
	return nil
}

func (m *Memory) GetPool(_ context.Context, id generic.PoolID) (tippool.Pool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.pools[id]
	if !ok {
		return tippool.Pool{}, fmt.Errorf("tip pool %s: %w", id, generic.ErrNotFound)
	}
	return clonePool(p), nil
}

func (m *Memory) ListPools(_ context.Context, period generic.Period) ([]tippool.Pool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []tippool.Pool
	for _, p := range m.pools {
		if period.Contains(p.Date) {
			out = append(out, clonePool(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func clonePool(p tippool.Pool) tippool.Pool {
	p.Participants = append([]tippool.Participant(nil), p.Participants...)
	p.Shares = append([]tippool.Share(nil), p.Shares...)
	return p
}

// =============================================================================
// ADMIN
// =============================================================================

func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.employees = make(map[generic.EmployeeID]compensation.Employee)
	m.punches = make(map[generic.PunchID]punchRecord)
	m.payments = make(map[string]compensation.ManualPayment)
	m.payouts = make(map[string]tippool.Payout)
	m.pools = make(map[generic.PoolID]tippool.Pool)
	return nil
}
