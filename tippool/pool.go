package tippool

import (
	"errors"
	"fmt"
	"sort"

	"github.com/warp/pay-engine/generic"
)

// =============================================================================
// POOL - Allocation with manager overrides and approval
// =============================================================================

// Status is the pool lifecycle state. Only draft pools can change.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusApproved  Status = "approved"
	StatusDiscarded Status = "discarded"
)

var (
	ErrPoolLocked         = errors.New("tip pool is no longer a draft")
	ErrOverAllocated      = errors.New("override exceeds the tip pool total")
	ErrUnknownParticipant = errors.New("employee is not a participant of the tip pool")
	ErrUnbalanced         = errors.New("override leaves cents no unlocked participant can take")
)

// Pool is one day's tip total and its distribution.
type Pool struct {
	ID           generic.PoolID    `json:"id"`
	Date         generic.TimePoint `json:"date"`
	TotalCents   generic.Cents     `json:"total_cents"`
	Method       Method            `json:"method"`
	Participants []Participant     `json:"participants"`
	Shares       []Share           `json:"shares"`
	Status       Status            `json:"status"`
}

// NewPool allocates the total and returns a draft pool.
func NewPool(id generic.PoolID, date generic.TimePoint, total generic.Cents, method Method, participants []Participant) (*Pool, error) {
	shares, err := Allocate(total, method, participants)
	if err != nil {
		return nil, err
	}
	return &Pool{
		ID:           id,
		Date:         date,
		TotalCents:   total,
		Method:       method,
		Participants: participants,
		Shares:       shares,
		Status:       StatusDraft,
	}, nil
}

// Share returns the share of one employee.
func (p *Pool) Share(employee generic.EmployeeID) (Share, bool) {
	for _, s := range p.Shares {
		if s.EmployeeID == employee {
			return s, true
		}
	}
	return Share{}, false
}

// Override fixes one employee's share and redistributes what is left of the
// total across the participants that are not locked, using the pool method.
// The pool is left unchanged when an error is returned.
func (p *Pool) Override(employee generic.EmployeeID, amount generic.Cents) error {
	if p.Status != StatusDraft {
		return ErrPoolLocked
	}
	if amount < 0 {
		return ErrNegativeTotal
	}
	if _, ok := p.Share(employee); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownParticipant, employee)
	}

	locked := map[generic.EmployeeID]generic.Cents{employee: amount}
	for _, s := range p.Shares {
		if s.Locked && s.EmployeeID != employee {
			locked[s.EmployeeID] = s.AmountCents
		}
	}
	return p.rebalance(locked)
}

// Unlock releases an override and redistributes.
func (p *Pool) Unlock(employee generic.EmployeeID) error {
	if p.Status != StatusDraft {
		return ErrPoolLocked
	}
	if _, ok := p.Share(employee); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownParticipant, employee)
	}

	locked := map[generic.EmployeeID]generic.Cents{}
	for _, s := range p.Shares {
		if s.Locked && s.EmployeeID != employee {
			locked[s.EmployeeID] = s.AmountCents
		}
	}
	return p.rebalance(locked)
}

func (p *Pool) rebalance(locked map[generic.EmployeeID]generic.Cents) error {
	var lockedSum generic.Cents
	for _, a := range locked {
		lockedSum += a
	}
	if lockedSum > p.TotalCents {
		return ErrOverAllocated
	}

	var free []Participant
	for _, part := range p.Participants {
		if _, ok := locked[part.EmployeeID]; !ok {
			free = append(free, part)
		}
	}

	remaining := p.TotalCents - lockedSum
	if len(free) == 0 && remaining > 0 {
		return ErrUnbalanced
	}
	freeShares, err := Allocate(remaining, p.Method, free)
	if err != nil {
		return err
	}

	shares := make([]Share, 0, len(p.Participants))
	for _, s := range p.Shares {
		if amount, ok := locked[s.EmployeeID]; ok {
			s.AmountCents = amount
			s.Locked = true
			shares = append(shares, s)
		}
	}
	shares = append(shares, freeShares...)
	sort.SliceStable(shares, func(i, j int) bool { return shares[i].EmployeeID < shares[j].EmployeeID })

	mustSum(shares, p.TotalCents)
	p.Shares = shares
	return nil
}

// Approve finalizes the pool; its shares now count toward payroll.
func (p *Pool) Approve() error {
	if p.Status != StatusDraft {
		return ErrPoolLocked
	}
	p.Status = StatusApproved
	return nil
}

// Discard abandons the pool; it never reaches payroll.
func (p *Pool) Discard() error {
	if p.Status != StatusDraft {
		return ErrPoolLocked
	}
	p.Status = StatusDiscarded
	return nil
}

// =============================================================================
// PAYROLL FEED
// =============================================================================

// Payout is tip money already handed to an employee, for example in cash at
// the end of a shift.
type Payout struct {
	ID          string             `json:"id"`
	EmployeeID  generic.EmployeeID `json:"employee_id"`
	Date        generic.TimePoint  `json:"date"`
	AmountCents generic.Cents      `json:"amount_cents"`
}

// TipsOwed returns, per employee, approved shares dated in the period minus
// payouts dated in the period.
func TipsOwed(pools []Pool, payouts []Payout, period generic.Period) map[generic.EmployeeID]generic.Cents {
	out := make(map[generic.EmployeeID]generic.Cents)
	for _, pool := range pools {
		if pool.Status != StatusApproved || !period.Contains(pool.Date) {
			continue
		}
		for _, s := range pool.Shares {
			out[s.EmployeeID] += s.AmountCents
		}
	}
	for _, po := range payouts {
		if period.Contains(po.Date) {
			out[po.EmployeeID] -= po.AmountCents
		}
	}
	return out
}
