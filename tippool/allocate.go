/*
Package tippool splits a day's tip total among eligible employees.

PURPOSE:
  Allocate turns a total in cents and a list of participants into shares
  whose sum is exactly the total. Pool wraps an allocation with manager
  overrides and an approval lifecycle; only approved pools reach payroll.

METHODS:
  - hours: weight = worked minutes that day
  - role:  weight = a per-participant role weight
  - even:  equal split

ROUNDING:
  Each weighted share is the exact integer floor of total x w_i / sum(w).
  The leftover cents (always fewer than the number of participants) go one
  cent each to the first participants ordered by employee id, skipping
  zero-weight participants. The sum is checked after every allocation and a
  mismatch panics: it can only be a programming error.

SEE ALSO:
  - pool.go: Draft/approved/discarded lifecycle and overrides
  - eligibility.go: Who takes part in a pool
*/
package tippool

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/pay-engine/generic"
)

// Method is the allocation basis.
type Method string

const (
	MethodHours Method = "hours"
	MethodRole  Method = "role"
	MethodEven  Method = "even"
)

var (
	ErrNegativeTotal  = errors.New("tip total cannot be negative")
	ErrNoParticipants = errors.New("tip pool has no participants")
	ErrZeroBasis      = errors.New("tip pool participants have no allocation basis")
	ErrUnknownMethod  = errors.New("unknown tip allocation method")
)

// Participant is one employee in a pool with their allocation basis.
type Participant struct {
	EmployeeID    generic.EmployeeID `json:"employee_id"`
	WorkedMinutes int                `json:"worked_minutes"`
	RoleWeight    decimal.Decimal    `json:"role_weight"`
}

// Share is one participant's allocated amount.
type Share struct {
	EmployeeID  generic.EmployeeID `json:"employee_id"`
	AmountCents generic.Cents      `json:"amount_cents"`
	BasisValue  decimal.Decimal    `json:"basis_value"`
	Locked      bool               `json:"locked,omitempty"`
}

// Weight returns the participant's basis under the method.
func (p Participant) Weight(m Method) decimal.Decimal {
	switch m {
	case MethodHours:
		return decimal.NewFromInt(int64(p.WorkedMinutes))
	case MethodRole:
		return p.RoleWeight
	case MethodEven:
		return decimal.NewFromInt(1)
	}
	return decimal.Zero
}

// Allocate splits total among participants. Shares come back ordered by
// employee id and always sum to total.
func Allocate(total generic.Cents, method Method, participants []Participant) ([]Share, error) {
	if total < 0 {
		return nil, ErrNegativeTotal
	}
	switch method {
	case MethodHours, MethodRole, MethodEven:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}

	sorted := make([]Participant, len(participants))
	copy(sorted, participants)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].EmployeeID < sorted[j].EmployeeID })

	if len(sorted) == 0 {
		if total == 0 {
			return []Share{}, nil
		}
		return nil, ErrNoParticipants
	}

	weights := make([]decimal.Decimal, len(sorted))
	sum := decimal.Zero
	for i, p := range sorted {
		w := p.Weight(method)
		if w.IsNegative() {
			w = decimal.Zero
		}
		weights[i] = w
		sum = sum.Add(w)
	}
	if sum.IsZero() && total > 0 {
		return nil, ErrZeroBasis
	}

	shares := make([]Share, len(sorted))
	amounts := split(total, weights, sum)
	for i, p := range sorted {
		shares[i] = Share{EmployeeID: p.EmployeeID, AmountCents: amounts[i], BasisValue: weights[i]}
	}
	mustSum(shares, total)
	return shares, nil
}

// split floors each weighted share and hands the remainder out one cent at a
// time to positive-weight entries in order.
func split(total generic.Cents, weights []decimal.Decimal, sum decimal.Decimal) []generic.Cents {
	out := make([]generic.Cents, len(weights))
	if total == 0 || sum.IsZero() {
		return out
	}

	allocated := generic.Cents(0)
	for i, w := range weights {
		q, _ := total.Decimal().Mul(w).QuoRem(sum, 0)
		out[i] = generic.Cents(q.IntPart())
		allocated += out[i]
	}

	remainder := total - allocated
	for remainder > 0 {
		progressed := false
		for i, w := range weights {
			if remainder == 0 {
				break
			}
			if !w.IsPositive() {
				continue
			}
			out[i]++
			remainder--
			progressed = true
		}
		if !progressed {
			break
		}
	}
	return out
}

func mustSum(shares []Share, total generic.Cents) {
	var sum generic.Cents
	for _, s := range shares {
		sum += s.AmountCents
	}
	if sum != total {
		panic(fmt.Sprintf("tippool: shares sum to %d, want %d", sum, total))
	}
}
