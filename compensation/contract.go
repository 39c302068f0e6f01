/*
Package compensation maps compensation contracts and worked time to pay.

PURPOSE:
  A Contract is a tagged union: the Type discriminant plus exactly one set of
  type-specific terms. Calculate dispatches on Type with an exhaustive switch,
  so adding a sixth compensation type is a local change here and in
  validate.go.

KEY CONCEPTS:
  - Contract: Type + one of HourlyTerms / SalaryTerms / DailyRateTerms /
    ContractorTerms (per-job has no terms, it is paid from ManualPayment)
  - ContractVersion: A contract effective from a day. Changing a rate appends
    a version; earlier periods keep computing against the earlier version.
  - Employee: Directory record with its employment window and contract history.

COMPENSATION TYPES:
  hourly:               rate x worked time, 40h/ISO-week overtime at 1.5x
  salary:               prorated per active day, exempt (no overtime)
  daily_rate:           frozen rate x distinct days with a session
  contractor_recurring: prorated per active day like salary
  contractor_per_job:   sum of manual payments in the period

EXAMPLE:
  c := compensation.NewDailyRateContract(100000, 6) // $1000 over 6 days
  // c.DailyRate.DailyRateAmountCents == 16667, frozen from now on

SEE ALSO:
  - validate.go: Required-field validation (ConfigurationError)
  - calculator.go: Per-type pay functions
  - proration.go: Salary / contractor divisors
*/
package compensation

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/pay-engine/generic"
)

// =============================================================================
// CONTRACT - Tagged union
// =============================================================================

// Type is the contract discriminant.
type Type string

const (
	TypeHourly              Type = "hourly"
	TypeSalary              Type = "salary"
	TypeDailyRate           Type = "daily_rate"
	TypeContractorRecurring Type = "contractor_recurring"
	TypeContractorPerJob    Type = "contractor_per_job"
)

// Types lists every compensation type in report order.
var Types = []Type{TypeHourly, TypeSalary, TypeDailyRate, TypeContractorRecurring, TypeContractorPerJob}

// PayPeriodKind determines the salary proration divisor.
type PayPeriodKind string

const (
	PayWeekly      PayPeriodKind = "weekly"
	PayBiweekly    PayPeriodKind = "biweekly"
	PaySemimonthly PayPeriodKind = "semimonthly"
	PayMonthly     PayPeriodKind = "monthly"
)

type HourlyTerms struct {
	HourlyRateCents generic.Cents `json:"hourly_rate_cents" validate:"gt=0"`
}

type SalaryTerms struct {
	SalaryAmountCents generic.Cents `json:"salary_amount_cents" validate:"gt=0"`
	PayPeriod         PayPeriodKind `json:"pay_period" validate:"required,oneof=weekly biweekly semimonthly monthly"`
}

// DailyRateTerms carries the frozen daily rate and the weekly reference it
// was derived from. The reference is informational after creation.
type DailyRateTerms struct {
	DailyRateAmountCents       generic.Cents `json:"daily_rate_amount_cents" validate:"gt=0"`
	ReferenceWeeklyAmountCents generic.Cents `json:"reference_weekly_amount_cents,omitempty" validate:"gte=0"`
	ReferenceDaysPerWeek       int           `json:"reference_days_per_week,omitempty" validate:"omitempty,min=1,max=7"`
}

type ContractorTerms struct {
	IntervalAmountCents generic.Cents `json:"contractor_interval_amount_cents" validate:"gt=0"`
	IntervalDays        int           `json:"interval_days" validate:"gt=0"`
}

// Contract is one compensation arrangement. Exactly the terms matching Type
// are populated.
type Contract struct {
	Type       Type             `json:"type"`
	Hourly     *HourlyTerms     `json:"hourly,omitempty"`
	Salary     *SalaryTerms     `json:"salary,omitempty"`
	DailyRate  *DailyRateTerms  `json:"daily_rate,omitempty"`
	Contractor *ContractorTerms `json:"contractor,omitempty"`
}

func NewHourlyContract(rate generic.Cents) Contract {
	return Contract{Type: TypeHourly, Hourly: &HourlyTerms{HourlyRateCents: rate}}
}

func NewSalaryContract(amount generic.Cents, period PayPeriodKind) Contract {
	return Contract{Type: TypeSalary, Salary: &SalaryTerms{SalaryAmountCents: amount, PayPeriod: period}}
}

// NewDailyRateContract derives the daily rate from a weekly reference once,
// rounding half up to whole cents, and freezes it on the contract.
func NewDailyRateContract(referenceWeekly generic.Cents, referenceDays int) Contract {
	return Contract{Type: TypeDailyRate, DailyRate: &DailyRateTerms{
		DailyRateAmountCents:       DeriveDailyRate(referenceWeekly, referenceDays),
		ReferenceWeeklyAmountCents: referenceWeekly,
		ReferenceDaysPerWeek:       referenceDays,
	}}
}

func NewRecurringContractorContract(amount generic.Cents, intervalDays int) Contract {
	return Contract{Type: TypeContractorRecurring, Contractor: &ContractorTerms{
		IntervalAmountCents: amount,
		IntervalDays:        intervalDays,
	}}
}

func NewPerJobContract() Contract {
	return Contract{Type: TypeContractorPerJob}
}

// DeriveDailyRate returns weekly / days rounded to cents. Zero days yields zero,
// which validation rejects.
func DeriveDailyRate(weekly generic.Cents, days int) generic.Cents {
	if days <= 0 {
		return 0
	}
	return generic.RoundCents(weekly.Decimal().Div(decimal.NewFromInt(int64(days))))
}

// DisplayRate is the headline amount shown next to an employee in reports:
// hourly rate, salary per pay period, daily rate or contractor interval amount.
func (c Contract) DisplayRate() generic.Cents {
	switch c.Type {
	case TypeHourly:
		if c.Hourly != nil {
			return c.Hourly.HourlyRateCents
		}
	case TypeSalary:
		if c.Salary != nil {
			return c.Salary.SalaryAmountCents
		}
	case TypeDailyRate:
		if c.DailyRate != nil {
			return c.DailyRate.DailyRateAmountCents
		}
	case TypeContractorRecurring:
		if c.Contractor != nil {
			return c.Contractor.IntervalAmountCents
		}
	}
	return 0
}

// IsDayBased reports whether cost accrues per day rather than per hour.
func (c Contract) IsDayBased() bool {
	switch c.Type {
	case TypeSalary, TypeDailyRate, TypeContractorRecurring:
		return true
	}
	return false
}

// =============================================================================
// EMPLOYEE - Directory record with contract history
// =============================================================================

// Status is the employee's current directory status. Period reports use the
// employment window instead, so a since-deactivated employee still shows up
// for periods in which they were active.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// ContractVersion is a contract effective from a day until the next version.
type ContractVersion struct {
	EffectiveFrom generic.TimePoint `json:"effective_from"`
	Contract      Contract          `json:"contract"`
}

type Employee struct {
	ID       generic.EmployeeID `json:"id"`
	Name     string             `json:"name"`
	Position string             `json:"position,omitempty"`
	Status   Status             `json:"status"`

	// Employment window. ActiveUntil nil = still employed.
	ActiveFrom  generic.TimePoint  `json:"active_from"`
	ActiveUntil *generic.TimePoint `json:"active_until,omitempty"`

	// TipEligible overrides the default tip-pool eligibility when set.
	TipEligible *bool `json:"tip_eligible,omitempty"`

	// Contracts ordered by EffectiveFrom.
	Contracts []ContractVersion `json:"contracts"`
}

// Employment returns the employment window clipped to the given period.
func (e Employee) Employment(period generic.Period) (generic.Period, bool) {
	window := generic.Period{Start: e.ActiveFrom, End: period.End}
	if window.Start.IsZero() || window.Start.Before(period.Start) {
		window.Start = period.Start
	}
	if e.ActiveUntil != nil {
		window.End = *e.ActiveUntil
	}
	return window.Intersect(period)
}

// ActiveOn reports whether the employee was employed on the day.
func (e Employee) ActiveOn(day generic.TimePoint) bool {
	_, ok := e.Employment(generic.Period{Start: day, End: day})
	return ok
}

// ContractAt returns the contract version in force on the day.
func (e Employee) ContractAt(day generic.TimePoint) (Contract, bool) {
	var (
		found Contract
		ok    bool
	)
	for _, v := range e.sortedContracts() {
		if v.EffectiveFrom.After(day) {
			break
		}
		found, ok = v.Contract, true
	}
	return found, ok
}

// Segment is a stretch of a period during which one contract applies and the
// employee was employed.
type Segment struct {
	Period   generic.Period
	Contract Contract
}

// Segments splits the period by contract version, clipped to employment.
// Days before the first contract version produce no segment.
func (e Employee) Segments(period generic.Period) []Segment {
	window, ok := e.Employment(period)
	if !ok {
		return nil
	}
	versions := e.sortedContracts()
	var out []Segment
	for i, v := range versions {
		span := generic.Period{Start: v.EffectiveFrom, End: window.End}
		if i+1 < len(versions) {
			span.End = versions[i+1].EffectiveFrom.AddDays(-1)
		}
		if clipped, ok := span.Intersect(window); ok {
			out = append(out, Segment{Period: clipped, Contract: v.Contract})
		}
	}
	return out
}

// WithContract appends a new contract version. History is never rewritten:
// a version effective on the same day as the latest one replaces only that
// latest version.
func (e Employee) WithContract(effective generic.TimePoint, c Contract) Employee {
	versions := e.sortedContracts()
	if n := len(versions); n > 0 && versions[n-1].EffectiveFrom.Equal(effective) {
		versions = versions[:n-1]
	}
	e.Contracts = append(versions, ContractVersion{EffectiveFrom: effective, Contract: c})
	return e
}

func (e Employee) sortedContracts() []ContractVersion {
	out := make([]ContractVersion, len(e.Contracts))
	copy(out, e.Contracts)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EffectiveFrom.Before(out[j].EffectiveFrom)
	})
	return out
}

// =============================================================================
// MANUAL PAYMENTS - Per-job contractors
// =============================================================================

// ManualPayment is a recorded per-job payment.
type ManualPayment struct {
	ID          string             `json:"id"`
	EmployeeID  generic.EmployeeID `json:"employee_id"`
	Date        generic.TimePoint  `json:"date"`
	AmountCents generic.Cents      `json:"amount_cents"`
	Note        string             `json:"note,omitempty"`
}
