package compensation

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/pay-engine/generic"
)

// =============================================================================
// PRORATION - Salary and recurring contractor divisors
// =============================================================================

// ProrationStrategy selects how a per-pay-period salary becomes a per-day amount.
type ProrationStrategy string

const (
	// ProrationAverage divides by average period lengths (7, 14, 15.22, 30.44).
	// Matches the payroll figures restaurants already reconcile against.
	ProrationAverage ProrationStrategy = "average"

	// ProrationCalendar divides by the exact length of the half-month or
	// month the day falls in.
	ProrationCalendar ProrationStrategy = "calendar"
)

// ParseProration accepts "average" or "calendar". Empty means average.
func ParseProration(s string) (ProrationStrategy, error) {
	switch ProrationStrategy(s) {
	case "", ProrationAverage:
		return ProrationAverage, nil
	case ProrationCalendar:
		return ProrationCalendar, nil
	}
	return "", fmt.Errorf("%w: unknown proration strategy %q", generic.ErrInvalidInput, s)
}

// Options tune the calculator. The zero value is the default behavior.
type Options struct {
	Proration ProrationStrategy
}

func (o Options) strategy() ProrationStrategy {
	if o.Proration == "" {
		return ProrationAverage
	}
	return o.Proration
}

var (
	avgSemimonthly = decimal.RequireFromString("15.22")
	avgMonthly     = decimal.RequireFromString("30.44")
)

// Divisor returns the number of days a pay period amount is spread over for
// the given day.
func Divisor(kind PayPeriodKind, day generic.TimePoint, strategy ProrationStrategy) decimal.Decimal {
	switch kind {
	case PayWeekly:
		return decimal.NewFromInt(7)
	case PayBiweekly:
		return decimal.NewFromInt(14)
	case PaySemimonthly:
		if strategy == ProrationCalendar {
			if day.Day() <= 15 {
				return decimal.NewFromInt(15)
			}
			return decimal.NewFromInt(int64(generic.DaysInMonth(day) - 15))
		}
		return avgSemimonthly
	case PayMonthly:
		if strategy == ProrationCalendar {
			return decimal.NewFromInt(int64(generic.DaysInMonth(day)))
		}
		return avgMonthly
	}
	return decimal.Zero
}

// prorate spreads amount over the days using a per-day divisor and rounds once.
// Days sharing a divisor are grouped so the sum stays exact.
func prorate(amount generic.Cents, days []generic.TimePoint, divisor func(generic.TimePoint) decimal.Decimal) generic.Cents {
	counts := make(map[string]int64)
	divisors := make(map[string]decimal.Decimal)
	var order []string
	for _, d := range days {
		div := divisor(d)
		if div.IsZero() {
			continue
		}
		k := div.String()
		if _, ok := counts[k]; !ok {
			order = append(order, k)
			divisors[k] = div
		}
		counts[k]++
	}

	total := decimal.Zero
	for _, k := range order {
		total = total.Add(amount.Decimal().Mul(decimal.NewFromInt(counts[k])).Div(divisors[k]))
	}
	return generic.RoundCents(total)
}

// DayRate returns the cost one active day contributes under a day-based
// contract. ok is false for hourly and per-job contracts.
func DayRate(c Contract, day generic.TimePoint, opts Options) (generic.Cents, bool) {
	switch c.Type {
	case TypeSalary:
		if c.Salary == nil {
			return 0, false
		}
		div := Divisor(c.Salary.PayPeriod, day, opts.strategy())
		if div.IsZero() {
			return 0, false
		}
		return generic.RoundCents(c.Salary.SalaryAmountCents.Decimal().Div(div)), true
	case TypeDailyRate:
		if c.DailyRate == nil {
			return 0, false
		}
		return c.DailyRate.DailyRateAmountCents, true
	case TypeContractorRecurring:
		if c.Contractor == nil || c.Contractor.IntervalDays <= 0 {
			return 0, false
		}
		return generic.RoundCents(c.Contractor.IntervalAmountCents.Decimal().
			Div(decimal.NewFromInt(int64(c.Contractor.IntervalDays)))), true
	}
	return 0, false
}
