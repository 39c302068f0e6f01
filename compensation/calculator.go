package compensation

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/pay-engine/generic"
	"github.com/warp/pay-engine/punch"
)

// =============================================================================
// CALCULATOR
// =============================================================================

// Input is everything Calculate needs for one employee, one contract and one
// period. Period is usually a contract segment; Calculate clips it to the
// employee's employment window itself.
type Input struct {
	Employee Employee
	Contract Contract
	Sessions []punch.WorkSession
	Period   generic.Period
	Payments []ManualPayment

	// PriorWeekMinutes carries hourly minutes already counted toward an ISO
	// week's 40 hour threshold.
	PriorWeekMinutes map[generic.Week]int
}

// Pay is the result for one contract segment. Amounts not relevant to the
// contract type stay zero.
type Pay struct {
	ContractType Type

	RegularMinutes   int
	OvertimeMinutes  int
	RegularPayCents  generic.Cents
	OvertimePayCents generic.Cents

	SalaryOrDailyRatePayCents generic.Cents
	ContractorPayCents        generic.Cents

	// ActiveDays counts employment days (salary, recurring contractor) or
	// worked days (daily rate).
	ActiveDays int

	// WeekMinutes is PriorWeekMinutes plus this segment's hourly minutes,
	// to be passed to the next segment of the same period.
	WeekMinutes map[generic.Week]int
}

// GrossCents sums every pay component.
func (p Pay) GrossCents() generic.Cents {
	return p.RegularPayCents + p.OvertimePayCents + p.SalaryOrDailyRatePayCents + p.ContractorPayCents
}

// Calculate computes pay for one contract segment.
//
// Returns a *generic.ConfigurationError when the contract is missing fields
// its type requires; the caller decides whether that is fatal.
func Calculate(in Input, opts Options) (Pay, error) {
	if err := in.Period.Validate(); err != nil {
		return Pay{}, err
	}
	if err := ValidateFor(in.Employee.ID, in.Contract); err != nil {
		return Pay{}, err
	}

	pay := Pay{ContractType: in.Contract.Type, WeekMinutes: copyWeeks(in.PriorWeekMinutes)}
	window, employed := in.Employee.Employment(in.Period)
	if !employed {
		return pay, nil
	}

	switch in.Contract.Type {
	case TypeHourly:
		calculateHourly(&pay, in, window)
	case TypeSalary:
		calculateSalary(&pay, in.Contract, window, opts)
	case TypeDailyRate:
		calculateDailyRate(&pay, in, window)
	case TypeContractorRecurring:
		calculateRecurringContractor(&pay, in.Contract, window)
	case TypeContractorPerJob:
		calculatePerJob(&pay, in, window)
	default:
		return Pay{}, fmt.Errorf("%w: unhandled contract type %q", generic.ErrConfiguration, in.Contract.Type)
	}
	return pay, nil
}

func calculateHourly(pay *Pay, in Input, window generic.Period) {
	rate := in.Contract.Hourly.HourlyRateCents
	splits, weeks := SplitOvertime(DayMinutes(in.Sessions, window), in.PriorWeekMinutes)
	for _, s := range splits {
		pay.RegularMinutes += s.RegularMinutes
		pay.OvertimeMinutes += s.OvertimeMinutes
	}
	pay.ActiveDays = len(splits)
	pay.RegularPayCents = RegularPay(pay.RegularMinutes, rate)
	pay.OvertimePayCents = OvertimePay(pay.OvertimeMinutes, rate)
	pay.WeekMinutes = weeks
}

// Salaried employees are exempt: hours never change the amount.
func calculateSalary(pay *Pay, c Contract, window generic.Period, opts Options) {
	days := window.Days()
	pay.ActiveDays = len(days)
	pay.SalaryOrDailyRatePayCents = prorate(c.Salary.SalaryAmountCents, days, func(d generic.TimePoint) decimal.Decimal {
		return Divisor(c.Salary.PayPeriod, d, opts.strategy())
	})
}

// Daily rate pays the frozen rate once per distinct day with a closed
// session, whatever its length. A day whose only session has no clock-out
// earns nothing until it is corrected.
func calculateDailyRate(pay *Pay, in Input, window generic.Period) {
	worked := make(map[string]bool)
	for _, s := range in.Sessions {
		if window.Contains(s.Day) && s.IsComplete() && !s.Excluded {
			worked[s.Day.Key()] = true
		}
	}
	pay.ActiveDays = len(worked)
	pay.SalaryOrDailyRatePayCents = in.Contract.DailyRate.DailyRateAmountCents * generic.Cents(len(worked))
}

func calculateRecurringContractor(pay *Pay, c Contract, window generic.Period) {
	days := window.Days()
	pay.ActiveDays = len(days)
	interval := decimal.NewFromInt(int64(c.Contractor.IntervalDays))
	pay.ContractorPayCents = prorate(c.Contractor.IntervalAmountCents, days, func(generic.TimePoint) decimal.Decimal {
		return interval
	})
}

func calculatePerJob(pay *Pay, in Input, window generic.Period) {
	for _, p := range in.Payments {
		if p.EmployeeID == in.Employee.ID && window.Contains(p.Date) {
			pay.ContractorPayCents += p.AmountCents
		}
	}
}

func copyWeeks(in map[generic.Week]int) map[generic.Week]int {
	out := make(map[generic.Week]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
