package payroll

import (
	"errors"
	"sort"

	"github.com/warp/pay-engine/compensation"
	"github.com/warp/pay-engine/generic"
	"github.com/warp/pay-engine/punch"
	"github.com/warp/pay-engine/tippool"
)

// Input is a snapshot of everything a payroll run reads. Punches may span
// more than the period; only sessions whose day falls inside it are paid.
type Input struct {
	Employees []compensation.Employee
	Punches   []punch.Event
	Pools     []tippool.Pool
	Payouts   []tippool.Payout
	Payments  []compensation.ManualPayment
	Period    generic.Period
}

type Options struct {
	Punch        punch.Options
	Compensation compensation.Options
}

// Aggregate computes the payroll report. It only fails on an invalid period;
// per-employee problems become error rows.
func Aggregate(in Input, opts Options) (*Report, error) {
	if err := in.Period.Validate(); err != nil {
		return nil, err
	}

	sessions := punch.BuildAll(in.Punches, opts.Punch)
	tips := tippool.TipsOwed(in.Pools, in.Payouts, in.Period)

	employees := make([]compensation.Employee, len(in.Employees))
	copy(employees, in.Employees)
	sort.SliceStable(employees, func(i, j int) bool { return employees[i].ID < employees[j].ID })

	report := &Report{Period: in.Period, Lines: []LineItem{}, Errors: []RowError{}}
	for _, e := range employees {
		segments := e.Segments(in.Period)
		if len(segments) == 0 {
			continue
		}
		own := punch.InPeriod(sessions[e.ID], in.Period)

		line, rowErr := lineFor(e, segments, own, in.Payments, opts.Compensation)
		if rowErr != nil {
			report.Errors = append(report.Errors, *rowErr)
		} else {
			line.TipsCents = tips[e.ID]
			line.TotalPayCents = line.GrossPayCents() + line.TipsCents
		}
		report.Lines = append(report.Lines, line)
		report.Totals.add(line)
	}
	return report, nil
}

// lineFor runs each contract segment in order, carrying weekly minutes so
// overtime spans a mid-week contract change.
func lineFor(
	e compensation.Employee,
	segments []compensation.Segment,
	sessions []punch.WorkSession,
	payments []compensation.ManualPayment,
	opts compensation.Options,
) (LineItem, *RowError) {
	last := segments[len(segments)-1].Contract
	line := LineItem{
		EmployeeID:   e.ID,
		Name:         e.Name,
		Position:     e.Position,
		ContractType: last.Type,
		RateCents:    last.DisplayRate(),
		AnomalyCount: punch.AnomalyCount(sessions),
	}

	carry := map[generic.Week]int{}
	for _, seg := range segments {
		pay, err := compensation.Calculate(compensation.Input{
			Employee:         e,
			Contract:         seg.Contract,
			Sessions:         sessions,
			Period:           seg.Period,
			Payments:         payments,
			PriorWeekMinutes: carry,
		}, opts)
		if err != nil {
			return errorRow(line, err), rowError(e.ID, err)
		}
		carry = pay.WeekMinutes

		line.RegularMinutes += pay.RegularMinutes
		line.OvertimeMinutes += pay.OvertimeMinutes
		line.RegularPayCents += pay.RegularPayCents
		line.OvertimePayCents += pay.OvertimePayCents
		line.SalaryOrDailyRatePayCents += pay.SalaryOrDailyRatePayCents
		line.ContractorPayCents += pay.ContractorPayCents
	}
	return line, nil
}

func errorRow(line LineItem, err error) LineItem {
	return LineItem{
		EmployeeID:   line.EmployeeID,
		Name:         line.Name,
		Position:     line.Position,
		ContractType: line.ContractType,
		AnomalyCount: line.AnomalyCount,
		Error:        err.Error(),
	}
}

func rowError(id generic.EmployeeID, err error) *RowError {
	re := &RowError{EmployeeID: id, Message: err.Error()}
	var cfgErr *generic.ConfigurationError
	if errors.As(err, &cfgErr) {
		re.Field = cfgErr.Field
	}
	return re
}
