/*
Package payroll assembles the per-employee pay report for a period.

PURPOSE:
  Aggregate is the one entry point: it rebuilds sessions from punches,
  splits each employee's contract history over the period, runs the
  compensation calculator per segment, adds approved tips net of payouts and
  totals everything. The report is derived on every call and never stored,
  so a punch correction is reflected by simply asking again.

KEY CONCEPTS:
  - LineItem: One row per employee active in the period, zero rows included
  - Error row: A LineItem with Error set and zero pay, produced when the
    employee's contract is misconfigured; the rest of the run continues
  - Totals: Column sums over every row

SEE ALSO:
  - aggregate.go: The computation
  - export.go: CSV and XLSX renderings of a Report
*/
package payroll

import (
	"github.com/shopspring/decimal"
	"github.com/warp/pay-engine/compensation"
	"github.com/warp/pay-engine/generic"
)

// LineItem is one employee's pay for the period.
type LineItem struct {
	EmployeeID   generic.EmployeeID `json:"employee_id"`
	Name         string             `json:"name"`
	Position     string             `json:"position"`
	ContractType compensation.Type  `json:"contract_type"`
	RateCents    generic.Cents      `json:"rate_cents"`

	RegularMinutes   int           `json:"regular_minutes"`
	OvertimeMinutes  int           `json:"overtime_minutes"`
	RegularPayCents  generic.Cents `json:"regular_pay_cents"`
	OvertimePayCents generic.Cents `json:"overtime_pay_cents"`

	SalaryOrDailyRatePayCents generic.Cents `json:"salary_or_daily_rate_pay_cents"`
	ContractorPayCents        generic.Cents `json:"contractor_pay_cents"`

	TipsCents     generic.Cents `json:"tips_cents"`
	TotalPayCents generic.Cents `json:"total_pay_cents"`

	AnomalyCount int    `json:"anomaly_count"`
	Error        string `json:"error,omitempty"`
}

func (l LineItem) RegularHours() decimal.Decimal  { return generic.MinutesToHours(l.RegularMinutes) }
func (l LineItem) OvertimeHours() decimal.Decimal { return generic.MinutesToHours(l.OvertimeMinutes) }

// GrossPayCents is pay before tips.
func (l LineItem) GrossPayCents() generic.Cents {
	return l.RegularPayCents + l.OvertimePayCents + l.SalaryOrDailyRatePayCents + l.ContractorPayCents
}

// Totals sums the money and time columns of every row.
type Totals struct {
	RegularMinutes            int           `json:"regular_minutes"`
	OvertimeMinutes           int           `json:"overtime_minutes"`
	RegularPayCents           generic.Cents `json:"regular_pay_cents"`
	OvertimePayCents          generic.Cents `json:"overtime_pay_cents"`
	SalaryOrDailyRatePayCents generic.Cents `json:"salary_or_daily_rate_pay_cents"`
	ContractorPayCents        generic.Cents `json:"contractor_pay_cents"`
	GrossPayCents             generic.Cents `json:"gross_pay_cents"`
	TipsCents                 generic.Cents `json:"tips_cents"`
	TotalPayCents             generic.Cents `json:"total_pay_cents"`
	AnomalyCount              int           `json:"anomaly_count"`
}

func (t *Totals) add(l LineItem) {
	t.RegularMinutes += l.RegularMinutes
	t.OvertimeMinutes += l.OvertimeMinutes
	t.RegularPayCents += l.RegularPayCents
	t.OvertimePayCents += l.OvertimePayCents
	t.SalaryOrDailyRatePayCents += l.SalaryOrDailyRatePayCents
	t.ContractorPayCents += l.ContractorPayCents
	t.GrossPayCents += l.GrossPayCents()
	t.TipsCents += l.TipsCents
	t.TotalPayCents += l.TotalPayCents
	t.AnomalyCount += l.AnomalyCount
}

// RowError describes why an employee's row carries no pay.
type RowError struct {
	EmployeeID generic.EmployeeID `json:"employee_id"`
	Field      string             `json:"field,omitempty"`
	Message    string             `json:"message"`
}

// Report is the payroll for one period.
type Report struct {
	Period generic.Period `json:"period"`
	Lines  []LineItem     `json:"lines"`
	Totals Totals         `json:"totals"`
	Errors []RowError     `json:"errors"`
}

// Line returns the row for an employee.
func (r *Report) Line(id generic.EmployeeID) (LineItem, bool) {
	for _, l := range r.Lines {
		if l.EmployeeID == id {
			return l, true
		}
	}
	return LineItem{}, false
}
