/*
Package factory provides JSON to Go employee and contract conversion.

PURPOSE:
  Converts the flat employee-directory JSON (one record per employee with a
  type discriminant and the type's fields side by side) into
  compensation.Employee and its tagged-union Contract. The API and the
  stores both speak this format.

JSON SCHEMA:
  {
    "id": "emp-1",
    "name": "Ana Lima",
    "position": "server",
    "status": "active",
    "active_from": "2025-01-06",
    "active_until": "",
    "tip_eligible": null,
    "contract": {
      "type": "daily_rate",
      "reference_weekly_amount_cents": 100000,
      "reference_days_per_week": 6
    }
  }

  A record may carry "contracts": [{"effective_from": "...", ...}] instead
  of "contract" to import a whole history.

KEY FEATURES:
  - Rejects fields that belong to another contract type
  - Derives and freezes the daily rate when only the weekly reference is
    given; an explicit daily_rate_amount_cents is kept as-is
  - Validates the result (ConfigurationError)

USAGE:
  f := factory.NewEmployeeFactory()
  emp, err := f.ParseEmployee(jsonString)

SEE ALSO:
  - compensation/contract.go: Contract and Employee
  - compensation/validate.go: Validation rules
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/warp/pay-engine/compensation"
	"github.com/warp/pay-engine/generic"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ContractJSON is the flat representation of a contract.
type ContractJSON struct {
	Type string `json:"type"`

	HourlyRateCents int64 `json:"hourly_rate_cents,omitempty"`

	SalaryAmountCents int64  `json:"salary_amount_cents,omitempty"`
	PayPeriod         string `json:"pay_period,omitempty"`

	DailyRateAmountCents       int64 `json:"daily_rate_amount_cents,omitempty"`
	ReferenceWeeklyAmountCents int64 `json:"reference_weekly_amount_cents,omitempty"`
	ReferenceDaysPerWeek       int   `json:"reference_days_per_week,omitempty"`

	ContractorIntervalAmountCents int64 `json:"contractor_interval_amount_cents,omitempty"`
	IntervalDays                  int   `json:"interval_days,omitempty"`

	EffectiveFrom string `json:"effective_from,omitempty"` // only inside "contracts"
}

// EmployeeJSON is the flat representation of a directory record.
type EmployeeJSON struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Position    string         `json:"position,omitempty"`
	Status      string         `json:"status,omitempty"`
	ActiveFrom  string         `json:"active_from"`
	ActiveUntil string         `json:"active_until,omitempty"`
	TipEligible *bool          `json:"tip_eligible,omitempty"`
	Contract    *ContractJSON  `json:"contract,omitempty"`
	Contracts   []ContractJSON `json:"contracts,omitempty"`
}

// =============================================================================
// EMPLOYEE FACTORY
// =============================================================================

// EmployeeFactory converts JSON directory records to Go structs.
type EmployeeFactory struct{}

func NewEmployeeFactory() *EmployeeFactory {
	return &EmployeeFactory{}
}

// ParseEmployee parses a JSON string into an Employee.
func (f *EmployeeFactory) ParseEmployee(jsonStr string) (compensation.Employee, error) {
	var ej EmployeeJSON
	if err := json.Unmarshal([]byte(jsonStr), &ej); err != nil {
		return compensation.Employee{}, fmt.Errorf("failed to parse employee JSON: %w", err)
	}
	return f.FromJSON(ej)
}

// ParseContract parses a JSON string into a Contract.
func (f *EmployeeFactory) ParseContract(jsonStr string) (compensation.Contract, error) {
	var cj ContractJSON
	if err := json.Unmarshal([]byte(jsonStr), &cj); err != nil {
		return compensation.Contract{}, fmt.Errorf("failed to parse contract JSON: %w", err)
	}
	return f.ContractFromJSON("", cj)
}

// FromJSON converts EmployeeJSON to an Employee. A single "contract" is
// effective from the employee's active_from date.
func (f *EmployeeFactory) FromJSON(ej EmployeeJSON) (compensation.Employee, error) {
	if ej.ID == "" {
		return compensation.Employee{}, fmt.Errorf("%w: employee id is required", generic.ErrInvalidInput)
	}
	activeFrom, err := generic.ParseDate(ej.ActiveFrom)
	if err != nil {
		return compensation.Employee{}, fmt.Errorf("%w: invalid active_from: %v", generic.ErrInvalidInput, err)
	}

	e := compensation.Employee{
		ID:          generic.EmployeeID(ej.ID),
		Name:        ej.Name,
		Position:    ej.Position,
		Status:      parseStatus(ej.Status),
		ActiveFrom:  activeFrom,
		TipEligible: ej.TipEligible,
	}
	if ej.ActiveUntil != "" {
		until, err := generic.ParseDate(ej.ActiveUntil)
		if err != nil {
			return compensation.Employee{}, fmt.Errorf("%w: invalid active_until: %v", generic.ErrInvalidInput, err)
		}
		if until.Before(activeFrom) {
			return compensation.Employee{}, fmt.Errorf("%w: active_until before active_from", generic.ErrInvalidPeriod)
		}
		e.ActiveUntil = &until
	}
	if e.Status == compensation.StatusInactive && e.ActiveUntil == nil {
		return compensation.Employee{}, fmt.Errorf("%w: inactive employee requires active_until", generic.ErrInvalidInput)
	}

	if ej.Contract != nil {
		c, err := f.ContractFromJSON(e.ID, *ej.Contract)
		if err != nil {
			return compensation.Employee{}, err
		}
		e = e.WithContract(activeFrom, c)
	}
	for _, cj := range ej.Contracts {
		effective, err := generic.ParseDate(cj.EffectiveFrom)
		if err != nil {
			return compensation.Employee{}, fmt.Errorf("%w: invalid effective_from: %v", generic.ErrInvalidInput, err)
		}
		c, err := f.ContractFromJSON(e.ID, cj)
		if err != nil {
			return compensation.Employee{}, err
		}
		e = e.WithContract(effective, c)
	}
	return e, nil
}

// ContractFromJSON builds the tagged union for the declared type and
// validates it.
func (f *EmployeeFactory) ContractFromJSON(employee generic.EmployeeID, cj ContractJSON) (compensation.Contract, error) {
	t := compensation.Type(cj.Type)
	if err := rejectForeignFields(employee, t, cj); err != nil {
		return compensation.Contract{}, err
	}

	c := compensation.Contract{Type: t}
	switch t {
	case compensation.TypeHourly:
		c = compensation.NewHourlyContract(generic.Cents(cj.HourlyRateCents))
	case compensation.TypeSalary:
		c = compensation.NewSalaryContract(generic.Cents(cj.SalaryAmountCents), compensation.PayPeriodKind(cj.PayPeriod))
	case compensation.TypeDailyRate:
		if cj.DailyRateAmountCents > 0 {
			c.DailyRate = &compensation.DailyRateTerms{
				DailyRateAmountCents:       generic.Cents(cj.DailyRateAmountCents),
				ReferenceWeeklyAmountCents: generic.Cents(cj.ReferenceWeeklyAmountCents),
				ReferenceDaysPerWeek:       cj.ReferenceDaysPerWeek,
			}
		} else {
			c = compensation.NewDailyRateContract(generic.Cents(cj.ReferenceWeeklyAmountCents), cj.ReferenceDaysPerWeek)
		}
	case compensation.TypeContractorRecurring:
		c = compensation.NewRecurringContractorContract(generic.Cents(cj.ContractorIntervalAmountCents), cj.IntervalDays)
	case compensation.TypeContractorPerJob:
		c = compensation.NewPerJobContract()
	}

	if err := compensation.ValidateFor(employee, c); err != nil {
		return compensation.Contract{}, err
	}
	return c, nil
}

// ToJSON converts an Employee to EmployeeJSON with its full contract history.
func (f *EmployeeFactory) ToJSON(e compensation.Employee) EmployeeJSON {
	ej := EmployeeJSON{
		ID:          string(e.ID),
		Name:        e.Name,
		Position:    e.Position,
		Status:      string(e.Status),
		TipEligible: e.TipEligible,
	}
	if !e.ActiveFrom.IsZero() {
		ej.ActiveFrom = e.ActiveFrom.String()
	}
	if e.ActiveUntil != nil {
		ej.ActiveUntil = e.ActiveUntil.String()
	}
	for _, v := range e.Contracts {
		cj := ContractToJSON(v.Contract)
		cj.EffectiveFrom = v.EffectiveFrom.String()
		ej.Contracts = append(ej.Contracts, cj)
	}
	return ej
}

// ContractToJSON flattens a contract.
func ContractToJSON(c compensation.Contract) ContractJSON {
	cj := ContractJSON{Type: string(c.Type)}
	if c.Hourly != nil {
		cj.HourlyRateCents = int64(c.Hourly.HourlyRateCents)
	}
	if c.Salary != nil {
		cj.SalaryAmountCents = int64(c.Salary.SalaryAmountCents)
		cj.PayPeriod = string(c.Salary.PayPeriod)
	}
	if c.DailyRate != nil {
		cj.DailyRateAmountCents = int64(c.DailyRate.DailyRateAmountCents)
		cj.ReferenceWeeklyAmountCents = int64(c.DailyRate.ReferenceWeeklyAmountCents)
		cj.ReferenceDaysPerWeek = c.DailyRate.ReferenceDaysPerWeek
	}
	if c.Contractor != nil {
		cj.ContractorIntervalAmountCents = int64(c.Contractor.IntervalAmountCents)
		cj.IntervalDays = c.Contractor.IntervalDays
	}
	return cj
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseStatus(s string) compensation.Status {
	switch s {
	case "inactive":
		return compensation.StatusInactive
	default:
		return compensation.StatusActive
	}
}

// rejectForeignFields enforces that only the declared type's fields are set.
func rejectForeignFields(employee generic.EmployeeID, t compensation.Type, cj ContractJSON) error {
	owner := map[string]compensation.Type{}
	set := func(field string, isSet bool, typ compensation.Type) {
		if isSet {
			owner[field] = typ
		}
	}
	set("hourly_rate_cents", cj.HourlyRateCents != 0, compensation.TypeHourly)
	set("salary_amount_cents", cj.SalaryAmountCents != 0, compensation.TypeSalary)
	set("pay_period", cj.PayPeriod != "", compensation.TypeSalary)
	set("daily_rate_amount_cents", cj.DailyRateAmountCents != 0, compensation.TypeDailyRate)
	set("reference_weekly_amount_cents", cj.ReferenceWeeklyAmountCents != 0, compensation.TypeDailyRate)
	set("reference_days_per_week", cj.ReferenceDaysPerWeek != 0, compensation.TypeDailyRate)
	set("contractor_interval_amount_cents", cj.ContractorIntervalAmountCents != 0, compensation.TypeContractorRecurring)
	set("interval_days", cj.IntervalDays != 0, compensation.TypeContractorRecurring)

	for _, field := range []string{
		"hourly_rate_cents", "salary_amount_cents", "pay_period",
		"daily_rate_amount_cents", "reference_weekly_amount_cents", "reference_days_per_week",
		"contractor_interval_amount_cents", "interval_days",
	} {
		if typ, ok := owner[field]; ok && typ != t {
			return &generic.ConfigurationError{
				EmployeeID:   employee,
				ContractType: string(t),
				Field:        field,
				Reason:       "unexpected",
			}
		}
	}
	return nil
}
