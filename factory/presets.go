package factory

import (
	"encoding/json"

	"github.com/warp/pay-engine/compensation"
)

// =============================================================================
// DIRECTORY PRESETS
// =============================================================================
//
// Each preset returns a directory record in the JSON accepted by
// ParseEmployee. They back the demo scenarios and keep test fixtures short.

// HourlyJSON returns an hourly employee record.
func HourlyJSON(id, name, position, activeFrom string, rateCents int64) string {
	return presetJSON(id, name, position, activeFrom, ContractJSON{
		Type:            string(compensation.TypeHourly),
		HourlyRateCents: rateCents,
	})
}

// SalaryJSON returns a salaried employee record.
func SalaryJSON(id, name, position, activeFrom string, amountCents int64, period compensation.PayPeriodKind) string {
	return presetJSON(id, name, position, activeFrom, ContractJSON{
		Type:              string(compensation.TypeSalary),
		SalaryAmountCents: amountCents,
		PayPeriod:         string(period),
	})
}

// DailyRateJSON returns a daily-rate employee record. The daily rate is
// derived from the weekly reference when the record is parsed.
func DailyRateJSON(id, name, position, activeFrom string, weeklyCents int64, daysPerWeek int) string {
	return presetJSON(id, name, position, activeFrom, ContractJSON{
		Type:                       string(compensation.TypeDailyRate),
		ReferenceWeeklyAmountCents: weeklyCents,
		ReferenceDaysPerWeek:       daysPerWeek,
	})
}

// RecurringContractorJSON returns a contractor paid a fixed amount every
// intervalDays.
func RecurringContractorJSON(id, name, activeFrom string, amountCents int64, intervalDays int) string {
	return presetJSON(id, name, "contractor", activeFrom, ContractJSON{
		Type:                          string(compensation.TypeContractorRecurring),
		ContractorIntervalAmountCents: amountCents,
		IntervalDays:                  intervalDays,
	})
}

// PerJobContractorJSON returns a contractor paid only through recorded
// payments.
func PerJobContractorJSON(id, name, activeFrom string) string {
	return presetJSON(id, name, "contractor", activeFrom, ContractJSON{
		Type: string(compensation.TypeContractorPerJob),
	})
}

func presetJSON(id, name, position, activeFrom string, contract ContractJSON) string {
	ej := EmployeeJSON{
		ID:         id,
		Name:       name,
		Position:   position,
		Status:     string(compensation.StatusActive),
		ActiveFrom: activeFrom,
		Contract:   &contract,
	}
	b, _ := json.MarshalIndent(ej, "", "  ")
	return string(b)
}
