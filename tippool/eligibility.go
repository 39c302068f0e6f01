package tippool

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/pay-engine/compensation"
	"github.com/warp/pay-engine/generic"
	"github.com/warp/pay-engine/punch"
)

// Eligible reports whether the employee takes part in a pool on the day.
// An explicit TipEligible wins in either direction. Otherwise inactive
// employees, days outside the employment window and salaried staff are
// excluded, and everyone else with a contract on the day is in.
func Eligible(e compensation.Employee, day generic.TimePoint) bool {
	if e.TipEligible != nil {
		return *e.TipEligible
	}
	if e.Status == compensation.StatusInactive || !e.ActiveOn(day) {
		return false
	}
	c, ok := e.ContractAt(day)
	if !ok {
		return false
	}
	return c.Type != compensation.TypeSalary
}

// ParticipantsFromSessions lists eligible employees who worked on the day,
// with their worked minutes as the hours basis. Role weights are looked up by
// position; a position missing from the map weighs 1.
func ParticipantsFromSessions(
	employees []compensation.Employee,
	sessions map[generic.EmployeeID][]punch.WorkSession,
	day generic.TimePoint,
	roleWeights map[string]decimal.Decimal,
) []Participant {
	var out []Participant
	for _, e := range employees {
		if !Eligible(e, day) {
			continue
		}
		minutes := 0
		for _, s := range sessions[e.ID] {
			if s.Day.Equal(day) {
				minutes += s.WorkedMinutes
			}
		}
		if minutes == 0 {
			continue
		}
		weight, ok := roleWeights[e.Position]
		if !ok {
			weight = decimal.NewFromInt(1)
		}
		out = append(out, Participant{EmployeeID: e.ID, WorkedMinutes: minutes, RoleWeight: weight})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out
}
