/*
Package laborcost attributes labor cost to calendar days.

PURPOSE:
  Dashboards and P&L need to know what a given day cost, not what a pay
  period cost. Two modes share one attribution core:

  - Actual: driven by reconstructed work sessions and recorded per-job
    payments (backward-looking).
  - Scheduled: driven by planned shifts (forward-looking, budgeting).

ATTRIBUTION RULES:
  - Hourly: each day costs its minutes at the rate in force that day; the
    overtime premium lands on the day the ISO week crosses 40 hours.
  - Salary, daily rate, recurring contractor: one per-day amount on each
    distinct worked or scheduled day. Several shifts on a day count once.
    Days nobody worked carry no cost, even though the salary itself is
    prorated over the whole pay period.
  - Per-job contractor: payments land on their payment date (actual only).

SEE ALSO:
  - compensation/overtime.go: The shared weekly threshold split
  - compensation/proration.go: DayRate
*/
package laborcost

import (
	"sort"
	"time"

	"github.com/warp/pay-engine/compensation"
	"github.com/warp/pay-engine/generic"
	"github.com/warp/pay-engine/punch"
)

// Mode tells which input drove a breakdown.
type Mode string

const (
	ModeActual    Mode = "actual"
	ModeScheduled Mode = "scheduled"
)

// Shift is a planned work interval.
type Shift struct {
	EmployeeID generic.EmployeeID `json:"employee_id"`
	Start      time.Time          `json:"start"`
	End        time.Time          `json:"end"`
}

// DayCost is what one calendar day cost, split by compensation type and by
// employee.
type DayCost struct {
	Date       generic.TimePoint                    `json:"date"`
	ByType     map[compensation.Type]generic.Cents  `json:"by_type"`
	ByEmployee map[generic.EmployeeID]generic.Cents `json:"by_employee"`
	TotalCents generic.Cents                        `json:"total_cents"`
}

func (d *DayCost) add(emp generic.EmployeeID, t compensation.Type, amount generic.Cents) {
	if amount == 0 {
		return
	}
	d.ByType[t] += amount
	d.ByEmployee[emp] += amount
	d.TotalCents += amount
}

// Error records an employee skipped because of a bad contract.
type Error struct {
	EmployeeID generic.EmployeeID `json:"employee_id"`
	Message    string             `json:"message"`
}

// Breakdown is the per-day cost over a period. Days holds every day of the
// period in order, zero-cost days included.
type Breakdown struct {
	Period     generic.Period `json:"period"`
	Mode       Mode           `json:"mode"`
	Days       []DayCost      `json:"days"`
	TotalCents generic.Cents  `json:"total_cents"`
	Errors     []Error        `json:"errors"`
}

// Day returns the cost of one day of the breakdown.
func (b *Breakdown) Day(day generic.TimePoint) (DayCost, bool) {
	for _, d := range b.Days {
		if d.Date.Equal(day) {
			return d, true
		}
	}
	return DayCost{}, false
}

type Options struct {
	Punch        punch.Options
	Compensation compensation.Options
}

// =============================================================================
// MODES
// =============================================================================

// Actual attributes the cost of reconstructed sessions and per-job payments.
func Actual(
	employees []compensation.Employee,
	sessions map[generic.EmployeeID][]punch.WorkSession,
	payments []compensation.ManualPayment,
	period generic.Period,
	opts Options,
) (*Breakdown, error) {
	work := make(map[generic.EmployeeID]*attendance)
	for id, list := range sessions {
		a := newAttendance()
		for _, s := range list {
			if !s.IsComplete() || s.Excluded || !period.Contains(s.Day) {
				continue
			}
			a.mark(s.Day, s.WorkedMinutes)
		}
		work[id] = a
	}
	return allocate(employees, work, payments, period, ModeActual, opts)
}

// Scheduled attributes the cost of planned shifts. A shift belongs to the
// civil date of its start.
func Scheduled(
	employees []compensation.Employee,
	shifts []Shift,
	period generic.Period,
	opts Options,
) (*Breakdown, error) {
	work := make(map[generic.EmployeeID]*attendance)
	for _, sh := range shifts {
		if !sh.End.After(sh.Start) {
			continue
		}
		day := generic.DateOf(sh.Start, opts.Punch.Location)
		if !period.Contains(day) {
			continue
		}
		a, ok := work[sh.EmployeeID]
		if !ok {
			a = newAttendance()
			work[sh.EmployeeID] = a
		}
		a.mark(day, int(sh.End.Sub(sh.Start).Round(time.Minute)/time.Minute))
	}
	return allocate(employees, work, nil, period, ModeScheduled, opts)
}

// =============================================================================
// ATTRIBUTION CORE
// =============================================================================

// attendance is the days an employee worked or is planned to work and the
// minutes on each.
type attendance struct {
	minutes map[string]int
	days    map[string]generic.TimePoint
}

func newAttendance() *attendance {
	return &attendance{minutes: map[string]int{}, days: map[string]generic.TimePoint{}}
}

func (a *attendance) mark(day generic.TimePoint, minutes int) {
	a.days[day.Key()] = day
	if minutes > 0 {
		a.minutes[day.Key()] += minutes
	}
}

func (a *attendance) sortedDays() []generic.TimePoint {
	out := make([]generic.TimePoint, 0, len(a.days))
	for _, d := range a.days {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func allocate(
	employees []compensation.Employee,
	work map[generic.EmployeeID]*attendance,
	payments []compensation.ManualPayment,
	period generic.Period,
	mode Mode,
	opts Options,
) (*Breakdown, error) {
	if err := period.Validate(); err != nil {
		return nil, err
	}

	days := period.Days()
	out := &Breakdown{Period: period, Mode: mode, Days: make([]DayCost, len(days)), Errors: []Error{}}
	index := make(map[string]int, len(days))
	for i, d := range days {
		out.Days[i] = DayCost{
			Date:       d,
			ByType:     map[compensation.Type]generic.Cents{},
			ByEmployee: map[generic.EmployeeID]generic.Cents{},
		}
		index[d.Key()] = i
	}

	sorted := make([]compensation.Employee, len(employees))
	copy(sorted, employees)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	for _, e := range sorted {
		a := work[e.ID]
		if a == nil {
			a = newAttendance()
		}
		if err := allocateEmployee(out, index, e, a, payments, mode, opts); err != nil {
			out.Errors = append(out.Errors, Error{EmployeeID: e.ID, Message: err.Error()})
		}
	}

	for _, d := range out.Days {
		out.TotalCents += d.TotalCents
	}
	return out, nil
}

// allocateEmployee adds one employee's cost to the breakdown. On a contract
// error nothing is added for the employee.
func allocateEmployee(
	out *Breakdown,
	index map[string]int,
	e compensation.Employee,
	a *attendance,
	payments []compensation.ManualPayment,
	mode Mode,
	opts Options,
) error {
	type entry struct {
		day    generic.TimePoint
		kind   compensation.Type
		amount generic.Cents
	}
	var (
		entries []entry
		hourly  = map[string]int{}
		rates   = map[string]generic.Cents{}
	)

	for _, day := range a.sortedDays() {
		if !e.ActiveOn(day) {
			continue
		}
		c, ok := e.ContractAt(day)
		if !ok {
			continue
		}
		if err := compensation.ValidateFor(e.ID, c); err != nil {
			return err
		}
		if c.Type == compensation.TypeHourly {
			if m := a.minutes[day.Key()]; m > 0 {
				hourly[day.Key()] = m
				rates[day.Key()] = c.Hourly.HourlyRateCents
			}
			continue
		}
		if amount, ok := compensation.DayRate(c, day, opts.Compensation); ok {
			entries = append(entries, entry{day: day, kind: c.Type, amount: amount})
		}
	}

	splits, _ := compensation.SplitOvertime(hourly, nil)
	for _, s := range splits {
		entries = append(entries, entry{
			day:    s.Day,
			kind:   compensation.TypeHourly,
			amount: compensation.HourlyDayCost(s, rates[s.Day.Key()]),
		})
	}

	if mode == ModeActual {
		for _, p := range payments {
			if p.EmployeeID != e.ID {
				continue
			}
			if _, ok := index[p.Date.Key()]; !ok {
				continue
			}
			entries = append(entries, entry{day: p.Date, kind: compensation.TypeContractorPerJob, amount: p.AmountCents})
		}
	}

	for _, en := range entries {
		if i, ok := index[en.day.Key()]; ok {
			out.Days[i].add(e.ID, en.kind, en.amount)
		}
	}
	return nil
}
