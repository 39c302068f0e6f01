/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built restaurant weeks that populate the database with
	realistic data. Each scenario creates employees, punches, payments and
	tip pools that exercise one area of the engine.

AVAILABLE SCENARIOS:

	hourly-week:      Hourly cook into overtime, daily-rate dishwasher with a
	                  forgotten clock-out and a double tap
	mid-period-hire:  Salaried manager hired mid-week, hourly raise on
	                  Thursday, recurring and per-job contractors
	tip-night:        Friday service with an overnight close, an approved
	                  hours-based pool and a cash payout

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create employees from directory presets
 3. Record punches in the restaurant timezone
 4. Optionally record payments, pools and payouts

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "tip-night"}

	Then GET /api/payroll?start=2026-03-02&end=2026-03-08

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - factory/presets.go: Directory presets
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/warp/pay-engine/compensation"
	"github.com/warp/pay-engine/factory"
	"github.com/warp/pay-engine/generic"
	"github.com/warp/pay-engine/punch"
	"github.com/warp/pay-engine/tippool"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

// ScenarioWeek is the payroll week every scenario is set in.
var ScenarioWeek = generic.Period{
	Start: generic.NewTimePoint(2026, time.March, 2),
	End:   generic.NewTimePoint(2026, time.March, 8),
}

var scenarios = []ScenarioDTO{
	{
		ID:          "hourly-week",
		Name:        "Hourly Week",
		Description: "Hourly cook into weekly overtime, daily-rate dishwasher with punch noise",
		Category:    "punches",
	},
	{
		ID:          "mid-period-hire",
		Name:        "Mid-Period Changes",
		Description: "Salaried hire mid-week, hourly raise on Thursday, contractors",
		Category:    "compensation",
	},
	{
		ID:          "tip-night",
		Name:        "Tip Night",
		Description: "Friday service with an overnight close and an approved tip pool",
		Category:    "tips",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.scenarioMu.Lock()
	current := h.currentScenario
	h.scenarioMu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the store and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := decode(r.Body, &req); err != nil {
		h.fail(w, r, "Invalid request body", err)
		return
	}

	var load func(context.Context) error
	switch req.ScenarioID {
	case "hourly-week":
		load = h.loadHourlyWeekScenario
	case "mid-period-hire":
		load = h.loadMidPeriodScenario
	case "tip-night":
		load = h.loadTipNightScenario
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	h.scenarioMu.Lock()
	defer h.scenarioMu.Unlock()

	ctx := r.Context()
	h.currentScenario = ""
	if err := h.Store.Reset(ctx); err != nil {
		h.fail(w, r, "Failed to reset database", err)
		return
	}
	if err := load(ctx); err != nil {
		h.fail(w, r, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}
	h.currentScenario = req.ScenarioID

	h.Logger.InfoContext(ctx, "scenario loaded", "scenario", req.ScenarioID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadHourlyWeekScenario(ctx context.Context) error {
	if err := h.seedEmployees(ctx,
		factory.HourlyJSON("cook-rui", "Rui Matos", "cook", "2026-01-05", 1800),
		factory.DailyRateJSON("dish-teo", "Teo Braga", "dishwasher", "2026-01-05", 90000, 6),
	); err != nil {
		return err
	}

	// Six shifts of 8h net push the cook past 40 hours.
	for day := 0; day < 6; day++ {
		if err := h.seedShift(ctx, "cook-rui", day, "09:00", "17:30", "13:00", "13:30"); err != nil {
			return err
		}
	}

	for _, day := range []int{0, 1, 2, 3} {
		if err := h.seedShift(ctx, "dish-teo", day, "11:00", "19:00"); err != nil {
			return err
		}
	}
	// Friday: double tap on the way in, never clocked out.
	if err := h.seedPunch(ctx, "dish-teo", 4, "11:00", punch.ClockIn); err != nil {
		return err
	}
	return h.seedPunch(ctx, "dish-teo", 4, "11:00", punch.ClockIn)
}

func (h *Handler) loadMidPeriodScenario(ctx context.Context) error {
	if err := h.seedEmployees(ctx,
		factory.SalaryJSON("mgr-lia", "Lia Costa", "manager", "2026-03-04", 450000, compensation.PayMonthly),
		factory.HourlyJSON("srv-ana", "Ana Lima", "server", "2026-01-05", 1500),
		factory.RecurringContractorJSON("cln-spark", "Sparkle Cleaning", "2026-01-05", 60000, 14),
		factory.PerJobContractorJSON("dj-nox", "DJ Nox", "2026-01-05"),
	); err != nil {
		return err
	}

	// Raise effective Thursday.
	ana, err := h.Store.GetEmployee(ctx, "srv-ana")
	if err != nil {
		return err
	}
	ana = ana.WithContract(ScenarioWeek.Start.AddDays(3), compensation.NewHourlyContract(1700))
	if err := h.Store.SaveEmployee(ctx, ana); err != nil {
		return err
	}

	for day := 0; day < 5; day++ {
		if err := h.seedShift(ctx, "srv-ana", day, "16:00", "23:00"); err != nil {
			return err
		}
	}

	return h.Store.SavePayment(ctx, compensation.ManualPayment{
		ID:          h.newID(),
		EmployeeID:  "dj-nox",
		Date:        ScenarioWeek.Start.AddDays(5),
		AmountCents: 25000,
		Note:        "Saturday set",
	})
}

func (h *Handler) loadTipNightScenario(ctx context.Context) error {
	if err := h.seedEmployees(ctx,
		factory.HourlyJSON("srv-ana", "Ana Lima", "server", "2026-01-05", 1500),
		factory.HourlyJSON("srv-ben", "Ben Souza", "server", "2026-01-05", 1500),
		factory.HourlyJSON("bus-caio", "Caio Reis", "busser", "2026-01-05", 1300),
		factory.SalaryJSON("mgr-lia", "Lia Costa", "manager", "2026-01-05", 450000, compensation.PayMonthly),
	); err != nil {
		return err
	}

	const friday = 4
	shifts := []struct {
		employee   generic.EmployeeID
		start, end string
	}{
		{"srv-ana", "17:00", "23:30"},
		{"srv-ben", "18:00", "23:00"},
		{"bus-caio", "17:00", "01:00"}, // closes after midnight
		{"mgr-lia", "16:00", "23:30"},
	}
	for _, s := range shifts {
		if err := h.seedShift(ctx, s.employee, friday, s.start, s.end); err != nil {
			return err
		}
	}

	day := ScenarioWeek.Start.AddDays(friday)
	participants, err := h.participantsFor(ctx, day)
	if err != nil {
		return err
	}
	pool, err := tippool.NewPool(generic.PoolID(h.newID()), day, 48000, tippool.MethodHours, participants)
	if err != nil {
		return err
	}
	if err := pool.Approve(); err != nil {
		return err
	}
	if err := h.Store.SavePool(ctx, *pool); err != nil {
		return err
	}

	return h.Store.SavePayout(ctx, tippool.Payout{
		ID:          h.newID(),
		EmployeeID:  "srv-ana",
		Date:        day,
		AmountCents: 5000,
	})
}

// =============================================================================
// SEEDING HELPERS
// =============================================================================

func (h *Handler) seedEmployees(ctx context.Context, records ...string) error {
	for _, record := range records {
		e, err := h.Employees.ParseEmployee(record)
		if err != nil {
			return err
		}
		if err := h.Store.SaveEmployee(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// seedShift records a clock-in/clock-out pair on the given day of the
// scenario week, with optional break start/end pairs in between. An end
// earlier than the start falls on the next day.
func (h *Handler) seedShift(ctx context.Context, employee generic.EmployeeID, day int, start, end string, breaks ...string) error {
	in, err := h.scenarioInstant(day, start)
	if err != nil {
		return err
	}
	out, err := h.scenarioInstant(day, end)
	if err != nil {
		return err
	}
	if !out.After(in) {
		out = out.AddDate(0, 0, 1)
	}

	events := []punch.Event{{EmployeeID: employee, Timestamp: in, Kind: punch.ClockIn}}
	for i := 0; i+1 < len(breaks); i += 2 {
		bs, err := h.scenarioInstant(day, breaks[i])
		if err != nil {
			return err
		}
		be, err := h.scenarioInstant(day, breaks[i+1])
		if err != nil {
			return err
		}
		events = append(events,
			punch.Event{EmployeeID: employee, Timestamp: bs, Kind: punch.BreakStart},
			punch.Event{EmployeeID: employee, Timestamp: be, Kind: punch.BreakEnd},
		)
	}
	events = append(events, punch.Event{EmployeeID: employee, Timestamp: out, Kind: punch.ClockOut})

	for _, e := range events {
		e.ID = generic.PunchID(h.newID())
		if err := h.Store.AppendPunch(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) seedPunch(ctx context.Context, employee generic.EmployeeID, day int, clock string, kind punch.Kind) error {
	ts, err := h.scenarioInstant(day, clock)
	if err != nil {
		return err
	}
	return h.Store.AppendPunch(ctx, punch.Event{
		ID:         generic.PunchID(h.newID()),
		EmployeeID: employee,
		Timestamp:  ts,
		Kind:       kind,
	})
}

func (h *Handler) scenarioInstant(day int, clock string) (time.Time, error) {
	hm, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid clock %q: %w", clock, err)
	}
	loc := h.Options.Punch.Location
	if loc == nil {
		loc = time.UTC
	}
	d := ScenarioWeek.Start.AddDays(day)
	return time.Date(d.Year(), d.Month(), d.Day(), hm.Hour(), hm.Minute(), 0, 0, loc), nil
}
