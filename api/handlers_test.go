package api_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/pay-engine/api"
	"github.com/warp/pay-engine/factory"
	"github.com/warp/pay-engine/generic"
	"github.com/warp/pay-engine/laborcost"
	"github.com/warp/pay-engine/payroll"
	"github.com/warp/pay-engine/punch"
	"github.com/warp/pay-engine/store/memory"
	"github.com/warp/pay-engine/tippool"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	h := api.NewHandler(memory.New(), api.Options{}, api.NewLogger(io.Discard, slog.LevelError))
	srv := httptest.NewServer(api.NewRouter(h))
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func hire(t *testing.T, srv *httptest.Server, id, position string, rateCents int64) {
	t.Helper()
	resp := call(t, srv, http.MethodPost, "/api/employees", map[string]any{
		"id":          id,
		"name":        strings.ToUpper(id),
		"position":    position,
		"active_from": "2025-01-01",
		"contract":    map[string]any{"type": "hourly", "hourly_rate_cents": rateCents},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func clock(t *testing.T, srv *httptest.Server, employee, kind, ts string) punch.Event {
	t.Helper()
	resp := call(t, srv, http.MethodPost, "/api/punches", map[string]any{
		"employee_id": employee,
		"kind":        kind,
		"timestamp":   ts,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeBody[punch.Event](t, resp)
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestEmployees_CreateAndGet(t *testing.T) {
	srv := newServer(t)
	hire(t, srv, "ana", "server", 1500)

	resp := call(t, srv, http.MethodGet, "/api/employees/ana", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decodeBody[factory.EmployeeJSON](t, resp)
	assert.Equal(t, "server", got.Position)
	require.Len(t, got.Contracts, 1)
	assert.Equal(t, int64(1500), got.Contracts[0].HourlyRateCents)

	resp = call(t, srv, http.MethodPost, "/api/employees", map[string]any{
		"id": "ana", "name": "Ana", "active_from": "2025-01-01",
		"contract": map[string]any{"type": "hourly", "hourly_rate_cents": 1500},
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = call(t, srv, http.MethodGet, "/api/employees/nobody", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = call(t, srv, http.MethodGet, "/api/employees", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeBody[[]factory.EmployeeJSON](t, resp), 1)
}

func TestEmployees_RejectsBadContract(t *testing.T) {
	// GIVEN: A salary contract without a pay period
	// WHEN: Creating the employee
	// THEN: 400 naming the missing field

	srv := newServer(t)
	resp := call(t, srv, http.MethodPost, "/api/employees", map[string]any{
		"id": "m", "name": "M", "active_from": "2025-01-01",
		"contract": map[string]any{"type": "salary", "salary_amount_cents": 200000},
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody[api.ErrorResponse](t, resp)
	assert.Contains(t, body.Details, "pay_period")

	resp = call(t, srv, http.MethodPost, "/api/employees", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestEmployees_AddContractVersion(t *testing.T) {
	srv := newServer(t)
	hire(t, srv, "ana", "server", 1500)

	resp := call(t, srv, http.MethodPost, "/api/employees/ana/contracts", map[string]any{
		"effective_from": "2025-03-13", "type": "hourly", "hourly_rate_cents": 2000,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeBody[factory.EmployeeJSON](t, resp).Contracts, 2)

	resp = call(t, srv, http.MethodPost, "/api/employees/ana/contracts", map[string]any{
		"type": "hourly", "hourly_rate_cents": 2000,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// PUNCHES AND SESSIONS
// =============================================================================

func TestPunches_ValidationAndUnknownEmployee(t *testing.T) {
	srv := newServer(t)
	hire(t, srv, "ana", "server", 1500)

	resp := call(t, srv, http.MethodPost, "/api/punches", map[string]any{
		"employee_id": "ana", "kind": "lunch", "timestamp": "2025-03-10T09:00:00Z",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decodeBody[api.ErrorResponse](t, resp).Details, "kind")

	resp = call(t, srv, http.MethodPost, "/api/punches", map[string]any{
		"employee_id": "ghost", "kind": "clock_in", "timestamp": "2025-03-10T09:00:00Z",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSessions_ReflectEditsAndDeletes(t *testing.T) {
	// GIVEN: An 8h shift
	// WHEN: A manager moves the clock-out and then deletes a stray punch
	// THEN: Sessions are rebuilt from the corrected punches on every read

	srv := newServer(t)
	hire(t, srv, "ana", "server", 1500)
	clock(t, srv, "ana", "clock_in", "2025-03-10T09:00:00Z")
	out := clock(t, srv, "ana", "clock_out", "2025-03-10T17:00:00Z")
	stray := clock(t, srv, "ana", "break_start", "2025-03-10T12:00:00Z")

	require.Equal(t, http.StatusNoContent, call(t, srv, http.MethodDelete, "/api/punches/"+string(stray.ID), nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, call(t, srv, http.MethodDelete, "/api/punches/"+string(stray.ID), nil).StatusCode)

	resp := call(t, srv, http.MethodPut, "/api/punches/"+string(out.ID), map[string]any{
		"employee_id": "ana", "kind": "clock_out", "timestamp": "2025-03-10T18:00:00Z",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = call(t, srv, http.MethodGet, "/api/sessions?employee_id=ana&start=2025-03-10&end=2025-03-10", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sessions := decodeBody[api.SessionsResponse](t, resp)
	require.Len(t, sessions.Sessions, 1)
	assert.Equal(t, 540, sessions.Sessions[0].WorkedMinutes)
	assert.Zero(t, sessions.AnomalyCount)
}

func TestNormalizedPunches(t *testing.T) {
	srv := newServer(t)
	hire(t, srv, "ana", "server", 1500)
	clock(t, srv, "ana", "clock_in", "2025-03-10T09:00:00Z")
	clock(t, srv, "ana", "clock_out", "2025-03-10T17:00:00Z")

	resp := call(t, srv, http.MethodGet, "/api/punches/normalized?start=2025-03-10&end=2025-03-10", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody[api.NormalizedPunchesResponse](t, resp)
	assert.Len(t, body.Annotated, 2)
	assert.Len(t, body.Valid, 2)

	resp = call(t, srv, http.MethodGet, "/api/punches/normalized?start=2025-03-10&end=2025-03-01", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// TIP POOLS AND PAYROLL
// =============================================================================

func TestTipPoolToPayroll(t *testing.T) {
	// GIVEN: Two servers, 8h and 4h on Monday, $90 in tips split by hours
	// WHEN: The manager pins Ben at $40, approves, and runs payroll
	// THEN: Ana gets the remaining $50, both tips reach payroll, and the
	//       approved pool can no longer change

	srv := newServer(t)
	hire(t, srv, "ana", "server", 1500)
	hire(t, srv, "ben", "server", 1500)
	clock(t, srv, "ana", "clock_in", "2025-03-10T09:00:00Z")
	clock(t, srv, "ana", "clock_out", "2025-03-10T17:00:00Z")
	clock(t, srv, "ben", "clock_in", "2025-03-10T09:00:00Z")
	clock(t, srv, "ben", "clock_out", "2025-03-10T13:00:00Z")

	resp := call(t, srv, http.MethodPost, "/api/tip-pools", map[string]any{
		"date": "2025-03-10", "total_cents": 9000, "method": "hours",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	pool := decodeBody[tippool.Pool](t, resp)
	ana, _ := pool.Share("ana")
	ben, _ := pool.Share("ben")
	assert.Equal(t, generic.Cents(6000), ana.AmountCents)
	assert.Equal(t, generic.Cents(3000), ben.AmountCents)

	base := "/api/tip-pools/" + string(pool.ID)
	resp = call(t, srv, http.MethodPut, base+"/shares/ben", map[string]any{"amount_cents": 10000})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = call(t, srv, http.MethodPut, base+"/shares/ben", map[string]any{"amount_cents": 4000})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	pool = decodeBody[tippool.Pool](t, resp)
	ana, _ = pool.Share("ana")
	assert.Equal(t, generic.Cents(5000), ana.AmountCents)

	require.Equal(t, http.StatusOK, call(t, srv, http.MethodPost, base+"/approve", nil).StatusCode)
	resp = call(t, srv, http.MethodPut, base+"/shares/ben", map[string]any{"amount_cents": 1000})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, http.StatusConflict, call(t, srv, http.MethodPost, base+"/discard", nil).StatusCode)

	resp = call(t, srv, http.MethodPost, "/api/tip-payouts", map[string]any{
		"employee_id": "ana", "date": "2025-03-14", "amount_cents": 1000,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = call(t, srv, http.MethodGet, "/api/payroll?start=2025-03-10&end=2025-03-16", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	report := decodeBody[payroll.Report](t, resp)

	line, ok := report.Line("ana")
	require.True(t, ok)
	assert.Equal(t, generic.Cents(12000), line.RegularPayCents)
	assert.Equal(t, generic.Cents(4000), line.TipsCents)
	assert.Equal(t, generic.Cents(16000), line.TotalPayCents)

	line, _ = report.Line("ben")
	assert.Equal(t, generic.Cents(6000), line.RegularPayCents)
	assert.Equal(t, generic.Cents(4000), line.TipsCents)
	assert.Equal(t, generic.Cents(26000), report.Totals.TotalPayCents)
}

func TestTipPool_ExplicitParticipantsAndErrors(t *testing.T) {
	srv := newServer(t)
	hire(t, srv, "ana", "server", 1500)
	hire(t, srv, "cam", "busser", 1200)

	resp := call(t, srv, http.MethodPost, "/api/tip-pools", map[string]any{
		"date": "2025-03-10", "total_cents": 10000, "method": "role",
		"participants": []map[string]any{
			{"employee_id": "ana", "role_weight": "1"},
			{"employee_id": "cam", "role_weight": "0.25"},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	pool := decodeBody[tippool.Pool](t, resp)
	cam, _ := pool.Share("cam")
	assert.Equal(t, generic.Cents(2000), cam.AmountCents)

	resp = call(t, srv, http.MethodPost, "/api/tip-pools", map[string]any{
		"date": "2025-03-11", "total_cents": 5000, "method": "hours",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = call(t, srv, http.MethodPost, "/api/tip-pools", map[string]any{
		"date": "2025-03-11", "total_cents": 5000, "method": "raffle",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	assert.Equal(t, http.StatusNotFound, call(t, srv, http.MethodGet, "/api/tip-pools/nope", nil).StatusCode)
}

func TestPayroll_Exports(t *testing.T) {
	srv := newServer(t)
	hire(t, srv, "ana", "server", 1500)
	clock(t, srv, "ana", "clock_in", "2025-03-10T09:00:00Z")
	clock(t, srv, "ana", "clock_out", "2025-03-10T17:00:00Z")

	resp := call(t, srv, http.MethodGet, "/api/payroll?start=2025-03-10&end=2025-03-16&format=csv", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "payroll_2025-03-10_2025-03-16.csv")
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(payroll.CSVHeader, ","), lines[0])
	assert.True(t, strings.HasPrefix(lines[2], "TOTAL,"))

	resp = call(t, srv, http.MethodGet, "/api/payroll?start=2025-03-10&end=2025-03-16&format=xlsx", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("PK")))

	resp = call(t, srv, http.MethodGet, "/api/payroll?start=2025-03-10&end=2025-03-16&format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = call(t, srv, http.MethodGet, "/api/payroll?start=March&end=2025-03-16", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// disconnectedWriter accepts headers but fails every body write.
type disconnectedWriter struct{ *httptest.ResponseRecorder }

func (disconnectedWriter) Write([]byte) (int, error) { return 0, errors.New("client went away") }

func TestPayroll_ExportWriteFailureIsLogged(t *testing.T) {
	// GIVEN: A client that drops the connection mid-download
	// WHEN: Exporting payroll as xlsx
	// THEN: The write error is logged

	var logs bytes.Buffer
	h := api.NewHandler(memory.New(), api.Options{}, api.NewLogger(&logs, slog.LevelError))
	req := httptest.NewRequest(http.MethodGet, "/api/payroll?start=2025-03-10&end=2025-03-16&format=xlsx", nil)

	h.Payroll(disconnectedWriter{httptest.NewRecorder()}, req)

	assert.Contains(t, logs.String(), "failed to write payroll export")
	assert.Contains(t, logs.String(), "client went away")
}

// =============================================================================
// LABOR COST
// =============================================================================

func TestLaborCost_ActualAndScheduled(t *testing.T) {
	srv := newServer(t)
	hire(t, srv, "ana", "server", 1500)
	clock(t, srv, "ana", "clock_in", "2025-03-10T09:00:00Z")
	clock(t, srv, "ana", "clock_out", "2025-03-10T17:00:00Z")

	resp := call(t, srv, http.MethodGet, "/api/labor-cost/actual?start=2025-03-10&end=2025-03-16", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	actual := decodeBody[laborcost.Breakdown](t, resp)
	require.Len(t, actual.Days, 7)
	assert.Equal(t, generic.Cents(12000), actual.Days[0].TotalCents)
	assert.Equal(t, generic.Cents(12000), actual.TotalCents)

	resp = call(t, srv, http.MethodPost, "/api/labor-cost/scheduled", map[string]any{
		"start": "2025-03-10",
		"end":   "2025-03-16",
		"shifts": []map[string]any{
			{"employee_id": "ana", "start": "2025-03-11T10:00:00Z", "end": "2025-03-11T14:00:00Z"},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	scheduled := decodeBody[laborcost.Breakdown](t, resp)
	assert.Equal(t, laborcost.ModeScheduled, scheduled.Mode)
	assert.Equal(t, generic.Cents(6000), scheduled.Days[1].TotalCents)

	resp = call(t, srv, http.MethodPost, "/api/labor-cost/scheduled", map[string]any{
		"start": "2025-03-16", "end": "2025-03-10",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPayments_PerJobReachesPayroll(t *testing.T) {
	srv := newServer(t)
	resp := call(t, srv, http.MethodPost, "/api/employees", map[string]any{
		"id": "dj", "name": "DJ", "active_from": "2025-01-01",
		"contract": map[string]any{"type": "contractor_per_job"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = call(t, srv, http.MethodPost, "/api/payments", map[string]any{
		"employee_id": "dj", "date": "2025-03-15", "amount_cents": 30050,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = call(t, srv, http.MethodPost, "/api/payments", map[string]any{
		"employee_id": "dj", "date": "15/03/2025", "amount_cents": 1,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = call(t, srv, http.MethodGet, "/api/payroll?start=2025-03-10&end=2025-03-16", nil)
	report := decodeBody[payroll.Report](t, resp)
	line, ok := report.Line("dj")
	require.True(t, ok)
	assert.Equal(t, generic.Cents(30050), line.ContractorPayCents)
}

// =============================================================================
// SCENARIOS
// =============================================================================

func loadScenario(t *testing.T, srv *httptest.Server, id string) payroll.Report {
	t.Helper()
	resp := call(t, srv, http.MethodPost, "/api/scenarios/load", map[string]any{"scenario_id": id})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = call(t, srv, http.MethodGet, "/api/payroll?start=2026-03-02&end=2026-03-08", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return decodeBody[payroll.Report](t, resp)
}

func TestScenarios_ListAndCurrent(t *testing.T) {
	srv := newServer(t)

	resp := call(t, srv, http.MethodGet, "/api/scenarios", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decodeBody[[]api.ScenarioDTO](t, resp)
	assert.Len(t, list, 3)

	resp = call(t, srv, http.MethodPost, "/api/scenarios/load", map[string]any{"scenario_id": "nope"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = call(t, srv, http.MethodPost, "/api/scenarios/load", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	loadScenario(t, srv, "hourly-week")
	resp = call(t, srv, http.MethodGet, "/api/scenarios/current", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hourly-week", decodeBody[api.ScenarioDTO](t, resp).ID)
}

func TestScenarios_HourlyWeek(t *testing.T) {
	// GIVEN: A cook on six 8h shifts and a dishwasher who forgot to clock out
	// WHEN: Running payroll for the week
	// THEN: The cook has 8h of overtime and the dishwasher is paid the four closed days

	srv := newServer(t)
	report := loadScenario(t, srv, "hourly-week")

	cook, ok := report.Line("cook-rui")
	require.True(t, ok)
	assert.Equal(t, 40*60, cook.RegularMinutes)
	assert.Equal(t, 8*60, cook.OvertimeMinutes)
	assert.Equal(t, generic.Cents(72000), cook.RegularPayCents)

	dish, ok := report.Line("dish-teo")
	require.True(t, ok)
	assert.Equal(t, generic.Cents(60000), dish.SalaryOrDailyRatePayCents)
	assert.Positive(t, dish.AnomalyCount)
}

func TestScenarios_ReloadReplacesData(t *testing.T) {
	// GIVEN: The tip-night scenario loaded
	// WHEN: Loading mid-period-hire over it
	// THEN: Only the second scenario's employees remain

	srv := newServer(t)
	loadScenario(t, srv, "tip-night")
	report := loadScenario(t, srv, "mid-period-hire")

	_, ok := report.Line("bus-caio")
	assert.False(t, ok)

	dj, ok := report.Line("dj-nox")
	require.True(t, ok)
	assert.Equal(t, generic.Cents(25000), dj.ContractorPayCents)

	// Five 7h shifts, the last two after the raise.
	ana, ok := report.Line("srv-ana")
	require.True(t, ok)
	assert.Equal(t, 35*60, ana.RegularMinutes)
	assert.Equal(t, generic.Cents(3*7*1500+2*7*1700), ana.RegularPayCents)
}

func TestScenarios_TipNight(t *testing.T) {
	// GIVEN: Friday service with an approved $480 hours pool and a $50 cash payout
	// WHEN: Running payroll for the week
	// THEN: Tips owed total the pool minus the payout, the salaried manager
	//       gets none, and the overnight close counts on Friday

	srv := newServer(t)
	report := loadScenario(t, srv, "tip-night")

	assert.Equal(t, generic.Cents(48000-5000), report.Totals.TipsCents)

	ana, ok := report.Line("srv-ana")
	require.True(t, ok)
	assert.Equal(t, generic.Cents(16000-5000), ana.TipsCents)

	mgr, ok := report.Line("mgr-lia")
	require.True(t, ok)
	assert.Zero(t, mgr.TipsCents)

	caio, ok := report.Line("bus-caio")
	require.True(t, ok)
	assert.Equal(t, 8*60, caio.RegularMinutes)
}
