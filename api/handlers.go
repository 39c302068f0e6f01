/*
handlers.go - HTTP API handlers for the pay engine

PURPOSE:
  Exposes punches, pay, labor cost and tip pools via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to the calculation
  packages. Every derived figure is recomputed from stored records on each
  request; nothing computed here is written back.

ENDPOINTS:
  Employees:
    GET    /api/employees                       List employees
    POST   /api/employees                       Create employee (directory JSON)
    GET    /api/employees/{id}                  Get employee
    POST   /api/employees/{id}/contracts        Add a contract version

  Punches:
    POST   /api/punches                         Record clock event
    PUT    /api/punches/{id}                    Manager correction
    DELETE /api/punches/{id}                    Soft delete
    GET    /api/punches/normalized              Annotated stream
    GET    /api/sessions                        Reconstructed sessions

  Money:
    POST   /api/payments                        Per-job payment
    POST   /api/tip-payouts                     Tips paid out
    GET    /api/payroll?start&end&format        Payroll (json|csv|xlsx)
    GET    /api/labor-cost/actual?start&end     Daily cost from sessions
    POST   /api/labor-cost/scheduled            Daily cost from shifts

  Tip pools:
    POST   /api/tip-pools                       Create draft
    GET    /api/tip-pools/{id}                  Get pool
    PUT    /api/tip-pools/{id}/shares/{emp}     Override a share
    DELETE /api/tip-pools/{id}/shares/{emp}     Drop an override
    POST   /api/tip-pools/{id}/approve          Approve
    POST   /api/tip-pools/{id}/discard          Discard

  Demo:
    GET    /api/scenarios                       List scenarios
    GET    /api/scenarios/current               Loaded scenario
    POST   /api/scenarios/load                  Reset and load

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, bad contract terms
  - 404: Resource not found
  - 409: Conflict (duplicate id, pool no longer a draft)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/pay-engine/compensation"
	"github.com/warp/pay-engine/factory"
	"github.com/warp/pay-engine/generic"
	"github.com/warp/pay-engine/laborcost"
	"github.com/warp/pay-engine/payroll"
	"github.com/warp/pay-engine/punch"
	"github.com/warp/pay-engine/store"
	"github.com/warp/pay-engine/tippool"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Options carries the engine policy the handlers pass to the calculators.
type Options struct {
	Punch        punch.Options
	Compensation compensation.Options
	RoleWeights  map[string]decimal.Decimal
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     store.Store
	Employees *factory.EmployeeFactory
	Options   Options
	Logger    *slog.Logger

	newID func() string

	scenarioMu      sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(st store.Store, opts Options, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Store:     st,
		Employees: factory.NewEmployeeFactory(),
		Options:   opts,
		Logger:    logger,
		newID:     uuid.NewString,
	}
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to list employees", err)
		return
	}

	out := make([]factory.EmployeeJSON, len(employees))
	for i, e := range employees {
		out[i] = h.Employees.ToJSON(e)
	}
	writeJSON(w, http.StatusOK, out)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	e, err := h.Store.GetEmployee(r.Context(), generic.EmployeeID(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, r, "Failed to get employee", err)
		return
	}
	writeJSON(w, http.StatusOK, h.Employees.ToJSON(e))
}

// CreateEmployee creates an employee from a directory record.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req factory.EmployeeJSON
	if err := decode(r.Body, &req); err != nil {
		h.fail(w, r, "Invalid request body", err)
		return
	}

	e, err := h.Employees.FromJSON(req)
	if err != nil {
		h.fail(w, r, "Invalid employee", err)
		return
	}

	ctx := r.Context()
	if _, err := h.Store.GetEmployee(ctx, e.ID); err == nil {
		h.fail(w, r, "Employee already exists", fmt.Errorf("employee %s: %w", e.ID, generic.ErrDuplicate))
		return
	} else if !generic.IsNotFound(err) {
		h.fail(w, r, "Failed to create employee", err)
		return
	}

	if err := h.Store.SaveEmployee(ctx, e); err != nil {
		h.fail(w, r, "Failed to create employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, h.Employees.ToJSON(e))
}

// AddContract appends a contract version. Pay for days before its
// effective date keeps using the previous version.
func (h *Handler) AddContract(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	e, err := h.Store.GetEmployee(ctx, generic.EmployeeID(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, r, "Failed to get employee", err)
		return
	}

	var req factory.ContractJSON
	if err := decode(r.Body, &req); err != nil {
		h.fail(w, r, "Invalid request body", err)
		return
	}
	effective, err := generic.ParseDate(req.EffectiveFrom)
	if err != nil {
		h.fail(w, r, "Invalid effective_from (use YYYY-MM-DD)", fmt.Errorf("%w: %v", generic.ErrInvalidInput, err))
		return
	}
	c, err := h.Employees.ContractFromJSON(e.ID, req)
	if err != nil {
		h.fail(w, r, "Invalid contract", err)
		return
	}

	e = e.WithContract(effective, c)
	if err := h.Store.SaveEmployee(ctx, e); err != nil {
		h.fail(w, r, "Failed to save contract", err)
		return
	}
	writeJSON(w, http.StatusOK, h.Employees.ToJSON(e))
}

// =============================================================================
// PUNCH HANDLERS
// =============================================================================

// CreatePunch records a clock event.
func (h *Handler) CreatePunch(w http.ResponseWriter, r *http.Request) {
	var req PunchRequest
	if err := decode(r.Body, &req); err != nil {
		h.fail(w, r, "Invalid request body", err)
		return
	}

	ctx := r.Context()
	if _, err := h.Store.GetEmployee(ctx, generic.EmployeeID(req.EmployeeID)); err != nil {
		h.fail(w, r, "Unknown employee", err)
		return
	}

	e := req.event(generic.PunchID(h.newID()))
	if err := h.Store.AppendPunch(ctx, e); err != nil {
		h.fail(w, r, "Failed to record punch", err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// EditPunch replaces a punch's values, keeping its identity.
func (h *Handler) EditPunch(w http.ResponseWriter, r *http.Request) {
	var req PunchRequest
	if err := decode(r.Body, &req); err != nil {
		h.fail(w, r, "Invalid request body", err)
		return
	}

	e := req.event(generic.PunchID(chi.URLParam(r, "id")))
	if err := h.Store.EditPunch(r.Context(), e); err != nil {
		h.fail(w, r, "Failed to edit punch", err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// DeletePunch soft-deletes a punch.
func (h *Handler) DeletePunch(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeletePunch(r.Context(), generic.PunchID(chi.URLParam(r, "id"))); err != nil {
		h.fail(w, r, "Failed to delete punch", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (req PunchRequest) event(id generic.PunchID) punch.Event {
	return punch.Event{
		ID:         id,
		EmployeeID: generic.EmployeeID(req.EmployeeID),
		Timestamp:  req.Timestamp,
		Kind:       punch.Kind(req.Kind),
		Note:       req.Note,
	}
}

// NormalizedPunches returns the annotated punch stream of a period.
// GET /api/punches/normalized?employee_id=&start=&end=
func (h *Handler) NormalizedPunches(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r)
	if err != nil {
		h.fail(w, r, "Invalid period", err)
		return
	}
	events, err := h.punches(r.Context(), generic.EmployeeID(r.URL.Query().Get("employee_id")), period)
	if err != nil {
		h.fail(w, r, "Failed to list punches", err)
		return
	}

	resp := NormalizedPunchesResponse{Period: period, Annotated: []punch.Annotated{}, Valid: []punch.Event{}}
	groups := punch.GroupByEmployee(events)
	for _, id := range sortedIDs(groups) {
		annotated := punch.Normalize(groups[id])
		resp.Annotated = append(resp.Annotated, annotated...)
		resp.Valid = append(resp.Valid, punch.Valid(annotated)...)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Sessions returns reconstructed work sessions whose day falls in the period.
// GET /api/sessions?employee_id=&start=&end=
func (h *Handler) Sessions(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r)
	if err != nil {
		h.fail(w, r, "Invalid period", err)
		return
	}
	events, err := h.punches(r.Context(), generic.EmployeeID(r.URL.Query().Get("employee_id")), period)
	if err != nil {
		h.fail(w, r, "Failed to list punches", err)
		return
	}

	built := punch.BuildAll(events, h.Options.Punch)
	resp := SessionsResponse{Period: period, Sessions: []punch.WorkSession{}}
	for _, id := range sortedIDs(built) {
		resp.Sessions = append(resp.Sessions, punch.InPeriod(built[id], period)...)
	}
	resp.AnomalyCount = punch.AnomalyCount(resp.Sessions)
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// PAYMENT HANDLERS
// =============================================================================

// CreatePayment records a per-job contractor payment.
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequest
	if err := decode(r.Body, &req); err != nil {
		h.fail(w, r, "Invalid request body", err)
		return
	}
	ctx := r.Context()
	if _, err := h.Store.GetEmployee(ctx, generic.EmployeeID(req.EmployeeID)); err != nil {
		h.fail(w, r, "Unknown employee", err)
		return
	}

	date, _ := generic.ParseDate(req.Date)
	p := compensation.ManualPayment{
		ID:          h.newID(),
		EmployeeID:  generic.EmployeeID(req.EmployeeID),
		Date:        date,
		AmountCents: generic.Cents(req.AmountCents),
		Note:        req.Note,
	}
	if err := h.Store.SavePayment(ctx, p); err != nil {
		h.fail(w, r, "Failed to record payment", err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// CreatePayout records tips already paid out.
func (h *Handler) CreatePayout(w http.ResponseWriter, r *http.Request) {
	var req PayoutRequest
	if err := decode(r.Body, &req); err != nil {
		h.fail(w, r, "Invalid request body", err)
		return
	}
	ctx := r.Context()
	if _, err := h.Store.GetEmployee(ctx, generic.EmployeeID(req.EmployeeID)); err != nil {
		h.fail(w, r, "Unknown employee", err)
		return
	}

	date, _ := generic.ParseDate(req.Date)
	p := tippool.Payout{
		ID:          h.newID(),
		EmployeeID:  generic.EmployeeID(req.EmployeeID),
		Date:        date,
		AmountCents: generic.Cents(req.AmountCents),
	}
	if err := h.Store.SavePayout(ctx, p); err != nil {
		h.fail(w, r, "Failed to record payout", err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// =============================================================================
// TIP POOL HANDLERS
// =============================================================================

// CreatePool allocates a day's tips into a draft pool. Without explicit
// participants, eligible employees who worked that day take part.
func (h *Handler) CreatePool(w http.ResponseWriter, r *http.Request) {
	var req CreatePoolRequest
	if err := decode(r.Body, &req); err != nil {
		h.fail(w, r, "Invalid request body", err)
		return
	}
	ctx := r.Context()
	day, _ := generic.ParseDate(req.Date)

	var participants []tippool.Participant
	if len(req.Participants) > 0 {
		for _, p := range req.Participants {
			if _, err := h.Store.GetEmployee(ctx, generic.EmployeeID(p.EmployeeID)); err != nil {
				h.fail(w, r, "Unknown participant", err)
				return
			}
			weight := decimal.NewFromInt(1)
			if p.RoleWeight != "" {
				weight, _ = decimal.NewFromString(p.RoleWeight)
			}
			participants = append(participants, tippool.Participant{
				EmployeeID:    generic.EmployeeID(p.EmployeeID),
				WorkedMinutes: p.WorkedMinutes,
				RoleWeight:    weight,
			})
		}
	} else {
		derived, err := h.participantsFor(ctx, day)
		if err != nil {
			h.fail(w, r, "Failed to derive participants", err)
			return
		}
		participants = derived
	}

	pool, err := tippool.NewPool(generic.PoolID(h.newID()), day, generic.Cents(req.TotalCents), tippool.Method(req.Method), participants)
	if err != nil {
		h.fail(w, r, "Failed to allocate tips", err)
		return
	}
	if err := h.Store.SavePool(ctx, *pool); err != nil {
		h.fail(w, r, "Failed to save tip pool", err)
		return
	}
	writeJSON(w, http.StatusCreated, pool)
}

// GetPool returns a pool with its shares.
func (h *Handler) GetPool(w http.ResponseWriter, r *http.Request) {
	pool, err := h.Store.GetPool(r.Context(), generic.PoolID(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, r, "Failed to get tip pool", err)
		return
	}
	writeJSON(w, http.StatusOK, pool)
}

// OverrideShare pins a participant's amount and redistributes the rest.
func (h *Handler) OverrideShare(w http.ResponseWriter, r *http.Request) {
	var req OverrideShareRequest
	if err := decode(r.Body, &req); err != nil {
		h.fail(w, r, "Invalid request body", err)
		return
	}
	employee := generic.EmployeeID(chi.URLParam(r, "employeeID"))
	h.updatePool(w, r, func(p *tippool.Pool) error {
		return p.Override(employee, generic.Cents(*req.AmountCents))
	})
}

// UnlockShare drops an override and redistributes.
func (h *Handler) UnlockShare(w http.ResponseWriter, r *http.Request) {
	employee := generic.EmployeeID(chi.URLParam(r, "employeeID"))
	h.updatePool(w, r, func(p *tippool.Pool) error {
		return p.Unlock(employee)
	})
}

// ApprovePool makes a draft pool count toward payroll.
func (h *Handler) ApprovePool(w http.ResponseWriter, r *http.Request) {
	h.updatePool(w, r, (*tippool.Pool).Approve)
}

// DiscardPool abandons a draft pool.
func (h *Handler) DiscardPool(w http.ResponseWriter, r *http.Request) {
	h.updatePool(w, r, (*tippool.Pool).Discard)
}

func (h *Handler) updatePool(w http.ResponseWriter, r *http.Request, change func(*tippool.Pool) error) {
	ctx := r.Context()
	pool, err := h.Store.GetPool(ctx, generic.PoolID(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, r, "Failed to get tip pool", err)
		return
	}
	if err := change(&pool); err != nil {
		h.fail(w, r, "Tip pool change rejected", err)
		return
	}
	if err := h.Store.SavePool(ctx, pool); err != nil {
		h.fail(w, r, "Failed to save tip pool", err)
		return
	}
	writeJSON(w, http.StatusOK, pool)
}

func (h *Handler) participantsFor(ctx context.Context, day generic.TimePoint) ([]tippool.Participant, error) {
	employees, err := h.Store.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}
	events, err := h.punches(ctx, "", generic.Period{Start: day, End: day})
	if err != nil {
		return nil, err
	}
	sessions := punch.BuildAll(events, h.Options.Punch)
	return tippool.ParticipantsFromSessions(employees, sessions, day, h.Options.RoleWeights), nil
}

// =============================================================================
// PAYROLL AND LABOR COST
// =============================================================================

// Payroll computes the payroll report for a period.
// GET /api/payroll?start=2025-03-01&end=2025-03-15&format=json|csv|xlsx
func (h *Handler) Payroll(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r)
	if err != nil {
		h.fail(w, r, "Invalid period", err)
		return
	}
	format := r.URL.Query().Get("format")
	switch format {
	case "", "json", "csv", "xlsx":
	default:
		h.fail(w, r, "Invalid format", fmt.Errorf("%w: format must be json, csv or xlsx", generic.ErrInvalidInput))
		return
	}

	ctx := r.Context()
	in, err := h.snapshot(ctx, period)
	if err != nil {
		h.fail(w, r, "Failed to load payroll inputs", err)
		return
	}
	report, err := payroll.Aggregate(in, payroll.Options{Punch: h.Options.Punch, Compensation: h.Options.Compensation})
	if err != nil {
		h.fail(w, r, "Failed to compute payroll", err)
		return
	}
	for _, e := range report.Errors {
		h.Logger.WarnContext(ctx, "payroll row has configuration error",
			slog.String("employee_id", string(e.EmployeeID)),
			slog.String("field", e.Field),
			slog.String("error", e.Message),
		)
	}

	if format == "" || format == "json" {
		writeJSON(w, http.StatusOK, report)
		return
	}

	var buf bytes.Buffer
	contentType := "text/csv"
	if format == "xlsx" {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		err = payroll.WriteXLSX(&buf, report)
	} else {
		err = payroll.WriteCSV(&buf, report)
	}
	if err != nil {
		h.fail(w, r, "Failed to export payroll", err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="payroll_%s_%s.%s"`, period.Start, period.End, format))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.Logger.ErrorContext(ctx, "failed to write payroll export",
			slog.String("format", format),
			slog.String("error", err.Error()),
		)
	}
}

// ActualLaborCost attributes the cost of worked sessions to days.
// GET /api/labor-cost/actual?start=&end=
func (h *Handler) ActualLaborCost(w http.ResponseWriter, r *http.Request) {
	period, err := parsePeriod(r)
	if err != nil {
		h.fail(w, r, "Invalid period", err)
		return
	}
	in, err := h.snapshot(r.Context(), period)
	if err != nil {
		h.fail(w, r, "Failed to load labor cost inputs", err)
		return
	}

	sessions := punch.BuildAll(in.Punches, h.Options.Punch)
	breakdown, err := laborcost.Actual(in.Employees, sessions, in.Payments, period, h.laborOptions())
	if err != nil {
		h.fail(w, r, "Failed to compute labor cost", err)
		return
	}
	writeJSON(w, http.StatusOK, breakdown)
}

// ScheduledLaborCost attributes the cost of planned shifts to days.
// POST /api/labor-cost/scheduled
func (h *Handler) ScheduledLaborCost(w http.ResponseWriter, r *http.Request) {
	var req ScheduledCostRequest
	if err := decode(r.Body, &req); err != nil {
		h.fail(w, r, "Invalid request body", err)
		return
	}
	start, _ := generic.ParseDate(req.Start)
	end, _ := generic.ParseDate(req.End)
	period := generic.Period{Start: start, End: end}
	if err := period.Validate(); err != nil {
		h.fail(w, r, "Invalid period", err)
		return
	}

	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to list employees", err)
		return
	}
	shifts := make([]laborcost.Shift, len(req.Shifts))
	for i, s := range req.Shifts {
		shifts[i] = laborcost.Shift{EmployeeID: generic.EmployeeID(s.EmployeeID), Start: s.Start, End: s.End}
	}

	breakdown, err := laborcost.Scheduled(employees, shifts, period, h.laborOptions())
	if err != nil {
		h.fail(w, r, "Failed to compute labor cost", err)
		return
	}
	writeJSON(w, http.StatusOK, breakdown)
}

func (h *Handler) laborOptions() laborcost.Options {
	return laborcost.Options{Punch: h.Options.Punch, Compensation: h.Options.Compensation}
}

// =============================================================================
// SNAPSHOT LOADING
// =============================================================================

// snapshot loads everything a payroll or labor-cost run reads for a period.
func (h *Handler) snapshot(ctx context.Context, period generic.Period) (payroll.Input, error) {
	in := payroll.Input{Period: period}
	var err error
	if in.Employees, err = h.Store.ListEmployees(ctx); err != nil {
		return in, err
	}
	if in.Punches, err = h.punches(ctx, "", period); err != nil {
		return in, err
	}
	if in.Payments, err = h.Store.ListPayments(ctx, period); err != nil {
		return in, err
	}
	if in.Payouts, err = h.Store.ListPayouts(ctx, period); err != nil {
		return in, err
	}
	if in.Pools, err = h.Store.ListPools(ctx, period); err != nil {
		return in, err
	}
	return in, nil
}

// punches lists the live punches that can form sessions dated in the period.
func (h *Handler) punches(ctx context.Context, employee generic.EmployeeID, period generic.Period) ([]punch.Event, error) {
	from, to := store.WindowFor(period, h.Options.Punch.Location)
	return h.Store.ListPunches(ctx, store.PunchFilter{EmployeeID: employee, From: from, To: to})
}

// =============================================================================
// HELPERS
// =============================================================================

func parsePeriod(r *http.Request) (generic.Period, error) {
	q := r.URL.Query()
	start, err := generic.ParseDate(q.Get("start"))
	if err != nil {
		return generic.Period{}, fmt.Errorf("%w: start must be YYYY-MM-DD", generic.ErrInvalidInput)
	}
	end, err := generic.ParseDate(q.Get("end"))
	if err != nil {
		return generic.Period{}, fmt.Errorf("%w: end must be YYYY-MM-DD", generic.ErrInvalidInput)
	}
	period := generic.Period{Start: start, End: end}
	if err := period.Validate(); err != nil {
		return generic.Period{}, err
	}
	return period, nil
}

func sortedIDs[V any](m map[generic.EmployeeID]V) []generic.EmployeeID {
	ids := make([]generic.EmployeeID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case generic.IsNotFound(err):
		return http.StatusNotFound
	case generic.IsConflict(err), errors.Is(err, tippool.ErrPoolLocked):
		return http.StatusConflict
	case generic.IsClientError(err),
		errors.Is(err, tippool.ErrNegativeTotal),
		errors.Is(err, tippool.ErrNoParticipants),
		errors.Is(err, tippool.ErrZeroBasis),
		errors.Is(err, tippool.ErrUnknownMethod),
		errors.Is(err, tippool.ErrOverAllocated),
		errors.Is(err, tippool.ErrUnknownParticipant),
		errors.Is(err, tippool.ErrUnbalanced):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// fail writes err with the status it maps to. Internal errors are logged.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.Logger.ErrorContext(r.Context(), message, slog.String("error", err.Error()))
	}
	writeError(w, status, message, err)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
