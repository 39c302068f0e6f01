/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Structured request logging (httplog, ECS schema)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the back-office frontend

ROUTE GROUPS:
  /api/employees/*   Directory and contract history
  /api/punches/*     Clock events
  /api/sessions      Reconstructed sessions
  /api/payments      Per-job payments
  /api/tip-payouts   Tips paid out
  /api/tip-pools/*   Daily tip pools
  /api/payroll       Period payroll and exports
  /api/labor-cost/*  Daily labor cost
  /api/scenarios/*   Demo data (resets the database)

SECURITY NOTE:
  No authentication middleware. Deploy behind the back-office gateway.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"io"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
)

// NewLogger returns a JSON slog logger whose keys follow the ECS schema used
// by the request logger.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(false)
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "pay-engine"),
	)
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(httplog.RequestLogger(h.Logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.Heartbeat("/health"))

	r.Route("/api", func(r chi.Router) {
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Post("/{id}/contracts", h.AddContract)
		})

		r.Route("/punches", func(r chi.Router) {
			r.Post("/", h.CreatePunch)
			r.Get("/normalized", h.NormalizedPunches)
			r.Put("/{id}", h.EditPunch)
			r.Delete("/{id}", h.DeletePunch)
		})
		r.Get("/sessions", h.Sessions)

		r.Post("/payments", h.CreatePayment)
		r.Post("/tip-payouts", h.CreatePayout)

		r.Route("/tip-pools", func(r chi.Router) {
			r.Post("/", h.CreatePool)
			r.Get("/{id}", h.GetPool)
			r.Put("/{id}/shares/{employeeID}", h.OverrideShare)
			r.Delete("/{id}/shares/{employeeID}", h.UnlockShare)
			r.Post("/{id}/approve", h.ApprovePool)
			r.Post("/{id}/discard", h.DiscardPool)
		})

		r.Get("/payroll", h.Payroll)

		r.Route("/labor-cost", func(r chi.Router) {
			r.Get("/actual", h.ActualLaborCost)
			r.Post("/scheduled", h.ScheduledLaborCost)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}
