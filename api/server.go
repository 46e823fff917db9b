/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/accounts/*       Accounts and balances
  /api/entries          Entries
  /api/transfers        Transfers
  /api/series/*         Recurring series
  /api/cards/*          Cards, purchases, payments, statements
  /api/plans            Installment preview
  /api/recurrences/*    Recurrence preview
  /api/projection/*     Projection and export
  /api/sessions/*       Simulation sessions
  /api/snapshots/*      Snapshot projection and seeding
  /api/reset            Database reset (dev only)
  /healthz              Liveness
  /metrics              Prometheus

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates a new router with all routes configured.
// An empty allowedOrigins allows every origin.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	InitMetrics()

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", h.ListAccounts)
			r.Post("/", h.CreateAccount)
			r.Get("/{id}", h.GetAccount)
			r.Get("/{id}/balance", h.GetBalance)
		})

		r.Get("/entries", h.ListEntries)
		r.Post("/entries", h.CreateEntry)
		r.Post("/transfers", h.CreateTransfer)
		r.Delete("/series/{id}", h.DeleteSeries)

		r.Route("/cards", func(r chi.Router) {
			r.Get("/", h.ListCards)
			r.Post("/", h.CreateCard)
			r.Get("/{id}", h.GetCard)
			r.Get("/{id}/statement", h.GetStatement)
			r.Post("/{id}/purchases", h.CreatePurchase)
			r.Delete("/{id}/purchases/{purchaseID}", h.CancelPurchase)
			r.Post("/{id}/payments", h.PayBill)
		})

		r.Post("/plans", h.PreviewPlan)
		r.Post("/recurrences/expand", h.PreviewRecurrence)

		r.Route("/projection", func(r chi.Router) {
			r.Get("/", h.GetProjection)
			r.Get("/export", h.ExportProjection)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", h.ListSessions)
			r.Post("/", h.OpenSession)
			r.Get("/{id}", h.GetSession)
			r.Delete("/{id}", h.ExitSession)
			r.Post("/{id}/entries", h.AddSessionEntry)
			r.Put("/{id}/entries/{entryID}", h.UpdateSessionEntry)
			r.Delete("/{id}/entries/{entryID}", h.RemoveSessionEntry)
		})

		r.Route("/snapshots", func(r chi.Router) {
			r.Post("/projection", h.ProjectSnapshot)
			r.Post("/load", h.LoadSnapshot)
		})

		r.Post("/reset", h.ResetDatabase)
	})

	return r
}
