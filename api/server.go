/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:     Unique ID per request, forwarded upstream as X-Request-Id
  2. RequestLogger: httplog (slog, ECS schema), skipped when no logger is set
  3. Recoverer:     Panic recovery (500 instead of crash)
  4. Heartbeat:     GET /healthz liveness check
  5. CORS:          Cross-origin requests for frontends

ROUTE GROUPS:
  /api/payroll/payslips/*   Generation and payslip reads
  /api/payroll/bonuses/*    Bonus grants and reads

SECURITY NOTE:
  No authentication middleware. X-User-Id is trusted as sent, the caller
  is expected to sit behind a gateway that sets it.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/warp/payroll-engine/upstream"
)

// RouterOptions configures the ambient middleware.
type RouterOptions struct {
	// RequestLogger receives one record per request. Nil disables request logging.
	RequestLogger *slog.Logger

	// AllowedOrigins for CORS. Empty allows any origin.
	AllowedOrigins []string
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// Middleware
	r.Use(middleware.RequestID)
	if opts.RequestLogger != nil {
		r.Use(httplog.RequestLogger(opts.RequestLogger, &httplog.Options{
			Level:  slog.LevelInfo,
			Schema: httplog.SchemaECS,
		}))
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/healthz"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", upstream.HeaderUserID, upstream.HeaderRequestID},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Route not found", Code: CodeNotFound})
	})

	// API routes
	r.Route("/api/payroll", func(r chi.Router) {
		// Payslip routes
		r.Route("/payslips", func(r chi.Router) {
			r.Post("/generate", h.GeneratePayslip)
			r.Get("/employee/{employeeId}", h.ListPayslipsByEmployee)
			r.Get("/period/{payPeriod}", h.ListPayslipsByPeriod)
			r.Get("/{id}", h.GetPayslip)
			r.Get("/{id}/pdf", h.GetPayslipPDF)
		})

		// Bonus routes
		r.Route("/bonuses", func(r chi.Router) {
			r.Post("/", h.GrantBonus)
			r.Get("/employee/{employeeId}", h.ListBonusesByEmployee)
			r.Get("/{id}", h.GetBonus)
		})
	})

	return r
}
