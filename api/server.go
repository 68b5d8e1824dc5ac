/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Structured request logging (zap)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/wages/*          Stateless calculations under the active policy
  /api/policies/*       Policy management
  /api/calculations/*   Recorded calculations and PDF statements
  /api/contracts/*      Calculation history per contract
  /api/scenarios/*      Worked examples
  /healthz              Liveness and database check

SECURITY NOTE:
  No authentication middleware. Deploy behind a gateway that handles it.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/wageengine/serve.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

var defaultOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// NewRouter creates a new router with all routes configured. Empty
// allowedOrigins falls back to the local development origins.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = defaultOrigins
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Route("/wages", func(r chi.Router) {
			r.Post("/work-time", h.WorkTime)
			r.Post("/weekly-holiday-pay", h.WeeklyHolidayPay)
			r.Post("/monthly", h.MonthlyWage)
			r.Post("/estimate", h.Estimate)
			r.Post("/minimum-wage", h.MinimumWage)
		})

		r.Route("/policies", func(r chi.Router) {
			r.Get("/", h.ListPolicies)
			r.Post("/", h.CreatePolicy)
			r.Get("/active", h.GetActivePolicy)
			r.Post("/presets", h.InstallPresets)
			r.Get("/{id}", h.GetPolicy)
		})

		r.Route("/calculations", func(r chi.Router) {
			r.Post("/", h.CreateCalculation)
			r.Post("/batch", h.CreateCalculationBatch)
			r.Get("/{id}", h.GetCalculation)
			r.Get("/{id}/statement.pdf", h.GetStatement)
		})

		r.Get("/contracts/{id}/calculations", h.ListContractCalculations)

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/{name}", h.RunScenario)
		})
	})

	return r
}

// =============================================================================
// REQUEST LOGGING
// =============================================================================

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)

			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", recorder.status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
