// Package routes wires the Chi router the same way the teacher's
// routes.RegisterRoutes does: global middleware first, then route
// groups, built directly against this module's dependencies rather
// than the teacher's DI container (there is no auth/session layer in
// this domain).
package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"vatpac/internal/api"
	"vatpac/internal/config"
	"vatpac/internal/db/repositories"
	"vatpac/internal/ingest"
	"vatpac/internal/logging"
	"vatpac/internal/metrics"
	"vatpac/internal/middleware"
)

// Deps bundles everything the router needs to construct handlers.
type Deps struct {
	Config          *config.Config
	SQLDB           *sqlx.DB
	GormDB          *gorm.DB
	Metrics         *metrics.MetricsRegistry
	Runner          *ingest.Runner
	FlightSummaries *repositories.FlightSummaryRepo
	ControllerSummaries *repositories.ControllerSummaryRepo
	UpSince         time.Time
}

// New builds the full HTTP handler: CORS, request-ID, metrics, and
// rate-limiting middleware, then the read-only route surface.
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.MetricsMiddleware(d.Metrics))
	r.Use(middleware.RateLimitMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://localhost:*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	logging.Info("router initialized with metrics, request-id, and rate-limit middleware")

	r.Get("/healthCheck", api.HealthCheckHandler(d.SQLDB, d.GormDB, d.Runner, d.UpSince))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Get("/filter-status", api.FilterStatusHandler(d.Config))

		v1.Route("/live", func(live chi.Router) {
			live.Get("/flights", api.LiveFlightsHandler(d.SQLDB))
			live.Get("/controllers", api.LiveControllersHandler(d.SQLDB))
			live.Get("/transceivers", api.LiveTransceiversHandler(d.SQLDB))
		})

		v1.Route("/summaries", func(summaries chi.Router) {
			summaries.Get("/flights", api.FlightSummariesHandler(d.FlightSummaries))
			summaries.Get("/controllers", api.ControllerSummariesHandler(d.ControllerSummaries))
		})
	})

	return r
}
