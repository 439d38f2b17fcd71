// Package api exposes the read-only HTTP/JSON surface the spec treats
// as an external collaborator (§6): system status, live tables, and
// summary queries, mirrored on the teacher's api.HealthCheckHandler
// closures-over-dependencies style.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"gorm.io/gorm"

	"vatpac/internal/ingest"
	"vatpac/internal/models/entities"
)

// HealthCheckHandler handles GET /healthCheck, reporting database
// connectivity and ingestion freshness alongside the teacher's
// service-status shape.
func HealthCheckHandler(sqlDB *sqlx.DB, gormDB *gorm.DB, runner *ingest.Runner, upSince time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := make(map[string]entities.ServiceStatus)

		pgStatus, pgDetails := "ok", "postgres connected"
		if err := sqlDB.PingContext(r.Context()); err != nil {
			pgStatus, pgDetails = "down", err.Error()
		}
		services["postgres"] = entities.ServiceStatus{Status: pgStatus, Details: pgDetails}

		gormStatus, gormDetails := "ok", "gorm connected"
		if sqlGorm, err := gormDB.DB(); err != nil || sqlGorm.PingContext(r.Context()) != nil {
			gormStatus, gormDetails = "down", "gorm connection unavailable"
		}
		services["gorm"] = entities.ServiceStatus{Status: gormStatus, Details: gormDetails}

		overall := "ok"
		for _, svc := range services {
			if svc.Status != "ok" {
				overall = "down"
				break
			}
		}

		now := time.Now()
		resp := entities.HealthCheckResponse{
			Status:   overall,
			Services: services,
			UpSince:  upSince,
			Uptime:   now.Sub(upSince).Round(time.Second).String(),
		}

		if lastIngest := runner.LastIngestTime(); lastIngest != nil {
			resp.LastIngestedAt = lastIngest
			resp.LiveFreshness = now.Sub(*lastIngest).Round(time.Second).String()
		} else {
			resp.LiveFreshness = "no tick completed yet"
		}

		w.Header().Set("Content-Type", "application/json")
		if overall != "ok" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
