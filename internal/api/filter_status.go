package api

import (
	"encoding/json"
	"net/http"

	"vatpac/internal/config"
)

// filterStatusResponse reports which entity filters are active, per
// §6's "filter-status introspection" read contract.
type filterStatusResponse struct {
	BoundaryFilterEnabled  bool `json:"boundary_filter_enabled"`
	FlightPlanValidationOn bool `json:"flight_plan_validation_on"`
	SectorTrackingEnabled  bool `json:"sector_tracking_enabled"`
	CallsignAllowlistSet   bool `json:"callsign_allowlist_set"`
}

// FilterStatusHandler handles GET /api/v1/filter-status.
func FilterStatusHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := filterStatusResponse{
			BoundaryFilterEnabled:  cfg.EnableBoundaryFilter,
			FlightPlanValidationOn: cfg.FlightPlanValidationOn,
			SectorTrackingEnabled:  cfg.SectorTrackingEnabled,
			CallsignAllowlistSet:   cfg.CallsignAllowlist != "",
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
