package api

import (
	"net/http"
	"strconv"

	"vatpac/internal/db/repositories"
)

// FlightSummariesHandler handles GET /api/v1/summaries/flights, with
// filters ?callsign= and ?limit=.
func FlightSummariesHandler(repo *repositories.FlightSummaryRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callsign := r.URL.Query().Get("callsign")
		if callsign == "" {
			http.Error(w, "callsign is required", http.StatusBadRequest)
			return
		}
		limit := parseLimit(r.URL.Query().Get("limit"), 50)

		rows, err := repo.ByCallsignAndLogon(r.Context(), callsign, limit)
		writeJSONOrError(w, r, rows, err, "failed to query flight summaries")
	}
}

// ControllerSummariesHandler handles GET /api/v1/summaries/controllers,
// with filters ?callsign= and ?limit=.
func ControllerSummariesHandler(repo *repositories.ControllerSummaryRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callsign := r.URL.Query().Get("callsign")
		if callsign == "" {
			http.Error(w, "callsign is required", http.StatusBadRequest)
			return
		}
		limit := parseLimit(r.URL.Query().Get("limit"), 50)

		rows, err := repo.ByCallsign(r.Context(), callsign, limit)
		writeJSONOrError(w, r, rows, err, "failed to query controller summaries")
	}
}

func parseLimit(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
