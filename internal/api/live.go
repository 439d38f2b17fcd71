package api

import (
	"encoding/json"
	"net/http"

	"github.com/jmoiron/sqlx"

	"vatpac/internal/logging"
	"vatpac/internal/models/entities"
)

// LiveFlightsHandler handles GET /api/v1/live/flights, optionally
// filtered by ?callsign=.
func LiveFlightsHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var flights []entities.FlightSample
		var err error

		if callsign := r.URL.Query().Get("callsign"); callsign != "" {
			err = db.SelectContext(r.Context(), &flights, `SELECT * FROM flights WHERE callsign = $1`, callsign)
		} else {
			err = db.SelectContext(r.Context(), &flights, `SELECT * FROM flights ORDER BY upstream_last_updated DESC`)
		}
		writeJSONOrError(w, r, flights, err, "failed to query live flights")
	}
}

// LiveControllersHandler handles GET /api/v1/live/controllers,
// optionally filtered by ?facility=.
func LiveControllersHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var controllers []entities.ControllerSample
		var err error

		if facility := r.URL.Query().Get("facility"); facility != "" {
			err = db.SelectContext(r.Context(), &controllers, `SELECT * FROM controllers WHERE facility = $1`, facility)
		} else {
			err = db.SelectContext(r.Context(), &controllers, `SELECT * FROM controllers ORDER BY upstream_last_updated DESC`)
		}
		writeJSONOrError(w, r, controllers, err, "failed to query live controllers")
	}
}

// LiveTransceiversHandler handles GET /api/v1/live/transceivers,
// optionally filtered by ?callsign=.
func LiveTransceiversHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var transceivers []entities.TransceiverSample
		var err error

		if callsign := r.URL.Query().Get("callsign"); callsign != "" {
			err = db.SelectContext(r.Context(), &transceivers, `SELECT * FROM transceivers WHERE callsign = $1 ORDER BY ingest_time DESC`, callsign)
		} else {
			err = db.SelectContext(r.Context(), &transceivers, `SELECT * FROM transceivers ORDER BY ingest_time DESC LIMIT 1000`)
		}
		writeJSONOrError(w, r, transceivers, err, "failed to query live transceivers")
	}
}

func writeJSONOrError(w http.ResponseWriter, r *http.Request, payload interface{}, err error, logMsg string) {
	if err != nil {
		logging.Error(logMsg, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
