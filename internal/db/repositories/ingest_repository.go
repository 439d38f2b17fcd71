// Package repositories adapts the teacher's gorm.io/gorm repository
// idiom (NewXRepo(db), one type per table, Upsert/UpsertBatch methods)
// to this pipeline's tables, plus the raw-sqlx repository the
// ingest hot path needs for transaction control the GORM layer
// doesn't expose as cleanly.
package repositories

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"vatpac/internal/models/entities"
)

// IngestRepo owns the one-transaction-per-tick batched writes into
// flights, controllers, and transceivers, per §4.6. It uses sqlx
// directly (rather than GORM) because the ingest path needs explicit
// control over the single transaction spanning all three tables.
type IngestRepo struct {
	db *sqlx.DB
}

// NewIngestRepo builds an IngestRepo around a pooled sqlx connection.
func NewIngestRepo(db *sqlx.DB) *IngestRepo {
	return &IngestRepo{db: db}
}

// WriteTick persists one tick's accepted flights, controllers, and all
// transceivers in a single transaction. If any statement fails the
// whole tick is rolled back and no partial state is visible.
func (r *IngestRepo) WriteTick(ctx context.Context, flights []entities.FlightSample, controllers []entities.ControllerSample, transceivers []entities.TransceiverSample) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin ingest transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := upsertFlights(ctx, tx, flights); err != nil {
		return fmt.Errorf("failed to upsert flights: %w", err)
	}
	if err := upsertControllers(ctx, tx, controllers); err != nil {
		return fmt.Errorf("failed to upsert controllers: %w", err)
	}
	if err := insertTransceivers(ctx, tx, transceivers); err != nil {
		return fmt.Errorf("failed to insert transceivers: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ingest transaction: %w", err)
	}
	return nil
}

const upsertFlightSQL = `
INSERT INTO flights (
	callsign, cid, pilot_name, server, has_position, latitude, longitude,
	altitude_ft, heading_deg, groundspeed_kt, transponder,
	departure, arrival, alternate, route, flight_rules, aircraft_faa,
	aircraft_short, planned_altitude, dep_time, enroute_time, fuel_time,
	remarks, revision_id, cruise_tas, assigned_transponder,
	qnh_in_hg, qnh_mb, logon_time, upstream_last_updated, ingest_time
) VALUES (
	:callsign, :cid, :pilot_name, :server, :has_position, :latitude, :longitude,
	:altitude_ft, :heading_deg, :groundspeed_kt, :transponder,
	:departure, :arrival, :alternate, :route, :flight_rules, :aircraft_faa,
	:aircraft_short, :planned_altitude, :dep_time, :enroute_time, :fuel_time,
	:remarks, :revision_id, :cruise_tas, :assigned_transponder,
	:qnh_in_hg, :qnh_mb, :logon_time, :upstream_last_updated, :ingest_time
)
ON CONFLICT (callsign, logon_time) DO UPDATE SET
	pilot_name = EXCLUDED.pilot_name,
	server = EXCLUDED.server,
	has_position = EXCLUDED.has_position,
	latitude = EXCLUDED.latitude,
	longitude = EXCLUDED.longitude,
	altitude_ft = EXCLUDED.altitude_ft,
	heading_deg = EXCLUDED.heading_deg,
	groundspeed_kt = EXCLUDED.groundspeed_kt,
	transponder = EXCLUDED.transponder,
	departure = EXCLUDED.departure,
	arrival = EXCLUDED.arrival,
	alternate = EXCLUDED.alternate,
	route = EXCLUDED.route,
	flight_rules = EXCLUDED.flight_rules,
	aircraft_faa = EXCLUDED.aircraft_faa,
	aircraft_short = EXCLUDED.aircraft_short,
	planned_altitude = EXCLUDED.planned_altitude,
	dep_time = EXCLUDED.dep_time,
	enroute_time = EXCLUDED.enroute_time,
	fuel_time = EXCLUDED.fuel_time,
	remarks = EXCLUDED.remarks,
	revision_id = EXCLUDED.revision_id,
	cruise_tas = EXCLUDED.cruise_tas,
	assigned_transponder = EXCLUDED.assigned_transponder,
	qnh_in_hg = EXCLUDED.qnh_in_hg,
	qnh_mb = EXCLUDED.qnh_mb,
	upstream_last_updated = EXCLUDED.upstream_last_updated,
	ingest_time = EXCLUDED.ingest_time
`

func upsertFlights(ctx context.Context, tx *sqlx.Tx, flights []entities.FlightSample) error {
	if len(flights) == 0 {
		return nil
	}
	for _, f := range flights {
		if _, err := tx.NamedExecContext(ctx, upsertFlightSQL, f); err != nil {
			return err
		}
	}
	return nil
}

const upsertControllerSQL = `
INSERT INTO controllers (
	callsign, cid, name, rating, facility, visual_range, text_atis,
	frequency, server, logon_time, upstream_last_updated, ingest_time
) VALUES (
	:callsign, :cid, :name, :rating, :facility, :visual_range, :text_atis,
	:frequency, :server, :logon_time, :upstream_last_updated, :ingest_time
)
ON CONFLICT (callsign) DO UPDATE SET
	name = EXCLUDED.name,
	rating = EXCLUDED.rating,
	facility = EXCLUDED.facility,
	visual_range = EXCLUDED.visual_range,
	text_atis = EXCLUDED.text_atis,
	frequency = EXCLUDED.frequency,
	server = EXCLUDED.server,
	upstream_last_updated = EXCLUDED.upstream_last_updated,
	ingest_time = EXCLUDED.ingest_time
`

func upsertControllers(ctx context.Context, tx *sqlx.Tx, controllers []entities.ControllerSample) error {
	if len(controllers) == 0 {
		return nil
	}
	for _, c := range controllers {
		if _, err := tx.NamedExecContext(ctx, upsertControllerSQL, c); err != nil {
			return err
		}
	}
	return nil
}

const insertTransceiverSQL = `
INSERT INTO transceivers (
	callsign, transceiver_id, frequency_hz, latitude, longitude,
	height_msl_m, height_agl_m, entity_type, ingest_time
) VALUES (
	:callsign, :transceiver_id, :frequency_hz, :latitude, :longitude,
	:height_msl_m, :height_agl_m, :entity_type, :ingest_time
)
`

// insertTransceivers appends all rows in batches, grounded on the
// teacher's CreateInBatches idiom (here expressed as chunked
// NamedExec calls since sqlx has no native batch-insert helper).
func insertTransceivers(ctx context.Context, tx *sqlx.Tx, transceivers []entities.TransceiverSample) error {
	const batchSize = 500
	for start := 0; start < len(transceivers); start += batchSize {
		end := start + batchSize
		if end > len(transceivers) {
			end = len(transceivers)
		}
		batch := transceivers[start:end]
		if len(batch) == 0 {
			continue
		}
		if _, err := tx.NamedExecContext(ctx, insertTransceiverSQL, batch); err != nil {
			return err
		}
	}
	return nil
}

// ActiveFlightCallsigns returns every distinct live flight callsign,
// used by the sweeper and summarizer eligibility scans.
func (r *IngestRepo) ActiveFlightCallsigns(ctx context.Context) ([]string, error) {
	var callsigns []string
	err := r.db.SelectContext(ctx, &callsigns, `SELECT DISTINCT callsign FROM flights`)
	return callsigns, err
}

// TransceiversForCallsignsInWindow loads transceiver samples for a
// restricted set of callsigns within [start, end], the second step of
// the detector's pre-filter/load design in §4.8.
func (r *IngestRepo) TransceiversForCallsignsInWindow(ctx context.Context, callsigns []string, start, end interface{}) ([]entities.TransceiverSample, error) {
	if len(callsigns) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`
		SELECT callsign, transceiver_id, frequency_hz, latitude, longitude,
		       height_msl_m, height_agl_m, entity_type, ingest_time
		FROM transceivers
		WHERE callsign IN (?) AND ingest_time BETWEEN ? AND ?
		ORDER BY ingest_time ASC
	`, callsigns, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to build transceiver window query: %w", err)
	}
	query = r.db.Rebind(query)

	var rows []entities.TransceiverSample
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to load transceivers in window: %w", err)
	}
	return rows, nil
}

// FlightTransceivers loads every transceiver sample owned by a single
// flight callsign within [start, end] -- the detector's first input.
func (r *IngestRepo) FlightTransceivers(ctx context.Context, callsign string, start, end interface{}) ([]entities.TransceiverSample, error) {
	var rows []entities.TransceiverSample
	err := r.db.SelectContext(ctx, &rows, `
		SELECT callsign, transceiver_id, frequency_hz, latitude, longitude,
		       height_msl_m, height_agl_m, entity_type, ingest_time
		FROM transceivers
		WHERE callsign = $1 AND entity_type = 'flight' AND ingest_time BETWEEN $2 AND $3
		ORDER BY ingest_time ASC
	`, callsign, start, end)
	return rows, err
}

// FlightTransceiversInWindow loads every flight-owned transceiver
// sample within [start, end], used by the Controller Summarizer's
// per-session aircraft enumeration (§4.11 step 1). The window is
// bounded by one controller session's duration, not the whole table.
func (r *IngestRepo) FlightTransceiversInWindow(ctx context.Context, start, end interface{}) ([]entities.TransceiverSample, error) {
	var rows []entities.TransceiverSample
	err := r.db.SelectContext(ctx, &rows, `
		SELECT callsign, transceiver_id, frequency_hz, latitude, longitude,
		       height_msl_m, height_agl_m, entity_type, ingest_time
		FROM transceivers
		WHERE entity_type = 'flight' AND ingest_time BETWEEN $1 AND $2
		ORDER BY ingest_time ASC
	`, start, end)
	return rows, err
}

// FlightByKey loads the single live flight row for a callsign+logon
// time, used by the sweeper and summarizers to read the last-known
// sample before archiving.
func (r *IngestRepo) FlightByKey(ctx context.Context, callsign string, logonTime interface{}) (*entities.FlightSample, error) {
	var f entities.FlightSample
	err := r.db.GetContext(ctx, &f, `
		SELECT * FROM flights WHERE callsign = $1 AND logon_time = $2
	`, callsign, logonTime)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// DeleteFlight removes the live flight row for a callsign+logon time,
// used by the Flight Summarizer once a FlightSummary has been written.
func (r *IngestRepo) DeleteFlight(ctx context.Context, callsign string, logonTime interface{}) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM flights WHERE callsign = $1 AND logon_time = $2`, callsign, logonTime)
	return err
}

// DeleteController removes the live controller row for a callsign,
// used by the Controller Summarizer once a ControllerSummary has been
// written.
func (r *IngestRepo) DeleteController(ctx context.Context, callsign string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM controllers WHERE callsign = $1`, callsign)
	return err
}

// StaleFlights returns every live flight row whose upstream_last_updated
// predates cutoff, the Flight Summarizer's eligibility scan.
func (r *IngestRepo) StaleFlights(ctx context.Context, cutoff interface{}) ([]entities.FlightSample, error) {
	var rows []entities.FlightSample
	err := r.db.SelectContext(ctx, &rows, `SELECT * FROM flights WHERE upstream_last_updated < $1`, cutoff)
	return rows, err
}

// StaleControllers returns every live controller row whose
// upstream_last_updated predates cutoff, the Controller Summarizer's
// eligibility scan.
func (r *IngestRepo) StaleControllers(ctx context.Context, cutoff interface{}) ([]entities.ControllerSample, error) {
	var rows []entities.ControllerSample
	err := r.db.SelectContext(ctx, &rows, `SELECT * FROM controllers WHERE upstream_last_updated < $1`, cutoff)
	return rows, err
}

// ActiveControllerCallsignsSince selects candidate controller
// callsigns per §4.8's pre-filter step: facility != 0 and last_updated
// >= t_start. This is the query the detector must not skip in favor
// of a full join.
func (r *IngestRepo) ActiveControllerCallsignsSince(ctx context.Context, since interface{}) ([]string, error) {
	var callsigns []string
	err := r.db.SelectContext(ctx, &callsigns, `
		SELECT DISTINCT callsign FROM controllers
		WHERE facility != 0 AND upstream_last_updated >= $1
	`, since)
	return callsigns, err
}
