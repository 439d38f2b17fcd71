package summary

import (
	"context"
	"time"

	"vatpac/internal/db/repositories"
	"vatpac/internal/logging"
)

// FlightSummaryJob scans for flights whose inactivity exceeds
// T_complete and summarizes each independently, continuing past
// per-flight failures the way the teacher's queue workers do.
type FlightSummaryJob struct {
	ingestRepo    *repositories.IngestRepo
	summarizer    *FlightSummarizer
	completeAfter time.Duration
}

// NewFlightSummaryJob wires a FlightSummaryJob.
func NewFlightSummaryJob(ingestRepo *repositories.IngestRepo, summarizer *FlightSummarizer, completeAfter time.Duration) *FlightSummaryJob {
	return &FlightSummaryJob{ingestRepo: ingestRepo, summarizer: summarizer, completeAfter: completeAfter}
}

// Run is the scheduler entrypoint: find stale flights, summarize each.
func (j *FlightSummaryJob) Run(ctx context.Context) error {
	cutoff := time.Now().Add(-j.completeAfter)
	rows, err := j.ingestRepo.StaleFlights(ctx, cutoff)
	if err != nil {
		return err
	}

	for _, row := range rows {
		flight := EligibleFlight{
			Key: row.Key(),
			PilotName:       row.PilotName,
			AircraftType:    row.AircraftShort,
			AircraftFAA:     row.AircraftFAA,
			AircraftShort:   row.AircraftShort,
			FlightRules:     row.FlightRules,
			PlannedAltitude: row.PlannedAltitude,
			Route:           row.Route,
			DepTime:         row.DepTime,
			LastSampleTime:  row.UpstreamLastUpdated,
			GroundspeedSeries: []GroundspeedSample{
				{Time: row.UpstreamLastUpdated, GroundspeedKt: row.GroundspeedKt},
			},
			LastPosition: FlightPositionSample{
				Lat:           row.Lat,
				Lon:           row.Lon,
				AltitudeFt:    row.AltitudeFt,
				HeadingDeg:    row.HeadingDeg,
				GroundspeedKt: row.GroundspeedKt,
			},
		}
		if err := j.summarizer.SummarizeOne(ctx, flight); err != nil {
			logging.Error("flight summary job: failed on one flight, continuing", "callsign", row.Callsign, "error", err)
		}
	}
	return nil
}

// ControllerSummaryJob scans for controllers whose live row has not
// been updated within completeAfter, closes their open sessions, and
// summarizes any session the tracker considers complete.
type ControllerSummaryJob struct {
	ingestRepo       *repositories.IngestRepo
	summarizer       *ControllerSummarizer
	tracker          *SessionTracker
	mergeWindow      time.Duration
	completeAfter    time.Duration
}

// NewControllerSummaryJob wires a ControllerSummaryJob.
func NewControllerSummaryJob(ingestRepo *repositories.IngestRepo, summarizer *ControllerSummarizer, tracker *SessionTracker, mergeWindow, completeAfter time.Duration) *ControllerSummaryJob {
	return &ControllerSummaryJob{
		ingestRepo:    ingestRepo,
		summarizer:    summarizer,
		tracker:       tracker,
		mergeWindow:   mergeWindow,
		completeAfter: completeAfter,
	}
}

// Observe feeds one poll's live controller rows into the session
// tracker; call this from the ingest tick, not the summary job itself,
// so sessions are tracked at poll granularity.
func (j *ControllerSummaryJob) Observe(callsign string, cid int64, at time.Time) {
	j.tracker.Observe(callsign, cid, at)
}

// Run is the scheduler entrypoint: close any controller session whose
// live row has gone stale, then summarize every session the tracker
// now considers eligible.
func (j *ControllerSummaryJob) Run(ctx context.Context) error {
	now := time.Now()
	cutoff := now.Add(-j.completeAfter)

	staleRows, err := j.ingestRepo.StaleControllers(ctx, cutoff)
	if err != nil {
		return err
	}

	meta := make(map[string]ControllerMeta, len(staleRows))
	frequency := make(map[string]string, len(staleRows))
	for _, row := range staleRows {
		j.tracker.Close(row.Callsign, row.CID)
		meta[row.Callsign] = ControllerMeta{Name: row.Name, Rating: row.Rating, Facility: row.Facility, Server: row.Server}
		frequency[row.Callsign] = row.Frequency
	}

	eligible := j.tracker.EligibleSessions(now, j.mergeWindow, j.completeAfter)
	for _, session := range eligible {
		m := meta[session.Callsign]
		f := frequency[session.Callsign]
		if err := j.summarizer.SummarizeOne(ctx, session, m, f); err != nil {
			logging.Error("controller summary job: failed on one session, continuing", "callsign", session.Callsign, "error", err)
		}
	}
	return nil
}
