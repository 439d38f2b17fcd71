// Package summary implements the Flight Summarizer and Controller
// Summarizer (§4.10, §4.11), grounded on the teacher's
// PirepQueueWorker "continue past per-item failures, process each
// independently in its own transaction" loop shape.
package summary

import (
	"context"
	"math"
	"time"

	"vatpac/internal/atc"
	"vatpac/internal/db/repositories"
	"vatpac/internal/logging"
	"vatpac/internal/metrics"
	"vatpac/internal/models/entities"
	gormModels "vatpac/internal/models/gorm"
	"vatpac/internal/sector"

	"gorm.io/gorm"
)

// EligibleFlight is the minimal shape the summarizer needs to decide
// whether a flight may be summarized and to build the summary row.
type EligibleFlight struct {
	Key               entities.FlightKey
	PilotName         string
	AircraftType      string
	AircraftFAA       string
	AircraftShort     string
	FlightRules       string
	PlannedAltitude   int
	Route             string
	DepTime           string
	LastSampleTime    time.Time
	GroundspeedSeries []GroundspeedSample

	// LastPosition is the flight's last-known live sample, copied into
	// flights_archive before the live row is deleted (§4.10 step 4).
	LastPosition FlightPositionSample
}

// FlightPositionSample is the position/attitude detail preserved in
// flights_archive once a flight is summarized.
type FlightPositionSample struct {
	Lat           float64
	Lon           float64
	AltitudeFt    int
	HeadingDeg    int
	GroundspeedKt int
}

// GroundspeedSample pairs a timestamp with the groundspeed observed
// at that time, used for the airborne-time computation.
type GroundspeedSample struct {
	Time          time.Time
	GroundspeedKt int
}

// FlightSummarizer aggregates a completed flight's samples, sector
// rows, and ATC interactions into one FlightSummary row.
type FlightSummarizer struct {
	summaryRepo   *repositories.FlightSummaryRepo
	sectorRepo    *repositories.SectorOccupancyRepo
	ingestRepo    *repositories.IngestRepo
	detector      *atc.Detector
	engine        *sector.Engine
	met           *metrics.MetricsRegistry
	completeAfter time.Duration
	airborneKt    int
	pollInterval  time.Duration
}

// NewFlightSummarizer wires a FlightSummarizer from its collaborators.
// completeAfter is T_complete (default 14h); airborneKt is the
// airborne groundspeed threshold (default 50kt).
func NewFlightSummarizer(
	summaryRepo *repositories.FlightSummaryRepo,
	sectorRepo *repositories.SectorOccupancyRepo,
	ingestRepo *repositories.IngestRepo,
	detector *atc.Detector,
	engine *sector.Engine,
	met *metrics.MetricsRegistry,
	completeAfter time.Duration,
	airborneKt int,
	pollInterval time.Duration,
) *FlightSummarizer {
	return &FlightSummarizer{
		summaryRepo:   summaryRepo,
		sectorRepo:    sectorRepo,
		ingestRepo:    ingestRepo,
		detector:      detector,
		engine:        engine,
		met:           met,
		completeAfter: completeAfter,
		airborneKt:    airborneKt,
		pollInterval:  pollInterval,
	}
}

// IsEligible reports whether a flight's inactivity exceeds T_complete.
func (f *FlightSummarizer) IsEligible(now time.Time, lastSampleTime time.Time) bool {
	return now.Sub(lastSampleTime) >= f.completeAfter
}

// SummarizeOne processes a single eligible flight: runs the detector,
// computes every derived field, and writes the summary + archive rows
// and deletes the flight's sector rows in one transaction. The live
// flights row is deleted after that commit, outside the transaction;
// a failed delete is logged and not returned. Other errors are logged
// and returned; the caller continues to the next flight regardless.
func (f *FlightSummarizer) SummarizeOne(ctx context.Context, flight EligibleFlight) error {
	start := time.Now()
	defer func() {
		if f.met != nil {
			f.met.SummaryJobDuration.WithLabelValues("flight_summarizer").Observe(time.Since(start).Seconds())
		}
	}()

	detectorResult, err := f.detector.Detect(ctx, flight.Key.Callsign, flight.Key.LogonTime, flight.LastSampleTime)
	if err != nil {
		logging.Error("flight summarizer: detector failed", "callsign", flight.Key.Callsign, "error", err)
		return err
	}

	sectorRows, err := f.sectorRepo.ForFlight(ctx, flight.Key.Callsign, flight.Key.CID, flight.Key.LogonTime)
	if err != nil {
		logging.Error("flight summarizer: failed to load sector rows", "callsign", flight.Key.Callsign, "error", err)
		return err
	}

	timeOnlineMinutes := flight.LastSampleTime.Sub(flight.Key.LogonTime).Minutes()
	if timeOnlineMinutes < 0 {
		timeOnlineMinutes = 0
	}

	controllerMinutes := make(gormModels.MinutesByKey, len(detectorResult.SampleCountsByController))
	pollMinutes := f.pollInterval.Minutes()
	for callsign, count := range detectorResult.SampleCountsByController {
		controllerMinutes[callsign] = float64(count) * pollMinutes
	}

	var controllerPct *float64
	if timeOnlineMinutes > 0 {
		matched := float64(detectorResult.TotalMatchedSamples()) * pollMinutes
		pct := math.Min(100, 100*matched/timeOnlineMinutes)
		controllerPct = &pct
	}

	airborneTotal, airborneMatched := airborneMinutes(flight.GroundspeedSeries, f.airborneKt, pollMinutes, detectorResult)
	var airbornePct *float64
	if airborneTotal > 0 {
		pct := math.Min(100, 100*airborneMatched/airborneTotal)
		airbornePct = &pct
	}

	sectorBreakdown := make(gormModels.MinutesByKey)
	for _, row := range sectorRows {
		minutes := sectorDurationMinutes(row, flight.LastSampleTime)
		sectorBreakdown[row.Sector] += minutes
	}

	primarySector, totalEnrouteSectors, totalEnrouteMinutes := enrouteBreakdown(sectorBreakdown)

	summaryRow := &gormModels.FlightSummary{
		Callsign:                         flight.Key.Callsign,
		CID:                              flight.Key.CID,
		LogonTime:                        flight.Key.LogonTime,
		Departure:                        flight.Key.Departure,
		Arrival:                          flight.Key.Arrival,
		AircraftType:                     flight.AircraftType,
		AircraftFAA:                      flight.AircraftFAA,
		AircraftShort:                    flight.AircraftShort,
		FlightRules:                      flight.FlightRules,
		PlannedAltitude:                  flight.PlannedAltitude,
		Route:                            flight.Route,
		DepTime:                          flight.DepTime,
		TimeOnlineMinutes:                timeOnlineMinutes,
		ControllerCallsigns:              controllerMinutes,
		ControllerTimePercentage:         controllerPct,
		AirborneControllerTimePercentage: airbornePct,
		PrimaryEnrouteSector:             primarySector,
		TotalEnrouteSectors:              totalEnrouteSectors,
		TotalEnrouteTimeMinutes:          totalEnrouteMinutes,
		SectorBreakdown:                  sectorBreakdown,
		CompletionTime:                   flight.LastSampleTime,
	}

	archiveRow := &gormModels.FlightArchive{
		Callsign:      flight.Key.Callsign,
		CID:           flight.Key.CID,
		LogonTime:     flight.Key.LogonTime,
		Lat:           flight.LastPosition.Lat,
		Lon:           flight.LastPosition.Lon,
		AltitudeFt:    flight.LastPosition.AltitudeFt,
		HeadingDeg:    flight.LastPosition.HeadingDeg,
		GroundspeedKt: flight.LastPosition.GroundspeedKt,
		SampleTime:    flight.LastSampleTime,
	}

	err = f.summaryRepo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := f.summaryRepo.Insert(ctx, tx, summaryRow); err != nil {
			return err
		}
		if err := f.summaryRepo.InsertArchiveRow(ctx, tx, archiveRow); err != nil {
			return err
		}
		if err := f.sectorRepo.DeleteForFlight(ctx, tx, flight.Key.Callsign, flight.Key.CID, flight.Key.LogonTime); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		logging.Error("flight summarizer: transaction failed, flight remains eligible", "callsign", flight.Key.Callsign, "error", err)
		return err
	}

	if f.ingestRepo != nil {
		if err := f.ingestRepo.DeleteFlight(ctx, flight.Key.Callsign, flight.Key.LogonTime); err != nil {
			logging.Error("flight summarizer: failed to delete live flight row after commit", "callsign", flight.Key.Callsign, "error", err)
		}
	}
	if f.engine != nil {
		f.engine.Forget(flight.Key)
	}
	if f.met != nil {
		f.met.FlightsSummarized.Inc()
	}
	return nil
}

func sectorDurationMinutes(row gormModels.SectorOccupancy, fallbackExit time.Time) float64 {
	exit := fallbackExit
	if row.ExitTime != nil {
		exit = *row.ExitTime
	}
	d := exit.Sub(row.EntryTime).Minutes()
	if d < 0 {
		return 0
	}
	return d
}

func enrouteBreakdown(sectorBreakdown gormModels.MinutesByKey) (primary string, total int, totalMinutes float64) {
	best := -1.0
	for name, minutes := range sectorBreakdown {
		if !atc.IsEnrouteSector(name) {
			continue
		}
		total++
		totalMinutes += minutes
		if minutes > best {
			best = minutes
			primary = name
		}
	}
	return primary, total, totalMinutes
}

func airborneMinutes(series []GroundspeedSample, thresholdKt int, pollMinutes float64, detectorResult atc.Result) (total float64, matched float64) {
	matchedTimes := make(map[time.Time]struct{}, len(detectorResult.Matches))
	for _, m := range detectorResult.Matches {
		matchedTimes[m.FlightSampleTime] = struct{}{}
	}
	for _, sample := range series {
		if sample.GroundspeedKt < thresholdKt {
			continue
		}
		total += pollMinutes
		if _, ok := matchedTimes[sample.Time]; ok {
			matched += pollMinutes
		}
	}
	return total, matched
}
