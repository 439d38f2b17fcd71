package atc

import (
	"context"
	"fmt"
	"time"

	"vatpac/internal/geo"
	"vatpac/internal/models/entities"
)

// TransceiverSource is the narrow read surface the detector needs
// from the persistence layer -- satisfied by
// repositories.IngestRepo, kept as an interface so tests can supply
// an in-memory fake instead of standing up a database.
type TransceiverSource interface {
	ActiveControllerCallsignsSince(ctx context.Context, since interface{}) ([]string, error)
	TransceiversForCallsignsInWindow(ctx context.Context, callsigns []string, start, end interface{}) ([]entities.TransceiverSample, error)
	FlightTransceivers(ctx context.Context, callsign string, start, end interface{}) ([]entities.TransceiverSample, error)
	FlightTransceiversInWindow(ctx context.Context, start, end interface{}) ([]entities.TransceiverSample, error)
}

// Detector finds co-frequency contact between a flight and ATC
// positions over a window, per §4.8.
type Detector struct {
	source           TransceiverSource
	guardFrequencyHz int64
	matchWindow      time.Duration
}

// NewDetector builds a Detector. guardFrequencyHz is filtered out of
// matching at the application layer (the VATSIM guard channel, 122.800
// MHz); matchWindow is T_match (default 180s).
func NewDetector(source TransceiverSource, guardFrequencyHz int64, matchWindow time.Duration) *Detector {
	return &Detector{source: source, guardFrequencyHz: guardFrequencyHz, matchWindow: matchWindow}
}

// Match is one matched flight-transceiver sample against a specific
// controller, used by the Controller Summarizer's per-aircraft detail
// tracking as well as the Flight Summarizer's minute counting.
type Match struct {
	ControllerCallsign string
	FlightSampleTime   time.Time
}

// Result is the detector's output for one flight window: sample
// counts per matching controller callsign, ready for the summarizer
// to multiply by the poll interval to get minutes.
type Result struct {
	SampleCountsByController map[string]int
	Matches                  []Match
}

// Detect evaluates a flight's transceiver samples in [start, end]
// against ATC transceivers from controllers active in that window.
// It never joins the full transceivers table to the full controllers
// table; it pre-filters candidate callsigns first (step 1), then
// loads only their transceivers scoped to the window (step 2), then
// applies the frequency/time/distance criteria in memory (step 3).
func (d *Detector) Detect(ctx context.Context, flightCallsign string, start, end time.Time) (Result, error) {
	result := Result{SampleCountsByController: make(map[string]int)}

	flightTx, err := d.source.FlightTransceivers(ctx, flightCallsign, start, end)
	if err != nil {
		return result, fmt.Errorf("failed to load flight transceivers: %w", err)
	}
	if len(flightTx) == 0 {
		return result, nil
	}

	candidates, err := d.source.ActiveControllerCallsignsSince(ctx, start)
	if err != nil {
		return result, fmt.Errorf("failed to pre-filter candidate controllers: %w", err)
	}
	if len(candidates) == 0 {
		return result, nil
	}

	atcTx, err := d.source.TransceiversForCallsignsInWindow(ctx, candidates, start, end)
	if err != nil {
		return result, fmt.Errorf("failed to load candidate controller transceivers: %w", err)
	}
	if len(atcTx) == 0 {
		return result, nil
	}

	matchedSamples := make(map[time.Time]struct{})
	for _, f := range flightTx {
		if f.FrequencyHz == d.guardFrequencyHz {
			continue
		}
		for _, a := range atcTx {
			if a.FrequencyHz != f.FrequencyHz {
				continue
			}
			if a.FrequencyHz == d.guardFrequencyHz {
				continue
			}
			delta := f.IngestTime.Sub(a.IngestTime)
			if delta < 0 {
				delta = -delta
			}
			if delta > d.matchWindow {
				continue
			}
			ctype := Classify(a.Callsign)
			dist := geo.DistanceNM(geo.Point{Lat: f.Lat, Lon: f.Lon}, geo.Point{Lat: a.Lat, Lon: a.Lon})
			if dist > RangeNM(ctype) {
				continue
			}

			result.SampleCountsByController[a.Callsign]++
			result.Matches = append(result.Matches, Match{ControllerCallsign: a.Callsign, FlightSampleTime: f.IngestTime})
			matchedSamples[f.IngestTime] = struct{}{}
		}
	}

	return result, nil
}

// ControllerResult is the detector's output when run from the
// controller's perspective: which flight callsigns it plausibly
// handled, and the first/last matched sample time for each.
type ControllerResult struct {
	FlightFirstSeen map[string]time.Time
	FlightLastSeen  map[string]time.Time
	SampleTimes     map[string][]time.Time
}

// DetectForController runs the same §4.8 matching criteria from the
// controller's side of the relationship, for the Controller
// Summarizer's per-session aircraft enumeration: load this
// controller's own transceivers in the session window (a single
// known callsign, cheap), then the window's flight transceivers
// (bounded by the session duration, not the whole table), then match
// in memory. This mirrors the flight-centric Detect without ever
// joining the full tables.
func (d *Detector) DetectForController(ctx context.Context, controllerCallsign string, start, end time.Time) (ControllerResult, error) {
	result := ControllerResult{
		FlightFirstSeen: make(map[string]time.Time),
		FlightLastSeen:  make(map[string]time.Time),
		SampleTimes:     make(map[string][]time.Time),
	}

	atcTx, err := d.source.TransceiversForCallsignsInWindow(ctx, []string{controllerCallsign}, start, end)
	if err != nil {
		return result, fmt.Errorf("failed to load controller transceivers: %w", err)
	}
	if len(atcTx) == 0 {
		return result, nil
	}

	flightTx, err := d.source.FlightTransceiversInWindow(ctx, start, end)
	if err != nil {
		return result, fmt.Errorf("failed to load flight transceivers in window: %w", err)
	}

	ctype := Classify(controllerCallsign)
	rangeLimit := RangeNM(ctype)

	for _, f := range flightTx {
		if f.FrequencyHz == d.guardFrequencyHz {
			continue
		}
		for _, a := range atcTx {
			if a.FrequencyHz != f.FrequencyHz || a.FrequencyHz == d.guardFrequencyHz {
				continue
			}
			delta := f.IngestTime.Sub(a.IngestTime)
			if delta < 0 {
				delta = -delta
			}
			if delta > d.matchWindow {
				continue
			}
			if geo.DistanceNM(geo.Point{Lat: f.Lat, Lon: f.Lon}, geo.Point{Lat: a.Lat, Lon: a.Lon}) > rangeLimit {
				continue
			}

			if first, ok := result.FlightFirstSeen[f.Callsign]; !ok || f.IngestTime.Before(first) {
				result.FlightFirstSeen[f.Callsign] = f.IngestTime
			}
			if last, ok := result.FlightLastSeen[f.Callsign]; !ok || f.IngestTime.After(last) {
				result.FlightLastSeen[f.Callsign] = f.IngestTime
			}
			result.SampleTimes[f.Callsign] = append(result.SampleTimes[f.Callsign], f.IngestTime)
			break
		}
	}

	return result, nil
}

// TotalMatchedSamples returns the number of distinct flight-sample
// timestamps that matched at least one controller, used by the Flight
// Summarizer to compute controller_time_percentage's numerator
// without double counting a sample matched by more than one
// controller.
func (r Result) TotalMatchedSamples() int {
	seen := make(map[time.Time]struct{})
	for _, m := range r.Matches {
		seen[m.FlightSampleTime] = struct{}{}
	}
	return len(seen)
}
