// Package ingest turns one raw VATSIM snapshot into normalized
// samples, applies the boundary and flight-plan filters, and persists
// the result, mirroring the teacher's upsertPirep-style "extract field
// by field, coerce defensively, log and continue" normalization idiom
// from internal/workers/pirep_queue_worker.go.
package ingest

import (
	"strconv"
	"strings"
	"time"

	"vatpac/internal/logging"
	"vatpac/internal/models/entities"
	"vatpac/internal/vatsim"
)

// upstreamTimeLayout is the timestamp format VATSIM uses for
// logon_time/last_updated.
const upstreamTimeLayout = time.RFC3339

// Normalizer maps raw upstream records to canonical entities and
// stamps ingest time.
type Normalizer struct {
	now func() time.Time
}

// NewNormalizer builds a Normalizer using time.Now as the ingest-time
// source; tests substitute a fixed clock.
func NewNormalizer() *Normalizer {
	return &Normalizer{now: time.Now}
}

// NormalizedSnapshot is the output of one normalization pass: the
// three entity slices ready to hand to the Boundary/Flight-Plan
// filters and then the persistence layer.
type NormalizedSnapshot struct {
	Flights      []entities.FlightSample
	Controllers  []entities.ControllerSample
	Transceivers []entities.TransceiverSample
}

// Normalize converts one raw feed snapshot. Transceivers are split by
// owning callsign against the flight/controller callsign sets
// produced in this same pass; an owner not present in either set gets
// entity_type=unknown and its rows are dropped per §4.6.
func (n *Normalizer) Normalize(raw *vatsim.Snapshot) NormalizedSnapshot {
	ingestTime := n.now()

	flights := make([]entities.FlightSample, 0, len(raw.Pilots))
	flightCallsigns := make(map[string]struct{}, len(raw.Pilots))
	for _, p := range raw.Pilots {
		fs := n.normalizeFlight(p, ingestTime)
		flights = append(flights, fs)
		flightCallsigns[fs.Callsign] = struct{}{}
	}

	controllers := make([]entities.ControllerSample, 0, len(raw.Controllers))
	controllerCallsigns := make(map[string]struct{}, len(raw.Controllers))
	for _, c := range raw.Controllers {
		cs := n.normalizeController(c, ingestTime)
		controllers = append(controllers, cs)
		controllerCallsigns[cs.Callsign] = struct{}{}
	}

	transceivers := make([]entities.TransceiverSample, 0, len(raw.Transceivers))
	for _, t := range raw.Transceivers {
		entityType := entities.EntityUnknown
		if _, ok := flightCallsigns[t.Callsign]; ok {
			entityType = entities.EntityFlight
		} else if _, ok := controllerCallsigns[t.Callsign]; ok {
			entityType = entities.EntityATC
		}
		if entityType == entities.EntityUnknown {
			continue
		}
		for _, entry := range t.Transceivers {
			if entry.FrequencyHz <= 0 {
				logging.Warn("dropping transceiver with non-positive frequency", "callsign", t.Callsign, "frequency", entry.FrequencyHz)
				continue
			}
			transceivers = append(transceivers, entities.TransceiverSample{
				Callsign:      t.Callsign,
				TransceiverID: int(entry.ID),
				FrequencyHz:   entry.FrequencyHz,
				Lat:           entry.LatDeg,
				Lon:           entry.LonDeg,
				HeightMSLM:    entry.HeightMslM,
				HeightAGLM:    entry.HeightAglM,
				EntityType:    entityType,
				IngestTime:    ingestTime,
			})
		}
	}

	return NormalizedSnapshot{Flights: flights, Controllers: controllers, Transceivers: transceivers}
}

func (n *Normalizer) normalizeFlight(p vatsim.RawPilot, ingestTime time.Time) entities.FlightSample {
	fs := entities.FlightSample{
		Callsign:    strings.ToUpper(strings.TrimSpace(p.Callsign)),
		CID:         p.CID,
		PilotName:   p.Name,
		Server:      p.Server,
		Transponder: p.Transponder,
		IngestTime:  ingestTime,
	}

	if p.Latitude != nil && p.Longitude != nil {
		fs.HasPosition = true
		fs.Lat = *p.Latitude
		fs.Lon = *p.Longitude
	}
	if p.Altitude != nil {
		fs.AltitudeFt = *p.Altitude
	}
	if p.Groundspeed != nil {
		fs.GroundspeedKt = *p.Groundspeed
	}
	if p.Heading != nil {
		fs.HeadingDeg = *p.Heading
	}
	if p.QNHInHg != nil {
		fs.QNHInHg = *p.QNHInHg
	}
	if p.QNHMb != nil {
		fs.QNHMb = float64(*p.QNHMb)
	}

	fs.LogonTime = parseUpstreamTime(p.LogonTime, "logon_time", p.Callsign)
	fs.UpstreamLastUpdated = parseUpstreamTime(p.LastUpdated, "last_updated", p.Callsign)

	if p.FlightPlan != nil {
		fp := p.FlightPlan
		fs.Departure = strings.ToUpper(strings.TrimSpace(fp.Departure))
		fs.Arrival = strings.ToUpper(strings.TrimSpace(fp.Arrival))
		fs.Alternate = strings.ToUpper(strings.TrimSpace(fp.Alternate))
		fs.Route = fp.Route
		fs.FlightRules = strings.ToUpper(strings.TrimSpace(fp.FlightRules))
		fs.AircraftFAA = fp.AircraftFAA
		fs.AircraftShort = fp.AircraftShort
		fs.PlannedAltitude = coerceInt(fp.Altitude, "planned_altitude", p.Callsign)
		fs.DepTime = fp.DepTime
		fs.EnrouteTime = fp.EnrouteTime
		fs.FuelTime = fp.FuelTime
		fs.Remarks = fp.Remarks
		fs.CruiseTAS = coerceInt(fp.CruiseTAS, "cruise_tas", p.Callsign)
	}

	return fs
}

func (n *Normalizer) normalizeController(c vatsim.RawController, ingestTime time.Time) entities.ControllerSample {
	return entities.ControllerSample{
		Callsign:            strings.ToUpper(strings.TrimSpace(c.Callsign)),
		CID:                 c.CID,
		Name:                c.Name,
		Rating:              c.Rating,
		Facility:            c.Facility,
		VisualRange:         c.VisualRange,
		TextATIS:            strings.Join(c.TextATIS, "\n"),
		Frequency:           c.Frequency,
		Server:              c.Server,
		LogonTime:           parseUpstreamTime(c.LogonTime, "logon_time", c.Callsign),
		UpstreamLastUpdated: parseUpstreamTime(c.LastUpdated, "last_updated", c.Callsign),
		IngestTime:          ingestTime,
	}
}

// parseUpstreamTime coerces a timestamp string, logging and returning
// the zero time on failure rather than dropping the whole record --
// the spec only requires numeric-coercion warnings, but the same
// leniency applies naturally to timestamps.
func parseUpstreamTime(raw, field, callsign string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(upstreamTimeLayout, raw)
	if err != nil {
		logging.Warn("failed to parse upstream timestamp", "field", field, "callsign", callsign, "value", raw, "error", err)
		return time.Time{}
	}
	return t.UTC()
}

// coerceInt handles the upstream quirk of sometimes emitting numeric
// fields (like flight-plan altitude) as strings.
func coerceInt(raw, field, callsign string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		logging.Warn("failed to coerce numeric field", "field", field, "callsign", callsign, "value", raw, "error", err)
		return 0
	}
	return v
}
