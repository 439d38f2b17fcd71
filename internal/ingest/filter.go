package ingest

import (
	"vatpac/internal/geo"
	"vatpac/internal/models/entities"
	"vatpac/internal/refdata"
)

// FilterResult is the two-stage entity filter's verdict for one
// snapshot: accepted flights and controllers plus per-reason rejection
// counts, ready to feed straight into the metrics registry.
type FilterResult struct {
	AcceptedFlights     []entities.FlightSample
	AcceptedControllers []entities.ControllerSample
	Rejected            map[string]int
}

// Filter applies the Boundary Filter, then the Flight-Plan Validator,
// then (optionally) the controller-callsign allow-list, in the order
// the data-flow diagram specifies.
type Filter struct {
	boundary        *geo.BoundaryFilter
	boundaryEnabled bool
	validator       *FlightPlanValidator
	refdata         *refdata.Data
}

// NewFilter wires a Filter from its three collaborators.
// boundaryEnabled gates the Boundary Filter per ENABLE_BOUNDARY_FILTER;
// when false every flight passes regardless of position, mirroring
// FlightPlanValidator's own enabled/pass-through gate.
func NewFilter(boundary *geo.BoundaryFilter, boundaryEnabled bool, validator *FlightPlanValidator, rd *refdata.Data) *Filter {
	return &Filter{boundary: boundary, boundaryEnabled: boundaryEnabled, validator: validator, refdata: rd}
}

// Apply runs every flight through the boundary filter and the
// flight-plan validator, and every controller through the allow-list
// (when one is configured). Rejection reasons are tallied for
// TickFlightsRejected.
func (f *Filter) Apply(snap NormalizedSnapshot) FilterResult {
	result := FilterResult{
		AcceptedFlights:     make([]entities.FlightSample, 0, len(snap.Flights)),
		AcceptedControllers: make([]entities.ControllerSample, 0, len(snap.Controllers)),
		Rejected:            make(map[string]int),
	}

	for _, fs := range snap.Flights {
		if f.boundaryEnabled && !f.boundary.Inside(fs.Lat, fs.Lon, fs.HasPosition) {
			result.Rejected["out_of_boundary"]++
			continue
		}
		if !f.validator.IsValid(&fs) {
			result.Rejected["invalid_flight_plan"]++
			continue
		}
		result.AcceptedFlights = append(result.AcceptedFlights, fs)
	}

	for _, cs := range snap.Controllers {
		if f.refdata != nil && !f.refdata.IsAllowed(cs.Callsign) {
			result.Rejected["not_allowlisted"]++
			continue
		}
		result.AcceptedControllers = append(result.AcceptedControllers, cs)
	}

	return result
}
