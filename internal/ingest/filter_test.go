package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vatpac/internal/geo"
	"vatpac/internal/models/entities"
	"vatpac/internal/refdata"
)

func square() geo.Polygon {
	return geo.NewPolygon(geo.Ring{
		{Lat: 0, Lon: 0}, {Lat: 0, Lon: 10}, {Lat: 10, Lon: 10}, {Lat: 10, Lon: 0},
	}, nil)
}

func insideFlight(callsign string) entities.FlightSample {
	return entities.FlightSample{
		Callsign: callsign, HasPosition: true, Lat: 5, Lon: 5,
		Departure: "YMML", Arrival: "YSSY", AircraftFAA: "B738", FlightRules: "I",
	}
}

func TestFilterAcceptsValidInsideFlight(t *testing.T) {
	f := NewFilter(geo.NewBoundaryFilter(square()), true, NewFlightPlanValidator(true), nil)
	result := f.Apply(NormalizedSnapshot{Flights: []entities.FlightSample{insideFlight("QFA1")}})

	require.Len(t, result.AcceptedFlights, 1)
	assert.Equal(t, "QFA1", result.AcceptedFlights[0].Callsign)
	assert.Empty(t, result.Rejected)
}

func TestFilterRejectsOutOfBoundary(t *testing.T) {
	f := NewFilter(geo.NewBoundaryFilter(square()), true, NewFlightPlanValidator(true), nil)
	outside := insideFlight("QFA1")
	outside.Lat, outside.Lon = 50, 50

	result := f.Apply(NormalizedSnapshot{Flights: []entities.FlightSample{outside}})

	assert.Empty(t, result.AcceptedFlights)
	assert.Equal(t, 1, result.Rejected["out_of_boundary"])
}

func TestFilterRejectsInvalidFlightPlan(t *testing.T) {
	f := NewFilter(geo.NewBoundaryFilter(square()), true, NewFlightPlanValidator(true), nil)
	noPlan := insideFlight("QFA1")
	noPlan.Departure = ""

	result := f.Apply(NormalizedSnapshot{Flights: []entities.FlightSample{noPlan}})

	assert.Empty(t, result.AcceptedFlights)
	assert.Equal(t, 1, result.Rejected["invalid_flight_plan"])
}

func TestFilterNilRefdataAdmitsAllControllers(t *testing.T) {
	f := NewFilter(geo.NewBoundaryFilter(square()), true, NewFlightPlanValidator(true), nil)
	result := f.Apply(NormalizedSnapshot{Controllers: []entities.ControllerSample{{Callsign: "YMML_TWR"}}})

	require.Len(t, result.AcceptedControllers, 1)
}

func TestFilterAdmitsOutOfBoundaryFlightWhenBoundaryFilterDisabled(t *testing.T) {
	f := NewFilter(geo.NewBoundaryFilter(square()), false, NewFlightPlanValidator(true), nil)
	outside := insideFlight("QFA1")
	outside.Lat, outside.Lon = 50, 50

	result := f.Apply(NormalizedSnapshot{Flights: []entities.FlightSample{outside}})

	require.Len(t, result.AcceptedFlights, 1)
	assert.Empty(t, result.Rejected["out_of_boundary"])
}

func TestFilterRejectsControllerNotOnAllowlist(t *testing.T) {
	rd := &refdata.Data{Allowlist: map[string]struct{}{"YMML_TWR": {}}}
	f := NewFilter(geo.NewBoundaryFilter(square()), true, NewFlightPlanValidator(true), rd)

	result := f.Apply(NormalizedSnapshot{Controllers: []entities.ControllerSample{
		{Callsign: "YMML_TWR"}, {Callsign: "YSSY_APP"},
	}})

	require.Len(t, result.AcceptedControllers, 1)
	assert.Equal(t, "YMML_TWR", result.AcceptedControllers[0].Callsign)
	assert.Equal(t, 1, result.Rejected["not_allowlisted"])
}
