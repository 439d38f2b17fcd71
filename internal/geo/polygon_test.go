package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square() Polygon {
	return NewPolygon(Ring{
		{Lat: 0, Lon: 0},
		{Lat: 0, Lon: 10},
		{Lat: 10, Lon: 10},
		{Lat: 10, Lon: 0},
	}, nil)
}

func TestPolygonContainsInterior(t *testing.T) {
	poly := square()
	assert.True(t, poly.Contains(Point{Lat: 5, Lon: 5}))
}

func TestPolygonExcludesExterior(t *testing.T) {
	poly := square()
	assert.False(t, poly.Contains(Point{Lat: 20, Lon: 20}))
	assert.False(t, poly.Contains(Point{Lat: -1, Lon: 5}))
}

func TestPolygonBoundaryIsInclusive(t *testing.T) {
	poly := square()
	assert.True(t, poly.Contains(Point{Lat: 0, Lon: 5}), "point on the bottom edge")
	assert.True(t, poly.Contains(Point{Lat: 5, Lon: 0}), "point on the left edge")
	assert.True(t, poly.Contains(Point{Lat: 0, Lon: 0}), "vertex")
}

func TestPolygonHoleIsExcluded(t *testing.T) {
	outer := Ring{
		{Lat: 0, Lon: 0}, {Lat: 0, Lon: 10}, {Lat: 10, Lon: 10}, {Lat: 10, Lon: 0},
	}
	hole := Ring{
		{Lat: 4, Lon: 4}, {Lat: 4, Lon: 6}, {Lat: 6, Lon: 6}, {Lat: 6, Lon: 4},
	}
	poly := NewPolygon(outer, []Ring{hole})

	assert.False(t, poly.Contains(Point{Lat: 5, Lon: 5}), "inside the hole")
	assert.True(t, poly.Contains(Point{Lat: 1, Lon: 1}), "inside the outer ring but outside the hole")
}

func TestPolygonBoundingBoxShortCircuits(t *testing.T) {
	poly := square()
	assert.False(t, poly.Contains(Point{Lat: 1000, Lon: 1000}))
}

func TestDistanceNMZeroForSamePoint(t *testing.T) {
	p := Point{Lat: -33.8688, Lon: 151.2093}
	require.InDelta(t, 0, DistanceNM(p, p), 1e-9)
}

func TestDistanceNMKnownRoute(t *testing.T) {
	sydney := Point{Lat: -33.8688, Lon: 151.2093}
	melbourne := Point{Lat: -37.8136, Lon: 144.9631}

	d := DistanceNM(sydney, melbourne)
	// Sydney-Melbourne great-circle distance is well known to be
	// roughly 390-400 nautical miles.
	assert.InDelta(t, 394, d, 15)
}

func TestDistanceNMIsSymmetric(t *testing.T) {
	a := Point{Lat: -12.4, Lon: 130.8}
	b := Point{Lat: -27.4, Lon: 153.0}
	assert.True(t, math.Abs(DistanceNM(a, b)-DistanceNM(b, a)) < 1e-9)
}
