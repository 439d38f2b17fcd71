package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoundaryFilterAdmitsMissingPosition(t *testing.T) {
	f := NewBoundaryFilter(square())
	assert.True(t, f.Inside(0, 0, false), "no position reported must always be admitted")
}

func TestBoundaryFilterRejectsOutsideFIR(t *testing.T) {
	f := NewBoundaryFilter(square())
	assert.False(t, f.Inside(50, 50, true))
}

func TestBoundaryFilterAdmitsInsideFIR(t *testing.T) {
	f := NewBoundaryFilter(square())
	assert.True(t, f.Inside(5, 5, true))
}

func TestSectorIndexContainingMissingPositionIsEmpty(t *testing.T) {
	idx := NewSectorIndex([]Sector{{Name: "YMMM_CTR", Polygon: square()}})
	current := idx.Containing(0, 0, false)
	assert.Empty(t, current)
}

func TestSectorIndexContainingOverlappingSectors(t *testing.T) {
	idx := NewSectorIndex([]Sector{
		{Name: "A_CTR", Polygon: square()},
		{Name: "B_CTR", Polygon: NewPolygon(Ring{
			{Lat: 2, Lon: 2}, {Lat: 2, Lon: 8}, {Lat: 8, Lon: 8}, {Lat: 8, Lon: 2},
		}, nil)},
	})

	current := idx.Containing(5, 5, true)
	assert.Len(t, current, 2)
	_, hasA := current["A_CTR"]
	_, hasB := current["B_CTR"]
	assert.True(t, hasA)
	assert.True(t, hasB)
}

func TestSectorIndexNames(t *testing.T) {
	idx := NewSectorIndex([]Sector{{Name: "X_CTR", Polygon: square()}, {Name: "Y_APP", Polygon: square()}})
	assert.Equal(t, []string{"X_CTR", "Y_APP"}, idx.Names())
}
