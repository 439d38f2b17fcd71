package geo

// BoundaryFilter wraps a single polygon (the Australian FIR) and
// answers whether a position lies inside it. Missing coordinates are
// conservatively admitted, per the geographic-filter invariant.
type BoundaryFilter struct {
	fir Polygon
}

// NewBoundaryFilter builds a filter around the given FIR polygon.
func NewBoundaryFilter(fir Polygon) *BoundaryFilter {
	return &BoundaryFilter{fir: fir}
}

// Inside reports whether (lat, lon) falls within the FIR boundary.
// hasPos distinguishes "no coordinates reported" from "(0,0)
// reported" — the former is always admitted.
func (f *BoundaryFilter) Inside(lat, lon float64, hasPos bool) bool {
	if !hasPos {
		return true
	}
	return f.fir.Contains(Point{Lat: lat, Lon: lon})
}
