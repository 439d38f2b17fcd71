package geo

// Sector is one named sub-volume of airspace; sectors may overlap, so
// a position can belong to zero or more of them at once.
type Sector struct {
	Name    string
	Polygon Polygon
}

// SectorIndex evaluates a position against every loaded sector. It is
// immutable after construction and safe for concurrent reads.
type SectorIndex struct {
	sectors []Sector
}

// NewSectorIndex builds an index over the given ordered sector list.
func NewSectorIndex(sectors []Sector) *SectorIndex {
	return &SectorIndex{sectors: sectors}
}

// Containing returns the set of sector names whose polygon contains
// (lat, lon). Missing coordinates return the empty set, per the
// conservative-admit invariant for the occupancy engine: no sector
// membership can be asserted without a real fix.
func (idx *SectorIndex) Containing(lat, lon float64, hasPos bool) map[string]struct{} {
	current := make(map[string]struct{})
	if !hasPos {
		return current
	}
	p := Point{Lat: lat, Lon: lon}
	for _, s := range idx.sectors {
		if s.Polygon.Contains(p) {
			current[s.Name] = struct{}{}
		}
	}
	return current
}

// Names returns every sector name the index knows about, in load order.
func (idx *SectorIndex) Names() []string {
	names := make([]string, len(idx.sectors))
	for i, s := range idx.sectors {
		names[i] = s.Name
	}
	return names
}
