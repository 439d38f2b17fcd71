// Package refdata performs the one-shot startup load of the FIR
// polygon, the sector polygon set, the controller-callsign allow-list,
// and the static ICAO->state table. All four are immutable once
// loaded; a reload requires a process restart. Grounded on the
// teacher's AirportLoaderService.LoadFromJSON (decode a flat JSON/text
// file into typed structs, logging the count loaded).
package refdata

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"vatpac/internal/geo"
	"vatpac/internal/logging"
)

// geoJSONFeatureCollection is the minimal subset of GeoJSON this
// loader understands: a FeatureCollection of Polygon geometries, each
// carrying a "name" property for sectors (ignored for the FIR file,
// which is expected to contain exactly one feature).
type geoJSONFeatureCollection struct {
	Features []geoJSONFeature `json:"features"`
}

type geoJSONFeature struct {
	Properties map[string]any `json:"properties"`
	Geometry   geoJSONGeometry `json:"geometry"`
}

type geoJSONGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Data bundles everything loaded at startup.
type Data struct {
	FIR          geo.Polygon
	Sectors      []geo.Sector
	Allowlist    map[string]struct{}
	ICAOToState  map[string]string
}

// Load reads the FIR polygon, the sector set, the controller
// allow-list, and the ICAO->state table from disk. Any parse failure
// is returned as-is; callers are expected to treat it as fatal (the
// process must refuse to start on bad reference data).
func Load(firPath, sectorPath, allowlistPath, icaoStatePath string) (*Data, error) {
	fir, err := loadSingleFIRPolygon(firPath)
	if err != nil {
		return nil, fmt.Errorf("loading FIR polygon: %w", err)
	}
	logging.Info("loaded FIR polygon", "path", firPath)

	var sectors []geo.Sector
	if sectorPath != "" {
		sectors, err = loadSectors(sectorPath)
		if err != nil {
			return nil, fmt.Errorf("loading sector data: %w", err)
		}
		logging.Info("loaded sector definitions", "path", sectorPath, "count", len(sectors))
	}

	allowlist := map[string]struct{}{}
	if allowlistPath != "" {
		allowlist, err = loadAllowlist(allowlistPath)
		if err != nil {
			return nil, fmt.Errorf("loading controller allow-list: %w", err)
		}
		logging.Info("loaded controller allow-list", "path", allowlistPath, "count", len(allowlist))
	}

	icaoStates := map[string]string{}
	if icaoStatePath != "" {
		icaoStates, err = loadICAOStates(icaoStatePath)
		if err != nil {
			return nil, fmt.Errorf("loading ICAO state table: %w", err)
		}
		logging.Info("loaded ICAO state table", "path", icaoStatePath, "count", len(icaoStates))
	}

	return &Data{
		FIR:         fir,
		Sectors:     sectors,
		Allowlist:   allowlist,
		ICAOToState: icaoStates,
	}, nil
}

func loadSingleFIRPolygon(path string) (geo.Polygon, error) {
	f, err := os.Open(path)
	if err != nil {
		return geo.Polygon{}, err
	}
	defer f.Close()

	fc, err := decodeFeatureCollection(f)
	if err != nil {
		return geo.Polygon{}, err
	}
	if len(fc.Features) == 0 {
		return geo.Polygon{}, fmt.Errorf("no features found in %s", path)
	}
	outer, holes, err := parsePolygonGeometry(fc.Features[0].Geometry)
	if err != nil {
		return geo.Polygon{}, err
	}
	return geo.NewPolygon(outer, holes), nil
}

func loadSectors(path string) ([]geo.Sector, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fc, err := decodeFeatureCollection(f)
	if err != nil {
		return nil, err
	}

	sectors := make([]geo.Sector, 0, len(fc.Features))
	for _, feat := range fc.Features {
		name, _ := feat.Properties["name"].(string)
		if name == "" {
			return nil, fmt.Errorf("sector feature missing \"name\" property")
		}
		outer, holes, err := parsePolygonGeometry(feat.Geometry)
		if err != nil {
			return nil, fmt.Errorf("sector %q: %w", name, err)
		}
		sectors = append(sectors, geo.Sector{Name: name, Polygon: geo.NewPolygon(outer, holes)})
	}
	return sectors, nil
}

func decodeFeatureCollection(r io.Reader) (*geoJSONFeatureCollection, error) {
	var fc geoJSONFeatureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, fmt.Errorf("failed to decode GeoJSON: %w", err)
	}
	return &fc, nil
}

// parsePolygonGeometry converts a GeoJSON "Polygon" geometry
// (coordinates: [ring, hole1, hole2, ...], each ring a list of
// [lon, lat] pairs) into an outer ring plus hole rings.
func parsePolygonGeometry(geom geoJSONGeometry) (geo.Ring, []geo.Ring, error) {
	if geom.Type != "Polygon" {
		return nil, nil, fmt.Errorf("unsupported geometry type %q", geom.Type)
	}

	var rawRings [][][2]float64
	if err := json.Unmarshal(geom.Coordinates, &rawRings); err != nil {
		return nil, nil, fmt.Errorf("failed to decode polygon coordinates: %w", err)
	}
	if len(rawRings) == 0 {
		return nil, nil, fmt.Errorf("polygon has no rings")
	}

	toRing := func(raw [][2]float64) geo.Ring {
		ring := make(geo.Ring, len(raw))
		for i, c := range raw {
			// GeoJSON orders coordinates [lon, lat].
			ring[i] = geo.Point{Lon: c[0], Lat: c[1]}
		}
		return ring
	}

	outer := toRing(rawRings[0])
	holes := make([]geo.Ring, 0, len(rawRings)-1)
	for _, raw := range rawRings[1:] {
		holes = append(holes, toRing(raw))
	}
	return outer, holes, nil
}

func loadAllowlist(path string) (map[string]struct{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	set := map[string]struct{}{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		set[strings.ToUpper(line)] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return set, nil
}

func loadICAOStates(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	table := map[string]string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, ",", 2)
		if len(parts) != 2 {
			continue
		}
		table[strings.ToUpper(strings.TrimSpace(parts[0]))] = strings.TrimSpace(parts[1])
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return table, nil
}

// IsAllowed reports whether callsign is present on the controller
// allow-list. An empty allow-list (none configured) admits everyone.
func (d *Data) IsAllowed(callsign string) bool {
	if len(d.Allowlist) == 0 {
		return true
	}
	_, ok := d.Allowlist[strings.ToUpper(callsign)]
	return ok
}
