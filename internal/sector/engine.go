// Package sector implements the per-flight sector-occupancy state
// machine, the engine the spec budgets the largest single share of
// the core to (§2, 14%). It follows the teacher's PirepQueueWorker
// idiom of holding small per-key in-memory state reconstructed from
// the database on startup, mutated under a transaction per unit of
// work.
package sector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"vatpac/internal/db/repositories"
	"vatpac/internal/geo"
	"vatpac/internal/logging"
	"vatpac/internal/metrics"
	"vatpac/internal/models/entities"
	gormModels "vatpac/internal/models/gorm"

	"gorm.io/gorm"
)

// Sample is one flight position observation the engine reacts to.
type Sample struct {
	Key         entities.FlightKey
	Time        time.Time
	HasPosition bool
	Lat         float64
	Lon         float64
	AltitudeFt  int
}

// flightState is the engine's per-flight bookkeeping: which sectors
// are currently open, and the row id backing each.
type flightState struct {
	openSectors map[string]int64 // sector name -> open row id
	lastTime    time.Time
}

// Engine maintains open_sectors per flight key and opens/closes
// SectorOccupancy rows as flights cross polygon boundaries.
type Engine struct {
	index *geo.SectorIndex
	repo  *repositories.SectorOccupancyRepo
	met   *metrics.MetricsRegistry

	mu     sync.Mutex
	states map[entities.FlightKey]*flightState
}

// NewEngine builds an Engine and reconstructs open_sectors from every
// currently-open row in the database, per §4.7's "Reconstructed from
// the database on process start" requirement.
func NewEngine(ctx context.Context, index *geo.SectorIndex, repo *repositories.SectorOccupancyRepo, met *metrics.MetricsRegistry) (*Engine, error) {
	e := &Engine{
		index:  index,
		repo:   repo,
		met:    met,
		states: make(map[entities.FlightKey]*flightState),
	}

	open, err := repo.AllOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct open sector state: %w", err)
	}
	for _, row := range open {
		key := entities.FlightKey{Callsign: row.Callsign, CID: row.CID, LogonTime: row.LogonTime, Departure: row.Departure, Arrival: row.Arrival}
		st := e.states[key]
		if st == nil {
			st = &flightState{openSectors: make(map[string]int64), lastTime: row.EntryTime}
			e.states[key] = st
		}
		st.openSectors[row.Sector] = row.ID
	}
	logging.Info("sector engine reconstructed open state", "open_rows", len(open), "flights", len(e.states))
	return e, nil
}

// Process runs one accepted sample through the transition algorithm
// of §4.7, within tx so the engine's writes share the ingest
// transaction.
func (e *Engine) Process(ctx context.Context, tx *gorm.DB, s Sample) error {
	e.mu.Lock()
	st := e.states[s.Key]
	if st == nil {
		st = &flightState{openSectors: make(map[string]int64)}
		e.states[s.Key] = st
	}

	// Duplicate-timestamp dedup: the second sample at an identical
	// time is ignored.
	if !st.lastTime.IsZero() && !s.Time.After(st.lastTime) {
		e.mu.Unlock()
		return nil
	}

	if !s.HasPosition {
		// Conservative: leave open_sectors untouched, let the Stale
		// Sweeper close it eventually.
		st.lastTime = s.Time
		e.mu.Unlock()
		return nil
	}

	current := e.index.Containing(s.Lat, s.Lon, true)
	previous := make(map[string]struct{}, len(st.openSectors))
	for name := range st.openSectors {
		previous[name] = struct{}{}
	}

	var toClose, toOpen []string
	for name := range previous {
		if _, ok := current[name]; !ok {
			toClose = append(toClose, name)
		}
	}
	for name := range current {
		if _, ok := previous[name]; !ok {
			toOpen = append(toOpen, name)
		}
	}
	st.lastTime = s.Time
	e.mu.Unlock()

	for _, name := range toClose {
		if err := e.closeSector(ctx, tx, st, name, s); err != nil {
			return err
		}
	}
	for _, name := range toOpen {
		if err := e.openSector(ctx, tx, st, name, s); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) closeSector(ctx context.Context, tx *gorm.DB, st *flightState, name string, s Sample) error {
	e.mu.Lock()
	id, ok := st.openSectors[name]
	e.mu.Unlock()
	if !ok {
		return nil
	}

	var row gormModels.SectorOccupancy
	if err := tx.WithContext(ctx).First(&row, id).Error; err != nil {
		return fmt.Errorf("failed to load sector row %d to close: %w", id, err)
	}

	duration := int64(s.Time.Sub(row.EntryTime).Round(time.Second).Seconds())
	if duration < 0 {
		duration = 0
	}
	if err := e.repo.Close(ctx, tx, id, s.Time, s.Lat, s.Lon, s.AltitudeFt, duration); err != nil {
		return err
	}

	e.mu.Lock()
	delete(st.openSectors, name)
	e.mu.Unlock()

	if e.met != nil {
		e.met.SectorTransitions.WithLabelValues("close").Inc()
	}
	return nil
}

func (e *Engine) openSector(ctx context.Context, tx *gorm.DB, st *flightState, name string, s Sample) error {
	row := &gormModels.SectorOccupancy{
		Callsign:        s.Key.Callsign,
		CID:             s.Key.CID,
		LogonTime:       s.Key.LogonTime,
		Departure:       s.Key.Departure,
		Arrival:         s.Key.Arrival,
		Sector:          name,
		EntryTime:       s.Time,
		EntryLat:        s.Lat,
		EntryLon:        s.Lon,
		EntryAltitudeFt: s.AltitudeFt,
	}
	if err := e.repo.Open(ctx, tx, row); err != nil {
		return err
	}

	e.mu.Lock()
	st.openSectors[name] = row.ID
	e.mu.Unlock()

	if e.met != nil {
		e.met.SectorTransitions.WithLabelValues("open").Inc()
	}
	return nil
}

// Forget drops in-memory state for a flight key once it has been
// archived, so the map doesn't grow unbounded across the process
// lifetime.
func (e *Engine) Forget(key entities.FlightKey) {
	e.mu.Lock()
	delete(e.states, key)
	e.mu.Unlock()
}
