// Package sweeper implements the Stale Sweeper: closing sector rows
// and flagging stale controller sessions whose upstream presence has
// lapsed, grounded on the teacher's claimStaleMessages periodic-sweep
// idiom in internal/workers/pirep_queue_worker.go.
package sweeper

import (
	"context"
	"fmt"
	"time"

	"vatpac/internal/db/repositories"
	"vatpac/internal/logging"
	"vatpac/internal/metrics"

	"gorm.io/gorm"
)

// FlightSnapshot is the subset of a live flight row the sweeper needs
// to close a stale sector row.
type FlightSnapshot struct {
	Lat                 float64
	Lon                 float64
	AltitudeFt          int
	UpstreamLastUpdated time.Time
}

// Sweeper closes stale SectorOccupancy rows and reports controller
// callsigns whose session should be considered ended.
type Sweeper struct {
	sectorRepo *repositories.SectorOccupancyRepo
	staleAfter time.Duration
	mergeWindow time.Duration
	met        *metrics.MetricsRegistry
}

// NewSweeper builds a Sweeper. staleAfter is T_stale (default 300s);
// mergeWindow is W_merge, used to decide controller session end.
func NewSweeper(sectorRepo *repositories.SectorOccupancyRepo, staleAfter, mergeWindow time.Duration, met *metrics.MetricsRegistry) *Sweeper {
	return &Sweeper{sectorRepo: sectorRepo, staleAfter: staleAfter, mergeWindow: mergeWindow, met: met}
}

// LastSampleFunc resolves a flight's most recent known sample --
// either from the live flights row if not yet archived, or a
// last-seen cache, per §4.9.
type LastSampleFunc func(ctx context.Context, callsign string, cid int64, logonTime time.Time) (FlightSnapshot, bool, error)

// SweepStaleSectors closes every open SectorOccupancy row whose
// flight's last known sample predates now-staleAfter. It runs in a
// single transaction and returns the count closed.
func (s *Sweeper) SweepStaleSectors(ctx context.Context, now time.Time, lastSample LastSampleFunc) (int, error) {
	cutoff := now.Add(-s.staleAfter)
	candidates, err := s.sectorRepo.StaleOpen(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list stale candidate sector rows: %w", err)
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	closed := 0
	err = s.sectorRepo.WithTransaction(ctx, func(tx *gorm.DB) error {
		for _, row := range candidates {
			snap, ok, err := lastSample(ctx, row.Callsign, row.CID, row.LogonTime)
			if err != nil {
				return fmt.Errorf("failed to resolve last sample for %s: %w", row.Callsign, err)
			}
			if !ok || snap.UpstreamLastUpdated.After(cutoff) {
				continue
			}
			duration := int64(snap.UpstreamLastUpdated.Sub(row.EntryTime).Round(time.Second).Seconds())
			if duration < 0 {
				duration = 0
			}
			if err := s.sectorRepo.Close(ctx, tx, row.ID, snap.UpstreamLastUpdated, snap.Lat, snap.Lon, snap.AltitudeFt, duration); err != nil {
				return err
			}
			closed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if s.met != nil && closed > 0 {
		s.met.SweeperRowsClosed.WithLabelValues("sector").Add(float64(closed))
	}
	logging.Info("stale sweeper closed sector rows", "count", closed)
	return closed, nil
}

// StaleControllerCallsigns reports which of the given currently-known
// controller callsigns have not been updated within mergeWindow of
// now, and are therefore eligible for session-end treatment.
func (s *Sweeper) StaleControllerCallsigns(now time.Time, lastUpdated map[string]time.Time) []string {
	var stale []string
	cutoff := now.Add(-s.mergeWindow)
	for callsign, updated := range lastUpdated {
		if updated.Before(cutoff) {
			stale = append(stale, callsign)
		}
	}
	if s.met != nil && len(stale) > 0 {
		s.met.SweeperRowsClosed.WithLabelValues("controller_session").Add(float64(len(stale)))
	}
	return stale
}
