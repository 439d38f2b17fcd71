package repositories

import (
	"context"
	"fmt"
	"time"

	gormModels "vatpac/internal/models/gorm"

	"gorm.io/gorm"
)

// SectorOccupancyRepo owns reads and writes against
// flight_sector_occupancy, mirrored on the teacher's
// PirepATSyncedRepo shape (one type wrapping *gorm.DB, one method per
// query the engine needs).
type SectorOccupancyRepo struct {
	db *gorm.DB
}

// NewSectorOccupancyRepo builds a SectorOccupancyRepo.
func NewSectorOccupancyRepo(db *gorm.DB) *SectorOccupancyRepo {
	return &SectorOccupancyRepo{db: db}
}

// OpenForFlight returns every row with a null exit_time for the given
// flight key -- used both to reconstruct open_sectors on startup and
// mid-tick when the engine processes a sample.
func (r *SectorOccupancyRepo) OpenForFlight(ctx context.Context, callsign string, cid int64, logonTime time.Time) ([]gormModels.SectorOccupancy, error) {
	var rows []gormModels.SectorOccupancy
	err := r.db.WithContext(ctx).
		Where("callsign = ? AND cid = ? AND logon_time = ? AND exit_time IS NULL", callsign, cid, logonTime).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load open sector rows: %w", err)
	}
	return rows, nil
}

// AllOpen returns every open sector row across all flights, used to
// reconstruct open_sectors state on process start per §4.7.
func (r *SectorOccupancyRepo) AllOpen(ctx context.Context) ([]gormModels.SectorOccupancy, error) {
	var rows []gormModels.SectorOccupancy
	err := r.db.WithContext(ctx).Where("exit_time IS NULL").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load all open sector rows: %w", err)
	}
	return rows, nil
}

// Open inserts a new open SectorOccupancy row within tx.
func (r *SectorOccupancyRepo) Open(ctx context.Context, tx *gorm.DB, row *gormModels.SectorOccupancy) error {
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("failed to open sector row: %w", err)
	}
	return nil
}

// Close sets exit_time/exit position/altitude/duration on an existing
// open row within tx.
func (r *SectorOccupancyRepo) Close(ctx context.Context, tx *gorm.DB, id int64, exitTime time.Time, exitLat, exitLon float64, exitAltitudeFt int, durationSeconds int64) error {
	err := tx.WithContext(ctx).Model(&gormModels.SectorOccupancy{}).Where("id = ?", id).Updates(map[string]interface{}{
		"exit_time":        exitTime,
		"exit_lat":         exitLat,
		"exit_lon":         exitLon,
		"exit_altitude_ft": exitAltitudeFt,
		"duration_seconds": durationSeconds,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to close sector row %d: %w", id, err)
	}
	return nil
}

// WithTransaction runs fn inside a single GORM transaction, mirroring
// the "one transaction per flight / per scan" discipline the spec
// requires for the engine and the sweeper.
func (r *SectorOccupancyRepo) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// ForFlight returns all sector rows (open and closed) for a flight
// key, used by the Flight Summarizer's sector_breakdown computation.
func (r *SectorOccupancyRepo) ForFlight(ctx context.Context, callsign string, cid int64, logonTime time.Time) ([]gormModels.SectorOccupancy, error) {
	var rows []gormModels.SectorOccupancy
	err := r.db.WithContext(ctx).
		Where("callsign = ? AND cid = ? AND logon_time = ?", callsign, cid, logonTime).
		Order("entry_time ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load sector rows for flight: %w", err)
	}
	return rows, nil
}

// DeleteForFlight removes every sector row for a flight key, used by
// the Flight Summarizer after archiving.
func (r *SectorOccupancyRepo) DeleteForFlight(ctx context.Context, tx *gorm.DB, callsign string, cid int64, logonTime time.Time) error {
	err := tx.WithContext(ctx).
		Where("callsign = ? AND cid = ? AND logon_time = ?", callsign, cid, logonTime).
		Delete(&gormModels.SectorOccupancy{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete sector rows for flight: %w", err)
	}
	return nil
}

// StaleOpen returns open rows whose entry_time (as a proxy for "still
// believed open") predates the cutoff -- the sweeper combines this
// with a per-flight last-sample lookup to decide true staleness.
func (r *SectorOccupancyRepo) StaleOpen(ctx context.Context, cutoff time.Time) ([]gormModels.SectorOccupancy, error) {
	var rows []gormModels.SectorOccupancy
	err := r.db.WithContext(ctx).
		Where("exit_time IS NULL AND entry_time < ?", cutoff).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load stale open sector rows: %w", err)
	}
	return rows, nil
}
