package repositories

import (
	"context"
	"fmt"

	gormModels "vatpac/internal/models/gorm"

	"gorm.io/gorm"
)

// FlightSummaryRepo writes the Flight Summarizer's output and the
// paired archive rows, mirrored on the teacher's PirepATSyncedRepo.
type FlightSummaryRepo struct {
	db *gorm.DB
}

// NewFlightSummaryRepo builds a FlightSummaryRepo.
func NewFlightSummaryRepo(db *gorm.DB) *FlightSummaryRepo {
	return &FlightSummaryRepo{db: db}
}

// WithTransaction runs fn inside a single GORM transaction -- the
// Flight Summarizer's "insert summary, copy to archive, delete live
// rows" unit of work per §4.10.
func (r *FlightSummaryRepo) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// Insert writes one FlightSummary row within tx.
func (r *FlightSummaryRepo) Insert(ctx context.Context, tx *gorm.DB, summary *gormModels.FlightSummary) error {
	if err := tx.WithContext(ctx).Create(summary).Error; err != nil {
		return fmt.Errorf("failed to insert flight summary: %w", err)
	}
	return nil
}

// ByCallsignAndLogon returns summaries for one callsign across all of
// its logons (the logon time is not filtered on), ordered by
// completion_time most recent first, for the read API's filters.
func (r *FlightSummaryRepo) ByCallsignAndLogon(ctx context.Context, callsign string, limit int) ([]gormModels.FlightSummary, error) {
	var rows []gormModels.FlightSummary
	q := r.db.WithContext(ctx).Where("callsign = ?", callsign).Order("completion_time DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query flight summaries: %w", err)
	}
	return rows, nil
}

// InsertArchiveRow writes one FlightArchive detail row within tx.
func (r *FlightSummaryRepo) InsertArchiveRow(ctx context.Context, tx *gorm.DB, row *gormModels.FlightArchive) error {
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("failed to insert flight archive row: %w", err)
	}
	return nil
}

// InsertArchiveBatch writes a batch of FlightArchive rows within tx,
// grounded on the teacher's CreateInBatches idiom.
func (r *FlightSummaryRepo) InsertArchiveBatch(ctx context.Context, tx *gorm.DB, rows []gormModels.FlightArchive) error {
	if len(rows) == 0 {
		return nil
	}
	if err := tx.WithContext(ctx).CreateInBatches(rows, 500).Error; err != nil {
		return fmt.Errorf("failed to insert flight archive batch: %w", err)
	}
	return nil
}
