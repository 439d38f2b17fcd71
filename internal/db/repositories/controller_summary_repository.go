package repositories

import (
	"context"
	"fmt"

	gormModels "vatpac/internal/models/gorm"

	"gorm.io/gorm"
)

// ControllerSummaryRepo writes the Controller Summarizer's output and
// the paired archive rows.
type ControllerSummaryRepo struct {
	db *gorm.DB
}

// NewControllerSummaryRepo builds a ControllerSummaryRepo.
func NewControllerSummaryRepo(db *gorm.DB) *ControllerSummaryRepo {
	return &ControllerSummaryRepo{db: db}
}

// WithTransaction runs fn inside a single GORM transaction -- the
// Controller Summarizer's "insert summary, copy to archive, delete
// live rows" unit of work per §4.11.
func (r *ControllerSummaryRepo) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

// Insert writes one ControllerSummary row within tx.
func (r *ControllerSummaryRepo) Insert(ctx context.Context, tx *gorm.DB, summary *gormModels.ControllerSummary) error {
	if err := tx.WithContext(ctx).Create(summary).Error; err != nil {
		return fmt.Errorf("failed to insert controller summary: %w", err)
	}
	return nil
}

// ByCallsign returns summaries for one controller callsign, most
// recent first, for the read API's filters.
func (r *ControllerSummaryRepo) ByCallsign(ctx context.Context, callsign string, limit int) ([]gormModels.ControllerSummary, error) {
	var rows []gormModels.ControllerSummary
	q := r.db.WithContext(ctx).Where("callsign = ?", callsign).Order("session_start_time DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query controller summaries: %w", err)
	}
	return rows, nil
}

// InsertArchiveRow writes one ControllerArchive detail row within tx.
func (r *ControllerSummaryRepo) InsertArchiveRow(ctx context.Context, tx *gorm.DB, row *gormModels.ControllerArchive) error {
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("failed to insert controller archive row: %w", err)
	}
	return nil
}
