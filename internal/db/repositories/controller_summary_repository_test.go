package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	gormModels "vatpac/internal/models/gorm"
)

func setupControllerSummaryDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&gormModels.ControllerSummary{}, &gormModels.ControllerArchive{}))
	return db
}

func TestControllerSummaryRepoInsertAndQueryByCallsign(t *testing.T) {
	db := setupControllerSummaryDB(t)
	repo := NewControllerSummaryRepo(db)
	ctx := context.Background()

	summary := &gormModels.ControllerSummary{
		Callsign: "YMML_TWR", CID: 200, SessionStartTime: time.Now(),
		FrequenciesUsed: gormModels.StringList{"120.500"},
		AircraftDetails: gormModels.AircraftDetailList{{Callsign: "QFA1", FirstSeen: "00:00", LastSeen: "00:05"}},
	}
	require.NoError(t, repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		return repo.Insert(ctx, tx, summary)
	}))

	rows, err := repo.ByCallsign(ctx, "YMML_TWR", 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"120.500"}, []string(rows[0].FrequenciesUsed))
	require.Len(t, rows[0].AircraftDetails, 1)
	assert.Equal(t, "QFA1", rows[0].AircraftDetails[0].Callsign)
}

func TestControllerSummaryRepoByCallsignOrdersMostRecentFirst(t *testing.T) {
	db := setupControllerSummaryDB(t)
	repo := NewControllerSummaryRepo(db)
	ctx := context.Background()

	older := time.Now().Add(-time.Hour)
	newer := time.Now()
	require.NoError(t, db.Create(&gormModels.ControllerSummary{Callsign: "YMML_TWR", CID: 200, SessionStartTime: older}).Error)
	require.NoError(t, db.Create(&gormModels.ControllerSummary{Callsign: "YMML_TWR", CID: 200, SessionStartTime: newer}).Error)

	rows, err := repo.ByCallsign(ctx, "YMML_TWR", 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].SessionStartTime.After(rows[1].SessionStartTime))
}

func TestControllerSummaryRepoInsertArchiveRow(t *testing.T) {
	db := setupControllerSummaryDB(t)
	repo := NewControllerSummaryRepo(db)
	ctx := context.Background()

	row := &gormModels.ControllerArchive{
		Callsign: "YMML_TWR", CID: 200, LogonTime: time.Now(), UpstreamLastUpdated: time.Now(),
	}
	require.NoError(t, repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		return repo.InsertArchiveRow(ctx, tx, row)
	}))

	var count int64
	require.NoError(t, db.Model(&gormModels.ControllerArchive{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
