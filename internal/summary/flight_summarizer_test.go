package summary

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"vatpac/internal/atc"
	"vatpac/internal/db/repositories"
	"vatpac/internal/models/entities"
	gormModels "vatpac/internal/models/gorm"
)

// fakeTransceiverSource is a minimal in-memory atc.TransceiverSource
// returning nothing, letting summarizer tests exercise the
// no-interaction path without a database.
type fakeTransceiverSource struct{}

func (fakeTransceiverSource) ActiveControllerCallsignsSince(ctx context.Context, since interface{}) ([]string, error) {
	return nil, nil
}
func (fakeTransceiverSource) TransceiversForCallsignsInWindow(ctx context.Context, callsigns []string, start, end interface{}) ([]entities.TransceiverSample, error) {
	return nil, nil
}
func (fakeTransceiverSource) FlightTransceivers(ctx context.Context, callsign string, start, end interface{}) ([]entities.TransceiverSample, error) {
	return nil, nil
}
func (fakeTransceiverSource) FlightTransceiversInWindow(ctx context.Context, start, end interface{}) ([]entities.TransceiverSample, error) {
	return nil, nil
}

func setupFlightSummarizerDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&gormModels.FlightSummary{}, &gormModels.FlightArchive{}, &gormModels.SectorOccupancy{}))
	return db
}

func TestFlightSummarizerSummarizeOneWritesSummaryAndDeletesSectorRows(t *testing.T) {
	db := setupFlightSummarizerDB(t)
	summaryRepo := repositories.NewFlightSummaryRepo(db)
	sectorRepo := repositories.NewSectorOccupancyRepo(db)
	detector := atc.NewDetector(fakeTransceiverSource{}, 122800000, 3*time.Minute)

	logon := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)
	lastSample := logon.Add(time.Hour)

	exitTime := logon.Add(50 * time.Minute)
	duration := int64(50 * 60)
	require.NoError(t, db.Create(&gormModels.SectorOccupancy{
		Callsign: "QFA1", CID: 100, LogonTime: logon, Departure: "YMML", Arrival: "YSSY",
		Sector: "YBBB_CTR", EntryTime: logon, ExitTime: &exitTime, DurationSeconds: &duration,
	}).Error)

	s := NewFlightSummarizer(summaryRepo, sectorRepo, nil, detector, nil, nil, 14*time.Hour, 50, time.Minute)

	flight := EligibleFlight{
		Key: entities.FlightKey{Callsign: "QFA1", CID: 100, LogonTime: logon, Departure: "YMML", Arrival: "YSSY"},
		AircraftFAA: "B738", FlightRules: "I", LastSampleTime: lastSample,
		LastPosition: FlightPositionSample{Lat: -37.8, Lon: 144.9, AltitudeFt: 35000, HeadingDeg: 90, GroundspeedKt: 450},
	}
	require.NoError(t, s.SummarizeOne(context.Background(), flight))

	rows, err := summaryRepo.ByCallsignAndLogon(context.Background(), "QFA1", 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "YBBB_CTR", rows[0].PrimaryEnrouteSector)
	assert.Equal(t, 1, rows[0].TotalEnrouteSectors)
	assert.InDelta(t, 50.0, rows[0].TotalEnrouteTimeMinutes, 0.01)
	assert.InDelta(t, 60.0, rows[0].TimeOnlineMinutes, 0.01)

	remaining, err := sectorRepo.ForFlight(context.Background(), "QFA1", 100, logon)
	require.NoError(t, err)
	assert.Empty(t, remaining, "sector rows must be deleted once the flight is summarized")

	var archived []gormModels.FlightArchive
	require.NoError(t, db.Where("callsign = ?", "QFA1").Find(&archived).Error)
	require.Len(t, archived, 1, "flight detail must be archived before the live row is deleted")
	assert.InDelta(t, -37.8, archived[0].Lat, 0.001)
	assert.InDelta(t, 144.9, archived[0].Lon, 0.001)
	assert.Equal(t, 35000, archived[0].AltitudeFt)
	assert.Equal(t, 450, archived[0].GroundspeedKt)
	assert.True(t, archived[0].SampleTime.Equal(lastSample))
}

func TestFlightSummarizerIsEligibleRespectsCompleteAfter(t *testing.T) {
	s := NewFlightSummarizer(nil, nil, nil, nil, nil, nil, 14*time.Hour, 50, time.Minute)
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)

	assert.False(t, s.IsEligible(now, now.Add(-13*time.Hour)))
	assert.True(t, s.IsEligible(now, now.Add(-15*time.Hour)))
}
