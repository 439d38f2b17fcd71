package atc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vatpac/internal/models/entities"
)

// fakeSource is an in-memory TransceiverSource, letting detector
// tests run without a database.
type fakeSource struct {
	candidates []string
	byCallsign map[string][]entities.TransceiverSample
}

func (f *fakeSource) ActiveControllerCallsignsSince(ctx context.Context, since interface{}) ([]string, error) {
	return f.candidates, nil
}

func (f *fakeSource) TransceiversForCallsignsInWindow(ctx context.Context, callsigns []string, start, end interface{}) ([]entities.TransceiverSample, error) {
	var out []entities.TransceiverSample
	for _, c := range callsigns {
		out = append(out, f.byCallsign[c]...)
	}
	return out, nil
}

func (f *fakeSource) FlightTransceivers(ctx context.Context, callsign string, start, end interface{}) ([]entities.TransceiverSample, error) {
	return f.byCallsign[callsign], nil
}

func (f *fakeSource) FlightTransceiversInWindow(ctx context.Context, start, end interface{}) ([]entities.TransceiverSample, error) {
	var out []entities.TransceiverSample
	for _, rows := range f.byCallsign {
		for _, r := range rows {
			if r.EntityType == entities.EntityFlight {
				out = append(out, r)
			}
		}
	}
	return out, nil
}

const guardHz int64 = 122800000

func TestDetectFindsMatchOnSameFrequencyAndProximity(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	src := &fakeSource{
		candidates: []string{"YMML_TWR"},
		byCallsign: map[string][]entities.TransceiverSample{
			"QFA1": {
				{Callsign: "QFA1", FrequencyHz: 120500000, Lat: -37.6, Lon: 144.8, IngestTime: now},
			},
			"YMML_TWR": {
				{Callsign: "YMML_TWR", FrequencyHz: 120500000, Lat: -37.67, Lon: 144.84, IngestTime: now},
			},
		},
	}
	d := NewDetector(src, guardHz, 3*time.Minute)

	result, err := d.Detect(context.Background(), "QFA1", now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, result.SampleCountsByController["YMML_TWR"])
	assert.Equal(t, 1, result.TotalMatchedSamples())
}

func TestDetectExcludesGuardFrequency(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	src := &fakeSource{
		candidates: []string{"YMML_TWR"},
		byCallsign: map[string][]entities.TransceiverSample{
			"QFA1":     {{Callsign: "QFA1", FrequencyHz: guardHz, Lat: -37.6, Lon: 144.8, IngestTime: now}},
			"YMML_TWR": {{Callsign: "YMML_TWR", FrequencyHz: guardHz, Lat: -37.6, Lon: 144.8, IngestTime: now}},
		},
	}
	d := NewDetector(src, guardHz, 3*time.Minute)

	result, err := d.Detect(context.Background(), "QFA1", now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, result.Matches)
}

func TestDetectExcludesOutOfRange(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	src := &fakeSource{
		candidates: []string{"YMML_TWR"},
		byCallsign: map[string][]entities.TransceiverSample{
			// Tower range is 15nm; put the controller ~1,050nm away.
			"QFA1":     {{Callsign: "QFA1", FrequencyHz: 120500000, Lat: -37.6, Lon: 144.8, IngestTime: now}},
			"YMML_TWR": {{Callsign: "YMML_TWR", FrequencyHz: 120500000, Lat: -20.0, Lon: 144.8, IngestTime: now}},
		},
	}
	d := NewDetector(src, guardHz, 3*time.Minute)

	result, err := d.Detect(context.Background(), "QFA1", now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, result.Matches)
}

func TestDetectExcludesOutsideMatchWindow(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	src := &fakeSource{
		candidates: []string{"YMML_TWR"},
		byCallsign: map[string][]entities.TransceiverSample{
			"QFA1":     {{Callsign: "QFA1", FrequencyHz: 120500000, Lat: -37.6, Lon: 144.8, IngestTime: now}},
			"YMML_TWR": {{Callsign: "YMML_TWR", FrequencyHz: 120500000, Lat: -37.6, Lon: 144.8, IngestTime: now.Add(10 * time.Minute)}},
		},
	}
	d := NewDetector(src, guardHz, 3*time.Minute)

	result, err := d.Detect(context.Background(), "QFA1", now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, result.Matches)
}

func TestDetectNoFlightSamplesShortCircuits(t *testing.T) {
	src := &fakeSource{candidates: []string{"YMML_TWR"}, byCallsign: map[string][]entities.TransceiverSample{}}
	d := NewDetector(src, guardHz, 3*time.Minute)

	result, err := d.Detect(context.Background(), "QFA1", time.Now().Add(-time.Hour), time.Now())
	require.NoError(t, err)
	assert.Empty(t, result.Matches)
}

func TestDetectForControllerTracksFirstAndLastSeen(t *testing.T) {
	now := time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
	src := &fakeSource{
		byCallsign: map[string][]entities.TransceiverSample{
			"QFA1": {
				{Callsign: "QFA1", FrequencyHz: 120500000, Lat: -37.6, Lon: 144.8, IngestTime: now, EntityType: entities.EntityFlight},
				{Callsign: "QFA1", FrequencyHz: 120500000, Lat: -37.6, Lon: 144.8, IngestTime: now.Add(5 * time.Minute), EntityType: entities.EntityFlight},
			},
			"YMML_TWR": {
				{Callsign: "YMML_TWR", FrequencyHz: 120500000, Lat: -37.6, Lon: 144.8, IngestTime: now, EntityType: entities.EntityATC},
				{Callsign: "YMML_TWR", FrequencyHz: 120500000, Lat: -37.6, Lon: 144.8, IngestTime: now.Add(5 * time.Minute), EntityType: entities.EntityATC},
			},
		},
	}
	d := NewDetector(src, guardHz, 3*time.Minute)

	result, err := d.DetectForController(context.Background(), "YMML_TWR", now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	require.Contains(t, result.FlightFirstSeen, "QFA1")
	assert.Equal(t, now, result.FlightFirstSeen["QFA1"])
	assert.Equal(t, now.Add(5*time.Minute), result.FlightLastSeen["QFA1"])
}
