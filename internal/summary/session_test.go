package summary

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func t0(min int) time.Time {
	return time.Date(2026, 7, 30, 0, min, 0, 0, time.UTC)
}

func TestMergeSessionsMergesWithinWindow(t *testing.T) {
	sessions := []Session{
		{Callsign: "YMML_TWR", CID: 1, Start: t0(0), End: t0(10)},
		{Callsign: "YMML_TWR", CID: 1, Start: t0(12), End: t0(20)},
	}
	merged := MergeSessions(sessions, 5*time.Minute)

	assert.Len(t, merged, 1)
	assert.Equal(t, t0(0), merged[0].Start)
	assert.Equal(t, t0(20), merged[0].End)
}

func TestMergeSessionsKeepsSeparateBeyondWindow(t *testing.T) {
	sessions := []Session{
		{Callsign: "YMML_TWR", CID: 1, Start: t0(0), End: t0(10)},
		{Callsign: "YMML_TWR", CID: 1, Start: t0(20), End: t0(30)},
	}
	merged := MergeSessions(sessions, 5*time.Minute)

	assert.Len(t, merged, 2)
}

func TestMergeSessionsIsTransitive(t *testing.T) {
	sessions := []Session{
		{Start: t0(0), End: t0(10)},
		{Start: t0(12), End: t0(20)},
		{Start: t0(22), End: t0(30)},
	}
	merged := MergeSessions(sessions, 5*time.Minute)

	assert.Len(t, merged, 1)
	assert.Equal(t, t0(0), merged[0].Start)
	assert.Equal(t, t0(30), merged[0].End)
}

func TestMergeSessionsHandlesUnsortedInput(t *testing.T) {
	sessions := []Session{
		{Start: t0(12), End: t0(20)},
		{Start: t0(0), End: t0(10)},
	}
	merged := MergeSessions(sessions, 5*time.Minute)

	assert.Len(t, merged, 1)
	assert.Equal(t, t0(0), merged[0].Start)
}

func TestSessionTrackerObserveExtendsOpenSession(t *testing.T) {
	tr := NewSessionTracker(5*time.Minute)
	tr.Observe("YBBN_APP", 100, t0(0))
	tr.Observe("YBBN_APP", 100, t0(5))
	tr.Close("YBBN_APP", 100)

	eligible := tr.EligibleSessions(t0(5).Add(time.Hour), 5*time.Minute, 30*time.Minute)
	assert.Len(t, eligible, 1)
	assert.Equal(t, t0(0), eligible[0].Start)
	assert.Equal(t, t0(5), eligible[0].End)
}

func TestSessionTrackerEligibleSessionsRespectsCompleteAfter(t *testing.T) {
	tr := NewSessionTracker(5*time.Minute)
	tr.Observe("YBBN_APP", 100, t0(0))
	tr.Close("YBBN_APP", 100)

	// Not yet eligible: completeAfter has not elapsed since session end.
	eligible := tr.EligibleSessions(t0(1), 5*time.Minute, 30*time.Minute)
	assert.Empty(t, eligible)

	eligible = tr.EligibleSessions(t0(31), 5*time.Minute, 30*time.Minute)
	assert.Len(t, eligible, 1)
}

func TestSessionTrackerObserveSplitsOnGapBeyondMergeWindow(t *testing.T) {
	tr := NewSessionTracker(5 * time.Minute)
	tr.Observe("YBBN_APP", 100, t0(0))
	tr.Observe("YBBN_APP", 100, t0(4))
	tr.Observe("YBBN_APP", 100, t0(10)) // 6-minute gap since t0(4): beyond the 5-minute window
	tr.Close("YBBN_APP", 100)

	eligible := tr.EligibleSessions(t0(10).Add(time.Hour), 5*time.Minute, 30*time.Minute)
	require.Len(t, eligible, 2)
	assert.Equal(t, t0(0), eligible[0].Start)
	assert.Equal(t, t0(4), eligible[0].End)
	assert.Equal(t, t0(10), eligible[1].Start)
	assert.Equal(t, t0(10), eligible[1].End)
}

func TestSessionTrackerObserveMergesGapExactlyAtMergeWindow(t *testing.T) {
	tr := NewSessionTracker(5 * time.Minute)
	tr.Observe("YBBN_APP", 100, t0(0))
	tr.Observe("YBBN_APP", 100, t0(5)) // exactly the 5-minute window: still one session
	tr.Close("YBBN_APP", 100)

	eligible := tr.EligibleSessions(t0(5).Add(time.Hour), 5*time.Minute, 30*time.Minute)
	require.Len(t, eligible, 1)
	assert.Equal(t, t0(0), eligible[0].Start)
	assert.Equal(t, t0(5), eligible[0].End)
}

func TestSessionTrackerCloseWithoutObserveIsNoop(t *testing.T) {
	tr := NewSessionTracker(5*time.Minute)
	tr.Close("UNKNOWN", 1)
	eligible := tr.EligibleSessions(t0(100), 5*time.Minute, 30*time.Minute)
	assert.Empty(t, eligible)
}
