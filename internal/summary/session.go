package summary

import (
	"sort"
	"sync"
	"time"
)

// Session is a candidate interval of a controller's continuous
// presence in the upstream snapshot, identified by (callsign, CID).
type Session struct {
	Callsign string
	CID      int64
	Start    time.Time
	End      time.Time
}

// MergeSessions implements the §4.11 merging rule: given candidate
// sessions for the same (callsign, CID) sorted by start time, two
// adjacent sessions A, B merge into [a.Start, b.End] iff
// b.Start - a.End <= window. Merging is transitive -- the result of
// one merge is compared against the next candidate in the same pass.
func MergeSessions(sessions []Session, window time.Duration) []Session {
	if len(sessions) == 0 {
		return nil
	}
	sorted := make([]Session, len(sessions))
	copy(sorted, sessions)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	merged := []Session{sorted[0]}
	for _, next := range sorted[1:] {
		last := &merged[len(merged)-1]
		if next.Start.Sub(last.End) <= window {
			if next.End.After(last.End) {
				last.End = next.End
			}
			continue
		}
		merged = append(merged, next)
	}
	return merged
}

// SessionTracker maintains, per (callsign, CID), the currently-open
// raw session plus any already-closed-but-unmerged candidate
// sessions, fed by each ingest tick's controller observations and the
// Controller Summary Job's closures of stale controllers.
type SessionTracker struct {
	mu          sync.Mutex
	mergeWindow time.Duration
	open        map[sessionKey]*Session
	completed   map[sessionKey][]Session
}

type sessionKey struct {
	Callsign string
	CID      int64
}

// NewSessionTracker builds an empty tracker. mergeWindow is W_merge:
// an observed gap larger than this splits the open session in two
// right away, so MergeSessions later sees the real pre-merge
// candidates instead of one session artificially spanning the gap.
func NewSessionTracker(mergeWindow time.Duration) *SessionTracker {
	return &SessionTracker{
		mergeWindow: mergeWindow,
		open:        make(map[sessionKey]*Session),
		completed:   make(map[sessionKey][]Session),
	}
}

// Observe records that a controller callsign was present at time t,
// extending its open session, splitting it if the gap since the last
// observation exceeds mergeWindow, or starting a new one.
func (t *SessionTracker) Observe(callsign string, cid int64, at time.Time) {
	key := sessionKey{callsign, cid}
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.open[key]
	if !ok {
		t.open[key] = &Session{Callsign: callsign, CID: cid, Start: at, End: at}
		return
	}
	if at.Sub(s.End) > t.mergeWindow {
		t.completed[key] = append(t.completed[key], *s)
		t.open[key] = &Session{Callsign: callsign, CID: cid, Start: at, End: at}
		return
	}
	if at.After(s.End) {
		s.End = at
	}
}

// Close finalizes the open session for a callsign (called by
// ControllerSummaryJob.Run once the live row is stale), moving it into the completed
// list awaiting merge + eligibility.
func (t *SessionTracker) Close(callsign string, cid int64) {
	key := sessionKey{callsign, cid}
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.open[key]
	if !ok {
		return
	}
	t.completed[key] = append(t.completed[key], *s)
	delete(t.open, key)
}

// EligibleSessions returns, for every (callsign, CID) with completed
// sessions, the merged sessions whose end is at least T_cc in the
// past -- ready for the Controller Summarizer to process.
func (t *SessionTracker) EligibleSessions(now time.Time, mergeWindow, completeAfter time.Duration) []Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	var eligible []Session
	for key, sessions := range t.completed {
		merged := MergeSessions(sessions, mergeWindow)
		var remaining []Session
		for _, s := range merged {
			if now.Sub(s.End) >= completeAfter {
				eligible = append(eligible, s)
			} else {
				remaining = append(remaining, s)
			}
		}
		if len(remaining) == 0 {
			delete(t.completed, key)
		} else {
			t.completed[key] = remaining
		}
	}
	return eligible
}
