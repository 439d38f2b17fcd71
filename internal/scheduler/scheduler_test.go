package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerRunsJobOnEachTick(t *testing.T) {
	s := New(time.Second)
	var runs atomic.Int32
	s.Register(&Job{Name: "test", Interval: 10 * time.Millisecond, Run: func(ctx context.Context) error {
		runs.Add(1)
		return nil
	}})

	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)
	time.Sleep(55 * time.Millisecond)
	cancel()
	time.Sleep(20 * time.Millisecond)

	require.GreaterOrEqual(t, int(runs.Load()), 3)
}

func TestSchedulerSkipsOverlappingTicks(t *testing.T) {
	s := New(time.Second)
	var runs atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})

	s.Register(&Job{Name: "slow", Interval: 5 * time.Millisecond, Run: func(ctx context.Context) error {
		n := runs.Add(1)
		if n == 1 {
			close(started)
			<-release
		}
		return nil
	}})

	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)

	<-started
	time.Sleep(40 * time.Millisecond) // several ticks elapse while the first run blocks
	// Cancel before releasing so only ticks that fell due during the
	// blocked run can add runs, not a later free-running period.
	cancel()
	close(release)
	time.Sleep(20 * time.Millisecond)

	assert.Less(t, int(runs.Load()), 5, "overlapping ticks must be skipped while a run is in progress")
}

func TestSchedulerRunReturnsAfterContextCancel(t *testing.T) {
	s := New(50 * time.Millisecond)
	s.Register(&Job{Name: "fast", Interval: time.Millisecond, Run: func(ctx context.Context) error { return nil }})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
