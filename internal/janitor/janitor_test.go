package janitor_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-wa-fleet/internal/janitor"
	"github.com/stretchr/testify/require"
)

func TestSweepOnceUsesInjectedClock(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	j := janitor.New(time.Minute, janitor.WithNowTime(func() time.Time { return fixed }))

	var seen time.Time
	j.Add("attempts", janitor.SweeperFunc(func(now time.Time) int {
		seen = now
		return 2
	}))
	j.Add("pairing", janitor.SweeperFunc(func(time.Time) int { return 0 }))

	removed := j.SweepOnce()
	require.Equal(t, map[string]int{"attempts": 2, "pairing": 0}, removed)
	require.Equal(t, fixed, seen)
}

func TestRunStopsWithContext(t *testing.T) {
	j := janitor.New(time.Millisecond)

	var calls atomic.Int32
	j.Add("count", janitor.SweeperFunc(func(time.Time) int {
		calls.Add(1)
		return 0
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		j.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}
