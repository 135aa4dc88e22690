package backoff_test

import (
	"math"
	"testing"
	"time"

	"github.com/jrsteele09/go-wa-fleet/backoff"
	"github.com/stretchr/testify/require"
)

func TestDefaultSchedule(t *testing.T) {
	p := backoff.Default()

	want := []time.Duration{
		5000 * time.Millisecond,
		10000 * time.Millisecond,
		20000 * time.Millisecond,
		40000 * time.Millisecond,
		80000 * time.Millisecond,
	}
	for attempt, expected := range want {
		d, ok := p.Next(attempt)
		require.True(t, ok, "attempt %d", attempt)
		require.Equal(t, expected, d, "attempt %d", attempt)
	}

	_, ok := p.Next(5)
	require.False(t, ok)
	_, ok = p.Next(6)
	require.False(t, ok)
}

func TestDelaysAreNonDecreasing(t *testing.T) {
	p := backoff.Policy{BaseDelay: 3 * time.Millisecond, MaxAttempts: 80}

	prev := time.Duration(0)
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		d, ok := p.Next(attempt)
		require.True(t, ok)
		require.GreaterOrEqual(t, d, prev)
		prev = d
	}
	require.Equal(t, time.Duration(math.MaxInt64), prev)
}

func TestMaxDelayCaps(t *testing.T) {
	p := backoff.Policy{BaseDelay: time.Second, MaxDelay: 5 * time.Second, MaxAttempts: 10}

	d, ok := p.Next(0)
	require.True(t, ok)
	require.Equal(t, time.Second, d)

	d, ok = p.Next(3)
	require.True(t, ok)
	require.Equal(t, 5*time.Second, d)
}

func TestZeroAttemptsGivesUpImmediately(t *testing.T) {
	p := backoff.Policy{BaseDelay: time.Second}
	_, ok := p.Next(0)
	require.False(t, ok)
}

func TestNegativeAttemptTreatedAsFirst(t *testing.T) {
	d, ok := backoff.Default().Next(-1)
	require.True(t, ok)
	require.Equal(t, backoff.DefaultBaseDelay, d)
}
