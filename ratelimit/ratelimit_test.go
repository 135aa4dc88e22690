package ratelimit_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-wa-fleet/ratelimit"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time {
	return c.now
}

func setupTestFixture(t *testing.T, options ...ratelimit.Option) (*ratelimit.Limiter, *clock) {
	t.Helper()
	c := &clock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	opts := append(ratelimit.Default(), ratelimit.WithNowTime(c.Now), ratelimit.WithLogger(zerolog.Nop()))
	return ratelimit.New(append(opts, options...)...), c
}

func TestEleventhRequestInWindowIsRejected(t *testing.T) {
	l, c := setupTestFixture(t)

	for i := 0; i < 10; i++ {
		require.True(t, l.Allow(ratelimit.ClassUser, "alice"), "request %d", i+1)
		c.now = c.now.Add(time.Second)
	}
	require.False(t, l.Allow(ratelimit.ClassUser, "alice"))
	require.Equal(t, 0, l.Remaining(ratelimit.ClassUser, "alice"))

	require.True(t, l.Allow(ratelimit.ClassUser, "bob"))

	c.now = c.now.Add(60 * time.Second)
	require.True(t, l.Allow(ratelimit.ClassUser, "alice"))
}

func TestWindowSlides(t *testing.T) {
	l, c := setupTestFixture(t, ratelimit.WithLimit(ratelimit.ClassUser, ratelimit.Limit{Max: 2, Window: 10 * time.Second}))

	require.True(t, l.Allow(ratelimit.ClassUser, "alice"))
	c.now = c.now.Add(6 * time.Second)
	require.True(t, l.Allow(ratelimit.ClassUser, "alice"))
	require.False(t, l.Allow(ratelimit.ClassUser, "alice"))

	c.now = c.now.Add(4 * time.Second)
	require.True(t, l.Allow(ratelimit.ClassUser, "alice"))
	require.False(t, l.Allow(ratelimit.ClassUser, "alice"))
}

func TestGlobalClassIsIndependent(t *testing.T) {
	l, _ := setupTestFixture(t, ratelimit.WithLimit(ratelimit.ClassGlobal, ratelimit.Limit{Max: 1, Window: time.Minute}))

	require.True(t, l.Allow(ratelimit.ClassGlobal, ratelimit.GlobalKey))
	require.False(t, l.Allow(ratelimit.ClassGlobal, ratelimit.GlobalKey))
	require.True(t, l.Allow(ratelimit.ClassUser, "alice"))
}

func TestUnknownClassIsUnlimited(t *testing.T) {
	l, _ := setupTestFixture(t)

	for i := 0; i < 50; i++ {
		require.True(t, l.Allow(ratelimit.Class("burst"), "alice"))
	}
	require.Equal(t, -1, l.Remaining(ratelimit.Class("burst"), "alice"))
}

func TestSweepDropsIdleSenders(t *testing.T) {
	l, c := setupTestFixture(t, ratelimit.WithRetention(5*time.Minute))

	require.True(t, l.Allow(ratelimit.ClassUser, "alice"))
	c.now = c.now.Add(4 * time.Minute)
	require.True(t, l.Allow(ratelimit.ClassUser, "bob"))
	require.Equal(t, 2, l.Len())

	require.Equal(t, 1, l.Sweep(c.now.Add(2*time.Minute)))
	require.Equal(t, 1, l.Len())
	require.Equal(t, 1, l.Sweep(c.now.Add(10*time.Minute)))
	require.Equal(t, 0, l.Len())
}

func TestAllowAllRecordsOnlyAdmittedRequests(t *testing.T) {
	l, c := setupTestFixture(t, ratelimit.WithLimit(ratelimit.ClassGlobal, ratelimit.Limit{Max: 1, Window: time.Minute}))

	check := func(sender string) bool {
		return l.AllowAll(
			ratelimit.Check{Class: ratelimit.ClassUser, ID: sender},
			ratelimit.Check{Class: ratelimit.ClassGlobal, ID: ratelimit.GlobalKey},
		)
	}

	require.True(t, check("other"))
	for i := 0; i < 10; i++ {
		require.False(t, check("alice"), "request %d", i+1)
	}
	require.Equal(t, 10, l.Remaining(ratelimit.ClassUser, "alice"))
	require.Equal(t, 9, l.Remaining(ratelimit.ClassUser, "other"))

	c.now = c.now.Add(time.Minute)
	require.True(t, check("alice"))
	require.Equal(t, 9, l.Remaining(ratelimit.ClassUser, "alice"))
}

func TestSweepKeepsTimestampsInsideLongerWindow(t *testing.T) {
	l, c := setupTestFixture(t,
		ratelimit.WithLimit(ratelimit.ClassUser, ratelimit.Limit{Max: 1, Window: 10 * time.Minute}),
		ratelimit.WithRetention(5*time.Minute),
	)

	require.True(t, l.Allow(ratelimit.ClassUser, "alice"))
	c.now = c.now.Add(7 * time.Minute)

	require.Equal(t, 0, l.Sweep(c.now))
	require.False(t, l.Allow(ratelimit.ClassUser, "alice"))

	c.now = c.now.Add(3 * time.Minute)
	require.Equal(t, 1, l.Sweep(c.now))
	require.True(t, l.Allow(ratelimit.ClassUser, "alice"))
}
