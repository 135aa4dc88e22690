// Package janitor periodically evicts stale entries from in-memory maps.
package janitor

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Sweeper drops entries that are stale at now and reports how many it removed.
type Sweeper interface {
	Sweep(now time.Time) int
}

// SweeperFunc adapts a plain function to Sweeper.
type SweeperFunc func(now time.Time) int

func (f SweeperFunc) Sweep(now time.Time) int {
	return f(now)
}

type Janitor struct {
	interval time.Duration
	nowTime  func() time.Time
	log      zerolog.Logger

	mu       sync.Mutex
	sweepers map[string]Sweeper
}

type Option func(*Janitor)

func WithNowTime(nowFunc func() time.Time) Option {
	return func(j *Janitor) {
		j.nowTime = nowFunc
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(j *Janitor) {
		j.log = l
	}
}

func New(interval time.Duration, options ...Option) *Janitor {
	j := &Janitor{
		interval: interval,
		nowTime:  time.Now,
		log:      log.Logger,
		sweepers: make(map[string]Sweeper),
	}
	for _, opt := range options {
		opt(j)
	}
	if j.interval <= 0 {
		j.interval = 5 * time.Minute
	}
	return j
}

// Add registers a named sweeper, replacing any previous one with the same name.
func (j *Janitor) Add(name string, s Sweeper) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.sweepers[name] = s
}

// SweepOnce runs every sweeper and returns the removed counts by name.
func (j *Janitor) SweepOnce() map[string]int {
	j.mu.Lock()
	names := make([]string, 0, len(j.sweepers))
	for name := range j.sweepers {
		names = append(names, name)
	}
	sweepers := make(map[string]Sweeper, len(j.sweepers))
	for k, v := range j.sweepers {
		sweepers[k] = v
	}
	j.mu.Unlock()

	sort.Strings(names)
	now := j.nowTime()
	removed := make(map[string]int, len(names))
	for _, name := range names {
		n := sweepers[name].Sweep(now)
		removed[name] = n
		if n > 0 {
			j.log.Debug().Str("map", name).Int("removed", n).Msg("swept stale entries")
		}
	}
	return removed
}

// Run sweeps on every tick until ctx is done.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.SweepOnce()
		}
	}
}
