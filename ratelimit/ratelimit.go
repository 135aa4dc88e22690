// Package ratelimit keeps per-sender sliding windows of request timestamps.
package ratelimit

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Class separates independent limits, e.g. one sender versus everyone.
type Class string

const (
	ClassUser   Class = "user"
	ClassGlobal Class = "global"
)

// GlobalKey is the identifier used with ClassGlobal.
const GlobalKey = "*"

const defaultRetention = 5 * time.Minute

// Limit allows Max requests inside any Window.
type Limit struct {
	Max    int
	Window time.Duration
}

func (l Limit) enabled() bool {
	return l.Max > 0 && l.Window > 0
}

type windowKey struct {
	class Class
	id    string
}

// Limiter is a sliding-window rate limiter. Unknown classes are never limited.
type Limiter struct {
	mu        sync.Mutex
	limits    map[Class]Limit
	windows   map[windowKey][]time.Time
	retention time.Duration
	nowTime   func() time.Time
	log       zerolog.Logger
}

type Option func(*Limiter)

func WithLimit(class Class, limit Limit) Option {
	return func(l *Limiter) {
		l.limits[class] = limit
	}
}

// WithRetention sets how long timestamps survive a Sweep.
func WithRetention(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.retention = d
		}
	}
}

func WithNowTime(nowFunc func() time.Time) Option {
	return func(l *Limiter) {
		l.nowTime = nowFunc
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(l *Limiter) {
		l.log = logger
	}
}

// Default is 10 requests per minute per sender and 100 per minute overall.
func Default() []Option {
	return []Option{
		WithLimit(ClassUser, Limit{Max: 10, Window: time.Minute}),
		WithLimit(ClassGlobal, Limit{Max: 100, Window: time.Minute}),
	}
}

func New(options ...Option) *Limiter {
	l := &Limiter{
		limits:    make(map[Class]Limit),
		windows:   make(map[windowKey][]time.Time),
		retention: defaultRetention,
		nowTime:   time.Now,
		log:       log.Logger,
	}
	for _, opt := range options {
		opt(l)
	}
	return l
}

// Check names one window a request is counted against.
type Check struct {
	Class Class
	ID    string
}

// Allow records a request for id under class and reports whether it fits the window.
// Rejected requests are not recorded.
func (l *Limiter) Allow(class Class, id string) bool {
	return l.AllowAll(Check{Class: class, ID: id})
}

// AllowAll admits a request only when it fits every window, and then records it in
// all of them. A request rejected by any window is recorded in none.
func (l *Limiter) AllowAll(checks ...Check) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowTime()
	admitted := make([]windowKey, 0, len(checks))
	for _, c := range checks {
		limit, ok := l.limits[c.Class]
		if !ok || !limit.enabled() {
			continue
		}
		key := windowKey{class: c.Class, id: c.ID}
		times, tracked := l.windows[key]
		recent := trim(times, now, limit.Window)
		if tracked {
			l.windows[key] = recent
		}
		if len(recent) >= limit.Max {
			l.log.Warn().Str("class", string(c.Class)).Str("sender", c.ID).Msg("rate limit exceeded")
			return false
		}
		admitted = append(admitted, key)
	}

	for _, key := range admitted {
		l.windows[key] = append(l.windows[key], now)
	}
	return true
}

// Remaining is how many more requests id may make under class right now.
func (l *Limiter) Remaining(class Class, id string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	limit, ok := l.limits[class]
	if !ok || !limit.enabled() {
		return -1
	}
	recent := trim(l.windows[windowKey{class: class, id: id}], l.nowTime(), limit.Window)
	return limit.Max - len(recent)
}

// Sweep forgets timestamps older than both the retention and their class window, and
// drops empty keys.
func (l *Limiter) Sweep(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, times := range l.windows {
		keep := max(l.retention, l.limits[key.class].Window)
		recent := trim(times, now, keep)
		if len(recent) == 0 {
			delete(l.windows, key)
			removed++
			continue
		}
		l.windows[key] = recent
	}
	return removed
}

func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// trim keeps the timestamps newer than window. times is ordered oldest first.
func trim(times []time.Time, now time.Time, window time.Duration) []time.Time {
	i := 0
	for i < len(times) && now.Sub(times[i]) >= window {
		i++
	}
	if i == 0 {
		return times
	}
	return append(times[:0:0], times[i:]...)
}
