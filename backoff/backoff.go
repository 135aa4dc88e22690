// Package backoff decides how long to wait before the next reconnect attempt.
package backoff

import (
	"math"
	"time"
)

const (
	DefaultBaseDelay   = 5 * time.Second
	DefaultMaxAttempts = 5
)

// Policy produces BaseDelay * 2^attempt for attempts 0..MaxAttempts-1. A zero MaxDelay means uncapped.
type Policy struct {
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxAttempts int
}

func Default() Policy {
	return Policy{BaseDelay: DefaultBaseDelay, MaxAttempts: DefaultMaxAttempts}
}

// Next returns the delay for the given zero-based attempt, or false once the attempts are used up.
func (p Policy) Next(attempt int) (time.Duration, bool) {
	if attempt < 0 {
		attempt = 0
	}
	if attempt >= p.MaxAttempts {
		return 0, false
	}
	return p.delay(attempt), true
}

func (p Policy) delay(attempt int) time.Duration {
	ceiling := time.Duration(math.MaxInt64)
	if p.MaxDelay > 0 {
		ceiling = p.MaxDelay
	}
	if p.BaseDelay <= 0 {
		return 0
	}

	d := p.BaseDelay
	for i := 0; i < attempt; i++ {
		if d > ceiling/2 {
			return ceiling
		}
		d *= 2
	}
	if d > ceiling {
		return ceiling
	}
	return d
}
