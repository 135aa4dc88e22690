package sessions

import (
	"sync"
	"time"
)

// Scheduler runs at most one delayed task per key.
type Scheduler interface {
	// Schedule arms task after delay and reports false when key already has a pending task.
	Schedule(key string, delay time.Duration, task func()) bool
	// Cancel disarms the pending task for key, if any.
	Cancel(key string) bool
	Pending(key string) bool
}

type timerEntry struct {
	timer *time.Timer
}

// TimerScheduler is a Scheduler backed by time.AfterFunc.
type TimerScheduler struct {
	mu     sync.Mutex
	timers map[string]*timerEntry
}

var _ Scheduler = (*TimerScheduler)(nil)

func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{timers: make(map[string]*timerEntry)}
}

func (s *TimerScheduler) Schedule(key string, delay time.Duration, task func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.timers[key]; ok {
		return false
	}

	entry := &timerEntry{}
	entry.timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		current, ok := s.timers[key]
		if !ok || current != entry {
			s.mu.Unlock()
			return
		}
		delete(s.timers, key)
		s.mu.Unlock()
		task()
	})
	s.timers[key] = entry
	return true
}

func (s *TimerScheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.timers[key]
	if !ok {
		return false
	}
	entry.timer.Stop()
	delete(s.timers, key)
	return true
}

func (s *TimerScheduler) Pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[key]
	return ok
}
