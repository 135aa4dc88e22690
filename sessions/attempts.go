package sessions

import (
	"sync"
	"time"
)

// AttemptRecord counts consecutive failed connections for one phone.
type AttemptRecord struct {
	Count       int
	LastAttempt time.Time
}

// AttemptRecords is the reconnect bookkeeping shared by every session.
type AttemptRecords struct {
	mu        sync.Mutex
	records   map[string]AttemptRecord
	staleness time.Duration
	nowTime   func() time.Time
}

func NewAttemptRecords(staleness time.Duration, nowTime func() time.Time) *AttemptRecords {
	if nowTime == nil {
		nowTime = time.Now
	}
	return &AttemptRecords{
		records:   make(map[string]AttemptRecord),
		staleness: staleness,
		nowTime:   nowTime,
	}
}

func (a *AttemptRecords) Get(phone string) (AttemptRecord, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	rec, ok := a.records[phone]
	return rec, ok
}

// Increment records one more attempt and returns the updated record.
func (a *AttemptRecords) Increment(phone string) AttemptRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	rec := a.records[phone]
	rec.Count++
	rec.LastAttempt = a.nowTime()
	a.records[phone] = rec
	return rec
}

func (a *AttemptRecords) Clear(phone string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.records, phone)
}

func (a *AttemptRecords) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.records)
}

// Sweep drops records whose last attempt is older than the staleness window.
func (a *AttemptRecords) Sweep(now time.Time) int {
	if a.staleness <= 0 {
		return 0
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	removed := 0
	for phone, rec := range a.records {
		if now.Sub(rec.LastAttempt) > a.staleness {
			delete(a.records, phone)
			removed++
		}
	}
	return removed
}
