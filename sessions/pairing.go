package sessions

import (
	"sync"
	"time"
)

// PairingRequest remembers who asked for a phone to be paired so the code can be sent back.
type PairingRequest struct {
	Phone       string
	Destination string
	RequestedAt time.Time
}

type PairingRequests struct {
	mu        sync.RWMutex
	requests  map[string]PairingRequest
	staleness time.Duration
}

func NewPairingRequests(staleness time.Duration) *PairingRequests {
	return &PairingRequests{
		requests:  make(map[string]PairingRequest),
		staleness: staleness,
	}
}

func (p *PairingRequests) Put(req PairingRequest) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests[req.Phone] = req
}

func (p *PairingRequests) Get(phone string) (PairingRequest, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	req, ok := p.requests[phone]
	return req, ok
}

// Take returns and forgets the request for phone.
func (p *PairingRequests) Take(phone string) (PairingRequest, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	req, ok := p.requests[phone]
	if ok {
		delete(p.requests, phone)
	}
	return req, ok
}

func (p *PairingRequests) Delete(phone string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.requests, phone)
}

func (p *PairingRequests) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.requests)
}

func (p *PairingRequests) Sweep(now time.Time) int {
	if p.staleness <= 0 {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	removed := 0
	for phone, req := range p.requests {
		if now.Sub(req.RequestedAt) > p.staleness {
			delete(p.requests, phone)
			removed++
		}
	}
	return removed
}
