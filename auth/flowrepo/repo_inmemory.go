package flowrepo

import (
	"sync"
	"time"

	"github.com/jrsteele09/go-wa-fleet/internal/errors"
)

const defaultTTL = 10 * time.Minute

// InMemoryRepo is a thread-safe in-memory implementation of the Repo interface
type InMemoryRepo struct {
	mu     sync.Mutex
	ttl    time.Duration
	states map[string]*FlowState
}

// NewInMemoryRepo creates a repo whose entries are swept once they are older than ttl
func NewInMemoryRepo(ttl time.Duration) *InMemoryRepo {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &InMemoryRepo{
		ttl:    ttl,
		states: make(map[string]*FlowState),
	}
}

// TTL is how long a started login stays valid.
func (r *InMemoryRepo) TTL() time.Duration {
	return r.ttl
}

// Upsert stores or updates a flow state
func (r *InMemoryRepo) Upsert(state string, flow *FlowState) error {
	if state == "" {
		return errors.Wrapf(errors.ErrInvalidInput, "state cannot be empty")
	}
	if flow == nil {
		return errors.Wrapf(errors.ErrInvalidInput, "flow cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Copy to prevent external modifications
	stored := *flow
	r.states[state] = &stored
	return nil
}

func (r *InMemoryRepo) Take(state string) (*FlowState, error) {
	if state == "" {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "state cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	flow, exists := r.states[state]
	if !exists {
		return nil, errors.Wrapf(errors.ErrNotFound, "state %q", state)
	}
	delete(r.states, state)
	return flow, nil
}

// Sweep drops flows that were started more than the TTL before now.
func (r *InMemoryRepo) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for state, flow := range r.states {
		if now.Sub(flow.CreatedAt) > r.ttl {
			delete(r.states, state)
			removed++
		}
	}
	return removed
}

func (r *InMemoryRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}
