package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-wa-fleet/internal/errors"
	"github.com/jrsteele09/go-wa-fleet/transport"
	"github.com/rs/zerolog"
)

// Status is a point-in-time view of a session for listings.
type Status struct {
	ID               string    `json:"id"`
	Phone            string    `json:"phone"`
	State            State     `json:"state"`
	Attempts         int       `json:"attempts"`
	PairingPending   bool      `json:"pairing_pending"`
	ReconnectPending bool      `json:"reconnect_pending"`
	LastCloseReason  string    `json:"last_close_reason,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	OpenedAt         time.Time `json:"opened_at,omitempty"`
}

// Session is one phone's connection. It owns at most one live transport handle,
// replaced wholesale on every reconnect.
type Session struct {
	id        string
	phone     string
	createdAt time.Time
	registry  *Registry
	log       zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu              sync.RWMutex
	state           State
	handle          transport.Handle
	installed       bool
	stopped         bool
	openedAt        time.Time
	lastCloseReason transport.CloseReason
}

func newSession(r *Registry, phone string) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.New().String()
	return &Session{
		id:        id,
		phone:     phone,
		createdAt: r.nowTime(),
		registry:  r,
		log:       r.log.With().Str("phone", phone).Str("session_id", id).Logger(),
		ctx:       ctx,
		cancel:    cancel,
		state:     StateUnauthenticated,
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Phone() string {
	return s.phone
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) Status() Status {
	rec, _ := s.registry.attempts.Get(s.phone)
	_, pairing := s.registry.pairing.Get(s.phone)

	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		ID:               s.id,
		Phone:            s.phone,
		State:            s.state,
		Attempts:         rec.Count,
		PairingPending:   s.state == StateAwaitingPairing || pairing,
		ReconnectPending: s.registry.scheduler.Pending(s.phone),
		LastCloseReason:  string(s.lastCloseReason),
		CreatedAt:        s.createdAt,
		OpenedAt:         s.openedAt,
	}
}

// SelfID is the account address of this session.
func (s *Session) SelfID() string {
	return transport.JID(s.phone)
}

// SendMessage sends through whichever handle is current.
func (s *Session) SendMessage(ctx context.Context, to string, payload transport.Payload) error {
	s.mu.RLock()
	h := s.handle
	stopped := s.stopped
	s.mu.RUnlock()

	if stopped || h == nil {
		return errors.Wrapf(errors.ErrSessionClosed, "send to %s", to)
	}
	return h.SendMessage(ctx, to, payload)
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if s.state != state {
		s.log.Debug().Str("from", s.state.String()).Str("to", state.String()).Msg("session state changed")
	}
	s.state = state
}

// install makes h the current handle and starts its event loop. The returned channels
// close when pairing is ready and when the loop ends.
func (s *Session) install(h transport.Handle) (ready <-chan struct{}, done <-chan struct{}, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return nil, nil, errors.ErrSessionClosed
	}
	if s.handle != nil && s.handle != h {
		_ = s.handle.Close()
	}
	s.handle = h

	readyCh := make(chan struct{})
	doneCh := make(chan struct{})
	s.wg.Add(1)
	go s.run(h, readyCh, doneCh)
	return readyCh, doneCh, nil
}

// detach forgets h if it is still current. It reports false for stale handles
// and for stopped sessions.
func (s *Session) detach(h transport.Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.handle != h {
		return false
	}
	s.handle = nil
	return true
}

func (s *Session) current(h transport.Handle) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.stopped && s.handle == h
}

// enter reserves a slot for background work. It fails once the session is stopped.
func (s *Session) enter() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	s.wg.Add(1)
	return true
}

func (s *Session) isInstalled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.installed
}

// markInstalled flips the session into the registry's view. It fails when the
// connection already ended during setup.
func (s *Session) markInstalled() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return errors.ErrSessionClosed
	}
	if s.handle == nil {
		return errors.Wrapf(errors.ErrSessionClosed, "connection ended during setup")
	}
	s.installed = true
	return nil
}

// stop marks the session closed and cancels its context. Only the first call
// returns the handle that was current.
func (s *Session) stop() (transport.Handle, bool) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil, false
	}
	s.stopped = true
	s.state = StateClosed
	h := s.handle
	s.handle = nil
	s.mu.Unlock()

	s.cancel()
	return h, true
}

// shutdown stops the session from outside its own goroutines and waits for them.
func (s *Session) shutdown(ctx context.Context, logout bool) {
	h, _ := s.stop()
	if h != nil {
		if logout {
			logoutCtx, cancel := context.WithTimeout(ctx, logoutTimeout)
			if err := h.Logout(logoutCtx); err != nil {
				s.log.Debug().Err(err).Msg("logout failed, closing anyway")
			}
			cancel()
		}
		_ = h.Close()
	}
	s.wg.Wait()
}

func (s *Session) recordClose(reason transport.CloseReason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastCloseReason = reason
}

func (s *Session) markOpen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.state = StateOpen
	s.openedAt = s.registry.nowTime()
}
