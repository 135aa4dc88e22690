package sessions

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jrsteele09/go-wa-fleet/backoff"
	"github.com/jrsteele09/go-wa-fleet/credentials"
	"github.com/jrsteele09/go-wa-fleet/internal/errors"
	"github.com/jrsteele09/go-wa-fleet/internal/keylock"
	"github.com/jrsteele09/go-wa-fleet/transport"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
)

const (
	defaultPairingTimeout     = 30 * time.Second
	defaultStaleness          = time.Hour
	defaultRestoreConcurrency = 4
)

// CreateOptions carries the request context for a new session.
type CreateOptions struct {
	// Destination receives the pairing code when one is needed.
	Destination string
}

// Registry owns every live session, keyed by normalized phone number.
// Create, Remove and Restart for the same phone are serialized.
type Registry struct {
	client             transport.Client
	store              credentials.Store
	dispatcher         Dispatcher
	notifier           PairingNotifier
	policy             backoff.Policy
	scheduler          Scheduler
	attempts           *AttemptRecords
	pairing            *PairingRequests
	locks              *keylock.Map
	retryLocks         *keylock.Map // Serializes backoff decisions per phone
	pairingTimeout     time.Duration
	attemptStaleness   time.Duration
	pairingStaleness   time.Duration
	onlineNotice       string
	restoreConcurrency int
	nowTime            func() time.Time
	log                zerolog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

type RegistryOption func(*Registry)

func WithDispatcher(d Dispatcher) RegistryOption {
	return func(r *Registry) {
		r.dispatcher = d
	}
}

func WithPairingNotifier(n PairingNotifier) RegistryOption {
	return func(r *Registry) {
		r.notifier = n
	}
}

func WithBackoff(p backoff.Policy) RegistryOption {
	return func(r *Registry) {
		r.policy = p
	}
}

func WithScheduler(s Scheduler) RegistryOption {
	return func(r *Registry) {
		r.scheduler = s
	}
}

func WithPairingTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) {
		r.pairingTimeout = d
	}
}

// WithStaleness sets how long attempt records and pairing requests survive a sweep.
func WithStaleness(attempts, pairing time.Duration) RegistryOption {
	return func(r *Registry) {
		r.attemptStaleness = attempts
		r.pairingStaleness = pairing
	}
}

// WithOnlineNotice sets the text a session sends to itself once open. Empty disables it.
func WithOnlineNotice(text string) RegistryOption {
	return func(r *Registry) {
		r.onlineNotice = text
	}
}

func WithRestoreConcurrency(n int) RegistryOption {
	return func(r *Registry) {
		r.restoreConcurrency = n
	}
}

func WithNowTime(nowFunc func() time.Time) RegistryOption {
	return func(r *Registry) {
		r.nowTime = nowFunc
	}
}

func WithLogger(l zerolog.Logger) RegistryOption {
	return func(r *Registry) {
		r.log = l
	}
}

func NewRegistry(client transport.Client, store credentials.Store, options ...RegistryOption) (*Registry, error) {
	if client == nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "[NewRegistry] transport client is required")
	}
	if store == nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "[NewRegistry] credential store is required")
	}

	r := &Registry{
		client:             client,
		store:              store,
		policy:             backoff.Default(),
		locks:              keylock.New(),
		retryLocks:         keylock.New(),
		pairingTimeout:     defaultPairingTimeout,
		attemptStaleness:   defaultStaleness,
		pairingStaleness:   defaultStaleness,
		restoreConcurrency: defaultRestoreConcurrency,
		nowTime:            time.Now,
		log:                log.Logger,
		sessions:           make(map[string]*Session),
	}
	for _, opt := range options {
		opt(r)
	}

	if r.scheduler == nil {
		r.scheduler = NewTimerScheduler()
	}
	if r.pairingTimeout <= 0 {
		r.pairingTimeout = defaultPairingTimeout
	}
	if r.restoreConcurrency < 1 {
		r.restoreConcurrency = 1
	}
	r.attempts = NewAttemptRecords(r.attemptStaleness, r.nowTime)
	r.pairing = NewPairingRequests(r.pairingStaleness)
	return r, nil
}

// Create starts a session for phone and installs it once it is connected or its
// pairing code has been issued.
func (r *Registry) Create(ctx context.Context, phone string, opts CreateOptions) (*Session, error) {
	phone, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}

	unlock := r.locks.Lock(phone)
	defer unlock()
	return r.create(ctx, phone, opts)
}

func (r *Registry) create(ctx context.Context, phone string, opts CreateOptions) (*Session, error) {
	if _, ok := r.Get(phone); ok {
		return nil, errors.Wrapf(errors.ErrSessionExists, "[Registry Create] %s", phone)
	}

	if opts.Destination != "" {
		r.pairing.Put(PairingRequest{Phone: phone, Destination: opts.Destination, RequestedAt: r.nowTime()})
	}

	s := newSession(r, phone)
	if err := s.establish(ctx); err != nil {
		r.abort(s)
		return nil, errors.Wrapf(err, "[Registry Create] %s", phone)
	}

	if err := r.install(s); err != nil {
		r.abort(s)
		return nil, errors.Wrapf(err, "[Registry Create] %s", phone)
	}

	s.log.Info().Str("state", s.State().String()).Msg("session created")
	return s, nil
}

func (r *Registry) install(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[s.phone]; ok {
		return errors.ErrSessionExists
	}
	if err := s.markInstalled(); err != nil {
		return err
	}
	r.sessions[s.phone] = s
	return nil
}

// abort tears down a session that never made it into the registry.
func (r *Registry) abort(s *Session) {
	s.shutdown(context.Background(), false)
	r.scheduler.Cancel(s.phone)
	r.attempts.Clear(s.phone)
	r.pairing.Delete(s.phone)
}

func (r *Registry) Get(phone string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[phone]
	return s, ok
}

// List returns the status of every session ordered by phone.
func (r *Registry) List() []Status {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	statuses := make([]Status, 0, len(sessions))
	for _, s := range sessions {
		statuses = append(statuses, s.Status())
	}
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Phone < statuses[j].Phone
	})
	return statuses
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Remove logs the session out, closes it and deletes its credentials.
// Removing an unknown phone is a no-op.
func (r *Registry) Remove(ctx context.Context, phone string) error {
	phone, err := NormalizePhone(phone)
	if err != nil {
		return err
	}

	unlock := r.locks.Lock(phone)
	defer unlock()
	r.remove(ctx, phone)
	return nil
}

func (r *Registry) remove(ctx context.Context, phone string) {
	r.scheduler.Cancel(phone)

	s, ok := r.Get(phone)
	if !ok {
		return
	}

	s.shutdown(ctx, true)
	r.scheduler.Cancel(phone)
	r.deleteCredentials(s)
	r.attempts.Clear(phone)
	r.pairing.Delete(phone)
	r.evict(s)
	s.log.Info().Msg("session removed")
}

// Restart replaces the session for phone with a freshly created one.
func (r *Registry) Restart(ctx context.Context, phone string, opts CreateOptions) (*Session, error) {
	phone, err := NormalizePhone(phone)
	if err != nil {
		return nil, err
	}

	unlock := r.locks.Lock(phone)
	defer unlock()

	if _, ok := r.Get(phone); !ok {
		return nil, errors.Wrapf(errors.ErrSessionNotFound, "[Registry Restart] %s", phone)
	}
	r.remove(ctx, phone)
	return r.create(ctx, phone, opts)
}

// Restore creates a session for every phone with stored credentials.
func (r *Registry) Restore(ctx context.Context) (int, error) {
	phones, err := r.store.List(ctx)
	if err != nil {
		return 0, errors.Wrapf(err, "[Registry Restore] list stored credentials")
	}

	var restored atomic.Int32
	p := pool.New().WithMaxGoroutines(r.restoreConcurrency)
	for _, phone := range phones {
		p.Go(func() {
			if _, err := r.Create(ctx, phone, CreateOptions{}); err != nil {
				r.log.Warn().Err(err).Str("phone", phone).Msg("failed to restore session")
				return
			}
			restored.Add(1)
		})
	}
	p.Wait()

	r.log.Info().Int("stored", len(phones)).Int32("restored", restored.Load()).Msg("restored sessions")
	return int(restored.Load()), nil
}

// Shutdown closes every session but keeps credentials so they can be restored.
func (r *Registry) Shutdown(ctx context.Context) {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	p := pool.New().WithMaxGoroutines(r.restoreConcurrency)
	for _, s := range sessions {
		p.Go(func() {
			r.scheduler.Cancel(s.phone)
			s.shutdown(ctx, false)
		})
	}
	p.Wait()
}

// Sweep drops stale attempt records and pairing requests.
func (r *Registry) Sweep(now time.Time) int {
	return r.attempts.Sweep(now) + r.pairing.Sweep(now)
}

// Attempts exposes the reconnect bookkeeping, mostly for status reporting.
func (r *Registry) Attempts() *AttemptRecords {
	return r.attempts
}

func (r *Registry) PairingRequests() *PairingRequests {
	return r.pairing
}

// evict removes s from the map only if it is still the registered session for its phone.
func (r *Registry) evict(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.sessions[s.phone]; ok && current == s {
		delete(r.sessions, s.phone)
	}
}

func (r *Registry) deleteCredentials(s *Session) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := r.store.Delete(ctx, s.phone); err != nil {
		s.log.Error().Err(err).Msg("failed to delete credentials")
	}
}

// terminate ends s for good from inside its own goroutines: credentials are deleted
// and it leaves the registry.
func (r *Registry) terminate(s *Session) {
	h, first := s.stop()
	if !first {
		return
	}
	if h != nil {
		_ = h.Close()
	}
	r.scheduler.Cancel(s.phone)
	r.deleteCredentials(s)
	r.attempts.Clear(s.phone)
	r.pairing.Delete(s.phone)
	r.evict(s)
	s.log.Info().Msg("session closed")
}

// retry consults the backoff policy after a retryable failure and either arms a
// reconnect or gives up.
func (r *Registry) retry(s *Session) {
	giveUp, attempts := r.scheduleRetry(s)
	if giveUp {
		s.log.Warn().Int("attempts", attempts).Msg("reconnect attempts exhausted, giving up")
		r.terminate(s)
	}
}

// scheduleRetry makes one backoff decision per phone at a time, so concurrent failures
// of the same session count as a single attempt.
func (r *Registry) scheduleRetry(s *Session) (giveUp bool, attempts int) {
	unlock := r.retryLocks.Lock(s.phone)
	defer unlock()

	if r.scheduler.Pending(s.phone) {
		s.log.Debug().Msg("reconnect already scheduled")
		return false, 0
	}

	rec, _ := r.attempts.Get(s.phone)
	delay, ok := r.policy.Next(rec.Count)
	if !ok {
		return true, rec.Count
	}

	s.setState(StateReconnecting)
	rec = r.attempts.Increment(s.phone)
	if !r.scheduler.Schedule(s.phone, delay, func() { r.reconnect(s) }) {
		return false, rec.Count
	}
	s.log.Info().Int("attempt", rec.Count).Dur("delay", delay).Msg("reconnect scheduled")
	return false, rec.Count
}

func (r *Registry) reconnect(s *Session) {
	if !s.enter() {
		return
	}
	defer s.wg.Done()

	if current, ok := r.Get(s.phone); !ok || current != s {
		return
	}

	err := s.establish(s.ctx)
	if err == nil {
		return
	}
	if errors.Is(err, errHandleEnded) || s.ctx.Err() != nil {
		return
	}

	s.log.Warn().Err(err).Msg("reconnect failed")
	r.retry(s)
}
