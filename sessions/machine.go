package sessions

import (
	"context"
	"time"

	"github.com/jrsteele09/go-wa-fleet/credentials"
	"github.com/jrsteele09/go-wa-fleet/internal/errors"
	"github.com/jrsteele09/go-wa-fleet/internal/utils"
	"github.com/jrsteele09/go-wa-fleet/transport"
)

const (
	logoutTimeout       = 5 * time.Second
	onlineNoticeTimeout = 10 * time.Second
	storeTimeout        = 10 * time.Second
)

// errHandleEnded means the handle's loop already took care of the failure.
var errHandleEnded = errors.Wrapf(errors.ErrSessionClosed, "connection ended before pairing")

// establish loads credentials, opens a handle and pairs it when the stored
// credentials are missing or unregistered. waitCtx bounds the pairing wait only.
func (s *Session) establish(waitCtx context.Context) error {
	creds, err := s.registry.store.Load(s.ctx, s.phone)
	switch {
	case errors.Is(err, credentials.ErrNotFound):
		creds = nil
	case err != nil:
		return errors.Wrapf(err, "[Session establish] load credentials for %s", s.phone)
	}

	registered := creds != nil && creds.Registered
	if !registered {
		s.setState(StateAwaitingPairing)
	} else {
		s.setState(StateConnecting)
	}

	h, err := s.registry.client.Connect(s.ctx, s.phone, creds)
	if err != nil {
		return errors.Wrapf(err, "[Session establish] connect %s", s.phone)
	}

	ready, done, err := s.install(h)
	if err != nil {
		_ = h.Close()
		return err
	}

	if registered {
		return nil
	}
	return s.pair(waitCtx, h, ready, done)
}

func (s *Session) pair(waitCtx context.Context, h transport.Handle, ready, done <-chan struct{}) error {
	timer := time.NewTimer(s.registry.pairingTimeout)
	defer timer.Stop()

	select {
	case <-ready:
	case <-done:
		return errHandleEnded
	case <-timer.C:
		s.abandon(h)
		return errors.Wrapf(errors.ErrPairingTimeout, "[Session pair] %s after %s", s.phone, s.registry.pairingTimeout)
	case <-waitCtx.Done():
		s.abandon(h)
		return errors.Wrapf(waitCtx.Err(), "[Session pair] %s", s.phone)
	case <-s.ctx.Done():
		return errors.ErrSessionClosed
	}

	code, err := h.RequestPairingCode(waitCtx, utils.DigitsOnly(s.phone))
	if err != nil {
		s.abandon(h)
		return errors.Wrapf(err, "[Session pair] request pairing code for %s", s.phone)
	}

	s.deliverPairingCode(waitCtx, code)
	return nil
}

// abandon drops h without treating its end as a connection failure.
func (s *Session) abandon(h transport.Handle) {
	s.detach(h)
	_ = h.Close()
}

func (s *Session) deliverPairingCode(ctx context.Context, code string) {
	req, ok := s.registry.pairing.Take(s.phone)
	if !ok || req.Destination == "" || s.registry.notifier == nil {
		s.log.Warn().Msg("pairing code issued with nowhere to deliver it, discarded")
		return
	}

	if err := s.registry.notifier.DeliverPairingCode(ctx, req.Destination, s.phone, code); err != nil {
		s.log.Error().Err(err).Str("destination", req.Destination).Msg("failed to deliver pairing code")
		return
	}
	s.log.Info().Str("destination", req.Destination).Msg("pairing code delivered")
}

// run processes the events of one handle in order until it ends.
func (s *Session) run(h transport.Handle, ready, done chan struct{}) {
	defer s.wg.Done()
	defer close(done)

	readySignalled := false
	for {
		select {
		case <-s.ctx.Done():
			return
		case ev, ok := <-h.Events():
			if !ok {
				if s.current(h) {
					s.handleClose(h, transport.Event{Type: transport.EventClose, Reason: transport.CloseConnectionClosed})
				}
				return
			}
			if s.ctx.Err() != nil {
				return
			}

			switch ev.Type {
			case transport.EventConnecting:
				if s.State() != StateAwaitingPairing {
					s.setState(StateConnecting)
				}
			case transport.EventPairingReady:
				if !readySignalled {
					readySignalled = true
					close(ready)
				}
			case transport.EventCredentialsUpdated:
				s.saveCredentials(ev.Credentials)
			case transport.EventOpen:
				s.handleOpen(h)
			case transport.EventMessage:
				s.dispatch(ev.Message)
			case transport.EventClose:
				s.handleClose(h, ev)
				return
			}
		}
	}
}

func (s *Session) saveCredentials(creds *credentials.Credentials) {
	if creds == nil {
		return
	}
	creds = creds.Clone()
	creds.Phone = s.phone
	if creds.UpdatedAt.IsZero() {
		creds.UpdatedAt = s.registry.nowTime()
	}

	// Detached from s.ctx so a save under way when the session stops still lands.
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := s.registry.store.Save(ctx, creds); err != nil {
		s.log.Error().Err(err).Msg("failed to save credentials")
		return
	}

	if creds.Registered && s.State() == StateAwaitingPairing {
		s.setState(StateConnecting)
	}
}

func (s *Session) handleOpen(h transport.Handle) {
	s.markOpen()
	s.registry.attempts.Clear(s.phone)
	s.log.Info().Msg("session open")

	notice := s.registry.onlineNotice
	if notice == "" {
		return
	}
	ctx, cancel := context.WithTimeout(s.ctx, onlineNoticeTimeout)
	defer cancel()
	if err := h.SendMessage(ctx, h.SelfID(), transport.Payload{Text: notice}); err != nil {
		s.log.Warn().Err(err).Msg("failed to send online notice")
	}
}

func (s *Session) dispatch(msg *transport.Message) {
	if msg == nil || s.registry.dispatcher == nil {
		return
	}
	go s.registry.dispatcher.Dispatch(s.ctx, s.phone, s, *msg)
}

func (s *Session) handleClose(h transport.Handle, ev transport.Event) {
	if !s.detach(h) {
		return
	}
	_ = h.Close()
	s.recordClose(ev.Reason)

	logger := s.log.With().Str("reason", string(ev.Reason)).Logger()
	if ev.Err != nil {
		logger = logger.With().AnErr("cause", ev.Err).Logger()
	}

	switch ev.Reason {
	case transport.CloseLoggedOut:
		logger.Warn().Msg("session logged out, removing")
		s.registry.terminate(s)
		return
	case transport.CloseBadSession:
		logger.Warn().Msg("bad session, deleting credentials before reconnecting")
		s.registry.deleteCredentials(s)
	default:
		logger.Info().Msg("connection closed")
	}

	if !s.isInstalled() {
		return
	}
	s.registry.retry(s)
}
