// Package admin applies operator ownership and role rules to the session registry.
package admin

import (
	"context"
	"sort"

	"github.com/jrsteele09/go-wa-fleet/chatstore"
	"github.com/jrsteele09/go-wa-fleet/internal/errors"
	"github.com/jrsteele09/go-wa-fleet/operators"
	"github.com/jrsteele09/go-wa-fleet/sessions"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Sessions is the registry surface the admin service drives.
type Sessions interface {
	Create(ctx context.Context, phone string, opts sessions.CreateOptions) (*sessions.Session, error)
	Remove(ctx context.Context, phone string) error
	Restart(ctx context.Context, phone string, opts sessions.CreateOptions) (*sessions.Session, error)
	Get(phone string) (*sessions.Session, bool)
	List() []sessions.Status
}

// Operators is the operator service surface the admin service needs.
type Operators interface {
	Get(id string) (*operators.Operator, error)
	List() ([]*operators.Operator, error)
	SetRole(actorID, targetID string, role operators.Role) (*operators.Operator, error)
	ReserveBot(operatorID, phone string) error
	ReleaseBot(operatorID, phone string) error
	ReleaseBotEverywhere(phone string) error
}

// Bot is one phone as an operator sees it. Status is nil while no session is live.
type Bot struct {
	Phone  string           `json:"phone"`
	Online bool             `json:"online"`
	Owners []string         `json:"owners,omitempty"`
	Status *sessions.Status `json:"status,omitempty"`
}

type Service struct {
	sessions  Sessions
	operators Operators
	stores    chatstore.Provider
	log       zerolog.Logger
}

type Option func(*Service)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) {
		s.log = l
	}
}

func New(sess Sessions, ops Operators, stores chatstore.Provider, options ...Option) (*Service, error) {
	if sess == nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "[admin New] sessions is required")
	}
	if ops == nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "[admin New] operators is required")
	}
	if stores == nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "[admin New] chat stores are required")
	}
	s := &Service{
		sessions:  sess,
		operators: ops,
		stores:    stores,
		log:       log.Logger,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// ListBots returns the bots actor may see. Developers see every live session and
// every owned bot; everybody else sees the bots they own, online or not.
func (s *Service) ListBots(actor *operators.Operator) ([]Bot, error) {
	ops, err := s.operators.List()
	if err != nil {
		return nil, errors.Wrapf(err, "[ListBots] list operators")
	}

	owners := make(map[string][]string)
	for _, op := range ops {
		for _, phone := range op.Bots {
			owners[phone] = append(owners[phone], op.Username)
		}
	}

	bots := make(map[string]*Bot)
	visible := func(phone string) bool {
		return actor.IsDeveloper() || actor.OwnsBot(phone)
	}

	for _, st := range s.sessions.List() {
		if !visible(st.Phone) {
			continue
		}
		bots[st.Phone] = &Bot{Phone: st.Phone, Online: st.State == sessions.StateOpen, Status: &st}
	}
	for phone := range owners {
		if _, ok := bots[phone]; ok || !visible(phone) {
			continue
		}
		bots[phone] = &Bot{Phone: phone}
	}

	out := make([]Bot, 0, len(bots))
	for phone, b := range bots {
		if actor.IsDeveloper() {
			b.Owners = owners[phone]
		}
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Phone < out[j].Phone })
	return out, nil
}

// AddBot starts a session for phone on behalf of actor. The pairing code, when one is
// needed, is delivered to the actor.
func (s *Service) AddBot(ctx context.Context, actor *operators.Operator, rawPhone string) (*sessions.Status, error) {
	phone, err := sessions.NormalizePhone(rawPhone)
	if err != nil {
		return nil, err
	}

	if _, ok := s.sessions.Get(phone); ok {
		return nil, errors.Wrapf(errors.ErrSessionExists, "[AddBot] %s", phone)
	}
	if owner, ok, err := s.otherOwner(actor, phone); err != nil {
		return nil, err
	} else if ok && !actor.IsDeveloper() {
		return nil, errors.Wrapf(errors.ErrAlreadyExists, "[AddBot] %s belongs to %s", phone, owner)
	}

	ownedBefore := actor.OwnsBot(phone)
	if err := s.operators.ReserveBot(actor.ID, phone); err != nil {
		return nil, errors.Wrapf(err, "[AddBot] %s", phone)
	}

	sess, err := s.sessions.Create(ctx, phone, sessions.CreateOptions{Destination: actor.ID})
	if err != nil {
		if !ownedBefore {
			if relErr := s.operators.ReleaseBot(actor.ID, phone); relErr != nil {
				s.log.Error().Err(relErr).Str("phone", phone).Msg("failed to release bot after create failure")
			}
		}
		return nil, err
	}

	s.log.Info().Str("operator", actor.Username).Str("phone", phone).Msg("bot added")
	st := sess.Status()
	return &st, nil
}

// DeleteBot removes the session, its chat store and every ownership of phone.
func (s *Service) DeleteBot(ctx context.Context, actor *operators.Operator, rawPhone string) error {
	phone, err := sessions.NormalizePhone(rawPhone)
	if err != nil {
		return err
	}
	if !actor.CanManage(phone) {
		return errors.Wrapf(errors.ErrForbidden, "[DeleteBot] %s", phone)
	}

	_, live := s.sessions.Get(phone)
	if !live && !s.owned(phone) {
		return errors.Wrapf(errors.ErrSessionNotFound, "[DeleteBot] %s", phone)
	}

	if err := s.sessions.Remove(ctx, phone); err != nil {
		return errors.Wrapf(err, "[DeleteBot] remove session")
	}
	if err := s.stores.Delete(phone); err != nil {
		s.log.Error().Err(err).Str("phone", phone).Msg("failed to delete chat store")
	}
	if err := s.operators.ReleaseBotEverywhere(phone); err != nil {
		return errors.Wrapf(err, "[DeleteBot] release ownership")
	}

	s.log.Info().Str("operator", actor.Username).Str("phone", phone).Msg("bot deleted")
	return nil
}

// RestartBot replaces the live session for phone, or starts one for an owned bot that is offline.
func (s *Service) RestartBot(ctx context.Context, actor *operators.Operator, rawPhone string) (*sessions.Status, error) {
	phone, err := sessions.NormalizePhone(rawPhone)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(phone) {
		return nil, errors.Wrapf(errors.ErrForbidden, "[RestartBot] %s", phone)
	}

	opts := sessions.CreateOptions{Destination: actor.ID}
	var sess *sessions.Session
	if _, live := s.sessions.Get(phone); live {
		sess, err = s.sessions.Restart(ctx, phone, opts)
	} else if s.owned(phone) {
		sess, err = s.sessions.Create(ctx, phone, opts)
	} else {
		return nil, errors.Wrapf(errors.ErrSessionNotFound, "[RestartBot] %s", phone)
	}
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("operator", actor.Username).Str("phone", phone).Msg("bot restarted")
	st := sess.Status()
	return &st, nil
}

// SetRole changes the role of another operator.
func (s *Service) SetRole(actor *operators.Operator, targetID string, role operators.Role) (*operators.Operator, error) {
	return s.operators.SetRole(actor.ID, targetID, role)
}

// ListOperators is for developers only.
func (s *Service) ListOperators(actor *operators.Operator) ([]*operators.Operator, error) {
	if !actor.IsDeveloper() {
		return nil, errors.Wrapf(errors.ErrForbidden, "[ListOperators]")
	}
	return s.operators.List()
}

func (s *Service) otherOwner(actor *operators.Operator, phone string) (string, bool, error) {
	ops, err := s.operators.List()
	if err != nil {
		return "", false, errors.Wrapf(err, "[otherOwner] list operators")
	}
	for _, op := range ops {
		if op.ID != actor.ID && op.OwnsBot(phone) {
			return op.Username, true, nil
		}
	}
	return "", false, nil
}

func (s *Service) owned(phone string) bool {
	ops, err := s.operators.List()
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list operators")
		return false
	}
	for _, op := range ops {
		if op.OwnsBot(phone) {
			return true
		}
	}
	return false
}
