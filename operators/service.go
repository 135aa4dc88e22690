package operators

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-wa-fleet/internal/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Service applies the operator rules on top of a Repo.
type Service struct {
	repo    Repo
	mu      sync.Mutex // Serialises read-modify-write cycles
	nowTime func() time.Time
	log     zerolog.Logger
}

type ServiceOption func(*Service)

func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

func WithLogger(l zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.log = l
	}
}

func NewService(repo Repo, options ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "[NewService] operator repo is required")
	}
	s := &Service{
		repo:    repo,
		nowTime: time.Now,
		log:     log.Logger,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

func normaliseUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Bootstrap makes sure the owner exists, is a developer and has the configured password.
// An empty password leaves the owner able to sign in through SSO only.
func (s *Service) Bootstrap(username, password, email string) (*Operator, error) {
	username = normaliseUsername(username)
	if username == "" {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "[Bootstrap] owner username is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	op, err := s.repo.GetByUsername(username)
	switch {
	case errors.Is(err, errors.ErrOperatorNotFound):
		op = &Operator{
			ID:        uuid.New().String(),
			Username:  username,
			CreatedAt: s.nowTime(),
		}
	case err != nil:
		return nil, errors.Wrapf(err, "[Bootstrap] lookup owner")
	}

	op.Owner = true
	op.Role = RoleDeveloper
	if email != "" {
		op.Email = strings.ToLower(email)
	}
	if password != "" && !CheckPasswordHash(password, op.PasswordHash) {
		hash, err := HashPassword(password)
		if err != nil {
			return nil, errors.Wrapf(err, "[Bootstrap] hash password")
		}
		op.PasswordHash = hash
	}
	if op.PasswordHash == "" {
		s.log.Warn().Str("username", username).Msg("owner has no password, only SSO sign-in will work")
	}

	if err := s.repo.Upsert(op); err != nil {
		return nil, errors.Wrapf(err, "[Bootstrap] save owner")
	}
	return op.Clone(), nil
}

// Create adds an operator with a password login.
func (s *Service) Create(username, password string, role Role) (*Operator, error) {
	username = normaliseUsername(username)
	if username == "" {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "[Create] username is required")
	}
	if !role.Valid() {
		return nil, errors.Wrapf(errors.ErrInvalidRole, "[Create] %q", role)
	}
	if err := ValidatePasswordStrength(password); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "[Create] %s", err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.repo.GetByUsername(username); err == nil {
		return nil, errors.Wrapf(errors.ErrAlreadyExists, "[Create] operator %q", username)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, errors.Wrapf(err, "[Create] hash password")
	}
	op := &Operator{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		Bots:         []string{},
		CreatedAt:    s.nowTime(),
	}
	if err := s.repo.Upsert(op); err != nil {
		return nil, errors.Wrapf(err, "[Create] save operator")
	}
	return op.Clone(), nil
}

// EnsureByEmail returns the operator for an SSO identity, creating a free one on first sign-in.
func (s *Service) EnsureByEmail(email, preferredUsername string) (*Operator, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "[EnsureByEmail] email is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	op, err := s.repo.GetByEmail(email)
	if err == nil {
		return op, nil
	}
	if !errors.Is(err, errors.ErrOperatorNotFound) {
		return nil, errors.Wrapf(err, "[EnsureByEmail] lookup")
	}

	username := normaliseUsername(preferredUsername)
	if username == "" {
		username = email
	}
	if _, err := s.repo.GetByUsername(username); err == nil {
		username = email
	}

	op = &Operator{
		ID:        uuid.New().String(),
		Username:  username,
		Email:     email,
		Role:      RoleFree,
		Bots:      []string{},
		CreatedAt: s.nowTime(),
	}
	if err := s.repo.Upsert(op); err != nil {
		return nil, errors.Wrapf(err, "[EnsureByEmail] save operator")
	}
	s.log.Info().Str("operator_id", op.ID).Str("email", email).Msg("operator created from SSO sign-in")
	return op.Clone(), nil
}

func (s *Service) Get(id string) (*Operator, error) {
	return s.repo.GetByID(id)
}

func (s *Service) GetByUsername(username string) (*Operator, error) {
	return s.repo.GetByUsername(normaliseUsername(username))
}

func (s *Service) List() ([]*Operator, error) {
	return s.repo.List()
}

// RecordLogin stamps the last login time.
func (s *Service) RecordLogin(id string) error {
	return s.update(id, func(op *Operator) error {
		op.LastLogin = s.nowTime()
		return nil
	})
}

// SetRole changes the role of target. Only developers may do it and the owner
// always stays a developer.
func (s *Service) SetRole(actorID, targetID string, role Role) (*Operator, error) {
	if !role.Valid() {
		return nil, errors.Wrapf(errors.ErrInvalidRole, "[SetRole] %q", role)
	}

	actor, err := s.repo.GetByID(actorID)
	if err != nil {
		return nil, errors.Wrapf(err, "[SetRole] actor")
	}
	if !actor.IsDeveloper() {
		return nil, errors.Wrapf(errors.ErrForbidden, "[SetRole] %s is not a developer", actor.Username)
	}

	var updated *Operator
	err = s.update(targetID, func(op *Operator) error {
		if op.Owner && role != RoleDeveloper {
			return errors.Wrapf(errors.ErrForbidden, "[SetRole] the owner cannot be demoted")
		}
		op.Role = role
		updated = op.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("actor", actor.Username).Str("target", updated.Username).Str("role", string(role)).Msg("operator role changed")
	return updated, nil
}

// ReserveBot records phone as one of the operator's bots, enforcing the role limit.
// Reserving a bot the operator already owns is a no-op.
func (s *Service) ReserveBot(operatorID, phone string) error {
	return s.update(operatorID, func(op *Operator) error {
		if op.OwnsBot(phone) {
			return nil
		}
		if !op.CanAddBot() {
			return errors.Wrapf(errors.ErrBotLimitReached, "%s allows %d", op.Role, op.Role.Limit())
		}
		op.Bots = append(op.Bots, phone)
		return nil
	})
}

// ReleaseBot forgets phone for one operator.
func (s *Service) ReleaseBot(operatorID, phone string) error {
	return s.update(operatorID, func(op *Operator) error {
		op.Bots = slices.DeleteFunc(op.Bots, func(p string) bool { return p == phone })
		return nil
	})
}

// ReleaseBotEverywhere forgets phone for every operator that owns it.
func (s *Service) ReleaseBotEverywhere(phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ops, err := s.repo.List()
	if err != nil {
		return errors.Wrapf(err, "[ReleaseBotEverywhere] list operators")
	}
	for _, op := range ops {
		if !op.OwnsBot(phone) {
			continue
		}
		op.Bots = slices.DeleteFunc(op.Bots, func(p string) bool { return p == phone })
		if err := s.repo.Upsert(op); err != nil {
			return errors.Wrapf(err, "[ReleaseBotEverywhere] save %s", op.Username)
		}
	}
	return nil
}

func (s *Service) update(id string, mutate func(op *Operator) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	op, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if err := mutate(op); err != nil {
		return err
	}
	return s.repo.Upsert(op)
}
