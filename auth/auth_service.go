// Package auth signs operators in and turns bearer tokens back into operators.
package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-wa-fleet/auth/flowrepo"
	"github.com/jrsteele09/go-wa-fleet/operators"
	"github.com/jrsteele09/go-wa-fleet/token"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const defaultFlowTTL = 10 * time.Minute

// Operators is the part of the operator service sign-in needs.
type Operators interface {
	Get(id string) (*operators.Operator, error)
	GetByUsername(username string) (*operators.Operator, error)
	EnsureByEmail(email, preferredUsername string) (*operators.Operator, error)
	RecordLogin(id string) error
}

// LoginResult is a signed-in operator and the token to present on later requests.
type LoginResult struct {
	Operator  *operators.Operator `json:"operator"`
	Token     *token.AccessToken  `json:"token"`
	ReturnURL string              `json:"return_url,omitempty"`
}

// Service provides password and SSO sign-in for operators.
type Service struct {
	operators    Operators
	tokenCreator *token.Manager
	flows        flowrepo.Repo
	sso          SSOProvider
	flowTTL      time.Duration
	nowTime      func() time.Time
	log          zerolog.Logger
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
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

// WithSSO enables single sign-on through provider, keeping in-progress logins in flows.
func WithSSO(provider SSOProvider, flows flowrepo.Repo) ServiceOption {
	return func(s *Service) {
		s.sso = provider
		s.flows = flows
	}
}

// WithFlowTTL bounds how long a started SSO login may take.
func WithFlowTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.flowTTL = ttl
	}
}

// NewService initializes a new Service with required dependencies.
func NewService(ops Operators, tokenCreator *token.Manager, options ...ServiceOption) (*Service, error) {
	if ops == nil {
		return nil, errors.New("[NewService] operators is required")
	}
	if tokenCreator == nil {
		return nil, errors.New("[NewService] tokenCreator is required")
	}

	s := &Service{
		operators:    ops,
		tokenCreator: tokenCreator,
		flowTTL:      defaultFlowTTL,
		nowTime:      time.Now,
		log:          log.Logger,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.sso != nil && s.flows == nil {
		return nil, errors.New("[NewService] sso requires a flow repo")
	}
	return s, nil
}

// SSOEnabled reports whether BeginSSO can be used.
func (s *Service) SSOEnabled() bool {
	return s.sso != nil
}

// Login checks a username and password and issues a token.
func (s *Service) Login(username, password string) (*LoginResult, error) {
	op, err := s.operators.GetByUsername(username)
	if err != nil {
		// Same answer for unknown users and wrong passwords
		return nil, errors.Wrap(InvalidLoginErr, "[Login]")
	}
	if op.PasswordHash == "" || !operators.CheckPasswordHash(password, op.PasswordHash) {
		s.log.Info().Str("username", op.Username).Msg("failed operator login")
		return nil, errors.Wrap(InvalidLoginErr, "[Login]")
	}
	return s.issue(op, "")
}

// Authenticate resolves a bearer token to the operator it was issued to. The
// operator is read fresh so role changes apply to tokens already issued.
func (s *Service) Authenticate(rawToken string) (*operators.Operator, error) {
	info, err := s.tokenCreator.Introspection(rawToken)
	if err != nil || info == nil || !info.Active {
		return nil, errors.Wrap(InvalidAccessTokenErr, "[Authenticate]")
	}

	op, err := s.operators.Get(info.Sub)
	if err != nil {
		return nil, errors.Wrap(InvalidAccessTokenErr, "[Authenticate] operator no longer exists")
	}
	return op, nil
}

// Logout revokes rawToken.
func (s *Service) Logout(rawToken string) error {
	if err := s.tokenCreator.RevokeAccessToken(rawToken); err != nil {
		return errors.Wrap(InvalidAccessTokenErr, "[Logout] "+err.Error())
	}
	return nil
}

// BeginSSO starts an authorization-code login with PKCE and returns the URL to send the browser to.
func (s *Service) BeginSSO(returnURL string) (string, error) {
	if s.sso == nil {
		return "", errors.Wrap(SSODisabledErr, "[BeginSSO]")
	}

	state := uuid.New().String()
	flow := &flowrepo.FlowState{
		CodeVerifier: oauth2.GenerateVerifier(),
		Nonce:        uuid.New().String(),
		ReturnURL:    returnURL,
		CreatedAt:    s.nowTime(),
	}
	if err := s.flows.Upsert(state, flow); err != nil {
		return "", errors.Wrap(err, "[BeginSSO] store flow state")
	}
	return s.sso.AuthCodeURL(state, flow.Nonce, flow.CodeVerifier), nil
}

// CompleteSSO finishes the login identified by state, creating the operator on first sign-in.
func (s *Service) CompleteSSO(ctx context.Context, state, code string) (*LoginResult, error) {
	if s.sso == nil {
		return nil, errors.Wrap(SSODisabledErr, "[CompleteSSO]")
	}
	if state == "" || code == "" {
		return nil, errors.Wrap(InvalidStateErr, "[CompleteSSO] missing code or state")
	}

	flow, err := s.flows.Take(state)
	if err != nil {
		return nil, errors.Wrap(InvalidStateErr, "[CompleteSSO]")
	}
	if s.nowTime().Sub(flow.CreatedAt) > s.flowTTL {
		return nil, errors.Wrap(InvalidStateErr, "[CompleteSSO] flow expired")
	}

	identity, err := s.sso.Exchange(ctx, code, flow.CodeVerifier, flow.Nonce)
	if err != nil {
		return nil, errors.Wrap(err, "[CompleteSSO] exchange")
	}
	if identity.Email == "" {
		return nil, errors.Wrap(InvalidLoginErr, "[CompleteSSO] identity has no email")
	}

	op, err := s.operators.EnsureByEmail(identity.Email, preferredUsername(identity))
	if err != nil {
		return nil, errors.Wrap(err, "[CompleteSSO] resolve operator")
	}
	return s.issue(op, flow.ReturnURL)
}

func (s *Service) issue(op *operators.Operator, returnURL string) (*LoginResult, error) {
	if err := s.operators.RecordLogin(op.ID); err != nil {
		s.log.Warn().Err(err).Str("operator_id", op.ID).Msg("failed to record login")
	}

	at, err := s.tokenCreator.CreateAccessToken(op)
	if err != nil {
		return nil, errors.Wrap(err, "[issue] create access token")
	}
	s.log.Info().Str("operator_id", op.ID).Str("username", op.Username).Msg("operator signed in")
	return &LoginResult{Operator: op, Token: at, ReturnURL: returnURL}, nil
}

func preferredUsername(id *Identity) string {
	if id.PreferredUsername != "" {
		return id.PreferredUsername
	}
	local, _, _ := strings.Cut(id.Email, "@")
	return local
}
