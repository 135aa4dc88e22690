// Package token issues and checks the bearer tokens operators use on the admin API.
package token

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-wa-fleet/internal/utils"
	"github.com/jrsteele09/go-wa-fleet/operators"
	"github.com/pkg/errors"
)

const (
	defaultIssuer   = "go-wa-fleet"
	defaultAudience = "fleet-admin"
	defaultExpiry   = 12 * time.Hour
)

// AccessToken is a freshly signed token and when it stops working.
type AccessToken struct {
	Token     string    `json:"access_token"`
	TokenType string    `json:"token_type"`
	ExpiresIn int       `json:"expires_in"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenIntrospection is what a verified token says about its operator.
// The 'active' field indicates the state of the token - if it's false, other fields may not be populated.
type TokenIntrospection struct {
	Active   bool     `json:"active"`             // True or false - Is the token valid
	Sub      string   `json:"sub,omitempty"`      // Operator ID
	Username string   `json:"username,omitempty"` // Operator username at issue time
	Roles    []string `json:"roles,omitempty"`    // Operator role at issue time
	Jti      string   `json:"jti,omitempty"`      // Unique token ID for revocation
	Exp      int64    `json:"exp,omitempty"`      // Expiration
	Iat      int64    `json:"iat,omitempty"`      // Issued at time
}

type Manager struct {
	signer       Signer            // Token signing and verification
	issuer       string            // iss claim
	audience     string            // aud claim
	revokedCache RevokedTokenCache // Cache for revoked tokens
	expiry       time.Duration
	nowFunc      func() time.Time
}

type ManagerOption func(*Manager)

func WithTokenExpiry(expiry time.Duration) ManagerOption {
	return func(m *Manager) {
		m.expiry = expiry
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func WithIssuer(issuer string) ManagerOption {
	return func(m *Manager) {
		m.issuer = issuer
	}
}

func WithAudience(audience string) ManagerOption {
	return func(m *Manager) {
		m.audience = audience
	}
}

func WithRevokedTokenCache(cache RevokedTokenCache) ManagerOption {
	return func(m *Manager) {
		m.revokedCache = cache
	}
}

func New(signer Signer, options ...ManagerOption) *Manager {
	m := &Manager{
		signer:       signer,
		issuer:       defaultIssuer,
		audience:     defaultAudience,
		revokedCache: NewInMemoryRevokedTokenCache(), // Default implementation
	}

	for _, opt := range options {
		opt(m)
	}

	if m.expiry <= 0 {
		m.expiry = defaultExpiry
	}
	if m.nowFunc == nil {
		m.nowFunc = time.Now
	}
	return m
}

// CreateAccessToken signs a token for op.
func (c *Manager) CreateAccessToken(op *operators.Operator) (*AccessToken, error) {
	if op == nil || op.ID == "" {
		return nil, errors.New("[CreateAccessToken] operator is required")
	}

	now := c.nowFunc()
	exp := now.Add(c.expiry)
	claims := jwt.MapClaims{
		"iss":      c.issuer,                  // The issuer of the token
		"sub":      op.ID,                     // The operator the token acts for
		"aud":      c.audience,                // The admin API
		"username": op.Username,               // Display only, never used for authorisation
		"roles":    []string{string(op.Role)}, // Role at issue time
		"iat":      now.Unix(),                // Issued At: the time at which the token was issued
		"exp":      exp.Unix(),                // Expiry: when the token will expire
		"jti":      uuid.New().String(),       // Unique token ID for revocation
	}

	signed, err := c.signer.Sign(claims)
	if err != nil {
		return nil, errors.Wrap(err, "[CreateAccessToken] sign")
	}
	return &AccessToken{
		Token:     signed,
		TokenType: "bearer",
		ExpiresIn: int(c.expiry.Seconds()),
		ExpiresAt: time.Unix(exp.Unix(), 0).UTC(),
	}, nil
}

// Introspection verifies rawToken. Invalid, expired and revoked tokens come back inactive.
func (c *Manager) Introspection(rawToken string) (*TokenIntrospection, error) {
	if strings.TrimSpace(rawToken) == "" {
		return &TokenIntrospection{Active: false}, nil
	}

	claims, err := c.parse(rawToken)
	if err != nil {
		return &TokenIntrospection{Active: false}, err
	}

	sub, _ := claims["sub"].(string)
	username, _ := claims["username"].(string)
	iat, _ := claims["iat"].(float64)
	exp, _ := claims["exp"].(float64)
	jti, _ := claims["jti"].(string)

	roles := utils.ToStringSlice(claims["roles"])

	active := sub != ""
	if c.nowFunc().Unix() > int64(exp) {
		active = false
	}

	// Check if token has been revoked
	if jti != "" && c.revokedCache.IsRevoked(jti) {
		active = false
	}

	return &TokenIntrospection{
		Active:   active,
		Sub:      sub,
		Username: username,
		Roles:    roles,
		Jti:      jti,
		Exp:      int64(exp),
		Iat:      int64(iat),
	}, nil
}

// RevokeAccessToken revokes an access token by its JTI
func (c *Manager) RevokeAccessToken(rawToken string) error {
	claims, err := c.parse(rawToken)
	if err != nil {
		return errors.Wrap(err, "invalid token")
	}

	jti, ok := claims["jti"].(string)
	if !ok || jti == "" {
		return errors.New("token missing jti claim")
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return errors.New("token missing exp claim")
	}

	return c.revokedCache.Add(jti, time.Unix(int64(exp), 0))
}

// Sweep removes expired entries from the revocation cache
func (c *Manager) Sweep(now time.Time) int {
	if c.revokedCache == nil {
		return 0
	}
	return c.revokedCache.Sweep(now)
}

func (c *Manager) parse(rawToken string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(rawToken, c.signer.GetVerificationKey,
		jwt.WithValidMethods([]string{c.signer.GetSigningMethod().Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithAudience(c.audience),
		jwt.WithTimeFunc(c.nowFunc),
	)
	if err != nil || !token.Valid {
		if err == nil {
			err = errors.New("token is not valid")
		}
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("error extracting claims from token")
	}
	return claims, nil
}
