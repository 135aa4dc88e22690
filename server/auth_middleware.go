package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-wa-fleet/internal/errors"
	"github.com/jrsteele09/go-wa-fleet/operators"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyOperator stores the authenticated *operators.Operator
	ContextKeyOperator ContextKey = "operator"
	// ContextKeyToken stores the raw bearer token
	ContextKeyToken ContextKey = "token"
)

// bearerToken extracts the token from an "Authorization: Bearer" header.
func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.Wrapf(errors.ErrInvalidToken, "missing Authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", errors.Wrapf(errors.ErrInvalidToken, "invalid Authorization header format")
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.Wrapf(errors.ErrInvalidToken, "empty token")
	}
	return token, nil
}

// RequireAuth is middleware that validates a Bearer access token and injects the operator
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				writeError(w, s.log, err)
				return
			}

			op, err := s.auth.Authenticate(token)
			if err != nil {
				writeError(w, s.log, err)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyOperator, op)
			ctx = context.WithValue(ctx, ContextKeyToken, token)
			next(w, r.WithContext(ctx))
		}
	}
}

// RequireDeveloper must run after RequireAuth.
func (s *Server) RequireDeveloper() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			op := operatorFromContext(r.Context())
			if op == nil || !op.IsDeveloper() {
				writeError(w, s.log, errors.ErrForbidden)
				return
			}
			next(w, r)
		}
	}
}

func operatorFromContext(ctx context.Context) *operators.Operator {
	op, _ := ctx.Value(ContextKeyOperator).(*operators.Operator)
	return op
}

func tokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(ContextKeyToken).(string)
	return token
}
