package auth

import (
	"errors"

	fleeterrors "github.com/jrsteele09/go-wa-fleet/internal/errors"
)

var (
	InvalidLoginErr       = fleeterrors.ErrInvalidCredentials
	InvalidAccessTokenErr = fleeterrors.ErrInvalidToken
	InvalidStateErr       = errors.New("invalid or expired sso state")
	SSODisabledErr        = errors.New("sso is not configured")
)
