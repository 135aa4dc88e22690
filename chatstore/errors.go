package chatstore

import (
	"github.com/jrsteele09/go-wa-fleet/internal/errors"
)

var (
	ErrAlreadyExists = errors.Wrapf(errors.ErrAlreadyExists, "quick reply")
	ErrNotFound      = errors.Wrapf(errors.ErrNotFound, "quick reply")
	ErrInvalidKey    = errors.Wrapf(errors.ErrInvalidInput, "quick reply key")
)
