package credentials

import "errors"

var (
	ErrNotFound     = errors.New("credentials not found")
	ErrInvalidPhone = errors.New("invalid credentials key")
)
