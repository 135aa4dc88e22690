package server

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/go-wa-fleet/auth"
	"github.com/jrsteele09/go-wa-fleet/internal/errors"
	"github.com/rs/zerolog"
)

const contentTypeJSON = "application/json; charset=utf-8"

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 64 << 10

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, errorCode, message string, statusCode int) {
	writeJSON(w, statusCode, map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrapf(errors.ErrInvalidInput, "malformed request body: %s", err.Error())
	}
	return nil
}

type errorMapping struct {
	target  error
	status  int
	code    string
	message string // Empty means the error text itself is safe to show
}

var errorMappings = []errorMapping{
	{errors.ErrInvalidCredentials, http.StatusUnauthorized, "unauthorized", "Invalid username or password"},
	{errors.ErrInvalidToken, http.StatusUnauthorized, "unauthorized", "Missing or invalid access token"},
	{errors.ErrForbidden, http.StatusForbidden, "forbidden", "You are not allowed to do that"},
	{errors.ErrBotLimitReached, http.StatusForbidden, "bot_limit_reached", ""},
	{errors.ErrSessionNotFound, http.StatusNotFound, "not_found", "No such session"},
	{errors.ErrOperatorNotFound, http.StatusNotFound, "not_found", "No such operator"},
	{errors.ErrNotFound, http.StatusNotFound, "not_found", "Not found"},
	{errors.ErrSessionExists, http.StatusConflict, "conflict", "A session for that phone already exists"},
	{errors.ErrAlreadyExists, http.StatusConflict, "conflict", ""},
	{errors.ErrInvalidPhone, http.StatusBadRequest, "invalid_request", "Phone numbers must have 10 to 15 digits"},
	{errors.ErrInvalidRole, http.StatusBadRequest, "invalid_request", ""},
	{errors.ErrInvalidInput, http.StatusBadRequest, "invalid_request", ""},
	{errors.ErrPairingTimeout, http.StatusGatewayTimeout, "pairing_timeout", "The phone was not ready for pairing in time, try again"},
	{auth.InvalidStateErr, http.StatusBadRequest, "invalid_state", "The sign-in link expired, start again"},
	{auth.SSODisabledErr, http.StatusNotFound, "sso_disabled", "Single sign-on is not configured"},
}

// writeError maps err onto one JSON error reply. Unknown errors are logged and
// reported without their text.
func writeError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		message := m.message
		if message == "" {
			message = err.Error()
		}
		writeJSONError(w, m.code, message, m.status)
		return
	}

	logger.Error().Err(err).Msg("request failed")
	writeJSONError(w, "server_error", "Something went wrong", http.StatusInternalServerError)
}
