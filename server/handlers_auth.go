package server

import (
	"net/http"

	"github.com/jrsteele09/go-wa-fleet/internal/errors"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// LoginHandler exchanges a username and password for a bearer token.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, s.log, err)
			return
		}
		if req.Username == "" || req.Password == "" {
			writeError(w, s.log, errors.Wrapf(errors.ErrInvalidInput, "username and password are required"))
			return
		}

		res, err := s.auth.Login(req.Username, req.Password)
		if err != nil {
			writeError(w, s.log, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.auth.Logout(tokenFromContext(r.Context())); err != nil {
			writeError(w, s.log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// SSOLoginHandler redirects the browser to the identity provider.
func (s *Server) SSOLoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		redirectURL, err := s.auth.BeginSSO(r.URL.Query().Get("return_url"))
		if err != nil {
			writeError(w, s.log, err)
			return
		}
		http.Redirect(w, r, redirectURL, http.StatusFound)
	}
}

// SSOCallbackHandler finishes the SSO login and answers with the bearer token.
func (s *Server) SSOCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if errorParam := r.FormValue("error"); errorParam != "" {
			writeJSONError(w, "access_denied", "Sign-in was refused: "+errorParam, http.StatusUnauthorized)
			return
		}

		res, err := s.auth.CompleteSSO(r.Context(), r.FormValue("state"), r.FormValue("code"))
		if err != nil {
			writeError(w, s.log, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		op := operatorFromContext(r.Context())
		writeJSON(w, http.StatusOK, map[string]any{
			"operator":  op,
			"bot_limit": op.Role.Limit(),
		})
	}
}
