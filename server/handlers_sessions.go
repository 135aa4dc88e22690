package server

import (
	"net/http"

	"github.com/jrsteele09/go-wa-fleet/operators"
	"github.com/jrsteele09/go-wa-fleet/sessions"
)

type createSessionRequest struct {
	Phone string `json:"phone"`
}

type sessionResponse struct {
	Session     *sessions.Status `json:"session"`
	PairingCode *PairingCode     `json:"pairing_code,omitempty"`
}

type setRoleRequest struct {
	Role string `json:"role"`
}

func (s *Server) ListSessionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bots, err := s.admin.ListBots(operatorFromContext(r.Context()))
		if err != nil {
			writeError(w, s.log, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"bots": bots})
	}
}

// CreateSessionHandler starts a bot. A pairing code issued on the way is moved
// from the operator's inbox into the reply.
func (s *Server) CreateSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createSessionRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, s.log, err)
			return
		}

		op := operatorFromContext(r.Context())
		st, err := s.admin.AddBot(r.Context(), op, req.Phone)
		if err != nil {
			writeError(w, s.log, err)
			return
		}
		writeJSON(w, http.StatusCreated, s.sessionResponse(op, st))
	}
}

func (s *Server) DeleteSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.admin.DeleteBot(r.Context(), operatorFromContext(r.Context()), r.PathValue("phone")); err != nil {
			writeError(w, s.log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) RestartSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		op := operatorFromContext(r.Context())
		st, err := s.admin.RestartBot(r.Context(), op, r.PathValue("phone"))
		if err != nil {
			writeError(w, s.log, err)
			return
		}
		writeJSON(w, http.StatusOK, s.sessionResponse(op, st))
	}
}

// PairingCodesHandler drains the operator's inbox.
func (s *Server) PairingCodesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		op := operatorFromContext(r.Context())
		writeJSON(w, http.StatusOK, map[string]any{"codes": s.inbox.Drain(op.ID)})
	}
}

func (s *Server) ListOperatorsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ops, err := s.admin.ListOperators(operatorFromContext(r.Context()))
		if err != nil {
			writeError(w, s.log, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"operators": ops})
	}
}

func (s *Server) SetRoleHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req setRoleRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, s.log, err)
			return
		}
		role, err := operators.ParseRole(req.Role)
		if err != nil {
			writeError(w, s.log, err)
			return
		}

		updated, err := s.admin.SetRole(operatorFromContext(r.Context()), r.PathValue("id"), role)
		if err != nil {
			writeError(w, s.log, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"operator": updated})
	}
}

func (s *Server) sessionResponse(op *operators.Operator, st *sessions.Status) sessionResponse {
	resp := sessionResponse{Session: st}
	if code, ok := s.inbox.Take(op.ID, st.Phone); ok {
		resp.PairingCode = &code
	}
	return resp
}
