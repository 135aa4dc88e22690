// Package server is the operators' HTTP JSON admin API.
package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-wa-fleet/admin"
	"github.com/jrsteele09/go-wa-fleet/auth"
	"github.com/jrsteele09/go-wa-fleet/internal/config"
	"github.com/jrsteele09/go-wa-fleet/internal/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Services are the domain services behind the routes.
type Services struct {
	Auth  *auth.Service
	Admin *admin.Service
	Inbox *Inbox
}

type Server struct {
	env    string // Environment (e.g., "DEV", "PROD")
	mux    *http.ServeMux
	routes []string
	config config.Config
	auth   *auth.Service
	admin  *admin.Service
	inbox  *Inbox
	log    zerolog.Logger
}

type Option func(*Server)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) {
		s.log = l
	}
}

func New(cfg config.Config, services Services, options ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "[Server New] config is required")
	}
	if services.Auth == nil || services.Admin == nil || services.Inbox == nil {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "[Server New] auth, admin and inbox services are required")
	}

	s := &Server{
		env:    cfg.GetEnv(),
		mux:    http.NewServeMux(),
		config: cfg,
		auth:   services.Auth,
		admin:  services.Admin,
		inbox:  services.Inbox,
		log:    log.Logger,
	}
	for _, opt := range options {
		opt(s)
	}

	s.initRoutes()
	s.logRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler http.HandlerFunc) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Routes lists the registered patterns in registration order.
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		method, path, ok := strings.Cut(route, " ")
		if !ok {
			method, path = "", route
		}
		s.log.Debug().Msgf("[%s] %s", colourMethod(method), path)
	}
}

func colourMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		return color + paddedMethod + ansiReset
	}
	return ansiGray + paddedMethod + ansiReset
}

func logRequest(s *Server, method, path string, status int, elapsed time.Duration) {
	s.log.Info().Msgf("[%s] %s %s%d%s %s", colourMethod(method), path, statusColour(status), status, ansiReset, elapsed.Round(time.Microsecond))
}
