package server

import "net/http"

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.RecoverMiddleware))

	// Sign-in
	s.RegisterRouteFunc("POST "+RouteLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteFunc("GET "+RouteSSOLogin, ChainMiddleware(s.SSOLoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteSSOCallback, ChainMiddleware(s.SSOCallbackHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteMe, ChainMiddleware(s.MeHandler(), s.APIMiddleware(s.RequireAuth())...))

	// Sessions
	s.RegisterRouteFunc("GET "+RouteSessions, ChainMiddleware(s.ListSessionsHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteFunc("POST "+RouteSessions, ChainMiddleware(s.CreateSessionHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteFunc("DELETE "+RouteSession, ChainMiddleware(s.DeleteSessionHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteFunc("POST "+RouteSessionRestart, ChainMiddleware(s.RestartSessionHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteFunc("GET "+RoutePairingCodes, ChainMiddleware(s.PairingCodesHandler(), s.APIMiddleware(s.RequireAuth())...))

	// Operators
	s.RegisterRouteFunc("GET "+RouteOperators, ChainMiddleware(s.ListOperatorsHandler(), s.APIMiddleware(s.RequireAuth(), s.RequireDeveloper())...))
	s.RegisterRouteFunc("PUT "+RouteOperatorRole, ChainMiddleware(s.SetRoleHandler(), s.APIMiddleware(s.RequireAuth(), s.RequireDeveloper())...))

	// Browser preflights for every admin route
	s.RegisterRouteFunc("OPTIONS "+RouteAdminPrefix, ChainMiddleware(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}, s.APIMiddleware()...))
}
