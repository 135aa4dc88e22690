package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteHealth      = "/healthz"
	RouteAdminPrefix = "/admin/"

	// Operator sign-in
	RouteLogin       = "/admin/login"
	RouteLogout      = "/admin/logout"
	RouteSSOLogin    = "/admin/sso/login"
	RouteSSOCallback = "/admin/sso/callback"
	RouteMe          = "/admin/me"

	// Sessions
	RouteSessions       = "/admin/sessions"
	RouteSession        = "/admin/sessions/{phone}"
	RouteSessionRestart = "/admin/sessions/{phone}/restart"
	RoutePairingCodes   = "/admin/pairing-codes"

	// Operators
	RouteOperators    = "/admin/operators"
	RouteOperatorRole = "/admin/operators/{id}/role"
)
