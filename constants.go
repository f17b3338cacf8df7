package main

// Route constants
const (
	RouteHealth   = "/healthz"
	RouteSessions = "/scopes/:scope/sessions"
	RouteSession  = "/scopes/:scope/session"
	RouteEvents   = "/scopes/:scope/events"
	RouteNotices  = "/scopes/:scope/notices"
	RouteSocket   = "/scopes/:scope/ws"
	RouteStats    = "/users/:user/stats"
)

// Header constants
const (
	HeaderRequestID   = "X-Request-Id"
	HeaderPrivileged  = "X-Privileged"
	HeaderParticipant = "X-Participant-Id"
)

// Error message constants
const (
	ErrorBadRequest    = "Request body is not valid JSON."
	ErrorNoSession     = "No session is running in this scope."
	ErrorNotPrivileged = "Only privileged participants can stop a session."
	ErrorMissingText   = "Event text is required."
	ErrorInternal      = "Something went wrong."
	ErrorRateLimited   = "Too many requests. Please slow down."
)

type contextKey string

// Context key constants
const (
	requestIDKey contextKey = "request_id"
)
