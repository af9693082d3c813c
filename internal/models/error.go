package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInternalServer = errors.New("internal server error")

	// ErrInvalidInput marks an attempt the engine refuses to score:
	// malformed coordinates, empty identifiers, or an implausible timestamp.
	// Callers must fail closed (RequireMfa at minimum) when they see it.
	ErrInvalidInput = errors.New("invalid input")

	// Identity state errors
	ErrIdentityLocked    = errors.New("identity is temporarily locked")
	ErrNoAnalysis        = errors.New("no analysis recorded for user")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)
