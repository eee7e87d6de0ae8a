// Package common defines sentinel errors shared by the repositories, services
// and the request dispatcher. Callers should use errors.Is to match them.
package common

import "errors"

var (
	// repository specific errors
	ErrorNotFound = errors.New("not found")

	// service specific errors
	ErrorUnauthorized    = errors.New("unauthorized")
	ErrorValidation      = errors.New("validation error")
	ErrorNotReady        = errors.New("not ready")
	ErrorPayloadTooLarge = errors.New("payload too large")
	ErrorUnavailable     = errors.New("dependency unavailable")
	ErrorConsistency     = errors.New("consistency error")
	ErrorUnknownAction   = errors.New("invalid action")
	ErrorMissingIdentity = errors.New("user identification not found")

	// identity provider errors
	ErrUsernameExists     = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("authentication failed")
	ErrInvalidToken       = errors.New("invalid token")
)
