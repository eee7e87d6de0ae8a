// Package models defines the records persisted in PostgreSQL and the values
// passed between the dispatcher and the services.
package models

// Identity is who a request acts for, as resolved from authorizer claims,
// authorizer fields, a trusted header or (create_project only) the body.
type Identity struct {
	// LocalID is the application user id (the identity provider username).
	LocalID string
	Email   string
	// Subject is the identity provider's immutable subject claim. Optional.
	Subject string
}
