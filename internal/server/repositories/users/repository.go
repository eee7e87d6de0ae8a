// Package users mirrors identity provider accounts into the users table.
package users

import (
	"context"

	"github.com/puranjayb/AWS-Potato/internal/server/models"
)

type Repository interface {
	// CreateIfAbsent inserts the user and reports whether a row was written.
	// A conflicting username or email is not an error.
	CreateIfAbsent(ctx context.Context, user *models.User) (bool, error)
}
