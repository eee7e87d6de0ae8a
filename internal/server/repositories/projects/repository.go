// Package projects stores projects and the user_details rows that bind a
// user to a project.
package projects

import (
	"context"
	"time"

	"github.com/puranjayb/AWS-Potato/internal/server/models"
)

// Repository is the persistence contract used by the project registrar.
// Find* methods return common.ErrorNotFound when nothing matches.
type Repository interface {
	FindBySubject(ctx context.Context, subject string) (*models.UserDetail, error)
	FindByUserID(ctx context.Context, userID string) (*models.UserDetail, error)
	FindByEmail(ctx context.Context, email string) (*models.UserDetail, error)

	// Touch records a login on an existing row and refreshes its identity
	// columns. An empty subject keeps the stored one.
	Touch(ctx context.Context, id int64, ident models.Identity, at time.Time) error

	CreateProject(ctx context.Context, p *models.Project) error
	CreateUserDetail(ctx context.Context, d *models.UserDetail) error

	// LockIdentity serializes registrations for key until the surrounding
	// transaction ends.
	LockIdentity(ctx context.Context, key string) error

	ListByUser(ctx context.Context, userID string) ([]*models.ProjectSummary, error)
}
