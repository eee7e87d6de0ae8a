// Package files stores metadata rows for objects in the bucket. Every lookup
// is scoped to the owning user.
package files

import (
	"context"
	"time"

	"github.com/puranjayb/AWS-Potato/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, file *models.File) error
	GetByID(ctx context.Context, fileID, userID string) (*models.File, error)
	// ListByUser returns the user's files newest first. A non-empty
	// projectID narrows the list to that project.
	ListByUser(ctx context.Context, userID, projectID string) ([]*models.File, error)
	// MarkUploaded flips the row to uploaded and returns it. A nil size keeps
	// the stored one.
	MarkUploaded(ctx context.Context, fileID, userID string, size *int64, at time.Time) (*models.File, error)
	SetProcessingStatus(ctx context.Context, fileID, userID, status string, at time.Time) error
	// Delete removes the row and returns its storage key.
	Delete(ctx context.Context, fileID, userID string) (string, error)
}
