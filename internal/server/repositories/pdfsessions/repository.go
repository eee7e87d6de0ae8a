// Package pdfsessions stores PDF processing records and their question/answer
// history.
package pdfsessions

import (
	"context"

	"github.com/puranjayb/AWS-Potato/internal/server/models"
)

type Repository interface {
	// Save inserts the session or, when the processing id exists, overwrites
	// its mutable columns.
	Save(ctx context.Context, s *models.PDFSession) error
	// Get returns the session only if it belongs to userID.
	Get(ctx context.Context, processingID, userID string) (*models.PDFSession, error)
	AddConversation(ctx context.Context, c *models.Conversation) error
	// ListConversations returns exchanges oldest first.
	ListConversations(ctx context.Context, processingID string) ([]*models.Conversation, error)
}
