package pdfsessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/puranjayb/AWS-Potato/internal/common"
	"github.com/puranjayb/AWS-Potato/internal/dbx"
	"github.com/puranjayb/AWS-Potato/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Save(ctx context.Context, s *models.PDFSession) error {
	query := `INSERT INTO pdf_processing
			(processing_id, file_id, user_id, source_url, source_key, summary, page_count, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (processing_id) DO UPDATE SET
			source_url = EXCLUDED.source_url,
			source_key = EXCLUDED.source_key,
			summary = EXCLUDED.summary,
			page_count = EXCLUDED.page_count,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at`

	_, err := r.db.ExecContext(ctx, query,
		s.ProcessingID, s.FileID, s.UserID, s.SourceURL, s.SourceKey, s.Summary, s.PageCount, s.Status,
		s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save pdf session: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, processingID, userID string) (*models.PDFSession, error) {
	query := `SELECT processing_id, file_id, user_id, source_url, source_key, summary, page_count, status, created_at, updated_at
		FROM pdf_processing
		WHERE processing_id = $1 AND user_id = $2`

	var (
		s         models.PDFSession
		sourceKey sql.NullString
		summary   sql.NullString
		pages     sql.NullInt32
	)
	err := r.db.QueryRowContext(ctx, query, processingID, userID).Scan(
		&s.ProcessingID, &s.FileID, &s.UserID, &s.SourceURL, &sourceKey, &summary, &pages, &s.Status,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to select pdf session: %w", err)
	}

	if sourceKey.Valid {
		s.SourceKey = &sourceKey.String
	}
	if summary.Valid {
		s.Summary = &summary.String
	}
	if pages.Valid {
		n := int(pages.Int32)
		s.PageCount = &n
	}
	return &s, nil
}

func (r *PostgresRepository) AddConversation(ctx context.Context, c *models.Conversation) error {
	query := `INSERT INTO pdf_conversations (processing_id, question, answer, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	if err := r.db.QueryRowContext(ctx, query, c.ProcessingID, c.Question, c.Answer, c.Timestamp).Scan(&c.ID); err != nil {
		return fmt.Errorf("failed to insert conversation: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListConversations(ctx context.Context, processingID string) ([]*models.Conversation, error) {
	query := `SELECT id, processing_id, question, answer, created_at
		FROM pdf_conversations
		WHERE processing_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, processingID)
	if err != nil {
		return nil, fmt.Errorf("failed to select conversations: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Conversation, 0)
	for rows.Next() {
		var c models.Conversation
		if err := rows.Scan(&c.ID, &c.ProcessingID, &c.Question, &c.Answer, &c.Timestamp); err != nil {
			return nil, err
		}
		result = append(result, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
