package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/puranjayb/AWS-Potato/internal/common"
	"github.com/puranjayb/AWS-Potato/internal/dbx"
	"github.com/puranjayb/AWS-Potato/internal/server/models"
)

// PostgresRepository implements file metadata storage over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const fileColumns = `file_id, original_filename, s3_key, file_size, content_type, project_id,
		user_id, user_email, upload_status, processing_status, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanFile(s scanner) (*models.File, error) {
	var (
		f         models.File
		projectID sql.NullString
		email     sql.NullString
	)
	err := s.Scan(&f.FileID, &f.OriginalFilename, &f.StorageKey, &f.FileSize, &f.ContentType, &projectID,
		&f.UserID, &email, &f.UploadStatus, &f.ProcessingStatus, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if projectID.Valid {
		f.ProjectID = &projectID.String
	}
	if email.Valid {
		f.UserEmail = &email.String
	}
	return &f, nil
}

// Create inserts a new metadata row. CreatedAt is used for both timestamps.
func (r *PostgresRepository) Create(ctx context.Context, file *models.File) error {
	query := `INSERT INTO files (` + fileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`

	_, err := r.db.ExecContext(ctx, query,
		file.FileID, file.OriginalFilename, file.StorageKey, file.FileSize, file.ContentType, file.ProjectID,
		file.UserID, file.UserEmail, file.UploadStatus, file.ProcessingStatus, file.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	file.UpdatedAt = file.CreatedAt
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, fileID, userID string) (*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE file_id = $1 AND user_id = $2`

	f, err := scanFile(r.db.QueryRowContext(ctx, query, fileID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to select file: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID, projectID string) ([]*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files WHERE user_id = $1`
	args := []any{userID}
	if projectID != "" {
		query += ` AND project_id = $2`
		args = append(args, projectID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	result := make([]*models.File, 0)
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) MarkUploaded(ctx context.Context, fileID, userID string, size *int64, at time.Time) (*models.File, error) {
	query := `UPDATE files
		SET upload_status = 'uploaded', file_size = COALESCE($3, file_size), updated_at = $4
		WHERE file_id = $1 AND user_id = $2
		RETURNING ` + fileColumns

	var sizeArg any
	if size != nil {
		sizeArg = *size
	}

	f, err := scanFile(r.db.QueryRowContext(ctx, query, fileID, userID, sizeArg, at))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to mark uploaded: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) SetProcessingStatus(ctx context.Context, fileID, userID, status string, at time.Time) error {
	query := `UPDATE files SET processing_status = $3, updated_at = $4 WHERE file_id = $1 AND user_id = $2`

	res, err := r.db.ExecContext(ctx, query, fileID, userID, status, at)
	if err != nil {
		return fmt.Errorf("failed to update processing status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, fileID, userID string) (string, error) {
	query := `DELETE FROM files WHERE file_id = $1 AND user_id = $2 RETURNING s3_key`

	var key string
	if err := r.db.QueryRowContext(ctx, query, fileID, userID).Scan(&key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("failed to delete file: %w", err)
	}
	return key, nil
}
