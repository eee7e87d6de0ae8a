package projects

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

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const selectUserDetail = `SELECT id, user_id, email, project_id, cognito_sub, last_login, created_at, updated_at
		FROM user_details`

func (r *PostgresRepository) findOne(ctx context.Context, where string, arg any) (*models.UserDetail, error) {
	query := selectUserDetail + " WHERE " + where + " ORDER BY created_at, id LIMIT 1"

	var (
		d         models.UserDetail
		subject   sql.NullString
		lastLogin sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&d.ID, &d.UserID, &d.Email, &d.ProjectID, &subject, &lastLogin, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to select user details: %w", err)
	}

	if subject.Valid {
		d.Subject = &subject.String
	}
	if lastLogin.Valid {
		d.LastLogin = &lastLogin.Time
	}
	return &d, nil
}

func (r *PostgresRepository) FindBySubject(ctx context.Context, subject string) (*models.UserDetail, error) {
	return r.findOne(ctx, "cognito_sub = $1", subject)
}

func (r *PostgresRepository) FindByUserID(ctx context.Context, userID string) (*models.UserDetail, error) {
	return r.findOne(ctx, "user_id = $1", userID)
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.UserDetail, error) {
	return r.findOne(ctx, "lower(email) = lower($1)", email)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (r *PostgresRepository) Touch(ctx context.Context, id int64, ident models.Identity, at time.Time) error {
	query := `UPDATE user_details
		SET last_login = $2, updated_at = $2, user_id = $3, email = $4,
			cognito_sub = COALESCE($5, cognito_sub)
		WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, at, ident.LocalID, ident.Email, nullable(ident.Subject))
	if err != nil {
		return fmt.Errorf("failed to update user details: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) CreateProject(ctx context.Context, p *models.Project) error {
	query := `INSERT INTO projects (project_id, name, created_at, updated_at) VALUES ($1, $2, $3, $3)`

	if _, err := r.db.ExecContext(ctx, query, p.ProjectID, p.Name, p.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}
	p.UpdatedAt = p.CreatedAt
	return nil
}

func (r *PostgresRepository) CreateUserDetail(ctx context.Context, d *models.UserDetail) error {
	query := `INSERT INTO user_details (user_id, email, project_id, cognito_sub, last_login, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING id`

	var subject any
	if d.Subject != nil {
		subject = nullable(*d.Subject)
	}

	err := r.db.QueryRowContext(ctx, query, d.UserID, d.Email, d.ProjectID, subject, d.LastLogin, d.CreatedAt).Scan(&d.ID)
	if err != nil {
		return fmt.Errorf("failed to insert user details: %w", err)
	}
	d.UpdatedAt = d.CreatedAt
	return nil
}

func (r *PostgresRepository) LockIdentity(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return fmt.Errorf("failed to lock identity: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.ProjectSummary, error) {
	query := `SELECT p.project_id, p.name, p.created_at, ud.last_login
		FROM projects p
		JOIN user_details ud ON ud.project_id = p.project_id
		WHERE ud.user_id = $1
		ORDER BY ud.last_login DESC NULLS LAST, p.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select projects: %w", err)
	}
	defer rows.Close()

	result := make([]*models.ProjectSummary, 0)
	for rows.Next() {
		var (
			item      models.ProjectSummary
			lastLogin sql.NullTime
		)
		if err := rows.Scan(&item.ProjectID, &item.Name, &item.CreatedAt, &lastLogin); err != nil {
			return nil, err
		}
		if lastLogin.Valid {
			item.LastLogin = &lastLogin.Time
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
