// Package services contains server-side business logic: project
// registration, the file registry, PDF sessions and account signup/signin.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/puranjayb/AWS-Potato/internal/common"
	"github.com/puranjayb/AWS-Potato/internal/dbx"
	"github.com/puranjayb/AWS-Potato/internal/logging"
	"github.com/puranjayb/AWS-Potato/internal/server/models"
	"github.com/puranjayb/AWS-Potato/internal/server/repositories/projects"
	"github.com/puranjayb/AWS-Potato/internal/server/repositories/repomanager"
)

// ProjectService maps an identity to exactly one project, creating the
// project on first contact.
type ProjectService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger

	now   func() time.Time
	newID func() string
	runTx func(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error
}

func NewProjectService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *ProjectService {
	return &ProjectService{
		db:          db,
		repomanager: m,
		logger:      logger.With("module", "projects"),
		now:         func() time.Time { return time.Now().UTC() },
		newID:       func() string { return uuid.NewString() },
		runTx: func(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
			return dbx.WithTx(ctx, db, nil, fn)
		},
	}
}

// EnsureProject returns the project bound to ident, looking it up by subject,
// then user id, then email. An existing project id is never replaced. When
// nothing matches a project and its user_details row are created in one
// transaction.
func (s *ProjectService) EnsureProject(ctx context.Context, ident models.Identity) (*models.ProjectAssignment, error) {
	ident = models.Identity{
		LocalID: strings.TrimSpace(ident.LocalID),
		Email:   strings.TrimSpace(ident.Email),
		Subject: strings.TrimSpace(ident.Subject),
	}
	if ident.LocalID == "" || ident.Email == "" {
		return nil, fmt.Errorf("%w: user_id and email are required", common.ErrorValidation)
	}

	repo := s.repomanager.Projects(s.db)

	assignment, err := s.touchExisting(ctx, repo, ident)
	switch {
	case err == nil:
		return assignment, nil
	case errors.Is(err, common.ErrorNotFound):
		assignment, err = s.createLocked(ctx, ident)
		if err == nil {
			return assignment, nil
		}
	}

	if !dbx.IsUniqueViolation(err) {
		return nil, fmt.Errorf("register project: %w", err)
	}

	s.logger.Warn(ctx, "concurrent registration, re-reading",
		"user_id", ident.LocalID, "constraint", dbx.ConstraintName(err))

	d, perr := probe(ctx, repo, ident)
	if perr != nil {
		if errors.Is(perr, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: no project for %s after unique violation", common.ErrorConsistency, ident.LocalID)
		}
		return nil, perr
	}
	return &models.ProjectAssignment{ProjectID: d.ProjectID, UserID: ident.LocalID, Email: ident.Email}, nil
}

// probe returns the oldest user_details row matching ident, trying the
// subject first, then the user id, then the email.
func probe(ctx context.Context, repo projects.Repository, ident models.Identity) (*models.UserDetail, error) {
	if ident.Subject != "" {
		d, err := repo.FindBySubject(ctx, ident.Subject)
		if err == nil || !errors.Is(err, common.ErrorNotFound) {
			return d, err
		}
	}

	d, err := repo.FindByUserID(ctx, ident.LocalID)
	if err == nil || !errors.Is(err, common.ErrorNotFound) {
		return d, err
	}

	return repo.FindByEmail(ctx, ident.Email)
}

func (s *ProjectService) touchExisting(ctx context.Context, repo projects.Repository, ident models.Identity) (*models.ProjectAssignment, error) {
	d, err := probe(ctx, repo, ident)
	if err != nil {
		return nil, err
	}

	if err := repo.Touch(ctx, d.ID, ident, s.now()); err != nil {
		return nil, err
	}

	s.logger.Debug(ctx, "project found", "project_id", d.ProjectID, "user_id", ident.LocalID)
	return &models.ProjectAssignment{ProjectID: d.ProjectID, UserID: ident.LocalID, Email: ident.Email}, nil
}

// lockKeys names every advisory lock a first contact for ident takes. The
// keys are sorted so concurrent registrations acquire them in one order.
func lockKeys(ident models.Identity) []string {
	keys := []string{"user:" + ident.LocalID, "email:" + strings.ToLower(ident.Email)}
	if ident.Subject != "" {
		keys = append(keys, "sub:"+ident.Subject)
	}
	slices.Sort(keys)
	return keys
}

// createLocked serializes first contacts that share any probe key, then
// re-probes before inserting.
func (s *ProjectService) createLocked(ctx context.Context, ident models.Identity) (*models.ProjectAssignment, error) {
	var assignment *models.ProjectAssignment
	err := s.runTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Projects(tx)

		for _, key := range lockKeys(ident) {
			if err := repo.LockIdentity(ctx, key); err != nil {
				return err
			}
		}

		a, err := s.touchExisting(ctx, repo, ident)
		if err == nil {
			assignment = a
			return nil
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return err
		}

		assignment, err = s.create(ctx, repo, ident)
		return err
	})
	if err != nil {
		return nil, err
	}
	return assignment, nil
}

func (s *ProjectService) create(ctx context.Context, repo projects.Repository, ident models.Identity) (*models.ProjectAssignment, error) {
	now := s.now()
	id := s.newID()

	p := &models.Project{ProjectID: id, Name: "Project-" + id[:8], CreatedAt: now}
	if err := repo.CreateProject(ctx, p); err != nil {
		return nil, err
	}

	d := &models.UserDetail{
		UserID:    ident.LocalID,
		Email:     ident.Email,
		ProjectID: id,
		LastLogin: &now,
		CreatedAt: now,
	}
	if ident.Subject != "" {
		subject := ident.Subject
		d.Subject = &subject
	}
	if err := repo.CreateUserDetail(ctx, d); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "project created", "project_id", id, "user_id", ident.LocalID)
	return &models.ProjectAssignment{ProjectID: id, UserID: ident.LocalID, Email: ident.Email}, nil
}

// ListProjects returns the user's projects, most recently used first.
func (s *ProjectService) ListProjects(ctx context.Context, userID string) ([]*models.ProjectSummary, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, common.ErrorMissingIdentity
	}
	items, err := s.repomanager.Projects(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return items, nil
}
