// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/lock"
	"github.com/puranjayb/AWS-Potato/internal/dbx"
	"github.com/puranjayb/AWS-Potato/internal/server/migrations"
	"github.com/puranjayb/AWS-Potato/internal/server/repositories/files"
	"github.com/puranjayb/AWS-Potato/internal/server/repositories/pdfsessions"
	"github.com/puranjayb/AWS-Potato/internal/server/repositories/projects"
	"github.com/puranjayb/AWS-Potato/internal/server/repositories/users"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

func (m *PostgresRepositoryManager) Projects(db dbx.DBTX) projects.Repository {
	return projects.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Files(db dbx.DBTX) files.Repository {
	return files.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) PDFSessions(db dbx.DBTX) pdfsessions.Repository {
	return pdfsessions.NewPostgresRepository(db)
}

type migrator interface {
	Up(ctx context.Context) ([]*goose.MigrationResult, error)
}

// newMigrator is a seam for testing. Several function instances can cold
// start at once, so the provider holds a Postgres session lock while it
// applies migrations.
var newMigrator = func(db *sql.DB) (migrator, error) {
	locker, err := lock.NewPostgresSessionLocker()
	if err != nil {
		return nil, err
	}
	p, err := goose.NewProvider(goose.DialectPostgres, db, migrations.Migrations, goose.WithSessionLocker(locker))
	if err != nil {
		return nil, err
	}
	return p, nil
}

// RunMigrations applies the embedded migrations that are not yet recorded.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	p, err := newMigrator(db)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	if _, err := p.Up(ctx); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}
