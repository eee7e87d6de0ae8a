package repomanager

import (
	"context"
	"database/sql"

	"github.com/puranjayb/AWS-Potato/internal/dbx"
	"github.com/puranjayb/AWS-Potato/internal/server/repositories/files"
	"github.com/puranjayb/AWS-Potato/internal/server/repositories/pdfsessions"
	"github.com/puranjayb/AWS-Potato/internal/server/repositories/projects"
	"github.com/puranjayb/AWS-Potato/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Projects(db dbx.DBTX) projects.Repository
	Users(db dbx.DBTX) users.Repository
	Files(db dbx.DBTX) files.Repository
	PDFSessions(db dbx.DBTX) pdfsessions.Repository
}
