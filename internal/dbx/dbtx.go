// Package dbx holds the database/sql glue shared by the repositories: the
// DBTX handle, a transaction runner and PostgreSQL error inspection.
package dbx

import (
	"context"
	"database/sql"
	"fmt"
)

// DBTX lets a repository run on either *sql.DB or *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside one transaction. Any exit other than a nil return
// from fn, panics included, rolls the transaction back. The project registrar uses it so the advisory lock taken by
// LockIdentity lives exactly as long as the create.
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//		repo := m.Projects(tx)
//		if err := repo.LockIdentity(ctx, email); err != nil {
//			return err
//		}
//		return repo.CreateProject(ctx, p)
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) error {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	finished := false
	defer func() {
		if !finished {
			_ = tx.Rollback()
		}
	}()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	finished = true
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
