// Package dbx holds the database plumbing shared by the account
// repositories: a handle interface satisfied by both *sql.DB and *sql.Tx,
// and a transaction wrapper.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is the query surface the account repositories need. Every account
// operation touches a single user row, so Exec and QueryRow cover it.
// Both *sql.DB and *sql.Tx satisfy the interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx begins a transaction, runs fn with a transactional handle, and then
// commits on success or rolls back on error/panic. Panics are rethrown.
// Refresh-token rotation relies on it to make the stored-slot check and
// overwrite a single atomic step.
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    // use tx instead of db
//	    _, err := tx.ExecContext(ctx, "UPDATE ...")
//	    return err
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}
