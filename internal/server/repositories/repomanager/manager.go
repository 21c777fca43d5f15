// Package repomanager defines the factory that vends repositories bound to a
// database handle (either *sql.DB or a transaction) and runs schema
// migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/clipstream/backend/internal/dbx"
	"github.com/clipstream/backend/internal/server/repositories/users"
)

type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
