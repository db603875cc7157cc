package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/bellwether/internal/dbx"
	"github.com/dmitrijs2005/bellwether/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a connection or transaction
// and migrates the schema.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
}
