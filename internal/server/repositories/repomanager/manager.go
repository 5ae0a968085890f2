package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/wordbook/internal/dbx"
	"github.com/dmitrijs2005/wordbook/internal/server/repositories/entries"
	"github.com/dmitrijs2005/wordbook/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/wordbook/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX so callers can choose
// between the pool and a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Entries(db dbx.DBTX) entries.Repository
}
