// Package repomanager hands out repository instances bound to a DB handle.
// Because repositories accept dbx.DBTX, the same factory serves plain
// connections and transactions alike.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/authgate/internal/dbx"
	"github.com/dmitrijs2005/authgate/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/authgate/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Sessions(db dbx.DBTX) sessions.Repository
}
