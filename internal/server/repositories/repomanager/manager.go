// Package repomanager groups the per-table repositories behind one factory so
// services can obtain them bound to either a plain DB handle or a transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/appp2p/authvault/internal/dbx"
	"github.com/appp2p/authvault/internal/server/repositories/files"
	"github.com/appp2p/authvault/internal/server/repositories/resettokens"
	"github.com/appp2p/authvault/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	ResetTokens(db dbx.DBTX) resettokens.Repository
	Files(db dbx.DBTX) files.Repository
}
