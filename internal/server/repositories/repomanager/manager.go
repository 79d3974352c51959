package repomanager

import (
	"context"
	"database/sql"

	"github.com/afocalor/rair-dapp/internal/dbx"
	"github.com/afocalor/rair-dapp/internal/server/repositories/challenges"
	"github.com/afocalor/rair-dapp/internal/server/repositories/files"
	"github.com/afocalor/rair-dapp/internal/server/repositories/offers"
	"github.com/afocalor/rair-dapp/internal/server/repositories/tokens"
	"github.com/afocalor/rair-dapp/internal/server/repositories/unlocks"
	"github.com/afocalor/rair-dapp/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a *sql.DB or a transaction,
// so services can compose several of them inside one dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Challenges(db dbx.DBTX) challenges.Repository
	Files(db dbx.DBTX) files.Repository
	Offers(db dbx.DBTX) offers.Repository
	Tokens(db dbx.DBTX) tokens.Repository
	Unlocks(db dbx.DBTX) unlocks.Repository
}
