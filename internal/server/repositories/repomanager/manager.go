package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/legacykeeper/internal/dbx"
	"github.com/dmitrijs2005/legacykeeper/internal/server/repositories/assets"
	"github.com/dmitrijs2005/legacykeeper/internal/server/repositories/beneficiaries"
	"github.com/dmitrijs2005/legacykeeper/internal/server/repositories/events"
	"github.com/dmitrijs2005/legacykeeper/internal/server/repositories/shipments"
	"github.com/dmitrijs2005/legacykeeper/internal/server/repositories/vaults"
)

// RepositoryManager vends repositories bound to either the pool or a
// running transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Vaults(db dbx.DBTX) vaults.Repository
	Assets(db dbx.DBTX) assets.Repository
	Beneficiaries(db dbx.DBTX) beneficiaries.Repository
	Events(db dbx.DBTX) events.Repository
	Shipments(db dbx.DBTX) shipments.Repository
}
