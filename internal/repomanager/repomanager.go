// Package repomanager vends the repository set over a shared database handle
// and runs multi-repository units of work inside one transaction.
package repomanager

import (
	"context"
	"database/sql"

	"authgate/internal/dbx"
	resetrepo "authgate/internal/reset/repository"
	sessionrepo "authgate/internal/session/repository"
	userrepo "authgate/internal/user/repository"
)

// Repos bundles the repositories a use case touches. All members are bound
// to the same DBTX, so a tx-scoped Repos is atomic as a set.
type Repos struct {
	Users    userrepo.Repository
	Sessions sessionrepo.Repository
	Resets   resetrepo.Repository
}

// New builds the postgres repository set over db (*sql.DB or *sql.Tx).
func New(db dbx.DBTX) Repos {
	return Repos{
		Users:    userrepo.NewPostgresRepository(db),
		Sessions: sessionrepo.NewPostgresRepository(db),
		Resets:   resetrepo.NewPostgresRepository(db),
	}
}

// TxManager runs fn with a transaction-scoped repository set. fn's effects
// are committed together or not at all.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, r Repos) error) error
}

// PostgresTxManager implements TxManager over *sql.DB.
type PostgresTxManager struct {
	db *sql.DB
}

// NewPostgresTxManager returns a TxManager using db.
func NewPostgresTxManager(db *sql.DB) *PostgresTxManager {
	return &PostgresTxManager{db: db}
}

func (m *PostgresTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, r Repos) error) error {
	return dbx.WithTx(ctx, m.db, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, New(tx))
	})
}
