package database

import (
	"context"
	"database/sql"

	"github.com/docpoint/docpoint-backend/internal/domain/providers"
	"github.com/docpoint/docpoint-backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/docpoint/docpoint-backend/pkg/errors"
)

type txKey struct{}

// TxProvider implements providers.TransactionProvider over the Postgres
// client. The open transaction travels in the context so every adapter call
// inside the function joins it.
type TxProvider struct {
	client *postgres.Client
}

// NewTxProvider creates a new transaction provider
func NewTxProvider(client *postgres.Client) providers.TransactionProvider {
	return &TxProvider{client: client}
}

// WithinTransaction runs fn inside a transaction, committing on nil and
// rolling back on error or panic
func (p *TxProvider) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := p.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit transaction", err)
	}
	return nil
}

// querier is the subset of *sql.DB and *sql.Tx the adapters use
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// querierFrom returns the transaction carried in ctx, falling back to the
// plain connection pool
func querierFrom(ctx context.Context, client *postgres.Client) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return client.DB()
}
