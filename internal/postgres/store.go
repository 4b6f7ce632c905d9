// Package postgres implements the persistence layer on PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dukerupert/embla/internal/service"
)

// DBTX is the pgx surface shared by pools and transactions, so the same
// query code serves both transactional and non-transactional stores.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements service.Store on PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
	db   DBTX
}

// Compile-time check that Store implements service.Store.
var _ service.Store = (*Store)(nil)

// NewStore creates a PostgreSQL-backed store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, db: pool}
}

// WithTx runs fn against a transaction-scoped store. Row locks taken inside
// fn hold until commit or rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx service.Store) error) error {
	if s.pool == nil {
		// Already transaction-scoped; run fn in the same transaction.
		return fn(s)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// Rollback after a successful commit is a harmless no-op.
		_ = tx.Rollback(ctx)
	}()

	if err := fn(&Store{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
