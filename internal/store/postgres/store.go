// Package postgres implements core.Store on PostgreSQL through pgx. Row locks
// come from SELECT ... FOR UPDATE and last until the transaction ends.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hvac-ledger/internal/core"
)

var _ core.Store = (*Store)(nil)

const defaultLockTimeout = 5 * time.Second

type Store struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

type Option func(*Store)

// WithLockTimeout bounds how long a statement waits for a row lock before the
// transaction fails with a retryable StorageError.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) { s.lockTimeout = d }
}

func New(pool *pgxpool.Pool, opts ...Option) *Store {
	s := &Store{pool: pool, lockTimeout: defaultLockTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) WithTx(ctx context.Context, fn func(tx core.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return mapError(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	if s.lockTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.lockTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return mapError(err, "failed to set lock timeout")
		}
	}

	if err := fn(&txn{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return mapError(err, "failed to commit transaction")
	}
	return nil
}

func (s *Store) View(ctx context.Context, fn func(tx core.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return mapError(err, "failed to begin read-only transaction")
	}
	defer tx.Rollback(ctx)

	if err := fn(&txn{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return mapError(err, "failed to close read-only transaction")
	}
	return nil
}

// Ping checks connectivity for health endpoints.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return mapError(err, "database unreachable")
	}
	return nil
}
