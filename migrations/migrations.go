// Package migrations embeds the ledger schema and applies it with goose.
package migrations

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var FS embed.FS

// advisoryLockID serializes concurrent migrators against one database.
const advisoryLockID = 7462839

// Result is one applied or rolled-back migration.
type Result struct {
	Version  int64
	Source   string
	Duration string
}

// Up applies every pending migration while holding the advisory lock.
func Up(ctx context.Context, pool *pgxpool.Pool) ([]Result, error) {
	var out []Result
	err := withLock(ctx, pool, func(p *goose.Provider) error {
		results, err := p.Up(ctx)
		if err != nil {
			return fmt.Errorf("goose up: %w", err)
		}
		for _, r := range results {
			out = append(out, toResult(r))
		}
		return nil
	})
	return out, err
}

// Down rolls back the most recent migration. It returns nil, nil when no
// migration is applied.
func Down(ctx context.Context, pool *pgxpool.Pool) (*Result, error) {
	var out *Result
	err := withLock(ctx, pool, func(p *goose.Provider) error {
		r, err := p.Down(ctx)
		if errors.Is(err, goose.ErrNoNextVersion) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("goose down: %w", err)
		}
		res := toResult(r)
		out = &res
		return nil
	})
	return out, err
}

// Version reports the current schema version.
func Version(ctx context.Context, pool *pgxpool.Pool) (int64, error) {
	p, closeDB, err := newProvider(pool)
	if err != nil {
		return 0, err
	}
	defer closeDB()
	v, err := p.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("goose version: %w", err)
	}
	return v, nil
}

func newProvider(pool *pgxpool.Pool) (*goose.Provider, func(), error) {
	sqlDB := stdlib.OpenDBFromPool(pool)
	p, err := goose.NewProvider(goose.DialectPostgres, sqlDB, FS)
	if err != nil {
		sqlDB.Close()
		return nil, nil, fmt.Errorf("goose provider: %w", err)
	}
	return p, func() { sqlDB.Close() }, nil
}

func withLock(ctx context.Context, pool *pgxpool.Pool, fn func(p *goose.Provider) error) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection for lock: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		return fmt.Errorf("failed to take advisory lock: %w", err)
	}
	defer conn.Exec(context.Background(), "SELECT pg_advisory_unlock($1)", advisoryLockID)

	p, closeDB, err := newProvider(pool)
	if err != nil {
		return err
	}
	defer closeDB()
	return fn(p)
}

func toResult(r *goose.MigrationResult) Result {
	res := Result{Duration: r.Duration.String()}
	if r.Source != nil {
		res.Version = r.Source.Version
		res.Source = r.Source.Path
	}
	return res
}
