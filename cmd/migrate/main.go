// migrate applies, rolls back or reports the embedded schema migrations.
//
// Usage: go run ./cmd/migrate -cmd=up|down|version
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"hvac-ledger/internal/bootstrap"
	"hvac-ledger/internal/config"
	"hvac-ledger/internal/db"
	"hvac-ledger/internal/logger"
	"hvac-ledger/migrations"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "migrate"})

	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "migration command: up|down|version")
	flag.Parse()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)
	if cfg.App.StoreBackend != config.StoreBackendPostgres {
		fmt.Fprintf(os.Stderr, "migrations need %s_STORE_BACKEND=%s\n", config.EnvPrefix, config.StoreBackendPostgres)
		os.Exit(1)
	}

	logg = bootstrap.NewLogger("migrate", cfg.App)
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "cmd": *cmd})

	pool, err := db.NewPool(ctx, cfg.DB)
	requireResource(ctx, logg, "database", err)
	defer pool.Close()

	switch *cmd {
	case "up":
		results, err := migrations.Up(ctx, pool)
		if err != nil {
			logg.Error(ctx, "goose up failed", err)
			pool.Close()
			os.Exit(1)
		}
		if len(results) == 0 {
			fmt.Println("schema is up to date")
		}
		for _, r := range results {
			fmt.Printf("applied %d %s (%s)\n", r.Version, r.Source, r.Duration)
		}

	case "down":
		r, err := migrations.Down(ctx, pool)
		if err != nil {
			logg.Error(ctx, "goose down failed", err)
			pool.Close()
			os.Exit(1)
		}
		if r == nil {
			fmt.Println("nothing to roll back")
			return
		}
		fmt.Printf("rolled back %d %s (%s)\n", r.Version, r.Source, r.Duration)

	case "version":
		v, err := migrations.Version(ctx, pool)
		if err != nil {
			logg.Error(ctx, "reading schema version failed", err)
			pool.Close()
			os.Exit(1)
		}
		fmt.Printf("schema version %d\n", v)

	default:
		fmt.Fprintln(os.Stderr, "unknown -cmd value:", *cmd)
		pool.Close()
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(logg.WithField(ctx, "resource", resource), "failed to initialize resource", err)
	os.Exit(1)
}
