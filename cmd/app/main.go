// app is the operator CLI: one-shot stock, usage, workflow and report
// commands against the configured ledger store.
//
// Usage: go run ./cmd/app <command> [args...]
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"hvac-ledger/internal/adapters/cli"
	"hvac-ledger/internal/bootstrap"
	"hvac-ledger/internal/config"
	"hvac-ledger/internal/core"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	rt, err := bootstrap.New(ctx, "cli", cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup: %v\n", err)
		os.Exit(1)
	}

	err = cli.Run(ctx, rt.Service, os.Args[1:], os.Stdout)
	if cerr := rt.Close(); cerr != nil {
		fmt.Fprintf(os.Stderr, "shutdown: %v\n", cerr)
	}
	switch {
	case err == nil:
	case errors.Is(err, cli.ErrUsage):
		fmt.Fprintf(os.Stderr, "%v\n\n%s\n", err, cli.Usage())
		os.Exit(2)
	default:
		if typed := core.As(err); typed != nil {
			fmt.Fprintf(os.Stderr, "%s: %s\n", typed.Kind(), typed.Message())
		} else {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}
