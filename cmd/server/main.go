package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	webAdapter "hvac-ledger/internal/adapters/web"
	"hvac-ledger/internal/bootstrap"
	"hvac-ledger/internal/config"
	"hvac-ledger/internal/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "server"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment", nil)
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.New(ctx, "server", cfg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap runtime", err)
		os.Exit(1)
	}
	logg = rt.Logger

	addr := ":" + cfg.App.Port
	server := &http.Server{
		Addr: addr,
		Handler: webAdapter.NewHandler(rt.Service, webAdapter.Options{
			Logger:         rt.Logger,
			Pinger:         rt.Store,
			Gatherer:       rt.Registry,
			MaxBodyBytes:   cfg.App.MaxBodyBytes,
			AllowedOrigins: cfg.App.AllowedOrigins,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":   cfg.App.Env,
		"addr":  addr,
		"store": cfg.App.StoreBackend,
	})
	logg.Info(logCtx, "starting ledger server")

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	exitCode := 0
	select {
	case err := <-serveErr:
		if err != nil {
			logg.Error(logCtx, "server stopped unexpectedly", err)
			exitCode = 1
		}
	case <-ctx.Done():
		logg.Info(logCtx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := multierr.Combine(server.Shutdown(shutdownCtx), rt.Close()); err != nil {
		logg.Error(logCtx, "error during shutdown", err)
		exitCode = 1
	}
	if exitCode != 0 {
		os.Exit(exitCode)
	}
	logg.Info(logCtx, "server stopped")
}
