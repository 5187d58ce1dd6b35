// Package bootstrap assembles the runtime shared by every binary: config,
// logger, store backend, event publisher, metrics registry and the
// application service on top of them.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"hvac-ledger/internal/app"
	"hvac-ledger/internal/config"
	"hvac-ledger/internal/core"
	"hvac-ledger/internal/db"
	"hvac-ledger/internal/events"
	"hvac-ledger/internal/logger"
	"hvac-ledger/internal/metrics"
	"hvac-ledger/internal/store/memory"
	"hvac-ledger/internal/store/postgres"
	"hvac-ledger/migrations"
)

// Store is a ledger store that can also answer health checks.
type Store interface {
	core.Store
	Ping(ctx context.Context) error
}

// Runtime holds the wired dependencies of one process.
type Runtime struct {
	Config    *config.Config
	Logger    *logger.Logger
	Store     Store
	Pool      *pgxpool.Pool
	Registry  *prometheus.Registry
	Publisher events.Publisher
	Service   app.ApplicationService

	closers []func() error
}

// NewLogger builds the process logger from config.
func NewLogger(service string, cfg config.AppConfig) *logger.Logger {
	return logger.New(logger.Options{
		ServiceName: service,
		Level:       logger.ParseLevel(cfg.LogLevel),
		Format:      cfg.LogFormat,
		WarnStack:   cfg.LogWarnStack,
	})
}

// New wires a runtime from cfg. On error every resource opened so far is
// closed before returning.
func New(ctx context.Context, service string, cfg *config.Config) (rt *Runtime, err error) {
	rt = &Runtime{
		Config:   cfg,
		Logger:   NewLogger(service, cfg.App),
		Registry: prometheus.NewRegistry(),
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, rt.Close())
			rt = nil
		}
	}()

	rt.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	ctx = rt.Logger.WithFields(ctx, map[string]any{"env": cfg.App.Env, "store": cfg.App.StoreBackend})
	switch cfg.App.StoreBackend {
	case config.StoreBackendMemory:
		rt.Store = memory.New()
		rt.Logger.Warn(ctx, "using in-memory store; data is lost on exit", nil)
	case config.StoreBackendPostgres:
		pool, err := db.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, err
		}
		rt.Pool = pool
		rt.closers = append(rt.closers, func() error { pool.Close(); return nil })

		if cfg.App.IsDev() && cfg.App.AutoMigrate {
			rt.Logger.Info(ctx, "running migrations (dev auto-run)")
			if _, err := migrations.Up(ctx, pool); err != nil {
				return nil, fmt.Errorf("running migrations: %w", err)
			}
		}
		rt.Store = postgres.New(pool, postgres.WithLockTimeout(cfg.DB.LockTimeout))
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.App.StoreBackend)
	}

	if cfg.Kafka.Enabled() {
		kp := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		rt.Publisher = kp
		rt.closers = append(rt.closers, kp.Close)
		rt.Logger.Info(rt.Logger.WithField(ctx, "topic", cfg.Kafka.Topic), "publishing ledger events to kafka")
	} else {
		rt.Publisher = events.Nop{}
	}

	rt.Service = app.NewAppService(app.Deps{
		Store:     rt.Store,
		Publisher: rt.Publisher,
		Metrics:   metrics.NewOperationMetrics(rt.Registry),
		Logger:    rt.Logger,
		Retry:     cfg.Retry,
	})
	return rt, nil
}

// Close releases resources in reverse order of acquisition. The publisher
// is flushed before the pool goes away.
func (rt *Runtime) Close() error {
	var err error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, rt.closers[i]())
	}
	rt.closers = nil
	return err
}
