// Package bootstrap wires configuration into the services shared by the HTTP
// server and the command line tool.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	appinventory "github.com/stocksync/backend/internal/application/inventory"
	"github.com/stocksync/backend/internal/domain/integration"
	"github.com/stocksync/backend/internal/domain/inventory"
	"github.com/stocksync/backend/internal/infrastructure/cache"
	"github.com/stocksync/backend/internal/infrastructure/config"
	"github.com/stocksync/backend/internal/infrastructure/logger"
	"github.com/stocksync/backend/internal/infrastructure/marketplace"
	"github.com/stocksync/backend/internal/infrastructure/persistence"
	"github.com/stocksync/backend/internal/infrastructure/telemetry"
)

// Runtime holds the long-lived dependencies of one process
type Runtime struct {
	Config       *config.Config
	Logger       *zap.Logger
	Telemetry    *telemetry.Providers
	Database     *persistence.Database
	Products     *persistence.GormProductRepository
	SyncLogs     *persistence.GormSyncLogRepository
	Marketplaces *marketplace.Registry
	RunLock      appinventory.RunLock
	Sync         *appinventory.SyncService
}

// NewLogger builds the process logger from configuration
func NewLogger(cfg config.LogConfig) (*zap.Logger, error) {
	return logger.New(&logger.Config{
		Level:      cfg.Level,
		Format:     cfg.Format,
		Output:     cfg.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
}

// Open starts telemetry and connects every backend named in cfg.
// On error everything opened so far is closed again.
func Open(ctx context.Context, cfg *config.Config, base *zap.Logger) (rt *Runtime, err error) {
	rt = &Runtime{Config: cfg, Logger: base}
	defer func() {
		if err != nil {
			err = errors.Join(err, rt.Close(ctx))
			rt = nil
		}
	}()

	rt.Telemetry, err = telemetry.Setup(ctx, cfg.Telemetry, base)
	if err != nil {
		return rt, fmt.Errorf("telemetry: %w", err)
	}
	log := telemetry.BridgeLogger(base, rt.Telemetry.Logs, cfg.Telemetry.ServiceName, zap.InfoLevel)
	rt.Logger = log

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Database.SlowThreshold))
	rt.Database, err = persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		return rt, err
	}
	if err = telemetry.RegisterDBTracing(rt.Database.DB, telemetry.DBTracingConfig{
		Enabled:    cfg.Telemetry.DBTraceEnabled,
		LogFullSQL: cfg.Telemetry.DBLogFullSQL,
		DBSystem:   dbSystem(cfg.Database.Driver),
	}, log); err != nil {
		return rt, err
	}
	if cfg.Database.AutoMigrate {
		if err = rt.Database.AutoMigrate(); err != nil {
			return rt, fmt.Errorf("auto migrate: %w", err)
		}
		log.Info("Schema auto-migrated", zap.String("driver", cfg.Database.Driver))
	}

	rt.Products = persistence.NewGormProductRepository(rt.Database.DB)
	rt.SyncLogs = persistence.NewGormSyncLogRepository(rt.Database.DB)

	rt.Marketplaces, err = marketplace.NewRegistryFromConfig(cfg.Marketplace,
		marketplace.WithLogger(log),
		marketplace.WithMetrics(rt.Telemetry.Sync),
	)
	if err != nil {
		return rt, err
	}

	rt.RunLock, err = cache.NewRunLockFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.Redis.AllowFallback),
	).CreateLock()
	if err != nil {
		return rt, err
	}

	policy, err := inventory.ParseSyncPolicy(cfg.Sync.Policy)
	if err != nil {
		return rt, err
	}
	rt.Sync = appinventory.NewSyncService(rt.Products, rt.SyncLogs, MarketplaceClients(rt.Marketplaces), rt.RunLock,
		appinventory.SyncServiceConfig{
			Policy:     policy,
			RunTimeout: cfg.Sync.RunTimeout,
			LockTTL:    cfg.Sync.LockTTL,
		}, log)
	rt.Sync.SetRunRecorder(rt.Telemetry.Sync)

	log.Info("Runtime ready",
		zap.String("policy", string(policy)),
		zap.Any("marketplaces", rt.Marketplaces.Codes()),
	)
	return rt, nil
}

// MarketplaceClients picks the reconciled marketplaces out of the registry.
// Unregistered marketplaces stay nil.
func MarketplaceClients(reg *marketplace.Registry) appinventory.MarketplaceClients {
	var clients appinventory.MarketplaceClients
	if c, ok := reg.Get(integration.MarketplaceAmazon); ok {
		clients.Amazon = c
	}
	if c, ok := reg.Get(integration.MarketplaceMercadoLibre); ok {
		clients.MercadoLibre = c
	}
	return clients
}

// Close releases everything Open acquired, in reverse order
func (rt *Runtime) Close(ctx context.Context) error {
	var errs []error
	if closer, ok := rt.RunLock.(io.Closer); ok {
		errs = append(errs, closer.Close())
	}
	if rt.Database != nil {
		errs = append(errs, rt.Database.Close())
	}
	if rt.Telemetry != nil {
		errs = append(errs, rt.Telemetry.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

func dbSystem(driver string) string {
	if driver == config.DriverSQLite {
		return "sqlite"
	}
	return "postgresql"
}
