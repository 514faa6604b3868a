package cache

import (
	"fmt"

	"go.uber.org/zap"

	appinventory "github.com/stocksync/backend/internal/application/inventory"
	"github.com/stocksync/backend/internal/infrastructure/config"
)

// RunLockFactory creates run-locks based on configuration
type RunLockFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// RunLockFactoryOption is a functional option for configuring the factory
type RunLockFactoryOption func(*RunLockFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) RunLockFactoryOption {
	return func(f *RunLockFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory lock when Redis is unavailable
// Default is true (allow fallback)
func WithInMemoryFallback(allow bool) RunLockFactoryOption {
	return func(f *RunLockFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewRunLockFactory creates a new factory
func NewRunLockFactory(cfg config.RedisConfig, opts ...RunLockFactoryOption) *RunLockFactory {
	f := &RunLockFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisLock creates a Redis-based run-lock
func (f *RunLockFactory) CreateRedisLock() (*RedisRunLock, error) {
	lock, err := NewRedisRunLock(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	}, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis run-lock: %w", err)
	}
	return lock, nil
}

// CreateLock returns a Redis lock when Redis is enabled and reachable.
// Otherwise it returns an in-memory lock, unless fallback is disabled.
// WARNING: in-memory locks do not exclude runs in other processes
func (f *RunLockFactory) CreateLock() (appinventory.RunLock, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("using in-memory run-lock")
		return NewInMemoryRunLock(), nil
	}

	lock, err := f.CreateRedisLock()
	if err == nil {
		f.logger.Info("using Redis run-lock", zap.String("addr", f.redisConfig.Addr()))
		return lock, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for run-lock but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory run-lock. "+
		"Overlapping syncs from other instances will not be detected.",
		zap.Error(err),
	)
	return NewInMemoryRunLock(), nil
}
