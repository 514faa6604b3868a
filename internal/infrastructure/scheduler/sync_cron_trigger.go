package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	appinventory "github.com/stocksync/backend/internal/application/inventory"
	"github.com/stocksync/backend/internal/domain/inventory"
)

// Reconciler runs one reconciliation batch
type Reconciler interface {
	Reconcile(ctx context.Context, trigger inventory.SyncTrigger) (*appinventory.SyncRunResult, error)
}

// SyncCronTriggerConfig holds configuration for the sync cron trigger
type SyncCronTriggerConfig struct {
	// Schedule is a standard cron spec or descriptor, e.g. "@every 30m"
	Schedule string
	// Location for schedule evaluation, UTC when nil
	Location *time.Location
}

// SyncCronTrigger runs scheduled reconciliations in-process.
// Runs go through the same run-lock as the HTTP triggers, so a tick that
// lands during a manual run is skipped.
type SyncCronTrigger struct {
	config     SyncCronTriggerConfig
	reconciler Reconciler
	logger     *zap.Logger

	mu        sync.Mutex
	cron      *cron.Cron
	ctx       context.Context
	cancel    context.CancelFunc
	isRunning bool
}

// NewSyncCronTrigger validates the schedule and creates a stopped trigger
func NewSyncCronTrigger(cfg SyncCronTriggerConfig, reconciler Reconciler, logger *zap.Logger) (*SyncCronTrigger, error) {
	if cfg.Schedule == "" {
		return nil, fmt.Errorf("%w: empty schedule", ErrInvalidSchedule)
	}
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSchedule, cfg.Schedule, err)
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncCronTrigger{
		config:     cfg,
		reconciler: reconciler,
		logger:     logger.Named("sync-cron"),
	}, nil
}

// Start registers the job and starts the cron runner
func (t *SyncCronTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.isRunning {
		return nil
	}

	cronLogger := &cronLogger{logger: t.logger}
	c := cron.New(
		cron.WithLocation(t.config.Location),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
	if _, err := c.AddFunc(t.config.Schedule, t.tick); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}

	t.ctx, t.cancel = context.WithCancel(ctx)
	t.cron = c
	t.isRunning = true
	c.Start()

	t.logger.Info("Sync cron trigger started", zap.String("schedule", t.config.Schedule))
	return nil
}

// Stop stops scheduling and waits for an in-flight run, bounded by ctx
func (t *SyncCronTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	c, cancel := t.cron, t.cancel
	t.mu.Unlock()

	done := c.Stop()
	select {
	case <-done.Done():
		cancel()
		t.logger.Info("Sync cron trigger stopped")
		return nil
	case <-ctx.Done():
		cancel()
		return ctx.Err()
	}
}

// IsRunning reports whether the trigger is scheduling runs
func (t *SyncCronTrigger) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.isRunning
}

// NextRun returns the next scheduled time, or zero when stopped
func (t *SyncCronTrigger) NextRun() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.isRunning {
		return time.Time{}
	}
	entries := t.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (t *SyncCronTrigger) tick() {
	t.mu.Lock()
	ctx := t.ctx
	t.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	t.runOnce(ctx)
}

// runOnce triggers one scheduled reconciliation and logs its outcome
func (t *SyncCronTrigger) runOnce(ctx context.Context) {
	result, err := t.reconciler.Reconcile(ctx, inventory.SyncTriggerScheduled)
	if errors.Is(err, appinventory.ErrSyncAlreadyRunning) {
		t.logger.Info("Scheduled sync skipped, another run in progress")
		return
	}
	if err != nil {
		t.logger.Error("Scheduled sync failed", zap.Error(err))
		return
	}

	fields := []zap.Field{
		zap.String("status", string(result.Status)),
		zap.Int("synced", result.SyncedCount),
		zap.Int("errors", result.ErrorCount),
	}
	if result.Success {
		t.logger.Info("Scheduled sync completed", fields...)
		return
	}
	t.logger.Warn("Scheduled sync completed with errors", fields...)
}

// cronLogger adapts zap to cron.Logger
type cronLogger struct {
	logger *zap.Logger
}

func (l *cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Sugar().Debugw(msg, keysAndValues...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
