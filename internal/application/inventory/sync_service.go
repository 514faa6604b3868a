package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stocksync/backend/internal/domain/integration"
	"github.com/stocksync/backend/internal/domain/inventory"
	"github.com/stocksync/backend/internal/infrastructure/logger"
	"github.com/stocksync/backend/internal/infrastructure/telemetry"
)

const (
	// DefaultRunTimeout bounds one reconciliation batch
	DefaultRunTimeout = 10 * time.Minute
	// DefaultLockTTL is the run-lock expiry; it must outlive DefaultRunTimeout
	DefaultLockTTL = DefaultRunTimeout + time.Minute
)

// MarketplaceClients are the marketplaces a reconciliation reads and pushes.
// A nil client means the marketplace is not configured; products linked to
// it keep their previous snapshot and receive no push.
type MarketplaceClients struct {
	Amazon       integration.MarketplaceClient
	MercadoLibre integration.MarketplaceClient
}

// RunRecorder receives the summary of every finished run
type RunRecorder interface {
	RecordRun(ctx context.Context, entry *inventory.SyncLogEntry, d time.Duration)
}

// SyncServiceConfig holds reconciliation settings
type SyncServiceConfig struct {
	Policy     inventory.SyncPolicy
	RunTimeout time.Duration
	LockTTL    time.Duration
}

// SyncService reconciles warehouse stock with the marketplaces.
//
// Products are processed one at a time in SKU order. A failure on one product
// is recorded in its detail and never aborts the batch. Only a failure to
// list products aborts, and that still writes an error-status log entry.
type SyncService struct {
	productRepo inventory.ProductRepository
	logRepo     inventory.SyncLogRepository
	clients     MarketplaceClients
	lock        RunLock
	policy      inventory.SyncPolicy
	runTimeout  time.Duration
	lockTTL     time.Duration
	clock       func() time.Time
	recorder    RunRecorder
	logger      *zap.Logger
}

// NewSyncService creates a new SyncService. Zero config values take defaults.
func NewSyncService(
	productRepo inventory.ProductRepository,
	logRepo inventory.SyncLogRepository,
	clients MarketplaceClients,
	lock RunLock,
	cfg SyncServiceConfig,
	logger *zap.Logger,
) *SyncService {
	if cfg.Policy == "" {
		cfg.Policy = inventory.SyncPolicySalesDelta
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = DefaultRunTimeout
	}
	if cfg.LockTTL < cfg.RunTimeout {
		cfg.LockTTL = cfg.RunTimeout + time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncService{
		productRepo: productRepo,
		logRepo:     logRepo,
		clients:     clients,
		lock:        lock,
		policy:      cfg.Policy,
		runTimeout:  cfg.RunTimeout,
		lockTTL:     cfg.LockTTL,
		clock:       time.Now,
		logger:      logger,
	}
}

// SetClock replaces the clock used for sync timestamps
func (s *SyncService) SetClock(clock func() time.Time) {
	s.clock = clock
}

// SetRunRecorder installs a recorder for run metrics
func (s *SyncService) SetRunRecorder(recorder RunRecorder) {
	s.recorder = recorder
}

// Policy returns the configured reconciliation policy
func (s *SyncService) Policy() inventory.SyncPolicy {
	return s.policy
}

// WithPolicy returns a copy of the service using another policy.
// The copy shares repositories, clients and the run-lock.
func (s *SyncService) WithPolicy(policy inventory.SyncPolicy) *SyncService {
	cp := *s
	cp.policy = policy
	return &cp
}

// Reconcile runs one reconciliation batch.
//
// It returns ErrSyncAlreadyRunning when another run holds the lock. The batch
// runs detached from ctx cancellation, bounded by the run timeout, so a
// disconnected HTTP caller does not leave a half-processed batch.
// A batch that could not list products returns a result with status error
// and a nil error.
func (s *SyncService) Reconcile(ctx context.Context, trigger inventory.SyncTrigger) (*SyncRunResult, error) {
	release, ok, err := s.lock.TryAcquire(ctx, SyncLockKey, s.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire sync lock: %w", err)
	}
	if !ok {
		s.logger.Info("Sync skipped, another run in progress", zap.String("trigger", string(trigger)))
		return nil, ErrSyncAlreadyRunning
	}
	defer release()

	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.runTimeout)
	defer cancel()
	runID := uuid.New().String()
	runCtx, log := logger.WithSyncRunID(runCtx, s.logger, runID)
	runCtx, span := telemetry.StartSpan(runCtx, "sync.run",
		telemetry.WithAttribute(telemetry.SpanAttrSyncRunID, runID),
		telemetry.WithAttribute(telemetry.SpanAttrSyncPolicy, string(s.policy)),
		telemetry.WithAttribute(telemetry.SpanAttrSyncTrigger, string(trigger)),
	)
	defer span.End()

	startedAt := s.clock()
	log.Info("Sync started",
		zap.String("policy", string(s.policy)),
		zap.String("trigger", string(trigger)),
	)

	products, err := s.productRepo.FindAll(runCtx)
	if err != nil {
		log.Error("Failed to list products", zap.Error(err))
		entry := inventory.NewFailedSyncLogEntry(s.policy, trigger, err, s.clock())
		result := newSyncRunResult(entry, startedAt, entry.CreatedAt)
		s.finish(runCtx, entry, result)
		telemetry.RecordError(span, err)
		return result, nil
	}

	details := make([]inventory.ProductSyncDetail, 0, len(products))
	for i := range products {
		if ctxErr := runCtx.Err(); ctxErr != nil {
			details = append(details, skippedDetail(&products[i], ctxErr))
			continue
		}
		details = append(details, s.syncProduct(runCtx, &products[i]))
	}

	entry := inventory.NewSyncLogEntry(s.policy, trigger, details, s.clock())
	result := newSyncRunResult(entry, startedAt, entry.CreatedAt)
	s.finish(runCtx, entry, result)

	telemetry.SetAttributes(span,
		"sync.status", string(result.Status),
		"sync.synced", result.SyncedCount,
		"sync.errors", result.ErrorCount,
		"sync.total_sales", result.TotalSales,
	)
	telemetry.SetOK(span)

	log.Info("Sync finished",
		zap.String("status", string(result.Status)),
		zap.Int("synced", result.SyncedCount),
		zap.Int("errors", result.ErrorCount),
		zap.Int("total_sales", result.TotalSales),
		zap.Duration("duration", result.FinishedAt.Sub(startedAt)),
	)
	return result, nil
}

// finish persists the audit entry and records run metrics
func (s *SyncService) finish(ctx context.Context, entry *inventory.SyncLogEntry, result *SyncRunResult) {
	s.writeLog(ctx, entry, result)
	if s.recorder != nil {
		s.recorder.RecordRun(ctx, entry, result.FinishedAt.Sub(result.StartedAt))
	}
}

func (s *SyncService) writeLog(ctx context.Context, entry *inventory.SyncLogEntry, result *SyncRunResult) {
	if err := s.logRepo.Create(ctx, entry); err != nil {
		logger.FromContext(ctx).Error("Failed to write sync log", zap.Error(err))
		return
	}
	id := entry.ID
	result.LogID = &id
}

// syncProduct processes one product and never panics
func (s *SyncService) syncProduct(ctx context.Context, p *inventory.Product) (detail inventory.ProductSyncDetail) {
	ctx, span := telemetry.StartSpan(ctx, "sync.product",
		telemetry.WithAttribute(telemetry.SpanAttrSKU, p.SKU),
	)
	defer span.End()

	log := logger.FromContext(ctx).With(zap.String("sku", p.SKU))
	detail = inventory.ProductSyncDetail{
		ProductID:            p.ID,
		SKU:                  p.SKU,
		PreviousAmazon:       p.AmazonQuantity,
		PreviousMercadoLibre: p.MercadoLibreQuantity,
		CurrentAmazon:        p.AmazonQuantity,
		CurrentMercadoLibre:  p.MercadoLibreQuantity,
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("Panic while syncing product", zap.Any("panic", r), zap.Stack("stack"))
			detail.Error = fmt.Sprintf("panic: %v", r)
		}
		if detail.Error != "" {
			telemetry.RecordError(span, errors.New(detail.Error))
		} else {
			telemetry.SetAttributes(span, telemetry.SpanAttrQuantity, detail.PushedQuantity)
		}
	}()

	if err := s.reconcileProduct(ctx, p, &detail); err != nil {
		log.Warn("Product sync failed", zap.Error(err))
		detail.Error = err.Error()
	}
	return detail
}

func (s *SyncService) reconcileProduct(ctx context.Context, p *inventory.Product, detail *inventory.ProductSyncDetail) error {
	amazonRef, onAmazon := s.amazonRef(p)
	meliRef, onMeli := s.mercadoLibreRef(p)

	if onAmazon {
		qty, readErr, err := readQuantity(ctx, s.clients.Amazon, amazonRef, p.AmazonQuantity)
		if err != nil {
			return fmt.Errorf("amazon: %w", err)
		}
		detail.CurrentAmazon, detail.AmazonReadError = qty, readErr
	}
	if onMeli {
		qty, readErr, err := readQuantity(ctx, s.clients.MercadoLibre, meliRef, p.MercadoLibreQuantity)
		if err != nil {
			return fmt.Errorf("mercadolibre: %w", err)
		}
		detail.CurrentMercadoLibre, detail.MercadoLibreReadError = qty, readErr
	}

	push := p.WarehouseQuantity
	if s.policy == inventory.SyncPolicySalesDelta {
		delta := inventory.ComputeSalesDelta(
			p.WarehouseQuantity,
			detail.PreviousAmazon, detail.CurrentAmazon,
			detail.PreviousMercadoLibre, detail.CurrentMercadoLibre,
		)
		detail.SalesAmazon = delta.SalesAmazon
		detail.SalesMercadoLibre = delta.SalesMercadoLibre
		push = delta.NewQuantity
	}
	detail.PushedQuantity = push

	var writeErrs []error
	if onAmazon {
		res := s.clients.Amazon.UpdateInventory(ctx, amazonRef, push)
		updated := res.Ok()
		detail.AmazonUpdated = &updated
		if !updated {
			writeErrs = append(writeErrs, fmt.Errorf("amazon: %w", res.Err()))
		}
	}
	if onMeli {
		res := s.clients.MercadoLibre.UpdateInventory(ctx, meliRef, push)
		updated := res.Ok()
		detail.MercadoLibreUpdated = &updated
		if !updated {
			writeErrs = append(writeErrs, fmt.Errorf("mercadolibre: %w", res.Err()))
		}
	}

	now := s.clock()
	var err error
	if s.policy == inventory.SyncPolicySalesDelta {
		err = p.ApplySalesDelta(push, now)
	} else {
		err = p.ApplyOverwrite(detail.CurrentAmazon, detail.CurrentMercadoLibre, now)
	}
	if err != nil {
		return err
	}
	if err := s.productRepo.Save(ctx, p); err != nil {
		return fmt.Errorf("save product: %w", err)
	}

	return errors.Join(writeErrs...)
}

func (s *SyncService) amazonRef(p *inventory.Product) (integration.ItemRef, bool) {
	if s.clients.Amazon == nil || !p.HasAmazon() {
		return integration.ItemRef{}, false
	}
	return integration.ItemRef{ExternalID: *p.AmazonSKU}, true
}

func (s *SyncService) mercadoLibreRef(p *inventory.Product) (integration.ItemRef, bool) {
	if s.clients.MercadoLibre == nil || !p.HasMercadoLibre() {
		return integration.ItemRef{}, false
	}
	ref := integration.ItemRef{ExternalID: *p.MercadoLibreItemID}
	if p.MercadoLibreVariationID != nil {
		ref.VariantID = *p.MercadoLibreVariationID
	}
	return ref, true
}

// readQuantity returns the current remote quantity, or the fallback with the
// read failure reason. Only authentication failures are returned as errors.
func readQuantity(ctx context.Context, client integration.MarketplaceClient, ref integration.ItemRef, fallback int) (int, string, error) {
	res := client.GetInventory(ctx, ref)
	if res.Ok() {
		if res.Quantity() < 0 {
			return fallback, fmt.Sprintf("%v: negative quantity %d", integration.ErrInvalidResponse, res.Quantity()), nil
		}
		return res.Quantity(), "", nil
	}
	if errors.Is(res.Err(), integration.ErrAuthFailed) {
		return 0, "", res.Err()
	}
	return fallback, res.Err().Error(), nil
}

func skippedDetail(p *inventory.Product, cause error) inventory.ProductSyncDetail {
	return inventory.ProductSyncDetail{
		ProductID:            p.ID,
		SKU:                  p.SKU,
		PreviousAmazon:       p.AmazonQuantity,
		PreviousMercadoLibre: p.MercadoLibreQuantity,
		CurrentAmazon:        p.AmazonQuantity,
		CurrentMercadoLibre:  p.MercadoLibreQuantity,
		Error:                fmt.Sprintf("skipped: %v", cause),
	}
}
