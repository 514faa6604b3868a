package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/stocksync/backend/internal/domain/inventory"
)

// Outcome attribute values
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// SyncMetrics holds the reconciliation and marketplace instruments.
// A nil *SyncMetrics records nothing.
type SyncMetrics struct {
	runs            *Counter
	products        *Counter
	sales           *Counter
	runDuration     *Histogram
	requestDuration *Histogram
}

// NewSyncMetrics registers the instruments on meter
func NewSyncMetrics(meter metric.Meter) (*SyncMetrics, error) {
	runs, err := NewCounter(meter, "stocksync.sync.runs", "Reconciliation runs by final status", "{run}")
	if err != nil {
		return nil, err
	}
	products, err := NewCounter(meter, "stocksync.sync.products", "Products processed by outcome", "{product}")
	if err != nil {
		return nil, err
	}
	sales, err := NewCounter(meter, "stocksync.sync.sales", "Units sold detected from marketplace quantity drops", "{unit}")
	if err != nil {
		return nil, err
	}
	runDuration, err := NewHistogram(meter, HistogramOpts{
		Name:        "stocksync.sync.duration",
		Description: "Reconciliation run duration",
		Unit:        "s",
		Boundaries:  RunDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	requestDuration, err := NewHistogram(meter, HistogramOpts{
		Name:        "stocksync.marketplace.request.duration",
		Description: "Marketplace API operation duration",
		Unit:        "s",
		Boundaries:  HTTPDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		runs:            runs,
		products:        products,
		sales:           sales,
		runDuration:     runDuration,
		requestDuration: requestDuration,
	}, nil
}

// RecordRun records the summary of one reconciliation run
func (m *SyncMetrics) RecordRun(ctx context.Context, entry *inventory.SyncLogEntry, d time.Duration) {
	if m == nil || entry == nil {
		return
	}
	policy := AttrSyncPolicy.String(string(entry.Policy))
	trigger := AttrSyncTrigger.String(string(entry.Trigger))

	m.runs.Inc(ctx, AttrSyncStatus.String(string(entry.Status)), policy, trigger)
	m.runDuration.RecordDuration(ctx, d, AttrSyncStatus.String(string(entry.Status)), policy)
	if entry.SyncedCount > 0 {
		m.products.Add(ctx, int64(entry.SyncedCount), AttrOutcome.String(OutcomeSuccess), policy)
	}
	if entry.ErrorCount > 0 {
		m.products.Add(ctx, int64(entry.ErrorCount), AttrOutcome.String(OutcomeError), policy)
	}
	if entry.TotalSales > 0 {
		m.sales.Add(ctx, int64(entry.TotalSales), policy)
	}
}

// RecordMarketplaceRequest records one marketplace read or write
func (m *SyncMetrics) RecordMarketplaceRequest(ctx context.Context, marketplace, operation string, err error, d time.Duration) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	m.requestDuration.RecordDuration(ctx, d,
		AttrMarketplace.String(marketplace),
		AttrOperation.String(operation),
		AttrOutcome.String(outcome),
	)
}
