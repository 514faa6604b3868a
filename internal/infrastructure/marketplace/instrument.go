package marketplace

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/stocksync/backend/internal/domain/integration"
	"github.com/stocksync/backend/internal/infrastructure/telemetry"
)

// Operation names used for spans and metrics
const (
	opGetInventory    = "get_inventory"
	opUpdateInventory = "update_inventory"
)

// RequestRecorder receives the outcome and latency of every inventory call
type RequestRecorder interface {
	RecordMarketplaceRequest(ctx context.Context, marketplace, operation string, err error, d time.Duration)
}

// instrumentation wraps inventory calls in a client span and a metric sample
type instrumentation struct {
	marketplace string
	recorder    RequestRecorder
}

func (i instrumentation) observe(ctx context.Context, operation string, item integration.ItemRef, fn func(context.Context) error) error {
	ctx, span := telemetry.StartSpan(ctx, "marketplace."+operation,
		telemetry.WithSpanKind(trace.SpanKindClient),
		telemetry.WithAttribute(telemetry.SpanAttrMarketplace, i.marketplace),
		telemetry.WithAttribute(telemetry.SpanAttrOperation, operation),
		telemetry.WithAttribute("marketplace.external_id", item.ExternalID),
	)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	if i.recorder != nil {
		i.recorder.RecordMarketplaceRequest(ctx, i.marketplace, operation, err, time.Since(start))
	}

	if err != nil {
		telemetry.RecordError(span, err)
	} else {
		telemetry.SetOK(span)
	}
	return err
}
