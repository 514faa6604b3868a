package inventory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stocksync/backend/internal/domain/shared"
)

// SyncLogStatus is the overall outcome of one reconciliation run
type SyncLogStatus string

const (
	SyncLogStatusSuccess SyncLogStatus = "success"
	SyncLogStatusPartial SyncLogStatus = "partial"
	SyncLogStatusError   SyncLogStatus = "error"
)

// SyncPolicy selects what a reconciliation run means
type SyncPolicy string

const (
	// SyncPolicySalesDelta treats marketplace quantity drops as sales and
	// subtracts them from the warehouse before pushing the result everywhere.
	SyncPolicySalesDelta SyncPolicy = "sales_delta"
	// SyncPolicyOverwrite pushes the warehouse quantity unchanged and only
	// records what the marketplaces reported.
	SyncPolicyOverwrite SyncPolicy = "overwrite"
)

// IsValid reports whether the policy is known
func (p SyncPolicy) IsValid() bool {
	return p == SyncPolicySalesDelta || p == SyncPolicyOverwrite
}

// ParseSyncPolicy converts a configuration value into a SyncPolicy
func ParseSyncPolicy(s string) (SyncPolicy, error) {
	p := SyncPolicy(s)
	if !p.IsValid() {
		return "", shared.NewDomainError("INVALID_SYNC_POLICY", fmt.Sprintf("Unknown sync policy %q", s))
	}
	return p, nil
}

// SyncTrigger records what started a reconciliation run
type SyncTrigger string

const (
	SyncTriggerManual    SyncTrigger = "manual"
	SyncTriggerScheduled SyncTrigger = "scheduled"
	SyncTriggerCLI       SyncTrigger = "cli"
)

// ProductSyncDetail is the per-product record embedded in a SyncLogEntry
type ProductSyncDetail struct {
	ProductID             uuid.UUID `json:"product_id"`
	SKU                   string    `json:"sku"`
	PreviousAmazon        int       `json:"previous_amazon"`
	PreviousMercadoLibre  int       `json:"previous_mercadolibre"`
	CurrentAmazon         int       `json:"current_amazon"`
	CurrentMercadoLibre   int       `json:"current_mercadolibre"`
	SalesAmazon           int       `json:"sales_amazon"`
	SalesMercadoLibre     int       `json:"sales_mercadolibre"`
	PushedQuantity        int       `json:"pushed_quantity"`
	AmazonUpdated         *bool     `json:"amazon_updated,omitempty"`
	MercadoLibreUpdated   *bool     `json:"mercadolibre_updated,omitempty"`
	AmazonReadError       string    `json:"amazon_read_error,omitempty"`
	MercadoLibreReadError string    `json:"mercadolibre_read_error,omitempty"`
	Error                 string    `json:"error,omitempty"`
}

// Failed reports whether the product counts as an error for the batch
func (d ProductSyncDetail) Failed() bool {
	return d.Error != ""
}

// SyncLogEntry is the immutable audit record of one reconciliation run
type SyncLogEntry struct {
	ID          uuid.UUID
	Status      SyncLogStatus
	Policy      SyncPolicy
	Trigger     SyncTrigger
	Message     string
	SyncedCount int
	ErrorCount  int
	TotalSales  int
	Details     []ProductSyncDetail
	CreatedAt   time.Time
}

// NewSyncLogEntry summarizes a completed batch. Status is success when no
// product failed and partial otherwise, including an all-failed batch.
func NewSyncLogEntry(policy SyncPolicy, trigger SyncTrigger, details []ProductSyncDetail, createdAt time.Time) *SyncLogEntry {
	entry := &SyncLogEntry{
		ID:        uuid.New(),
		Policy:    policy,
		Trigger:   trigger,
		Details:   details,
		CreatedAt: createdAt,
	}
	if entry.Details == nil {
		entry.Details = []ProductSyncDetail{}
	}

	// Sales count for failed products too: a failed push still persists the deduction
	for _, d := range details {
		entry.TotalSales += d.SalesAmazon + d.SalesMercadoLibre
		if d.Failed() {
			entry.ErrorCount++
			continue
		}
		entry.SyncedCount++
	}

	entry.Status = SyncLogStatusSuccess
	if entry.ErrorCount > 0 {
		entry.Status = SyncLogStatusPartial
	}

	entry.Message = fmt.Sprintf("Synced %d products, %d errors", entry.SyncedCount, entry.ErrorCount)
	if policy == SyncPolicySalesDelta {
		entry.Message += fmt.Sprintf(", total sales detected: %d", entry.TotalSales)
	}
	return entry
}

// NewFailedSyncLogEntry records a batch that aborted before processing products
func NewFailedSyncLogEntry(policy SyncPolicy, trigger SyncTrigger, cause error, createdAt time.Time) *SyncLogEntry {
	return &SyncLogEntry{
		ID:        uuid.New(),
		Status:    SyncLogStatusError,
		Policy:    policy,
		Trigger:   trigger,
		Message:   fmt.Sprintf("Sync failed: %v", cause),
		Details:   []ProductSyncDetail{},
		CreatedAt: createdAt,
	}
}
