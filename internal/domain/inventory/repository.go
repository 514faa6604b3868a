package inventory

import (
	"context"

	"github.com/google/uuid"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindAll returns every product ordered by SKU ascending
	FindAll(ctx context.Context) ([]Product, error)

	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindBySKU finds a product by its SKU
	FindBySKU(ctx context.Context, sku string) (*Product, error)

	// ExistsBySKU checks if a product with the given SKU exists
	ExistsBySKU(ctx context.Context, sku string) (bool, error)

	// Save creates or updates a product with optimistic locking on Version
	Save(ctx context.Context, product *Product) error

	// Count returns the number of tracked products
	Count(ctx context.Context) (int64, error)
}

// SyncLogRepository defines the interface for sync log persistence.
// Entries are append-only.
type SyncLogRepository interface {
	// Create persists a new log entry
	Create(ctx context.Context, entry *SyncLogEntry) error

	// FindRecent returns the newest entries first
	FindRecent(ctx context.Context, limit int) ([]SyncLogEntry, error)

	// FindByID finds a log entry by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*SyncLogEntry, error)
}
