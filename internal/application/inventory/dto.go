package inventory

import (
	"time"

	"github.com/google/uuid"

	"github.com/stocksync/backend/internal/domain/inventory"
)

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID                      uuid.UUID  `json:"id"`
	SKU                     string     `json:"sku"`
	Name                    string     `json:"name"`
	WarehouseQuantity       int        `json:"warehouse_quantity"`
	AmazonQuantity          int        `json:"amazon_quantity"`
	MercadoLibreQuantity    int        `json:"mercadolibre_quantity"`
	AmazonSKU               *string    `json:"amazon_sku,omitempty"`
	MercadoLibreItemID      *string    `json:"mercadolibre_item_id,omitempty"`
	MercadoLibreVariationID *string    `json:"mercadolibre_variation_id,omitempty"`
	LastSyncedAt            *time.Time `json:"last_synced_at,omitempty"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at"`
	Version                 int        `json:"version"`
}

// ToProductResponse converts a domain product to a response DTO
func ToProductResponse(p *inventory.Product) ProductResponse {
	return ProductResponse{
		ID:                      p.ID,
		SKU:                     p.SKU,
		Name:                    p.Name,
		WarehouseQuantity:       p.WarehouseQuantity,
		AmazonQuantity:          p.AmazonQuantity,
		MercadoLibreQuantity:    p.MercadoLibreQuantity,
		AmazonSKU:               p.AmazonSKU,
		MercadoLibreItemID:      p.MercadoLibreItemID,
		MercadoLibreVariationID: p.MercadoLibreVariationID,
		LastSyncedAt:            p.LastSyncedAt,
		CreatedAt:               p.CreatedAt,
		UpdatedAt:               p.UpdatedAt,
		Version:                 p.Version,
	}
}

// ToProductResponses converts a slice of domain products
func ToProductResponses(products []inventory.Product) []ProductResponse {
	out := make([]ProductResponse, len(products))
	for i := range products {
		out[i] = ToProductResponse(&products[i])
	}
	return out
}

// CreateProductInput is the input for creating a product
type CreateProductInput struct {
	SKU                     string `json:"sku" binding:"required,max=64"`
	Name                    string `json:"name" binding:"required,max=255"`
	WarehouseQuantity       int    `json:"warehouse_quantity" binding:"min=0"`
	AmazonSKU               string `json:"amazon_sku" binding:"omitempty,max=64"`
	MercadoLibreItemID      string `json:"mercadolibre_item_id" binding:"omitempty,max=64"`
	MercadoLibreVariationID string `json:"mercadolibre_variation_id" binding:"omitempty,max=64"`
}

// UpdateQuantityInput is the input for a manual warehouse quantity edit
type UpdateQuantityInput struct {
	WarehouseQuantity *int `json:"warehouse_quantity" binding:"required,min=0"`
}

// UpdateLinksInput replaces a product's marketplace identifiers. Blank values unlink.
type UpdateLinksInput struct {
	AmazonSKU               string `json:"amazon_sku" binding:"omitempty,max=64"`
	MercadoLibreItemID      string `json:"mercadolibre_item_id" binding:"omitempty,max=64"`
	MercadoLibreVariationID string `json:"mercadolibre_variation_id" binding:"omitempty,max=64"`
}

// SyncRunResult is the outcome of one Reconcile call
type SyncRunResult struct {
	Success     bool                          `json:"success"`
	Status      inventory.SyncLogStatus       `json:"status"`
	Policy      inventory.SyncPolicy          `json:"policy"`
	Trigger     inventory.SyncTrigger         `json:"trigger"`
	Message     string                        `json:"message"`
	SyncedCount int                           `json:"synced_count"`
	ErrorCount  int                           `json:"error_count"`
	TotalSales  int                           `json:"total_sales"`
	Details     []inventory.ProductSyncDetail `json:"details"`
	LogID       *uuid.UUID                    `json:"log_id,omitempty"`
	StartedAt   time.Time                     `json:"started_at"`
	FinishedAt  time.Time                     `json:"finished_at"`
}

func newSyncRunResult(entry *inventory.SyncLogEntry, startedAt, finishedAt time.Time) *SyncRunResult {
	return &SyncRunResult{
		Success:     entry.Status == inventory.SyncLogStatusSuccess,
		Status:      entry.Status,
		Policy:      entry.Policy,
		Trigger:     entry.Trigger,
		Message:     entry.Message,
		SyncedCount: entry.SyncedCount,
		ErrorCount:  entry.ErrorCount,
		TotalSales:  entry.TotalSales,
		Details:     entry.Details,
		StartedAt:   startedAt,
		FinishedAt:  finishedAt,
	}
}

// SyncLogResponse represents a sync log entry in API responses
type SyncLogResponse struct {
	ID          uuid.UUID                     `json:"id"`
	Status      inventory.SyncLogStatus       `json:"status"`
	Policy      inventory.SyncPolicy          `json:"policy"`
	Trigger     inventory.SyncTrigger         `json:"trigger"`
	Message     string                        `json:"message"`
	SyncedCount int                           `json:"synced_count"`
	ErrorCount  int                           `json:"error_count"`
	TotalSales  int                           `json:"total_sales"`
	Details     []inventory.ProductSyncDetail `json:"details,omitempty"`
	CreatedAt   time.Time                     `json:"created_at"`
}

// ToSyncLogResponse converts a log entry; details are omitted for list views
func ToSyncLogResponse(e *inventory.SyncLogEntry, withDetails bool) SyncLogResponse {
	resp := SyncLogResponse{
		ID:          e.ID,
		Status:      e.Status,
		Policy:      e.Policy,
		Trigger:     e.Trigger,
		Message:     e.Message,
		SyncedCount: e.SyncedCount,
		ErrorCount:  e.ErrorCount,
		TotalSales:  e.TotalSales,
		CreatedAt:   e.CreatedAt,
	}
	if withDetails {
		resp.Details = e.Details
	}
	return resp
}
