package inventory

import (
	"strings"
	"time"

	"github.com/stocksync/backend/internal/domain/shared"
)

const (
	maxSKULength  = 64
	maxNameLength = 255
)

// Product is one tracked SKU with its warehouse stock and the last quantities
// observed on each marketplace.
//
// The warehouse quantity is authoritative. Amazon and MercadoLibre quantities are
// the snapshot taken at the last reconciliation and serve as the "previous"
// values for sales-delta accounting. All quantities are non-negative.
type Product struct {
	shared.BaseAggregateRoot
	SKU                     string
	Name                    string
	WarehouseQuantity       int
	AmazonQuantity          int
	MercadoLibreQuantity    int
	AmazonSKU               *string
	MercadoLibreItemID      *string
	MercadoLibreVariationID *string
	LastSyncedAt            *time.Time
}

// NewProduct creates a product with no marketplace links
func NewProduct(sku, name string, warehouseQuantity int) (*Product, error) {
	sku = strings.TrimSpace(sku)
	name = strings.TrimSpace(name)

	if sku == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	if len(sku) > maxSKULength {
		return nil, shared.NewDomainError("INVALID_SKU", "SKU cannot exceed 64 characters")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > maxNameLength {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 255 characters")
	}
	if warehouseQuantity < 0 {
		return nil, ErrNegativeQuantity
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SKU:               sku,
		Name:              name,
		WarehouseQuantity: warehouseQuantity,
	}, nil
}

// ErrNegativeQuantity is returned whenever a quantity below zero would be stored
var ErrNegativeQuantity = shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be negative")

// SetWarehouseQuantity records a manual stock correction.
// Marketplace snapshots are left untouched so the next sales-delta run still
// measures sales against what the marketplaces last reported.
func (p *Product) SetWarehouseQuantity(quantity int) error {
	if quantity < 0 {
		return ErrNegativeQuantity
	}
	p.WarehouseQuantity = quantity
	p.UpdatedAt = time.Now()
	return nil
}

// LinkMarketplaces replaces the external identifiers. Blank values unlink.
// A variation without an item id is rejected.
func (p *Product) LinkMarketplaces(amazonSKU, meliItemID, meliVariationID string) error {
	amazon := optionalString(amazonSKU)
	item := optionalString(meliItemID)
	variation := optionalString(meliVariationID)

	if variation != nil && item == nil {
		return shared.NewDomainError("INVALID_MARKETPLACE_LINK", "MercadoLibre variation requires an item id")
	}

	p.AmazonSKU = amazon
	p.MercadoLibreItemID = item
	p.MercadoLibreVariationID = variation
	p.UpdatedAt = time.Now()
	return nil
}

// HasAmazon reports whether the product is listed on Amazon
func (p *Product) HasAmazon() bool {
	return p.AmazonSKU != nil && *p.AmazonSKU != ""
}

// HasMercadoLibre reports whether the product is listed on MercadoLibre
func (p *Product) HasMercadoLibre() bool {
	return p.MercadoLibreItemID != nil && *p.MercadoLibreItemID != ""
}

// ApplySalesDelta stores the result of a sales-delta run: the new quantity
// becomes the warehouse stock and both marketplace snapshots.
func (p *Product) ApplySalesDelta(newQuantity int, syncedAt time.Time) error {
	if newQuantity < 0 {
		return ErrNegativeQuantity
	}
	p.WarehouseQuantity = newQuantity
	p.AmazonQuantity = newQuantity
	p.MercadoLibreQuantity = newQuantity
	p.markSynced(syncedAt)
	return nil
}

// ApplyOverwrite stores the result of an overwrite run: the marketplace
// snapshots take the fetched values and the warehouse stock is unchanged.
func (p *Product) ApplyOverwrite(amazonQuantity, meliQuantity int, syncedAt time.Time) error {
	if amazonQuantity < 0 || meliQuantity < 0 {
		return ErrNegativeQuantity
	}
	p.AmazonQuantity = amazonQuantity
	p.MercadoLibreQuantity = meliQuantity
	p.markSynced(syncedAt)
	return nil
}

func (p *Product) markSynced(at time.Time) {
	t := at
	p.LastSyncedAt = &t
	p.UpdatedAt = at
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
