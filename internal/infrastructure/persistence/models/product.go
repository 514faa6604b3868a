package models

import (
	"time"

	"github.com/stocksync/backend/internal/domain/inventory"
)

// ProductModel is the persistence model for the Product aggregate root.
type ProductModel struct {
	AggregateModel
	SKU                     string  `gorm:"type:varchar(64);not null;uniqueIndex:idx_products_sku"`
	Name                    string  `gorm:"type:varchar(255);not null"`
	WarehouseQuantity       int     `gorm:"not null;default:0"`
	AmazonQuantity          int     `gorm:"not null;default:0"`
	MercadoLibreQuantity    int     `gorm:"column:mercadolibre_quantity;not null;default:0"`
	AmazonSKU               *string `gorm:"type:varchar(64)"`
	MercadoLibreItemID      *string `gorm:"column:mercadolibre_item_id;type:varchar(64)"`
	MercadoLibreVariationID *string `gorm:"column:mercadolibre_variation_id;type:varchar(64)"`
	LastSyncedAt            *time.Time
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *inventory.Product {
	return &inventory.Product{
		BaseAggregateRoot:       m.ToDomainAggregateRoot(),
		SKU:                     m.SKU,
		Name:                    m.Name,
		WarehouseQuantity:       m.WarehouseQuantity,
		AmazonQuantity:          m.AmazonQuantity,
		MercadoLibreQuantity:    m.MercadoLibreQuantity,
		AmazonSKU:               m.AmazonSKU,
		MercadoLibreItemID:      m.MercadoLibreItemID,
		MercadoLibreVariationID: m.MercadoLibreVariationID,
		LastSyncedAt:            m.LastSyncedAt,
	}
}

// FromDomain populates the persistence model from a domain Product entity.
func (m *ProductModel) FromDomain(p *inventory.Product) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.SKU = p.SKU
	m.Name = p.Name
	m.WarehouseQuantity = p.WarehouseQuantity
	m.AmazonQuantity = p.AmazonQuantity
	m.MercadoLibreQuantity = p.MercadoLibreQuantity
	m.AmazonSKU = p.AmazonSKU
	m.MercadoLibreItemID = p.MercadoLibreItemID
	m.MercadoLibreVariationID = p.MercadoLibreVariationID
	m.LastSyncedAt = p.LastSyncedAt
}

// ProductModelFromDomain creates a new persistence model from a domain Product entity.
func ProductModelFromDomain(p *inventory.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}
