package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stocksync/backend/internal/domain/inventory"
	"github.com/stocksync/backend/internal/domain/shared"
	"github.com/stocksync/backend/internal/infrastructure/persistence/models"
)

// errDuplicateSKU is returned when an insert collides with an existing SKU
var errDuplicateSKU = shared.NewDomainError("ALREADY_EXISTS", "Product with this SKU already exists")

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindAll returns every product ordered by SKU ascending
func (r *GormProductRepository) FindAll(ctx context.Context) ([]inventory.Product, error) {
	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).Order("sku ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	products := make([]inventory.Product, len(rows))
	for i := range rows {
		products[i] = *rows[i].ToDomain()
	}
	return products, nil
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Product, error) {
	var row models.ProductModel
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return row.ToDomain(), nil
}

// FindBySKU finds a product by its SKU
func (r *GormProductRepository) FindBySKU(ctx context.Context, sku string) (*inventory.Product, error) {
	var row models.ProductModel
	if err := r.db.WithContext(ctx).Where("sku = ?", sku).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return row.ToDomain(), nil
}

// ExistsBySKU checks if a product with the given SKU exists
func (r *GormProductRepository) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ProductModel{}).Where("sku = ?", sku).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save inserts a new product or updates an existing one.
// Updates require the stored version to match product.Version and bump it by one;
// a mismatch returns shared.ErrConcurrencyConflict.
func (r *GormProductRepository) Save(ctx context.Context, product *inventory.Product) error {
	db := r.db.WithContext(ctx)
	model := models.ProductModelFromDomain(product)

	result := db.Model(&models.ProductModel{}).
		Where("id = ? AND version = ?", product.ID, product.Version).
		Updates(map[string]interface{}{
			"sku":                       model.SKU,
			"name":                      model.Name,
			"warehouse_quantity":        model.WarehouseQuantity,
			"amazon_quantity":           model.AmazonQuantity,
			"mercadolibre_quantity":     model.MercadoLibreQuantity,
			"amazon_sku":                model.AmazonSKU,
			"mercadolibre_item_id":      model.MercadoLibreItemID,
			"mercadolibre_variation_id": model.MercadoLibreVariationID,
			"last_synced_at":            model.LastSyncedAt,
			"updated_at":                model.UpdatedAt,
			"version":                   product.Version + 1,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected > 0 {
		product.Version++
		return nil
	}

	var count int64
	if err := db.Model(&models.ProductModel{}).Where("id = ?", product.ID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return shared.ErrConcurrencyConflict
	}

	if err := db.Create(model).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// Count returns the number of tracked products
func (r *GormProductRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ProductModel{}).Count(&count).Error
	return count, err
}

func translateError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errDuplicateSKU
	}
	return err
}

// Ensure GormProductRepository implements ProductRepository
var _ inventory.ProductRepository = (*GormProductRepository)(nil)
