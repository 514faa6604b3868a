package inventory

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stocksync/backend/internal/domain/inventory"
	"github.com/stocksync/backend/internal/domain/shared"
)

// ProductService handles dashboard product operations
type ProductService struct {
	productRepo inventory.ProductRepository
	logger      *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(productRepo inventory.ProductRepository, logger *zap.Logger) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{
		productRepo: productRepo,
		logger:      logger,
	}
}

// List returns every product ordered by SKU
func (s *ProductService) List(ctx context.Context) ([]ProductResponse, error) {
	products, err := s.productRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return ToProductResponses(products), nil
}

// Get returns a product by ID
func (s *ProductService) Get(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(product)
	return &resp, nil
}

// Create adds a product. SKUs are unique.
func (s *ProductService) Create(ctx context.Context, input CreateProductInput) (*ProductResponse, error) {
	exists, err := s.productRepo.ExistsBySKU(ctx, input.SKU)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Product with this SKU already exists")
	}

	product, err := inventory.NewProduct(input.SKU, input.Name, input.WarehouseQuantity)
	if err != nil {
		return nil, err
	}
	if err := product.LinkMarketplaces(input.AmazonSKU, input.MercadoLibreItemID, input.MercadoLibreVariationID); err != nil {
		return nil, err
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("sku", product.SKU),
		zap.Int("warehouse_quantity", product.WarehouseQuantity),
	)

	resp := ToProductResponse(product)
	return &resp, nil
}

// UpdateWarehouseQuantity records a manual stock correction.
// Marketplace snapshots are untouched; the next sync pushes the new value.
func (s *ProductService) UpdateWarehouseQuantity(ctx context.Context, id uuid.UUID, quantity int) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := product.WarehouseQuantity
	if err := product.SetWarehouseQuantity(quantity); err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("Warehouse quantity updated",
		zap.String("sku", product.SKU),
		zap.Int("previous", previous),
		zap.Int("quantity", quantity),
	)

	resp := ToProductResponse(product)
	return &resp, nil
}

// UpdateMarketplaceLinks replaces the product's marketplace identifiers
func (s *ProductService) UpdateMarketplaceLinks(ctx context.Context, id uuid.UUID, input UpdateLinksInput) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := product.LinkMarketplaces(input.AmazonSKU, input.MercadoLibreItemID, input.MercadoLibreVariationID); err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}

	resp := ToProductResponse(product)
	return &resp, nil
}
