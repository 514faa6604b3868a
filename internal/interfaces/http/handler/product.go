package handler

import (
	"github.com/gin-gonic/gin"

	appinventory "github.com/stocksync/backend/internal/application/inventory"
)

// ProductHandler handles the dashboard product table
type ProductHandler struct {
	BaseHandler
	productService *appinventory.ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService *appinventory.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// List handles GET /api/v1/products
func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.productService.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessList(c, products, int64(len(products)), 0)
}

// Create handles POST /api/v1/products
func (h *ProductHandler) Create(c *gin.Context) {
	var req appinventory.CreateProductInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}

	product, err := h.productService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// Get handles GET /api/v1/products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	product, err := h.productService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// UpdateQuantity handles PUT /api/v1/products/:id/quantity
func (h *ProductHandler) UpdateQuantity(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req appinventory.UpdateQuantityInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}

	product, err := h.productService.UpdateWarehouseQuantity(c.Request.Context(), id, *req.WarehouseQuantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// UpdateMarketplaces handles PUT /api/v1/products/:id/marketplaces
func (h *ProductHandler) UpdateMarketplaces(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req appinventory.UpdateLinksInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.HandleBindError(c, err)
		return
	}

	product, err := h.productService.UpdateMarketplaceLinks(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}
