package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/catalogsync/internal/server/http/dto"
)

const productNotFound = "Product not found"

// ProductHandler manages product endpoints.
type ProductHandler struct {
	facade ProductFacade
}

// NewProductHandler constructs ProductHandler.
func NewProductHandler(facade ProductFacade) *ProductHandler {
	return &ProductHandler{facade: facade}
}

// List handles GET /api/v1/products.
func (h *ProductHandler) List(c *gin.Context) {
	q, ok := bindListQuery(c)
	if !ok {
		return
	}

	products, page, err := h.facade.Products(c.Request.Context(), q.ProductQuery())
	if err != nil {
		respondError(c, err, productNotFound)
		return
	}

	c.JSON(http.StatusOK, dto.Envelope{
		Success:    true,
		Data:       dto.NewProductWithCountList(products),
		Pagination: dto.NewPagination(page),
	})
}

// Get handles GET /api/v1/products/:id.
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id", "product")
	if !ok {
		return
	}

	product, err := h.facade.Product(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, productNotFound)
		return
	}

	c.JSON(http.StatusOK, dto.Envelope{Success: true, Data: dto.NewProductResponse(*product)})
}

// Delete handles DELETE /api/v1/products/:id.
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id", "product")
	if !ok {
		return
	}

	removed, err := h.facade.DeleteProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, productNotFound)
		return
	}
	if !removed {
		fail(c, http.StatusNotFound, "Product not found or could not be deleted")
		return
	}

	c.JSON(http.StatusOK, dto.Envelope{Success: true, Message: "Product deleted successfully"})
}

// Backfill handles POST /api/v1/products/backfill. The run is detached from
// the request so a disconnecting client does not abort it.
func (h *ProductHandler) Backfill(c *gin.Context) {
	synced, err := h.facade.BackfillProducts(context.WithoutCancel(c.Request.Context()))
	if err != nil {
		respondError(c, err, productNotFound)
		return
	}

	c.JSON(http.StatusOK, dto.Envelope{
		Success: true,
		Message: "Backfill completed",
		Data:    dto.NewProductList(synced),
	})
}
