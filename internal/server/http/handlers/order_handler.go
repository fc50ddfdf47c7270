package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/catalogsync/internal/server/http/dto"
)

const orderNotFound = "Order not found"

// OrderHandler manages order-related endpoints.
type OrderHandler struct {
	facade OrderFacade
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(facade OrderFacade) *OrderHandler {
	return &OrderHandler{facade: facade}
}

// List handles GET /api/v1/orders.
func (h *OrderHandler) List(c *gin.Context) {
	q, ok := bindListQuery(c)
	if !ok {
		return
	}

	orders, page, err := h.facade.Orders(c.Request.Context(), q.OrderQuery())
	if err != nil {
		respondError(c, err, orderNotFound)
		return
	}

	c.JSON(http.StatusOK, dto.Envelope{
		Success:    true,
		Data:       dto.NewOrderList(orders),
		Pagination: dto.NewPagination(page),
	})
}

// Get handles GET /api/v1/orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id", "order")
	if !ok {
		return
	}

	order, err := h.facade.Order(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, orderNotFound)
		return
	}

	c.JSON(http.StatusOK, dto.Envelope{Success: true, Data: dto.NewOrderResponse(*order)})
}

// ByProduct handles GET /api/v1/orders/product/:productId.
func (h *OrderHandler) ByProduct(c *gin.Context) {
	id, ok := pathID(c, "productId", "product")
	if !ok {
		return
	}

	orders, err := h.facade.OrdersByProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, orderNotFound)
		return
	}

	c.JSON(http.StatusOK, dto.Envelope{Success: true, Data: dto.NewOrderList(orders)})
}
