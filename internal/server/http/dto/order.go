package dto

import (
	"time"

	"github.com/polkiloo/catalogsync/internal/domain/model"
)

// OrderResponse describes a stored order.
type OrderResponse struct {
	ID           int64            `json:"id"`
	Number       string           `json:"number"`
	OrderKey     string           `json:"order_key"`
	Status       string           `json:"status"`
	DateCreated  time.Time        `json:"date_created"`
	Total        string           `json:"total"`
	CustomerID   int64            `json:"customer_id"`
	CustomerNote string           `json:"customer_note"`
	Billing      *model.Document  `json:"billing"`
	Shipping     *model.Document  `json:"shipping"`
	LineItems    []model.LineItem `json:"line_items"`
	UpdatedAt    time.Time        `json:"updated_at"`
	SyncedAt     time.Time        `json:"synced_at"`
}

func NewOrderResponse(o model.Order) OrderResponse {
	items := o.LineItems
	if items == nil {
		items = []model.LineItem{}
	}
	return OrderResponse{
		ID:           o.ID,
		Number:       o.Number,
		OrderKey:     o.OrderKey,
		Status:       o.Status,
		DateCreated:  o.DateCreated,
		Total:        o.Total.StringFixed(2),
		CustomerID:   o.CustomerID,
		CustomerNote: o.CustomerNote,
		Billing:      orEmpty(o.Billing),
		Shipping:     orEmpty(o.Shipping),
		LineItems:    items,
		UpdatedAt:    o.UpdatedAt,
		SyncedAt:     o.SyncedAt,
	}
}

func NewOrderList(orders []model.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, NewOrderResponse(o))
	}
	return out
}

func orEmpty(doc *model.Document) *model.Document {
	if doc == nil {
		return model.NewDocument()
	}
	return doc
}
