package dto

import (
	"time"

	"github.com/polkiloo/catalogsync/internal/domain/model"
)

// ProductResponse describes a stored product.
type ProductResponse struct {
	ID               int64             `json:"id"`
	Name             string            `json:"name"`
	SKU              string            `json:"sku"`
	Price            string            `json:"price"`
	RegularPrice     string            `json:"regular_price"`
	SalePrice        string            `json:"sale_price"`
	Description      string            `json:"description"`
	ShortDescription string            `json:"short_description"`
	Images           []*model.Document `json:"images"`
	StockQuantity    *int64            `json:"stock_quantity"`
	InStock          bool              `json:"in_stock"`
	UpdatedAt        time.Time         `json:"updated_at"`
	SyncedAt         time.Time         `json:"synced_at"`
}

// ProductWithCountResponse adds the number of stored orders referencing the product.
type ProductWithCountResponse struct {
	ProductResponse
	OrderCount int64 `json:"orderCount"`
}

func NewProductResponse(p model.Product) ProductResponse {
	images := p.Images
	if images == nil {
		images = []*model.Document{}
	}
	return ProductResponse{
		ID:               p.ID,
		Name:             p.Name,
		SKU:              p.SKU,
		Price:            p.Price.String(),
		RegularPrice:     p.RegularPrice.String(),
		SalePrice:        p.SalePrice.String(),
		Description:      p.Description,
		ShortDescription: p.ShortDescription,
		Images:           images,
		StockQuantity:    p.StockQuantity,
		InStock:          p.InStock,
		UpdatedAt:        p.UpdatedAt,
		SyncedAt:         p.SyncedAt,
	}
}

func NewProductList(products []model.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, NewProductResponse(p))
	}
	return out
}

func NewProductWithCountList(products []model.ProductWithCount) []ProductWithCountResponse {
	out := make([]ProductWithCountResponse, 0, len(products))
	for _, p := range products {
		out = append(out, ProductWithCountResponse{ProductResponse: NewProductResponse(p.Product), OrderCount: p.OrderCount})
	}
	return out
}
