package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product mirrors a remote catalog product referenced by orders.
type Product struct {
	ID               int64
	Name             string
	SKU              string
	Price            decimal.Decimal
	RegularPrice     decimal.Decimal
	SalePrice        decimal.Decimal
	Description      string
	ShortDescription string
	Images           []*Document
	StockQuantity    *int64
	InStock          bool
	UpdatedAt        time.Time
	SyncedAt         time.Time
}

// ProductWithCount decorates a product with the number of stored orders referencing it.
type ProductWithCount struct {
	Product
	OrderCount int64
}
