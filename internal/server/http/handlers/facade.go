package handlers

import (
	"context"

	"github.com/polkiloo/catalogsync/internal/domain/model"
)

// OrderFacade encapsulates order read operations exposed via HTTP.
type OrderFacade interface {
	Orders(ctx context.Context, q model.OrderQuery) ([]model.Order, model.Pagination, error)
	Order(ctx context.Context, id int64) (*model.Order, error)
	OrdersByProduct(ctx context.Context, productID int64) ([]model.Order, error)
}

// ProductFacade provides product related operations.
type ProductFacade interface {
	Products(ctx context.Context, q model.ProductQuery) ([]model.ProductWithCount, model.Pagination, error)
	Product(ctx context.Context, id int64) (*model.Product, error)
	DeleteProduct(ctx context.Context, id int64) (bool, error)
	BackfillProducts(ctx context.Context) ([]model.Product, error)
}

// SyncFacade controls the sync orchestrator.
type SyncFacade interface {
	RunSync(ctx context.Context) (*model.SyncResult, error)
	IsSyncRunning() bool
	SyncStatus() model.SyncStatus
}

// CatalogFacade aggregates the full set of operations used across handlers.
type CatalogFacade interface {
	OrderFacade
	ProductFacade
	SyncFacade
}
