package app

import (
	"context"

	"github.com/polkiloo/catalogsync/internal/domain/model"
	"github.com/polkiloo/catalogsync/internal/usecase"
)

// CatalogFacade exposes use cases to transport and scheduling layers.
type CatalogFacade struct {
	orders   *usecase.OrderUseCase
	products *usecase.ProductUseCase
	sync     *usecase.SyncUseCase
}

func NewCatalogFacade(orders *usecase.OrderUseCase, products *usecase.ProductUseCase, sync *usecase.SyncUseCase) *CatalogFacade {
	return &CatalogFacade{orders: orders, products: products, sync: sync}
}

// RunSync starts a full run bound to ctx.
func (f *CatalogFacade) RunSync(ctx context.Context) (*model.SyncResult, error) {
	return f.sync.RunSync(ctx)
}

func (f *CatalogFacade) IsSyncRunning() bool {
	return f.sync.IsRunning()
}

func (f *CatalogFacade) SyncStatus() model.SyncStatus {
	return f.sync.Status()
}

func (f *CatalogFacade) BackfillProducts(ctx context.Context) ([]model.Product, error) {
	return f.products.BackfillMissing(ctx)
}

func (f *CatalogFacade) Orders(ctx context.Context, q model.OrderQuery) ([]model.Order, model.Pagination, error) {
	return f.orders.List(ctx, q)
}

func (f *CatalogFacade) Order(ctx context.Context, id int64) (*model.Order, error) {
	return f.orders.Get(ctx, id)
}

func (f *CatalogFacade) OrdersByProduct(ctx context.Context, productID int64) ([]model.Order, error) {
	return f.orders.ListByProduct(ctx, productID)
}

func (f *CatalogFacade) Products(ctx context.Context, q model.ProductQuery) ([]model.ProductWithCount, model.Pagination, error) {
	return f.products.List(ctx, q)
}

func (f *CatalogFacade) Product(ctx context.Context, id int64) (*model.Product, error) {
	return f.products.Get(ctx, id)
}

func (f *CatalogFacade) DeleteProduct(ctx context.Context, id int64) (bool, error) {
	return f.products.Delete(ctx, id)
}
