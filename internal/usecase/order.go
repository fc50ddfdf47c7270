package usecase

import (
	"context"

	"github.com/polkiloo/catalogsync/internal/domain/model"
	"github.com/polkiloo/catalogsync/internal/domain/repository"
)

// OrderUseCase serves stored orders to readers.
type OrderUseCase struct {
	orders repository.OrderRepository
}

// NewOrderUseCase constructs OrderUseCase.
func NewOrderUseCase(orders repository.OrderRepository) *OrderUseCase {
	return &OrderUseCase{orders: orders}
}

// List returns a page of orders matching q.
func (u *OrderUseCase) List(ctx context.Context, q model.OrderQuery) ([]model.Order, model.Pagination, error) {
	q.Page, q.Limit = model.NormalizePage(q.Page, q.Limit)
	orders, total, err := u.orders.List(ctx, q)
	if err != nil {
		return nil, model.Pagination{}, err
	}
	return orders, model.NewPagination(q.Page, q.Limit, total), nil
}

func (u *OrderUseCase) Get(ctx context.Context, id int64) (*model.Order, error) {
	return u.orders.Get(ctx, id)
}

// ListByProduct returns orders referencing productID, newest first.
func (u *OrderUseCase) ListByProduct(ctx context.Context, productID int64) ([]model.Order, error) {
	return u.orders.ListByProduct(ctx, productID)
}
