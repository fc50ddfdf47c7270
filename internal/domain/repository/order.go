package repository

import (
	"context"
	"time"

	"github.com/polkiloo/catalogsync/internal/domain/model"
)

// OrderRepository describes persistence operations with mirrored orders.
type OrderRepository interface {
	// Upsert stores the order, fully replacing any record with the same id.
	Upsert(ctx context.Context, order *model.Order) error
	Get(ctx context.Context, id int64) (*model.Order, error)
	List(ctx context.Context, query model.OrderQuery) ([]model.Order, int64, error)
	ListByProduct(ctx context.Context, productID int64) ([]model.Order, error)
	ListCreatedBefore(ctx context.Context, cutoff time.Time) ([]model.Order, error)
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	CountByProduct(ctx context.Context, productID int64) (int64, error)
	// DistinctProductIDs returns every product id referenced by a stored order.
	DistinctProductIDs(ctx context.Context) ([]int64, error)
}
