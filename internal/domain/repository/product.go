package repository

import (
	"context"

	"github.com/polkiloo/catalogsync/internal/domain/model"
)

// ProductRepository describes persistence operations with mirrored products.
type ProductRepository interface {
	Upsert(ctx context.Context, product *model.Product) error
	Get(ctx context.Context, id int64) (*model.Product, error)
	List(ctx context.Context, query model.ProductQuery) ([]model.Product, int64, error)
	// Delete removes the product and reports whether a row existed.
	Delete(ctx context.Context, id int64) (bool, error)
	// ExistingIDs returns the subset of ids already stored.
	ExistingIDs(ctx context.Context, ids []int64) ([]int64, error)
	// IDsNotIn returns stored product ids absent from keep.
	IDsNotIn(ctx context.Context, keep []int64) ([]int64, error)
}
