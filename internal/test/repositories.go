package test

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/catalogsync/internal/domain/errors"
	"github.com/polkiloo/catalogsync/internal/domain/model"
)

// OrderRepositoryStub stores orders in-memory. Fn fields override the
// default behaviour of the matching method.
type OrderRepositoryStub struct {
	mu     sync.Mutex
	orders map[int64]model.Order

	UpsertFn              func(context.Context, *model.Order) error
	ListFn                func(context.Context, model.OrderQuery) ([]model.Order, int64, error)
	ListCreatedBeforeFn   func(context.Context, time.Time) ([]model.Order, error)
	DeleteCreatedBeforeFn func(context.Context, time.Time) (int64, error)
	CountByProductFn      func(context.Context, int64) (int64, error)
	DistinctProductIDsFn  func(context.Context) ([]int64, error)
	Err                   error

	Upserts int
}

// NewOrderRepositoryStub constructs stub seeded with orders.
func NewOrderRepositoryStub(orders ...model.Order) *OrderRepositoryStub {
	s := &OrderRepositoryStub{orders: make(map[int64]model.Order)}
	for _, o := range orders {
		s.orders[o.ID] = o
	}
	return s
}

// Snapshot returns stored orders sorted by id.
func (s *OrderRepositoryStub) Snapshot() []model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Order, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, o)
	}
	slices.SortFunc(out, func(a, b model.Order) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// Has reports whether an order with id is stored.
func (s *OrderRepositoryStub) Has(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.orders[id]
	return ok
}

func (s *OrderRepositoryStub) Upsert(ctx context.Context, order *model.Order) error {
	if s.UpsertFn != nil {
		if err := s.UpsertFn(ctx, order); err != nil {
			return err
		}
	}
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.orders == nil {
		s.orders = make(map[int64]model.Order)
	}
	s.orders[order.ID] = *order
	s.Upserts++
	return nil
}

func (s *OrderRepositoryStub) Get(ctx context.Context, id int64) (*model.Order, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orders[id]; ok {
		return &o, nil
	}
	return nil, domainErrors.ErrNotFound
}

// List filters by status only and sorts by creation date, newest first.
func (s *OrderRepositoryStub) List(ctx context.Context, q model.OrderQuery) ([]model.Order, int64, error) {
	if s.ListFn != nil {
		return s.ListFn(ctx, q)
	}
	if s.Err != nil {
		return nil, 0, s.Err
	}
	all := s.filter(func(o model.Order) bool {
		return q.Status == "" || strings.EqualFold(o.Status, q.Status)
	})
	page, limit := model.NormalizePage(q.Page, q.Limit)
	return pageOf(all, page, limit), int64(len(all)), nil
}

func (s *OrderRepositoryStub) ListByProduct(ctx context.Context, productID int64) ([]model.Order, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.filter(func(o model.Order) bool { return slices.Contains(o.ProductIDs(), productID) }), nil
}

func (s *OrderRepositoryStub) ListCreatedBefore(ctx context.Context, cutoff time.Time) ([]model.Order, error) {
	if s.ListCreatedBeforeFn != nil {
		return s.ListCreatedBeforeFn(ctx, cutoff)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	return s.filter(func(o model.Order) bool { return o.DateCreated.Before(cutoff) }), nil
}

func (s *OrderRepositoryStub) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if s.DeleteCreatedBeforeFn != nil {
		return s.DeleteCreatedBeforeFn(ctx, cutoff)
	}
	if s.Err != nil {
		return 0, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for id, o := range s.orders {
		if o.DateCreated.Before(cutoff) {
			delete(s.orders, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *OrderRepositoryStub) CountByProduct(ctx context.Context, productID int64) (int64, error) {
	if s.CountByProductFn != nil {
		return s.CountByProductFn(ctx, productID)
	}
	orders, err := s.ListByProduct(ctx, productID)
	return int64(len(orders)), err
}

func (s *OrderRepositoryStub) DistinctProductIDs(ctx context.Context) ([]int64, error) {
	if s.DistinctProductIDsFn != nil {
		return s.DistinctProductIDsFn(ctx)
	}
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for _, o := range s.orders {
		for _, id := range o.ProductIDs() {
			if !slices.Contains(ids, id) {
				ids = append(ids, id)
			}
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (s *OrderRepositoryStub) filter(keep func(model.Order) bool) []model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Order, 0)
	for _, o := range s.orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	slices.SortFunc(out, func(a, b model.Order) int {
		if c := b.DateCreated.Compare(a.DateCreated); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out
}

// ProductRepositoryStub stores products in-memory.
type ProductRepositoryStub struct {
	mu       sync.Mutex
	products map[int64]model.Product

	UpsertFn func(context.Context, *model.Product) error
	DeleteFn func(context.Context, int64) (bool, error)
	ListFn   func(context.Context, model.ProductQuery) ([]model.Product, int64, error)
	Err      error

	Upserts int
}

// NewProductRepositoryStub constructs stub seeded with products.
func NewProductRepositoryStub(products ...model.Product) *ProductRepositoryStub {
	s := &ProductRepositoryStub{products: make(map[int64]model.Product)}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

// IDs returns stored product ids in ascending order.
func (s *ProductRepositoryStub) IDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.products))
	for id := range s.products {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Has reports whether a product with id is stored.
func (s *ProductRepositoryStub) Has(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.products[id]
	return ok
}

func (s *ProductRepositoryStub) Upsert(ctx context.Context, product *model.Product) error {
	if s.UpsertFn != nil {
		if err := s.UpsertFn(ctx, product); err != nil {
			return err
		}
	}
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.products == nil {
		s.products = make(map[int64]model.Product)
	}
	s.products[product.ID] = *product
	s.Upserts++
	return nil
}

func (s *ProductRepositoryStub) Get(ctx context.Context, id int64) (*model.Product, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products[id]; ok {
		return &p, nil
	}
	return nil, domainErrors.ErrNotFound
}

// List sorts by name ascending and ignores search terms.
func (s *ProductRepositoryStub) List(ctx context.Context, q model.ProductQuery) ([]model.Product, int64, error) {
	if s.ListFn != nil {
		return s.ListFn(ctx, q)
	}
	if s.Err != nil {
		return nil, 0, s.Err
	}
	s.mu.Lock()
	all := make([]model.Product, 0, len(s.products))
	for _, p := range s.products {
		all = append(all, p)
	}
	s.mu.Unlock()
	slices.SortFunc(all, func(a, b model.Product) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	page, limit := model.NormalizePage(q.Page, q.Limit)
	return pageOf(all, page, limit), int64(len(all)), nil
}

func (s *ProductRepositoryStub) Delete(ctx context.Context, id int64) (bool, error) {
	if s.DeleteFn != nil {
		return s.DeleteFn(ctx, id)
	}
	if s.Err != nil {
		return false, s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		return false, nil
	}
	delete(s.products, id)
	return true, nil
}

func (s *ProductRepositoryStub) ExistingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	found := make([]int64, 0, len(ids))
	for _, id := range ids {
		if s.Has(id) {
			found = append(found, id)
		}
	}
	return found, nil
}

func (s *ProductRepositoryStub) IDsNotIn(ctx context.Context, keep []int64) ([]int64, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]int64, 0)
	for _, id := range s.IDs() {
		if !slices.Contains(keep, id) {
			out = append(out, id)
		}
	}
	return out, nil
}

func pageOf[T any](items []T, page, limit int) []T {
	start := model.Offset(page, limit)
	if start >= len(items) {
		return []T{}
	}
	end := min(start+limit, len(items))
	return items[start:end]
}
