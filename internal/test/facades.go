package test

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/polkiloo/catalogsync/internal/domain/model"
)

// OrderFacadeStub provides controllable behaviour for order endpoints.
type OrderFacadeStub struct {
	OrdersFn          func(context.Context, model.OrderQuery) ([]model.Order, model.Pagination, error)
	OrderFn           func(context.Context, int64) (*model.Order, error)
	OrdersByProductFn func(context.Context, int64) ([]model.Order, error)
}

// Orders delegates to provided function or returns a single order page.
func (s OrderFacadeStub) Orders(ctx context.Context, q model.OrderQuery) ([]model.Order, model.Pagination, error) {
	if s.OrdersFn != nil {
		return s.OrdersFn(ctx, q)
	}
	return []model.Order{{ID: 1, Number: "1"}}, model.NewPagination(1, 20, 1), nil
}

// Order returns the configured order or a stub with requested id.
func (s OrderFacadeStub) Order(ctx context.Context, id int64) (*model.Order, error) {
	if s.OrderFn != nil {
		return s.OrderFn(ctx, id)
	}
	return &model.Order{ID: id, Number: "1"}, nil
}

// OrdersByProduct returns orders for product or an empty list.
func (s OrderFacadeStub) OrdersByProduct(ctx context.Context, productID int64) ([]model.Order, error) {
	if s.OrdersByProductFn != nil {
		return s.OrdersByProductFn(ctx, productID)
	}
	return []model.Order{}, nil
}

// ProductFacadeStub simulates product operations.
type ProductFacadeStub struct {
	ProductsFn func(context.Context, model.ProductQuery) ([]model.ProductWithCount, model.Pagination, error)
	ProductFn  func(context.Context, int64) (*model.Product, error)
	DeleteFn   func(context.Context, int64) (bool, error)
	BackfillFn func(context.Context) ([]model.Product, error)
}

func (s ProductFacadeStub) Products(ctx context.Context, q model.ProductQuery) ([]model.ProductWithCount, model.Pagination, error) {
	if s.ProductsFn != nil {
		return s.ProductsFn(ctx, q)
	}
	return []model.ProductWithCount{}, model.NewPagination(1, 20, 0), nil
}

func (s ProductFacadeStub) Product(ctx context.Context, id int64) (*model.Product, error) {
	if s.ProductFn != nil {
		return s.ProductFn(ctx, id)
	}
	return &model.Product{ID: id, Name: "Product", InStock: true}, nil
}

func (s ProductFacadeStub) DeleteProduct(ctx context.Context, id int64) (bool, error) {
	if s.DeleteFn != nil {
		return s.DeleteFn(ctx, id)
	}
	return true, nil
}

func (s ProductFacadeStub) BackfillProducts(ctx context.Context) ([]model.Product, error) {
	if s.BackfillFn != nil {
		return s.BackfillFn(ctx)
	}
	return []model.Product{}, nil
}

// SyncFacadeStub mimics the sync orchestrator for handlers and the scheduler.
type SyncFacadeStub struct {
	RunSyncFn func(context.Context) (*model.SyncResult, error)
	StatusFn  func() model.SyncStatus
	Running   atomic.Bool
	Calls     atomic.Int32
}

// RunSync records the call and delegates to RunSyncFn when set.
func (s *SyncFacadeStub) RunSync(ctx context.Context) (*model.SyncResult, error) {
	s.Calls.Add(1)
	if s.RunSyncFn != nil {
		return s.RunSyncFn(ctx)
	}
	return &model.SyncResult{RunID: "run", Timestamp: time.Unix(0, 0).UTC()}, nil
}

func (s *SyncFacadeStub) IsSyncRunning() bool {
	return s.Running.Load()
}

func (s *SyncFacadeStub) SyncStatus() model.SyncStatus {
	if s.StatusFn != nil {
		return s.StatusFn()
	}
	return model.SyncStatus{IsRunning: s.Running.Load()}
}
