package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/polkiloo/catalogsync/internal/adapter/woocommerce"
	"github.com/polkiloo/catalogsync/internal/config"
	"github.com/polkiloo/catalogsync/internal/domain/model"
	"github.com/polkiloo/catalogsync/internal/domain/repository"
	"github.com/polkiloo/catalogsync/internal/pkg/limiter"
)

const (
	orderPageSize  = 100
	orderSortField = "date"
)

// OrderSyncUseCase mirrors recent catalog orders into the order store.
type OrderSyncUseCase struct {
	catalog   woocommerce.Client
	orders    repository.OrderRepository
	products  *ProductUseCase
	gate      *limiter.Gate
	fetchDays int
	logger    *slog.Logger
	now       func() time.Time
}

// NewOrderSyncUseCase constructs OrderSyncUseCase.
func NewOrderSyncUseCase(
	catalog woocommerce.Client,
	orders repository.OrderRepository,
	products *ProductUseCase,
	cfg *config.Config,
	logger *slog.Logger,
) *OrderSyncUseCase {
	return &OrderSyncUseCase{
		catalog:   catalog,
		orders:    orders,
		products:  products,
		gate:      limiter.New(cfg.OrderConcurrency),
		fetchDays: cfg.OrderFetchDays,
		logger:    logger,
		now:       time.Now,
	}
}

// Sync pages through orders created within the fetch window. Page fetch
// failures end pagination and count as a single error; invalid or unsaved
// orders are counted individually. Only cancellation of ctx is returned as error.
func (u *OrderSyncUseCase) Sync(ctx context.Context) (model.OrderSyncResult, error) {
	var result model.OrderSyncResult
	cutoff := u.now().UTC().AddDate(0, 0, -u.fetchDays)

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		items, err := u.catalog.FetchOrders(ctx, woocommerce.OrderFilter{
			Page:    page,
			PerPage: orderPageSize,
			After:   cutoff,
			OrderBy: orderSortField,
			Order:   string(model.SortDesc),
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			u.logger.Error("failed to fetch orders page",
				slog.Int("page", page),
				slog.String("error", err.Error()),
			)
			result.Errors++
			break
		}
		if len(items) == 0 {
			break
		}

		synced, failed := u.processPage(ctx, items)
		result.Synced += synced
		result.Errors += failed

		if len(items) < orderPageSize {
			break
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}
	u.logger.Info("order sync completed",
		slog.Int("synced", result.Synced),
		slog.Int("errors", result.Errors),
	)
	return result, nil
}

func (u *OrderSyncUseCase) processPage(ctx context.Context, items []json.RawMessage) (int, int) {
	var (
		synced atomic.Int64
		failed atomic.Int64
		g      errgroup.Group
	)
	for _, raw := range items {
		g.Go(func() error {
			err := u.gate.Run(ctx, func(ctx context.Context) error {
				return u.processOrder(ctx, raw)
			})
			if err != nil {
				failed.Add(1)
				u.logger.Error("failed to process order",
					slog.Any("order_id", peekID(raw)),
					slog.String("error", err.Error()),
				)
				return nil
			}
			synced.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	return int(synced.Load()), int(failed.Load())
}

func (u *OrderSyncUseCase) processOrder(ctx context.Context, raw json.RawMessage) error {
	order, err := decodeOrder(raw, u.now().UTC())
	if err != nil {
		return err
	}

	for _, li := range order.LineItems {
		if li.InvalidProductRef != "" {
			u.logger.Warn("ignoring unusable product reference",
				slog.Int64("order_id", order.ID),
				slog.String("product_id", li.InvalidProductRef),
			)
		}
	}
	u.resolveProducts(ctx, order)

	if err := u.orders.Upsert(ctx, order); err != nil {
		return err
	}
	u.logger.Debug("order processed", slog.Int64("order_id", order.ID))
	return nil
}

// resolveProducts mirrors referenced products. Failures are logged and do
// not prevent the order from being stored.
func (u *OrderSyncUseCase) resolveProducts(ctx context.Context, order *model.Order) {
	var g errgroup.Group
	for _, id := range order.ProductIDs() {
		g.Go(func() error {
			_, err := limiter.Do(ctx, u.products.Gate(), func(ctx context.Context) (*model.Product, error) {
				return u.products.ResolveIfMissing(ctx, id)
			})
			if err != nil {
				u.logger.Error("failed to sync product",
					slog.Int64("order_id", order.ID),
					slog.Int64("product_id", id),
					slog.String("error", err.Error()),
				)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// peekID extracts the order id for logging from a payload that may be invalid.
func peekID(raw json.RawMessage) any {
	var probe struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil || len(probe.ID) == 0 {
		return nil
	}
	return string(probe.ID)
}
