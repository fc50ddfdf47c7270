package usecase

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/polkiloo/catalogsync/internal/adapter/woocommerce"
	"github.com/polkiloo/catalogsync/internal/config"
	domainErrors "github.com/polkiloo/catalogsync/internal/domain/errors"
	"github.com/polkiloo/catalogsync/internal/domain/model"
	"github.com/polkiloo/catalogsync/internal/domain/repository"
	"github.com/polkiloo/catalogsync/internal/metrics"
	"github.com/polkiloo/catalogsync/internal/pkg/limiter"
)

// backfillPruneMonths is the fixed age after which backfill drops stored orders,
// regardless of the configured retention.
const backfillPruneMonths = 3

// ProductUseCase resolves products referenced by orders and keeps the product
// store free of unreferenced entries.
type ProductUseCase struct {
	products repository.ProductRepository
	orders   repository.OrderRepository
	catalog  woocommerce.Client
	gate     *limiter.Gate
	metrics  *metrics.Registry
	logger   *slog.Logger
	now      func() time.Time
}

// NewProductUseCase constructs ProductUseCase.
func NewProductUseCase(
	products repository.ProductRepository,
	orders repository.OrderRepository,
	catalog woocommerce.Client,
	cfg *config.Config,
	registry *metrics.Registry,
	logger *slog.Logger,
) *ProductUseCase {
	return &ProductUseCase{
		products: products,
		orders:   orders,
		catalog:  catalog,
		gate:     limiter.New(cfg.ProductConcurrency),
		metrics:  registry,
		logger:   logger,
		now:      time.Now,
	}
}

// Gate returns the gate bounding concurrent product resolution.
func (u *ProductUseCase) Gate() *limiter.Gate {
	return u.gate
}

// ResolveIfMissing returns the stored product or mirrors it from the catalog.
func (u *ProductUseCase) ResolveIfMissing(ctx context.Context, id int64) (*model.Product, error) {
	product, err := u.products.Get(ctx, id)
	if err == nil {
		u.logger.Debug("product already stored, skipping sync", slog.Int64("product_id", id))
		return product, nil
	}
	if !errors.Is(err, domainErrors.ErrNotFound) {
		return nil, err
	}
	return u.sync(ctx, id)
}

func (u *ProductUseCase) sync(ctx context.Context, id int64) (*model.Product, error) {
	raw, err := u.catalog.FetchProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	u.metrics.ProductFetched()

	product, err := decodeProduct(raw, u.now().UTC())
	if err != nil {
		return nil, err
	}
	if err := u.products.Upsert(ctx, product); err != nil {
		return nil, err
	}
	u.logger.Debug("product synced", slog.Int64("product_id", product.ID))
	return product, nil
}

// BackfillMissing mirrors every product referenced by stored orders but absent
// locally, then prunes old orders and deletes products nothing references.
func (u *ProductUseCase) BackfillMissing(ctx context.Context) ([]model.Product, error) {
	referenced, err := u.orders.DistinctProductIDs(ctx)
	if err != nil {
		return nil, err
	}
	existing, err := u.products.ExistingIDs(ctx, referenced)
	if err != nil {
		return nil, err
	}
	missing := slices.DeleteFunc(slices.Clone(referenced), func(id int64) bool {
		return slices.Contains(existing, id)
	})

	var (
		mu     sync.Mutex
		synced = make([]model.Product, 0, len(missing))
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, id := range missing {
		g.Go(func() error {
			product, err := limiter.Do(gctx, u.gate, func(ctx context.Context) (*model.Product, error) {
				return u.ResolveIfMissing(ctx, id)
			})
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				u.logger.Error("failed to backfill product",
					slog.Int64("product_id", id),
					slog.String("error", err.Error()),
				)
				return nil
			}
			mu.Lock()
			synced = append(synced, *product)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cutoff := u.now().AddDate(0, -backfillPruneMonths, 0)
	pruned, err := u.orders.DeleteCreatedBefore(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	remaining, err := u.orders.DistinctProductIDs(ctx)
	if err != nil {
		return nil, err
	}
	unused, err := u.products.IDsNotIn(ctx, remaining)
	if err != nil {
		return nil, err
	}
	var removed int64
	for _, id := range unused {
		if _, err := u.products.Delete(ctx, id); err != nil {
			u.logger.Error("failed to delete unused product",
				slog.Int64("product_id", id),
				slog.String("error", err.Error()),
			)
			continue
		}
		removed++
		u.logger.Info("deleted unused product", slog.Int64("product_id", id))
	}
	u.metrics.Cleaned(pruned, removed)

	slices.SortFunc(synced, func(a, b model.Product) int { return cmp.Compare(a.ID, b.ID) })
	u.logger.Info("product backfill completed",
		slog.Int("missing", len(missing)),
		slog.Int("synced", len(synced)),
		slog.Int64("orders_pruned", pruned),
		slog.Int64("products_deleted", removed),
	)
	return synced, nil
}

// Delete removes a product; false means nothing was stored under id.
func (u *ProductUseCase) Delete(ctx context.Context, id int64) (bool, error) {
	removed, err := u.products.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	u.logger.Debug("product delete", slog.Int64("product_id", id), slog.Bool("removed", removed))
	return removed, nil
}

// OrderCount returns the number of stored orders referencing product id.
func (u *ProductUseCase) OrderCount(ctx context.Context, id int64) (int64, error) {
	return u.orders.CountByProduct(ctx, id)
}

func (u *ProductUseCase) Get(ctx context.Context, id int64) (*model.Product, error) {
	return u.products.Get(ctx, id)
}

// List returns a page of products, each with its referencing order count.
func (u *ProductUseCase) List(ctx context.Context, q model.ProductQuery) ([]model.ProductWithCount, model.Pagination, error) {
	q.Page, q.Limit = model.NormalizePage(q.Page, q.Limit)
	products, total, err := u.products.List(ctx, q)
	if err != nil {
		return nil, model.Pagination{}, err
	}

	out := make([]model.ProductWithCount, len(products))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.gate.Width())
	for i := range products {
		g.Go(func() error {
			count, err := u.orders.CountByProduct(gctx, products[i].ID)
			if err != nil {
				return err
			}
			out[i] = model.ProductWithCount{Product: products[i], OrderCount: count}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, model.Pagination{}, err
	}
	return out, model.NewPagination(q.Page, q.Limit, total), nil
}
