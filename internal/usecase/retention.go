package usecase

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/polkiloo/catalogsync/internal/config"
	"github.com/polkiloo/catalogsync/internal/domain/model"
	"github.com/polkiloo/catalogsync/internal/domain/repository"
)

// RetentionUseCase removes expired orders and the products only they referenced.
type RetentionUseCase struct {
	orders        repository.OrderRepository
	products      *ProductUseCase
	retentionDays int
	logger        *slog.Logger
	now           func() time.Time
}

// NewRetentionUseCase constructs RetentionUseCase.
func NewRetentionUseCase(
	orders repository.OrderRepository,
	products *ProductUseCase,
	cfg *config.Config,
	logger *slog.Logger,
) *RetentionUseCase {
	return &RetentionUseCase{
		orders:        orders,
		products:      products,
		retentionDays: cfg.OrderRetentionDays,
		logger:        logger,
		now:           time.Now,
	}
}

// Cleanup deletes orders created before the retention cutoff. Candidate
// products are collected from the expired orders and checked for remaining
// references only after the orders are gone.
func (u *RetentionUseCase) Cleanup(ctx context.Context) (model.CleanupResult, error) {
	var result model.CleanupResult
	cutoff := u.now().UTC().AddDate(0, 0, -u.retentionDays)

	expired, err := u.orders.ListCreatedBefore(ctx, cutoff)
	if err != nil {
		return result, err
	}
	if len(expired) == 0 {
		u.logger.Info("no expired orders to clean up", slog.Time("cutoff", cutoff))
		return result, nil
	}

	var candidates []int64
	for i := range expired {
		for _, id := range expired[i].ProductIDs() {
			if !slices.Contains(candidates, id) {
				candidates = append(candidates, id)
			}
		}
	}

	result.Deleted, err = u.orders.DeleteCreatedBefore(ctx, cutoff)
	if err != nil {
		return result, err
	}

	for _, id := range candidates {
		refs, err := u.products.OrderCount(ctx, id)
		if err != nil {
			return result, err
		}
		if refs > 0 {
			continue
		}
		removed, err := u.products.Delete(ctx, id)
		if err != nil {
			return result, err
		}
		if removed {
			result.ProductsDeleted++
			u.logger.Debug("deleted orphaned product", slog.Int64("product_id", id))
		}
	}

	u.logger.Info("order cleanup completed",
		slog.Time("cutoff", cutoff),
		slog.Int64("orders_deleted", result.Deleted),
		slog.Int64("products_deleted", result.ProductsDeleted),
	)
	return result, nil
}
