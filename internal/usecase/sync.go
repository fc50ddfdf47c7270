package usecase

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	domainErrors "github.com/polkiloo/catalogsync/internal/domain/errors"
	"github.com/polkiloo/catalogsync/internal/domain/model"
	"github.com/polkiloo/catalogsync/internal/metrics"
)

// SyncUseCase runs order sync followed by retention cleanup, at most one run
// at a time, and keeps process lifetime statistics about the runs.
type SyncUseCase struct {
	orders    *OrderSyncUseCase
	retention *RetentionUseCase
	metrics   *metrics.Registry
	logger    *slog.Logger
	now       func() time.Time

	running atomic.Bool

	mu       sync.Mutex
	lastSync *time.Time
	stats    model.SyncStats
}

// NewSyncUseCase constructs SyncUseCase.
func NewSyncUseCase(
	orders *OrderSyncUseCase,
	retention *RetentionUseCase,
	registry *metrics.Registry,
	logger *slog.Logger,
) *SyncUseCase {
	return &SyncUseCase{
		orders:    orders,
		retention: retention,
		metrics:   registry,
		logger:    logger,
		now:       time.Now,
	}
}

// RunSync executes one sync run. It fails fast with ErrSyncInProgress when
// another run has not finished yet.
func (u *SyncUseCase) RunSync(ctx context.Context) (*model.SyncResult, error) {
	if !u.running.CompareAndSwap(false, true) {
		u.metrics.RunSkipped()
		return nil, domainErrors.ErrSyncInProgress
	}
	defer u.running.Store(false)

	runID := uuid.NewString()
	logger := u.logger.With(slog.String("run_id", runID))

	u.mu.Lock()
	u.stats.TotalSyncs++
	u.mu.Unlock()

	started := u.now()
	u.metrics.RunStarted()
	logger.Info("starting sync process")

	result, err := u.run(ctx)
	finished := u.now().UTC()
	u.metrics.RunFinished(err, finished.Sub(started), finished)

	u.mu.Lock()
	defer u.mu.Unlock()
	if err != nil {
		u.stats.FailedSyncs++
		u.stats.LastError = err.Error()
		logger.Error("sync failed", slog.String("error", err.Error()))
		return nil, err
	}

	u.lastSync = &finished
	u.stats.SuccessfulSyncs++
	u.stats.LastError = ""

	result.RunID = runID
	result.Timestamp = finished
	logger.Info("sync completed successfully",
		slog.Int("orders_synced", result.OrdersSynced),
		slog.Int("errors", result.Errors),
		slog.Int64("orders_deleted", result.OrdersDeleted),
		slog.Int64("products_deleted", result.ProductsDeleted),
		slog.Duration("elapsed", finished.Sub(started)),
	)
	return result, nil
}

func (u *SyncUseCase) run(ctx context.Context) (*model.SyncResult, error) {
	synced, err := u.orders.Sync(ctx)
	if err != nil {
		return nil, err
	}
	u.metrics.OrdersProcessed(synced.Synced, synced.Errors)

	cleaned, err := u.retention.Cleanup(ctx)
	if err != nil {
		return nil, err
	}
	u.metrics.Cleaned(cleaned.Deleted, cleaned.ProductsDeleted)

	return &model.SyncResult{
		OrdersSynced:    synced.Synced,
		Errors:          synced.Errors,
		OrdersDeleted:   cleaned.Deleted,
		ProductsDeleted: cleaned.ProductsDeleted,
	}, nil
}

// IsRunning reports whether a run is in progress.
func (u *SyncUseCase) IsRunning() bool {
	return u.running.Load()
}

// Status returns a snapshot of the run state and statistics.
func (u *SyncUseCase) Status() model.SyncStatus {
	u.mu.Lock()
	defer u.mu.Unlock()

	status := model.SyncStatus{IsRunning: u.running.Load(), Stats: u.stats}
	if u.lastSync != nil {
		last := *u.lastSync
		status.LastSync = &last
	}
	return status
}
