package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	domainErrors "github.com/polkiloo/catalogsync/internal/domain/errors"
	"github.com/polkiloo/catalogsync/internal/domain/model"
)

// SyncRunner exposes the subset of application functionality required by the scheduler.
type SyncRunner interface {
	RunSync(ctx context.Context) (*model.SyncResult, error)
	IsSyncRunning() bool
}

// Scheduler triggers sync runs on a cron schedule. A tick that finds a run in
// progress is skipped, never queued.
type Scheduler struct {
	runner   SyncRunner
	expr     string
	schedule cron.Schedule
	logger   *slog.Logger

	mu     sync.Mutex
	cron   *cron.Cron
	cancel context.CancelFunc
}

// NewScheduler validates the cron expression (standard five field syntax) and builds a scheduler.
func NewScheduler(runner SyncRunner, expr string, logger *slog.Logger) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("parse cron schedule %q: %w", expr, err)
	}
	return &Scheduler{runner: runner, expr: expr, schedule: schedule, logger: logger}, nil
}

// Start registers the schedule. Runs use a context derived from ctx that is
// cancelled by Stop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	logger := cronLogger{s.logger}
	s.cron = cron.New(cron.WithLogger(logger), cron.WithChain(cron.Recover(logger)))
	s.cron.Schedule(s.schedule, cron.FuncJob(func() { s.Tick(runCtx) }))
	s.cron.Start()

	s.logger.Info("scheduled sync initialized", slog.String("cron", s.expr))
}

// Stop halts the schedule, cancels an in-flight run and waits for it to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c, cancel := s.cron, s.cancel
	s.cron, s.cancel = nil, nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	cancel()
	<-c.Stop().Done()
}

// Tick performs one scheduled trigger.
func (s *Scheduler) Tick(ctx context.Context) {
	if s.runner.IsSyncRunning() {
		s.logger.Info("sync already running, skipping scheduled sync")
		return
	}

	s.logger.Info("starting scheduled sync")
	result, err := s.runner.RunSync(ctx)
	switch {
	case errors.Is(err, domainErrors.ErrSyncInProgress):
		s.logger.Info("sync already running, skipping scheduled sync")
	case err != nil:
		s.logger.Error("scheduled sync failed", slog.String("error", err.Error()))
	default:
		s.logger.Info("scheduled sync finished",
			slog.String("run_id", result.RunID),
			slog.Int("orders_synced", result.OrdersSynced),
		)
	}
}

// cronLogger adapts slog to the cron logging interface.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error(msg, append(keysAndValues, slog.String("error", err.Error()))...)
}
