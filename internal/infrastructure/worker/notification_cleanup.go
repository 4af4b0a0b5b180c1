package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ac-tresor/dossiers/internal/application/port"
	"go.uber.org/zap"
)

// CleanupConfig holds configuration for the notification cleanup worker
type CleanupConfig struct {
	Interval  time.Duration
	Retention time.Duration
}

// DefaultCleanupConfig returns default configuration
func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		Interval:  time.Hour,
		Retention: 30 * 24 * time.Hour,
	}
}

// NotificationCleanupWorker purges read notifications past their retention
type NotificationCleanupWorker struct {
	config CleanupConfig
	repo   port.NotificationRepository
	logger *zap.Logger
	now    func() time.Time

	mu        sync.Mutex
	cancel    context.CancelFunc
	done      chan struct{}
	isRunning bool
	purged    int64
}

// NewNotificationCleanupWorker creates a new cleanup worker
func NewNotificationCleanupWorker(config CleanupConfig, repo port.NotificationRepository, logger *zap.Logger) *NotificationCleanupWorker {
	if config.Interval <= 0 {
		config.Interval = DefaultCleanupConfig().Interval
	}
	if config.Retention <= 0 {
		config.Retention = DefaultCleanupConfig().Retention
	}
	return &NotificationCleanupWorker{
		config: config,
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// Start runs a first purge immediately, then one per interval
func (w *NotificationCleanupWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.isRunning {
		return fmt.Errorf("notification cleanup worker already running")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.isRunning = true

	w.logger.Info("NotificationCleanupWorker started",
		zap.Duration("interval", w.config.Interval),
		zap.Duration("retention", w.config.Retention))

	go w.loop(loopCtx, w.done)
	return nil
}

// Stop cancels the loop and waits for the running purge to finish
func (w *NotificationCleanupWorker) Stop() error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return nil
	}
	w.isRunning = false
	cancel, done := w.cancel, w.done
	w.mu.Unlock()

	cancel()
	<-done

	w.logger.Info("NotificationCleanupWorker stopped", zap.Int64("purged_total", w.Purged()))
	return nil
}

// Name returns the worker name for identification
func (w *NotificationCleanupWorker) Name() string {
	return "NotificationCleanupWorker"
}

// Purged returns how many notifications were removed since start
func (w *NotificationCleanupWorker) Purged() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.purged
}

func (w *NotificationCleanupWorker) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	w.runOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *NotificationCleanupWorker) runOnce(ctx context.Context) {
	cutoff := w.now().Add(-w.config.Retention)
	n, err := w.repo.DeleteReadBefore(ctx, cutoff)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error("Failed to purge notifications", zap.Error(err))
		}
		return
	}

	w.mu.Lock()
	w.purged += n
	w.mu.Unlock()

	if n > 0 {
		w.logger.Info("Read notifications purged", zap.Int64("count", n), zap.Time("cutoff", cutoff))
	}
}
