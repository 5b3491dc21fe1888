package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/quiz-world/internal/config"
	"github.com/quiz-world/internal/service"
)

// Sweeper removes stale records
type Sweeper interface {
	Cleanup(ctx context.Context) (service.CleanupReport, error)
}

// Restorer reloads archived state into the presence store
type Restorer interface {
	Restore(ctx context.Context) (int, error)
}

// CleanupWorker runs the staleness sweep on a schedule
type CleanupWorker struct {
	sweeper  Sweeper
	restorer Restorer
	config   *config.CleanupConfig
	logger   *slog.Logger
	stopCh   chan struct{}
	doneCh   chan struct{}
	mu       sync.Mutex
	running  bool
}

// NewCleanupWorker creates a new cleanup worker. restorer may be nil.
func NewCleanupWorker(
	sweeper Sweeper,
	restorer Restorer,
	cfg *config.CleanupConfig,
	logger *slog.Logger,
) *CleanupWorker {
	return &CleanupWorker{
		sweeper:  sweeper,
		restorer: restorer,
		config:   cfg,
		logger:   logger,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background sweep
func (w *CleanupWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info("cleanup worker started", "interval", w.config.Interval)

	go w.run(ctx)
	return nil
}

// Stop stops the background sweep
func (w *CleanupWorker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("cleanup worker stopped")
	return nil
}

// run is the main worker loop
func (w *CleanupWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *CleanupWorker) sweep(ctx context.Context) {
	startTime := time.Now()

	report, err := w.sweeper.Cleanup(ctx)
	if err != nil {
		w.logger.Error("cleanup cycle failed", "error", err)
		return
	}

	w.logger.Debug("cleanup cycle completed",
		"duration", time.Since(startTime),
		"players_removed", report.PlayersRemoved,
		"gym_removed", report.GymRemoved,
	)
}

// RestoreFromArchive replays archived state before serving traffic.
// This is useful for recovery after the store was wiped.
func (w *CleanupWorker) RestoreFromArchive(ctx context.Context) error {
	if w.restorer == nil {
		return nil
	}
	n, err := w.restorer.Restore(ctx)
	if err != nil {
		return err
	}
	w.logger.Info("restored state from archive", "entries", n)
	return nil
}

// IsRunning returns whether the worker is currently running
func (w *CleanupWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// RunOnce runs a single sweep (useful for manual triggers)
func (w *CleanupWorker) RunOnce(ctx context.Context) {
	w.sweep(ctx)
}
