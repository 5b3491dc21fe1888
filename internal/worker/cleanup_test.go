package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/quiz-world/internal/config"
	"github.com/quiz-world/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweeper struct {
	calls atomic.Int32
	err   error
}

func (s *countingSweeper) Cleanup(context.Context) (service.CleanupReport, error) {
	s.calls.Add(1)
	return service.CleanupReport{PlayersRemoved: 1}, s.err
}

type stubRestorer struct {
	n   int
	err error
}

func (r stubRestorer) Restore(context.Context) (int, error) { return r.n, r.err }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCleanupWorkerTicks(t *testing.T) {
	sweeper := &countingSweeper{}
	w := NewCleanupWorker(sweeper, nil, &config.CleanupConfig{Interval: 10 * time.Millisecond}, discardLogger())

	require.NoError(t, w.Start(context.Background()))
	assert.True(t, w.IsRunning())
	require.Eventually(t, func() bool { return sweeper.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, w.Stop())
	assert.False(t, w.IsRunning())
	// second stop is a no-op
	require.NoError(t, w.Stop())
}

func TestCleanupWorkerRunOnceSurvivesErrors(t *testing.T) {
	sweeper := &countingSweeper{err: errors.New("store down")}
	w := NewCleanupWorker(sweeper, nil, &config.CleanupConfig{Interval: time.Hour}, discardLogger())

	w.RunOnce(context.Background())
	w.RunOnce(context.Background())
	assert.Equal(t, int32(2), sweeper.calls.Load())
}

func TestRestoreFromArchive(t *testing.T) {
	cfg := &config.CleanupConfig{Interval: time.Hour}

	w := NewCleanupWorker(&countingSweeper{}, nil, cfg, discardLogger())
	assert.NoError(t, w.RestoreFromArchive(context.Background()))

	w = NewCleanupWorker(&countingSweeper{}, stubRestorer{n: 3}, cfg, discardLogger())
	assert.NoError(t, w.RestoreFromArchive(context.Background()))

	w = NewCleanupWorker(&countingSweeper{}, stubRestorer{err: errors.New("pg down")}, cfg, discardLogger())
	assert.Error(t, w.RestoreFromArchive(context.Background()))
}
