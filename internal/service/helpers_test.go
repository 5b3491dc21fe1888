package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/quiz-world/internal/auth"
	"github.com/quiz-world/internal/config"
	"github.com/quiz-world/internal/domain"
	"github.com/quiz-world/internal/store"
	"golang.org/x/crypto/bcrypt"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newPresence(s store.PresenceStore, archive AccountArchive, clock *fakeClock) *PresenceService {
	cfg := config.DefaultConfig()
	svc := NewPresenceService(s, archive, auth.NewBcryptHasher(bcrypt.MinCost), &cfg.Presence, &cfg.World, nil, discardLogger())
	svc.SetClock(clock.Now)
	return svc
}

type memoryAccounts struct {
	mu       sync.Mutex
	accounts map[string]domain.Player
}

func newMemoryAccounts() *memoryAccounts {
	return &memoryAccounts{accounts: make(map[string]domain.Player)}
}

func (m *memoryAccounts) SaveAccount(_ context.Context, p *domain.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[domain.NormalizeUsername(p.Username)] = *p
	return nil
}

func (m *memoryAccounts) FindAccount(_ context.Context, username string) (*domain.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.accounts[username]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return &p, nil
}

type memoryScores struct {
	mu     sync.Mutex
	events []domain.ScoreEvent
	best   []domain.GymEntry
}

func (m *memoryScores) RecordScore(_ context.Context, e domain.ScoreEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *memoryScores) BatchRecordScores(_ context.Context, events []domain.ScoreEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *memoryScores) BestScoresSince(_ context.Context, _ time.Time, _ int) ([]domain.GymEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.best, nil
}

type recordingNotifier struct {
	calls [][]domain.LeaderboardEntry
}

func (r *recordingNotifier) BroadcastLeaderboard(entries []domain.LeaderboardEntry) {
	r.calls = append(r.calls, entries)
}
