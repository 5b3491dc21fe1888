package world

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/quiz-world/internal/domain"
	"github.com/stretchr/testify/assert"
)

type fakeAPI struct {
	mu        sync.Mutex
	positions []Vec
	listCalls int
	failMoves bool
	players   []domain.PublicPlayer
	lines     []domain.ChatLine
}

func (f *fakeAPI) UpdatePosition(_ context.Context, _ string, x, y float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.positions = append(f.positions, Vec{X: x, Y: y})
	if f.failMoves {
		return errors.New("network down")
	}
	return nil
}

func (f *fakeAPI) ListPlayers(context.Context, string) ([]domain.PublicPlayer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return f.players, nil
}

func (f *fakeAPI) Messages(context.Context) ([]domain.ChatLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lines, nil
}

func (f *fakeAPI) sent() []Vec {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Vec(nil), f.positions...)
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSessionInitialFetch(t *testing.T) {
	api := &fakeAPI{
		players: []domain.PublicPlayer{{ID: "p2", Username: "bob"}},
		lines:   []domain.ChatLine{{Username: "bob", Message: "hi"}},
	}
	s := NewSession(api, NewController(testGeometry(), "me", Vec{X: 200, Y: 200}), "me",
		SessionOptions{PlayersPoll: time.Hour, ChatPoll: time.Hour}, discard())
	s.Start(context.Background())
	defer s.Close()

	assert.Eventually(t, func() bool { return len(s.Controller().Peers()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return len(s.Chat()) == 1 }, time.Second, 5*time.Millisecond)
}

func TestSessionSendsPositions(t *testing.T) {
	api := &fakeAPI{failMoves: true}
	ctrl := NewController(testGeometry(), "me", Vec{X: 200, Y: 200})
	s := NewSession(api, ctrl, "me", SessionOptions{FrameInterval: time.Millisecond}, discard())
	s.Start(context.Background())

	ctrl.KeyDown("d")
	// Failed sends are dropped and the loop keeps going.
	assert.Eventually(t, func() bool { return len(api.sent()) >= 2 }, 2*time.Second, 5*time.Millisecond)
	ctrl.KeyUp("d")
	s.Close()

	sent := api.sent()
	for i := 1; i < len(sent); i++ {
		assert.Greater(t, sent[i].X, sent[i-1].X)
	}
	assert.GreaterOrEqual(t, ctrl.Position().X, sent[len(sent)-1].X)
}

func TestSessionCloseWithoutStart(t *testing.T) {
	s := NewSession(&fakeAPI{}, NewController(testGeometry(), "me", Vec{}), "me", SessionOptions{}, discard())
	assert.NotPanics(t, s.Close)
}
