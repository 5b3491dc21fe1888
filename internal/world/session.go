package world

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/quiz-world/internal/domain"
)

// Poll intervals
const (
	PlayersPollInterval = 2000 * time.Millisecond
	ChatPollInterval    = 1500 * time.Millisecond
)

// API is the subset of the backend the world loop talks to
type API interface {
	UpdatePosition(ctx context.Context, playerID string, x, y float64) error
	ListPlayers(ctx context.Context, excludingID string) ([]domain.PublicPlayer, error)
	Messages(ctx context.Context) ([]domain.ChatLine, error)
}

// SessionOptions overrides loop timings; zero values use the defaults
type SessionOptions struct {
	FrameInterval time.Duration
	PlayersPoll   time.Duration
	ChatPoll      time.Duration
	Now           func() time.Time
}

// Session runs the frame loop, the two poll loops and the position sender
// for one signed-in player. All goroutines stop when Close returns.
type Session struct {
	api      API
	ctrl     *Controller
	playerID string
	opts     SessionOptions
	logger   *slog.Logger

	positions chan Vec

	mu   sync.RWMutex
	chat []domain.ChatLine

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSession creates a session; call Start to begin the loops
func NewSession(api API, ctrl *Controller, playerID string, opts SessionOptions, logger *slog.Logger) *Session {
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = TickInterval
	}
	if opts.PlayersPoll <= 0 {
		opts.PlayersPoll = PlayersPollInterval
	}
	if opts.ChatPoll <= 0 {
		opts.ChatPoll = ChatPollInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Session{
		api:       api,
		ctrl:      ctrl,
		playerID:  playerID,
		opts:      opts,
		logger:    logger,
		positions: make(chan Vec, 1),
	}
}

// Start launches the session loops
func (s *Session) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(4)
	go s.frameLoop(ctx)
	go s.sendLoop(ctx)
	go s.poll(ctx, s.opts.PlayersPoll, s.refreshPlayers)
	go s.poll(ctx, s.opts.ChatPoll, s.refreshChat)

	s.logger.Info("world session started", "player_id", s.playerID)
}

// Close stops all loops and waits for them to exit
func (s *Session) Close() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
	s.logger.Info("world session stopped", "player_id", s.playerID)
}

// Controller returns the movement controller driven by this session
func (s *Session) Controller() *Controller {
	return s.ctrl
}

// Chat returns the most recently fetched chat lines
func (s *Session) Chat() []domain.ChatLine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.ChatLine(nil), s.chat...)
}

func (s *Session) frameLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.opts.FrameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if pos, changed := s.ctrl.Tick(s.opts.Now()); changed {
				s.queuePosition(pos)
			}
		}
	}
}

// queuePosition keeps only the newest unsent position
func (s *Session) queuePosition(pos Vec) {
	for {
		select {
		case s.positions <- pos:
			return
		default:
		}
		select {
		case <-s.positions:
		default:
		}
	}
}

func (s *Session) sendLoop(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case pos := <-s.positions:
			if err := s.api.UpdatePosition(ctx, s.playerID, pos.X, pos.Y); err != nil && ctx.Err() == nil {
				s.logger.Warn("position update failed", "error", err, "x", pos.X, "y", pos.Y)
			}
		}
	}
}

// poll runs fn immediately and then on every interval
func (s *Session) poll(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	defer s.wg.Done()

	fn(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}

func (s *Session) refreshPlayers(ctx context.Context) {
	players, err := s.api.ListPlayers(ctx, s.playerID)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("fetching players failed", "error", err)
		}
		return
	}
	s.ctrl.SetPeers(players)
}

func (s *Session) refreshChat(ctx context.Context) {
	lines, err := s.api.Messages(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("fetching chat failed", "error", err)
		}
		return
	}
	s.mu.Lock()
	s.chat = lines
	s.mu.Unlock()
}
