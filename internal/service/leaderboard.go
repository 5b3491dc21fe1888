package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/quiz-world/internal/domain"
	"github.com/quiz-world/internal/metrics"
	"github.com/quiz-world/internal/store"
)

// restoreLimit bounds how many archived scores are replayed on startup
const restoreLimit = 1000

// LeaderboardService keeps each player's best gym score and ranks them
type LeaderboardService struct {
	store    store.PresenceStore
	archive  ScoreArchive
	notifier LeaderboardNotifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      Clock
}

// NewLeaderboardService creates a new leaderboard service. archive and m may be nil.
func NewLeaderboardService(
	s store.PresenceStore,
	archive ScoreArchive,
	m *metrics.Metrics,
	logger *slog.Logger,
) *LeaderboardService {
	return &LeaderboardService{
		store:    s,
		archive:  archive,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// SetNotifier sets the receiver of leaderboard updates
func (s *LeaderboardService) SetNotifier(n LeaderboardNotifier) {
	s.notifier = n
}

// SetClock replaces the time source
func (s *LeaderboardService) SetClock(now Clock) {
	s.now = now
}

// Submit stores a score if it beats the player's current entry.
// It reports whether the score was accepted.
func (s *LeaderboardService) Submit(ctx context.Context, sub domain.ScoreSubmission) (bool, error) {
	if err := s.validateSubmission(sub); err != nil {
		return false, err
	}

	accepted, event, err := s.apply(ctx, sub)
	if err != nil {
		return false, err
	}
	s.metrics.GymSubmission(accepted)
	if !accepted {
		return false, nil
	}

	if s.archive != nil {
		if err := s.archive.RecordScore(ctx, event); err != nil {
			s.logger.Warn("failed to record score event", "error", err)
			// Don't fail the request if event recording fails
		}
	}
	s.notify(ctx)

	return true, nil
}

// SubmitBatch applies many submissions, skipping invalid ones
func (s *LeaderboardService) SubmitBatch(ctx context.Context, subs []domain.ScoreSubmission) (int, error) {
	var events []domain.ScoreEvent
	for _, sub := range subs {
		if err := s.validateSubmission(sub); err != nil {
			s.logger.Warn("skipping invalid score", "player_id", sub.PlayerID, "error", err)
			continue
		}
		ok, event, err := s.apply(ctx, sub)
		if err != nil {
			return len(events), err
		}
		s.metrics.GymSubmission(ok)
		if !ok {
			continue
		}
		events = append(events, event)
	}
	if len(events) == 0 {
		return 0, nil
	}

	if s.archive != nil {
		if err := s.archive.BatchRecordScores(ctx, events); err != nil {
			s.logger.Warn("failed to record score events", "count", len(events), "error", err)
		}
	}
	s.notify(ctx)
	return len(events), nil
}

func (s *LeaderboardService) apply(ctx context.Context, sub domain.ScoreSubmission) (bool, domain.ScoreEvent, error) {
	key := store.GymKey(sub.PlayerID)

	var current *domain.GymEntry
	raw, err := s.store.Get(ctx, key)
	switch {
	case err == nil:
		current, err = decodeGymEntry(raw)
		if err != nil {
			s.logger.Warn("replacing unreadable gym entry", "key", key, "error", err)
			current = nil
		}
	case !errors.Is(err, store.ErrNotFound):
		return false, domain.ScoreEvent{}, fmt.Errorf("getting gym entry: %w", err)
	}

	if !current.Accepts(sub.Score) {
		return false, domain.ScoreEvent{}, nil
	}

	now := s.now()
	entry := domain.GymEntry{
		PlayerID:  sub.PlayerID,
		Username:  sub.Username,
		Score:     sub.Score,
		Timestamp: now.UnixMilli(),
	}
	if err := store.SetJSON(ctx, s.store, key, entry); err != nil {
		return false, domain.ScoreEvent{}, fmt.Errorf("saving gym entry: %w", err)
	}

	return true, domain.ScoreEvent{
		PlayerID:  sub.PlayerID,
		Username:  sub.Username,
		Score:     sub.Score,
		Timestamp: now,
	}, nil
}

// Top returns the best scores recorded within the leaderboard window
func (s *LeaderboardService) Top(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	entries, err := s.store.ScanPrefix(ctx, store.GymPrefix)
	if err != nil {
		return nil, fmt.Errorf("scanning gym entries: %w", err)
	}

	since := s.now().Add(-domain.LeaderboardWindow)
	live := make([]*domain.GymEntry, 0, len(entries))
	for _, e := range entries {
		entry, err := decodeGymEntry(e.Value)
		if err != nil {
			s.logger.Warn("skipping unreadable gym entry", "key", e.Key, "error", err)
			continue
		}
		if entry.Within(since) {
			live = append(live, entry)
		}
	}

	// Ties keep key order.
	sort.SliceStable(live, func(i, j int) bool {
		return live[i].Score > live[j].Score
	})
	if len(live) > domain.LeaderboardSize {
		live = live[:domain.LeaderboardSize]
	}

	out := make([]domain.LeaderboardEntry, len(live))
	for i, e := range live {
		out[i] = domain.LeaderboardEntry{Username: e.Username, Score: e.Score}
	}
	return out, nil
}

// Restore replays archived best scores into the store for entries it lacks
// or holds lower. It is used on startup after the store was wiped.
func (s *LeaderboardService) Restore(ctx context.Context) (int, error) {
	if s.archive == nil {
		return 0, nil
	}

	best, err := s.archive.BestScoresSince(ctx, s.now().Add(-domain.LeaderboardWindow), restoreLimit)
	if err != nil {
		return 0, fmt.Errorf("loading archived scores: %w", err)
	}

	restored := 0
	for _, archived := range best {
		key := store.GymKey(archived.PlayerID)
		var current domain.GymEntry
		err := store.GetJSON(ctx, s.store, key, &current)
		if err == nil && current.Score >= archived.Score {
			continue
		}
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return restored, fmt.Errorf("getting gym entry: %w", err)
		}
		if err := store.SetJSON(ctx, s.store, key, archived); err != nil {
			return restored, fmt.Errorf("restoring gym entry: %w", err)
		}
		restored++
	}

	s.logger.Info("leaderboard restored from archive", "entries", restored)
	return restored, nil
}

func (s *LeaderboardService) validateSubmission(sub domain.ScoreSubmission) error {
	return domain.Validate(sub)
}

func (s *LeaderboardService) notify(ctx context.Context) {
	if s.notifier == nil {
		return
	}
	top, err := s.Top(ctx)
	if err != nil {
		s.logger.Warn("failed to load leaderboard for broadcast", "error", err)
		return
	}
	s.notifier.BroadcastLeaderboard(top)
}
