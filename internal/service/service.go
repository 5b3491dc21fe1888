// Package service implements the presence protocol on top of a PresenceStore.
package service

import (
	"context"
	"time"

	"github.com/quiz-world/internal/domain"
)

// AccountArchive keeps durable account data outside the presence store.
// A nil archive disables restore and mirroring.
type AccountArchive interface {
	SaveAccount(ctx context.Context, player *domain.Player) error
	FindAccount(ctx context.Context, username string) (*domain.Player, error)
}

// ScoreArchive keeps the history of accepted gym scores.
type ScoreArchive interface {
	RecordScore(ctx context.Context, event domain.ScoreEvent) error
	BatchRecordScores(ctx context.Context, events []domain.ScoreEvent) error
	BestScoresSince(ctx context.Context, since time.Time, limit int) ([]domain.GymEntry, error)
}

// PasswordHasher hashes and verifies account passwords
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hashed string) error
}

// LeaderboardNotifier receives the current top entries after an accepted score
type LeaderboardNotifier interface {
	BroadcastLeaderboard(entries []domain.LeaderboardEntry)
}

// Clock returns the current time
type Clock func() time.Time

func millis(t time.Time) float64 {
	return float64(t.UnixMilli())
}
