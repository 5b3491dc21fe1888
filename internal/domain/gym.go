package domain

import "time"

// Gym leaderboard constants
const (
	LeaderboardWindow = 24 * time.Hour
	LeaderboardSize   = 10
)

// GymEntry is the best gauntlet score of one player
type GymEntry struct {
	PlayerID  string `json:"playerId"`
	Username  string `json:"username"`
	Score     int64  `json:"score"`
	Timestamp int64  `json:"timestamp"`
}

// Within reports whether the entry was recorded after since
func (e *GymEntry) Within(since time.Time) bool {
	return e.Timestamp > since.UnixMilli()
}

// Accepts reports whether score may replace this entry
func (e *GymEntry) Accepts(score int64) bool {
	return e == nil || score > e.Score
}

// LeaderboardEntry is one ranked row of the gym leaderboard
type LeaderboardEntry struct {
	Username string `json:"username"`
	Score    int64  `json:"score"`
}

// ScoreSubmission represents a request to submit a gauntlet score
type ScoreSubmission struct {
	PlayerID string `json:"playerId" validate:"required"`
	Username string `json:"username" validate:"required"`
	Score    int64  `json:"score" validate:"gte=0"`
}

// ScoreEvent is an accepted submission recorded for history
type ScoreEvent struct {
	PlayerID  string    `json:"playerId"`
	Username  string    `json:"username"`
	Score     int64     `json:"score"`
	Timestamp time.Time `json:"timestamp"`
}
