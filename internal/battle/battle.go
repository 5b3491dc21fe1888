// Package battle implements the two quiz-combat modes: the head-to-head Duel
// and the timed Gym Gauntlet. Sessions are plain values driven by the caller;
// randomness and time are injected so outcomes replay deterministically.
package battle

import (
	"errors"
	"math/rand"
	"time"
)

// Errors returned by battle sessions
var (
	ErrEmptyBank          = errors.New("question bank is empty")
	ErrWrongPhase         = errors.New("action not allowed in current phase")
	ErrInsufficientPoints = errors.New("not enough points")
	ErrUnknownAction      = errors.New("unknown action")
	ErrSessionOver        = errors.New("session is over")
	ErrNotComplete        = errors.New("session not complete")
)

// Rand is the random source used for question draws and damage rolls.
// *rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// Clock returns the current time
type Clock func() time.Time

// NewRand returns a Rand seeded from the wall clock
func NewRand() Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// Question is one multiple-choice quiz item
type Question struct {
	ID       int      `json:"id"`
	Category string   `json:"category"`
	Text     string   `json:"question"`
	Options  []string `json:"options"`
	Answer   int      `json:"correctAnswer"`
	Points   int      `json:"points"`
}

// IsCorrect reports whether option index i is the right answer
func (q Question) IsCorrect(i int) bool {
	return i == q.Answer
}

// AnswerResult describes the outcome of one answered question
type AnswerResult struct {
	Correct bool `json:"correct"`
	Points  int  `json:"points"`
}
