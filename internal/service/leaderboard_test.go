package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/quiz-world/internal/domain"
	"github.com/quiz-world/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLeaderboard(s store.PresenceStore, archive ScoreArchive, clock *fakeClock) *LeaderboardService {
	svc := NewLeaderboardService(s, archive, nil, discardLogger())
	svc.SetClock(clock.Now)
	return svc
}

func TestSubmitKeepsBestScore(t *testing.T) {
	ctx := context.Background()
	archive := &memoryScores{}
	svc := newLeaderboard(store.NewMemory(), archive, newFakeClock())

	sub := func(score int64) bool {
		ok, err := svc.Submit(ctx, domain.ScoreSubmission{PlayerID: "p1", Username: "Ash", Score: score})
		require.NoError(t, err)
		return ok
	}

	assert.True(t, sub(85))
	assert.False(t, sub(60))
	assert.False(t, sub(85))
	assert.True(t, sub(120))

	top, err := svc.Top(ctx)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, domain.LeaderboardEntry{Username: "Ash", Score: 120}, top[0])
	assert.Len(t, archive.events, 2)
}

func TestSubmitValidation(t *testing.T) {
	ctx := context.Background()
	svc := newLeaderboard(store.NewMemory(), nil, newFakeClock())

	_, err := svc.Submit(ctx, domain.ScoreSubmission{Username: "Ash", Score: 10})
	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "playerId", verr.Field)

	_, err = svc.Submit(ctx, domain.ScoreSubmission{PlayerID: "p1", Username: "Ash", Score: -1})
	assert.True(t, domain.IsValidationError(err))
}

func TestTopOrderingAndWindow(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	mem := store.NewMemory()
	svc := newLeaderboard(mem, nil, clock)

	require.NoError(t, store.SetJSON(ctx, mem, store.GymKey("old"), domain.GymEntry{
		PlayerID: "old", Username: "Old", Score: 999, Timestamp: clock.Now().Add(-25 * time.Hour).UnixMilli(),
	}))
	for i := 0; i < 12; i++ {
		_, err := svc.Submit(ctx, domain.ScoreSubmission{
			PlayerID: fmt.Sprintf("p%02d", i),
			Username: fmt.Sprintf("user%02d", i),
			Score:    int64(10 * i),
		})
		require.NoError(t, err)
	}

	top, err := svc.Top(ctx)
	require.NoError(t, err)
	require.Len(t, top, domain.LeaderboardSize)
	assert.Equal(t, int64(110), top[0].Score)
	assert.Equal(t, int64(20), top[9].Score)
	for _, e := range top {
		assert.NotEqual(t, "Old", e.Username)
	}
}

func TestSubmitNotifies(t *testing.T) {
	ctx := context.Background()
	svc := newLeaderboard(store.NewMemory(), nil, newFakeClock())
	n := &recordingNotifier{}
	svc.SetNotifier(n)

	_, err := svc.Submit(ctx, domain.ScoreSubmission{PlayerID: "p1", Username: "Ash", Score: 50})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, domain.ScoreSubmission{PlayerID: "p1", Username: "Ash", Score: 10})
	require.NoError(t, err)

	require.Len(t, n.calls, 1)
	assert.Equal(t, []domain.LeaderboardEntry{{Username: "Ash", Score: 50}}, n.calls[0])
}

func TestSubmitBatch(t *testing.T) {
	ctx := context.Background()
	archive := &memoryScores{}
	svc := newLeaderboard(store.NewMemory(), archive, newFakeClock())

	accepted, err := svc.SubmitBatch(ctx, []domain.ScoreSubmission{
		{PlayerID: "p1", Username: "Ash", Score: 40},
		{PlayerID: "p1", Username: "Ash", Score: 30},
		{PlayerID: "", Username: "Nobody", Score: 30},
		{PlayerID: "p2", Username: "Misty", Score: 70},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, accepted)
	assert.Len(t, archive.events, 2)
}

func TestRestoreFromArchive(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	mem := store.NewMemory()
	archive := &memoryScores{best: []domain.GymEntry{
		{PlayerID: "p1", Username: "Ash", Score: 150, Timestamp: clock.Now().UnixMilli()},
		{PlayerID: "p2", Username: "Misty", Score: 40, Timestamp: clock.Now().UnixMilli()},
	}}
	svc := newLeaderboard(mem, archive, clock)

	_, err := svc.Submit(ctx, domain.ScoreSubmission{PlayerID: "p2", Username: "Misty", Score: 90})
	require.NoError(t, err)

	restored, err := svc.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, restored)

	top, err := svc.Top(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.LeaderboardEntry{
		{Username: "Ash", Score: 150},
		{Username: "Misty", Score: 90},
	}, top)
}
