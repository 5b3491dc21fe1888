package battle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedRand replays fixed values; each is reduced modulo n
type scriptedRand struct {
	vals []int
	i    int
}

func (r *scriptedRand) Intn(n int) int {
	if len(r.vals) == 0 {
		return 0
	}
	v := r.vals[r.i%len(r.vals)]
	r.i++
	return v % n
}

type manualClock struct{ t time.Time }

func (c *manualClock) Now() time.Time          { return c.t }
func (c *manualClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *manualClock {
	return &manualClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func TestDuelWrongAnswerAtLowHPLoses(t *testing.T) {
	clock := newClock()
	d, err := NewDuel(DuelQuestions, &scriptedRand{}, clock.Now, DuelOptions{PlayerHP: 10})
	require.NoError(t, err)
	require.Equal(t, PhaseAwaitingAnswer, d.Phase())

	q := d.Question()
	res, err := d.Answer((q.Answer + 1) % len(q.Options))
	require.NoError(t, err)
	assert.False(t, res.Correct)
	assert.Equal(t, PhaseOpponentAttack, d.Phase())

	dmg, err := d.ResolveOpponentAttack()
	require.NoError(t, err)
	assert.Equal(t, WrongAnswerDamage, dmg)
	assert.Equal(t, 0, d.PlayerHP())

	winner, over := d.Winner()
	assert.True(t, over)
	assert.Equal(t, SideOpponent, winner)

	_, err = d.Answer(0)
	assert.ErrorIs(t, err, ErrSessionOver)
}

func TestDuelTimeBonus(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		want    int
	}{
		{"instant", 0, 15},
		{"just under two seconds", 1900 * time.Millisecond, 14},
		{"four seconds", 4 * time.Second, 11},
		{"slow", 12 * time.Second, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newClock()
			d, err := NewDuel(DuelQuestions, &scriptedRand{}, clock.Now, DuelOptions{})
			require.NoError(t, err)

			clock.Advance(tt.elapsed)
			res, err := d.Answer(d.Question().Answer)
			require.NoError(t, err)
			assert.True(t, res.Correct)
			assert.Equal(t, tt.want, res.Points)
			assert.Equal(t, tt.want, d.Points())
			assert.Equal(t, PhaseAwaitingAction, d.Phase())
		})
	}
}

func TestDuelAttackAndCounter(t *testing.T) {
	clock := newClock()
	// draw, attack roll 7, counter roll 3, next draw
	rnd := &scriptedRand{vals: []int{0, 7, 3, 0}}
	d, err := NewDuel(DuelQuestions, rnd, clock.Now, DuelOptions{})
	require.NoError(t, err)

	_, err = d.Answer(d.Question().Answer)
	require.NoError(t, err)

	res, err := d.Act(ActionAttack)
	require.NoError(t, err)
	assert.Equal(t, 27, res.Damage)
	assert.Equal(t, 13, res.Counter)
	assert.Equal(t, 73, d.OpponentHP())
	assert.Equal(t, 87, d.PlayerHP())
	assert.Equal(t, 15-4, d.Points())
	assert.Equal(t, PhaseAwaitingAnswer, d.Phase())
}

func TestDuelAttackFinishesOpponent(t *testing.T) {
	clock := newClock()
	d, err := NewDuel(DuelQuestions, &scriptedRand{vals: []int{0, 5}}, clock.Now, DuelOptions{OpponentHP: 20})
	require.NoError(t, err)

	_, err = d.Answer(d.Question().Answer)
	require.NoError(t, err)
	res, err := d.Act(ActionAttack)
	require.NoError(t, err)
	assert.Zero(t, res.Counter)

	winner, over := d.Winner()
	assert.True(t, over)
	assert.Equal(t, SidePlayer, winner)
	assert.Greater(t, d.PlayerHP(), 0)
}

func TestDuelHealCapsAtMax(t *testing.T) {
	clock := newClock()
	d, err := NewDuel(DuelQuestions, &scriptedRand{}, clock.Now, DuelOptions{PlayerHP: 90})
	require.NoError(t, err)

	_, err = d.Answer(d.Question().Answer)
	require.NoError(t, err)
	res, err := d.Act(ActionHeal)
	require.NoError(t, err)
	assert.Equal(t, 10, res.Healed)
	assert.Equal(t, DuelMaxHP, d.PlayerHP())
}

func TestDuelDefenseOnlyConsumesTurn(t *testing.T) {
	clock := newClock()
	d, err := NewDuel(DuelQuestions, &scriptedRand{}, clock.Now, DuelOptions{})
	require.NoError(t, err)

	_, err = d.Answer(d.Question().Answer)
	require.NoError(t, err)
	before := d.Points()
	_, err = d.Act(ActionDefense)
	require.NoError(t, err)
	assert.Equal(t, before-3, d.Points())
	assert.Equal(t, DuelMaxHP, d.PlayerHP())
	assert.Equal(t, PhaseAwaitingAnswer, d.Phase())
}

func TestDuelPhaseGuards(t *testing.T) {
	clock := newClock()
	d, err := NewDuel(DuelQuestions, &scriptedRand{}, clock.Now, DuelOptions{})
	require.NoError(t, err)

	_, err = d.Act(ActionAttack)
	assert.ErrorIs(t, err, ErrWrongPhase)
	_, err = d.ResolveOpponentAttack()
	assert.ErrorIs(t, err, ErrWrongPhase)

	_, err = d.Answer(d.Question().Answer)
	require.NoError(t, err)
	_, err = d.Act(Action("dance"))
	assert.ErrorIs(t, err, ErrUnknownAction)

	_, err = NewDuel(nil, &scriptedRand{}, clock.Now, DuelOptions{})
	assert.ErrorIs(t, err, ErrEmptyBank)
}

func TestDuelInsufficientPoints(t *testing.T) {
	clock := newClock()
	bank := []Question{{ID: 1, Options: []string{"a", "b"}, Answer: 0, Points: 0}}
	d, err := NewDuel(bank, &scriptedRand{}, clock.Now, DuelOptions{})
	require.NoError(t, err)

	clock.Advance(3 * time.Second)
	_, err = d.Answer(0)
	require.NoError(t, err)
	require.Equal(t, 2, d.Points())

	_, err = d.Act(ActionHeal)
	assert.ErrorIs(t, err, ErrInsufficientPoints)
	assert.Equal(t, PhaseAwaitingAction, d.Phase())
	assert.Equal(t, 2, d.Points())
}

// The duel ends exactly when a side reaches zero hp.
func TestDuelGameOverIffZeroHP(t *testing.T) {
	clock := newClock()
	rnd := &scriptedRand{vals: []int{3, 1, 4, 1, 5, 9, 2, 6, 5, 3, 5}}
	d, err := NewDuel(DuelQuestions, rnd, clock.Now, DuelOptions{})
	require.NoError(t, err)

	for round := 0; round < 200 && !d.Over(); round++ {
		q := d.Question()
		if round%3 == 0 {
			_, err = d.Answer((q.Answer + 1) % len(q.Options))
			require.NoError(t, err)
			_, err = d.ResolveOpponentAttack()
			require.NoError(t, err)
		} else {
			_, err = d.Answer(q.Answer)
			require.NoError(t, err)
			_, err = d.Act(ActionAttack)
			require.NoError(t, err)
		}
		if !d.Over() {
			assert.Greater(t, d.PlayerHP(), 0)
			assert.Greater(t, d.OpponentHP(), 0)
		}
	}

	require.True(t, d.Over())
	winner, _ := d.Winner()
	switch winner {
	case SidePlayer:
		assert.Equal(t, 0, d.OpponentHP())
		assert.Greater(t, d.PlayerHP(), 0)
	case SideOpponent:
		assert.Equal(t, 0, d.PlayerHP())
		assert.Greater(t, d.OpponentHP(), 0)
	default:
		t.Fatalf("unexpected winner %v", winner)
	}
}

func TestGauntletNoBonusNoBadge(t *testing.T) {
	bank := []Question{
		{ID: 1, Options: []string{"a", "b"}, Answer: 0, Points: 15},
		{ID: 2, Options: []string{"a", "b"}, Answer: 1, Points: 20},
		{ID: 3, Options: []string{"a", "b"}, Answer: 0, Points: 15},
		{ID: 4, Options: []string{"a", "b"}, Answer: 1, Points: 15},
		{ID: 5, Options: []string{"a", "b"}, Answer: 0, Points: 20},
	}
	g, err := NewGauntlet(bank, 5)
	require.NoError(t, err)

	for !g.Complete() {
		q, ok := g.Question()
		require.True(t, ok)
		for g.TimeLeft() > 2 {
			_, timedOut := g.Tick()
			require.False(t, timedOut)
		}
		res, err := g.Answer(q.Answer)
		require.NoError(t, err)
		assert.True(t, res.Correct)
	}

	result, err := g.Result()
	require.NoError(t, err)
	assert.Equal(t, 85, result.Score)
	assert.Equal(t, 5, result.Correct)
	assert.Empty(t, result.Badge)
}

func TestGauntletTimeoutScoresZero(t *testing.T) {
	g, err := NewGauntlet(GymQuestions, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultQuestionCount, g.Count())

	var res AnswerResult
	timedOut := false
	for i := 0; i < QuestionSeconds; i++ {
		res, timedOut = g.Tick()
	}
	assert.True(t, timedOut)
	assert.False(t, res.Correct)
	assert.Zero(t, res.Points)
	assert.Equal(t, 1, g.Index())
	assert.Equal(t, QuestionSeconds, g.TimeLeft())
	assert.Zero(t, g.Score())
}

func TestGauntletBonusAndBadge(t *testing.T) {
	bank := []Question{
		{ID: 1, Options: []string{"a"}, Answer: 0, Points: 100},
		{ID: 2, Options: []string{"a"}, Answer: 0, Points: 80},
	}
	g, err := NewGauntlet(bank, 2)
	require.NoError(t, err)

	_, err = g.Result()
	assert.ErrorIs(t, err, ErrNotComplete)

	res, err := g.Answer(0)
	require.NoError(t, err)
	assert.Equal(t, 110, res.Points)

	g.Tick()
	res, err = g.Answer(0)
	require.NoError(t, err)
	assert.Equal(t, 80+29/3, res.Points)

	result, err := g.Result()
	require.NoError(t, err)
	assert.Equal(t, 199, result.Score)
	assert.Empty(t, result.Badge)

	_, err = g.Answer(0)
	assert.ErrorIs(t, err, ErrSessionOver)
}

func TestGauntletBadgeAtThreshold(t *testing.T) {
	bank := []Question{
		{ID: 1, Options: []string{"a"}, Answer: 0, Points: 190},
	}
	g, err := NewGauntlet(bank, 1)
	require.NoError(t, err)

	_, err = g.Answer(0)
	require.NoError(t, err)
	result, err := g.Result()
	require.NoError(t, err)
	assert.Equal(t, 200, result.Score)
	assert.Equal(t, EliteScholarBadge, result.Badge)
}

func TestQuestionBanks(t *testing.T) {
	assert.Len(t, DuelQuestions, 6)
	assert.Len(t, GymQuestions, 8)
	for _, q := range append(append([]Question{}, DuelQuestions...), GymQuestions...) {
		assert.Less(t, q.Answer, len(q.Options), "question %d", q.ID)
		assert.Greater(t, q.Points, 0)
	}
}
