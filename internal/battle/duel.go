package battle

import (
	"time"
)

// Duel tuning
const (
	DuelMaxHP         = 100
	WrongAnswerDamage = 15
	MaxTimeBonus      = 5
	AttackBase        = 20
	AttackSpread      = 10
	CounterBase       = 10
	CounterSpread     = 5
	HealAmount        = 25
)

// Side identifies a duel participant
type Side int

const (
	SideNone Side = iota
	SidePlayer
	SideOpponent
)

func (s Side) String() string {
	switch s {
	case SidePlayer:
		return "player"
	case SideOpponent:
		return "opponent"
	default:
		return "none"
	}
}

// DuelPhase is the state of a duel turn
type DuelPhase int

const (
	PhaseAwaitingAnswer DuelPhase = iota
	PhaseAwaitingAction
	PhaseOpponentAttack
	PhaseGameOver
)

func (p DuelPhase) String() string {
	switch p {
	case PhaseAwaitingAnswer:
		return "awaiting_answer"
	case PhaseAwaitingAction:
		return "awaiting_action"
	case PhaseOpponentAttack:
		return "opponent_attack"
	case PhaseGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// Action is a point-spending move chosen after a correct answer
type Action string

const (
	ActionAttack  Action = "attack"
	ActionDefense Action = "defense"
	ActionHeal    Action = "heal"
)

// Cost returns the points an action consumes
func (a Action) Cost() (int, bool) {
	switch a {
	case ActionAttack:
		return 4, true
	case ActionDefense:
		return 3, true
	case ActionHeal:
		return 5, true
	default:
		return 0, false
	}
}

// ActionResult describes what an action did
type ActionResult struct {
	Action  Action `json:"action"`
	Damage  int    `json:"damage,omitempty"`
	Counter int    `json:"counter,omitempty"`
	Healed  int    `json:"healed,omitempty"`
}

// DuelOptions sets starting hit points; zero values mean DuelMaxHP
type DuelOptions struct {
	PlayerHP   int
	OpponentHP int
}

// Duel is one head-to-head quiz battle against an opponent
type Duel struct {
	bank []Question
	rand Rand
	now  Clock

	maxHP      int
	playerHP   int
	opponentHP int
	points     int

	phase    DuelPhase
	question Question
	shownAt  time.Time
	winner   Side
}

// NewDuel starts a duel and draws the first question
func NewDuel(bank []Question, rnd Rand, now Clock, opts DuelOptions) (*Duel, error) {
	if len(bank) == 0 {
		return nil, ErrEmptyBank
	}
	if now == nil {
		now = time.Now
	}
	d := &Duel{
		bank:       bank,
		rand:       rnd,
		now:        now,
		maxHP:      DuelMaxHP,
		playerHP:   startingHP(opts.PlayerHP),
		opponentHP: startingHP(opts.OpponentHP),
	}
	d.nextQuestion()
	return d, nil
}

func startingHP(hp int) int {
	if hp <= 0 || hp > DuelMaxHP {
		return DuelMaxHP
	}
	return hp
}

func (d *Duel) Phase() DuelPhase   { return d.phase }
func (d *Duel) Question() Question { return d.question }
func (d *Duel) Points() int        { return d.points }
func (d *Duel) PlayerHP() int      { return d.playerHP }
func (d *Duel) OpponentHP() int    { return d.opponentHP }
func (d *Duel) MaxHP() int         { return d.maxHP }
func (d *Duel) Over() bool         { return d.phase == PhaseGameOver }

// Winner returns the side left standing once the duel is over
func (d *Duel) Winner() (Side, bool) {
	return d.winner, d.phase == PhaseGameOver
}

// Answer submits an option index for the current question
func (d *Duel) Answer(option int) (AnswerResult, error) {
	if d.phase == PhaseGameOver {
		return AnswerResult{}, ErrSessionOver
	}
	if d.phase != PhaseAwaitingAnswer {
		return AnswerResult{}, ErrWrongPhase
	}

	if !d.question.IsCorrect(option) {
		d.phase = PhaseOpponentAttack
		return AnswerResult{Correct: false}, nil
	}

	elapsed := int(d.now().Sub(d.shownAt) / time.Second)
	bonus := MaxTimeBonus - elapsed
	if bonus < 0 {
		bonus = 0
	}
	earned := d.question.Points + bonus
	d.points += earned
	d.phase = PhaseAwaitingAction
	return AnswerResult{Correct: true, Points: earned}, nil
}

// ResolveOpponentAttack applies the wrong-answer penalty. The caller invokes it
// after showing the miss.
func (d *Duel) ResolveOpponentAttack() (int, error) {
	if d.phase == PhaseGameOver {
		return 0, ErrSessionOver
	}
	if d.phase != PhaseOpponentAttack {
		return 0, ErrWrongPhase
	}

	d.playerHP = damage(d.playerHP, WrongAnswerDamage)
	if d.playerHP == 0 {
		d.end(SideOpponent)
		return WrongAnswerDamage, nil
	}
	d.nextQuestion()
	return WrongAnswerDamage, nil
}

// Act spends points on an action. Insufficient points leave the phase unchanged.
func (d *Duel) Act(action Action) (ActionResult, error) {
	if d.phase == PhaseGameOver {
		return ActionResult{}, ErrSessionOver
	}
	if d.phase != PhaseAwaitingAction {
		return ActionResult{}, ErrWrongPhase
	}
	cost, ok := action.Cost()
	if !ok {
		return ActionResult{}, ErrUnknownAction
	}
	if d.points < cost {
		return ActionResult{}, ErrInsufficientPoints
	}
	d.points -= cost

	result := ActionResult{Action: action}
	switch action {
	case ActionAttack:
		result.Damage = AttackBase + d.rand.Intn(AttackSpread)
		d.opponentHP = damage(d.opponentHP, result.Damage)
		if d.opponentHP == 0 {
			d.end(SidePlayer)
			return result, nil
		}
		result.Counter = CounterBase + d.rand.Intn(CounterSpread)
		d.playerHP = damage(d.playerHP, result.Counter)
		if d.playerHP == 0 {
			d.end(SideOpponent)
			return result, nil
		}
	case ActionDefense:
		// Only consumes the turn.
	case ActionHeal:
		before := d.playerHP
		d.playerHP += HealAmount
		if d.playerHP > d.maxHP {
			d.playerHP = d.maxHP
		}
		result.Healed = d.playerHP - before
	}

	d.nextQuestion()
	return result, nil
}

func (d *Duel) nextQuestion() {
	d.question = d.bank[d.rand.Intn(len(d.bank))]
	d.shownAt = d.now()
	d.phase = PhaseAwaitingAnswer
}

func (d *Duel) end(winner Side) {
	d.winner = winner
	d.phase = PhaseGameOver
}

func damage(hp, amount int) int {
	hp -= amount
	if hp < 0 {
		return 0
	}
	return hp
}
