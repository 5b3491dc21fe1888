package battle

// Gauntlet tuning
const (
	DefaultQuestionCount = 5
	QuestionSeconds      = 30
	BadgeThreshold       = 200
	EliteScholarBadge    = "Elite Scholar Badge"
	// TimedOut is the answer recorded when the countdown expires
	TimedOut = -1
)

// GauntletResult is the final tally of a completed gauntlet
type GauntletResult struct {
	Score    int    `json:"score"`
	Correct  int    `json:"correct"`
	Answered int    `json:"answered"`
	Badge    string `json:"badge,omitempty"`
}

// Gauntlet walks a fixed number of questions in bank order, each on its own countdown
type Gauntlet struct {
	bank     []Question
	count    int
	index    int
	timeLeft int
	score    int
	correct  int
	complete bool
}

// NewGauntlet starts a gauntlet over the first count questions of bank.
// count <= 0 selects DefaultQuestionCount; it is capped at the bank size.
func NewGauntlet(bank []Question, count int) (*Gauntlet, error) {
	if len(bank) == 0 {
		return nil, ErrEmptyBank
	}
	if count <= 0 {
		count = DefaultQuestionCount
	}
	if count > len(bank) {
		count = len(bank)
	}
	return &Gauntlet{
		bank:     bank,
		count:    count,
		timeLeft: QuestionSeconds,
	}, nil
}

// Question returns the question being asked, or false once complete
func (g *Gauntlet) Question() (Question, bool) {
	if g.complete {
		return Question{}, false
	}
	return g.bank[g.index], true
}

func (g *Gauntlet) Index() int     { return g.index }
func (g *Gauntlet) Count() int     { return g.count }
func (g *Gauntlet) TimeLeft() int  { return g.timeLeft }
func (g *Gauntlet) Score() int     { return g.score }
func (g *Gauntlet) Complete() bool { return g.complete }

// Tick advances the countdown by one second. When it reaches zero the
// question is answered with TimedOut and the result is returned.
func (g *Gauntlet) Tick() (AnswerResult, bool) {
	if g.complete {
		return AnswerResult{}, false
	}
	if g.timeLeft > 0 {
		g.timeLeft--
	}
	if g.timeLeft > 0 {
		return AnswerResult{}, false
	}
	res, _ := g.Answer(TimedOut)
	return res, true
}

// Answer scores the current question and moves to the next one
func (g *Gauntlet) Answer(option int) (AnswerResult, error) {
	if g.complete {
		return AnswerResult{}, ErrSessionOver
	}

	q := g.bank[g.index]
	var res AnswerResult
	if q.IsCorrect(option) {
		res = AnswerResult{Correct: true, Points: q.Points + g.timeLeft/3}
		g.score += res.Points
		g.correct++
	}

	g.index++
	g.timeLeft = QuestionSeconds
	if g.index >= g.count {
		g.complete = true
	}
	return res, nil
}

// Result reports the final score and any badge earned
func (g *Gauntlet) Result() (GauntletResult, error) {
	if !g.complete {
		return GauntletResult{}, ErrNotComplete
	}
	res := GauntletResult{
		Score:    g.score,
		Correct:  g.correct,
		Answered: g.count,
	}
	if g.score >= BadgeThreshold {
		res.Badge = EliteScholarBadge
	}
	return res, nil
}
