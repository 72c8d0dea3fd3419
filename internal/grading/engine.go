package grading

import (
	"encoding/json"
	"math"

	"github.com/mind-engage/mindengage-exams/internal/exam"
)

// Outcome tags how a single question was scored. Every skip the engine takes
// is one of these values rather than an error.
type Outcome string

const (
	OutcomeCorrect     Outcome = "correct"
	OutcomeIncorrect   Outcome = "incorrect"
	OutcomeUnanswered  Outcome = "unanswered"
	OutcomeUnsupported Outcome = "unsupported_type"
)

// Answer is one submitted answer as it arrives on the wire.
type Answer struct {
	QuestionID string          `json:"questionId"`
	Answer     json.RawMessage `json:"answer"`
}

// ScoredAnswer is the per-question result kept on the submission.
type ScoredAnswer struct {
	QuestionID     string            `json:"questionId"`
	QuestionType   exam.QuestionType `json:"questionType"`
	SubmittedValue json.RawMessage   `json:"submittedValue"`
	ScoreAwarded   float64           `json:"scoreAwarded"`
	ExpectedValue  json.RawMessage   `json:"expectedValue"`
	IsCorrect      bool              `json:"isCorrect"`
	Outcome        Outcome           `json:"outcome"`
}

// Result is the aggregate produced by Score.
type Result struct {
	Answers             []ScoredAnswer `json:"answers"`
	Ignored             []string       `json:"ignored"` // answers whose questionId is not part of the exam
	TotalScore          float64        `json:"totalScore"`
	TotalScorePossible  float64        `json:"totalScorePossible"`
	Percentage          int            `json:"percentage"`
	CorrectAnswersCount int            `json:"correctAnswersCount"`
	TotalQuestions      int            `json:"totalQuestions"`
}

type Option func(*config)

type config struct {
	Tolerance bool // honor Question.TolerancePercent for numeric direct answers
}

func WithTolerance(b bool) Option { return func(c *config) { c.Tolerance = b } }

// Engine scores answer sets against exams. It holds no mutable state and is
// safe for concurrent use.
type Engine struct {
	cfg config
}

func NewEngine(opts ...Option) *Engine {
	cfg := config{}
	for _, o := range opts {
		o(&cfg)
	}
	return &Engine{cfg: cfg}
}

var defaultEngine = NewEngine()

// Match compares one raw answer against q with the default options.
func Match(q exam.Question, raw json.RawMessage) Outcome { return defaultEngine.Match(q, raw) }

// Score scores answers against ex with the default options.
func Score(ex exam.Exam, answers []Answer) Result { return defaultEngine.Score(ex, answers) }

func (e *Engine) Match(q exam.Question, raw json.RawMessage) Outcome {
	switch q.Type {
	case exam.TypeDirect, exam.TypeMultipleChoice:
	default:
		return OutcomeUnsupported
	}
	if isAbsent(raw) {
		return OutcomeUnanswered
	}
	v := Resolve(q.Type, raw)
	switch q.Type {
	case exam.TypeDirect:
		if !v.HasText {
			return OutcomeIncorrect
		}
		if NormalizeAnswerText(v.Text) == NormalizeAnswerText(q.ExpectedAnswer) {
			return OutcomeCorrect
		}
		if e.cfg.Tolerance && q.TolerancePercent != nil && withinTolerance(v.Text, q.ExpectedAnswer, *q.TolerancePercent) {
			return OutcomeCorrect
		}
		return OutcomeIncorrect
	default:
		if sameIndexSet(v.Indices, q.CorrectOptionIndices) {
			return OutcomeCorrect
		}
		return OutcomeIncorrect
	}
}

// Score walks the exam's questions in order. Questions without an answer
// score zero but still count toward TotalScorePossible. When a question is
// answered more than once the first answer is used.
func (e *Engine) Score(ex exam.Exam, answers []Answer) Result {
	byID := make(map[string]json.RawMessage, len(answers))
	known := make(map[string]struct{}, len(ex.Questions))
	for _, q := range ex.Questions {
		known[q.ID] = struct{}{}
	}

	res := Result{
		Answers:        make([]ScoredAnswer, 0, len(ex.Questions)),
		Ignored:        []string{},
		TotalQuestions: len(ex.Questions),
	}
	for _, a := range answers {
		if _, ok := known[a.QuestionID]; !ok {
			res.Ignored = append(res.Ignored, a.QuestionID)
			continue
		}
		if _, dup := byID[a.QuestionID]; dup {
			continue
		}
		byID[a.QuestionID] = a.Answer
	}

	for _, q := range ex.Questions {
		raw := byID[q.ID]
		outcome := e.Match(q, raw)
		sa := ScoredAnswer{
			QuestionID:     q.ID,
			QuestionType:   q.Type,
			SubmittedValue: raw,
			ExpectedValue:  expectedValue(q),
			Outcome:        outcome,
		}
		if outcome == OutcomeCorrect {
			sa.IsCorrect = true
			sa.ScoreAwarded = q.Score
			res.CorrectAnswersCount++
		}
		res.TotalScore += sa.ScoreAwarded
		res.TotalScorePossible += q.Score
		res.Answers = append(res.Answers, sa)
	}
	res.Percentage = Percentage(res.TotalScore, res.TotalScorePossible)
	return res
}

// Percentage is round(total/possible*100), half up, and 0 when nothing was
// possible. The ratio is taken before scaling, so 5.75/10 gives 57.
func Percentage(total, possible float64) int {
	if possible == 0 {
		return 0
	}
	return int(math.Floor(total/possible*100 + 0.5))
}

func expectedValue(q exam.Question) json.RawMessage {
	var v any
	switch q.Type {
	case exam.TypeDirect:
		v = q.ExpectedAnswer
	case exam.TypeMultipleChoice:
		v = dedupeSorted(q.CorrectOptionIndices)
	default:
		return json.RawMessage("null")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("null")
	}
	return b
}
