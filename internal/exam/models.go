package exam

// QuestionType selects how a question's answer is compared.
type QuestionType string

const (
	TypeDirect         QuestionType = "direct" // free text, normalized string match
	TypeMultipleChoice QuestionType = "qcm"    // option indices, exact set match
)

// Status gates whether an exam accepts new submissions.
type Status string

const (
	StatusActive   Status = "active"
	StatusPaused   Status = "paused"
	StatusArchived Status = "archived"
)

// Attachment points at a media file kept in the blob store.
type Attachment struct {
	Key      string `json:"key" yaml:"key"`
	Filename string `json:"filename,omitempty" yaml:"filename,omitempty"`
	MimeType string `json:"mimeType,omitempty" yaml:"mimeType,omitempty"`
}

type Question struct {
	ID              string       `json:"id" yaml:"id"`
	Type            QuestionType `json:"type" yaml:"type"`
	Text            string       `json:"text" yaml:"text"`
	DurationSeconds int          `json:"durationSeconds" yaml:"durationSeconds"` // enforced by the client only
	Score           float64      `json:"score" yaml:"score"`

	// direct
	ExpectedAnswer   string   `json:"expectedAnswer,omitempty" yaml:"expectedAnswer,omitempty"`
	TolerancePercent *float64 `json:"tolerancePercent,omitempty" yaml:"tolerancePercent,omitempty"`

	// qcm
	Options              []string `json:"options,omitempty" yaml:"options,omitempty"`
	CorrectOptionIndices []int    `json:"correctOptionIndices,omitempty" yaml:"correctOptionIndices,omitempty"`

	Attachment *Attachment `json:"attachment,omitempty" yaml:"attachment,omitempty"`
}

type Exam struct {
	ID          string     `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Audience    string     `json:"audience,omitempty" yaml:"audience,omitempty"`
	Link        string     `json:"link,omitempty" yaml:"link,omitempty"`
	Status      Status     `json:"status" yaml:"status"`
	CreatedBy   string     `json:"createdBy,omitempty" yaml:"createdBy,omitempty"`
	Questions   []Question `json:"questions" yaml:"questions"`

	CreatedAt int64 `json:"createdAt,omitempty" yaml:"-"`
}

// ScorePossible is the sum of every question's score.
func (e Exam) ScorePossible() float64 {
	total := 0.0
	for _, q := range e.Questions {
		total += q.Score
	}
	return total
}

// AcceptsSubmissions reports whether students may submit attempts. An empty
// status is treated as active.
func (e Exam) AcceptsSubmissions() bool {
	return e.Status == "" || e.Status == StatusActive
}

// StudentView returns a copy with answer keys removed.
func (e Exam) StudentView() Exam {
	out := e
	out.Questions = make([]Question, len(e.Questions))
	for i, q := range e.Questions {
		q.ExpectedAnswer = ""
		q.TolerancePercent = nil
		q.CorrectOptionIndices = nil
		out.Questions[i] = q
	}
	return out
}

// Summary is the list view of an exam.
type Summary struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Status        Status `json:"status"`
	Link          string `json:"link,omitempty"`
	QuestionCount int    `json:"questionCount"`
	CreatedAt     int64  `json:"createdAt,omitempty"`
}
