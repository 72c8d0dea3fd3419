package submission

import (
	"time"

	"github.com/mind-engage/mindengage-exams/internal/grading"
)

// Location is the optional geolocation captured by the client. Any subset of
// fields may be present; an empty Location serializes as {}.
type Location struct {
	Latitude  *float64 `json:"latitude,omitempty" bson:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty" bson:"longitude,omitempty"`
	Accuracy  *float64 `json:"accuracy,omitempty" bson:"accuracy,omitempty"`
	City      *string  `json:"city,omitempty" bson:"city,omitempty"`
	Country   *string  `json:"country,omitempty" bson:"country,omitempty"`
}

// Submission is one scored attempt. It is never updated after creation.
type Submission struct {
	ID                  string                 `json:"id"`
	ExamID              string                 `json:"examId"`
	StudentID           string                 `json:"studentId"`
	Answers             []grading.ScoredAnswer `json:"answers"`
	TotalScore          float64                `json:"totalScore"`
	TotalScorePossible  float64                `json:"totalScorePossible"`
	Percentage          int                    `json:"percentage"`
	TotalQuestions      int                    `json:"totalQuestions"`
	CorrectAnswersCount int                    `json:"correctAnswersCount"`
	AttemptNumber       int                    `json:"attemptNumber"`
	SubmittedAt         time.Time              `json:"submittedAt"`
	StartTime           *time.Time             `json:"startTime,omitempty"`
	TimeSpentSeconds    *float64               `json:"timeSpentSeconds,omitempty"`
	Location            Location               `json:"location"`
}

// Request is the scoring input.
type Request struct {
	ExamID      string           `json:"examId"`
	StudentID   string           `json:"studentId"`
	Answers     []grading.Answer `json:"answers"`
	StartTime   *time.Time       `json:"startTime,omitempty"`
	TimeSpent   *float64         `json:"timeSpent,omitempty"` // seconds
	Geolocation *Location        `json:"geolocation,omitempty"`
}

// Metadata is the optional client context copied onto the record.
type Metadata struct {
	StartTime        *time.Time
	TimeSpentSeconds *float64
	Geolocation      *Location
}

func (r Request) Metadata() Metadata {
	return Metadata{StartTime: r.StartTime, TimeSpentSeconds: r.TimeSpent, Geolocation: r.Geolocation}
}

// Summary is the scoring output returned to the student.
type Summary struct {
	SubmissionID        string  `json:"submissionId"`
	TotalScore          float64 `json:"totalScore"`
	TotalScorePossible  float64 `json:"totalScorePossible"`
	Percentage          int     `json:"percentage"`
	TotalQuestions      int     `json:"totalQuestions"`
	CorrectAnswersCount int     `json:"correctAnswersCount"`
	AttemptNumber       int     `json:"attemptNumber"`
	ExamTitle           string  `json:"examTitle"`
}

func (s Submission) Summary(examTitle string) Summary {
	return Summary{
		SubmissionID:        s.ID,
		TotalScore:          s.TotalScore,
		TotalScorePossible:  s.TotalScorePossible,
		Percentage:          s.Percentage,
		TotalQuestions:      s.TotalQuestions,
		CorrectAnswersCount: s.CorrectAnswersCount,
		AttemptNumber:       s.AttemptNumber,
		ExamTitle:           examTitle,
	}
}

// AttemptSummary is one line of a history view.
type AttemptSummary struct {
	SubmissionID        string    `json:"submissionId"`
	AttemptNumber       int       `json:"attemptNumber"`
	SubmittedAt         time.Time `json:"submittedAt"`
	Percentage          int       `json:"percentage"`
	TotalScore          float64   `json:"totalScore"`
	TotalScorePossible  float64   `json:"totalScorePossible"`
	CorrectAnswersCount int       `json:"correctAnswersCount"`
}

func (s Submission) AttemptSummary() AttemptSummary {
	return AttemptSummary{
		SubmissionID:        s.ID,
		AttemptNumber:       s.AttemptNumber,
		SubmittedAt:         s.SubmittedAt,
		Percentage:          s.Percentage,
		TotalScore:          s.TotalScore,
		TotalScorePossible:  s.TotalScorePossible,
		CorrectAnswersCount: s.CorrectAnswersCount,
	}
}

// ExamAttempts groups a student's attempts by exam.
type ExamAttempts struct {
	ExamID    string           `json:"examId"`
	ExamTitle string           `json:"examTitle"`
	Attempts  []AttemptSummary `json:"attempts"`
}

// StudentResults groups an exam's attempts by student.
type StudentResults struct {
	StudentID      string           `json:"studentId"`
	BestPercentage int              `json:"bestPercentage"`
	Attempts       []AttemptSummary `json:"attempts"`
}
