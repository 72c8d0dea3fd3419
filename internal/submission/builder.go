package submission

import (
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-exams/internal/exam"
	"github.com/mind-engage/mindengage-exams/internal/grading"
)

// Build assembles the record for a scored attempt. submittedAt is now, the
// time the record is built. A missing geolocation becomes an empty Location.
func Build(ex exam.Exam, studentID string, res grading.Result, attemptNumber int, meta Metadata, now time.Time) Submission {
	s := Submission{
		ID:                  uuid.NewString(),
		ExamID:              ex.ID,
		StudentID:           studentID,
		Answers:             res.Answers,
		TotalScore:          res.TotalScore,
		TotalScorePossible:  res.TotalScorePossible,
		Percentage:          res.Percentage,
		TotalQuestions:      res.TotalQuestions,
		CorrectAnswersCount: res.CorrectAnswersCount,
		AttemptNumber:       attemptNumber,
		SubmittedAt:         now.UTC(),
		StartTime:           meta.StartTime,
		TimeSpentSeconds:    meta.TimeSpentSeconds,
	}
	if s.Answers == nil {
		s.Answers = []grading.ScoredAnswer{}
	}
	if meta.Geolocation != nil {
		s.Location = *meta.Geolocation
	}
	return s
}
