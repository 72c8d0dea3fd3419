package submission

import (
	"context"
	"errors"

	"github.com/mind-engage/mindengage-exams/internal/attempt"
)

var (
	ErrNotFound         = errors.New("submission not found")
	ErrExamClosed       = errors.New("exam is not accepting submissions")
	ErrMissingStudent   = errors.New("student id is required")
	ErrDuplicateAttempt = errors.New("attempt number already recorded")
)

// BuildFunc produces the record once the store has reserved attemptNumber.
type BuildFunc func(attemptNumber int) (Submission, error)

type ListOpts struct {
	StudentID string
	ExamID    string
	Limit     int
	Offset    int
}

type Store interface {
	attempt.Counter

	// Create reserves the next attempt number for the pair and persists the
	// record built for it as one atomic step.
	Create(ctx context.Context, studentID, examID string, build BuildFunc) (Submission, error)
	// Insert persists a record whose attempt number was assigned elsewhere.
	Insert(ctx context.Context, s Submission) error
	Get(ctx context.Context, id string) (Submission, error)
	// List returns matching submissions, newest first.
	List(ctx context.Context, opts ListOpts) ([]Submission, error)
}
