package exam

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("exam not found")
	ErrStatusChange  = errors.New("archived exams cannot change status")
	ErrInvalidStatus = errors.New("invalid exam status")
)

type ListOpts struct {
	Q         string
	CreatedBy string // teachers only see their own exams
	Limit     int
	Offset    int
}

// Source is the read side the scoring service depends on.
type Source interface {
	GetExamAdmin(ctx context.Context, id string) (Exam, error) // full exam, answer keys included
}

type Store interface {
	Source
	PutExam(ctx context.Context, e Exam) error
	GetExam(ctx context.Context, id string) (Exam, error)         // student-safe (no answer keys)
	GetExamByLink(ctx context.Context, link string) (Exam, error) // active exams only, student-safe
	SetStatus(ctx context.Context, id string, status Status) error
	ListExams(ctx context.Context, opts ListOpts) ([]Summary, error)
}

// CheckStatusChange enforces the toggle rules shared by every store: only
// active and paused are settable, and archived exams are frozen.
func CheckStatusChange(current, next Status) error {
	if next != StatusActive && next != StatusPaused {
		return ErrInvalidStatus
	}
	if current == StatusArchived {
		return ErrStatusChange
	}
	return nil
}
