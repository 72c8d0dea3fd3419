package submission

import (
	"context"
	"sort"
	"sync"

	"github.com/mind-engage/mindengage-exams/internal/attempt"
)

type memoryStore struct {
	locks *attempt.PairLocks

	mu    sync.RWMutex
	byID  map[string]Submission
	pairs map[[2]string][]string // (studentID, examID) -> submission ids
}

func NewInMemoryStore() Store {
	return &memoryStore{
		locks: attempt.NewPairLocks(),
		byID:  map[string]Submission{},
		pairs: map[[2]string][]string{},
	}
}

func (m *memoryStore) CountSubmissions(_ context.Context, studentID, examID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.pairs[[2]string{studentID, examID}]), nil
}

func (m *memoryStore) Create(ctx context.Context, studentID, examID string, build BuildFunc) (Submission, error) {
	unlock := m.locks.Lock(studentID, examID)
	defer unlock()

	n, _ := m.CountSubmissions(ctx, studentID, examID)
	s, err := build(n + 1)
	if err != nil {
		return Submission{}, err
	}
	if err := m.Insert(ctx, s); err != nil {
		return Submission{}, err
	}
	return s, nil
}

func (m *memoryStore) Insert(_ context.Context, s Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := [2]string{s.StudentID, s.ExamID}
	for _, id := range m.pairs[k] {
		if m.byID[id].AttemptNumber == s.AttemptNumber {
			return ErrDuplicateAttempt
		}
	}
	m.byID[s.ID] = s
	m.pairs[k] = append(m.pairs[k], s.ID)
	return nil
}

func (m *memoryStore) Get(_ context.Context, id string) (Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.byID[id]
	if !ok {
		return Submission{}, ErrNotFound
	}
	return s, nil
}

func (m *memoryStore) List(_ context.Context, opts ListOpts) ([]Submission, error) {
	m.mu.RLock()
	out := make([]Submission, 0)
	for _, s := range m.byID {
		if opts.StudentID != "" && s.StudentID != opts.StudentID {
			continue
		}
		if opts.ExamID != "" && s.ExamID != opts.ExamID {
			continue
		}
		out = append(out, s)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.After(out[j].SubmittedAt)
		}
		if out[i].AttemptNumber != out[j].AttemptNumber {
			return out[i].AttemptNumber > out[j].AttemptNumber
		}
		return out[i].ID < out[j].ID
	})
	if opts.Offset >= len(out) {
		return []Submission{}, nil
	}
	out = out[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}
