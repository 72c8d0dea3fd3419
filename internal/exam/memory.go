package exam

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryStore struct {
	mu    sync.RWMutex
	exams map[string]Exam
}

func NewInMemoryStore() Store {
	return &memoryStore{exams: map[string]Exam{}}
}

func (m *memoryStore) PutExam(_ context.Context, e Exam) error {
	if err := Validate(e); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.Status == "" {
		e.Status = StatusActive
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().Unix()
	}
	if e.Link == "" {
		e.Link = uuid.NewString()
	}
	m.exams[e.ID] = cloneExam(e)
	return nil
}

func (m *memoryStore) GetExamAdmin(_ context.Context, id string) (Exam, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.exams[id]
	if !ok {
		return Exam{}, ErrNotFound
	}
	return cloneExam(e), nil
}

func (m *memoryStore) GetExam(ctx context.Context, id string) (Exam, error) {
	e, err := m.GetExamAdmin(ctx, id)
	if err != nil {
		return Exam{}, err
	}
	return e.StudentView(), nil
}

func (m *memoryStore) GetExamByLink(_ context.Context, link string) (Exam, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.exams {
		if e.Link != "" && e.Link == link && e.Status == StatusActive {
			return e.StudentView(), nil
		}
	}
	return Exam{}, ErrNotFound
}

func (m *memoryStore) SetStatus(_ context.Context, id string, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.exams[id]
	if !ok {
		return ErrNotFound
	}
	if err := CheckStatusChange(e.Status, status); err != nil {
		return err
	}
	e.Status = status
	m.exams[id] = e
	return nil
}

func (m *memoryStore) ListExams(_ context.Context, opts ListOpts) ([]Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q := strings.ToLower(strings.TrimSpace(opts.Q))
	out := make([]Summary, 0, len(m.exams))
	for _, e := range m.exams {
		if e.Status == StatusArchived {
			continue
		}
		if opts.CreatedBy != "" && e.CreatedBy != opts.CreatedBy {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(e.Title), q) {
			continue
		}
		out = append(out, summarize(e))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return page(out, opts.Limit, opts.Offset), nil
}

func summarize(e Exam) Summary {
	return Summary{
		ID:            e.ID,
		Title:         e.Title,
		Status:        e.Status,
		Link:          e.Link,
		QuestionCount: len(e.Questions),
		CreatedAt:     e.CreatedAt,
	}
}

func page(list []Summary, limit, offset int) []Summary {
	if offset >= len(list) {
		return []Summary{}
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

// cloneExam copies the slices so callers cannot mutate stored state.
func cloneExam(e Exam) Exam {
	out := e
	out.Questions = make([]Question, len(e.Questions))
	for i, q := range e.Questions {
		q.Options = append([]string(nil), q.Options...)
		q.CorrectOptionIndices = append([]int(nil), q.CorrectOptionIndices...)
		if q.TolerancePercent != nil {
			v := *q.TolerancePercent
			q.TolerancePercent = &v
		}
		if q.Attachment != nil {
			a := *q.Attachment
			q.Attachment = &a
		}
		out.Questions[i] = q
	}
	return out
}
