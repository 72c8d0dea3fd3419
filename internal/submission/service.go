package submission

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/mind-engage/mindengage-exams/internal/attempt"
	"github.com/mind-engage/mindengage-exams/internal/exam"
	"github.com/mind-engage/mindengage-exams/internal/grading"
)

// Service scores submissions and records them.
type Service struct {
	exams  exam.Source
	store  Store
	seq    attempt.Sequencer // nil: the store sequences attempts itself
	engine *grading.Engine
	now    func() time.Time
}

type Option func(*Service)

// WithSequencer makes the service number attempts with seq and persist them
// through Store.Insert.
func WithSequencer(seq attempt.Sequencer) Option { return func(s *Service) { s.seq = seq } }

func WithEngine(e *grading.Engine) Option { return func(s *Service) { s.engine = e } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func NewService(exams exam.Source, store Store, opts ...Option) *Service {
	s := &Service{exams: exams, store: store, engine: grading.NewEngine(), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Submit scores req against the exam and records the attempt.
func (s *Service) Submit(ctx context.Context, req Request) (Submission, Summary, error) {
	if strings.TrimSpace(req.StudentID) == "" {
		return Submission{}, Summary{}, ErrMissingStudent
	}
	ex, err := s.exams.GetExamAdmin(ctx, req.ExamID)
	if err != nil {
		return Submission{}, Summary{}, err
	}
	if !ex.AcceptsSubmissions() {
		return Submission{}, Summary{}, ErrExamClosed
	}
	if err := exam.Validate(ex); err != nil {
		return Submission{}, Summary{}, err
	}

	res := s.engine.Score(ex, req.Answers)
	if len(res.Ignored) > 0 {
		log.Printf("submission: exam %s student %s: ignored answers for unknown questions %v", ex.ID, req.StudentID, res.Ignored)
	}

	meta := req.Metadata()
	var sub Submission
	if s.seq != nil {
		n, err := s.seq.Next(ctx, req.StudentID, ex.ID)
		if err != nil {
			return Submission{}, Summary{}, fmt.Errorf("next attempt: %w", err)
		}
		sub = Build(ex, req.StudentID, res, n, meta, s.now())
		if err := s.store.Insert(ctx, sub); err != nil {
			if r, ok := s.seq.(attempt.Releaser); ok {
				r.Release(context.WithoutCancel(ctx), req.StudentID, ex.ID, n)
			}
			return Submission{}, Summary{}, fmt.Errorf("save submission: %w", err)
		}
	} else {
		build := func(n int) (Submission, error) {
			return Build(ex, req.StudentID, res, n, meta, s.now()), nil
		}
		sub, err = s.store.Create(ctx, req.StudentID, ex.ID, build)
		if err != nil {
			return Submission{}, Summary{}, fmt.Errorf("save submission: %w", err)
		}
	}
	return sub, sub.Summary(ex.Title), nil
}

func (s *Service) Get(ctx context.Context, id string) (Submission, error) {
	return s.store.Get(ctx, id)
}

// History lists a student's submissions, newest first.
func (s *Service) History(ctx context.Context, studentID string, limit, offset int) ([]Submission, error) {
	return s.store.List(ctx, ListOpts{StudentID: studentID, Limit: limit, Offset: offset})
}

// AttemptsByExam groups a student's attempts per exam. Exams are ordered by
// their latest attempt, attempts by attempt number.
func (s *Service) AttemptsByExam(ctx context.Context, studentID string) ([]ExamAttempts, error) {
	subs, err := s.store.List(ctx, ListOpts{StudentID: studentID})
	if err != nil {
		return nil, err
	}
	out := []ExamAttempts{}
	idx := map[string]int{}
	for _, sub := range subs {
		i, ok := idx[sub.ExamID]
		if !ok {
			i = len(out)
			idx[sub.ExamID] = i
			out = append(out, ExamAttempts{ExamID: sub.ExamID, ExamTitle: s.examTitle(ctx, sub.ExamID)})
		}
		out[i].Attempts = append(out[i].Attempts, sub.AttemptSummary())
	}
	for i := range out {
		sortAttempts(out[i].Attempts)
	}
	return out, nil
}

// ResultsByStudent groups every attempt on an exam per student, ordered by
// student id.
func (s *Service) ResultsByStudent(ctx context.Context, examID string) ([]StudentResults, error) {
	subs, err := s.store.List(ctx, ListOpts{ExamID: examID})
	if err != nil {
		return nil, err
	}
	byStudent := map[string]*StudentResults{}
	for _, sub := range subs {
		r, ok := byStudent[sub.StudentID]
		if !ok {
			r = &StudentResults{StudentID: sub.StudentID}
			byStudent[sub.StudentID] = r
		}
		r.Attempts = append(r.Attempts, sub.AttemptSummary())
		if sub.Percentage > r.BestPercentage {
			r.BestPercentage = sub.Percentage
		}
	}
	out := make([]StudentResults, 0, len(byStudent))
	for _, r := range byStudent {
		sortAttempts(r.Attempts)
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out, nil
}

func (s *Service) examTitle(ctx context.Context, id string) string {
	ex, err := s.exams.GetExamAdmin(ctx, id)
	if err != nil {
		if !errors.Is(err, exam.ErrNotFound) {
			log.Printf("submission: load exam %s: %v", id, err)
		}
		return ""
	}
	return ex.Title
}

func sortAttempts(a []AttemptSummary) {
	sort.Slice(a, func(i, j int) bool { return a[i].AttemptNumber < a[j].AttemptNumber })
}
