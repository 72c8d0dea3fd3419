package submission

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/mind-engage/mindengage-exams/internal/attempt"
	"github.com/mind-engage/mindengage-exams/internal/exam"
	"github.com/mind-engage/mindengage-exams/internal/grading"
)

func sampleExam() exam.Exam {
	return exam.Exam{
		ID:    "e1",
		Title: "Arithmetic",
		Questions: []exam.Question{
			{ID: "q1", Type: exam.TypeDirect, Text: "2+2?", Score: 5, ExpectedAnswer: "4"},
			{ID: "q2", Type: exam.TypeMultipleChoice, Text: "Pick 3", Score: 10,
				Options: []string{"1", "2", "3"}, CorrectOptionIndices: []int{2}},
		},
	}
}

func newTestService(t *testing.T, store Store, opts ...Option) (*Service, exam.Store) {
	t.Helper()
	exams := exam.NewInMemoryStore()
	if err := exams.PutExam(context.Background(), sampleExam()); err != nil {
		t.Fatal(err)
	}
	return NewService(exams, store, opts...), exams
}

func req(student string, pairs ...string) Request {
	r := Request{ExamID: "e1", StudentID: student}
	for i := 0; i+1 < len(pairs); i += 2 {
		r.Answers = append(r.Answers, grading.Answer{QuestionID: pairs[i], Answer: json.RawMessage(pairs[i+1])})
	}
	return r
}

func TestSubmitScenarios(t *testing.T) {
	svc, _ := newTestService(t, NewInMemoryStore())
	ctx := context.Background()

	sub, sum, err := svc.Submit(ctx, req("s1", "q1", `"4"`, "q2", `[2]`))
	if err != nil {
		t.Fatal(err)
	}
	if sum.TotalScore != 15 || sum.TotalScorePossible != 15 || sum.Percentage != 100 || sum.CorrectAnswersCount != 2 {
		t.Fatalf("summary: %+v", sum)
	}
	if sum.AttemptNumber != 1 || sum.ExamTitle != "Arithmetic" || sum.SubmissionID != sub.ID {
		t.Fatalf("summary: %+v", sum)
	}

	_, sum, err = svc.Submit(ctx, req("s1", "q1", `"five"`, "q2", `[0]`))
	if err != nil {
		t.Fatal(err)
	}
	if sum.TotalScore != 0 || sum.Percentage != 0 || sum.CorrectAnswersCount != 0 || sum.AttemptNumber != 2 {
		t.Fatalf("summary: %+v", sum)
	}
}

func TestSubmitErrors(t *testing.T) {
	ctx := context.Background()
	svc, exams := newTestService(t, NewInMemoryStore())

	if _, _, err := svc.Submit(ctx, req("")); !errors.Is(err, ErrMissingStudent) {
		t.Fatalf("missing student: %v", err)
	}
	r := req("s1")
	r.ExamID = "nope"
	if _, _, err := svc.Submit(ctx, r); !errors.Is(err, exam.ErrNotFound) {
		t.Fatalf("unknown exam: %v", err)
	}

	if err := exams.SetStatus(ctx, "e1", exam.StatusPaused); err != nil {
		t.Fatal(err)
	}
	if _, _, err := svc.Submit(ctx, req("s1")); !errors.Is(err, ErrExamClosed) {
		t.Fatalf("paused exam: %v", err)
	}
}

type staticSource struct{ ex exam.Exam }

func (s staticSource) GetExamAdmin(context.Context, string) (exam.Exam, error) { return s.ex, nil }

func TestSubmitRejectsMalformedExam(t *testing.T) {
	bad := sampleExam()
	bad.Questions[1].CorrectOptionIndices = []int{7}
	store := NewInMemoryStore()
	svc := NewService(staticSource{bad}, store)

	_, _, err := svc.Submit(context.Background(), req("s1", "q2", `[7]`))
	var verr *exam.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if n, _ := store.CountSubmissions(context.Background(), "s1", "e1"); n != 0 {
		t.Fatalf("nothing should be stored, got %d", n)
	}
}

func TestSubmitUsesClock(t *testing.T) {
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	svc, _ := newTestService(t, NewInMemoryStore(), WithClock(func() time.Time { return at }))
	sub, _, err := svc.Submit(context.Background(), req("s1"))
	if err != nil {
		t.Fatal(err)
	}
	if !sub.SubmittedAt.Equal(at) {
		t.Fatalf("submittedAt = %v", sub.SubmittedAt)
	}
	if sub.Location != (Location{}) {
		t.Fatalf("location = %+v", sub.Location)
	}
}

func submitConcurrently(t *testing.T, svc *Service, student string, n int) []int {
	t.Helper()
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		got []int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, sum, err := svc.Submit(context.Background(), req(student, "q1", `"4"`))
			if err != nil {
				t.Errorf("submit: %v", err)
				return
			}
			mu.Lock()
			got = append(got, sum.AttemptNumber)
			mu.Unlock()
		}()
	}
	wg.Wait()
	sort.Ints(got)
	return got
}

func assertOneToN(t *testing.T, got []int, n int) {
	t.Helper()
	if len(got) != n {
		t.Fatalf("got %d attempts, want %d", len(got), n)
	}
	for i, v := range got {
		if v != i+1 {
			t.Fatalf("attempt numbers = %v, want 1..%d", got, n)
		}
	}
}

func TestSubmitConcurrentMemoryStore(t *testing.T) {
	svc, _ := newTestService(t, NewInMemoryStore())
	assertOneToN(t, submitConcurrently(t, svc, "s1", 40), 40)
}

func TestSubmitConcurrentWithSequencer(t *testing.T) {
	store := NewInMemoryStore()
	svc, _ := newTestService(t, store, WithSequencer(attempt.NewMemorySequencer(store)))
	assertOneToN(t, submitConcurrently(t, svc, "s1", 40), 40)
}

// flakyStore fails the next `failures` inserts.
type flakyStore struct {
	Store
	failures int
}

func (f *flakyStore) Insert(ctx context.Context, sub Submission) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("disk full")
	}
	return f.Store.Insert(ctx, sub)
}

func TestSubmitFailedInsertLeavesNoGap(t *testing.T) {
	store := &flakyStore{Store: NewInMemoryStore(), failures: 1}
	svc, _ := newTestService(t, store, WithSequencer(attempt.NewMemorySequencer(store)))
	ctx := context.Background()

	if _, _, err := svc.Submit(ctx, req("s1", "q1", `"4"`)); err == nil {
		t.Fatal("expected the failed insert to surface")
	}
	for want := 1; want <= 2; want++ {
		_, sum, err := svc.Submit(ctx, req("s1", "q1", `"4"`))
		if err != nil {
			t.Fatal(err)
		}
		if sum.AttemptNumber != want {
			t.Fatalf("attempt number = %d, want %d", sum.AttemptNumber, want)
		}
	}
	subs, _ := svc.History(ctx, "s1", 0, 0)
	if len(subs) != 2 {
		t.Fatalf("stored %d submissions", len(subs))
	}
}

func TestHistoryViews(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := func() time.Time { clock = clock.Add(time.Minute); return clock }
	svc, exams := newTestService(t, NewInMemoryStore(), WithClock(tick))

	other := sampleExam()
	other.ID, other.Title = "e2", "Geometry"
	if err := exams.PutExam(ctx, other); err != nil {
		t.Fatal(err)
	}

	submit := func(student, examID, answer string) {
		r := req(student, "q1", answer)
		r.ExamID = examID
		if _, _, err := svc.Submit(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
	submit("s1", "e1", `"3"`)
	submit("s1", "e1", `"4"`)
	submit("s1", "e2", `"4"`)
	submit("s2", "e1", `"4"`)

	hist, err := svc.History(ctx, "s1", 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 3 || hist[0].ExamID != "e2" {
		t.Fatalf("history should be newest first: %+v", hist)
	}

	groups, err := svc.AttemptsByExam(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 2 || groups[0].ExamTitle != "Geometry" || groups[1].ExamTitle != "Arithmetic" {
		t.Fatalf("groups: %+v", groups)
	}
	if a := groups[1].Attempts; len(a) != 2 || a[0].AttemptNumber != 1 || a[1].AttemptNumber != 2 {
		t.Fatalf("attempts: %+v", a)
	}

	results, err := svc.ResultsByStudent(ctx, "e1")
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 || results[0].StudentID != "s1" || results[1].StudentID != "s2" {
		t.Fatalf("results: %+v", results)
	}
	if results[0].BestPercentage != 33 || len(results[0].Attempts) != 2 {
		t.Fatalf("s1 results: %+v", results[0])
	}
}
