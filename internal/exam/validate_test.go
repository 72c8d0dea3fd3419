package exam

import (
	"errors"
	"testing"
)

func tol(v float64) *float64 { return &v }

func sampleExam() Exam {
	return Exam{
		ID:        "e1",
		Title:     "Arithmetic",
		CreatedBy: "t1",
		Questions: []Question{
			{ID: "q1", Type: TypeDirect, Text: "2+2?", Score: 5, ExpectedAnswer: "4", TolerancePercent: tol(1)},
			{ID: "q2", Type: TypeMultipleChoice, Text: "Pick 3", Score: 10,
				Options: []string{"1", "2", "3"}, CorrectOptionIndices: []int{2}},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Exam)
		fields []string
	}{
		{"valid", func(*Exam) {}, nil},
		{"unknown type accepted", func(e *Exam) { e.Questions[0].Type = "essay" }, nil},
		{"zero score accepted", func(e *Exam) { e.Questions[0].Score = 0 }, nil},
		{"missing id", func(e *Exam) { e.Questions[0].ID = "" }, []string{"questions[0].id"}},
		{"negative score", func(e *Exam) { e.Questions[1].Score = -1 }, []string{"questions[1].score"}},
		{"duplicate id", func(e *Exam) { e.Questions[1].ID = "q1" }, []string{"questions[1].id"}},
		{"no options", func(e *Exam) {
			e.Questions[1].Options = nil
		}, []string{"questions[1].options", "questions[1].correctOptionIndices[0]"}},
		{"no correct index", func(e *Exam) { e.Questions[1].CorrectOptionIndices = nil }, []string{"questions[1].correctOptionIndices"}},
		{"index out of range", func(e *Exam) {
			e.Questions[1].CorrectOptionIndices = []int{-1, 3}
		}, []string{"questions[1].correctOptionIndices[0]", "questions[1].correctOptionIndices[1]"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := sampleExam()
			tc.mutate(&e)
			err := Validate(e)
			if len(tc.fields) == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("want *ValidationError, got %v", err)
			}
			if len(verr.Issues) != len(tc.fields) {
				t.Fatalf("issues = %+v, want fields %v", verr.Issues, tc.fields)
			}
			for i, f := range tc.fields {
				if verr.Issues[i].Field != f {
					t.Errorf("issue %d field = %q, want %q", i, verr.Issues[i].Field, f)
				}
			}
		})
	}
}

func TestValidateQuestion(t *testing.T) {
	q := Question{ID: "q", Type: TypeMultipleChoice, Options: []string{"a", "b"}, CorrectOptionIndices: []int{0, 1}}
	if err := ValidateQuestion(q); err != nil {
		t.Fatal(err)
	}
	q.CorrectOptionIndices = []int{2}
	if err := ValidateQuestion(q); err == nil {
		t.Fatal("expected out-of-range index to fail")
	}
}

func TestExamViews(t *testing.T) {
	e := sampleExam()
	if got := e.ScorePossible(); got != 15 {
		t.Fatalf("ScorePossible = %v", got)
	}
	sv := e.StudentView()
	if sv.Questions[0].ExpectedAnswer != "" || sv.Questions[0].TolerancePercent != nil || sv.Questions[1].CorrectOptionIndices != nil {
		t.Fatalf("answer keys kept: %+v", sv.Questions)
	}
	if e.Questions[0].ExpectedAnswer != "4" || len(e.Questions[1].CorrectOptionIndices) != 1 {
		t.Fatal("StudentView mutated the original")
	}

	for status, want := range map[Status]bool{"": true, StatusActive: true, StatusPaused: false, StatusArchived: false} {
		e.Status = status
		if got := e.AcceptsSubmissions(); got != want {
			t.Errorf("AcceptsSubmissions(%q) = %v", status, got)
		}
	}
}

func TestCheckStatusChange(t *testing.T) {
	tests := []struct {
		current, next Status
		want          error
	}{
		{StatusActive, StatusPaused, nil},
		{StatusPaused, StatusActive, nil},
		{StatusActive, StatusArchived, ErrInvalidStatus},
		{StatusActive, "closed", ErrInvalidStatus},
		{StatusArchived, StatusActive, ErrStatusChange},
	}
	for _, tc := range tests {
		if err := CheckStatusChange(tc.current, tc.next); !errors.Is(err, tc.want) {
			t.Errorf("%s -> %s: got %v, want %v", tc.current, tc.next, err, tc.want)
		}
	}
}
