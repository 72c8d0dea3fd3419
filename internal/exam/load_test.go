package exam

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const yamlExam = `
title: Capitals
questions:
  - id: c1
    type: direct
    text: Capital of France?
    score: 2
    expectedAnswer: Paris
  - id: c2
    type: qcm
    text: Which are in Europe?
    score: 3
    options: [Lisbon, Lima, Oslo]
    correctOptionIndices: [0, 2]
`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoadFileYAML(t *testing.T) {
	p := writeFile(t, t.TempDir(), "capitals.yaml", yamlExam)
	e, err := LoadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if e.ID != "capitals" {
		t.Fatalf("id from filename = %q", e.ID)
	}
	if len(e.Questions) != 2 || e.Questions[1].CorrectOptionIndices[1] != 2 || e.ScorePossible() != 5 {
		t.Fatalf("parsed: %+v", e)
	}
}

func TestLoadFileJSON(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "x.json", `{"id":"math","title":"Math","questions":[
		{"id":"q1","type":"direct","text":"1+1","score":1,"expectedAnswer":"2","tolerancePercent":5}]}`)
	e, err := LoadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	if e.ID != "math" || *e.Questions[0].TolerancePercent != 5 {
		t.Fatalf("parsed: %+v", e)
	}
}

func TestLoadFileErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name, file, body, want string
	}{
		{"unknown json field", "a.json", `{"title":"x","questions":[],"bogus":1}`, "unknown field"},
		{"unknown yaml field", "b.yaml", "title: x\nbogus: 1\n", "bogus"},
		{"two json documents", "c.json", `{"title":"x"} {"title":"y"}`, "multiple documents"},
		{"two yaml documents", "d.yml", "title: x\n---\ntitle: y\n", "multiple documents"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadFile(writeFile(t, dir, tc.file, tc.body))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want %q", err, tc.want)
			}
		})
	}

	p := writeFile(t, dir, "bad.yaml", "title: x\nquestions:\n  - id: q\n    type: qcm\n    score: 1\n")
	var verr *ValidationError
	if _, err := LoadFile(p); !errors.As(err, &verr) {
		t.Fatalf("want validation error, got %v", err)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "capitals.yaml", yamlExam)
	writeFile(t, dir, "math.json", `{"title":"Math","questions":[{"id":"q1","type":"direct","text":"1+1","score":1,"expectedAnswer":"2"}]}`)
	writeFile(t, dir, "README.md", "not an exam")

	store := NewInMemoryStore()
	n, err := LoadDir(context.Background(), store, dir)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("loaded %d", n)
	}
	if _, err := store.GetExamAdmin(context.Background(), "math"); err != nil {
		t.Fatal(err)
	}
}
