package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

const examYAML = `
id: physics
title: Physics
questions:
  - id: g
    type: direct
    text: Standard gravity in m/s2?
    score: 4
    expectedAnswer: "9.81"
    tolerancePercent: 1
  - id: units
    type: qcm
    text: SI base units
    score: 6
    options: [metre, litre, kelvin]
    correctOptionIndices: [0, 2]
`

func write(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestRun(t *testing.T) {
	examPath := write(t, "physics.yaml", examYAML)
	answers := write(t, "answers.json", `{"answers":[
		{"questionId":"g","answer":"9.8"},
		{"questionId":"units","answer":[2,0]},
		{"questionId":"extra","answer":"x"}]}`)

	type output struct {
		ExamID     string   `json:"examId"`
		TotalScore float64  `json:"totalScore"`
		Percentage int      `json:"percentage"`
		Ignored    []string `json:"ignored"`
	}

	tests := []struct {
		name  string
		args  []string
		score float64
		pct   int
	}{
		{"exact matching", []string{"-exam", examPath, "-answers", answers}, 6, 60},
		{"with tolerance", []string{"-exam", examPath, "-answers", answers, "-tolerance"}, 10, 100},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := run(tc.args, &buf); err != nil {
				t.Fatal(err)
			}
			var got output
			if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
				t.Fatalf("%v: %s", err, buf.String())
			}
			if got.ExamID != "physics" || got.TotalScore != tc.score || got.Percentage != tc.pct {
				t.Fatalf("got %+v", got)
			}
			if len(got.Ignored) != 1 || got.Ignored[0] != "extra" {
				t.Fatalf("ignored = %v", got.Ignored)
			}
		})
	}
}

func TestRunArrayAnswersAndErrors(t *testing.T) {
	examPath := write(t, "physics.yaml", examYAML)
	answers := write(t, "answers.json", `[{"questionId":"g","answer":"9.81"}]`)

	var buf bytes.Buffer
	if err := run([]string{"-exam", examPath, "-answers", answers}, &buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"percentage": 40`)) {
		t.Fatalf("output: %s", buf.String())
	}

	if err := run([]string{"-exam", examPath}, &buf); err == nil {
		t.Fatal("missing -answers accepted")
	}
	if err := run([]string{"-exam", examPath, "-answers", write(t, "bad.json", "{")}, &buf); err == nil {
		t.Fatal("bad answers accepted")
	}
}
