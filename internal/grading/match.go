package grading

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/mind-engage/mindengage-exams/internal/exam"
)

// Value is a submitted answer resolved against the question type it answers.
type Value struct {
	Type    exam.QuestionType
	Text    string // direct
	HasText bool   // false when the direct answer was not a JSON string
	Indices []int  // qcm, deduplicated and sorted
}

// Resolve decodes raw once for the given question type. It never fails:
// a direct answer that is not a string has no text, and a qcm answer that is
// not an array of whole numbers resolves to the empty set.
func Resolve(t exam.QuestionType, raw json.RawMessage) Value {
	v := Value{Type: t}
	if isAbsent(raw) {
		return v
	}
	switch t {
	case exam.TypeDirect:
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			v.Text, v.HasText = s, true
		}
	case exam.TypeMultipleChoice:
		v.Indices = resolveIndices(raw)
	}
	return v
}

func resolveIndices(raw json.RawMessage) []int {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return []int{}
	}
	out := make([]int, 0, len(elems))
	for _, el := range elems {
		var f float64
		if err := json.Unmarshal(el, &f); err != nil {
			return []int{}
		}
		if f != math.Trunc(f) || math.IsInf(f, 0) {
			return []int{}
		}
		out = append(out, int(f))
	}
	return dedupeSorted(out)
}

// NormalizeAnswerText trims surrounding whitespace and lowercases.
func NormalizeAnswerText(s string) string {
	return strings.Map(unicode.ToLower, strings.TrimSpace(s))
}

func isAbsent(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

func dedupeSorted(in []int) []int {
	seen := make(map[int]struct{}, len(in))
	out := make([]int, 0, len(in))
	for _, i := range in {
		if _, ok := seen[i]; ok {
			continue
		}
		seen[i] = struct{}{}
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

func sameIndexSet(a, b []int) bool {
	a, b = dedupeSorted(a), dedupeSorted(b)
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
