package exam

import (
	"fmt"
	"strings"
)

// Issue is one structural problem found in an exam definition.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports every issue found while validating questions.
type ValidationError struct {
	Issues []Issue
}

func (err *ValidationError) Error() string {
	if err == nil || len(err.Issues) == 0 {
		return ""
	}
	parts := make([]string, 0, len(err.Issues))
	for _, issue := range err.Issues {
		parts = append(parts, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
	}
	return "exam validation failed: " + strings.Join(parts, "; ")
}

type issueCollector struct {
	issues []Issue
}

func (c *issueCollector) add(field, message string) {
	c.issues = append(c.issues, Issue{Field: field, Message: message})
}

func (c *issueCollector) result() error {
	if len(c.issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: c.issues}
}

// ValidateQuestion checks a single question's grading contract.
func ValidateQuestion(q Question) error {
	c := &issueCollector{}
	validateQuestion(c, "question", q)
	return c.result()
}

// Validate checks every question of the exam and the uniqueness of their ids.
// Unknown question types are accepted; they simply never score.
func Validate(e Exam) error {
	c := &issueCollector{}
	seen := make(map[string]struct{}, len(e.Questions))
	for i, q := range e.Questions {
		prefix := fmt.Sprintf("questions[%d]", i)
		if _, dup := seen[q.ID]; dup && q.ID != "" {
			c.add(prefix+".id", fmt.Sprintf("duplicate id %q", q.ID))
		}
		seen[q.ID] = struct{}{}
		validateQuestion(c, prefix, q)
	}
	return c.result()
}

func validateQuestion(c *issueCollector, prefix string, q Question) {
	if strings.TrimSpace(q.ID) == "" {
		c.add(prefix+".id", "is required")
	}
	if q.Score < 0 {
		c.add(prefix+".score", "must not be negative")
	}
	if q.DurationSeconds < 0 {
		c.add(prefix+".durationSeconds", "must not be negative")
	}
	if q.Type != TypeMultipleChoice {
		return
	}
	if len(q.Options) == 0 {
		c.add(prefix+".options", "multiple-choice questions need at least one option")
	}
	if len(q.CorrectOptionIndices) == 0 {
		c.add(prefix+".correctOptionIndices", "must include at least one index")
	}
	for i, idx := range q.CorrectOptionIndices {
		if idx < 0 || idx >= len(q.Options) {
			c.add(fmt.Sprintf("%s.correctOptionIndices[%d]", prefix, i),
				fmt.Sprintf("index %d outside [0,%d)", idx, len(q.Options)))
		}
	}
}
