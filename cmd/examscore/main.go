// Command examscore scores an answers file against an exam definition
// without a server or database.
//
//	examscore -exam capitals.yaml -answers answers.json [-tolerance]
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/mind-engage/mindengage-exams/internal/exam"
	"github.com/mind-engage/mindengage-exams/internal/grading"
)

func main() {
	log.SetFlags(0)
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("examscore: %v", err)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("examscore", flag.ContinueOnError)
	examPath := fs.String("exam", "", "exam definition (.yaml, .yml or .json)")
	answersPath := fs.String("answers", "", "answers JSON: an array of {questionId, answer} or an object with an answers field")
	tolerance := fs.Bool("tolerance", false, "accept numeric direct answers within the question's tolerancePercent")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *examPath == "" || *answersPath == "" {
		return errors.New("-exam and -answers are required")
	}

	ex, err := exam.LoadFile(*examPath)
	if err != nil {
		return err
	}
	answers, err := readAnswers(*answersPath)
	if err != nil {
		return err
	}

	res := grading.NewEngine(grading.WithTolerance(*tolerance)).Score(ex, answers)
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		ExamID    string `json:"examId"`
		ExamTitle string `json:"examTitle"`
		grading.Result
	}{ex.ID, ex.Title, res})
}

func readAnswers(path string) ([]grading.Answer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read answers: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var list []grading.Answer
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("parse answers: %w", err)
		}
		return list, nil
	}
	var wrapped struct {
		Answers []grading.Answer `json:"answers"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("parse answers: %w", err)
	}
	return wrapped.Answers, nil
}
