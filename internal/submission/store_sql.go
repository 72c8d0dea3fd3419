package submission

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mind-engage/mindengage-exams/internal/db"
	syncx "github.com/mind-engage/mindengage-exams/internal/sync"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(d *sql.DB) *SQLStore {
	return &SQLStore{db: d}
}

// nextAttemptSQL bumps the pair's counter, seeding it from the submissions
// already on record the first time the pair is seen.
const nextAttemptSQL = `INSERT INTO attempt_counters (student_id, exam_id, last_attempt)
	VALUES ($1, $2, (SELECT COUNT(*) FROM submissions WHERE student_id=$1 AND exam_id=$2) + 1)
	ON CONFLICT (student_id, exam_id) DO UPDATE SET last_attempt = attempt_counters.last_attempt + 1
	RETURNING last_attempt`

func (s *SQLStore) Create(ctx context.Context, studentID, examID string, build BuildFunc) (Submission, error) {
	var out Submission
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx, nextAttemptSQL, studentID, examID).Scan(&n); err != nil {
			return fmt.Errorf("next attempt: %w", err)
		}
		sub, err := build(n)
		if err != nil {
			return err
		}
		if err := insertTx(ctx, tx, sub); err != nil {
			return err
		}
		out = sub
		return nil
	})
	if err != nil {
		return Submission{}, err
	}
	return out, nil
}

func (s *SQLStore) Insert(ctx context.Context, sub Submission) error {
	return db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return insertTx(ctx, tx, sub)
	})
}

func insertTx(ctx context.Context, tx *sql.Tx, sub Submission) error {
	aj, err := json.Marshal(sub.Answers)
	if err != nil {
		return err
	}
	lj, err := json.Marshal(sub.Location)
	if err != nil {
		return err
	}
	var start sql.NullInt64
	if sub.StartTime != nil {
		start = sql.NullInt64{Int64: sub.StartTime.UnixMilli(), Valid: true}
	}
	var spent sql.NullFloat64
	if sub.TimeSpentSeconds != nil {
		spent = sql.NullFloat64{Float64: *sub.TimeSpentSeconds, Valid: true}
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO submissions (id, exam_id, student_id, attempt_number,
		total_score, total_score_possible, percentage, total_questions, correct_answers_count,
		answers_json, location_json, start_time, time_spent_seconds, submitted_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		sub.ID, sub.ExamID, sub.StudentID, sub.AttemptNumber,
		sub.TotalScore, sub.TotalScorePossible, sub.Percentage, sub.TotalQuestions, sub.CorrectAnswersCount,
		string(aj), string(lj), start, spent, sub.SubmittedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}

	ev, err := syncx.NewEvent(syncx.TypeSubmissionRecorded, sub.ID, map[string]any{
		"submissionId":  sub.ID,
		"examId":        sub.ExamID,
		"studentId":     sub.StudentID,
		"attemptNumber": sub.AttemptNumber,
		"percentage":    sub.Percentage,
	})
	if err != nil {
		return err
	}
	return syncx.Append(ctx, tx, ev)
}

func (s *SQLStore) CountSubmissions(ctx context.Context, studentID, examID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM submissions WHERE student_id=$1 AND exam_id=$2`, studentID, examID).Scan(&n)
	return n, err
}

const submissionColumns = `id, exam_id, student_id, attempt_number, total_score, total_score_possible,
	percentage, total_questions, correct_answers_count, answers_json, location_json,
	start_time, time_spent_seconds, submitted_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(r rowScanner) (Submission, error) {
	var (
		sub          Submission
		aj, lj       string
		start        sql.NullInt64
		spent        sql.NullFloat64
		submittedAtM int64
	)
	if err := r.Scan(&sub.ID, &sub.ExamID, &sub.StudentID, &sub.AttemptNumber, &sub.TotalScore, &sub.TotalScorePossible,
		&sub.Percentage, &sub.TotalQuestions, &sub.CorrectAnswersCount, &aj, &lj,
		&start, &spent, &submittedAtM); err != nil {
		return Submission{}, err
	}
	if err := json.Unmarshal([]byte(aj), &sub.Answers); err != nil {
		return Submission{}, fmt.Errorf("decode answers: %w", err)
	}
	if err := json.Unmarshal([]byte(lj), &sub.Location); err != nil {
		return Submission{}, fmt.Errorf("decode location: %w", err)
	}
	if start.Valid {
		t := time.UnixMilli(start.Int64).UTC()
		sub.StartTime = &t
	}
	if spent.Valid {
		v := spent.Float64
		sub.TimeSpentSeconds = &v
	}
	sub.SubmittedAt = time.UnixMilli(submittedAtM).UTC()
	return sub, nil
}

func (s *SQLStore) Get(ctx context.Context, id string) (Submission, error) {
	sub, err := scanSubmission(s.db.QueryRowContext(ctx,
		`SELECT `+submissionColumns+` FROM submissions WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Submission{}, ErrNotFound
	}
	return sub, err
}

func (s *SQLStore) List(ctx context.Context, opts ListOpts) ([]Submission, error) {
	var (
		where []string
		args  []any
	)
	if opts.StudentID != "" {
		args = append(args, opts.StudentID)
		where = append(where, "student_id=$"+strconv.Itoa(len(args)))
	}
	if opts.ExamID != "" {
		args = append(args, opts.ExamID)
		where = append(where, "exam_id=$"+strconv.Itoa(len(args)))
	}
	query := `SELECT ` + submissionColumns + ` FROM submissions`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY submitted_at DESC, attempt_number DESC, id ASC`
	skip := opts.Offset
	if opts.Limit > 0 {
		args = append(args, opts.Limit, opts.Offset)
		query += ` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
		skip = 0
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Submission{}
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		// sqlite has no OFFSET without LIMIT
		if skip > 0 {
			skip--
			continue
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}
