package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) PutExam(ctx context.Context, e Exam) error {
	if err := Validate(e); err != nil {
		return err
	}
	if e.Status == "" {
		e.Status = StatusActive
	}
	if e.Link == "" {
		e.Link = uuid.NewString()
	}
	qj, err := json.Marshal(e.Questions)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO exams (id,title,description,audience,link,status,created_by,questions_json,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, description=EXCLUDED.description, audience=EXCLUDED.audience,
			status=EXCLUDED.status, questions_json=EXCLUDED.questions_json`,
		e.ID, e.Title, e.Description, e.Audience, e.Link, string(e.Status), e.CreatedBy, string(qj), time.Now().Unix())
	return err
}

const examColumns = `id,title,description,audience,link,status,created_by,questions_json,created_at`

func scanExam(row *sql.Row) (Exam, error) {
	var e Exam
	var status, qjson string
	if err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Audience, &e.Link, &status, &e.CreatedBy, &qjson, &e.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Exam{}, ErrNotFound
		}
		return Exam{}, err
	}
	e.Status = Status(status)
	if err := json.Unmarshal([]byte(qjson), &e.Questions); err != nil {
		return Exam{}, err
	}
	return e, nil
}

func (s *SQLStore) GetExamAdmin(ctx context.Context, id string) (Exam, error) {
	return scanExam(s.db.QueryRowContext(ctx, `SELECT `+examColumns+` FROM exams WHERE id=$1`, id))
}

func (s *SQLStore) GetExam(ctx context.Context, id string) (Exam, error) {
	e, err := s.GetExamAdmin(ctx, id)
	if err != nil {
		return Exam{}, err
	}
	// Strip answer keys when serving to students (parity with in-memory behavior)
	return e.StudentView(), nil
}

func (s *SQLStore) GetExamByLink(ctx context.Context, link string) (Exam, error) {
	e, err := scanExam(s.db.QueryRowContext(ctx,
		`SELECT `+examColumns+` FROM exams WHERE link=$1 AND status=$2`, link, string(StatusActive)))
	if err != nil {
		return Exam{}, err
	}
	return e.StudentView(), nil
}

func (s *SQLStore) SetStatus(ctx context.Context, id string, status Status) error {
	var current string
	if err := s.db.QueryRowContext(ctx, `SELECT status FROM exams WHERE id=$1`, id).Scan(&current); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if err := CheckStatusChange(Status(current), status); err != nil {
		return err
	}
	// the status guard in WHERE keeps a concurrent archive from being overwritten
	res, err := s.db.ExecContext(ctx, `UPDATE exams SET status=$1 WHERE id=$2 AND status<>$3`,
		string(status), id, string(StatusArchived))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrStatusChange
	}
	return nil
}

func (s *SQLStore) ListExams(ctx context.Context, opts ListOpts) ([]Summary, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	where := []string{"status<>$1"}
	args := []any{string(StatusArchived)}
	if opts.CreatedBy != "" {
		args = append(args, opts.CreatedBy)
		where = append(where, "created_by=$"+strconv.Itoa(len(args)))
	}
	if q := strings.TrimSpace(opts.Q); q != "" {
		args = append(args, "%"+strings.ToLower(q)+"%")
		where = append(where, "LOWER(title) LIKE $"+strconv.Itoa(len(args)))
	}
	args = append(args, limit, opts.Offset)
	query := `SELECT id,title,status,link,questions_json,created_at FROM exams WHERE ` +
		strings.Join(where, " AND ") +
		` ORDER BY created_at DESC, id ASC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var sm Summary
		var status, qjson string
		if err := rows.Scan(&sm.ID, &sm.Title, &status, &sm.Link, &qjson, &sm.CreatedAt); err != nil {
			return nil, err
		}
		sm.Status = Status(status)
		var qs []json.RawMessage
		if err := json.Unmarshal([]byte(qjson), &qs); err == nil {
			sm.QuestionCount = len(qs)
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}
