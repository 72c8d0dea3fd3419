package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	authmw "github.com/mind-engage/mindengage-exams/internal/auth/middleware"
	"github.com/mind-engage/mindengage-exams/internal/exam"
	"github.com/mind-engage/mindengage-exams/internal/submission"
)

// POST /exams
// Creates or replaces an exam. Replacing requires ownership of the stored one.
func UploadExamHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var e exam.Exam
		if !decodeBody(w, r, &e) {
			return
		}
		e.ID = strings.TrimSpace(e.ID)
		if e.ID == "" {
			e.ID = uuid.NewString()
		}

		prev, err := store.GetExamAdmin(r.Context(), e.ID)
		switch {
		case err == nil:
			if !canManage(r.Context(), prev) {
				respondError(w, http.StatusForbidden, "exam belongs to another teacher")
				return
			}
			e.CreatedBy = prev.CreatedBy
			e.Link = prev.Link
		case errors.Is(err, exam.ErrNotFound):
			e.CreatedBy = authmw.SubjectFromContext(r.Context())
		default:
			respondErr(w, r, err)
			return
		}

		if err := store.PutExam(r.Context(), e); err != nil {
			respondErr(w, r, err)
			return
		}
		saved, err := store.GetExamAdmin(r.Context(), e.ID)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusCreated, map[string]string{"id": saved.ID, "link": saved.Link, "status": string(saved.Status)})
	}
}

// PUT /exams/{examID}/status  {"status": "active|paused"}
func SetExamStatusHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Status exam.Status `json:"status"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		id := chi.URLParam(r, "examID")
		ex, err := store.GetExamAdmin(r.Context(), id)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		if !canManage(r.Context(), ex) {
			respondError(w, http.StatusForbidden, "forbidden")
			return
		}
		if err := store.SetStatus(r.Context(), id, req.Status); err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": string(req.Status)})
	}
}

// GET /exams/{examID}/results
// Every attempt on the exam grouped by student. Owner only.
func ExamResultsHandler(store exam.Store, svc *submission.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ex, err := store.GetExamAdmin(r.Context(), chi.URLParam(r, "examID"))
		if err != nil {
			respondErr(w, r, err)
			return
		}
		if !canManage(r.Context(), ex) {
			respondError(w, http.StatusForbidden, "forbidden")
			return
		}
		results, err := svc.ResultsByStudent(r.Context(), ex.ID)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{
			"examId":    ex.ID,
			"examTitle": ex.Title,
			"students":  results,
		})
	}
}
