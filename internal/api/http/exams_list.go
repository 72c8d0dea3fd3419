package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	authmw "github.com/mind-engage/mindengage-exams/internal/auth/middleware"
	"github.com/mind-engage/mindengage-exams/internal/exam"
	"github.com/mind-engage/mindengage-exams/internal/rbac"
)

// canManage reports whether the caller owns ex or may manage every exam.
func canManage(ctx context.Context, ex exam.Exam) bool {
	if rbac.Can(ctx, "exam:manage-any") {
		return true
	}
	sub := authmw.SubjectFromContext(ctx)
	return sub != "" && ex.CreatedBy == sub
}

// GET /exams?q=&limit=&offset=
// Teachers see their own exams, roles with exam:manage-any see all of them.
func ListExamsHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := exam.ListOpts{
			Q:      strings.TrimSpace(r.URL.Query().Get("q")),
			Limit:  parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset: parseIntDefault(r.URL.Query().Get("offset"), 0),
		}
		if !rbac.Can(r.Context(), "exam:manage-any") {
			opts.CreatedBy = authmw.SubjectFromContext(r.Context())
		}
		list, err := store.ListExams(r.Context(), opts)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, list)
	}
}

// GET /exams/{examID}
// The owner gets the full exam. Everyone else gets the student view, and
// archived exams are hidden from them.
func GetExamHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ex, err := store.GetExamAdmin(r.Context(), chi.URLParam(r, "examID"))
		if err != nil {
			respondErr(w, r, err)
			return
		}
		if canManage(r.Context(), ex) {
			respondJSON(w, http.StatusOK, ex)
			return
		}
		if ex.Status == exam.StatusArchived {
			respondErr(w, r, exam.ErrNotFound)
			return
		}
		respondJSON(w, http.StatusOK, ex.StudentView())
	}
}

// GET /exams/link/{link}
func GetExamByLinkHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ex, err := store.GetExamByLink(r.Context(), chi.URLParam(r, "link"))
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, ex)
	}
}
