package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	authmw "github.com/mind-engage/mindengage-exams/internal/auth/middleware"
	"github.com/mind-engage/mindengage-exams/internal/exam"
	"github.com/mind-engage/mindengage-exams/internal/rbac"
	"github.com/mind-engage/mindengage-exams/internal/submission"
)

// POST /exams/{examID}/submissions
// The student is always the token subject; ids in the body are ignored.
func SubmitHandler(svc *submission.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submission.Request
		if !decodeBody(w, r, &req) {
			return
		}
		req.ExamID = chi.URLParam(r, "examID")
		req.StudentID = authmw.SubjectFromContext(r.Context())

		_, summary, err := svc.Submit(r.Context(), req)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusCreated, summary)
	}
}

// GET /submissions/me?limit=&offset=
func MySubmissionsHandler(svc *submission.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.History(r.Context(),
			authmw.SubjectFromContext(r.Context()),
			parseIntDefault(r.URL.Query().Get("limit"), 0),
			parseIntDefault(r.URL.Query().Get("offset"), 0))
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, list)
	}
}

// GET /submissions/{id}
// Students see their own submissions. Anyone else must manage the exam the
// submission belongs to; otherwise it answers 404 rather than leak existence.
func GetSubmissionHandler(store exam.Store, svc *submission.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, err := svc.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondErr(w, r, err)
			return
		}
		if sub.StudentID != authmw.SubjectFromContext(r.Context()) {
			ex, err := store.GetExamAdmin(r.Context(), sub.ExamID)
			if err != nil && !errors.Is(err, exam.ErrNotFound) {
				respondErr(w, r, err)
				return
			}
			if err != nil || !rbac.Can(r.Context(), "submission:view-all") || !canManage(r.Context(), ex) {
				respondErr(w, r, submission.ErrNotFound)
				return
			}
		}
		respondJSON(w, http.StatusOK, sub)
	}
}

// GET /exams/{examID}/submissions/{id}
// Review of one attempt by the exam's owner.
func GetExamSubmissionHandler(store exam.Store, svc *submission.Service) http.HandlerFunc {
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
		sub, err := svc.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondErr(w, r, err)
			return
		}
		if sub.ExamID != ex.ID {
			respondError(w, http.StatusBadRequest, "submission does not belong to this exam")
			return
		}
		respondJSON(w, http.StatusOK, sub)
	}
}
