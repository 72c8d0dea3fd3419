package http

import (
	"net/http"

	authmw "github.com/mind-engage/mindengage-exams/internal/auth/middleware"
	"github.com/mind-engage/mindengage-exams/internal/submission"
)

// GET /attempts/me
// The caller's attempts grouped by exam.
func ListAttemptsHandler(svc *submission.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groups, err := svc.AttemptsByExam(r.Context(), authmw.SubjectFromContext(r.Context()))
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, groups)
	}
}
