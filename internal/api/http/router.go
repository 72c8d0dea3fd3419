package http

import (
	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-exams/internal/exam"
	"github.com/mind-engage/mindengage-exams/internal/rbac"
	"github.com/mind-engage/mindengage-exams/internal/storage"
	"github.com/mind-engage/mindengage-exams/internal/submission"
	syncx "github.com/mind-engage/mindengage-exams/internal/sync"
)

type Deps struct {
	Exams       exam.Store
	Submissions *submission.Service
	Blobs       storage.BlobStore // nil disables /assets
	Events      *syncx.EventRepo  // nil disables /events
}

// Mount registers the exam and submission API on pr. The caller installs
// authentication; every route here expects a subject and role in the
// request context.
func Mount(pr chi.Router, d Deps) {
	pr.With(rbac.Require("exam:create")).Post("/exams", UploadExamHandler(d.Exams))
	pr.With(rbac.Require("exam:list")).Get("/exams", ListExamsHandler(d.Exams))
	pr.With(rbac.Require("exam:view")).Get("/exams/link/{link}", GetExamByLinkHandler(d.Exams))
	pr.With(rbac.Require("exam:view")).Get("/exams/{examID}", GetExamHandler(d.Exams))
	pr.With(rbac.Require("exam:status")).Put("/exams/{examID}/status", SetExamStatusHandler(d.Exams))
	pr.With(rbac.Require("exam:results")).Get("/exams/{examID}/results", ExamResultsHandler(d.Exams, d.Submissions))
	pr.With(rbac.Require("submission:view-all")).
		Get("/exams/{examID}/submissions/{id}", GetExamSubmissionHandler(d.Exams, d.Submissions))

	pr.With(rbac.Require("submission:create")).Post("/exams/{examID}/submissions", SubmitHandler(d.Submissions))
	pr.With(rbac.RequireAny("submission:view-own", "submission:view-all")).Get("/submissions/me", MySubmissionsHandler(d.Submissions))
	pr.With(rbac.RequireAny("submission:view-own", "submission:view-all")).Get("/submissions/{id}", GetSubmissionHandler(d.Exams, d.Submissions))
	pr.With(rbac.RequireAny("submission:view-own", "submission:view-all")).Get("/attempts/me", ListAttemptsHandler(d.Submissions))

	if d.Events != nil {
		pr.With(rbac.Require("events:read")).Get("/events", ListEventsHandler(d.Events))
	}
	if d.Blobs != nil {
		pr.Route("/assets", func(ar chi.Router) {
			MountAssets(ar, d.Blobs, d.Exams)
		})
	}
}
