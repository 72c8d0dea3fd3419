package http

import (
	"io"
	"mime"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-exams/internal/exam"
	"github.com/mind-engage/mindengage-exams/internal/rbac"
	"github.com/mind-engage/mindengage-exams/internal/storage"
)

const maxAssetBytes = 32 << 20

// MountAssets serves question attachments. Uploads land under
// exams/{examID}/ and need ownership of the exam.
func MountAssets(r chi.Router, bs storage.BlobStore, exams exam.Store) {
	// POST /assets/exams/{examID}  multipart field "file"
	r.With(rbac.Require("exam:create")).Post("/exams/{examID}", func(w http.ResponseWriter, r *http.Request) {
		ex, err := exams.GetExamAdmin(r.Context(), chi.URLParam(r, "examID"))
		if err != nil {
			respondErr(w, r, err)
			return
		}
		if !canManage(r.Context(), ex) {
			respondError(w, http.StatusForbidden, "forbidden")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxAssetBytes)
		f, hdr, err := r.FormFile("file")
		if err != nil {
			respondError(w, http.StatusBadRequest, "file required")
			return
		}
		defer f.Close()

		name := path.Base(strings.ReplaceAll(hdr.Filename, "\\", "/"))
		key, err := bs.Put("exams/"+ex.ID+"/"+name, f)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		respondJSON(w, http.StatusCreated, exam.Attachment{
			Key:      key,
			Filename: name,
			MimeType: hdr.Header.Get("Content-Type"),
		})
	})

	// GET /assets/*  returns the blob at whatever follows /assets/
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "*")
		rc, err := bs.Get(key)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		defer rc.Close()
		ct := mime.TypeByExtension(path.Ext(key))
		if ct == "" {
			ct = "application/octet-stream"
		}
		w.Header().Set("Content-Type", ct)
		_, _ = io.Copy(w, rc)
	})
}
