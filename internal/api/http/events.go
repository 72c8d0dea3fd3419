package http

import (
	"net/http"
	"strconv"

	syncx "github.com/mind-engage/mindengage-exams/internal/sync"
)

type eventView struct {
	Seq       int64  `json:"seq"`
	SiteID    string `json:"siteId"`
	Type      string `json:"type"`
	Key       string `json:"key"`
	Data      string `json:"data"`
	CreatedAt int64  `json:"createdAt"`
}

// GET /events?after=&limit=
// Pages through the submission event log for downstream sync.
func ListEventsHandler(repo *syncx.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		after, err := strconv.ParseInt(r.URL.Query().Get("after"), 10, 64)
		if err != nil {
			after = 0
		}
		events, err := repo.Since(r.Context(), after, parseIntDefault(r.URL.Query().Get("limit"), 100))
		if err != nil {
			respondErr(w, r, err)
			return
		}
		out := make([]eventView, 0, len(events))
		for _, e := range events {
			out = append(out, eventView{Seq: e.Seq, SiteID: e.SiteID, Type: e.Type, Key: e.Key, Data: e.DataJSON, CreatedAt: e.CreatedAt})
		}
		respondJSON(w, http.StatusOK, out)
	}
}
