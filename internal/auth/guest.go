package auth

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	authmw "github.com/mind-engage/mindengage-exams/internal/auth/middleware"
)

const guestCookie = "me_guest_id"

// GuestLoginHandler lets a student open an exam link without registering.
// The guest identity is kept in a cookie so later attempts from the same
// browser are numbered against the same student.
func GuestLoginHandler(a *authmw.AuthService, users *Users, enabled bool) http.HandlerFunc {
	type out struct {
		AccessToken string `json:"access_token"`
		Username    string `json:"username"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if !enabled {
			http.Error(w, "guest auth disabled", http.StatusForbidden)
			return
		}

		var usr User
		if c, err := r.Cookie(guestCookie); err == nil && strings.HasPrefix(c.Value, "guest|") {
			if u, err := users.Get(r.Context(), c.Value); err == nil && u.Role == RoleStudent {
				usr = u
			}
		}
		if usr.ID == "" {
			u, err := users.CreateGuest(r.Context())
			if err != nil {
				log.Printf("guest login: %v", err)
				http.Error(w, "create guest", http.StatusInternalServerError)
				return
			}
			usr = u
		}

		tok, err := a.IssueJWT(usr.ID, usr.Role)
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     guestCookie,
			Value:    usr.ID,
			Path:     "/",
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
			Expires:  time.Now().Add(30 * 24 * time.Hour),
		})
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out{AccessToken: tok, Username: usr.Username})
	}
}
