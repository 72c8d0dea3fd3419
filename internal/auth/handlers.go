package auth

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	authmw "github.com/mind-engage/mindengage-exams/internal/auth/middleware"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// POST /auth/register  {"username": "...", "password": "...", "role": "student|teacher"}
func RegisterHandler(users *Users) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
			Role     string `json:"role"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, "bad json")
			return
		}
		if req.Role == "" {
			req.Role = RoleStudent
		}
		usr, err := users.Register(r.Context(), req.Username, req.Password, req.Role)
		switch {
		case err == nil:
			writeJSON(w, http.StatusCreated, usr)
		case errors.Is(err, ErrUserExists):
			writeErr(w, http.StatusConflict, err.Error())
		case errors.Is(err, ErrInvalidRole), errors.Is(err, ErrWeakPassword), errors.Is(err, ErrInvalidCredentials):
			writeErr(w, http.StatusBadRequest, err.Error())
		default:
			log.Printf("register: %v", err)
			writeErr(w, http.StatusInternalServerError, "register failed")
		}
	}
}

// POST /auth/login  {"username": "...", "password": "..."}
func LoginHandler(a *authmw.AuthService, users *Users) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, "bad json")
			return
		}
		usr, err := users.Authenticate(r.Context(), req.Username, req.Password)
		if errors.Is(err, ErrInvalidCredentials) {
			writeErr(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		if err != nil {
			log.Printf("login: %v", err)
			writeErr(w, http.StatusInternalServerError, "login failed")
			return
		}
		tok, err := a.IssueJWT(usr.ID, usr.Role)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, "issue token")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"access_token": tok, "user": usr})
	}
}

// GET /auth/me
func MeHandler(users *Users) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		usr, err := users.Get(r.Context(), authmw.SubjectFromContext(r.Context()))
		if errors.Is(err, authmw.ErrUnknownUser) {
			writeErr(w, http.StatusNotFound, "user not found")
			return
		}
		if err != nil {
			writeErr(w, http.StatusInternalServerError, "load user")
			return
		}
		writeJSON(w, http.StatusOK, usr)
	}
}

// POST /auth/change-password  {"oldPassword": "...", "newPassword": "..."}
func ChangePasswordHandler(users *Users) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			OldPassword string `json:"oldPassword"`
			NewPassword string `json:"newPassword"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, "bad json")
			return
		}
		err := users.ChangePassword(r.Context(), authmw.SubjectFromContext(r.Context()), req.OldPassword, req.NewPassword)
		switch {
		case err == nil:
			w.WriteHeader(http.StatusNoContent)
		case errors.Is(err, ErrWeakPassword):
			writeErr(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrInvalidCredentials):
			writeErr(w, http.StatusForbidden, "incorrect old password")
		case errors.Is(err, authmw.ErrUnknownUser):
			writeErr(w, http.StatusNotFound, "user not found")
		default:
			log.Printf("change password: %v", err)
			writeErr(w, http.StatusInternalServerError, "change password failed")
		}
	}
}
