package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mind-engage/mindengage-exams/internal/rbac"
)

type roles map[string]string

func (r roles) RoleOf(_ context.Context, sub string) (string, error) {
	if role, ok := r[sub]; ok {
		return role, nil
	}
	return "", ErrUnknownUser
}

func echoIdentity() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Sub", SubjectFromContext(r.Context()))
		w.Header().Set("X-Role", rbac.RoleFromContext(r.Context()))
	})
}

func TestJWTMiddleware(t *testing.T) {
	a := NewAuthService("test-secret")
	tok, err := a.IssueJWT("u1", "student")
	if err != nil {
		t.Fatal(err)
	}
	h := JWTMiddleware(a)(echoIdentity())

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer " + tok, http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"garbage", "Bearer abc.def.ghi", http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			if tc.status == http.StatusOK && (rec.Header().Get("X-Sub") != "u1" || rec.Header().Get("X-Role") != "student") {
				t.Fatalf("identity not attached: %v", rec.Header())
			}
		})
	}

	other := NewAuthService("other-secret")
	forged, _ := other.IssueJWT("u1", "admin")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("token signed with another key accepted")
	}
}

func TestAttachRole(t *testing.T) {
	a := NewAuthService("test-secret")
	lookup := roles{"demoted": "student"}

	call := func(sub, claim string, fallback bool) *httptest.ResponseRecorder {
		tok, _ := a.IssueJWT(sub, claim)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		rec := httptest.NewRecorder()
		JWTMiddleware(a)(AttachRole(lookup, fallback)(echoIdentity())).ServeHTTP(rec, req)
		return rec
	}

	if rec := call("demoted", "teacher", false); rec.Header().Get("X-Role") != "student" {
		t.Fatalf("stored role should win, got %q", rec.Header().Get("X-Role"))
	}
	if rec := call("admin", "admin", false); rec.Code != http.StatusOK || rec.Header().Get("X-Role") != "admin" {
		t.Fatalf("admin claim should pass: %d", rec.Code)
	}
	if rec := call("stranger", "teacher", false); rec.Code != http.StatusForbidden {
		t.Fatalf("unknown subject without fallback: %d", rec.Code)
	}
	if rec := call("stranger", "teacher", true); rec.Code != http.StatusOK || rec.Header().Get("X-Role") != "teacher" {
		t.Fatalf("unknown subject with fallback: %d", rec.Code)
	}
}
