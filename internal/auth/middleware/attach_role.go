package auth

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/mind-engage/mindengage-exams/internal/rbac"
)

// ErrUnknownUser is returned by a RoleLookup that has no record of the subject.
var ErrUnknownUser = errors.New("unknown user")

// RoleLookup resolves the current role of a token subject.
type RoleLookup interface {
	RoleOf(ctx context.Context, subject string) (string, error)
}

// AttachRole replaces the role claimed by the token with the stored one so a
// demoted user loses access before the token expires. Subjects unknown to the
// lookup keep their claim when allowClaimFallback is set (dev/offline), and
// the admin claim is always kept since the admin lives in config.
func AttachRole(users RoleLookup, allowClaimFallback bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			claimRole := rbac.RoleFromContext(ctx)

			role, err := users.RoleOf(ctx, SubjectFromContext(ctx))
			switch {
			case err == nil && role != "":
				next.ServeHTTP(w, r.WithContext(rbac.WithRole(ctx, role)))
			case errors.Is(err, ErrUnknownUser) && (claimRole == "admin" || allowClaimFallback && claimRole != ""):
				next.ServeHTTP(w, r)
			case err != nil && !errors.Is(err, ErrUnknownUser) && allowClaimFallback && claimRole != "":
				log.Printf("auth: role lookup: %v", err)
				next.ServeHTTP(w, r)
			default:
				http.Error(w, "forbidden", http.StatusForbidden)
			}
		})
	}
}
