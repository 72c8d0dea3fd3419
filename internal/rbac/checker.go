package rbac

import (
	"context"
	"strings"
)

// grants is one role's compiled permission list: exact names plus the
// prefixes of wildcard entries such as "submission:*".
type grants struct {
	exact    map[string]bool
	prefixes []string
}

func (g grants) allows(perm string) bool {
	if g.exact[perm] {
		return true
	}
	for _, p := range g.prefixes {
		if strings.HasPrefix(perm, p) {
			return true
		}
	}
	return false
}

// Checker answers permission questions for a fixed role table.
type Checker struct {
	roles map[string]grants
}

// NewChecker compiles rp, or RolePermissions when rp is nil.
func NewChecker(rp map[string][]string) *Checker {
	if rp == nil {
		rp = RolePermissions
	}
	c := &Checker{roles: make(map[string]grants, len(rp))}
	for role, perms := range rp {
		g := grants{exact: map[string]bool{}}
		for _, p := range perms {
			if prefix, ok := strings.CutSuffix(p, "*"); ok {
				g.prefixes = append(g.prefixes, prefix)
			} else {
				g.exact[p] = true
			}
		}
		c.roles[role] = g
	}
	return c
}

func (c *Checker) Has(role, perm string) bool {
	g, ok := c.roles[role]
	return ok && g.allows(perm)
}

func (c *Checker) Any(role string, perms ...string) bool {
	g, ok := c.roles[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if g.allows(p) {
			return true
		}
	}
	return false
}

type ctxKey struct{}

var ctxKeyRole = ctxKey{}

func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, ctxKeyRole, role)
}

func RoleFromContext(ctx context.Context) string {
	if v := ctx.Value(ctxKeyRole); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
