package auth

import (
	"net/http"
	"strings"
)

// Permission levels are ordered; a higher level implies the lower ones.
type Permission int

const (
	PermissionNone Permission = iota
	PermissionRead
	PermissionWrite
	PermissionAdmin
)

var rolePermissions = map[string]Permission{
	"viewer": PermissionRead,
	"staff":  PermissionWrite,
	"editor": PermissionWrite,
	"admin":  PermissionAdmin,
}

func PermissionForRole(role string) Permission {
	return rolePermissions[strings.ToLower(strings.TrimSpace(role))]
}

// RequirePermission rejects requests whose role does not reach p. It expects
// Authenticator.Middleware to have run first.
func RequirePermission(p Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := GetUserID(r.Context()); err != nil {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			if PermissionForRole(GetRole(r.Context())) < p {
				writeError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
