package rbac

import (
	"net/http"

	"github.com/mind-engage/mindengage-courses/internal/apierr"
	"github.com/mind-engage/mindengage-courses/internal/httpx"
)

var defaultChecker = NewChecker(nil)

// Require enforces a single permission.
func Require(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			if role == "" || !defaultChecker.Has(role, perm) {
				httpx.WriteError(w, apierr.Forbidden())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAny enforces that the role has at least one of the permissions.
func RequireAny(perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			if role == "" || !defaultChecker.Any(role, perms...) {
				httpx.WriteError(w, apierr.Forbidden())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin passes admin and super admin only.
func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsAdmin(RoleFromContext(r.Context())) {
				httpx.WriteError(w, apierr.Forbidden())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireOwnerOr passes when isOwner reports true or the role holds perm.
// isOwner errors other than "not mine" are surfaced as-is.
func RequireOwnerOr(perm string, isOwner func(r *http.Request) (bool, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			if defaultChecker.Has(role, perm) {
				next.ServeHTTP(w, r)
				return
			}
			ok, err := isOwner(r)
			if err != nil {
				httpx.WriteError(w, err)
				return
			}
			if !ok {
				httpx.WriteError(w, apierr.Forbidden())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
