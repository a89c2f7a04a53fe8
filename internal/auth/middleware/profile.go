package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/mind-engage/mindengage-courses/internal/apierr"
	"github.com/mind-engage/mindengage-courses/internal/httpx"
	"github.com/mind-engage/mindengage-courses/internal/profile"
	"github.com/mind-engage/mindengage-courses/internal/rbac"
)

type ProfileGetter interface {
	Get(ctx context.Context, id string) (profile.Profile, error)
}

type ctxProfileKey struct{}

func ProfileFromContext(ctx context.Context) (profile.Profile, bool) {
	p, ok := ctx.Value(ctxProfileKey{}).(profile.Profile)
	return p, ok
}

// AttachProfile loads the caller's profile and stores its normalized role.
// A missing or suspended profile is answered with 403.
func AttachProfile(profiles ProfileGetter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sub := SubjectFromContext(ctx)
			if sub == "" {
				httpx.WriteError(w, apierr.Unauthenticated())
				return
			}
			p, err := profiles.Get(ctx, sub)
			switch {
			case errors.Is(err, apierr.ErrNotFound):
				httpx.WriteError(w, apierr.Forbidden())
				return
			case err != nil:
				httpx.WriteError(w, err)
				return
			}
			if rbac.NormalizeStatus(p.Status) == rbac.StatusSuspended {
				httpx.WriteError(w, apierr.Forbidden())
				return
			}
			ctx = context.WithValue(ctx, ctxProfileKey{}, p)
			next.ServeHTTP(w, r.WithContext(rbac.WithRole(ctx, p.Role)))
		})
	}
}
