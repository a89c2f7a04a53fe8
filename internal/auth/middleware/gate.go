package auth

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/mind-engage/mindengage-courses/internal/apierr"
	"github.com/mind-engage/mindengage-courses/internal/httpx"
)

// DefaultPublicPaths are reachable without a session. Entries ending in "/"
// match as prefixes.
var DefaultPublicPaths = []string{"/login", "/auth/", "/healthz", "/readyz", "/files/"}

// Gate lets public paths through and turns everything else away when no
// session cookie is present: API calls get 401, pages a redirect to login.
// It does not validate the token; SessionMiddleware does.
func Gate(public []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublic(r.URL.Path, public) || HasSessionCookie(r) {
				next.ServeHTTP(w, r)
				return
			}
			if strings.HasPrefix(r.URL.Path, "/api/") {
				httpx.WriteError(w, apierr.Unauthenticated())
				return
			}
			http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
		})
	}
}

func isPublic(path string, public []string) bool {
	for _, p := range public {
		if strings.HasSuffix(p, "/") {
			if strings.HasPrefix(path, p) || path == strings.TrimSuffix(p, "/") {
				return true
			}
			continue
		}
		if path == p {
			return true
		}
	}
	return false
}
