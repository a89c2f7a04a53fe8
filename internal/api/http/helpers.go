package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/mind-engage/mindengage-courses/internal/apierr"
	authmw "github.com/mind-engage/mindengage-courses/internal/auth/middleware"
	"github.com/mind-engage/mindengage-courses/internal/httpx"
	"github.com/mind-engage/mindengage-courses/internal/logger"
	"github.com/mind-engage/mindengage-courses/internal/rbac"
)

func subject(r *http.Request) string {
	return authmw.SubjectFromContext(r.Context())
}

func isAdmin(r *http.Request) bool {
	return rbac.IsAdmin(rbac.RoleFromContext(r.Context()))
}

func parseIntDefault(s string, def int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return v
	}
	return def
}

// fail writes err and logs it when it is a server-side failure.
func fail(log *logger.Logger, w http.ResponseWriter, r *http.Request, err error) {
	if apierr.StatusOf(err) >= http.StatusInternalServerError && log != nil {
		log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	httpx.WriteError(w, err)
}

type idBody struct {
	ID string `json:"id"`
}
