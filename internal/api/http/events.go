package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/mind-engage/mindengage-courses/internal/httpx"
	"github.com/mind-engage/mindengage-courses/internal/logger"
	syncx "github.com/mind-engage/mindengage-courses/internal/sync"
)

type EventReader interface {
	Since(ctx context.Context, seq int64, limit int) ([]syncx.Event, error)
}

// GET /api/admin/events?since=<seq>&limit=
func EventsHandler(events EventReader, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		since, _ := strconv.ParseInt(r.URL.Query().Get("since"), 10, 64)
		list, err := events.Since(r.Context(), since, parseIntDefault(r.URL.Query().Get("limit"), 100))
		if err != nil {
			fail(log, w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, list)
	}
}
