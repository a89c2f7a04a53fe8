package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/mind-engage/mindengage-courses/internal/apierr"
)

type ErrorBody struct {
	Error string `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError renders err as {error: string} with the status carried by an
// *apierr.Error, or 500 with the message passed through verbatim.
func WriteError(w http.ResponseWriter, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	WriteJSON(w, apierr.StatusOf(err), ErrorBody{Error: msg})
}

func OK(w http.ResponseWriter) {
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
