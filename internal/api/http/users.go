package http

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-courses/internal/apierr"
	"github.com/mind-engage/mindengage-courses/internal/httpx"
	"github.com/mind-engage/mindengage-courses/internal/logger"
	"github.com/mind-engage/mindengage-courses/internal/profile"
)

type ProfileStore interface {
	List(ctx context.Context, role string) ([]profile.Profile, error)
	Update(ctx context.Context, id string, patch profile.Patch) (profile.Profile, error)
	ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error
	Import(ctx context.Context, rows []profile.ImportRow) (int, int, error)
}

// GET /api/admin/users?role=
func ListUsersHandler(profiles ProfileStore, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := profiles.List(r.Context(), r.URL.Query().Get("role"))
		if err != nil {
			fail(log, w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, list)
	}
}

// PATCH /api/admin/users/{id}
func UpdateUserHandler(profiles ProfileStore, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in profile.Patch
		if err := httpx.Decode(r, &in); err != nil {
			httpx.WriteError(w, err)
			return
		}
		p, err := profiles.Update(r.Context(), chi.URLParam(r, "id"), in)
		if err != nil {
			fail(log, w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, p)
	}
}

// POST /api/me/password {old_password, new_password}
func ChangePasswordHandler(profiles ProfileStore, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			OldPassword string `json:"old_password" validate:"required"`
			NewPassword string `json:"new_password" validate:"required,min=8"`
		}
		if err := httpx.Decode(r, &in); err != nil {
			httpx.WriteError(w, err)
			return
		}
		if err := profiles.ChangePassword(r.Context(), subject(r), in.OldPassword, in.NewPassword); err != nil {
			fail(log, w, r, err)
			return
		}
		httpx.OK(w)
	}
}

// POST /api/admin/users/import
// Accepts a JSON array body, or a multipart "file" holding CSV or JSON.
func ImportUsersHandler(profiles ProfileStore, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var src io.Reader = r.Body
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			f, _, err := r.FormFile("file")
			if err != nil {
				httpx.WriteError(w, apierr.Invalid("file is required"))
				return
			}
			defer f.Close()
			src = f
		}
		rows, err := parseImport(src)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		ins, upd, err := profiles.Import(r.Context(), rows)
		if err != nil {
			fail(log, w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]int{"inserted": ins, "updated": upd})
	}
}

// parseImport sniffs the first non-space byte: '[' is JSON, anything else CSV.
func parseImport(r io.Reader) ([]profile.ImportRow, error) {
	br := bufio.NewReader(r)
	for {
		b, err := br.Peek(1)
		if err != nil {
			return nil, apierr.Invalid("import is empty")
		}
		if b[0] == ' ' || b[0] == '\t' || b[0] == '\r' || b[0] == '\n' {
			_, _ = br.ReadByte()
			continue
		}
		if b[0] == '[' {
			var rows []profile.ImportRow
			if err := json.NewDecoder(br).Decode(&rows); err != nil {
				return nil, apierr.Invalid("invalid JSON: %v", err)
			}
			return rows, nil
		}
		return parseCSV(br)
	}
}

func parseCSV(r io.Reader) ([]profile.ImportRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	hdr, err := cr.Read()
	if err != nil {
		return nil, apierr.Invalid("invalid CSV: %v", err)
	}
	idx := map[string]int{}
	for i, h := range hdr {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := idx["email"]; !ok {
		return nil, apierr.Invalid("missing column: email")
	}
	col := func(rec []string, name string) string {
		if i, ok := idx[name]; ok && i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}
	var rows []profile.ImportRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apierr.Invalid("invalid CSV: %v", err)
		}
		rows = append(rows, profile.ImportRow{
			Email:     col(rec, "email"),
			FirstName: col(rec, "first_name"),
			LastName:  col(rec, "last_name"),
			Role:      col(rec, "role"),
			Status:    col(rec, "status"),
			Password:  col(rec, "password"),
		})
	}
	return rows, nil
}
