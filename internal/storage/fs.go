package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/mind-engage/mindengage-courses/internal/apierr"
)

// FSStore keeps blobs on local disk and serves them under publicBase.
type FSStore struct {
	base       string
	publicBase string
}

func NewFSStore(base, publicBase string) (*FSStore, error) {
	if base == "" {
		base = "./data"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, err
	}
	return &FSStore{base: base, publicBase: strings.TrimRight(publicBase, "/")}, nil
}

func (s *FSStore) path(key string) string {
	return filepath.Join(s.base, filepath.FromSlash(key))
}

func (s *FSStore) Put(ctx context.Context, key, _ string, r io.Reader) (string, error) {
	key = cleanKey(key)
	if key == "" {
		return "", errors.New("empty key")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dst := s.path(key)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(dst)
		return "", err
	}
	return key, f.Close()
}

func (s *FSStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(s.path(cleanKey(key)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, apierr.NotFound("file")
	}
	return f, err
}

func (s *FSStore) PublicURL(key string) string {
	return s.publicBase + "/" + cleanKey(key)
}

func (s *FSStore) KeyFromURL(u string) (string, bool) {
	rest, ok := strings.CutPrefix(u, s.publicBase+"/")
	if !ok || rest == "" {
		return "", false
	}
	return cleanKey(rest), true
}

// Handler serves stored files; mount it under the public path prefix.
// Responses are never sniffed and never run script in our origin.
func (s *FSStore) Handler() http.Handler {
	files := http.FileServer(http.Dir(s.base))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Content-Security-Policy", "sandbox; default-src 'none'; img-src 'self'; media-src 'self'; style-src 'unsafe-inline'")
		files.ServeHTTP(w, r)
	})
}
