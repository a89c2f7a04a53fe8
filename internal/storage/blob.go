package storage

import (
	"context"
	"io"
	"strings"

	"github.com/google/uuid"
)

// BlobStore is an object store addressed by slash-separated keys.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, r io.Reader) (string, error) // returns canonical key
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	PublicURL(key string) string
	// KeyFromURL reverses PublicURL for URLs this store handed out.
	KeyFromURL(u string) (string, bool)
}

// NewKey builds "<prefix>/<uuid><ext>".
func NewKey(prefix, ext string) string {
	prefix = strings.Trim(prefix, "/")
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	name := uuid.NewString() + strings.ToLower(ext)
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

func cleanKey(key string) string {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	parts := strings.Split(key, "/")
	out := parts[:0]
	for _, p := range parts {
		if p == "" || p == "." || p == ".." {
			continue
		}
		out = append(out, p)
	}
	return strings.Join(out, "/")
}
