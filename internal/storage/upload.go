package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/mind-engage/mindengage-courses/internal/apierr"
)

const DefaultMaxUploadBytes = 10 << 20

// Gateway validates uploads and writes them to a BlobStore under fresh keys.
type Gateway struct {
	store    BlobStore
	maxBytes int64
}

func NewGateway(store BlobStore, maxBytes int64) *Gateway {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &Gateway{store: store, maxBytes: maxBytes}
}

func (g *Gateway) MaxBytes() int64 { return g.maxBytes }

func (g *Gateway) Store() BlobStore { return g.store }

type Upload struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// Upload stores r under prefix/<uuid><ext>. With imagesOnly set anything
// that does not sniff as a raster image is rejected; otherwise documents
// and media from documentTypes are accepted too.
func (g *Gateway) Upload(ctx context.Context, prefix, filename string, r io.Reader, imagesOnly bool) (Upload, error) {
	buf, err := io.ReadAll(io.LimitReader(r, g.maxBytes+1))
	if err != nil {
		return Upload{}, err
	}
	if int64(len(buf)) > g.maxBytes {
		return Upload{}, apierr.New(http.StatusRequestEntityTooLarge,
			fmt.Errorf("file exceeds %d MB", g.maxBytes>>20))
	}
	if len(buf) == 0 {
		return Upload{}, apierr.Invalid("file is empty")
	}

	mt := mimetype.Detect(buf)
	switch {
	case imagesOnly && !isRasterImage(mt):
		return Upload{}, apierr.Invalid("only image uploads are allowed (got %s)", mt.String())
	case !imagesOnly && !isRasterImage(mt) && !isDocument(mt):
		return Upload{}, apierr.Invalid("%s: file type %s is not allowed", filepath.Base(filename), mt.String())
	}
	// The stored extension always comes from the sniffed type, never the
	// client's filename, so the file server cannot be talked into text/html.
	ext := mt.Extension()
	key, err := g.store.Put(ctx, NewKey(prefix, ext), mt.String(), bytes.NewReader(buf))
	if err != nil {
		return Upload{}, err
	}
	return Upload{Key: key, URL: g.store.PublicURL(key), ContentType: mt.String(), Size: int64(len(buf))}, nil
}

// documentTypes are the non-image types general uploads accept. Anything a
// browser would render as active content (HTML, SVG, XML) stays out.
var documentTypes = []string{
	"application/pdf",
	"text/plain",
	"text/csv",
	"application/zip",
	"application/msword",
	"application/vnd.ms-excel",
	"application/vnd.ms-powerpoint",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"application/vnd.oasis.opendocument.text",
	"application/vnd.oasis.opendocument.spreadsheet",
	"application/vnd.oasis.opendocument.presentation",
	"video/mp4",
	"video/webm",
	"audio/mpeg",
	"audio/wav",
	"audio/ogg",
}

func isRasterImage(mt *mimetype.MIME) bool {
	return strings.HasPrefix(mt.String(), "image/") && !mt.Is("image/svg+xml")
}

func isDocument(mt *mimetype.MIME) bool {
	for _, t := range documentTypes {
		if mt.Is(t) {
			return true
		}
	}
	return false
}
