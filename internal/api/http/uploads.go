package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/mind-engage/mindengage-courses/internal/apierr"
	"github.com/mind-engage/mindengage-courses/internal/httpx"
	"github.com/mind-engage/mindengage-courses/internal/logger"
	"github.com/mind-engage/mindengage-courses/internal/storage"
)

type Uploader interface {
	Upload(ctx context.Context, prefix, filename string, r io.Reader, imagesOnly bool) (storage.Upload, error)
	MaxBytes() int64
}

// multipart overhead on top of the file itself
const formSlack = 1 << 20

// UploadHandler accepts a multipart "file" field and stores it under prefix.
// POST /api/upload (any file) and /api/admin/courses/upload-image (images).
func UploadHandler(up Uploader, prefix string, imagesOnly bool, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, up.MaxBytes()+formSlack)
		if err := r.ParseMultipartForm(up.MaxBytes()); err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				httpx.WriteError(w, apierr.New(http.StatusRequestEntityTooLarge,
					fmt.Errorf("file exceeds %d MB", up.MaxBytes()>>20)))
				return
			}
			httpx.WriteError(w, apierr.Invalid("invalid multipart form: %v", err))
			return
		}
		defer func() {
			if r.MultipartForm != nil {
				_ = r.MultipartForm.RemoveAll()
			}
		}()
		f, hdr, err := r.FormFile("file")
		if err != nil {
			httpx.WriteError(w, apierr.Invalid("file is required"))
			return
		}
		defer f.Close()

		u, err := up.Upload(r.Context(), prefix, hdr.Filename, f, imagesOnly)
		if err != nil {
			fail(log, w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, map[string]string{"url": u.URL})
	}
}
