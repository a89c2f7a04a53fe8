package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/mind-engage/mindengage-courses/internal/apierr"
)

type GCSConfig struct {
	Bucket          string
	CDNDomain       string
	CredentialsFile string
	EmulatorHost    string
}

// GCSStore keeps blobs in a Google Cloud Storage bucket.
type GCSStore struct {
	client    *storage.Client
	bucket    string
	cdnDomain string
}

func NewGCSStore(ctx context.Context, cfg GCSConfig) (*GCSStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("gcs: bucket is required")
	}
	opts := []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}
	switch {
	case cfg.EmulatorHost != "":
		// the client picks the host up from STORAGE_EMULATOR_HOST
		opts = append(opts, option.WithoutAuthentication())
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs: new client: %w", err)
	}
	return &GCSStore{client: client, bucket: cfg.Bucket, cdnDomain: cfg.CDNDomain}, nil
}

func (s *GCSStore) Close() error { return s.client.Close() }

func (s *GCSStore) Put(ctx context.Context, key, contentType string, r io.Reader) (string, error) {
	key = cleanKey(key)
	if key == "" {
		return "", errors.New("empty key")
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("gcs: write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("gcs: close %s: %w", key, err)
	}
	return key, nil
}

// readCloserWithCancel releases the read context only once the caller is
// done with the body.
type readCloserWithCancel struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *readCloserWithCancel) Close() error {
	err := r.ReadCloser.Close()
	r.cancel()
	return err
}

func (s *GCSStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	ctx2, cancel := context.WithTimeout(ctx, 2*time.Minute)
	r, err := s.client.Bucket(s.bucket).Object(cleanKey(key)).NewReader(ctx2)
	if err != nil {
		cancel()
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, apierr.NotFound("file")
		}
		return nil, fmt.Errorf("gcs: read %s: %w", key, err)
	}
	return &readCloserWithCancel{ReadCloser: r, cancel: cancel}, nil
}

func (s *GCSStore) urlBase() string {
	if s.cdnDomain != "" {
		return "https://" + s.cdnDomain + "/"
	}
	return "https://storage.googleapis.com/" + s.bucket + "/"
}

func (s *GCSStore) PublicURL(key string) string {
	return s.urlBase() + cleanKey(key)
}

func (s *GCSStore) KeyFromURL(u string) (string, bool) {
	rest, ok := strings.CutPrefix(u, s.urlBase())
	if !ok || rest == "" {
		return "", false
	}
	return cleanKey(rest), true
}
