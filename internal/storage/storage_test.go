package storage

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mind-engage/mindengage-courses/internal/apierr"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestFSStoreRoundTrip(t *testing.T) {
	s, err := NewFSStore(t.TempDir(), "http://localhost:8080/files/")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	key, err := s.Put(ctx, "/courses/../courses/a.txt", "text/plain", strings.NewReader("hello"))
	if err != nil {
		t.Fatal(err)
	}
	if key != "courses/courses/a.txt" {
		t.Fatalf("key = %q", key)
	}
	rc, err := s.Get(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(rc)
	rc.Close()
	if string(body) != "hello" {
		t.Fatalf("body = %q", body)
	}
	if _, err := s.Get(ctx, "nope"); !errors.Is(err, apierr.ErrNotFound) {
		t.Fatalf("missing: %v", err)
	}

	u := s.PublicURL(key)
	if u != "http://localhost:8080/files/courses/courses/a.txt" {
		t.Fatalf("url = %q", u)
	}
	back, ok := s.KeyFromURL(u)
	if !ok || back != key {
		t.Fatalf("KeyFromURL = %q %v", back, ok)
	}
	if _, ok := s.KeyFromURL("https://elsewhere/x.png"); ok {
		t.Fatal("foreign url accepted")
	}

	srv := http.StripPrefix("/files/", s.Handler())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/"+key, nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "hello" {
		t.Fatalf("serve: %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" ||
		!strings.HasPrefix(rec.Header().Get("Content-Security-Policy"), "sandbox") {
		t.Fatalf("headers: %v", rec.Header())
	}
}

func TestGCSURLs(t *testing.T) {
	s := &GCSStore{bucket: "b"}
	if got := s.PublicURL("/a/b.png"); got != "https://storage.googleapis.com/b/a/b.png" {
		t.Fatalf("url = %q", got)
	}
	s.cdnDomain = "cdn.example.com"
	key, ok := s.KeyFromURL("https://cdn.example.com/a/b.png")
	if !ok || key != "a/b.png" {
		t.Fatalf("key = %q %v", key, ok)
	}
}

func TestGatewayUpload(t *testing.T) {
	fsStore, err := NewFSStore(t.TempDir(), "/files")
	if err != nil {
		t.Fatal(err)
	}
	g := NewGateway(fsStore, 1<<20)
	ctx := context.Background()

	up, err := g.Upload(ctx, "courses", "cover.bin", bytes.NewReader(pngBytes(t)), true)
	if err != nil {
		t.Fatal(err)
	}
	if up.ContentType != "image/png" || !strings.HasPrefix(up.Key, "courses/") || !strings.HasSuffix(up.Key, ".png") {
		t.Fatalf("upload: %+v", up)
	}
	if up.URL != "/files/"+up.Key {
		t.Fatalf("url = %q", up.URL)
	}

	if _, err := g.Upload(ctx, "courses", "notes.txt", strings.NewReader("plain text"), true); !errors.Is(err, apierr.ErrInvalid) {
		t.Fatalf("text as image: %v", err)
	}
	doc, err := g.Upload(ctx, "docs", "notes.txt", strings.NewReader("plain text"), false)
	if err != nil || !strings.HasSuffix(doc.Key, ".txt") {
		t.Fatalf("text upload: %+v %v", doc, err)
	}

	active := map[string]string{
		"page.html": "<!DOCTYPE html><html><body><script>alert(1)</script></body></html>",
		"page.txt":  "<html><script>alert(document.cookie)</script></html>",
		"logo.svg":  `<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`,
		"feed.xml":  `<?xml version="1.0"?><root/>`,
	}
	for name, body := range active {
		for _, imagesOnly := range []bool{true, false} {
			if _, err := g.Upload(ctx, "uploads", name, strings.NewReader(body), imagesOnly); !errors.Is(err, apierr.ErrInvalid) {
				t.Fatalf("%s (images only %v) accepted: %v", name, imagesOnly, err)
			}
		}
	}
	pdf, err := g.Upload(ctx, "docs", "handout.html", strings.NewReader("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n"), false)
	if err != nil || !strings.HasSuffix(pdf.Key, ".pdf") {
		t.Fatalf("pdf upload: %+v %v", pdf, err)
	}

	small := NewGateway(fsStore, 8)
	if _, err := small.Upload(ctx, "x", "big", strings.NewReader("0123456789"), false); apierr.StatusOf(err) != http.StatusRequestEntityTooLarge {
		t.Fatalf("oversize: %v", err)
	}
	if _, err := g.Upload(ctx, "x", "empty", strings.NewReader(""), false); !errors.Is(err, apierr.ErrInvalid) {
		t.Fatalf("empty: %v", err)
	}
}

func TestNewKey(t *testing.T) {
	k := NewKey("/templates/", "PNG")
	if !strings.HasPrefix(k, "templates/") || !strings.HasSuffix(k, ".png") || len(k) != len("templates/")+36+4 {
		t.Fatalf("key = %q", k)
	}
}
