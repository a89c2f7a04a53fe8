package certificate

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-courses/internal/catalog"
	"github.com/mind-engage/mindengage-courses/internal/logger"
	"github.com/mind-engage/mindengage-courses/internal/profile"
	"github.com/mind-engage/mindengage-courses/internal/storage"
)

type CourseGetter interface {
	GetCourse(ctx context.Context, id string) (catalog.Course, error)
}

type ProfileGetter interface {
	Get(ctx context.Context, id string) (profile.Profile, error)
}

// Issuer turns a passed final-quiz attempt into a stored certificate.
type Issuer struct {
	store    *SQLStore
	blobs    storage.BlobStore
	renderer *Renderer
	courses  CourseGetter
	profiles ProfileGetter
	log      *logger.Logger
	now      func() time.Time
}

func NewIssuer(store *SQLStore, blobs storage.BlobStore, renderer *Renderer, courses CourseGetter, profiles ProfileGetter, log *logger.Logger) *Issuer {
	if log == nil {
		log = logger.Nop()
	}
	return &Issuer{
		store:    store,
		blobs:    blobs,
		renderer: renderer,
		courses:  courses,
		profiles: profiles,
		log:      log.With("component", "certificate.Issuer"),
		now:      time.Now,
	}
}

// IssueForAttempt records a certificate for (userID, courseID), rendering it
// from the active template when there is one. A certificate already issued
// for the pair is returned unchanged.
func (is *Issuer) IssueForAttempt(ctx context.Context, attemptID, userID, courseID string) (Certificate, error) {
	if existing, err := is.store.ByCourse(ctx, userID, courseID); err != nil {
		return Certificate{}, err
	} else if existing != nil {
		return *existing, nil
	}

	c := Certificate{
		ID:       uuid.NewString(),
		UserID:   userID,
		CourseID: courseID,
		IssuedAt: is.now().UTC().Truncate(time.Second),
	}
	if attemptID != "" {
		c.AttemptID = &attemptID
	}

	tpl, err := is.store.ActiveTemplate(ctx)
	if err != nil {
		return Certificate{}, err
	}
	if tpl != nil {
		url, err := is.render(ctx, *tpl, c)
		if err != nil {
			return Certificate{}, err
		}
		c.CertificateURL = url
	} else {
		is.log.Warn("no active certificate template; issuing without image", "user_id", userID, "course_id", courseID)
	}

	out, _, err := is.store.insertIssued(ctx, c)
	return out, err
}

// certificateKey is one object per (user, course), so a concurrent issue that
// loses the insert race overwrites the winner's image instead of leaving an
// unreferenced one behind.
func certificateKey(userID, courseID string) string {
	return "certificates/" + userID + "/" + courseID + ".png"
}

func (is *Issuer) render(ctx context.Context, tpl Template, c Certificate) (string, error) {
	course, err := is.courses.GetCourse(ctx, c.CourseID)
	if err != nil {
		return "", err
	}
	p, err := is.profiles.Get(ctx, c.UserID)
	if err != nil {
		return "", err
	}

	var bg io.Reader
	if key, ok := is.blobs.KeyFromURL(tpl.ImageURL); ok {
		rc, err := is.blobs.Get(ctx, key)
		if err != nil {
			return "", err
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", err
		}
		bg = bytes.NewReader(raw)
	} else if tpl.ImageURL != "" {
		is.log.Warn("template background is not in the blob store; using a blank canvas", "template_id", tpl.ID)
	}

	png, err := is.renderer.RenderBytes(tpl, bg, Fields{Name: p.DisplayName(), Course: course.Title, Date: c.IssuedAt})
	if err != nil {
		return "", err
	}
	key, err := is.blobs.Put(ctx, certificateKey(c.UserID, c.CourseID), "image/png", bytes.NewReader(png))
	if err != nil {
		return "", err
	}
	return is.blobs.PublicURL(key), nil
}
