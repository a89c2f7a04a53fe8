package certificate

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-courses/internal/apierr"
	"github.com/mind-engage/mindengage-courses/internal/db"
	syncx "github.com/mind-engage/mindengage-courses/internal/sync"
)

const (
	templateCols = `id, name, image_url, name_x, name_y, course_x, course_y, date_x, date_y, font_size, font_color, is_active, created_at`
	certCols     = `id, attempt_id, user_id, course_id, certificate_url, issued_at`

	defaultFontSize  = 32
	defaultFontColor = "#000000"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(dbh *sql.DB) *SQLStore {
	return &SQLStore{db: dbh}
}

func scanTemplate(row interface{ Scan(...any) error }) (Template, error) {
	var t Template
	var created int64
	if err := row.Scan(&t.ID, &t.Name, &t.ImageURL, &t.NameX, &t.NameY, &t.CourseX, &t.CourseY,
		&t.DateX, &t.DateY, &t.FontSize, &t.FontColor, &t.IsActive, &created); err != nil {
		return Template{}, err
	}
	t.CreatedAt = time.Unix(created, 0).UTC()
	return t, nil
}

func getTemplate(ctx context.Context, q db.Querier, id string) (Template, error) {
	t, err := scanTemplate(q.QueryRowContext(ctx, `SELECT `+templateCols+` FROM certificate_templates WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Template{}, apierr.NotFound("template")
	}
	return t, err
}

func clearActive(ctx context.Context, tx *sql.Tx, keep string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE certificate_templates SET is_active=$1 WHERE id<>$2 AND is_active=$3`, false, keep, true)
	return err
}

// CreateTemplate inserts a template; an active one deactivates all others.
func (s *SQLStore) CreateTemplate(ctx context.Context, in TemplateInput) (Template, error) {
	t := Template{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(in.Name),
		ImageURL:  strings.TrimSpace(in.ImageURL),
		NameX:     in.NameX,
		NameY:     in.NameY,
		CourseX:   in.CourseX,
		CourseY:   in.CourseY,
		DateX:     in.DateX,
		DateY:     in.DateY,
		FontSize:  in.FontSize,
		FontColor: strings.TrimSpace(in.FontColor),
		IsActive:  in.IsActive,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	if t.Name == "" {
		return Template{}, apierr.Invalid("name is required")
	}
	if t.FontSize <= 0 {
		t.FontSize = defaultFontSize
	}
	if t.FontColor == "" {
		t.FontColor = defaultFontColor
	}
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if t.IsActive {
			if err := clearActive(ctx, tx, t.ID); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO certificate_templates (`+templateCols+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
			t.ID, t.Name, t.ImageURL, t.NameX, t.NameY, t.CourseX, t.CourseY, t.DateX, t.DateY,
			t.FontSize, t.FontColor, t.IsActive, t.CreatedAt.Unix()); err != nil {
			return err
		}
		if t.IsActive {
			return syncx.Append(ctx, tx, syncx.EventTemplateActivated, t.ID, map[string]any{"name": t.Name})
		}
		return nil
	})
	if err != nil {
		return Template{}, activeConflict(err)
	}
	return t, nil
}

func (s *SQLStore) GetTemplate(ctx context.Context, id string) (Template, error) {
	return getTemplate(ctx, s.db, id)
}

func (s *SQLStore) ListTemplates(ctx context.Context) ([]Template, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+templateCols+` FROM certificate_templates ORDER BY created_at DESC, name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Template{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ActiveTemplate returns the active template, or nil when none is active.
func (s *SQLStore) ActiveTemplate(ctx context.Context) (*Template, error) {
	t, err := scanTemplate(s.db.QueryRowContext(ctx,
		`SELECT `+templateCols+` FROM certificate_templates WHERE is_active=$1 ORDER BY created_at DESC LIMIT 1`, true))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTemplate applies patch to one template. Activating it clears the
// flag on every other template in the same transaction. The partial unique
// index on is_active keeps at most one row active: of two activations
// racing each other, the one that commits second fails with a conflict.
func (s *SQLStore) UpdateTemplate(ctx context.Context, id string, patch TemplatePatch) (Template, error) {
	var out Template
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		t, err := getTemplate(ctx, tx, id)
		if err != nil {
			return err
		}
		applyPatch(&t, patch)
		if t.Name == "" {
			return apierr.Invalid("name is required")
		}
		activating := patch.IsActive != nil && *patch.IsActive
		if activating {
			if err := clearActive(ctx, tx, id); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE certificate_templates SET name=$1, image_url=$2, name_x=$3, name_y=$4, course_x=$5, course_y=$6,
			        date_x=$7, date_y=$8, font_size=$9, font_color=$10, is_active=$11 WHERE id=$12`,
			t.Name, t.ImageURL, t.NameX, t.NameY, t.CourseX, t.CourseY, t.DateX, t.DateY,
			t.FontSize, t.FontColor, t.IsActive, id); err != nil {
			return err
		}
		if activating {
			if err := syncx.Append(ctx, tx, syncx.EventTemplateActivated, id, map[string]any{"name": t.Name}); err != nil {
				return err
			}
		}
		out = t
		return nil
	})
	if err != nil {
		return Template{}, activeConflict(err)
	}
	return out, nil
}

// activeConflict turns a lost race on the single-active index into a 409.
func activeConflict(err error) error {
	if db.IsUniqueViolation(err) {
		return apierr.Conflict("another template was activated concurrently; retry")
	}
	return err
}

// SetActive makes id the only active template.
func (s *SQLStore) SetActive(ctx context.Context, id string) (Template, error) {
	on := true
	return s.UpdateTemplate(ctx, id, TemplatePatch{IsActive: &on})
}

func applyPatch(t *Template, p TemplatePatch) {
	setStr := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	setInt := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}
	setStr(&t.Name, p.Name)
	setStr(&t.ImageURL, p.ImageURL)
	setInt(&t.NameX, p.NameX)
	setInt(&t.NameY, p.NameY)
	setInt(&t.CourseX, p.CourseX)
	setInt(&t.CourseY, p.CourseY)
	setInt(&t.DateX, p.DateX)
	setInt(&t.DateY, p.DateY)
	setInt(&t.FontSize, p.FontSize)
	setStr(&t.FontColor, p.FontColor)
	if p.IsActive != nil {
		t.IsActive = *p.IsActive
	}
	if t.FontSize <= 0 {
		t.FontSize = defaultFontSize
	}
	if t.FontColor == "" {
		t.FontColor = defaultFontColor
	}
}

func (s *SQLStore) DeleteTemplate(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM certificate_templates WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apierr.NotFound("template")
	}
	return nil
}

func scanCertificate(row interface{ Scan(...any) error }) (Certificate, error) {
	var c Certificate
	var attempt sql.NullString
	var issued int64
	if err := row.Scan(&c.ID, &attempt, &c.UserID, &c.CourseID, &c.CertificateURL, &issued); err != nil {
		return Certificate{}, err
	}
	if attempt.Valid {
		c.AttemptID = &attempt.String
	}
	c.IssuedAt = time.Unix(issued, 0).UTC()
	return c, nil
}

// ByAttempt looks a certificate up by the attempt that earned it. A later
// passed final attempt resolves to the certificate already held for its
// (user, course) pair.
func (s *SQLStore) ByAttempt(ctx context.Context, attemptID string) (Certificate, error) {
	c, err := scanCertificate(s.db.QueryRowContext(ctx,
		`SELECT `+certCols+` FROM certificates_issued WHERE attempt_id=$1`, attemptID))
	if errors.Is(err, sql.ErrNoRows) {
		c, err = scanCertificate(s.db.QueryRowContext(ctx,
			`SELECT ci.id, ci.attempt_id, ci.user_id, ci.course_id, ci.certificate_url, ci.issued_at
			   FROM quiz_attempts a
			   JOIN quizzes q ON q.id = a.quiz_id
			   JOIN certificates_issued ci ON ci.user_id = a.user_id AND ci.course_id = q.course_id
			  WHERE a.id=$1 AND q.module_id IS NULL AND a.passed=$2`, attemptID, true))
	}
	if errors.Is(err, sql.ErrNoRows) {
		return Certificate{}, apierr.NotFound("certificate")
	}
	return c, err
}

// ByCourse returns the user's certificate for a course, or nil if none
// was issued.
func (s *SQLStore) ByCourse(ctx context.Context, userID, courseID string) (*Certificate, error) {
	c, err := scanCertificate(s.db.QueryRowContext(ctx,
		`SELECT `+certCols+` FROM certificates_issued WHERE user_id=$1 AND course_id=$2`, userID, courseID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// insertIssued records c unless the (user, course) pair already holds a
// certificate; either way the stored row is returned.
func (s *SQLStore) insertIssued(ctx context.Context, c Certificate) (Certificate, bool, error) {
	var (
		out      Certificate
		inserted bool
	)
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO certificates_issued (`+certCols+`) VALUES ($1,$2,$3,$4,$5,$6)
			 ON CONFLICT (user_id, course_id) DO NOTHING`,
			c.ID, c.AttemptID, c.UserID, c.CourseID, c.CertificateURL, c.IssuedAt.Unix())
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted = true
			if err := syncx.Append(ctx, tx, syncx.EventCertificateIssued, c.ID, map[string]any{
				"user_id": c.UserID, "course_id": c.CourseID, "attempt_id": c.AttemptID,
			}); err != nil {
				return err
			}
		}
		out, err = scanCertificate(tx.QueryRowContext(ctx,
			`SELECT `+certCols+` FROM certificates_issued WHERE user_id=$1 AND course_id=$2`, c.UserID, c.CourseID))
		return err
	})
	return out, inserted, err
}
