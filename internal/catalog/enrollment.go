package catalog

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-courses/internal/apierr"
	"github.com/mind-engage/mindengage-courses/internal/db"
)

// Enroll registers userID on a course. Enrolling twice returns the existing
// row; archived courses accept no new enrollments.
func (s *SQLStore) Enroll(ctx context.Context, userID, courseID string) (Enrollment, bool, error) {
	var (
		out     Enrollment
		created bool
	)
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var archived bool
		err := tx.QueryRowContext(ctx, `SELECT archived FROM courses WHERE id=$1`, courseID).Scan(&archived)
		if errors.Is(err, sql.ErrNoRows) {
			return apierr.NotFound("course")
		}
		if err != nil {
			return err
		}

		e, err := scanEnrollment(tx.QueryRowContext(ctx,
			`SELECT id, user_id, course_id, status, enrolled_at FROM enrollments WHERE user_id=$1 AND course_id=$2`,
			userID, courseID))
		switch {
		case err == nil:
			out = e
			return nil
		case !errors.Is(err, sql.ErrNoRows):
			return err
		}

		if archived {
			return apierr.Invalid("course is archived")
		}
		out = Enrollment{
			ID:         uuid.NewString(),
			UserID:     userID,
			CourseID:   courseID,
			Status:     EnrollmentActive,
			EnrolledAt: time.Now().UTC().Truncate(time.Second),
		}
		created = true
		_, err = tx.ExecContext(ctx,
			`INSERT INTO enrollments (id, user_id, course_id, status, enrolled_at) VALUES ($1,$2,$3,$4,$5)`,
			out.ID, out.UserID, out.CourseID, out.Status, out.EnrolledAt.Unix())
		return err
	})
	return out, created, err
}

func scanEnrollment(row interface{ Scan(...any) error }) (Enrollment, error) {
	var e Enrollment
	var at int64
	if err := row.Scan(&e.ID, &e.UserID, &e.CourseID, &e.Status, &at); err != nil {
		return Enrollment{}, err
	}
	e.EnrolledAt = time.Unix(at, 0).UTC()
	return e, nil
}

// IsEnrolled reports whether userID holds a non-dropped enrollment.
func (s *SQLStore) IsEnrolled(ctx context.Context, userID, courseID string) (bool, error) {
	var status string
	err := s.db.QueryRowContext(ctx,
		`SELECT status FROM enrollments WHERE user_id=$1 AND course_id=$2`, userID, courseID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return status != EnrollmentDropped, nil
}

// MarkCompleted flips an enrollment to completed; missing rows are ignored.
func MarkCompleted(ctx context.Context, q db.Querier, userID, courseID string) error {
	_, err := q.ExecContext(ctx,
		`UPDATE enrollments SET status=$1 WHERE user_id=$2 AND course_id=$3`,
		EnrollmentCompleted, userID, courseID)
	return err
}

// Dashboard lists userID's enrollments, newest first, with certificate state.
func (s *SQLStore) Dashboard(ctx context.Context, userID string) ([]DashboardEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT e.id, e.user_id, e.course_id, e.status, e.enrolled_at,
		        c.title, c.image_url, c.archived, COALESCE(ci.certificate_url, ''), ci.id IS NOT NULL
		   FROM enrollments e
		   JOIN courses c ON c.id = e.course_id
		   LEFT JOIN certificates_issued ci ON ci.user_id = e.user_id AND ci.course_id = e.course_id
		  WHERE e.user_id=$1
		  ORDER BY e.enrolled_at DESC, c.title ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []DashboardEntry{}
	for rows.Next() {
		var d DashboardEntry
		var at int64
		if err := rows.Scan(&d.ID, &d.UserID, &d.CourseID, &d.Status, &at,
			&d.CourseTitle, &d.CourseImageURL, &d.Archived, &d.CertificateURL, &d.HasCertificate); err != nil {
			return nil, err
		}
		d.EnrolledAt = time.Unix(at, 0).UTC()
		out = append(out, d)
	}
	return out, rows.Err()
}
