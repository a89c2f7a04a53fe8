package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-courses/internal/apierr"
	"github.com/mind-engage/mindengage-courses/internal/certificate"
	"github.com/mind-engage/mindengage-courses/internal/httpx"
	"github.com/mind-engage/mindengage-courses/internal/logger"
	"github.com/mind-engage/mindengage-courses/internal/quiz"
)

type AttemptStore interface {
	StartAttempt(ctx context.Context, quizID, userID string) (quiz.Attempt, error)
	GetAttempt(ctx context.Context, id string) (quiz.Attempt, error)
	SubmitAttempt(ctx context.Context, attemptID, userID string, answers []quiz.Answer) (quiz.Attempt, error)
	ListAttempts(ctx context.Context, opts quiz.AttemptListOpts) ([]quiz.Attempt, error)
}

type CertificateIssuer interface {
	IssueForAttempt(ctx context.Context, attemptID, userID, courseID string) (certificate.Certificate, error)
}

type CertificateReader interface {
	ByAttempt(ctx context.Context, attemptID string) (certificate.Certificate, error)
	ByCourse(ctx context.Context, userID, courseID string) (*certificate.Certificate, error)
}

// POST /api/quizzes/{quizId}/attempts and /api/admin/quizzes/{quizId}/attempts
func StartAttemptHandler(attempts AttemptStore, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := attempts.StartAttempt(r.Context(), chi.URLParam(r, "quizId"), subject(r))
		if err != nil {
			fail(log, w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, idBody{ID: a.ID})
	}
}

type submitResponse struct {
	quiz.Attempt
	Certificate *certificate.Certificate `json:"certificate"`
}

// POST /api/attempts/{attemptId}/submit
// A passed final quiz issues the course certificate. Issuing failures are
// logged and the graded attempt is still returned.
func SubmitAttemptHandler(attempts AttemptStore, issuer CertificateIssuer, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in quiz.SubmitInput
		if err := httpx.Decode(r, &in); err != nil {
			httpx.WriteError(w, err)
			return
		}
		a, err := attempts.SubmitAttempt(r.Context(), chi.URLParam(r, "attemptId"), subject(r), in.Answers)
		if err != nil {
			fail(log, w, r, err)
			return
		}
		out := submitResponse{Attempt: a}
		if a.PassedFinal() && issuer != nil {
			c, err := issuer.IssueForAttempt(r.Context(), a.ID, a.UserID, a.CourseID)
			if err != nil {
				log.Error("certificate issue failed", "attempt_id", a.ID, "error", err)
			} else {
				out.Certificate = &c
			}
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}
}

// GET /api/attempts/{attemptId}
func GetAttemptHandler(attempts AttemptStore, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := attempts.GetAttempt(r.Context(), chi.URLParam(r, "attemptId"))
		if err != nil {
			fail(log, w, r, err)
			return
		}
		if a.UserID != subject(r) && !isAdmin(r) {
			httpx.WriteError(w, apierr.Forbidden())
			return
		}
		httpx.WriteJSON(w, http.StatusOK, a)
	}
}

// GET /api/attempts?quiz_id=&user_id=
// Non-admins only ever see their own attempts.
func ListAttemptsHandler(attempts AttemptStore, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		opts := quiz.AttemptListOpts{
			QuizID: q.Get("quiz_id"),
			UserID: q.Get("user_id"),
			Limit:  parseIntDefault(q.Get("limit"), 50),
			Offset: parseIntDefault(q.Get("offset"), 0),
		}
		if !isAdmin(r) {
			opts.UserID = subject(r)
		}
		list, err := attempts.ListAttempts(r.Context(), opts)
		if err != nil {
			fail(log, w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, list)
	}
}

// GET /api/attempts/{attemptId}/certificate
func AttemptCertificateHandler(certs CertificateReader, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := certs.ByAttempt(r.Context(), chi.URLParam(r, "attemptId"))
		if err != nil {
			fail(log, w, r, err)
			return
		}
		if c.UserID != subject(r) && !isAdmin(r) {
			httpx.WriteError(w, apierr.Forbidden())
			return
		}
		httpx.WriteJSON(w, http.StatusOK, c)
	}
}

// GET /api/certificates/by-course/{courseId}
func CourseCertificateHandler(certs CertificateReader, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := certs.ByCourse(r.Context(), subject(r), chi.URLParam(r, "courseId"))
		if err != nil {
			fail(log, w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]*certificate.Certificate{"certificate": c})
	}
}
