package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-courses/internal/apierr"
	"github.com/mind-engage/mindengage-courses/internal/catalog"
	"github.com/mind-engage/mindengage-courses/internal/httpx"
	"github.com/mind-engage/mindengage-courses/internal/logger"
)

type CourseStore interface {
	CreateCourse(ctx context.Context, instructorID string, in catalog.CourseInput) (catalog.Course, error)
	GetCourse(ctx context.Context, id string) (catalog.Course, error)
	GetCourseTree(ctx context.Context, id string) (catalog.Course, error)
	UpdateCourse(ctx context.Context, id string, f catalog.CourseFields) (catalog.Course, error)
	SetArchived(ctx context.Context, id string, archived bool) error
	InstructorOf(ctx context.Context, courseID string) (string, error)
	ListCourses(ctx context.Context, opts catalog.ListOpts) ([]catalog.Course, error)
	Enroll(ctx context.Context, userID, courseID string) (catalog.Enrollment, bool, error)
	Dashboard(ctx context.Context, userID string) ([]catalog.DashboardEntry, error)
}

// courseOwner reports whether the caller instructs the course that id
// resolves to. Plug it into rbac.RequireOwnerOr.
func courseOwner(courses CourseStore, id func(*http.Request) (string, error)) func(*http.Request) (bool, error) {
	return func(r *http.Request) (bool, error) {
		courseID, err := id(r)
		if err != nil {
			return false, err
		}
		owner, err := courses.InstructorOf(r.Context(), courseID)
		if err != nil {
			return false, err
		}
		return owner == subject(r), nil
	}
}

func courseIDParam(r *http.Request) (string, error) {
	return chi.URLParam(r, "id"), nil
}

// courseIDFromBody peeks at {course_id} and puts the body back for the handler.
func courseIDFromBody(r *http.Request) (string, error) {
	buf, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return "", apierr.Invalid("unreadable body")
	}
	r.Body = io.NopCloser(bytes.NewReader(buf))
	var in struct {
		CourseID string `json:"course_id"`
	}
	if err := json.Unmarshal(buf, &in); err != nil || strings.TrimSpace(in.CourseID) == "" {
		return "", apierr.Invalid("course_id is required")
	}
	return strings.TrimSpace(in.CourseID), nil
}

// POST /api/courses
func CreateCourseHandler(courses CourseStore, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in catalog.CourseInput
		if err := httpx.Decode(r, &in); err != nil {
			httpx.WriteError(w, err)
			return
		}
		c, err := courses.CreateCourse(r.Context(), subject(r), in)
		if err != nil {
			fail(log, w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, c)
	}
}

// GET /api/courses?mine=1&archived=1&q=...
// Archived courses and other instructors' drafts are only listed for
// admins or the owning instructor.
func ListCoursesHandler(courses CourseStore, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		opts := catalog.ListOpts{
			Q:      q.Get("q"),
			Limit:  parseIntDefault(q.Get("limit"), 50),
			Offset: parseIntDefault(q.Get("offset"), 0),
		}
		if q.Get("mine") == "1" {
			opts.InstructorID = subject(r)
		}
		if q.Get("archived") == "1" && (isAdmin(r) || opts.InstructorID != "") {
			opts.IncludeArchived = true
		}
		list, err := courses.ListCourses(r.Context(), opts)
		if err != nil {
			fail(log, w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, list)
	}
}

// GET /api/courses/{id}
func GetCourseHandler(courses CourseStore, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := courses.GetCourseTree(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			fail(log, w, r, err)
			return
		}
		if c.Archived && !isAdmin(r) && c.InstructorID != subject(r) {
			httpx.WriteError(w, apierr.NotFound("course"))
			return
		}
		httpx.WriteJSON(w, http.StatusOK, c)
	}
}

// GET /api/admin/courses/{id}
func AdminGetCourseHandler(courses CourseStore, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		c, err := courses.GetCourseTree(r.Context(), id)
		if err != nil {
			fail(log, w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, c)
	}
}

// PUT /api/admin/courses/{id}
func AdminUpdateCourseHandler(courses CourseStore, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var in catalog.CourseFields
		if err := httpx.Decode(r, &in); err != nil {
			httpx.WriteError(w, err)
			return
		}
		c, err := courses.UpdateCourse(r.Context(), id, in)
		if err != nil {
			fail(log, w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, c)
	}
}

// POST /api/admin/archive-course and /api/admin/unarchive-course {course_id}
func ArchiveCourseHandler(courses CourseStore, archived bool, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			CourseID string `json:"course_id" validate:"required"`
		}
		if err := httpx.Decode(r, &in); err != nil {
			httpx.WriteError(w, err)
			return
		}
		if err := courses.SetArchived(r.Context(), in.CourseID, archived); err != nil {
			fail(log, w, r, err)
			return
		}
		httpx.OK(w)
	}
}

// POST /api/courses/{id}/enroll
func EnrollHandler(courses CourseStore, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, created, err := courses.Enroll(r.Context(), subject(r), strings.TrimSpace(chi.URLParam(r, "id")))
		if err != nil {
			fail(log, w, r, err)
			return
		}
		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		httpx.WriteJSON(w, status, e)
	}
}

// GET /api/me/enrollments
func MyEnrollmentsHandler(courses CourseStore, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := courses.Dashboard(r.Context(), subject(r))
		if err != nil {
			fail(log, w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, list)
	}
}
