package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	authmw "github.com/mind-engage/mindengage-courses/internal/auth/middleware"
	"github.com/mind-engage/mindengage-courses/internal/logger"
	"github.com/mind-engage/mindengage-courses/internal/rbac"
)

// Deps is everything the router mounts. Files and Ready may be nil.
type Deps struct {
	Auth     *authmw.AuthService
	Cookies  authmw.CookieOptions
	Users    authmw.Authenticator
	Profiles interface {
		ProfileStore
		authmw.ProfileGetter
	}
	Courses   CourseStore
	Quizzes   QuizStore
	Attempts  AttemptStore
	Templates TemplateStore
	Certs     CertificateReader
	Issuer    CertificateIssuer
	Uploads   Uploader
	Events    EventReader

	Files       http.Handler
	Ready       func(ctx context.Context) error
	CORSOrigins []string
	Log         *logger.Logger
}

func NewRouter(d Deps) chi.Router {
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, logger.RequestLogger(log), middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	if len(d.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   d.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(authmw.Gate(authmw.DefaultPublicPaths))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.Ready != nil {
			if err := d.Ready(r.Context()); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	if d.Files != nil {
		r.Mount("/files", http.StripPrefix("/files", d.Files))
	}

	r.Route("/auth", func(ar chi.Router) {
		ar.Post("/login", authmw.LoginHandler(d.Auth, d.Users, d.Cookies))
		ar.Post("/refresh", authmw.RefreshHandler(d.Auth, d.Cookies))
		ar.Post("/logout", authmw.LogoutHandler(d.Cookies))
	})

	r.Route("/api", func(api chi.Router) {
		api.Use(authmw.SessionMiddleware(d.Auth), authmw.AttachProfile(d.Profiles))

		api.With(rbac.Require("course:create")).Post("/courses", CreateCourseHandler(d.Courses, log))
		api.Get("/courses", ListCoursesHandler(d.Courses, log))
		api.Get("/courses/{id}", GetCourseHandler(d.Courses, log))
		api.Get("/courses/{id}/quizzes", CourseQuizzesHandler(d.Quizzes, log))
		api.With(rbac.Require("course:enroll")).Post("/courses/{id}/enroll", EnrollHandler(d.Courses, log))
		api.Get("/me/enrollments", MyEnrollmentsHandler(d.Courses, log))
		api.Post("/me/password", ChangePasswordHandler(d.Profiles, log))

		api.Get("/quizzes/{quizId}", LearnerQuizHandler(d.Quizzes, log))
		api.With(rbac.Require("attempt:create")).Post("/quizzes/{quizId}/attempts", StartAttemptHandler(d.Attempts, log))
		api.Get("/attempts", ListAttemptsHandler(d.Attempts, log))
		api.Get("/attempts/{attemptId}", GetAttemptHandler(d.Attempts, log))
		api.With(rbac.Require("attempt:submit")).Post("/attempts/{attemptId}/submit", SubmitAttemptHandler(d.Attempts, d.Issuer, log))
		api.Get("/attempts/{attemptId}/certificate", AttemptCertificateHandler(d.Certs, log))
		api.Get("/certificates/by-course/{courseId}", CourseCertificateHandler(d.Certs, log))

		api.With(rbac.Require("upload:create")).Post("/upload", UploadHandler(d.Uploads, "uploads", false, log))

		// owner-or-admin checks happen per course inside the handlers
		api.Group(func(cr chi.Router) {
			cr.Use(rbac.RequireAny("course:edit_own", "course:edit_any"))
			byParam := rbac.RequireOwnerOr("course:edit_any", courseOwner(d.Courses, courseIDParam))
			byBody := rbac.RequireOwnerOr("course:edit_any", courseOwner(d.Courses, courseIDFromBody))
			cr.With(byParam).Get("/admin/courses/{id}", AdminGetCourseHandler(d.Courses, log))
			cr.With(byParam).Put("/admin/courses/{id}", AdminUpdateCourseHandler(d.Courses, log))
			cr.With(byBody).Post("/admin/archive-course", ArchiveCourseHandler(d.Courses, true, log))
			cr.With(byBody).Post("/admin/unarchive-course", ArchiveCourseHandler(d.Courses, false, log))
		})

		api.Group(func(admin chi.Router) {
			admin.Use(rbac.RequireAdmin())

			admin.Post("/admin/courses/upload-image", UploadHandler(d.Uploads, "course-images", true, log))

			admin.Post("/admin/quizzes/save", SaveQuizHandler(d.Quizzes, log))
			admin.Get("/admin/quizzes/{quizId}", EditorHandler(d.Quizzes, log))
			admin.Put("/admin/quizzes/{quizId}/graph", SaveGraphHandler(d.Quizzes, log))
			admin.Post("/admin/quizzes/{quizId}/questions", AddQuestionHandler(d.Quizzes, log))
			admin.Post("/admin/quizzes/{quizId}/questions/{questionId}/options", AddOptionHandler(d.Quizzes, log))
			admin.Post("/admin/quizzes/{quizId}/attempts", StartAttemptHandler(d.Attempts, log))

			admin.Get("/admin/certificates/templates", ListTemplatesHandler(d.Templates, log))
			admin.Post("/admin/certificates/templates", CreateTemplateHandler(d.Templates, log))
			admin.Patch("/admin/certificates/templates/{id}", UpdateTemplateHandler(d.Templates, log))
			admin.Delete("/admin/certificates/templates/{id}", DeleteTemplateHandler(d.Templates, log))

			admin.Get("/admin/users", ListUsersHandler(d.Profiles, log))
			admin.Patch("/admin/users/{id}", UpdateUserHandler(d.Profiles, log))
			admin.Post("/admin/users/import", ImportUsersHandler(d.Profiles, log))

			admin.Get("/admin/events", EventsHandler(d.Events, log))
		})
	})

	pages := &Pages{Auth: d.Auth, Users: d.Users, Cookies: d.Cookies, Courses: d.Courses, Quizzes: d.Quizzes, Log: log}
	r.Get("/login", pages.LoginForm)
	r.Post("/login", pages.LoginSubmit)
	r.Group(func(pr chi.Router) {
		pr.Use(authmw.PageSessionMiddleware(d.Auth), authmw.AttachProfile(d.Profiles))
		pr.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/dashboard", http.StatusFound)
		})
		pr.Get("/dashboard", pages.Dashboard)
		pr.Get("/admin/courses/{courseID}/quizzes/final/edit", pages.FinalQuizEditor)
		pr.Get("/admin/courses/{courseID}/quizzes/{quizID}/edit", pages.QuizEditor)
	})

	return r
}
