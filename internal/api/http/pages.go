package http

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-courses/internal/apierr"
	authmw "github.com/mind-engage/mindengage-courses/internal/auth/middleware"
	"github.com/mind-engage/mindengage-courses/internal/catalog"
	"github.com/mind-engage/mindengage-courses/internal/logger"
	"github.com/mind-engage/mindengage-courses/internal/quiz"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type DashboardSource interface {
	Dashboard(ctx context.Context, userID string) ([]catalog.DashboardEntry, error)
}

type EditorSource interface {
	LoadEditor(ctx context.Context, quizID string, final bool) (quiz.Quiz, error)
	QuizzesForCourse(ctx context.Context, courseID string) ([]quiz.Quiz, error)
}

// Pages renders the server-side HTML screens.
type Pages struct {
	Auth    *authmw.AuthService
	Users   authmw.Authenticator
	Cookies authmw.CookieOptions
	Courses DashboardSource
	Quizzes EditorSource
	Log     *logger.Logger
}

type pageData struct {
	Title     string
	Error     string
	Next      string
	Email     string
	Name      string
	Entries   []catalog.DashboardEntry
	Quiz      *quiz.Quiz
	GraphJSON string
}

func (p *Pages) render(w http.ResponseWriter, status int, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplates.ExecuteTemplate(w, name, data); err != nil && p.Log != nil {
		p.Log.Error("render page", "page", name, "error", err)
	}
}

// safeNext keeps post-login redirects on this host. Browsers treat a
// backslash as a slash, so "/\evil" is as off-site as "//evil".
func safeNext(next string) string {
	if next == "" || next[0] != '/' || strings.ContainsAny(next, "\\\r\n\t") {
		return "/dashboard"
	}
	if len(next) > 1 && next[1] == '/' {
		return "/dashboard"
	}
	if u, err := url.Parse(next); err != nil || u.Scheme != "" || u.Host != "" || u.User != nil {
		return "/dashboard"
	}
	return next
}

// GET /login
func (p *Pages) LoginForm(w http.ResponseWriter, r *http.Request) {
	p.render(w, http.StatusOK, "login", pageData{Title: "Sign in", Next: r.URL.Query().Get("next")})
}

// POST /login (form)
func (p *Pages) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		p.render(w, http.StatusBadRequest, "login", pageData{Title: "Sign in", Error: "invalid form"})
		return
	}
	data := pageData{
		Title: "Sign in",
		Next:  r.PostForm.Get("next"),
		Email: strings.TrimSpace(r.PostForm.Get("email")),
	}
	password := r.PostForm.Get("password")
	if data.Email == "" || password == "" {
		data.Error = "Email and password are required"
		p.render(w, http.StatusBadRequest, "login", data)
		return
	}
	prof, err := p.Users.Authenticate(r.Context(), data.Email, password)
	if err != nil {
		data.Error = err.Error()
		p.render(w, apierr.StatusOf(err), "login", data)
		return
	}
	if _, err := p.Auth.SetSession(w, p.Cookies, prof.ID); err != nil {
		data.Error = err.Error()
		p.render(w, http.StatusInternalServerError, "login", data)
		return
	}
	http.Redirect(w, r, safeNext(data.Next), http.StatusFound)
}

// GET /dashboard
func (p *Pages) Dashboard(w http.ResponseWriter, r *http.Request) {
	data := pageData{Title: "Dashboard"}
	if prof, ok := authmw.ProfileFromContext(r.Context()); ok {
		data.Name = prof.DisplayName()
	}
	entries, err := p.Courses.Dashboard(r.Context(), subject(r))
	if err != nil {
		data.Error = err.Error()
	}
	data.Entries = entries
	p.render(w, http.StatusOK, "dashboard", data)
}

// GET /admin/courses/{courseID}/quizzes/{quizID}/edit
func (p *Pages) QuizEditor(w http.ResponseWriter, r *http.Request) {
	p.editor(w, r, func(ctx context.Context) (quiz.Quiz, error) {
		q, err := p.Quizzes.LoadEditor(ctx, chi.URLParam(r, "quizID"), false)
		if err != nil {
			return quiz.Quiz{}, err
		}
		if q.CourseID != chi.URLParam(r, "courseID") {
			return quiz.Quiz{}, apierr.NotFound("quiz")
		}
		return q, nil
	})
}

// GET /admin/courses/{courseID}/quizzes/final/edit
func (p *Pages) FinalQuizEditor(w http.ResponseWriter, r *http.Request) {
	p.editor(w, r, func(ctx context.Context) (quiz.Quiz, error) {
		list, err := p.Quizzes.QuizzesForCourse(ctx, chi.URLParam(r, "courseID"))
		if err != nil {
			return quiz.Quiz{}, err
		}
		for _, q := range list {
			if q.IsFinal() {
				return p.Quizzes.LoadEditor(ctx, q.ID, true)
			}
		}
		return quiz.Quiz{}, apierr.NotFound("final quiz")
	})
}

// editor renders load failures as an inline error on the page.
func (p *Pages) editor(w http.ResponseWriter, r *http.Request, load func(context.Context) (quiz.Quiz, error)) {
	data := pageData{Title: "Quiz editor"}
	if !isAdmin(r) {
		data.Error = apierr.Forbidden().Error()
		p.render(w, http.StatusForbidden, "editor", data)
		return
	}
	q, err := load(r.Context())
	if err != nil {
		data.Error = err.Error()
		p.render(w, http.StatusOK, "editor", data)
		return
	}
	buf, err := json.MarshalIndent(q, "", "  ")
	if err != nil {
		data.Error = err.Error()
		p.render(w, http.StatusOK, "editor", data)
		return
	}
	data.Title = q.Title
	data.Quiz = &q
	data.GraphJSON = string(buf)
	p.render(w, http.StatusOK, "editor", data)
}
