package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-courses/internal/httpx"
	"github.com/mind-engage/mindengage-courses/internal/logger"
	"github.com/mind-engage/mindengage-courses/internal/quiz"
)

type QuizStore interface {
	GetQuiz(ctx context.Context, id string) (quiz.Quiz, error)
	SaveQuiz(ctx context.Context, in quiz.SaveInput) (string, bool, error)
	AddQuestion(ctx context.Context, quizID string, in quiz.QuestionInput) (quiz.Question, error)
	AddOption(ctx context.Context, quizID, questionID string, in quiz.OptionInput) (quiz.Option, error)
	LoadEditor(ctx context.Context, quizID string, final bool) (quiz.Quiz, error)
	SaveGraph(ctx context.Context, quizID string, in quiz.GraphInput) (quiz.Quiz, error)
	QuizzesForCourse(ctx context.Context, courseID string) ([]quiz.Quiz, error)
}

// POST /api/admin/quizzes/save
// 201 when a quiz was inserted, 200 when an existing one was updated.
func SaveQuizHandler(quizzes QuizStore, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in quiz.SaveInput
		if err := httpx.Decode(r, &in); err != nil {
			httpx.WriteError(w, err)
			return
		}
		id, created, err := quizzes.SaveQuiz(r.Context(), in)
		if err != nil {
			fail(log, w, r, err)
			return
		}
		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		httpx.WriteJSON(w, status, idBody{ID: id})
	}
}

// GET /api/admin/quizzes/{quizId}?final=1
func EditorHandler(quizzes QuizStore, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := quizzes.LoadEditor(r.Context(), chi.URLParam(r, "quizId"), r.URL.Query().Get("final") == "1")
		if err != nil {
			fail(log, w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, q)
	}
}

// PUT /api/admin/quizzes/{quizId}/graph
func SaveGraphHandler(quizzes QuizStore, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in quiz.GraphInput
		if err := httpx.Decode(r, &in); err != nil {
			httpx.WriteError(w, err)
			return
		}
		q, err := quizzes.SaveGraph(r.Context(), chi.URLParam(r, "quizId"), in)
		if err != nil {
			fail(log, w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, q)
	}
}

// POST /api/admin/quizzes/{quizId}/questions
func AddQuestionHandler(quizzes QuizStore, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in quiz.QuestionInput
		if err := httpx.Decode(r, &in); err != nil {
			httpx.WriteError(w, err)
			return
		}
		q, err := quizzes.AddQuestion(r.Context(), chi.URLParam(r, "quizId"), in)
		if err != nil {
			fail(log, w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, idBody{ID: q.ID})
	}
}

// POST /api/admin/quizzes/{quizId}/questions/{questionId}/options
func AddOptionHandler(quizzes QuizStore, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in quiz.OptionInput
		if err := httpx.Decode(r, &in); err != nil {
			httpx.WriteError(w, err)
			return
		}
		o, err := quizzes.AddOption(r.Context(), chi.URLParam(r, "quizId"), chi.URLParam(r, "questionId"), in)
		if err != nil {
			fail(log, w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, idBody{ID: o.ID})
	}
}

// GET /api/quizzes/{quizId}
// Learners get the graph with correct flags cleared.
func LearnerQuizHandler(quizzes QuizStore, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := quizzes.LoadEditor(r.Context(), chi.URLParam(r, "quizId"), false)
		if err != nil {
			fail(log, w, r, err)
			return
		}
		if !isAdmin(r) {
			q = q.WithoutAnswers()
		}
		httpx.WriteJSON(w, http.StatusOK, q)
	}
}

// GET /api/courses/{id}/quizzes
func CourseQuizzesHandler(quizzes QuizStore, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := quizzes.QuizzesForCourse(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			fail(log, w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, list)
	}
}
