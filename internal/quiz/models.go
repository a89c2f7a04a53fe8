package quiz

import (
	"time"

	"github.com/mind-engage/mindengage-courses/internal/grading"
)

const (
	TypeMultipleChoice = grading.TypeMultipleChoice
	TypeTrueFalse      = grading.TypeTrueFalse
	TypeShortAnswer    = grading.TypeShortAnswer

	DefaultPassingScore = 70
)

// Quiz belongs to a course. A nil ModuleID makes it the course's final quiz.
type Quiz struct {
	ID           string    `json:"id"`
	CourseID     string    `json:"course_id"`
	ModuleID     *string   `json:"module_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	PassingScore int       `json:"passing_score"`
	CreatedAt    time.Time `json:"created_at"`

	Questions []Question `json:"questions,omitempty"`
}

func (q Quiz) IsFinal() bool { return q.ModuleID == nil }

// WithoutAnswers returns a copy safe to show learners.
func (q Quiz) WithoutAnswers() Quiz {
	out := q
	out.Questions = make([]Question, len(q.Questions))
	for i, qq := range q.Questions {
		opts := make([]Option, len(qq.Options))
		copy(opts, qq.Options)
		for j := range opts {
			opts[j].IsCorrect = false
		}
		qq.Options = opts
		out.Questions[i] = qq
	}
	return out
}

type Question struct {
	ID         string   `json:"id"`
	QuizID     string   `json:"quiz_id"`
	Type       string   `json:"type"`
	PromptHTML string   `json:"prompt_html"`
	Ordering   int      `json:"ordering"`
	Options    []Option `json:"options"`
}

type Option struct {
	ID         string `json:"id"`
	QuestionID string `json:"question_id"`
	Text       string `json:"text"`
	IsCorrect  bool   `json:"is_correct"`
	Ordering   int    `json:"ordering"`
}

// SaveInput is the body of the quiz upsert. With ID set only title,
// description and passing score change.
type SaveInput struct {
	ID           string  `json:"id"`
	CourseID     string  `json:"course_id" validate:"required"`
	ModuleID     *string `json:"module_id"`
	Title        string  `json:"title" validate:"required"`
	Description  string  `json:"description"`
	PassingScore *int    `json:"passing_score" validate:"omitempty,min=0,max=100"`
}

type QuestionInput struct {
	Type       string `json:"type" validate:"required,oneof=multiple_choice true_false short_answer"`
	PromptHTML string `json:"prompt_html"`
	Ordering   int    `json:"ordering" validate:"min=0"`
}

type OptionInput struct {
	Text      string `json:"text" validate:"required"`
	IsCorrect bool   `json:"is_correct"`
	Ordering  int    `json:"ordering" validate:"min=0"`
}

// GraphInput replaces a quiz's questions and options wholesale.
type GraphInput struct {
	Title        string          `json:"title" validate:"required"`
	Description  string          `json:"description"`
	PassingScore *int            `json:"passing_score" validate:"omitempty,min=0,max=100"`
	Questions    []GraphQuestion `json:"questions" validate:"dive"`
}

type GraphQuestion struct {
	QuestionInput
	Options []OptionInput `json:"options" validate:"dive"`
}

type Attempt struct {
	ID         string     `json:"id"`
	QuizID     string     `json:"quiz_id"`
	UserID     string     `json:"user_id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	TotalScore *int       `json:"total_score"`
	Passed     *bool      `json:"passed"`

	CourseID  string     `json:"course_id"`
	Final     bool       `json:"final"`
	Responses []Response `json:"responses,omitempty"`
}

func (a Attempt) Finished() bool { return a.FinishedAt != nil }

// PassedFinal reports whether the attempt passed a course's final quiz.
func (a Attempt) PassedFinal() bool {
	return a.Final && a.Passed != nil && *a.Passed
}

type Response struct {
	ID         string    `json:"id"`
	QuestionID string    `json:"question_id"`
	OptionID   *string   `json:"option_id"`
	TextAnswer *string   `json:"text_answer"`
	IsCorrect  *bool     `json:"is_correct"`
	AnsweredAt time.Time `json:"answered_at"`
}

type Answer struct {
	QuestionID string `json:"question_id" validate:"required"`
	OptionID   string `json:"option_id"`
	TextAnswer string `json:"text_answer"`
}

type SubmitInput struct {
	Answers []Answer `json:"answers" validate:"dive"`
}

type AttemptListOpts struct {
	QuizID string
	UserID string
	Limit  int
	Offset int
}
