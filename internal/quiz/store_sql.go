package quiz

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-courses/internal/apierr"
	"github.com/mind-engage/mindengage-courses/internal/db"
	"github.com/mind-engage/mindengage-courses/internal/grading"
	syncx "github.com/mind-engage/mindengage-courses/internal/sync"
)

const quizCols = `id, course_id, module_id, title, description, passing_score, created_at`

type SQLStore struct {
	db     *sql.DB
	grader grading.Grader
	now    func() time.Time
}

func NewSQLStore(dbh *sql.DB) *SQLStore {
	return &SQLStore{db: dbh, grader: grading.NewDefaultGrader(), now: time.Now}
}

func scanQuiz(row interface{ Scan(...any) error }) (Quiz, error) {
	var q Quiz
	var mod sql.NullString
	var created int64
	if err := row.Scan(&q.ID, &q.CourseID, &mod, &q.Title, &q.Description, &q.PassingScore, &created); err != nil {
		return Quiz{}, err
	}
	if mod.Valid {
		q.ModuleID = &mod.String
	}
	q.CreatedAt = time.Unix(created, 0).UTC()
	return q, nil
}

func getQuiz(ctx context.Context, q db.Querier, id string) (Quiz, error) {
	out, err := scanQuiz(q.QueryRowContext(ctx, `SELECT `+quizCols+` FROM quizzes WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Quiz{}, apierr.NotFound("quiz")
	}
	return out, err
}

func (s *SQLStore) GetQuiz(ctx context.Context, id string) (Quiz, error) {
	return getQuiz(ctx, s.db, id)
}

func blankToNil(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}

// SaveQuiz inserts a quiz, or with in.ID set updates title, description and
// passing score only. created reports which happened.
func (s *SQLStore) SaveQuiz(ctx context.Context, in SaveInput) (id string, created bool, err error) {
	in.Title = strings.TrimSpace(in.Title)
	in.CourseID = strings.TrimSpace(in.CourseID)
	if in.CourseID == "" {
		return "", false, apierr.Invalid("course_id is required")
	}
	if in.Title == "" {
		return "", false, apierr.Invalid("title is required")
	}
	if in.PassingScore != nil && (*in.PassingScore < 0 || *in.PassingScore > 100) {
		return "", false, apierr.Invalid("passing_score must be between 0 and 100")
	}

	err = db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if id = strings.TrimSpace(in.ID); id != "" {
			cur, err := getQuiz(ctx, tx, id)
			if err != nil {
				return err
			}
			score := cur.PassingScore
			if in.PassingScore != nil {
				score = *in.PassingScore
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE quizzes SET title=$1, description=$2, passing_score=$3 WHERE id=$4`,
				in.Title, in.Description, score, id); err != nil {
				return err
			}
			return syncx.Append(ctx, tx, syncx.EventQuizSaved, id, map[string]any{"title": in.Title, "created": false})
		}

		moduleID := blankToNil(in.ModuleID)
		if err := checkScope(ctx, tx, in.CourseID, moduleID); err != nil {
			return err
		}
		if err := checkSingleQuiz(ctx, tx, in.CourseID, moduleID); err != nil {
			return err
		}
		score := DefaultPassingScore
		if in.PassingScore != nil {
			score = *in.PassingScore
		}
		id = uuid.NewString()
		created = true
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO quizzes (`+quizCols+`) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			id, in.CourseID, moduleID, in.Title, in.Description, score, s.now().Unix()); err != nil {
			return err
		}
		return syncx.Append(ctx, tx, syncx.EventQuizSaved, id, map[string]any{
			"title": in.Title, "course_id": in.CourseID, "module_id": moduleID, "created": true,
		})
	})
	if err != nil {
		return "", false, err
	}
	return id, created, nil
}

// checkScope verifies the course exists and, when given, that the module
// belongs to it.
func checkScope(ctx context.Context, q db.Querier, courseID string, moduleID *string) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM courses WHERE id=$1`, courseID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return apierr.NotFound("course")
	}
	if err != nil {
		return err
	}
	if moduleID == nil {
		return nil
	}
	var owner string
	err = q.QueryRowContext(ctx, `SELECT course_id FROM modules WHERE id=$1`, *moduleID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return apierr.NotFound("module")
	}
	if err != nil {
		return err
	}
	if owner != courseID {
		return apierr.Invalid("module does not belong to course")
	}
	return nil
}

// checkSingleQuiz allows one final quiz per course and one quiz per module.
func checkSingleQuiz(ctx context.Context, q db.Querier, courseID string, moduleID *string) error {
	var (
		n   int
		err error
	)
	if moduleID == nil {
		err = q.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM quizzes WHERE course_id=$1 AND module_id IS NULL`, courseID).Scan(&n)
	} else {
		err = q.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM quizzes WHERE module_id=$1`, *moduleID).Scan(&n)
	}
	if err != nil {
		return err
	}
	if n > 0 {
		if moduleID == nil {
			return apierr.Conflict("course already has a final quiz")
		}
		return apierr.Conflict("module already has a quiz")
	}
	return nil
}

func nextOrdering(ctx context.Context, q db.Querier, query, parent string) (int, error) {
	var max sql.NullInt64
	if err := q.QueryRowContext(ctx, query, parent).Scan(&max); err != nil {
		return 0, err
	}
	return int(max.Int64) + 1, nil
}

// AddQuestion appends a single question to a quiz.
func (s *SQLStore) AddQuestion(ctx context.Context, quizID string, in QuestionInput) (Question, error) {
	if !validType(in.Type) {
		return Question{}, apierr.Invalid("type must be one of [multiple_choice true_false short_answer]")
	}
	q := Question{ID: uuid.NewString(), QuizID: quizID, Type: in.Type, PromptHTML: in.PromptHTML, Ordering: in.Ordering, Options: []Option{}}
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := getQuiz(ctx, tx, quizID); err != nil {
			return err
		}
		if q.Ordering <= 0 {
			n, err := nextOrdering(ctx, tx, `SELECT MAX(ordering) FROM quiz_questions WHERE quiz_id=$1`, quizID)
			if err != nil {
				return err
			}
			q.Ordering = n
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO quiz_questions (id, quiz_id, type, prompt_html, ordering) VALUES ($1,$2,$3,$4,$5)`,
			q.ID, q.QuizID, q.Type, q.PromptHTML, q.Ordering)
		return err
	})
	if err != nil {
		return Question{}, err
	}
	return q, nil
}

// AddOption appends an option to a question of quizID. Short-answer
// questions take no options and a second correct option is refused.
func (s *SQLStore) AddOption(ctx context.Context, quizID, questionID string, in OptionInput) (Option, error) {
	o := Option{ID: uuid.NewString(), QuestionID: questionID, Text: strings.TrimSpace(in.Text), IsCorrect: in.IsCorrect, Ordering: in.Ordering}
	if o.Text == "" {
		return Option{}, apierr.Invalid("text is required")
	}
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var typ string
		err := tx.QueryRowContext(ctx,
			`SELECT type FROM quiz_questions WHERE id=$1 AND quiz_id=$2`, questionID, quizID).Scan(&typ)
		if errors.Is(err, sql.ErrNoRows) {
			return apierr.NotFound("question")
		}
		if err != nil {
			return err
		}
		if typ == TypeShortAnswer {
			return apierr.Invalid("short_answer questions take no options")
		}
		if o.IsCorrect {
			var n int
			if err := tx.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM quiz_options WHERE question_id=$1 AND is_correct=$2`, questionID, true).Scan(&n); err != nil {
				return err
			}
			if n > 0 {
				return apierr.Invalid("question already has a correct option")
			}
		}
		if o.Ordering <= 0 {
			n, err := nextOrdering(ctx, tx, `SELECT MAX(ordering) FROM quiz_options WHERE question_id=$1`, questionID)
			if err != nil {
				return err
			}
			o.Ordering = n
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO quiz_options (id, question_id, text, is_correct, ordering) VALUES ($1,$2,$3,$4,$5)`,
			o.ID, o.QuestionID, o.Text, o.IsCorrect, o.Ordering)
		return err
	})
	if err != nil {
		return Option{}, err
	}
	return o, nil
}

func validType(t string) bool {
	switch t {
	case TypeMultipleChoice, TypeTrueFalse, TypeShortAnswer:
		return true
	}
	return false
}

// QuizzesForCourse lists a course's quizzes without their questions.
func (s *SQLStore) QuizzesForCourse(ctx context.Context, courseID string) ([]Quiz, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+quizCols+` FROM quizzes WHERE course_id=$1 ORDER BY created_at ASC, title ASC`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Quiz{}
	for rows.Next() {
		q, err := scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}
