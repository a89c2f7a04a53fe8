package quiz

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-courses/internal/apierr"
	"github.com/mind-engage/mindengage-courses/internal/db"
	syncx "github.com/mind-engage/mindengage-courses/internal/sync"
)

// LoadEditor assembles a quiz with its ordered questions and options. With
// final set, quizzes attached to a module are reported as not found.
func (s *SQLStore) LoadEditor(ctx context.Context, quizID string, final bool) (Quiz, error) {
	return loadEditor(ctx, s.db, quizID, final)
}

func loadEditor(ctx context.Context, q db.Querier, quizID string, final bool) (Quiz, error) {
	query := `SELECT ` + quizCols + ` FROM quizzes WHERE id=$1`
	if final {
		query += ` AND module_id IS NULL`
	}
	qz, err := scanQuiz(q.QueryRowContext(ctx, query, quizID))
	if errors.Is(err, sql.ErrNoRows) {
		if final {
			return Quiz{}, apierr.NotFound("final quiz")
		}
		return Quiz{}, apierr.NotFound("quiz")
	}
	if err != nil {
		return Quiz{}, err
	}

	rows, err := q.QueryContext(ctx,
		`SELECT id, quiz_id, type, prompt_html, ordering FROM quiz_questions
		  WHERE quiz_id=$1 ORDER BY ordering ASC, id ASC`, quizID)
	if err != nil {
		return Quiz{}, err
	}
	qz.Questions = []Question{}
	for rows.Next() {
		var qq Question
		if err := rows.Scan(&qq.ID, &qq.QuizID, &qq.Type, &qq.PromptHTML, &qq.Ordering); err != nil {
			rows.Close()
			return Quiz{}, err
		}
		qq.Options = []Option{}
		qz.Questions = append(qz.Questions, qq)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Quiz{}, err
	}
	if len(qz.Questions) == 0 {
		return qz, nil
	}

	ids := make([]any, len(qz.Questions))
	marks := make([]string, len(qz.Questions))
	for i, qq := range qz.Questions {
		ids[i] = qq.ID
		marks[i] = "$" + strconv.Itoa(i+1)
	}
	orows, err := q.QueryContext(ctx,
		`SELECT id, question_id, text, is_correct, ordering FROM quiz_options
		  WHERE question_id IN (`+strings.Join(marks, ",")+`) ORDER BY ordering ASC, id ASC`, ids...)
	if err != nil {
		return Quiz{}, err
	}
	defer orows.Close()
	byQuestion := make(map[string][]Option, len(qz.Questions))
	for orows.Next() {
		var o Option
		if err := orows.Scan(&o.ID, &o.QuestionID, &o.Text, &o.IsCorrect, &o.Ordering); err != nil {
			return Quiz{}, err
		}
		byQuestion[o.QuestionID] = append(byQuestion[o.QuestionID], o)
	}
	if err := orows.Err(); err != nil {
		return Quiz{}, err
	}
	for i := range qz.Questions {
		if qz.Questions[i].Type == TypeShortAnswer {
			continue
		}
		if opts, ok := byQuestion[qz.Questions[i].ID]; ok {
			qz.Questions[i].Options = opts
		}
	}
	return qz, nil
}

func validateGraph(in GraphInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return apierr.Invalid("title is required")
	}
	if in.PassingScore != nil && (*in.PassingScore < 0 || *in.PassingScore > 100) {
		return apierr.Invalid("passing_score must be between 0 and 100")
	}
	for i, q := range in.Questions {
		n := i + 1
		if !validType(q.Type) {
			return apierr.Invalid("question %d: type must be one of [multiple_choice true_false short_answer]", n)
		}
		if q.Type == TypeShortAnswer {
			if len(q.Options) > 0 {
				return apierr.Invalid("question %d: short_answer questions take no options", n)
			}
			continue
		}
		correct := 0
		for _, o := range q.Options {
			if strings.TrimSpace(o.Text) == "" {
				return apierr.Invalid("question %d: option text is required", n)
			}
			if o.IsCorrect {
				correct++
			}
		}
		if correct != 1 {
			return apierr.Invalid("question %d: exactly one option must be correct", n)
		}
	}
	return nil
}

// SaveGraph replaces the quiz header, questions and options in one
// transaction and returns the stored editor view.
func (s *SQLStore) SaveGraph(ctx context.Context, quizID string, in GraphInput) (Quiz, error) {
	if err := validateGraph(in); err != nil {
		return Quiz{}, err
	}
	var out Quiz
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		cur, err := getQuiz(ctx, tx, quizID)
		if err != nil {
			return err
		}
		score := cur.PassingScore
		if in.PassingScore != nil {
			score = *in.PassingScore
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE quizzes SET title=$1, description=$2, passing_score=$3 WHERE id=$4`,
			strings.TrimSpace(in.Title), in.Description, score, quizID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM quiz_questions WHERE quiz_id=$1`, quizID); err != nil {
			return err
		}
		for i, gq := range in.Questions {
			qid := uuid.NewString()
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO quiz_questions (id, quiz_id, type, prompt_html, ordering) VALUES ($1,$2,$3,$4,$5)`,
				qid, quizID, gq.Type, gq.PromptHTML, position(gq.Ordering, i)); err != nil {
				return err
			}
			for j, o := range gq.Options {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO quiz_options (id, question_id, text, is_correct, ordering) VALUES ($1,$2,$3,$4,$5)`,
					uuid.NewString(), qid, strings.TrimSpace(o.Text), o.IsCorrect, position(o.Ordering, j)); err != nil {
					return err
				}
			}
		}
		if err := syncx.Append(ctx, tx, syncx.EventQuizSaved, quizID, map[string]any{
			"title": strings.TrimSpace(in.Title), "questions": len(in.Questions), "graph": true,
		}); err != nil {
			return err
		}
		out, err = loadEditor(ctx, tx, quizID, false)
		return err
	})
	if err != nil {
		return Quiz{}, err
	}
	return out, nil
}

func position(explicit, idx int) int {
	if explicit > 0 {
		return explicit
	}
	return idx + 1
}
