package quiz

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-courses/internal/apierr"
	"github.com/mind-engage/mindengage-courses/internal/catalog"
	"github.com/mind-engage/mindengage-courses/internal/db"
	"github.com/mind-engage/mindengage-courses/internal/grading"
	syncx "github.com/mind-engage/mindengage-courses/internal/sync"
)

const attemptSelect = `SELECT a.id, a.quiz_id, a.user_id, a.started_at, a.finished_at, a.total_score, a.passed,
       q.course_id, q.module_id IS NULL
  FROM quiz_attempts a JOIN quizzes q ON q.id = a.quiz_id`

func scanAttempt(row interface{ Scan(...any) error }) (Attempt, error) {
	var (
		a        Attempt
		started  int64
		finished sql.NullInt64
		score    sql.NullInt64
		passed   sql.NullBool
	)
	if err := row.Scan(&a.ID, &a.QuizID, &a.UserID, &started, &finished, &score, &passed, &a.CourseID, &a.Final); err != nil {
		return Attempt{}, err
	}
	a.StartedAt = time.Unix(started, 0).UTC()
	if finished.Valid {
		t := time.Unix(finished.Int64, 0).UTC()
		a.FinishedAt = &t
	}
	if score.Valid {
		v := int(score.Int64)
		a.TotalScore = &v
	}
	if passed.Valid {
		v := passed.Bool
		a.Passed = &v
	}
	return a, nil
}

func getAttempt(ctx context.Context, q db.Querier, id string) (Attempt, error) {
	a, err := scanAttempt(q.QueryRowContext(ctx, attemptSelect+` WHERE a.id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Attempt{}, apierr.NotFound("attempt")
	}
	return a, err
}

// StartAttempt records that userID began quizID.
func (s *SQLStore) StartAttempt(ctx context.Context, quizID, userID string) (Attempt, error) {
	if userID == "" {
		return Attempt{}, apierr.Unauthenticated()
	}
	var out Attempt
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		qz, err := getQuiz(ctx, tx, quizID)
		if err != nil {
			return err
		}
		out = Attempt{
			ID:        uuid.NewString(),
			QuizID:    quizID,
			UserID:    userID,
			StartedAt: s.now().UTC().Truncate(time.Second),
			CourseID:  qz.CourseID,
			Final:     qz.IsFinal(),
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO quiz_attempts (id, quiz_id, user_id, started_at) VALUES ($1,$2,$3,$4)`,
			out.ID, out.QuizID, out.UserID, out.StartedAt.Unix()); err != nil {
			return err
		}
		return syncx.Append(ctx, tx, syncx.EventAttemptStarted, out.ID, map[string]any{"quiz_id": quizID, "user_id": userID})
	})
	if err != nil {
		return Attempt{}, err
	}
	return out, nil
}

// GetAttempt returns the attempt with its recorded responses.
func (s *SQLStore) GetAttempt(ctx context.Context, id string) (Attempt, error) {
	a, err := getAttempt(ctx, s.db, id)
	if err != nil {
		return Attempt{}, err
	}
	a.Responses, err = listResponses(ctx, s.db, id)
	if err != nil {
		return Attempt{}, err
	}
	return a, nil
}

func listResponses(ctx context.Context, q db.Querier, attemptID string) ([]Response, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, question_id, option_id, text_answer, is_correct, answered_at
		   FROM question_responses WHERE attempt_id=$1 ORDER BY answered_at ASC, id ASC`, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Response{}
	for rows.Next() {
		var (
			r       Response
			opt     sql.NullString
			text    sql.NullString
			correct sql.NullBool
			at      int64
		)
		if err := rows.Scan(&r.ID, &r.QuestionID, &opt, &text, &correct, &at); err != nil {
			return nil, err
		}
		if opt.Valid {
			r.OptionID = &opt.String
		}
		if text.Valid {
			r.TextAnswer = &text.String
		}
		if correct.Valid {
			v := correct.Bool
			r.IsCorrect = &v
		}
		r.AnsweredAt = time.Unix(at, 0).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

// gradingQuestions loads the quiz's questions with option correctness.
func gradingQuestions(ctx context.Context, q db.Querier, quizID string) ([]grading.Q, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, type FROM quiz_questions WHERE quiz_id=$1 ORDER BY ordering ASC, id ASC`, quizID)
	if err != nil {
		return nil, err
	}
	var qs []grading.Q
	idx := map[string]int{}
	for rows.Next() {
		var gq grading.Q
		if err := rows.Scan(&gq.ID, &gq.Type); err != nil {
			rows.Close()
			return nil, err
		}
		idx[gq.ID] = len(qs)
		qs = append(qs, gq)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	orows, err := q.QueryContext(ctx,
		`SELECT o.id, o.question_id, o.is_correct
		   FROM quiz_options o JOIN quiz_questions qq ON qq.id = o.question_id
		  WHERE qq.quiz_id=$1`, quizID)
	if err != nil {
		return nil, err
	}
	defer orows.Close()
	for orows.Next() {
		var (
			o   grading.Option
			qid string
		)
		if err := orows.Scan(&o.ID, &qid, &o.IsCorrect); err != nil {
			return nil, err
		}
		if i, ok := idx[qid]; ok {
			qs[i].Options = append(qs[i].Options, o)
		}
	}
	return qs, orows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// SubmitAttempt grades the answers, records one response per answered
// question and closes the attempt. Only its owner may submit, and only once.
// Short-answer responses are stored ungraded and do not count toward the
// score; unanswered gradable questions count as wrong.
func (s *SQLStore) SubmitAttempt(ctx context.Context, attemptID, userID string, answers []Answer) (Attempt, error) {
	var out Attempt
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		a, err := getAttempt(ctx, tx, attemptID)
		if err != nil {
			return err
		}
		if a.UserID != userID {
			return apierr.Forbidden()
		}
		if a.Finished() {
			return apierr.Conflict("attempt already submitted")
		}
		qz, err := getQuiz(ctx, tx, a.QuizID)
		if err != nil {
			return err
		}
		questions, err := gradingQuestions(ctx, tx, a.QuizID)
		if err != nil {
			return err
		}

		known := make(map[string]bool, len(questions))
		for _, q := range questions {
			known[q.ID] = true
		}
		byQuestion := make(map[string]Answer, len(answers))
		for _, ans := range answers {
			if !known[ans.QuestionID] {
				return apierr.Invalid("unknown question %s", ans.QuestionID)
			}
			byQuestion[ans.QuestionID] = ans
		}

		now := s.now().UTC().Truncate(time.Second)
		results := make([]grading.Result, 0, len(questions))
		for _, q := range questions {
			ans, answered := byQuestion[q.ID]
			res, err := s.grader.Grade(ctx, q, grading.Response{OptionID: ans.OptionID, Text: ans.TextAnswer})
			if err != nil {
				return err
			}
			results = append(results, res)
			if !answered {
				continue
			}
			var correct *bool
			if !res.NeedsManual {
				v := res.Correct
				correct = &v
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO question_responses (id, attempt_id, question_id, option_id, text_answer, is_correct, answered_at)
				 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
				uuid.NewString(), attemptID, q.ID, nullable(ans.OptionID), nullable(ans.TextAnswer), correct, now.Unix()); err != nil {
				return err
			}
		}

		score := grading.Score(results)
		passed := grading.Passed(score, qz.PassingScore)
		if _, err := tx.ExecContext(ctx,
			`UPDATE quiz_attempts SET finished_at=$1, total_score=$2, passed=$3 WHERE id=$4`,
			now.Unix(), score, passed, attemptID); err != nil {
			return err
		}
		if passed && qz.IsFinal() {
			if err := catalog.MarkCompleted(ctx, tx, userID, qz.CourseID); err != nil {
				return err
			}
		}
		if err := syncx.Append(ctx, tx, syncx.EventAttemptSubmitted, attemptID, map[string]any{
			"quiz_id": a.QuizID, "user_id": userID, "total_score": score, "passed": passed,
		}); err != nil {
			return err
		}

		out, err = getAttempt(ctx, tx, attemptID)
		if err != nil {
			return err
		}
		out.Responses, err = listResponses(ctx, tx, attemptID)
		return err
	})
	if err != nil {
		return Attempt{}, err
	}
	return out, nil
}

// ListAttempts lists attempts newest first, filtered by quiz and/or user.
func (s *SQLStore) ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error) {
	limit := opts.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	var args []any
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	query := attemptSelect + ` WHERE 1=1`
	if opts.QuizID != "" {
		query += ` AND a.quiz_id=` + next(opts.QuizID)
	}
	if opts.UserID != "" {
		query += ` AND a.user_id=` + next(opts.UserID)
	}
	query += ` ORDER BY a.started_at DESC, a.id ASC LIMIT ` + next(limit) + ` OFFSET ` + next(offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Attempt{}
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
