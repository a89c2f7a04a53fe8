package quiz

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/mind-engage/mindengage-courses/internal/apierr"
	"github.com/mind-engage/mindengage-courses/internal/db/dbtest"
)

func intp(v int) *int       { return &v }
func strp(v string) *string { return &v }

func seed(t *testing.T) (*sql.DB, *SQLStore) {
	t.Helper()
	dbh := dbtest.Open(t)
	dbtest.Exec(t, dbh,
		`INSERT INTO courses (id, title, instructor_id, created_at) VALUES ('c1', 'Course', 'tutor-1', 1)`,
		`INSERT INTO courses (id, title, instructor_id, created_at) VALUES ('c2', 'Other', 'tutor-1', 1)`,
		`INSERT INTO modules (id, course_id, title, ordering) VALUES ('m1', 'c1', 'Intro', 1)`,
		`INSERT INTO enrollments (id, user_id, course_id, status, enrolled_at) VALUES ('e1', 'u1', 'c1', 'active', 1)`,
	)
	return dbh, NewSQLStore(dbh)
}

func TestSaveQuizInsertAndUpdate(t *testing.T) {
	_, s := seed(t)
	ctx := context.Background()

	id, created, err := s.SaveQuiz(ctx, SaveInput{CourseID: "c1", Title: "Quiz A", PassingScore: intp(70)})
	if err != nil || !created || id == "" {
		t.Fatalf("insert: %q %v %v", id, created, err)
	}
	q, err := s.GetQuiz(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if q.ModuleID != nil || !q.IsFinal() || q.PassingScore != 70 {
		t.Fatalf("final quiz: %+v", q)
	}

	mid, _, err := s.SaveQuiz(ctx, SaveInput{CourseID: "c1", ModuleID: strp("m1"), Title: "Module quiz"})
	if err != nil {
		t.Fatal(err)
	}
	mq, _ := s.GetQuiz(ctx, mid)
	if mq.ModuleID == nil || *mq.ModuleID != "m1" || mq.PassingScore != DefaultPassingScore {
		t.Fatalf("module quiz: %+v", mq)
	}

	again, created, err := s.SaveQuiz(ctx, SaveInput{ID: id, CourseID: "c2", ModuleID: strp("m1"), Title: "Renamed", Description: "d", PassingScore: intp(50)})
	if err != nil || created || again != id {
		t.Fatalf("update: %q %v %v", again, created, err)
	}
	q, _ = s.GetQuiz(ctx, id)
	if q.Title != "Renamed" || q.Description != "d" || q.PassingScore != 50 || q.CourseID != "c1" || q.ModuleID != nil {
		t.Fatalf("update touched scope or missed fields: %+v", q)
	}
}

func TestSaveQuizErrors(t *testing.T) {
	_, s := seed(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   SaveInput
		want error
	}{
		{"blank title", SaveInput{CourseID: "c1", Title: "   "}, apierr.ErrInvalid},
		{"blank course", SaveInput{CourseID: " ", Title: "x"}, apierr.ErrInvalid},
		{"score range", SaveInput{CourseID: "c1", Title: "x", PassingScore: intp(101)}, apierr.ErrInvalid},
		{"unknown id", SaveInput{ID: "nope", CourseID: "c1", Title: "x"}, apierr.ErrNotFound},
		{"unknown course", SaveInput{CourseID: "zz", Title: "x"}, apierr.ErrNotFound},
		{"foreign module", SaveInput{CourseID: "c2", ModuleID: strp("m1"), Title: "x"}, apierr.ErrInvalid},
	}
	for _, tc := range cases {
		if _, _, err := s.SaveQuiz(ctx, tc.in); !errors.Is(err, tc.want) {
			t.Fatalf("%s: err = %v", tc.name, err)
		}
	}

	if _, _, err := s.SaveQuiz(ctx, SaveInput{CourseID: "c1", Title: "Final"}); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.SaveQuiz(ctx, SaveInput{CourseID: "c1", Title: "Second final"}); !errors.Is(err, apierr.ErrConflict) {
		t.Fatalf("second final: %v", err)
	}
}

func TestIncrementalAuthoringAndEditor(t *testing.T) {
	dbh, s := seed(t)
	ctx := context.Background()
	id, _, err := s.SaveQuiz(ctx, SaveInput{CourseID: "c1", Title: "Quiz"})
	if err != nil {
		t.Fatal(err)
	}

	q2, err := s.AddQuestion(ctx, id, QuestionInput{Type: TypeMultipleChoice, PromptHTML: "<p>2+2?</p>", Ordering: 2})
	if err != nil {
		t.Fatal(err)
	}
	q1, err := s.AddQuestion(ctx, id, QuestionInput{Type: TypeTrueFalse, PromptHTML: "<p>Go is compiled</p>", Ordering: 1})
	if err != nil {
		t.Fatal(err)
	}
	sa, err := s.AddQuestion(ctx, id, QuestionInput{Type: TypeShortAnswer, PromptHTML: "<p>Why?</p>"})
	if err != nil {
		t.Fatal(err)
	}
	if sa.Ordering != 3 {
		t.Fatalf("appended ordering = %d", sa.Ordering)
	}
	if _, err := s.AddQuestion(ctx, id, QuestionInput{Type: "essay"}); !errors.Is(err, apierr.ErrInvalid) {
		t.Fatalf("bad type: %v", err)
	}
	if _, err := s.AddQuestion(ctx, "missing", QuestionInput{Type: TypeTrueFalse}); !errors.Is(err, apierr.ErrNotFound) {
		t.Fatalf("missing quiz: %v", err)
	}

	if _, err := s.AddOption(ctx, id, q2.ID, OptionInput{Text: "5", Ordering: 2}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddOption(ctx, id, q2.ID, OptionInput{Text: "4", IsCorrect: true, Ordering: 1}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddOption(ctx, id, q2.ID, OptionInput{Text: "four", IsCorrect: true}); !errors.Is(err, apierr.ErrInvalid) {
		t.Fatalf("second correct: %v", err)
	}
	if _, err := s.AddOption(ctx, id, sa.ID, OptionInput{Text: "x"}); !errors.Is(err, apierr.ErrInvalid) {
		t.Fatalf("short answer option: %v", err)
	}
	if _, err := s.AddOption(ctx, "other", q2.ID, OptionInput{Text: "x"}); !errors.Is(err, apierr.ErrNotFound) {
		t.Fatalf("question of another quiz: %v", err)
	}
	if _, err := s.AddOption(ctx, id, q1.ID, OptionInput{Text: "True", IsCorrect: true}); err != nil {
		t.Fatal(err)
	}

	// Stored options on a short-answer question never reach the editor.
	dbtest.Exec(t, dbh, `INSERT INTO quiz_options (id, question_id, text, is_correct, ordering) VALUES ('stray', '`+sa.ID+`', 'leak', 1, 1)`)

	ed, err := s.LoadEditor(ctx, id, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(ed.Questions) != 3 || ed.Questions[0].ID != q1.ID || ed.Questions[1].ID != q2.ID || ed.Questions[2].ID != sa.ID {
		t.Fatalf("question order: %+v", ed.Questions)
	}
	opts := ed.Questions[1].Options
	if len(opts) != 2 || opts[0].Text != "4" || !opts[0].IsCorrect || opts[1].Text != "5" {
		t.Fatalf("option order: %+v", opts)
	}
	if got := ed.Questions[2].Options; got == nil || len(got) != 0 {
		t.Fatalf("short answer options: %+v", got)
	}

	public := ed.WithoutAnswers()
	if public.Questions[1].Options[0].IsCorrect || !ed.Questions[1].Options[0].IsCorrect {
		t.Fatal("WithoutAnswers must copy and strip")
	}
}

func TestLoadEditorFinalFilter(t *testing.T) {
	_, s := seed(t)
	ctx := context.Background()
	mid, _, err := s.SaveQuiz(ctx, SaveInput{CourseID: "c1", ModuleID: strp("m1"), Title: "Module quiz"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.LoadEditor(ctx, mid, true); !errors.Is(err, apierr.ErrNotFound) {
		t.Fatalf("module quiz as final: %v", err)
	}
	if _, err := s.LoadEditor(ctx, mid, false); err != nil {
		t.Fatal(err)
	}
}

func graph() GraphInput {
	return GraphInput{
		Title:        "Final exam",
		PassingScore: intp(50),
		Questions: []GraphQuestion{
			{QuestionInput: QuestionInput{Type: TypeMultipleChoice, PromptHTML: "2+2"}, Options: []OptionInput{
				{Text: "3"}, {Text: "4", IsCorrect: true},
			}},
			{QuestionInput: QuestionInput{Type: TypeTrueFalse, PromptHTML: "Sky is blue"}, Options: []OptionInput{
				{Text: "True", IsCorrect: true}, {Text: "False"},
			}},
			{QuestionInput: QuestionInput{Type: TypeShortAnswer, PromptHTML: "Explain"}},
		},
	}
}

func TestSaveGraph(t *testing.T) {
	dbh, s := seed(t)
	ctx := context.Background()
	id, _, err := s.SaveQuiz(ctx, SaveInput{CourseID: "c1", Title: "Quiz"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddQuestion(ctx, id, QuestionInput{Type: TypeShortAnswer}); err != nil {
		t.Fatal(err)
	}

	ed, err := s.SaveGraph(ctx, id, graph())
	if err != nil {
		t.Fatal(err)
	}
	if ed.Title != "Final exam" || ed.PassingScore != 50 || len(ed.Questions) != 3 {
		t.Fatalf("graph: %+v", ed)
	}
	if ed.Questions[0].Ordering != 1 || ed.Questions[2].Ordering != 3 || ed.Questions[0].Options[1].Ordering != 2 {
		t.Fatalf("default ordering: %+v", ed.Questions)
	}

	bad := graph()
	bad.Title = "Broken"
	bad.Questions[1].Options[1].IsCorrect = true
	if _, err := s.SaveGraph(ctx, id, bad); !errors.Is(err, apierr.ErrInvalid) {
		t.Fatalf("two correct: %v", err)
	}
	bad = graph()
	bad.Questions[0].Options[1].IsCorrect = false
	if _, err := s.SaveGraph(ctx, id, bad); !errors.Is(err, apierr.ErrInvalid) {
		t.Fatalf("no correct: %v", err)
	}
	if _, err := s.SaveGraph(ctx, "missing", graph()); !errors.Is(err, apierr.ErrNotFound) {
		t.Fatalf("missing quiz: %v", err)
	}

	after, err := s.LoadEditor(ctx, id, false)
	if err != nil {
		t.Fatal(err)
	}
	if after.Title != "Final exam" || len(after.Questions) != 3 {
		t.Fatalf("failed save changed the quiz: %+v", after)
	}
	var n int
	if err := dbh.QueryRow(`SELECT COUNT(*) FROM quiz_options`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Fatalf("options = %d", n)
	}
}

func TestAttemptLifecycle(t *testing.T) {
	dbh, s := seed(t)
	ctx := context.Background()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	id, _, err := s.SaveQuiz(ctx, SaveInput{CourseID: "c1", Title: "Quiz"})
	if err != nil {
		t.Fatal(err)
	}
	ed, err := s.SaveGraph(ctx, id, graph())
	if err != nil {
		t.Fatal(err)
	}
	mc, tf, sa := ed.Questions[0], ed.Questions[1], ed.Questions[2]

	if _, err := s.StartAttempt(ctx, "missing", "u1"); !errors.Is(err, apierr.ErrNotFound) {
		t.Fatalf("missing quiz: %v", err)
	}
	a, err := s.StartAttempt(ctx, id, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if !a.StartedAt.Equal(fixed) || a.Finished() || !a.Final || a.CourseID != "c1" {
		t.Fatalf("started: %+v", a)
	}

	answers := []Answer{
		{QuestionID: mc.ID, OptionID: mc.Options[1].ID},
		{QuestionID: tf.ID, OptionID: tf.Options[1].ID},
		{QuestionID: sa.ID, TextAnswer: "because"},
	}
	if _, err := s.SubmitAttempt(ctx, a.ID, "u2", answers); !errors.Is(err, apierr.ErrForbidden) {
		t.Fatalf("foreign submit: %v", err)
	}
	if _, err := s.SubmitAttempt(ctx, a.ID, "u1", []Answer{{QuestionID: "bogus"}}); !errors.Is(err, apierr.ErrInvalid) {
		t.Fatalf("unknown question: %v", err)
	}

	done, err := s.SubmitAttempt(ctx, a.ID, "u1", answers)
	if err != nil {
		t.Fatal(err)
	}
	if done.TotalScore == nil || *done.TotalScore != 50 || done.Passed == nil || !*done.Passed || !done.PassedFinal() {
		t.Fatalf("graded: %+v", done)
	}
	if len(done.Responses) != 3 {
		t.Fatalf("responses: %+v", done.Responses)
	}
	for _, r := range done.Responses {
		if r.QuestionID == sa.ID && r.IsCorrect != nil {
			t.Fatalf("short answer graded: %+v", r)
		}
		if r.QuestionID == tf.ID && (r.IsCorrect == nil || *r.IsCorrect) {
			t.Fatalf("wrong true_false: %+v", r)
		}
	}

	if _, err := s.SubmitAttempt(ctx, a.ID, "u1", answers); !errors.Is(err, apierr.ErrConflict) {
		t.Fatalf("resubmit: %v", err)
	}

	var status string
	if err := dbh.QueryRow(`SELECT status FROM enrollments WHERE id='e1'`).Scan(&status); err != nil {
		t.Fatal(err)
	}
	if status != "completed" {
		t.Fatalf("enrollment status = %q", status)
	}

	got, err := s.GetAttempt(ctx, a.ID)
	if err != nil || got.FinishedAt == nil || !got.FinishedAt.Equal(fixed) {
		t.Fatalf("get: %+v %v", got, err)
	}
	list, err := s.ListAttempts(ctx, AttemptListOpts{QuizID: id, UserID: "u1"})
	if err != nil || len(list) != 1 {
		t.Fatalf("list: %+v %v", list, err)
	}
}

func TestSubmitUnansweredCountsWrong(t *testing.T) {
	_, s := seed(t)
	ctx := context.Background()
	id, _, _ := s.SaveQuiz(ctx, SaveInput{CourseID: "c1", Title: "Quiz"})
	if _, err := s.SaveGraph(ctx, id, graph()); err != nil {
		t.Fatal(err)
	}
	a, err := s.StartAttempt(ctx, id, "u9")
	if err != nil {
		t.Fatal(err)
	}
	done, err := s.SubmitAttempt(ctx, a.ID, "u9", nil)
	if err != nil {
		t.Fatal(err)
	}
	if *done.TotalScore != 0 || *done.Passed || len(done.Responses) != 0 {
		t.Fatalf("empty submit: %+v", done)
	}
}
