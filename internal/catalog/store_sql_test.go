package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/mind-engage/mindengage-courses/internal/apierr"
	"github.com/mind-engage/mindengage-courses/internal/db/dbtest"
	syncx "github.com/mind-engage/mindengage-courses/internal/sync"
)

func sampleInput() CourseInput {
	return CourseInput{
		CourseFields: CourseFields{Title: "Go Basics", Category: "programming", Level: "beginner"},
		Modules: []ModuleInput{
			{Title: "Second", Ordering: 2, Lessons: []LessonInput{{Title: "Channels", Type: "video"}}},
			{Title: "First", Ordering: 1, Lessons: []LessonInput{
				{Title: "Types", Ordering: 2},
				{Title: "Hello", Ordering: 1, Type: "image", ImageURL: "/files/x.png"},
			}},
		},
	}
}

func TestCreateAndTree(t *testing.T) {
	s := NewSQLStore(dbtest.Open(t))
	ctx := context.Background()

	c, err := s.CreateCourse(ctx, "tutor-1", sampleInput())
	if err != nil {
		t.Fatal(err)
	}
	if c.InstructorID != "tutor-1" || c.Archived {
		t.Fatalf("created: %+v", c)
	}

	tree, err := s.GetCourseTree(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(tree.Modules) != 2 || tree.Modules[0].Title != "First" || tree.Modules[1].Title != "Second" {
		t.Fatalf("module order: %+v", tree.Modules)
	}
	first := tree.Modules[0].Lessons
	if len(first) != 2 || first[0].Title != "Hello" || first[1].Title != "Types" {
		t.Fatalf("lesson order: %+v", first)
	}
	if first[1].Type != LessonArticle {
		t.Fatalf("default lesson type = %q", first[1].Type)
	}
}

func TestCreateRejectsBadLessonTypeAtomically(t *testing.T) {
	dbh := dbtest.Open(t)
	s := NewSQLStore(dbh)
	ctx := context.Background()

	in := sampleInput()
	in.Modules[1].Lessons[0].Type = "podcast"
	if _, err := s.CreateCourse(ctx, "tutor-1", in); !errors.Is(err, apierr.ErrInvalid) {
		t.Fatalf("err = %v", err)
	}
	var n int
	if err := dbh.QueryRow(`SELECT COUNT(*) FROM courses`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("partial course left behind: %d rows", n)
	}
}

func TestUpdateArchiveList(t *testing.T) {
	dbh := dbtest.Open(t)
	s := NewSQLStore(dbh)
	ctx := context.Background()

	c, err := s.CreateCourse(ctx, "tutor-1", sampleInput())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateCourse(ctx, "tutor-2", CourseInput{CourseFields: CourseFields{Title: "Rust"}}); err != nil {
		t.Fatal(err)
	}

	up, err := s.UpdateCourse(ctx, c.ID, CourseFields{Title: "Go Basics II", Tag: "new"})
	if err != nil {
		t.Fatal(err)
	}
	if up.Title != "Go Basics II" || up.Category != "" || up.InstructorID != "tutor-1" {
		t.Fatalf("update: %+v", up)
	}
	if _, err := s.UpdateCourse(ctx, "missing", CourseFields{Title: "x"}); !errors.Is(err, apierr.ErrNotFound) {
		t.Fatalf("missing update: %v", err)
	}

	if err := s.SetArchived(ctx, c.ID, true); err != nil {
		t.Fatal(err)
	}
	visible, err := s.ListCourses(ctx, ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(visible) != 1 || visible[0].Title != "Rust" {
		t.Fatalf("archived course listed: %+v", visible)
	}
	all, err := s.ListCourses(ctx, ListOpts{IncludeArchived: true, InstructorID: "tutor-1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 || !all[0].Archived {
		t.Fatalf("include archived: %+v", all)
	}

	tree, err := s.GetCourseTree(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(tree.Modules) != 2 {
		t.Fatalf("archive touched children: %+v", tree.Modules)
	}

	events, err := syncx.NewEventRepo(dbh).Since(ctx, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Type != syncx.EventCourseArchived || events[0].Key != c.ID {
		t.Fatalf("events: %+v", events)
	}

	owner, err := s.InstructorOf(ctx, c.ID)
	if err != nil || owner != "tutor-1" {
		t.Fatalf("owner = %q, %v", owner, err)
	}
}

func TestEnrollAndDashboard(t *testing.T) {
	dbh := dbtest.Open(t)
	s := NewSQLStore(dbh)
	ctx := context.Background()

	c, err := s.CreateCourse(ctx, "tutor-1", sampleInput())
	if err != nil {
		t.Fatal(err)
	}
	e1, created, err := s.Enroll(ctx, "u1", c.ID)
	if err != nil || !created {
		t.Fatalf("enroll: %v created=%v", err, created)
	}
	e2, created, err := s.Enroll(ctx, "u1", c.ID)
	if err != nil || created || e2.ID != e1.ID {
		t.Fatalf("second enroll not idempotent: %+v %v %v", e2, created, err)
	}
	if _, _, err := s.Enroll(ctx, "u1", "nope"); !errors.Is(err, apierr.ErrNotFound) {
		t.Fatalf("missing course: %v", err)
	}

	if err := s.SetArchived(ctx, c.ID, true); err != nil {
		t.Fatal(err)
	}
	if _, _, err := s.Enroll(ctx, "u2", c.ID); !errors.Is(err, apierr.ErrInvalid) {
		t.Fatalf("archived enroll: %v", err)
	}

	dbtest.Exec(t, dbh, `INSERT INTO certificates_issued (id, attempt_id, user_id, course_id, certificate_url, issued_at)
		VALUES ('cert1', NULL, 'u1', '`+c.ID+`', '/files/certificates/cert1.png', 1)`)
	dash, err := s.Dashboard(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(dash) != 1 || !dash[0].HasCertificate || dash[0].CourseTitle != "Go Basics" || !dash[0].Archived {
		t.Fatalf("dashboard: %+v", dash)
	}

	ok, err := s.IsEnrolled(ctx, "u1", c.ID)
	if err != nil || !ok {
		t.Fatalf("enrolled = %v, %v", ok, err)
	}
	if err := MarkCompleted(ctx, dbh, "u1", c.ID); err != nil {
		t.Fatal(err)
	}
	dash, _ = s.Dashboard(ctx, "u1")
	if dash[0].Status != EnrollmentCompleted {
		t.Fatalf("status = %q", dash[0].Status)
	}
}
