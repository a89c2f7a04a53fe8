package catalog

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-courses/internal/apierr"
	"github.com/mind-engage/mindengage-courses/internal/db"
	syncx "github.com/mind-engage/mindengage-courses/internal/sync"
)

const courseCols = `id, title, description, image_url, category, level, tag, archived, instructor_id, created_at`

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(dbh *sql.DB) *SQLStore {
	return &SQLStore{db: dbh}
}

func scanCourse(row interface{ Scan(...any) error }) (Course, error) {
	var c Course
	var created int64
	if err := row.Scan(&c.ID, &c.Title, &c.Description, &c.ImageURL, &c.Category, &c.Level, &c.Tag,
		&c.Archived, &c.InstructorID, &created); err != nil {
		return Course{}, err
	}
	c.CreatedAt = time.Unix(created, 0).UTC()
	return c, nil
}

// position returns the explicit ordering or, when unset, the 1-based index.
func position(explicit, idx int) int {
	if explicit > 0 {
		return explicit
	}
	return idx + 1
}

func lessonType(t string) (string, error) {
	switch t {
	case "":
		return LessonArticle, nil
	case LessonArticle, LessonVideo, LessonImage:
		return t, nil
	}
	return "", apierr.Invalid("lesson type must be one of [article video image]")
}

// CreateCourse inserts the course and its modules and lessons atomically.
func (s *SQLStore) CreateCourse(ctx context.Context, instructorID string, in CourseInput) (Course, error) {
	if strings.TrimSpace(in.Title) == "" {
		return Course{}, apierr.Invalid("title is required")
	}
	c := Course{
		ID:           uuid.NewString(),
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		ImageURL:     in.ImageURL,
		Category:     in.Category,
		Level:        in.Level,
		Tag:          in.Tag,
		InstructorID: instructorID,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
		Modules:      []Module{},
	}
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO courses (`+courseCols+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			c.ID, c.Title, c.Description, c.ImageURL, c.Category, c.Level, c.Tag, false, c.InstructorID, c.CreatedAt.Unix()); err != nil {
			return err
		}
		for i, mi := range in.Modules {
			m := Module{ID: uuid.NewString(), CourseID: c.ID, Title: strings.TrimSpace(mi.Title), Ordering: position(mi.Ordering, i), Lessons: []Lesson{}}
			if m.Title == "" {
				return apierr.Invalid("module title is required")
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO modules (id, course_id, title, ordering) VALUES ($1,$2,$3,$4)`,
				m.ID, m.CourseID, m.Title, m.Ordering); err != nil {
				return err
			}
			for j, li := range mi.Lessons {
				typ, err := lessonType(li.Type)
				if err != nil {
					return err
				}
				l := Lesson{ID: uuid.NewString(), ModuleID: m.ID, Title: strings.TrimSpace(li.Title), Content: li.Content,
					Type: typ, Ordering: position(li.Ordering, j), ImageURL: li.ImageURL}
				if l.Title == "" {
					return apierr.Invalid("lesson title is required")
				}
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO lessons (id, module_id, title, content, type, ordering, image_url) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
					l.ID, l.ModuleID, l.Title, l.Content, l.Type, l.Ordering, l.ImageURL); err != nil {
					return err
				}
				m.Lessons = append(m.Lessons, l)
			}
			c.Modules = append(c.Modules, m)
		}
		return nil
	})
	if err != nil {
		return Course{}, err
	}
	return c, nil
}

// GetCourse returns the course row only.
func (s *SQLStore) GetCourse(ctx context.Context, id string) (Course, error) {
	c, err := scanCourse(s.db.QueryRowContext(ctx, `SELECT `+courseCols+` FROM courses WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Course{}, apierr.NotFound("course")
	}
	return c, err
}

// GetCourseTree returns the course with modules and lessons in ordering order.
func (s *SQLStore) GetCourseTree(ctx context.Context, id string) (Course, error) {
	c, err := s.GetCourse(ctx, id)
	if err != nil {
		return Course{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, course_id, title, ordering FROM modules WHERE course_id=$1 ORDER BY ordering ASC, title ASC`, id)
	if err != nil {
		return Course{}, err
	}
	c.Modules = []Module{}
	idx := map[string]int{}
	for rows.Next() {
		var m Module
		if err := rows.Scan(&m.ID, &m.CourseID, &m.Title, &m.Ordering); err != nil {
			rows.Close()
			return Course{}, err
		}
		m.Lessons = []Lesson{}
		idx[m.ID] = len(c.Modules)
		c.Modules = append(c.Modules, m)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Course{}, err
	}
	if len(c.Modules) == 0 {
		return c, nil
	}

	lrows, err := s.db.QueryContext(ctx,
		`SELECT l.id, l.module_id, l.title, l.content, l.type, l.ordering, l.image_url
		   FROM lessons l JOIN modules m ON m.id = l.module_id
		  WHERE m.course_id=$1
		  ORDER BY l.ordering ASC, l.title ASC`, id)
	if err != nil {
		return Course{}, err
	}
	defer lrows.Close()
	for lrows.Next() {
		var l Lesson
		if err := lrows.Scan(&l.ID, &l.ModuleID, &l.Title, &l.Content, &l.Type, &l.Ordering, &l.ImageURL); err != nil {
			return Course{}, err
		}
		if i, ok := idx[l.ModuleID]; ok {
			c.Modules[i].Lessons = append(c.Modules[i].Lessons, l)
		}
	}
	return c, lrows.Err()
}

// UpdateCourse replaces the course's own columns. The content tree,
// ownership and archive flag are left alone.
func (s *SQLStore) UpdateCourse(ctx context.Context, id string, f CourseFields) (Course, error) {
	if strings.TrimSpace(f.Title) == "" {
		return Course{}, apierr.Invalid("title is required")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE courses SET title=$1, description=$2, image_url=$3, category=$4, level=$5, tag=$6 WHERE id=$7`,
		strings.TrimSpace(f.Title), f.Description, f.ImageURL, f.Category, f.Level, f.Tag, id)
	if err != nil {
		return Course{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Course{}, apierr.NotFound("course")
	}
	return s.GetCourse(ctx, id)
}

// SetArchived toggles the archive flag; modules, lessons and quizzes stay.
func (s *SQLStore) SetArchived(ctx context.Context, id string, archived bool) error {
	return db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE courses SET archived=$1 WHERE id=$2`, archived, id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apierr.NotFound("course")
		}
		typ := syncx.EventCourseUnarchived
		if archived {
			typ = syncx.EventCourseArchived
		}
		return syncx.Append(ctx, tx, typ, id, map[string]any{"archived": archived})
	})
}

// InstructorOf returns the owning instructor id of a course.
func (s *SQLStore) InstructorOf(ctx context.Context, courseID string) (string, error) {
	var owner string
	err := s.db.QueryRowContext(ctx, `SELECT instructor_id FROM courses WHERE id=$1`, courseID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apierr.NotFound("course")
	}
	return owner, err
}

func (s *SQLStore) ListCourses(ctx context.Context, opts ListOpts) ([]Course, error) {
	limit := opts.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	var (
		where []string
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if !opts.IncludeArchived {
		where = append(where, "archived="+next(false))
	}
	if opts.InstructorID != "" {
		where = append(where, "instructor_id="+next(opts.InstructorID))
	}
	if q := strings.ToLower(strings.TrimSpace(opts.Q)); q != "" {
		where = append(where, "LOWER(title) LIKE "+next("%"+q+"%"))
	}
	sqlStr := `SELECT ` + courseCols + ` FROM courses`
	if len(where) > 0 {
		sqlStr += ` WHERE ` + strings.Join(where, " AND ")
	}
	sqlStr += ` ORDER BY created_at DESC, title ASC LIMIT ` + next(limit) + ` OFFSET ` + next(offset)

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
