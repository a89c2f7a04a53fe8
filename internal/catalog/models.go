package catalog

import "time"

const (
	LessonArticle = "article"
	LessonVideo   = "video"
	LessonImage   = "image"
)

type Course struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ImageURL     string    `json:"image_url"`
	Category     string    `json:"category"`
	Level        string    `json:"level"`
	Tag          string    `json:"tag"`
	Archived     bool      `json:"archived"`
	InstructorID string    `json:"instructor_id"`
	CreatedAt    time.Time `json:"created_at"`

	Modules []Module `json:"modules,omitempty"`
}

type Module struct {
	ID       string   `json:"id"`
	CourseID string   `json:"course_id"`
	Title    string   `json:"title"`
	Ordering int      `json:"ordering"`
	Lessons  []Lesson `json:"lessons"`
}

type Lesson struct {
	ID       string `json:"id"`
	ModuleID string `json:"module_id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Type     string `json:"type"`
	Ordering int    `json:"ordering"`
	ImageURL string `json:"image_url"`
}

// CourseFields are the replaceable columns of a course row.
type CourseFields struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	Category    string `json:"category"`
	Level       string `json:"level"`
	Tag         string `json:"tag"`
}

// CourseInput creates a course together with its content tree.
type CourseInput struct {
	CourseFields
	Modules []ModuleInput `json:"modules" validate:"dive"`
}

type ModuleInput struct {
	Title    string        `json:"title" validate:"required"`
	Ordering int           `json:"ordering" validate:"min=0"`
	Lessons  []LessonInput `json:"lessons" validate:"dive"`
}

type LessonInput struct {
	Title    string `json:"title" validate:"required"`
	Content  string `json:"content"`
	Type     string `json:"type" validate:"omitempty,oneof=article video image"`
	Ordering int    `json:"ordering" validate:"min=0"`
	ImageURL string `json:"image_url"`
}

type ListOpts struct {
	InstructorID    string
	IncludeArchived bool
	Q               string
	Limit           int
	Offset          int
}

const (
	EnrollmentActive    = "active"
	EnrollmentCompleted = "completed"
	EnrollmentDropped   = "dropped"
)

type Enrollment struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	CourseID   string    `json:"course_id"`
	Status     string    `json:"status"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

// DashboardEntry is one enrollment as shown on a learner's dashboard.
type DashboardEntry struct {
	Enrollment
	CourseTitle    string `json:"course_title"`
	CourseImageURL string `json:"course_image_url"`
	Archived       bool   `json:"archived"`
	CertificateURL string `json:"certificate_url,omitempty"`
	HasCertificate bool   `json:"has_certificate"`
}
