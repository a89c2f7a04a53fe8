package certificate

import "time"

// Template positions the recipient name, course title and issue date on a
// background image. At most one template is active at a time.
type Template struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ImageURL  string    `json:"image_url"`
	NameX     int       `json:"name_x"`
	NameY     int       `json:"name_y"`
	CourseX   int       `json:"course_x"`
	CourseY   int       `json:"course_y"`
	DateX     int       `json:"date_x"`
	DateY     int       `json:"date_y"`
	FontSize  int       `json:"font_size"`
	FontColor string    `json:"font_color"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type TemplateInput struct {
	Name      string `json:"name" validate:"required"`
	ImageURL  string `json:"image_url"`
	NameX     int    `json:"name_x" validate:"min=0"`
	NameY     int    `json:"name_y" validate:"min=0"`
	CourseX   int    `json:"course_x" validate:"min=0"`
	CourseY   int    `json:"course_y" validate:"min=0"`
	DateX     int    `json:"date_x" validate:"min=0"`
	DateY     int    `json:"date_y" validate:"min=0"`
	FontSize  int    `json:"font_size" validate:"omitempty,min=6,max=400"`
	FontColor string `json:"font_color" validate:"omitempty,hexcolor"`
	IsActive  bool   `json:"is_active"`
}

// TemplatePatch is a partial update; nil fields are left alone.
type TemplatePatch struct {
	Name      *string `json:"name"`
	ImageURL  *string `json:"image_url"`
	NameX     *int    `json:"name_x" validate:"omitempty,min=0"`
	NameY     *int    `json:"name_y" validate:"omitempty,min=0"`
	CourseX   *int    `json:"course_x" validate:"omitempty,min=0"`
	CourseY   *int    `json:"course_y" validate:"omitempty,min=0"`
	DateX     *int    `json:"date_x" validate:"omitempty,min=0"`
	DateY     *int    `json:"date_y" validate:"omitempty,min=0"`
	FontSize  *int    `json:"font_size" validate:"omitempty,min=6,max=400"`
	FontColor *string `json:"font_color" validate:"omitempty,hexcolor"`
	IsActive  *bool   `json:"is_active"`
}

type Certificate struct {
	ID             string    `json:"id"`
	AttemptID      *string   `json:"attempt_id"`
	UserID         string    `json:"user_id"`
	CourseID       string    `json:"course_id"`
	CertificateURL string    `json:"certificate_url"`
	IssuedAt       time.Time `json:"issued_at"`
}
