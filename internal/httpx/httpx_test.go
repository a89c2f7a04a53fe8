package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mind-engage/mindengage-courses/internal/apierr"
)

type saveReq struct {
	CourseID     string  `json:"course_id" validate:"required"`
	Title        string  `json:"title" validate:"required"`
	ModuleID     *string `json:"module_id"`
	PassingScore *int    `json:"passing_score" validate:"omitempty,min=0,max=100"`
}

func decode(t *testing.T, body string) (saveReq, error) {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	var req saveReq
	err := Decode(r, &req)
	return req, err
}

func TestDecodeTrimsAndValidates(t *testing.T) {
	req, err := decode(t, `{"course_id":" c1 ","title":"  Quiz A  ","module_id":" m1 "}`)
	if err != nil {
		t.Fatal(err)
	}
	if req.CourseID != "c1" || req.Title != "Quiz A" || *req.ModuleID != "m1" {
		t.Fatalf("not trimmed: %+v", req)
	}
}

func TestDecodeBlankTitle(t *testing.T) {
	_, err := decode(t, `{"course_id":"c1","title":"   "}`)
	if apierr.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("err = %v", err)
	}
	if err.Error() != "title is required" {
		t.Fatalf("message = %q", err.Error())
	}
}

func TestDecodeRange(t *testing.T) {
	_, err := decode(t, `{"course_id":"c1","title":"t","passing_score":101}`)
	if err == nil || err.Error() != "passing_score must be at most 100" {
		t.Fatalf("err = %v", err)
	}
}

func TestDecodeBadJSON(t *testing.T) {
	_, err := decode(t, `{"course_id":`)
	if apierr.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("err = %v", err)
	}
	_, err = decode(t, ``)
	if err == nil || err.Error() != "request body is empty" {
		t.Fatalf("err = %v", err)
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, apierr.NotFound("quiz"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("code = %d", rec.Code)
	}
	var body ErrorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Error != "quiz not found" {
		t.Fatalf("body = %+v", body)
	}

	rec = httptest.NewRecorder()
	WriteError(rec, errors.New("connection reset"))
	if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), "connection reset") {
		t.Fatalf("500 passthrough: %d %s", rec.Code, rec.Body.String())
	}
}
