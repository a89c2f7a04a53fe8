package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-courses/internal/certificate"
	"github.com/mind-engage/mindengage-courses/internal/httpx"
	"github.com/mind-engage/mindengage-courses/internal/logger"
)

type TemplateStore interface {
	CreateTemplate(ctx context.Context, in certificate.TemplateInput) (certificate.Template, error)
	ListTemplates(ctx context.Context) ([]certificate.Template, error)
	UpdateTemplate(ctx context.Context, id string, patch certificate.TemplatePatch) (certificate.Template, error)
	DeleteTemplate(ctx context.Context, id string) error
}

// GET /api/admin/certificates/templates
func ListTemplatesHandler(templates TemplateStore, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := templates.ListTemplates(r.Context())
		if err != nil {
			fail(log, w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, list)
	}
}

// POST /api/admin/certificates/templates
func CreateTemplateHandler(templates TemplateStore, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in certificate.TemplateInput
		if err := httpx.Decode(r, &in); err != nil {
			httpx.WriteError(w, err)
			return
		}
		t, err := templates.CreateTemplate(r.Context(), in)
		if err != nil {
			fail(log, w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, t)
	}
}

// PATCH /api/admin/certificates/templates/{id}
func UpdateTemplateHandler(templates TemplateStore, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in certificate.TemplatePatch
		if err := httpx.Decode(r, &in); err != nil {
			httpx.WriteError(w, err)
			return
		}
		t, err := templates.UpdateTemplate(r.Context(), chi.URLParam(r, "id"), in)
		if err != nil {
			fail(log, w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, t)
	}
}

// DELETE /api/admin/certificates/templates/{id}
func DeleteTemplateHandler(templates TemplateStore, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := templates.DeleteTemplate(r.Context(), chi.URLParam(r, "id")); err != nil {
			fail(log, w, r, err)
			return
		}
		httpx.OK(w)
	}
}
