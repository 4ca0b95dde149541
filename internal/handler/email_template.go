package handler

import (
	"log/slog"
	"net/http"

	"github.com/vowline/vowline/internal/handler/dto"
	"github.com/vowline/vowline/internal/service"
)

// EmailTemplateHandler handles HTTP requests for email templates.
type EmailTemplateHandler struct {
	errorResponder
	svc *service.EmailTemplateService
}

// NewEmailTemplateHandler creates a new EmailTemplateHandler.
func NewEmailTemplateHandler(svc *service.EmailTemplateService, logger *slog.Logger) *EmailTemplateHandler {
	return &EmailTemplateHandler{errorResponder: errorResponder{logger: logger}, svc: svc}
}

// Create handles POST /api/v1/email-templates.
func (h *EmailTemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateEmailTemplateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tmpl, err := h.svc.CreateEmailTemplate(r.Context(), service.CreateEmailTemplateInput{
		UserID:   userID(r),
		Name:     req.Name,
		Category: req.Category,
		Subject:  req.Subject,
		Body:     req.Body,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ToEmailTemplateResponse(tmpl))
}

// Get handles GET /api/v1/email-templates/{id}.
func (h *EmailTemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	tmpl, err := h.svc.GetEmailTemplate(r.Context(), userID(r), urlID(r))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToEmailTemplateResponse(tmpl))
}

// List handles GET /api/v1/email-templates.
// Filters: category, q (name).
func (h *EmailTemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, perPage := pageParams(r)

	result, err := h.svc.ListEmailTemplates(r.Context(), service.ListEmailTemplatesInput{
		UserID:   userID(r),
		Page:     page,
		PerPage:  perPage,
		Category: q.Get("category"),
		Query:    q.Get("q"),
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToPageResponse(result, dto.ToEmailTemplateResponse))
}

// Update handles PATCH /api/v1/email-templates/{id}.
func (h *EmailTemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateEmailTemplateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tmpl, err := h.svc.UpdateEmailTemplate(r.Context(), service.UpdateEmailTemplateInput{
		UserID:   userID(r),
		ID:       urlID(r),
		Name:     req.Name,
		Category: req.Category,
		Subject:  req.Subject,
		Body:     req.Body,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToEmailTemplateResponse(tmpl))
}

// Delete handles DELETE /api/v1/email-templates/{id}.
func (h *EmailTemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteEmailTemplate(r.Context(), userID(r), urlID(r)); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Render handles POST /api/v1/email-templates/{id}/render.
func (h *EmailTemplateHandler) Render(w http.ResponseWriter, r *http.Request) {
	var req dto.RenderEmailTemplateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rendered, err := h.svc.Render(r.Context(), service.RenderInput{
		UserID:     userID(r),
		TemplateID: urlID(r),
		CoupleID:   req.CoupleID,
		Log:        req.Log,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToRenderedEmailResponse(rendered))
}
