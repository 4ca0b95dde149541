package handler

import (
	"log/slog"
	"net/http"

	"github.com/vowline/vowline/internal/handler/dto"
	"github.com/vowline/vowline/internal/model"
	"github.com/vowline/vowline/internal/service"
)

// LegalFormHandler handles HTTP requests for legal forms.
type LegalFormHandler struct {
	errorResponder
	svc *service.LegalFormService
}

// NewLegalFormHandler creates a new LegalFormHandler.
func NewLegalFormHandler(svc *service.LegalFormService, logger *slog.Logger) *LegalFormHandler {
	return &LegalFormHandler{errorResponder: errorResponder{logger: logger}, svc: svc}
}

// Create handles POST /api/v1/legal-forms.
func (h *LegalFormHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateLegalFormRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	state, err := h.svc.CreateLegalForm(r.Context(), service.CreateLegalFormInput{
		UserID:            userID(r),
		CoupleID:          req.CoupleID,
		CeremonyID:        req.CeremonyID,
		FormType:          model.FormType(req.FormType),
		Status:            model.FormStatus(req.Status),
		DeadlineDate:      dto.DatePtr(req.DeadlineDate),
		SubmittedDate:     dto.DatePtr(req.SubmittedDate),
		ApprovedDate:      dto.DatePtr(req.ApprovedDate),
		ExpiryDate:        dto.DatePtr(req.ExpiryDate),
		DocumentReference: req.DocumentReference,
		Notes:             req.Notes,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ToLegalFormResponse(*state))
}

// Get handles GET /api/v1/legal-forms/{id}.
func (h *LegalFormHandler) Get(w http.ResponseWriter, r *http.Request) {
	state, err := h.svc.GetLegalForm(r.Context(), userID(r), urlID(r))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToLegalFormResponse(*state))
}

// List handles GET /api/v1/legal-forms.
// Filters: couple_id, status, form_type, overdue, expiring_soon.
func (h *LegalFormHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, perPage := pageParams(r)

	overdue, err := boolParam(r, "overdue")
	if err != nil {
		badQuery(w, "overdue")
		return
	}
	expiring, err := boolParam(r, "expiring_soon")
	if err != nil {
		badQuery(w, "expiring_soon")
		return
	}

	result, err := h.svc.ListLegalForms(r.Context(), service.ListLegalFormsInput{
		UserID:       userID(r),
		Page:         page,
		PerPage:      perPage,
		CoupleID:     q.Get("couple_id"),
		Status:       model.FormStatus(q.Get("status")),
		FormType:     model.FormType(q.Get("form_type")),
		Overdue:      overdue,
		ExpiringSoon: expiring,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToPageResponse(result, dto.ToLegalFormResponse))
}

// Alerts handles GET /api/v1/legal-forms/alerts: every overdue or
// expiring-soon form, most urgent first.
func (h *LegalFormHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	states, err := h.svc.Alerts(r.Context(), userID(r))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToLegalFormResponses(states))
}

// Update handles PATCH /api/v1/legal-forms/{id}.
func (h *LegalFormHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateLegalFormRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input := service.UpdateLegalFormInput{
		UserID:            userID(r),
		ID:                urlID(r),
		CeremonyID:        req.CeremonyID.Ptr(),
		ClearCeremonyID:   req.CeremonyID.Cleared(),
		DeadlineDate:      dto.DatePtr(req.DeadlineDate.Ptr()),
		ClearDeadline:     req.DeadlineDate.Cleared(),
		SubmittedDate:     dto.DatePtr(req.SubmittedDate),
		ApprovedDate:      dto.DatePtr(req.ApprovedDate),
		ExpiryDate:        dto.DatePtr(req.ExpiryDate.Ptr()),
		ClearExpiry:       req.ExpiryDate.Cleared(),
		DocumentReference: req.DocumentReference,
		Notes:             req.Notes,
	}
	if req.Status != nil {
		status := model.FormStatus(*req.Status)
		input.Status = &status
	}

	state, err := h.svc.UpdateLegalForm(r.Context(), input)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToLegalFormResponse(*state))
}

// Delete handles DELETE /api/v1/legal-forms/{id}.
func (h *LegalFormHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteLegalForm(r.Context(), userID(r), urlID(r)); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
