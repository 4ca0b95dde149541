package handler

import (
	"log/slog"
	"net/http"

	"github.com/vowline/vowline/internal/handler/dto"
	"github.com/vowline/vowline/internal/model"
	"github.com/vowline/vowline/internal/service"
)

// CoupleHandler handles HTTP requests for couples and their sub-resources.
type CoupleHandler struct {
	errorResponder
	svc            *service.CoupleService
	legalForms     *service.LegalFormService
	communications *service.CommunicationService
}

// NewCoupleHandler creates a new CoupleHandler.
func NewCoupleHandler(svc *service.CoupleService, legalForms *service.LegalFormService, communications *service.CommunicationService, logger *slog.Logger) *CoupleHandler {
	return &CoupleHandler{
		errorResponder: errorResponder{logger: logger},
		svc:            svc,
		legalForms:     legalForms,
		communications: communications,
	}
}

// Create handles POST /api/v1/couples.
func (h *CoupleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCoupleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	couple, err := h.svc.CreateCouple(r.Context(), service.CreateCoupleInput{
		UserID:             userID(r),
		Partner1Name:       req.Partner1Name,
		Partner1Email:      req.Partner1Email,
		Partner1Phone:      req.Partner1Phone,
		Partner2Name:       req.Partner2Name,
		Partner2Email:      req.Partner2Email,
		Partner2Phone:      req.Partner2Phone,
		Status:             model.CoupleStatus(req.Status),
		LeadSource:         req.LeadSource,
		Tags:               req.Tags,
		WeddingDate:        dto.DatePtr(req.WeddingDate),
		Notes:              req.Notes,
		CreateDefaultForms: req.CreateDefaultForms,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ToCoupleResponse(couple))
}

// Get handles GET /api/v1/couples/{id}.
func (h *CoupleHandler) Get(w http.ResponseWriter, r *http.Request) {
	couple, err := h.svc.GetCouple(r.Context(), userID(r), urlID(r))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToCoupleResponse(couple))
}

// List handles GET /api/v1/couples.
// Filters: status, q (partner names and emails), tag, lead_source.
func (h *CoupleHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, perPage := pageParams(r)

	result, err := h.svc.ListCouples(r.Context(), service.ListCouplesInput{
		UserID:     userID(r),
		Page:       page,
		PerPage:    perPage,
		Status:     model.CoupleStatus(q.Get("status")),
		Query:      q.Get("q"),
		Tag:        q.Get("tag"),
		LeadSource: q.Get("lead_source"),
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToPageResponse(result, dto.ToCoupleResponse))
}

// Update handles PATCH /api/v1/couples/{id}.
func (h *CoupleHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateCoupleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input := service.UpdateCoupleInput{
		UserID:           userID(r),
		ID:               urlID(r),
		Partner1Name:     req.Partner1Name,
		Partner1Email:    req.Partner1Email,
		Partner1Phone:    req.Partner1Phone,
		Partner2Name:     req.Partner2Name,
		Partner2Email:    req.Partner2Email,
		Partner2Phone:    req.Partner2Phone,
		LeadSource:       req.LeadSource,
		Tags:             req.Tags,
		WeddingDate:      dto.DatePtr(req.WeddingDate.Ptr()),
		ClearWeddingDate: req.WeddingDate.Cleared(),
		Notes:            req.Notes,
	}
	if req.Status != nil {
		status := model.CoupleStatus(*req.Status)
		input.Status = &status
	}

	couple, err := h.svc.UpdateCouple(r.Context(), input)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToCoupleResponse(couple))
}

// Delete handles DELETE /api/v1/couples/{id}.
func (h *CoupleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteCouple(r.Context(), userID(r), urlID(r)); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Compliance handles GET /api/v1/couples/{id}/compliance.
func (h *CoupleHandler) Compliance(w http.ResponseWriter, r *http.Request) {
	summary, err := h.legalForms.Compliance(r.Context(), userID(r), urlID(r))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToComplianceResponse(summary))
}

// ListCommunications handles GET /api/v1/couples/{id}/communications.
func (h *CoupleHandler) ListCommunications(w http.ResponseWriter, r *http.Request) {
	page, perPage := pageParams(r)

	result, err := h.communications.ListCoupleCommunications(r.Context(), userID(r), urlID(r), page, perPage)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToPageResponse(result, dto.ToCommunicationResponse))
}

// CreateCommunication handles POST /api/v1/couples/{id}/communications.
func (h *CoupleHandler) CreateCommunication(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCommunicationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	entry, err := h.communications.CreateCommunication(r.Context(), service.CreateCommunicationInput{
		UserID:     userID(r),
		CoupleID:   urlID(r),
		Channel:    model.Channel(req.Channel),
		Direction:  model.Direction(req.Direction),
		Subject:    req.Subject,
		Body:       req.Body,
		OccurredAt: req.OccurredAt,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ToCommunicationResponse(entry))
}
