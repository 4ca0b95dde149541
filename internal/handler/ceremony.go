package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/vowline/vowline/internal/handler/dto"
	"github.com/vowline/vowline/internal/model"
	"github.com/vowline/vowline/internal/service"
)

// CeremonyHandler handles HTTP requests for ceremonies.
type CeremonyHandler struct {
	errorResponder
	svc *service.CeremonyService
}

// NewCeremonyHandler creates a new CeremonyHandler.
func NewCeremonyHandler(svc *service.CeremonyService, logger *slog.Logger) *CeremonyHandler {
	return &CeremonyHandler{errorResponder: errorResponder{logger: logger}, svc: svc}
}

// Create handles POST /api/v1/ceremonies.
func (h *CeremonyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCeremonyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input := service.CreateCeremonyInput{
		UserID:       userID(r),
		CoupleID:     req.CoupleID,
		VenueName:    req.VenueName,
		VenueAddress: req.VenueAddress,
		CeremonyType: req.CeremonyType,
		Status:       model.CeremonyStatus(req.Status),
		FeeCents:     int64(req.Fee),
		Notes:        req.Notes,
	}
	if req.CeremonyDate != nil {
		input.CeremonyDate = *req.CeremonyDate
	}

	ceremony, err := h.svc.CreateCeremony(r.Context(), input)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ToCeremonyResponse(ceremony))
}

// Get handles GET /api/v1/ceremonies/{id}.
func (h *CeremonyHandler) Get(w http.ResponseWriter, r *http.Request) {
	ceremony, err := h.svc.GetCeremony(r.Context(), userID(r), urlID(r))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToCeremonyResponse(ceremony))
}

// List handles GET /api/v1/ceremonies.
// Filters: couple_id, status, from, to (RFC 3339 or YYYY-MM-DD), upcoming.
func (h *CeremonyHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, perPage := pageParams(r)

	input := service.ListCeremoniesInput{
		UserID:   userID(r),
		Page:     page,
		PerPage:  perPage,
		CoupleID: q.Get("couple_id"),
		Status:   model.CeremonyStatus(q.Get("status")),
	}

	var err error
	if input.From, err = instantParam(r, "from"); err != nil {
		badQuery(w, "from")
		return
	}
	if input.To, err = instantParam(r, "to"); err != nil {
		badQuery(w, "to")
		return
	}
	if input.Upcoming, err = boolParam(r, "upcoming"); err != nil {
		badQuery(w, "upcoming")
		return
	}

	result, err := h.svc.ListCeremonies(r.Context(), input)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToPageResponse(result, dto.ToCeremonyResponse))
}

// Update handles PATCH /api/v1/ceremonies/{id}.
func (h *CeremonyHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateCeremonyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input := service.UpdateCeremonyInput{
		UserID:       userID(r),
		ID:           urlID(r),
		CeremonyDate: req.CeremonyDate,
		VenueName:    req.VenueName,
		VenueAddress: req.VenueAddress,
		CeremonyType: req.CeremonyType,
		Notes:        req.Notes,
	}
	if req.Status != nil {
		status := model.CeremonyStatus(*req.Status)
		input.Status = &status
	}
	if req.Fee != nil {
		fee := int64(*req.Fee)
		input.FeeCents = &fee
	}

	ceremony, err := h.svc.UpdateCeremony(r.Context(), input)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToCeremonyResponse(ceremony))
}

// Delete handles DELETE /api/v1/ceremonies/{id}.
func (h *CeremonyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteCeremony(r.Context(), userID(r), urlID(r)); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// instantParam parses an RFC 3339 instant or a bare date (midnight UTC).
func instantParam(r *http.Request, name string) (*time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	t, err := dto.ParseDate(v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
