package handler

import (
	"log/slog"
	"net/http"

	"github.com/vowline/vowline/internal/handler/dto"
	"github.com/vowline/vowline/internal/model"
	"github.com/vowline/vowline/internal/service"
)

// InvoiceHandler handles HTTP requests for invoices.
type InvoiceHandler struct {
	errorResponder
	svc *service.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(svc *service.InvoiceService, logger *slog.Logger) *InvoiceHandler {
	return &InvoiceHandler{errorResponder: errorResponder{logger: logger}, svc: svc}
}

func (h *InvoiceHandler) toResponse(inv *model.Invoice) *dto.InvoiceResponse {
	return dto.ToInvoiceResponse(inv, h.svc.Today())
}

// Create handles POST /api/v1/invoices.
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateInvoiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	inv, err := h.svc.CreateInvoice(r.Context(), service.CreateInvoiceInput{
		UserID:        userID(r),
		CoupleID:      req.CoupleID,
		CeremonyID:    req.CeremonyID,
		InvoiceNumber: req.InvoiceNumber,
		IssueDate:     dto.DatePtr(req.IssueDate),
		DueDate:       dto.DatePtr(req.DueDate),
		TaxRateBP:     int(req.TaxRate),
		Notes:         req.Notes,
		Items:         dto.ToItemInputs(req.Items),
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, h.toResponse(inv))
}

// Get handles GET /api/v1/invoices/{id}.
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	inv, err := h.svc.GetInvoice(r.Context(), userID(r), urlID(r))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.toResponse(inv))
}

// List handles GET /api/v1/invoices.
// Filters: couple_id, status, overdue.
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, perPage := pageParams(r)

	overdue, err := boolParam(r, "overdue")
	if err != nil {
		badQuery(w, "overdue")
		return
	}

	result, err := h.svc.ListInvoices(r.Context(), service.ListInvoicesInput{
		UserID:   userID(r),
		Page:     page,
		PerPage:  perPage,
		CoupleID: q.Get("couple_id"),
		Status:   model.InvoiceStatus(q.Get("status")),
		Overdue:  overdue,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToPageResponse(result, h.toResponse))
}

// Update handles PATCH /api/v1/invoices/{id}.
func (h *InvoiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateInvoiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input := service.UpdateInvoiceInput{
		UserID:          userID(r),
		ID:              urlID(r),
		CeremonyID:      req.CeremonyID.Ptr(),
		ClearCeremonyID: req.CeremonyID.Cleared(),
		InvoiceNumber:   req.InvoiceNumber,
		IssueDate:       dto.DatePtr(req.IssueDate),
		DueDate:         dto.DatePtr(req.DueDate),
		PaidDate:        dto.DatePtr(req.PaidDate),
		Notes:           req.Notes,
	}
	if req.Status != nil {
		status := model.InvoiceStatus(*req.Status)
		input.Status = &status
	}
	if req.TaxRate != nil {
		bp := int(*req.TaxRate)
		input.TaxRateBP = &bp
	}
	if req.Items != nil {
		input.ReplaceItems = true
		input.Items = dto.ToItemInputs(*req.Items)
	}

	inv, err := h.svc.UpdateInvoice(r.Context(), input)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.toResponse(inv))
}

// Delete handles DELETE /api/v1/invoices/{id}.
func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteInvoice(r.Context(), userID(r), urlID(r)); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MarkOverdue handles POST /api/v1/invoices/mark-overdue.
func (h *InvoiceHandler) MarkOverdue(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.MarkOverdue(r.Context(), userID(r))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MarkOverdueResponse{Updated: n})
}
