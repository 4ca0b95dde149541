package handler

import (
	"log/slog"
	"net/http"

	"github.com/vowline/vowline/internal/service"
)

// CommunicationHandler handles communication log entries addressed by ID.
// Listing and creation live under the couple routes.
type CommunicationHandler struct {
	errorResponder
	svc *service.CommunicationService
}

// NewCommunicationHandler creates a new CommunicationHandler.
func NewCommunicationHandler(svc *service.CommunicationService, logger *slog.Logger) *CommunicationHandler {
	return &CommunicationHandler{errorResponder: errorResponder{logger: logger}, svc: svc}
}

// Delete handles DELETE /api/v1/communications/{id}.
func (h *CommunicationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteCommunication(r.Context(), userID(r), urlID(r)); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
