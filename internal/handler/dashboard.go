package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/vowline/vowline/internal/handler/dto"
	"github.com/vowline/vowline/internal/service"
)

// DashboardHandler serves the celebrant overview.
type DashboardHandler struct {
	errorResponder
	svc *service.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(svc *service.DashboardService, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{errorResponder: errorResponder{logger: logger}, svc: svc}
}

// Metrics handles GET /api/v1/dashboard/metrics.
func (h *DashboardHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	m, err := h.svc.Metrics(r.Context(), userID(r))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToDashboardMetricsResponse(m))
}

// Upcoming handles GET /api/v1/dashboard/upcoming?days=N.
func (h *DashboardHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))

	ceremonies, err := h.svc.Upcoming(r.Context(), userID(r), days)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToCeremonyResponses(ceremonies))
}
