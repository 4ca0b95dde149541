// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vowline/vowline/internal/auth"
	"github.com/vowline/vowline/internal/handler/dto"
	"github.com/vowline/vowline/internal/middleware"
	"github.com/vowline/vowline/internal/service"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

// Handler serves the unauthenticated service endpoints.
type Handler struct{}

// New creates a new Handler instance.
func New() *Handler {
	return &Handler{}
}

// Hello identifies the service.
// GET /
func (h *Handler) Hello(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "vowline",
		"version": Version,
	})
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "NOT_FOUND", "Resource not found")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{Error: message, Code: code})
}

// decodeJSON decodes the request body into dst, answering 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return false
	}
	return true
}

// userID returns the authenticated user. Routes using it sit behind Auth.
func userID(r *http.Request) string {
	return auth.UserIDFromContext(r.Context())
}

// pageParams reads ?page and ?per_page. Unparseable values become 0, which
// the services replace with defaults.
func pageParams(r *http.Request) (int, int) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	return page, perPage
}

// boolParam reads a boolean query flag such as ?overdue=true.
func boolParam(r *http.Request, name string) (bool, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}

// optionalBoolParam is boolParam that distinguishes absence.
func optionalBoolParam(r *http.Request, name string) (*bool, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// errorResponder maps service errors to HTTP responses.
type errorResponder struct {
	logger *slog.Logger
}

// handleServiceError maps service errors to HTTP responses.
func (e errorResponder) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrEmailExists):
		writeError(w, http.StatusBadRequest, "EMAIL_EXISTS", "Email already registered")
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
	case errors.Is(err, service.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
	case errors.Is(err, service.ErrTooManyAttempts):
		writeError(w, http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS", "Too many failed login attempts, try again later")
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", validationMessage(err))
	case errors.Is(err, service.ErrInvalidStatusTransition):
		writeError(w, http.StatusBadRequest, "INVALID_STATUS_TRANSITION", err.Error())
	case errors.Is(err, service.ErrTemplateRender):
		writeError(w, http.StatusBadRequest, "TEMPLATE_RENDER_ERROR", err.Error())

	case errors.Is(err, service.ErrCoupleNotFound):
		writeError(w, http.StatusNotFound, "COUPLE_NOT_FOUND", "Couple not found")
	case errors.Is(err, service.ErrCeremonyNotFound):
		writeError(w, http.StatusNotFound, "CEREMONY_NOT_FOUND", "Ceremony not found")
	case errors.Is(err, service.ErrInvoiceNotFound):
		writeError(w, http.StatusNotFound, "INVOICE_NOT_FOUND", "Invoice not found")
	case errors.Is(err, service.ErrLegalFormNotFound):
		writeError(w, http.StatusNotFound, "LEGAL_FORM_NOT_FOUND", "Legal form not found")
	case errors.Is(err, service.ErrCommunicationNotFound):
		writeError(w, http.StatusNotFound, "COMMUNICATION_NOT_FOUND", "Communication log not found")
	case errors.Is(err, service.ErrTaskNotFound):
		writeError(w, http.StatusNotFound, "TASK_NOT_FOUND", "Task not found")
	case errors.Is(err, service.ErrEmailTemplateNotFound):
		writeError(w, http.StatusNotFound, "EMAIL_TEMPLATE_NOT_FOUND", "Email template not found")
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found")

	case errors.Is(err, service.ErrInvoiceNumberExists):
		writeError(w, http.StatusConflict, "INVOICE_NUMBER_EXISTS", "Invoice number already exists")
	case errors.Is(err, service.ErrTemplateNameExists):
		writeError(w, http.StatusConflict, "TEMPLATE_NAME_EXISTS", "Email template name already exists")
	case errors.Is(err, service.ErrInvoiceNotEditable):
		writeError(w, http.StatusConflict, "INVOICE_NOT_EDITABLE", "Invoice items and tax can only change while draft")

	default:
		e.logger.Error("internal_error",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("request_id", middleware.GetRequestID(r.Context())),
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}

// validationMessage strips the sentinel prefix so clients see only the detail.
func validationMessage(err error) string {
	msg := err.Error()
	if detail, ok := strings.CutPrefix(msg, service.ErrValidation.Error()+": "); ok {
		return detail
	}
	return msg
}

// badQuery answers 400 for an unparseable query parameter.
func badQuery(w http.ResponseWriter, name string) {
	writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid value for query parameter "+name)
}

// urlID returns the {id} route parameter.
func urlID(r *http.Request) string {
	return chi.URLParam(r, "id")
}
