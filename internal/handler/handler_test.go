package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/vowline/vowline/internal/handler/dto"
	"github.com/vowline/vowline/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

func TestHandler_Hello(t *testing.T) {
	h := New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	h.Hello(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}

	contentType := rec.Header().Get("Content-Type")
	if contentType != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", contentType)
	}

	var response map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response["service"] != "vowline" {
		t.Errorf("unexpected service: %s", response["service"])
	}

	if response["version"] != Version {
		t.Errorf("unexpected version: %s", response["version"])
	}
}

func TestHandler_NotFound(t *testing.T) {
	h := New()

	req := httptest.NewRequest(http.MethodGet, "/nonexistent", nil)
	rec := httptest.NewRecorder()

	h.NotFound(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}

	resp := decodeError(t, rec)
	if resp.Code != "NOT_FOUND" || resp.Error != "Resource not found" {
		t.Errorf("unexpected body: %+v", resp)
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	h := New()

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()

	h.MethodNotAllowed(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", rec.Code)
	}

	if resp := decodeError(t, rec); resp.Code != "METHOD_NOT_ALLOWED" {
		t.Errorf("unexpected code: %s", resp.Code)
	}
}

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"email exists", service.ErrEmailExists, http.StatusBadRequest, "EMAIL_EXISTS", "Email already registered"},
		{"bad credentials", service.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password"},
		{"locked out", service.ErrTooManyAttempts, http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS", ""},
		{"validation", fmt.Errorf("%w: partner1_name is required", service.ErrValidation), http.StatusBadRequest, "VALIDATION_ERROR", "partner1_name is required"},
		{"transition", fmt.Errorf("%w: paid to draft", service.ErrInvalidStatusTransition), http.StatusBadRequest, "INVALID_STATUS_TRANSITION", ""},
		{"wrapped not found", fmt.Errorf("get couple: %w", service.ErrCoupleNotFound), http.StatusNotFound, "COUPLE_NOT_FOUND", "Couple not found"},
		{"legal form", service.ErrLegalFormNotFound, http.StatusNotFound, "LEGAL_FORM_NOT_FOUND", ""},
		{"invoice number", service.ErrInvoiceNumberExists, http.StatusConflict, "INVOICE_NUMBER_EXISTS", ""},
		{"not editable", service.ErrInvoiceNotEditable, http.StatusConflict, "INVOICE_NOT_EDITABLE", ""},
		{"template name", service.ErrTemplateNameExists, http.StatusConflict, "TEMPLATE_NAME_EXISTS", ""},
		{"unknown", errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred"},
	}

	responder := errorResponder{logger: discardLogger()}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/couples", nil)
			rec := httptest.NewRecorder()

			responder.handleServiceError(rec, req, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			resp := decodeError(t, rec)
			if resp.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, resp.Code)
			}
			if tt.wantMsg != "" && resp.Error != tt.wantMsg {
				t.Errorf("expected message %q, got %q", tt.wantMsg, resp.Error)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))
		rec := httptest.NewRecorder()

		var dst dto.LoginRequest
		if decodeJSON(rec, req, &dst) {
			t.Fatal("expected decode failure")
		}
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
		if resp := decodeError(t, rec); resp.Code != "INVALID_JSON" {
			t.Errorf("unexpected code: %s", resp.Code)
		}
	})

	t.Run("oversized body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"`+strings.Repeat("a", 64)+`"}`))
		rec := httptest.NewRecorder()
		req.Body = http.MaxBytesReader(rec, req.Body, 16)

		var dst dto.LoginRequest
		if decodeJSON(rec, req, &dst) {
			t.Fatal("expected decode failure")
		}
		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("expected status 413, got %d", rec.Code)
		}
	})
}

func TestQueryParams(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=3&per_page=abc&overdue=true&completed=false", nil)

	page, perPage := pageParams(req)
	if page != 3 || perPage != 0 {
		t.Errorf("unexpected page params: %d, %d", page, perPage)
	}

	overdue, err := boolParam(req, "overdue")
	if err != nil || !overdue {
		t.Errorf("expected overdue=true, got %v (%v)", overdue, err)
	}

	completed, err := optionalBoolParam(req, "completed")
	if err != nil || completed == nil || *completed {
		t.Errorf("expected completed=false, got %v (%v)", completed, err)
	}

	missing, err := optionalBoolParam(req, "missing")
	if err != nil || missing != nil {
		t.Errorf("expected nil for absent flag, got %v (%v)", missing, err)
	}

	bad := httptest.NewRequest(http.MethodGet, "/?overdue=maybe", nil)
	if _, err := boolParam(bad, "overdue"); err == nil {
		t.Error("expected error for unparseable flag")
	}
}
