package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCORS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		allowedOrigins []string
		requestOrigin  string
		method         string
		wantStatus     int
		wantHeader     string
	}{
		{"no origins configured blocks all", nil, "https://app.vowline.test", http.MethodGet, http.StatusOK, ""},
		{"allowed origin gets header", []string{"https://app.vowline.test"}, "https://app.vowline.test", http.MethodGet, http.StatusOK, "https://app.vowline.test"},
		{"disallowed origin blocked on preflight", []string{"https://app.vowline.test"}, "https://evil.test", http.MethodOptions, http.StatusForbidden, ""},
		{"preflight returns no content", []string{"https://app.vowline.test"}, "https://app.vowline.test", http.MethodOptions, http.StatusNoContent, "https://app.vowline.test"},
		{"case insensitive origin match", []string{"HTTPS://APP.VOWLINE.TEST"}, "https://app.vowline.test", http.MethodGet, http.StatusOK, "https://app.vowline.test"},
		{"wildcard subdomain", []string{"*.vowline.test"}, "https://staging.vowline.test", http.MethodGet, http.StatusOK, "https://staging.vowline.test"},
		{"wildcard does not match lookalike", []string{"*.vowline.test"}, "https://evilvowline.test", http.MethodGet, http.StatusOK, ""},
		{"no origin header skips CORS", []string{"https://app.vowline.test"}, "", http.MethodGet, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultCORSConfig()
			cfg.AllowedOrigins = tt.allowedOrigins

			req := httptest.NewRequest(tt.method, "/", nil)
			if tt.requestOrigin != "" {
				req.Header.Set("Origin", tt.requestOrigin)
			}
			rec := httptest.NewRecorder()
			CORS(cfg)(okHandler()).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantHeader, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestCORS_PreflightHeaders(t *testing.T) {
	t.Parallel()
	cfg := DefaultCORSConfig()
	cfg.AllowedOrigins = []string{"https://app.vowline.test"}

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/couples", nil)
	req.Header.Set("Origin", "https://app.vowline.test")
	rec := httptest.NewRecorder()
	CORS(cfg)(okHandler()).ServeHTTP(rec, req)

	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PATCH")
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
	assert.Equal(t, "86400", rec.Header().Get("Access-Control-Max-Age"))
}
