package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecurity(t *testing.T) {
	t.Parallel()

	serve := func(isDev bool) http.Header {
		rec := httptest.NewRecorder()
		Security(SecurityConfig{IsDevelopment: isDev})(okHandler()).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/couples", nil))
		return rec.Header()
	}

	prod := serve(false)
	assert.Equal(t, "nosniff", prod.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", prod.Get("X-Frame-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", prod.Get("Referrer-Policy"))
	assert.Equal(t, "no-store", prod.Get("Cache-Control"))
	assert.Contains(t, prod.Get("Strict-Transport-Security"), "max-age=31536000")

	dev := serve(true)
	assert.Empty(t, dev.Get("Strict-Transport-Security"))
	assert.Equal(t, "nosniff", dev.Get("X-Content-Type-Options"))
}

func TestMaxBodySize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		maxBytes      int64
		contentLength int64
		body          string
		wantStatus    int
	}{
		{"small body allowed", 1024, 10, "small body", http.StatusOK},
		{"declared length over limit", 10, 100, "this is a much longer body that exceeds the limit", http.StatusRequestEntityTooLarge},
		{"undeclared length over limit", 10, -1, "this is a much longer body that exceeds the limit", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := MaxBodySize(tt.maxBytes)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if _, err := io.Copy(io.Discard, r.Body); err != nil {
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			req.ContentLength = tt.contentLength
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
