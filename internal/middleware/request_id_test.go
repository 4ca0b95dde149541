package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestID(t *testing.T) {
	t.Parallel()

	var gotID, gotTrace string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = GetRequestID(r.Context())
		gotTrace = GetTraceID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	_, err := uuid.Parse(gotID)
	require.NoError(t, err, "generated request id should be a UUID")
	assert.Equal(t, gotID, rec.Header().Get(RequestIDHeader))
	assert.Empty(t, gotTrace)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "upstream-id")
	req.Header.Set(TraceIDHeader, "trace-1")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "upstream-id", gotID)
	assert.Equal(t, "trace-1", gotTrace)
	assert.Equal(t, "trace-1", rec.Header().Get(TraceIDHeader))
}

func TestRequestID_RejectsMalformedIDs(t *testing.T) {
	t.Parallel()

	var gotID string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = GetRequestID(r.Context())
	}))

	for _, bad := range []string{"has space", "line\nbreak", strings.Repeat("a", maxIDLength+1)} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, bad)
		handler.ServeHTTP(httptest.NewRecorder(), req)

		assert.NotEqual(t, bad, gotID)
		_, err := uuid.Parse(gotID)
		assert.NoError(t, err, "malformed id %q should be replaced", bad)
	}
}
