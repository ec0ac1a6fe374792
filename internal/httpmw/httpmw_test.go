package httpmw

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestCORSSetsHeadersWhenOriginAllowed(t *testing.T) {
	handler := CORS(false, func(r *http.Request) bool { return true }, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://example.com")
	rw := httptest.NewRecorder()
	handler(rw, req)

	assert.Equal(t, "https://example.com", rw.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, PATCH, DELETE, OPTIONS", rw.Header().Get("Access-Control-Allow-Methods"))
}

func TestCORSShortCircuitsPreflight(t *testing.T) {
	called := false
	handler := CORS(true, nil, func(w http.ResponseWriter, r *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	rw := httptest.NewRecorder()
	handler(rw, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusOK, rw.Code)
}

func TestRequireMethodRejectsWrongMethod(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	rw := httptest.NewRecorder()

	ok := RequireMethod(rw, req, http.MethodPost)
	assert.False(t, ok)
	assert.Equal(t, http.StatusMethodNotAllowed, rw.Code)
}

func TestRequestLogRecordsStatus(t *testing.T) {
	logger := zap.NewNop().Sugar()
	handler := RequestLog(logger, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "/x", nil)
	rw := httptest.NewRecorder()
	handler(rw, req)

	assert.Equal(t, http.StatusCreated, rw.Code)
}
