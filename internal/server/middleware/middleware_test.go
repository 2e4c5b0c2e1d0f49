package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/brizzai/google-signup/internal/logger"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	logger.SetLogger(zap.New(core))
	t.Cleanup(func() { logger.SetLogger(nil) })
	return logs
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rr.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "inbound-id")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "inbound-id", seen)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", 500))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Len(t, seen, 36, "oversized ids are replaced by a uuid")
}

func TestAccessLog_OmitsQuery(t *testing.T) {
	logs := observe(t)

	h := RequestID(AccessLog(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/google_signup/callback?code=secret-code", nil))

	entries := logs.FilterMessage("HTTP request").All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, "/google_signup/callback", fields["path"])
		assert.Equal(t, int64(http.StatusTeapot), fields["status"])
		assert.NotEmpty(t, fields["request_id"])
		for _, v := range fields {
			if s, ok := v.(string); ok {
				assert.NotContains(t, s, "secret-code")
			}
		}
	}
}

func TestAccessLog_ImplicitOK(t *testing.T) {
	logs := observe(t)

	h := AccessLog(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("hi"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	entries := logs.FilterMessage("HTTP request").All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, int64(http.StatusOK), entries[0].ContextMap()["status"])
	}
}

func TestRecover(t *testing.T) {
	logs := observe(t)

	h := Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "internal server error", rr.Body.String())
	assert.Equal(t, 1, logs.FilterMessage("Recovered from panic").Len())
}

func TestRecover_AbortHandler(t *testing.T) {
	observe(t)

	h := Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}
