package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brizzai/google-signup/internal/auth"
	"github.com/brizzai/google-signup/internal/auth/handlers"
	"github.com/brizzai/google-signup/internal/auth/models"
	"github.com/brizzai/google-signup/internal/auth/providers"
	"github.com/brizzai/google-signup/internal/config"
	"github.com/brizzai/google-signup/internal/server/middleware"
	"github.com/brizzai/google-signup/internal/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	renderer, err := web.NewRenderer(web.LoginPath)
	require.NoError(t, err)

	// nothing listens here; the routes under test never reach the provider
	provider := providers.NewGoogleProvider("http://127.0.0.1:1")
	flow := auth.NewFlow(provider, models.ClientCredentials{ClientID: "id", ClientSecret: "secret"})
	return NewRouter(handlers.NewHandler(flow, renderer, nil, false), renderer)
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body HealthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.NotZero(t, body.Timestamp)
}

func TestIndex(t *testing.T) {
	router := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rr.Body.String(), `href="/google_signup"`)
}

func TestRouter_NotFoundAndMethod(t *testing.T) {
	router := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "not found", rr.Body.String())

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/google_signup", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestRouter_RequestID(t *testing.T) {
	router := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, rr.Header().Get(middleware.RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(middleware.RequestIDHeader, "abc-123")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, "abc-123", rr.Header().Get(middleware.RequestIDHeader))
}

func TestRouter_LoginProviderDown(t *testing.T) {
	router := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/google_signup", nil))
	assert.Equal(t, http.StatusBadGateway, rr.Code)
}

func TestServer_ServeAndShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	cfg := &config.Config{Server: config.ServerConfig{ShutdownTimeout: time.Second}}
	srv := NewServer(cfg, newTestRouter(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	url := fmt.Sprintf("http://%s/health", ln.Addr().String())
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServer_StartAddressInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	port := ln.Addr().(*net.TCPAddr).Port
	cfg := &config.Config{Server: config.ServerConfig{Host: "127.0.0.1", Port: port, ShutdownTimeout: time.Second}}

	err = NewServer(cfg, http.NotFoundHandler()).Start(context.Background())
	assert.Error(t, err)
}
