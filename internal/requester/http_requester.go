// Package requester builds the HTTP client used for every call to the
// identity provider.
package requester

import (
	"net/http"
	"time"

	"github.com/brizzai/google-signup/internal/config"
	"github.com/brizzai/google-signup/internal/logger"
	"go.uber.org/zap"
)

// UserAgent is sent on every outbound request
var UserAgent = "google-signup/" + config.GetVersion()

// loggingTransport logs one line per outbound request. Only scheme, host and
// path are logged; query strings and bodies may carry codes or tokens.
type loggingTransport struct {
	next http.RoundTripper
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	// RoundTrippers must not modify the caller's request
	req = req.Clone(req.Context())
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", UserAgent)
	}

	resp, err := t.next.RoundTrip(req)

	log := logger.FromContext(req.Context()).With(
		zap.String("method", req.Method),
		zap.String("host", req.URL.Host),
		zap.String("path", req.URL.Path),
		zap.Duration("duration", time.Since(start)),
	)
	if err != nil {
		log.Warn("Outbound request failed", zap.Error(err))
		return nil, err
	}
	log.Debug("Outbound request", zap.Int("status", resp.StatusCode))
	return resp, nil
}

// NewHTTPClient returns a client with a logging transport. timeout is a hard
// ceiling per request; the flow applies its own per-step deadline as well.
func NewHTTPClient(timeout time.Duration, base http.RoundTripper) *http.Client {
	if base == nil {
		base = http.DefaultTransport
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: &loggingTransport{next: base},
		// the provider endpoints never redirect; following one could leak credentials
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// NewHTTPClientFromConfig is the fx constructor
func NewHTTPClientFromConfig(cfg *config.Config) *http.Client {
	return NewHTTPClient(cfg.OAuth.RequestTimeout, nil)
}
