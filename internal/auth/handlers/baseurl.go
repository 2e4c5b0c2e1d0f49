package handlers

import (
	"net/http"
	"net/url"
	"strings"
)

// BaseURL reconstructs the URL a request was made to, without its query
// string. Forwarded headers are honoured only when trustProxy is set.
func BaseURL(r *http.Request, trustProxy bool) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	host := r.Host

	if trustProxy {
		if proto := firstValue(r.Header.Get("X-Forwarded-Proto")); proto == "http" || proto == "https" {
			scheme = proto
		}
		if fwdHost := firstValue(r.Header.Get("X-Forwarded-Host")); fwdHost != "" {
			host = fwdHost
		}
	}

	u := url.URL{
		Scheme:  scheme,
		Host:    host,
		Path:    r.URL.Path,
		RawPath: r.URL.RawPath,
	}
	return u.String()
}

// RequestURL is BaseURL plus the original query string.
func RequestURL(r *http.Request, trustProxy bool) string {
	base := BaseURL(r, trustProxy)
	if r.URL.RawQuery == "" {
		return base
	}
	return base + "?" + r.URL.RawQuery
}

func firstValue(header string) string {
	if i := strings.IndexByte(header, ','); i >= 0 {
		header = header[:i]
	}
	return strings.ToLower(strings.TrimSpace(header))
}
