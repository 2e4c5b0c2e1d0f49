package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brizzai/google-signup/internal/auth/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderIndex(t *testing.T) {
	r, err := NewRenderer(LoginPath)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	require.NoError(t, r.RenderIndex(rr))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), `href="/google_signup"`)
	assert.Contains(t, rr.Body.String(), "<title>Inicio</title>")
}

func TestRenderProfile(t *testing.T) {
	r, err := NewRenderer(LoginPath)
	require.NoError(t, err)

	profile := &models.UserProfile{
		SubjectID:     "123",
		Email:         "a@b.com",
		EmailVerified: true,
		PictureURL:    "http://x/p.png",
		GivenName:     "Ana",
		FullName:      "Ana Gomez",
		RawClaims:     map[string]interface{}{"sub": "123", "email_verified": true},
	}

	rr := httptest.NewRecorder()
	require.NoError(t, r.RenderProfile(rr, profile))

	body := rr.Body.String()
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, body, "Hola, Ana")
	assert.Contains(t, body, "Ana Gomez &lt;a@b.com&gt;")
	assert.Contains(t, body, `src="http://x/p.png"`)
	assert.Contains(t, body, "email_verified")
}

func TestRenderProfile_EscapesClaims(t *testing.T) {
	r, err := NewRenderer(LoginPath)
	require.NoError(t, err)

	profile := &models.UserProfile{
		GivenName:  "<script>alert(1)</script>",
		FullName:   "Eve",
		PictureURL: "javascript:alert(1)",
		RawClaims:  map[string]interface{}{"name": "<b>x</b>"},
	}

	rr := httptest.NewRecorder()
	require.NoError(t, r.RenderProfile(rr, profile))

	body := rr.Body.String()
	assert.NotContains(t, body, "<script>alert(1)</script>")
	assert.NotContains(t, body, "<b>x</b>")
	assert.NotContains(t, body, `src="javascript:`)
}

func TestRenderProfile_NoPicture(t *testing.T) {
	r, err := NewRenderer(LoginPath)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	require.NoError(t, r.RenderProfile(rr, &models.UserProfile{FullName: "Ana"}))
	assert.NotContains(t, rr.Body.String(), "<img")
}
