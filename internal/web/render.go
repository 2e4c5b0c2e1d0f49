// Package web renders the pages shown around the login flow.
package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"

	"github.com/brizzai/google-signup/internal/auth/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer executes the embedded page templates.
type Renderer struct {
	index  *template.Template
	logged *template.Template

	loginPath string
}

// NewRenderer parses the embedded templates. loginPath is linked from the landing page.
func NewRenderer(loginPath string) (*Renderer, error) {
	index, err := template.ParseFS(templateFS, "templates/layout.html", "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse index template: %w", err)
	}
	logged, err := template.ParseFS(templateFS, "templates/layout.html", "templates/logged.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse logged template: %w", err)
	}
	return &Renderer{index: index, logged: logged, loginPath: loginPath}, nil
}

type indexView struct {
	LoginPath string
}

type profileView struct {
	Name       string
	GivenName  string
	Email      string
	Picture    string
	ClaimsJSON string
}

// RenderIndex writes the landing page.
func (r *Renderer) RenderIndex(w http.ResponseWriter) error {
	return r.write(w, r.index, indexView{LoginPath: r.loginPath})
}

// RenderProfile writes the logged-in page for profile.
func (r *Renderer) RenderProfile(w http.ResponseWriter, profile *models.UserProfile) error {
	claims, err := json.MarshalIndent(profile.RawClaims, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode claims: %w", err)
	}
	return r.write(w, r.logged, profileView{
		Name:       profile.FullName,
		GivenName:  profile.GivenName,
		Email:      profile.Email,
		Picture:    profile.PictureURL,
		ClaimsJSON: string(claims),
	})
}

// write renders into a buffer first so a template error never produces a half page.
func (r *Renderer) write(w http.ResponseWriter, t *template.Template, data interface{}) error {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, err := buf.WriteTo(w)
	return err
}
