package web

import (
	"go.uber.org/fx"
)

// LoginPath is the route that starts a Google login.
const LoginPath = "/google_signup"

// Module provides the page renderer
var Module = fx.Module("web",
	fx.Provide(func() (*Renderer, error) {
		return NewRenderer(LoginPath)
	}),
)
