package server

import (
	"github.com/brizzai/google-signup/internal/auth/handlers"
	"github.com/brizzai/google-signup/internal/web"
	"go.uber.org/fx"
)

// Module provides the router and HTTP server
var Module = fx.Module("server",
	fx.Provide(
		func(r *web.Renderer) handlers.ProfileRenderer { return r },
		NewRouter,
		NewServer,
	),
)
