package handlers

import "go.uber.org/fx"

// Module provides the login HTTP handlers
var Module = fx.Module("handlers",
	fx.Provide(NewHandlerFromConfig),
)
