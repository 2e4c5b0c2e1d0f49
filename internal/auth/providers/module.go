package providers

import "go.uber.org/fx"

// Module provides the OpenID Connect provider
var Module = fx.Module("providers",
	fx.Provide(
		fx.Annotate(
			NewFromConfig,
			fx.As(new(Provider)),
		),
	),
)
