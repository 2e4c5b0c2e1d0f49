package requester

import (
	"go.uber.org/fx"
)

// Module provides the outbound HTTP client
var Module = fx.Module("requester",
	fx.Provide(NewHTTPClientFromConfig),
)
