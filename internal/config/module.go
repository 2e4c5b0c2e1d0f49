package config

import "go.uber.org/fx"

// Module supplies an already loaded configuration to the graph. Loading
// happens before fx starts so that a bad config aborts with a plain message.
func Module(cfg *Config) fx.Option {
	return fx.Module("config",
		fx.Supply(cfg),
	)
}
