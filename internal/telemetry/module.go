package telemetry

import (
	"context"

	"github.com/brizzai/google-signup/internal/config"
	"go.uber.org/fx"
)

// Module installs tracing for the lifetime of the application.
var Module = fx.Module("telemetry",
	fx.Invoke(register),
)

func register(lc fx.Lifecycle, cfg *config.Config) {
	var shutdown ShutdownFunc = noopShutdown
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			fn, err := InitTracer(ctx, &cfg.Telemetry)
			if err != nil {
				return err
			}
			shutdown = fn
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return shutdown(ctx)
		},
	})
}
