package logger

import (
	"context"

	"github.com/brizzai/google-signup/internal/config"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// Module builds the process logger from config and installs it globally.
var Module = fx.Module("logger",
	fx.Provide(provideLogger),
)

// FxLogger routes fx lifecycle events through zap.
func FxLogger(l *zap.Logger) fxevent.Logger {
	return &fxevent.ZapLogger{Logger: l.WithOptions(zap.IncreaseLevel(zap.WarnLevel))}
}

func provideLogger(lc fx.Lifecycle, cfg *config.Config) (*zap.Logger, error) {
	l, err := NewLogger(&cfg.Logging)
	if err != nil {
		return nil, err
	}
	SetLogger(l)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			// stdout/stderr sync fails on some platforms; nothing useful to do about it
			_ = l.Sync()
			return nil
		},
	})
	return l, nil
}
