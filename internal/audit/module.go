package audit

import (
	"context"

	"github.com/brizzai/google-signup/internal/config"
	"github.com/brizzai/google-signup/internal/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides the audit Recorder configured by the audit section.
var Module = fx.Module("audit",
	fx.Provide(provideRecorder),
)

func provideRecorder(lc fx.Lifecycle, cfg *config.Config) (Recorder, error) {
	if !cfg.Audit.Enabled {
		return NewNopRecorder(), nil
	}

	rec, err := NewSQLiteRecorder(cfg.Audit.Path)
	if err != nil {
		return nil, err
	}
	logger.Info("Audit trail enabled", zap.String("path", cfg.Audit.Path))
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return rec.Close()
		},
	})
	return rec, nil
}
