package auth

import (
	"github.com/brizzai/google-signup/internal/auth/models"
	"github.com/brizzai/google-signup/internal/auth/providers"
	"github.com/brizzai/google-signup/internal/config"
	"go.uber.org/fx"
)

// Module provides the relying-party flow
var Module = fx.Module("auth",
	providers.Module,
	fx.Provide(NewFlowFromConfig),
)

// NewFlowFromConfig builds a Flow from the oauth and session config sections.
func NewFlowFromConfig(cfg *config.Config, provider providers.Provider) (*Flow, error) {
	opts := []FlowOption{
		WithScopes(cfg.OAuth.Scopes),
		WithRequestTimeout(cfg.OAuth.RequestTimeout),
	}
	if cfg.OAuth.EnforceState {
		signer, err := NewStateSigner(cfg.Session.SecretKey.Value(), cfg.OAuth.StateTTL)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithStateSigner(signer))
	}

	creds := models.ClientCredentials{
		ClientID:     cfg.OAuth.ClientID,
		ClientSecret: cfg.OAuth.ClientSecret.Value(),
	}
	return NewFlow(provider, creds, opts...), nil
}
