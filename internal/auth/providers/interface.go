package providers

import (
	"context"

	"github.com/brizzai/google-signup/internal/auth/models"
)

// Provider is the remote half of the relying-party flow. Each method performs
// exactly one outbound request and never retries.
type Provider interface {
	// Discover fetches the provider's discovery document.
	Discover(ctx context.Context) (*models.ProviderConfig, error)

	// ExchangeCode redeems an authorization code at the token endpoint using
	// HTTP Basic client authentication.
	ExchangeCode(ctx context.Context, pc *models.ProviderConfig, creds models.ClientCredentials, code, redirectURI string) (*models.TokenSet, error)

	// UserInfo fetches the claims of the token's subject.
	UserInfo(ctx context.Context, pc *models.ProviderConfig, token *models.TokenSet) (map[string]interface{}, error)
}
