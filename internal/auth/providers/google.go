package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/brizzai/google-signup/internal/auth/constants"
	"github.com/brizzai/google-signup/internal/auth/models"
	"github.com/brizzai/google-signup/internal/config"
	"github.com/brizzai/google-signup/internal/logger"
	"github.com/coreos/go-oidc/v3/oidc"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

var (
	// ErrIncompleteDiscovery is returned when a required endpoint is missing.
	ErrIncompleteDiscovery = errors.New("discovery document is missing required endpoints")

	// ErrMissingAccessToken is returned when the token response has no access_token.
	ErrMissingAccessToken = errors.New("token response is missing access_token")
)

// GoogleProvider talks to an OpenID Connect issuer, Google by default.
type GoogleProvider struct {
	issuer   string
	client   *http.Client
	cacheTTL time.Duration
	now      func() time.Time

	mu        sync.Mutex
	cached    *models.ProviderConfig
	fetchedAt time.Time
}

// Option customizes a GoogleProvider.
type Option func(*GoogleProvider)

// WithHTTPClient sets the client used for every outbound request.
func WithHTTPClient(c *http.Client) Option {
	return func(p *GoogleProvider) {
		if c != nil {
			p.client = c
		}
	}
}

// WithDiscoveryCache keeps a successful discovery document for ttl. Zero disables caching.
func WithDiscoveryCache(ttl time.Duration) Option {
	return func(p *GoogleProvider) { p.cacheTTL = ttl }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *GoogleProvider) { p.now = now }
}

// NewGoogleProvider returns a provider for issuer. No network call is made here;
// discovery happens per flow invocation.
func NewGoogleProvider(issuer string, opts ...Option) *GoogleProvider {
	if issuer == "" {
		issuer = config.GoogleIssuer
	}
	p := &GoogleProvider{
		issuer: strings.TrimSuffix(issuer, "/"),
		client: http.DefaultClient,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewFromConfig builds the provider described by the oauth config section.
func NewFromConfig(cfg *config.Config, client *http.Client) *GoogleProvider {
	return NewGoogleProvider(cfg.OAuth.IssuerURL,
		WithHTTPClient(client),
		WithDiscoveryCache(cfg.OAuth.DiscoveryCacheTTL),
	)
}

// Issuer returns the issuer URL the discovery document is fetched from.
func (p *GoogleProvider) Issuer() string { return p.issuer }

func (p *GoogleProvider) withClient(ctx context.Context) context.Context {
	ctx = oidc.ClientContext(ctx, p.client)
	return context.WithValue(ctx, oauth2.HTTPClient, p.client)
}

func (p *GoogleProvider) Discover(ctx context.Context) (*models.ProviderConfig, error) {
	if pc := p.cachedConfig(); pc != nil {
		return pc, nil
	}

	// oidc.NewProvider rejects non-200 responses, malformed JSON and issuer mismatches.
	provider, err := oidc.NewProvider(p.withClient(ctx), p.issuer)
	if err != nil {
		return nil, err
	}

	var pc models.ProviderConfig
	if err := provider.Claims(&pc); err != nil {
		return nil, fmt.Errorf("failed to decode discovery document: %w", err)
	}

	var missing []string
	if pc.AuthorizationEndpoint == "" {
		missing = append(missing, "authorization_endpoint")
	}
	if pc.TokenEndpoint == "" {
		missing = append(missing, "token_endpoint")
	}
	if pc.UserInfoEndpoint == "" {
		missing = append(missing, "userinfo_endpoint")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrIncompleteDiscovery, strings.Join(missing, ", "))
	}

	p.store(&pc)
	return &pc, nil
}

func (p *GoogleProvider) cachedConfig() *models.ProviderConfig {
	if p.cacheTTL <= 0 {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cached == nil || p.now().Sub(p.fetchedAt) >= p.cacheTTL {
		return nil
	}
	pc := *p.cached
	return &pc
}

func (p *GoogleProvider) store(pc *models.ProviderConfig) {
	if p.cacheTTL <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	cp := *pc
	p.cached = &cp
	p.fetchedAt = p.now()
}

func (p *GoogleProvider) ExchangeCode(ctx context.Context, pc *models.ProviderConfig, creds models.ClientCredentials, code, redirectURI string) (*models.TokenSet, error) {
	cfg := oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  redirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:   pc.AuthorizationEndpoint,
			TokenURL:  pc.TokenEndpoint,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}

	token, err := cfg.Exchange(p.withClient(ctx), code)
	if err != nil {
		var rErr *oauth2.RetrieveError
		if errors.As(err, &rErr) && rErr.Response != nil {
			// the body can echo request details; keep only the status and error code
			return nil, fmt.Errorf("token endpoint returned %d %s", rErr.Response.StatusCode, rErr.ErrorCode)
		}
		if strings.Contains(err.Error(), "missing access_token") {
			return nil, ErrMissingAccessToken
		}
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, ErrMissingAccessToken
	}

	ts := &models.TokenSet{
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
	}
	if idToken, ok := token.Extra("id_token").(string); ok {
		ts.IDToken = idToken
	}
	return ts, nil
}

func (p *GoogleProvider) UserInfo(ctx context.Context, pc *models.ProviderConfig, token *models.TokenSet) (map[string]interface{}, error) {
	ctx = p.withClient(ctx)

	provider := (&oidc.ProviderConfig{
		IssuerURL:   pc.Issuer,
		AuthURL:     pc.AuthorizationEndpoint,
		TokenURL:    pc.TokenEndpoint,
		UserInfoURL: pc.UserInfoEndpoint,
	}).NewProvider(ctx)

	src := oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token.AccessToken,
		TokenType:   token.Type(),
	})

	info, err := provider.UserInfo(ctx, src)
	if err != nil {
		return nil, err
	}

	claims := map[string]interface{}{}
	if err := info.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo response: %w", err)
	}
	if _, ok := claims[constants.ClaimSubject]; !ok {
		logger.Warn("userinfo response has no subject", zap.String("endpoint", pc.UserInfoEndpoint))
	}
	return claims, nil
}
