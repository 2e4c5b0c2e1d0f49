// Package auth implements the OAuth 2.0 authorization-code flow of a relying
// party: building the login redirect and turning the provider's callback into
// a verified user profile or a rejection.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/brizzai/google-signup/internal/auth/constants"
	"github.com/brizzai/google-signup/internal/auth/models"
	"github.com/brizzai/google-signup/internal/auth/providers"
	"github.com/brizzai/google-signup/internal/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	tracerName = "github.com/brizzai/google-signup/internal/auth"

	// defaultRequestTimeout bounds each outbound call when none is configured
	defaultRequestTimeout = 5 * time.Second
)

// Flow runs the login and callback steps. It holds no per-request state and
// is safe for concurrent use.
type Flow struct {
	provider providers.Provider
	creds    models.ClientCredentials
	scopes   []string
	timeout  time.Duration
	state    *StateSigner
	tracer   trace.Tracer
}

// FlowOption customizes a Flow.
type FlowOption func(*Flow)

// WithScopes overrides the requested scopes.
func WithScopes(scopes []string) FlowOption {
	return func(f *Flow) {
		if len(scopes) > 0 {
			f.scopes = append([]string(nil), scopes...)
		}
	}
}

// WithRequestTimeout bounds every outbound call.
func WithRequestTimeout(d time.Duration) FlowOption {
	return func(f *Flow) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithStateSigner turns on CSRF state enforcement.
func WithStateSigner(s *StateSigner) FlowOption {
	return func(f *Flow) { f.state = s }
}

// NewFlow creates a flow for the given provider and client credentials.
func NewFlow(provider providers.Provider, creds models.ClientCredentials, opts ...FlowOption) *Flow {
	f := &Flow{
		provider: provider,
		creds:    creds,
		scopes:   append([]string(nil), constants.DefaultScopes...),
		timeout:  defaultRequestTimeout,
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// StateEnforced reports whether the flow issues and checks a state parameter.
func (f *Flow) StateEnforced() bool { return f.state != nil }

// StateTTL is the lifetime of an issued state, zero when state is off.
func (f *Flow) StateTTL() time.Duration {
	if f.state == nil {
		return 0
	}
	return f.state.TTL()
}

// LoginRedirect is where the browser goes to start a login.
type LoginRedirect struct {
	URL string
	// StateNonce must be handed back on the callback when state is enforced.
	StateNonce string
}

// RedirectURI derives the callback URI from the base URL of the login request.
func RedirectURI(loginBaseURL string) string {
	return loginBaseURL + constants.CallbackSuffix
}

// BuildAuthorizationRedirect builds the provider consent URL. It performs no I/O.
func BuildAuthorizationRedirect(req models.AuthorizationRequest) (string, error) {
	u, err := url.Parse(req.AuthorizationEndpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid authorization endpoint %q", req.AuthorizationEndpoint)
	}

	cfg := oauth2.Config{
		ClientID:    req.ClientID,
		RedirectURL: req.RedirectURI,
		Scopes:      req.Scopes,
		Endpoint:    oauth2.Endpoint{AuthURL: req.AuthorizationEndpoint},
	}
	return cfg.AuthCodeURL(req.State), nil
}

// StartLogin fetches the provider configuration and builds the redirect for a
// login request served at loginBaseURL.
func (f *Flow) StartLogin(ctx context.Context, loginBaseURL string) (*LoginRedirect, error) {
	pc, err := f.discover(ctx)
	if err != nil {
		return nil, err
	}

	req := models.AuthorizationRequest{
		AuthorizationEndpoint: pc.AuthorizationEndpoint,
		ClientID:              f.creds.ClientID,
		RedirectURI:           RedirectURI(loginBaseURL),
		Scopes:                f.scopes,
	}

	var nonce string
	if f.state != nil {
		req.State, nonce, err = f.state.Issue()
		if err != nil {
			return nil, err
		}
	}

	target, err := BuildAuthorizationRedirect(req)
	if err != nil {
		return nil, newFlowError(ErrDiscovery, err)
	}
	return &LoginRedirect{URL: target, StateNonce: nonce}, nil
}

// CallbackRequest is what the callback step needs from the inbound request.
type CallbackRequest struct {
	// Query is the parsed query string; derived from URL when nil.
	Query url.Values
	// URL is the full callback URL as received.
	URL string
	// BaseURL is the callback URL without query; it is sent as redirect_uri.
	BaseURL string
	// StateNonce is the nonce the browser returned, used only when state is enforced.
	StateNonce string
}

// HandleCallback redeems the authorization code and loads the account profile.
// An unverified account is a Rejection result, not an error.
func (f *Flow) HandleCallback(ctx context.Context, req CallbackRequest) (*models.CallbackResult, error) {
	query := req.Query
	if query == nil {
		u, err := url.Parse(req.URL)
		if err != nil {
			return nil, newFlowError(ErrMissingCode, err)
		}
		query = u.Query()
	}

	code := query.Get(constants.CodeQueryParam)
	if code == "" {
		return nil, newFlowError(ErrMissingCode, nil)
	}

	if f.state != nil {
		if err := f.state.Verify(query.Get(constants.StateQueryParam), req.StateNonce); err != nil {
			return nil, newFlowError(ErrInvalidState, err)
		}
	}

	pc, err := f.discover(ctx)
	if err != nil {
		return nil, err
	}

	var token *models.TokenSet
	err = f.call(ctx, "oidc.token_exchange", pc.TokenEndpoint, func(ctx context.Context) error {
		var err error
		token, err = f.provider.ExchangeCode(ctx, pc, f.creds, code, req.BaseURL)
		if err == nil && (token == nil || token.AccessToken == "") {
			err = providers.ErrMissingAccessToken
		}
		return err
	})
	if err != nil {
		return nil, newFlowError(ErrTokenExchange, err)
	}

	var claims map[string]interface{}
	err = f.call(ctx, "oidc.userinfo", pc.UserInfoEndpoint, func(ctx context.Context) error {
		var err error
		claims, err = f.provider.UserInfo(ctx, pc, token)
		return err
	})
	if err != nil {
		return nil, newFlowError(ErrUserInfo, err)
	}

	if !emailVerified(claims[constants.ClaimEmailVerified]) {
		logger.FromContext(ctx).Info("rejected unverified account")
		return &models.CallbackResult{
			Rejection: &models.Rejection{Reason: models.RejectionUnverifiedAccount},
		}, nil
	}

	return &models.CallbackResult{Profile: profileFromClaims(claims)}, nil
}

func (f *Flow) discover(ctx context.Context) (*models.ProviderConfig, error) {
	var pc *models.ProviderConfig
	err := f.call(ctx, "oidc.discovery", "", func(ctx context.Context) error {
		var err error
		pc, err = f.provider.Discover(ctx)
		if err == nil && pc == nil {
			err = errors.New("provider returned no configuration")
		}
		return err
	})
	if err != nil {
		return nil, newFlowError(ErrDiscovery, err)
	}
	return pc, nil
}

// call runs one outbound step under its own timeout and span.
func (f *Flow) call(ctx context.Context, name, endpoint string, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	ctx, span := f.tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	if endpoint != "" {
		if u, err := url.Parse(endpoint); err == nil {
			span.SetAttributes(attribute.String("server.address", u.Host))
		}
	}

	start := time.Now()
	err := fn(ctx)
	log := logger.FromContext(ctx).With(zap.String("step", name), zap.Duration("elapsed", time.Since(start)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, name+" failed")
		log.Warn("outbound call failed", zap.Error(err))
		return err
	}
	log.Debug("outbound call succeeded")
	return nil
}

// emailVerified reads the email_verified claim strictly: only the boolean true
// or the exact string "true" count as verified. Any other non-empty string,
// number or missing claim is treated as unverified.
func emailVerified(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "true"
	default:
		return false
	}
}

func stringClaim(claims map[string]interface{}, name string) string {
	s, _ := claims[name].(string)
	return s
}

func profileFromClaims(claims map[string]interface{}) *models.UserProfile {
	return &models.UserProfile{
		SubjectID:     stringClaim(claims, constants.ClaimSubject),
		Email:         stringClaim(claims, constants.ClaimEmail),
		EmailVerified: true,
		PictureURL:    stringClaim(claims, constants.ClaimPicture),
		GivenName:     stringClaim(claims, constants.ClaimGivenName),
		FullName:      stringClaim(claims, constants.ClaimName),
		RawClaims:     claims,
	}
}
