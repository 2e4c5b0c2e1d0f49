package models

import (
	"fmt"
	"time"

	"github.com/brizzai/google-signup/internal/auth/constants"
)

// ProviderConfig holds the endpoints advertised by the discovery document.
type ProviderConfig struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserInfoEndpoint      string `json:"userinfo_endpoint"`
}

// ClientCredentials identify this application to the provider. The secret is
// never rendered by String, GoString or %v.
type ClientCredentials struct {
	ClientID     string
	ClientSecret string
}

func (c ClientCredentials) String() string {
	return fmt.Sprintf("{ClientID:%s ClientSecret:[REDACTED]}", c.ClientID)
}

func (c ClientCredentials) GoString() string { return c.String() }

// AuthorizationRequest is the input to the redirect URL builder.
type AuthorizationRequest struct {
	AuthorizationEndpoint string
	ClientID              string
	RedirectURI           string
	Scopes                []string
	// State is only set when CSRF state enforcement is enabled.
	State string
}

// TokenSet is the result of a successful code exchange.
type TokenSet struct {
	AccessToken  string
	TokenType    string
	RefreshToken string
	IDToken      string
	Expiry       time.Time
}

func (t TokenSet) String() string {
	return fmt.Sprintf("{TokenType:%s Expiry:%s AccessToken:[REDACTED]}", t.TokenType, t.Expiry.Format(time.RFC3339))
}

func (t TokenSet) GoString() string { return t.String() }

// Type returns the token type used for the Authorization header.
func (t TokenSet) Type() string {
	if t.TokenType == "" {
		return constants.TokenType
	}
	return t.TokenType
}

// UserProfile is the verified Google account handed to the display boundary.
type UserProfile struct {
	SubjectID     string
	Email         string
	EmailVerified bool
	PictureURL    string
	GivenName     string
	FullName      string
	RawClaims     map[string]interface{}
}

// RejectionReason names a business-level refusal of an otherwise valid login.
type RejectionReason string

const (
	RejectionUnverifiedAccount RejectionReason = "unverified_account"
)

// Rejection is a defined, non-exceptional negative outcome.
type Rejection struct {
	Reason RejectionReason
}

// CallbackResult carries exactly one of Profile or Rejection.
type CallbackResult struct {
	Profile   *UserProfile
	Rejection *Rejection
}

// Accepted reports whether the callback produced a profile.
func (r *CallbackResult) Accepted() bool {
	return r != nil && r.Profile != nil
}
