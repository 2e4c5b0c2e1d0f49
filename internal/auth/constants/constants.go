package constants

const (
	// TokenType for Bearer authentication
	TokenType = "Bearer"

	// DiscoveryPath is appended to the issuer to locate the discovery document
	DiscoveryPath = "/.well-known/openid-configuration"

	// CallbackSuffix is appended to the login URL to form the redirect URI
	CallbackSuffix = "/callback"

	// CodeQueryParam carries the authorization code on the callback
	CodeQueryParam = "code"

	// StateQueryParam carries the CSRF state on the callback
	StateQueryParam = "state"

	// StateCookieName holds the state nonce between login and callback
	StateCookieName = "google_signup_state"

	// UnverifiedAccountMessage is shown when Google does not vouch for the email
	UnverifiedAccountMessage = "La cuenta no existe o no está verificado por google."
)

// Claim names read from the userinfo response
const (
	ClaimSubject       = "sub"
	ClaimEmail         = "email"
	ClaimEmailVerified = "email_verified"
	ClaimPicture       = "picture"
	ClaimGivenName     = "given_name"
	ClaimName          = "name"
)

// DefaultScopes requested on every login
var DefaultScopes = []string{"openid", "email", "profile"}
