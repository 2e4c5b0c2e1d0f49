package auth

import (
	"errors"
)

// Error kinds of the relying-party flow. Match them with errors.Is.
var (
	ErrDiscovery     = errors.New("provider discovery failed")
	ErrMissingCode   = errors.New("missing authorization code")
	ErrInvalidState  = errors.New("invalid state parameter")
	ErrTokenExchange = errors.New("token exchange failed")
	ErrUserInfo      = errors.New("userinfo request failed")
)

// FlowError tags an underlying failure with the flow step that produced it.
type FlowError struct {
	Kind error
	Err  error
}

func (e *FlowError) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Err.Error()
}

func (e *FlowError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newFlowError(kind, err error) error {
	return &FlowError{Kind: kind, Err: err}
}

// KindName returns a short stable label for err, suitable for logs and audit rows.
func KindName(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDiscovery):
		return "discovery"
	case errors.Is(err, ErrMissingCode):
		return "missing_code"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrTokenExchange):
		return "token_exchange"
	case errors.Is(err, ErrUserInfo):
		return "userinfo"
	default:
		return "internal"
	}
}
