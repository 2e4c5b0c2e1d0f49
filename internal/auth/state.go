package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const stateIssuer = "google-signup"

// StateSigner issues and checks the optional CSRF state parameter. The state
// is an HS256 JWT whose ID must match a nonce the browser returns in a cookie.
type StateSigner struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewStateSigner returns a signer keyed by secret.
func NewStateSigner(secret string, ttl time.Duration) (*StateSigner, error) {
	if secret == "" {
		return nil, errors.New("state signing key is empty")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("state ttl must be positive, got %s", ttl)
	}
	return &StateSigner{key: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue returns a signed state and the nonce it is bound to.
func (s *StateSigner) Issue() (state, nonce string, err error) {
	nonce = uuid.NewString()
	now := s.now()
	claims := jwt.RegisteredClaims{
		ID:        nonce,
		Issuer:    stateIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	state, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign state: %w", err)
	}
	return state, nonce, nil
}

// Verify checks the signature and expiry of state and that it is bound to nonce.
func (s *StateSigner) Verify(state, nonce string) error {
	if state == "" || nonce == "" {
		return errors.New("state or nonce is empty")
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(state, &claims,
		func(*jwt.Token) (interface{}, error) { return s.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(stateIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(claims.ID), []byte(nonce)) != 1 {
		return errors.New("state does not match nonce")
	}
	return nil
}

// TTL is how long an issued state stays valid.
func (s *StateSigner) TTL() time.Duration { return s.ttl }
