package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStateSigner(t *testing.T) {
	_, err := NewStateSigner("", time.Minute)
	assert.Error(t, err)

	_, err = NewStateSigner("key", 0)
	assert.Error(t, err)

	s, err := NewStateSigner("key", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, s.TTL())
}

func TestStateSigner_RoundTrip(t *testing.T) {
	s, err := NewStateSigner("key", time.Minute)
	require.NoError(t, err)

	state, nonce, err := s.Issue()
	require.NoError(t, err)
	assert.NotEmpty(t, state)
	assert.NotEmpty(t, nonce)

	assert.NoError(t, s.Verify(state, nonce))
	assert.Error(t, s.Verify(state, nonce+"x"))
	assert.Error(t, s.Verify("", nonce))
	assert.Error(t, s.Verify(state, ""))
}

func TestStateSigner_Unique(t *testing.T) {
	s, err := NewStateSigner("key", time.Minute)
	require.NoError(t, err)

	_, n1, err := s.Issue()
	require.NoError(t, err)
	_, n2, err := s.Issue()
	require.NoError(t, err)
	assert.NotEqual(t, n1, n2)
}

func TestStateSigner_Expired(t *testing.T) {
	s, err := NewStateSigner("key", time.Minute)
	require.NoError(t, err)

	issued := time.Now()
	s.now = func() time.Time { return issued }
	state, nonce, err := s.Issue()
	require.NoError(t, err)

	s.now = func() time.Time { return issued.Add(2 * time.Minute) }
	err = s.Verify(state, nonce)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestStateSigner_WrongKey(t *testing.T) {
	a, err := NewStateSigner("key-a", time.Minute)
	require.NoError(t, err)
	b, err := NewStateSigner("key-b", time.Minute)
	require.NoError(t, err)

	state, nonce, err := a.Issue()
	require.NoError(t, err)
	assert.ErrorIs(t, b.Verify(state, nonce), jwt.ErrTokenSignatureInvalid)
}

func TestStateSigner_RejectsOtherAlgorithms(t *testing.T) {
	s, err := NewStateSigner("key", time.Minute)
	require.NoError(t, err)

	claims := jwt.RegisteredClaims{
		ID:        "nonce",
		Issuer:    stateIssuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}
	state, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("key"))
	require.NoError(t, err)

	assert.Error(t, s.Verify(state, "nonce"))
}
