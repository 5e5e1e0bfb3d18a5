package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestIssueVerify_RoundTrip(t *testing.T) {
	tokens := NewTokens("secret", DefaultTTL)

	token, err := tokens.Issue("ayesha@example.com")
	require.NoError(t, err)

	email, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "ayesha@example.com", email)
}

func TestVerify_ExpiresAfterThirtyDays(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	tokens := NewTokens("secret", DefaultTTL, WithClock(clock.Now))

	token, err := tokens.Issue("ayesha@example.com")
	require.NoError(t, err)

	clock.Advance(29 * 24 * time.Hour)
	email, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "ayesha@example.com", email)

	clock.Advance(2 * 24 * time.Hour)
	_, err = tokens.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Failures(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)

	_, err := tokens.Verify("")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = tokens.Verify("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)

	foreign, err := NewTokens("other-secret", time.Hour).Issue("ayesha@example.com")
	require.NoError(t, err)
	_, err = tokens.Verify(foreign)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)

	claims := Claims{
		Email: "ayesha@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = tokens.Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_RequiresEmailClaim(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)

	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = tokens.Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssue_EmptyEmail(t *testing.T) {
	_, err := NewTokens("secret", time.Hour).Issue("  ")
	assert.Error(t, err)
}
