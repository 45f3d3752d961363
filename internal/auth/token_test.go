package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs-lzh/movie-booking/internal/model"
)

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

func TestIssueAndParse(t *testing.T) {
	clock := &fixedClock{now: time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)}
	tokens := NewTokenManager("secret", time.Hour, clock)

	raw, expiresAt, err := tokens.Issue(&model.User{ID: 7, Name: "Alice", Role: model.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, clock.now.Add(time.Hour), expiresAt)

	identity, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, &Identity{UserID: 7, Name: "Alice", Role: model.RoleAdmin}, identity)
	assert.True(t, identity.IsAdmin())
}

func TestParseRejectsExpiredToken(t *testing.T) {
	clock := &fixedClock{now: time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)}
	tokens := NewTokenManager("secret", time.Hour, clock)
	raw, _, err := tokens.Issue(&model.User{ID: 7, Role: model.RoleUser})
	require.NoError(t, err)

	clock.now = clock.now.Add(2 * time.Hour)
	_, err = tokens.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsForeignSignature(t *testing.T) {
	clock := &fixedClock{now: time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)}
	raw, _, err := NewTokenManager("other", time.Hour, clock).Issue(&model.User{ID: 7})
	require.NoError(t, err)

	_, err = NewTokenManager("secret", time.Hour, clock).Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsUnexpectedAlgorithm(t *testing.T) {
	clock := &fixedClock{now: time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)}
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "7",
		ExpiresAt: jwt.NewNumericDate(clock.now.Add(time.Hour)),
	}}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewTokenManager("secret", time.Hour, clock).Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsMissingSubject(t *testing.T) {
	clock := &fixedClock{now: time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)}
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(clock.now.Add(time.Hour)),
	}}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewTokenManager("secret", time.Hour, clock).Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22", 4)
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)
	assert.True(t, VerifyPassword(hash, "hunter22"))
	assert.False(t, VerifyPassword(hash, "hunter23"))
}
