package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/qs-lzh/movie-booking/internal/model"
	"github.com/qs-lzh/movie-booking/internal/util"
)

var ErrInvalidToken = errors.New("invalid token")

// Identity is what a validated token says about its bearer.
type Identity struct {
	UserID uint
	Name   string
	Role   model.UserRole
}

func (i Identity) IsAdmin() bool {
	return i.Role == model.RoleAdmin
}

type Claims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 access tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	clock  util.Clock
}

func NewTokenManager(secret string, ttl time.Duration, clock util.Clock) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
		clock:  clock,
	}
}

func (m *TokenManager) Issue(user *model.User) (token string, expiresAt time.Time, err error) {
	now := m.clock.Now()
	expiresAt = now.Add(m.ttl)
	claims := Claims{
		Name: user.Name,
		Role: string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

func (m *TokenManager) Parse(raw string) (*Identity, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims,
		func(t *jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.clock.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || userID == 0 {
		return nil, fmt.Errorf("%w: bad subject %q", ErrInvalidToken, claims.Subject)
	}
	return &Identity{
		UserID: uint(userID),
		Name:   claims.Name,
		Role:   model.UserRole(claims.Role),
	}, nil
}
