package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/isdelr/finance-tracker-be/internal/models"
)

var (
	// ErrMissingToken means the request carried no bearer token.
	ErrMissingToken = errors.New("missing auth token")
	// ErrInvalidToken covers bad signatures, expired tokens and malformed claims.
	ErrInvalidToken = errors.New("invalid auth token")
)

// Claims defines the JWT claims structure.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 bearer tokens.
type TokenIssuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// NewTokenIssuer creates a TokenIssuer whose tokens expire after ttl.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{key: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue creates a new JWT for a given user.
func (t *TokenIssuer) Issue(user models.User) (string, error) {
	now := t.now()
	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a JWT string, returning the caller it identifies.
func (t *TokenIssuer) Verify(tokenStr string) (models.Principal, error) {
	if tokenStr == "" {
		return models.Principal{}, ErrMissingToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, t.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return models.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return models.Principal{}, ErrInvalidToken
	}

	role, ok := models.ParseRole(claims.Role)
	if !ok || claims.UserID == "" {
		return models.Principal{}, fmt.Errorf("%w: bad claims", ErrInvalidToken)
	}
	return models.Principal{
		UserID:    claims.UserID,
		Email:     claims.Email,
		Role:      role,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (t *TokenIssuer) keyFunc(*jwt.Token) (interface{}, error) {
	return t.key, nil
}
