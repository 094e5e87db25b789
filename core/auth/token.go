package auth

import (
	"errors"
	"fmt"
	"time"

	"JNChoral/model"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "jnchoral"

// Claims is the session token payload.
type Claims struct {
	Email string     `json:"email"`
	Name  string     `json:"name"`
	Role  model.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 session tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if len(secret) < 16 {
		return nil, errors.New("JWT secret must be at least 16 bytes")
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL is the lifetime of issued tokens.
func (m *TokenManager) TTL() time.Duration { return m.ttl }

// GenerateToken issues a token for user.
func (m *TokenManager) GenerateToken(user *model.User) (string, error) {
	now := m.now()
	claims := Claims{
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies raw and returns the principal it names.
func (m *TokenManager) ParseToken(raw string) (*Principal, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if claims.Subject == "" {
		return nil, errors.New("invalid token: missing subject")
	}
	return &Principal{ID: claims.Subject, Email: claims.Email, Name: claims.Name, Role: claims.Role}, nil
}
