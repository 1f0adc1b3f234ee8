package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RoleType operator role
type RoleType string

const (
	// RoleAdmin may trigger recomputes and other admin actions
	RoleAdmin RoleType = "admin"
	// RoleViewer read only
	RoleViewer RoleType = "viewer"

	// DefaultExpiration lifetime of an operator token
	DefaultExpiration = 60 * time.Minute
)

var (
	// ErrInvalidToken token failed signature or claim checks
	ErrInvalidToken = errors.New("invalid token")
	// ErrEmptySecret signing key not configured
	ErrEmptySecret = errors.New("empty signing secret")
)

// Claims structure for custom claims in JWT
type Claims struct {
	Operator string   `json:"operator"`
	Role     RoleType `json:"role"`
	jwt.RegisteredClaims
}

// GenerateJWT sign an operator token with HS256
func GenerateJWT(secret []byte, operator string, role RoleType, issuer string, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", ErrEmptySecret
	}
	if ttl <= 0 {
		ttl = DefaultExpiration
	}

	now := time.Now()
	claims := Claims{
		Operator: operator,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseJWT parses a JWT and extracts the Claims, expiry is checked by the parser
func ParseJWT(secret []byte, tokenStr string) (*Claims, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}

	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// BearerToken strip the "Bearer " prefix of an Authorization header
func BearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return "", false
	}
	return header[len(prefix):], true
}
