// Package auth reads the bearer tokens issued by the event API. The CLI
// never validates signatures itself; it only looks at the claims to warn
// about expired or under-privileged sessions before any request is sent.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrNoToken      = errors.New("no token")
	ErrTokenExpired = errors.New("token expired")
)

// Claims are the fields the API puts in its tokens.
type Claims struct {
	UserID    int64
	Role      string
	ExpiresAt time.Time
}

func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// IsAdmin reports the administrator role, which the layout endpoints require.
func (c Claims) IsAdmin() bool {
	switch strings.ToUpper(strings.TrimSpace(c.Role)) {
	case "ADMINISTRADOR", "ADMIN":
		return true
	}
	return false
}

// Inspect decodes a token without checking its signature.
func Inspect(token string) (Claims, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return Claims{}, ErrNoToken
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return Claims{}, fmt.Errorf("decode token: %w", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, errors.New("decode token: unexpected claims")
	}
	return fromMap(claims), nil
}

// Check inspects a token and rejects it when it has already expired.
func Check(token string, now time.Time) (Claims, error) {
	claims, err := Inspect(token)
	if err != nil {
		return Claims{}, err
	}
	if claims.Expired(now) {
		return claims, fmt.Errorf("%w at %s", ErrTokenExpired, claims.ExpiresAt.Format(time.RFC3339))
	}
	return claims, nil
}

// Verify checks an HS256 signature and expiry with the shared secret.
func Verify(token string, secret string) (Claims, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, err
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return Claims{}, errors.New("invalid token")
	}
	return fromMap(claims), nil
}

// Sign issues an HS256 token. Only the local development server uses it.
func Sign(secret string, userID int64, role string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"userId": userID,
		"role":   role,
		"iat":    now.Unix(),
		"exp":    now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func fromMap(claims jwt.MapClaims) Claims {
	var out Claims
	switch v := claims["userId"].(type) {
	case float64:
		out.UserID = int64(v)
	case int64:
		out.UserID = v
	}
	if role, ok := claims["role"].(string); ok {
		out.Role = role
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out
}
