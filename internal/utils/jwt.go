package utils // package utils provides helper functions for token creation and hashing

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// BearerToken represents a signed JWT along with its expiry.  The token is
// presented in the Authorization header on protected endpoints.
type BearerToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// Identity is the decoded set of claims the API cares about.
type Identity struct {
	UserID uint64
	Email  string
	Role   string
}

var ErrInvalidToken = errors.New("invalid token")

// NewBearerToken builds and signs an HS256 JWT for a user with the given TTL
// in days.  Claims: subject (sub), email, role, expiration (exp) and issued
// at (iat).
func NewBearerToken(secret string, id Identity, ttlDays int) (BearerToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour)
	claims := jwt.MapClaims{
		"sub":   id.UserID,
		"email": id.Email,
		"role":  id.Role,
		"exp":   exp.Unix(),
		"iat":   time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return BearerToken{}, err
	}
	return BearerToken{Token: signed, Exp: exp}, nil
}

// ParseBearerToken validates an HS256 JWT and extracts the identity claims.
// Expired, malformed or wrongly-signed tokens yield ErrInvalidToken.
func ParseBearerToken(secret, raw string) (Identity, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return Identity{}, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrInvalidToken
	}
	var id Identity
	switch sub := claims["sub"].(type) {
	case float64:
		id.UserID = uint64(sub)
	default:
		return Identity{}, ErrInvalidToken
	}
	id.Email, _ = claims["email"].(string)
	id.Role, _ = claims["role"].(string)
	if id.UserID == 0 || id.Role == "" {
		return Identity{}, ErrInvalidToken
	}
	return id, nil
}
