// Package token signs and verifies session tokens handed to clients.
package token

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

var ErrInvalid = errors.New("invalid session token")

// Claims binds a token to an account and a server-side session row.
type Claims struct {
	SessionID string `json:"sid"`
	jwtlib.RegisteredClaims
}

// Issuer creates HS256 session tokens.
type Issuer struct {
	secret []byte
	now    func() time.Time
}

func New(secret string) *Issuer {
	return &Issuer{secret: []byte(secret), now: time.Now}
}

// Generate signs a token for accountID and sessionID valid until expiresAt.
func (s *Issuer) Generate(accountID, sessionID string, expiresAt time.Time) (string, error) {
	claims := Claims{
		SessionID: sessionID,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   accountID,
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			IssuedAt:  jwtlib.NewNumericDate(s.now()),
		},
	}

	t := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

// Validate parses raw and returns its claims.
func (s *Issuer) Validate(raw string) (*Claims, error) {
	parsed, err := jwtlib.ParseWithClaims(raw, &Claims{}, func(t *jwtlib.Token) (any, error) {
		return s.secret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalid
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.Subject == "" || claims.SessionID == "" {
		return nil, ErrInvalid
	}
	return claims, nil
}
