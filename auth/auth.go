// Package auth decodes bearer tokens into comparator sessions.
//
// Tokens are HS256-signed JWTs carrying a user_id claim, the format issued
// by the account service. The claim may be encoded as a JSON number or a
// string.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/comparator"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims extends jwt.RegisteredClaims with the user_id claim.
type Claims struct {
	jwt.RegisteredClaims
	UserID any `json:"user_id"`
}

// UserIDString returns the user_id claim as a string, or "" when absent.
func (c *Claims) UserIDString() string {
	switch v := c.UserID.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return ""
	}
}

// Verifier validates HS256 tokens signed with a shared secret.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithClock sets the time source used to check expiry.
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) {
		v.now = now
	}
}

// NewVerifier creates a Verifier for secret.
func NewVerifier(secret []byte, opts ...Option) (*Verifier, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: secret is required")
	}
	v := &Verifier{secret: secret, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Verify parses and validates tokenStr. Failures wrap
// comparator.ErrUnauthenticated.
func (v *Verifier) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return v.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithJSONNumber(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return nil, fmt.Errorf("auth: validate token: %w: %w", comparator.ErrUnauthenticated, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("auth: invalid token claims: %w", comparator.ErrUnauthenticated)
	}
	if claims.UserIDString() == "" {
		return nil, fmt.Errorf("auth: missing user_id claim: %w", comparator.ErrUnauthenticated)
	}
	return claims, nil
}

// Session returns the session for an Authorization header value. An empty
// header yields an anonymous session.
func (v *Verifier) Session(header string) (comparator.Session, error) {
	if header == "" {
		return comparator.Session{}, nil
	}
	tokenStr, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || tokenStr == "" {
		return comparator.Session{}, fmt.Errorf("auth: malformed authorization header: %w", comparator.ErrUnauthenticated)
	}
	claims, err := v.Verify(tokenStr)
	if err != nil {
		return comparator.Session{}, err
	}
	return comparator.Session{UserID: claims.UserIDString(), Token: tokenStr}, nil
}

// Issue signs a token for userID that expires after ttl.
func (v *Verifier) Issue(userID string, ttl time.Duration) (string, error) {
	now := v.now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.New().String(),
		},
		UserID: userID,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}
