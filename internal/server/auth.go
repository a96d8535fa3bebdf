package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Authenticator validates bearer tokens on mutating endpoints. Tokens
// are HS256 JWTs signed with a shared secret from configuration.
type Authenticator struct {
	secret []byte
	ttl    time.Duration
}

// NewAuthenticator creates an Authenticator. An empty secret disables
// authentication entirely: every guarded request is rejected, so a
// deployment must set a secret before mutating endpoints work.
func NewAuthenticator(secret string, ttl time.Duration) *Authenticator {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Authenticator{secret: []byte(secret), ttl: ttl}
}

// Enabled reports whether a signing secret is configured.
func (a *Authenticator) Enabled() bool {
	return len(a.secret) > 0
}

// IssueToken signs a token for the given subject, valid for the
// configured TTL.
func (a *Authenticator) IssueToken(subject string) (string, error) {
	if !a.Enabled() {
		return "", fmt.Errorf("no signing secret configured")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		Issuer:    "rigmatch",
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// verify parses and validates a bearer token string.
func (a *Authenticator) verify(tokenString string) error {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if err != nil {
		return err
	}
	if !token.Valid {
		return fmt.Errorf("invalid token")
	}
	return nil
}

// Require wraps a handler, rejecting requests without a valid bearer
// token.
func (a *Authenticator) Require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			Unauthorized(w, "authentication is not configured on this server", r.URL.Path)
			return
		}

		header := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			Unauthorized(w, "missing bearer token", r.URL.Path)
			return
		}
		if err := a.verify(strings.TrimPrefix(header, prefix)); err != nil {
			Unauthorized(w, "invalid token: "+err.Error(), r.URL.Path)
			return
		}
		next(w, r)
	}
}
