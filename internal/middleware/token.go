package middleware

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// TokenAuth guards the local API with a bearer token. The configured token
// is hashed once at startup; requests present the plaintext.
type TokenAuth struct {
	hash []byte
}

// NewTokenAuth hashes the configured API token. An empty token disables
// auth entirely (local development).
func NewTokenAuth(token string) (*TokenAuth, error) {
	if token == "" {
		return &TokenAuth{}, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &TokenAuth{hash: hash}, nil
}

// Enabled reports whether a token is configured.
func (a *TokenAuth) Enabled() bool {
	return len(a.hash) > 0
}

// Require rejects requests whose Authorization header does not carry the
// configured bearer token.
func (a *TokenAuth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if err := bcrypt.CompareHashAndPassword(a.hash, []byte(token)); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
