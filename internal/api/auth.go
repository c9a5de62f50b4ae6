package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"
)

// ErrUnauthorized indicates invalid or missing credentials.
var ErrUnauthorized = errors.New("unauthorized")

// HashToken returns the bcrypt hash to put in auth.token_hash.
func HashToken(token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", errors.New("token is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckToken compares token with a bcrypt hash.
func CheckToken(hash, token string) error {
	if hash == "" || token == "" {
		return ErrUnauthorized
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)) != nil {
		return ErrUnauthorized
	}
	return nil
}

// AuthMiddleware enforces bearer token authentication against tokenHash.
// With an empty hash every request is rejected.
func AuthMiddleware(tokenHash string, logger *slog.Logger) mux.MiddlewareFunc {
	if tokenHash == "" {
		logger.Warn("admin token hash not configured; admin endpoints are disabled")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if token == "" || token == auth {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			if err := CheckToken(tokenHash, token); err != nil {
				http.Error(w, "invalid bearer token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
