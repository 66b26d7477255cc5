package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/golang-jwt/jwt/v5"
	"github.com/mauv0809/riichi-ledger/internal/apperr"
)

// contextKey is a custom type to avoid key collisions in context.
type contextKey string

const callerKey contextKey = "callerID"

// paramsMiddleware logs the request and handles 'verbose' for request-scoped
// debug logging.
func paramsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Info("incoming request", "method", r.Method, "url", r.URL.String())
		if r.URL.Query().Get("verbose") == "true" {
			originalLevel := log.GetLevel()
			log.SetLevel(log.DebugLevel)
			defer log.SetLevel(originalLevel)
		}
		next.ServeHTTP(w, r)
	})
}

// identityMiddleware resolves the caller of an RPC. With a secret configured
// the caller is the subject of an HS256 bearer token; without one the
// X-User-ID header is trusted. Requests without an identity are refused.
func identityMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var (
				callerID string
				err      error
			)
			if secret == "" {
				callerID = strings.TrimSpace(r.Header.Get("X-User-ID"))
			} else {
				callerID, err = bearerSubject(r.Header.Get("Authorization"), secret)
			}
			if err != nil {
				log.Debug("Rejected credentials", "error", err)
				writeError(w, apperr.New(apperr.Unauthenticated, "Invalid credentials."))
				return
			}
			if callerID == "" {
				writeError(w, apperr.New(apperr.Unauthenticated, "Authentication is required."))
				return
			}
			ctx := context.WithValue(r.Context(), callerKey, callerID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerSubject returns the subject of the bearer token in header, or "" if
// there is no token.
func bearerSubject(header, secret string) (string, error) {
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", nil
	}
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(strings.TrimSpace(raw), claims, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid || claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// callerID returns the caller identityMiddleware stored in the context.
func callerID(r *http.Request) string {
	id, _ := r.Context().Value(callerKey).(string)
	return id
}
