// Package middleware provides HTTP authentication middleware.
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

const subjectKey ContextKey = "subject"

// APIKeyHeader carries a static API key
const APIKeyHeader = "X-API-Key"

// APIKeySubject is the subject recorded for requests authenticated by API key
const APIKeySubject = "api-key"

// TokenValidator validates bearer tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (SubjectGetter, error)
}

// SubjectGetter exposes the subject of validated claims.
type SubjectGetter interface {
	GetSubject() (string, error)
}

// KeyMatcher reports whether a static API key is accepted
type KeyMatcher func(key string) bool

// AuthMiddleware accepts either a bearer token checked by tokens or an
// X-API-Key header checked by keys, and stores the caller's subject in the
// request context. A nil validator or matcher disables that method.
func AuthMiddleware(tokens TokenValidator, keys KeyMatcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, ok := authenticate(r, tokens, keys)
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), subjectKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticate(r *http.Request, tokens TokenValidator, keys KeyMatcher) (string, bool) {
	if key := strings.TrimSpace(r.Header.Get(APIKeyHeader)); key != "" {
		if keys != nil && keys(key) {
			return APIKeySubject, true
		}
		return "", false
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" || tokens == nil {
		return "", false
	}

	// "Bearer" is matched case-insensitively
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	claims, err := tokens.ValidateToken(parts[1])
	if err != nil {
		return "", false
	}
	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return "", false
	}
	return subject, true
}

// GetSubject returns the authenticated subject of the request.
func GetSubject(r *http.Request) (string, error) {
	subject, ok := r.Context().Value(subjectKey).(string)
	if !ok {
		return "", fmt.Errorf("subject not found in request context")
	}
	return subject, nil
}

// WithSubject returns ctx carrying subject, for handlers tested without the middleware
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectKey, subject)
}
