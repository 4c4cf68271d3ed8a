package middleware

import (
	"context"
	"net/http"
	"strings"

	"medisync/internal/auth"
	"medisync/internal/models"
	"medisync/internal/session"
)

type contextKey string

const (
	sessionContextKey contextKey = "session"
)

// AuthMiddleware validates JWT tokens and adds the session to the context
type AuthMiddleware struct {
	jwtManager *auth.JWTManager
}

func NewAuthMiddleware(jwtManager *auth.JWTManager) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
	}
}

// RequireAuth ensures the user is authenticated
func (am *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Get token from cookie or Authorization header
		token := am.getToken(r)
		if token == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		// Validate token
		claims, err := am.jwtManager.ValidateToken(token)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, claims.Session())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole gates a route group to one or more roles. It must run after
// RequireAuth.
func (am *AuthMiddleware) RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := GetSession(r)
			if !sess.Valid() {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			for _, role := range roles {
				if sess.Is(role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, "Forbidden", http.StatusForbidden)
		})
	}
}

// getToken extracts JWT token from request
func (am *AuthMiddleware) getToken(r *http.Request) string {
	// Try cookie first
	if cookie, err := r.Cookie("auth_token"); err == nil {
		return cookie.Value
	}

	// Try Authorization header
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}

	return ""
}

// GetSession retrieves the session from the request context. The zero
// value is returned on unauthenticated requests; check Valid().
func GetSession(r *http.Request) session.Session {
	if sess, ok := r.Context().Value(sessionContextKey).(session.Session); ok {
		return sess
	}
	return session.Session{}
}
