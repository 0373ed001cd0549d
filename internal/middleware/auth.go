package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/xelth-com/sowflow/internal/utils"
	"github.com/xelth-com/sowflow/internal/workflow"
)

type contextKey string

const identityContextKey contextKey = "identity"

// Auth verifies JWT bearer tokens and injects the actor identity into the
// request context. The engine trusts this identity; no further
// authentication happens downstream.
func Auth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
				return
			}

			claims, err := utils.ValidateToken(parts[1], jwtSecret)
			if err != nil {
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			identity := workflow.Identity{}
			if id, ok := claims["id"].(string); ok {
				identity.ActorID = id
			}
			if role, ok := claims["role"].(string); ok {
				identity.Role = role
			}
			if email, ok := claims["email"].(string); ok {
				identity.Email = email
			}
			if identity.ActorID == "" {
				http.Error(w, "Token carries no actor id", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFrom extracts the authenticated actor from the request context.
func IdentityFrom(ctx context.Context) (workflow.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(workflow.Identity)
	return identity, ok
}
