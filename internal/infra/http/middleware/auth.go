package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/shopmesh/events/pkg/apierror"
	"github.com/shopmesh/events/pkg/jwt"
	"github.com/shopmesh/events/pkg/logger"
)

// claimsKey stores validated token claims in the request context.
const claimsKey contextKey = "claims"

// Auth validates the Authorization bearer token against the configured
// secret. An empty secret disables authentication entirely, which is only
// acceptable in development.
func Auth(secret string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				apierror.Unauthorized("").WriteJSON(w)
				return
			}

			claims, err := jwt.ValidateToken(token, secret)
			if err != nil {
				log.Warn("token validation failed",
					"error", err,
					"request_id", GetRequestID(r.Context()),
				)
				apierror.Unauthorized("Invalid or expired token").WriteJSON(w)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClaims extracts validated claims from context. Returns nil when auth
// is disabled.
func GetClaims(ctx context.Context) *jwt.Claims {
	if claims, ok := ctx.Value(claimsKey).(*jwt.Claims); ok {
		return claims
	}
	return nil
}
