package middle

import (
	"context"
	"net/http"
	"strings"

	"github.com/mstgnz/carepay/infra/auth"
	"github.com/mstgnz/carepay/infra/config"
	"github.com/mstgnz/carepay/infra/response"
)

const claimsKey config.CKey = "claims"

// TokenValidator turns a bearer token into user claims
type TokenValidator interface {
	ValidateToken(token string) (*auth.JWTClaims, error)
}

// AuthMiddleware requires a valid bearer JWT and stores its claims in the context
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Error(w, http.StatusUnauthorized, "Authorization header required", nil)
				return
			}

			if !strings.HasPrefix(authHeader, "Bearer ") {
				response.Error(w, http.StatusUnauthorized, "Invalid authorization format. Use: Bearer <token>", nil)
				return
			}

			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			if token == "" {
				response.Error(w, http.StatusUnauthorized, "Token required", nil)
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				response.Error(w, http.StatusUnauthorized, "Invalid token", err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// SuperuserOrReadOnly lets any authenticated user read and only superusers write
func SuperuserOrReadOnly() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			requireSuperuser(w, r, next)
		})
	}
}

// RequireSuperuser restricts a route to superusers regardless of method
func RequireSuperuser() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requireSuperuser(w, r, next)
		})
	}
}

func requireSuperuser(w http.ResponseWriter, r *http.Request, next http.Handler) {
	claims := GetClaims(r.Context())
	if claims == nil {
		response.Error(w, http.StatusUnauthorized, "Authentication required", nil)
		return
	}
	if !claims.IsSuperuser {
		response.Error(w, http.StatusForbidden, "You do not have permission to perform this action", nil)
		return
	}
	next.ServeHTTP(w, r)
}

// WithClaims stores claims in ctx
func WithClaims(ctx context.Context, claims *auth.JWTClaims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// GetClaims returns the authenticated user's claims, or nil
func GetClaims(ctx context.Context) *auth.JWTClaims {
	claims, _ := ctx.Value(claimsKey).(*auth.JWTClaims)
	return claims
}
