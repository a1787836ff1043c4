package middlewares

import (
	"context"
	"net/http"
	"strings"

	"retailtasks/logging"
	"retailtasks/models"
	"retailtasks/utils"
)

type contextKey string

const ActorContextKey contextKey = "actor"

func JWTMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				utils.HandleMessageResponse(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				utils.HandleMessageResponse(w, "Invalid authorization header format", http.StatusUnauthorized)
				return
			}

			actor, err := utils.ParseToken(jwtSecret, tokenString)
			if err != nil {
				logging.Logger.Debugf("Event ID: TOKEN_REJECTED, Description: %v", err)
				utils.HandleMessageResponse(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			ctx := WithActor(r.Context(), actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithActor stores the authenticated caller in ctx.
func WithActor(ctx context.Context, actor models.Actor) context.Context {
	return context.WithValue(ctx, ActorContextKey, actor)
}

// ActorFromContext returns the caller set by JWTMiddleware.
func ActorFromContext(ctx context.Context) (models.Actor, bool) {
	actor, ok := ctx.Value(ActorContextKey).(models.Actor)
	return actor, ok
}

// RequireRole lets the request through when the caller holds one of roles.
// It must run after JWTMiddleware.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if !ok {
				utils.HandleMessageResponse(w, "Authentication required", http.StatusUnauthorized)
				return
			}
			for _, role := range roles {
				if actor.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			utils.HandleMessageResponse(w, "You do not have permission to access this resource", http.StatusForbidden)
		})
	}
}

func RequireManager() func(http.Handler) http.Handler {
	return RequireRole(models.RoleManager, models.RoleAdmin)
}

func RequireAdmin() func(http.Handler) http.Handler {
	return RequireRole(models.RoleAdmin)
}
