package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/yourorg/tablereserve/internal/security"
	"github.com/yourorg/tablereserve/internal/security/audit"
	"github.com/yourorg/tablereserve/internal/security/auth"
	"github.com/yourorg/tablereserve/internal/security/ratelimit"
)

type RestaurantContextKey struct{}
type ClaimsContextKey struct{}

// isPublicPath reports whether a path is served without staff auth. Guests
// browse restaurants, check availability and place bookings anonymously;
// lifecycle transitions and admin mutations require a token.
func isPublicPath(r *http.Request) bool {
	path := r.URL.Path
	if path == "/healthz" || path == "/readyz" || path == "/metrics" {
		return true
	}
	if path == "/api/auth/login" || path == "/api/auth/register" {
		return true
	}
	if strings.HasPrefix(path, "/ws/floor") {
		return true
	}
	if strings.HasPrefix(path, "/api/restaurants") {
		// Reads are public; so is booking and holding, which guests do.
		if r.Method == http.MethodGet || r.Method == http.MethodOptions {
			return true
		}
		if r.Method == http.MethodPost &&
			(strings.HasSuffix(path, "/reservations") || strings.HasSuffix(path, "/holds")) {
			return true
		}
	}
	return false
}

func JWTMiddleware(tm *auth.TokenManager, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicPath(r) {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"error":"missing auth"}`, http.StatusUnauthorized)
				return
			}

			tokenString, err := auth.ExtractToken(authHeader)
			if err != nil {
				http.Error(w, `{"error":"invalid auth"}`, http.StatusUnauthorized)
				return
			}

			claims, err := tm.ValidateToken(tokenString)
			if err != nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsContextKey{}, claims)
			ctx = context.WithValue(ctx, RestaurantContextKey{}, claims.RestaurantID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RestaurantAccessMiddleware ensures an authenticated staff member only
// mutates the restaurant their account belongs to. Accounts registered
// without a restaurant binding are treated as platform admins.
func RestaurantAccessMiddleware(authz *security.AuthorizationService, auditLog *audit.Logger, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaimsFromContext(r.Context())
			if claims == nil || claims.RestaurantID == "" {
				next.ServeHTTP(w, r)
				return
			}

			requested := restaurantIDFromPath(r.URL.Path)
			if requested == "" {
				next.ServeHTTP(w, r)
				return
			}

			if err := authz.ValidateRestaurantAccess(claims.RestaurantID, requested); err != nil {
				auditLog.LogDenied(r.Context(), requested, claims.UserID, "restaurant mismatch")
				http.Error(w, `{"error":"access denied"}`, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// restaurantIDFromPath extracts the {id} segment of /api/restaurants/{id}/...
func restaurantIDFromPath(path string) string {
	const prefix = "/api/restaurants/"
	if !strings.HasPrefix(path, prefix) {
		return ""
	}
	rest := strings.TrimPrefix(path, prefix)
	if i := strings.Index(rest, "/"); i >= 0 {
		return rest[:i]
	}
	return rest
}

func RateLimitMiddleware(limiter *ratelimit.Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" || r.URL.Path == "/readyz" || r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			// Authenticated staff are limited per restaurant, anonymous
			// guests per remote address.
			key := ""
			if t := r.Context().Value(RestaurantContextKey{}); t != nil {
				key = t.(string)
			}
			if key == "" {
				key = r.RemoteAddr
			}

			if !limiter.Allow(key) {
				http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func AuditMiddleware(auditLog *audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			restaurantID := ""
			userID := ""
			if t := r.Context().Value(RestaurantContextKey{}); t != nil {
				restaurantID = t.(string)
			}
			if c := r.Context().Value(ClaimsContextKey{}); c != nil {
				claims := c.(*auth.Claims)
				userID = claims.UserID
			}

			if r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/reservations") {
				auditLog.LogBooking(r.Context(), restaurantID, userID, "", "initiated", "")
			}
			if r.Method == http.MethodPost {
				for _, action := range []string{"confirm", "cancel", "complete"} {
					if strings.HasSuffix(r.URL.Path, "/"+action) {
						// Runs ahead of the mux, so the slot id is pulled
						// straight out of the path.
						parts := strings.Split(strings.TrimSuffix(r.URL.Path, "/"+action), "/")
						slotID := parts[len(parts)-1]
						auditLog.LogTransition(r.Context(), restaurantID, userID, slotID, action, "initiated")
					}
				}
			}
			if r.Method == http.MethodDelete {
				auditLog.LogAction(r.Context(), restaurantID, userID, "delete", "resource", r.URL.Path, "initiated", "")
			}

			next.ServeHTTP(w, r)
		})
	}
}

func GetRestaurantFromContext(ctx context.Context) string {
	if t := ctx.Value(RestaurantContextKey{}); t != nil {
		return t.(string)
	}
	return ""
}

func GetUserFromContext(ctx context.Context) string {
	if c := GetClaimsFromContext(ctx); c != nil {
		return c.UserID
	}
	return ""
}

func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	if c := ctx.Value(ClaimsContextKey{}); c != nil {
		return c.(*auth.Claims)
	}
	return nil
}
