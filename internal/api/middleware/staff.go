package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/firmaria/docsign/internal/auth"
	"github.com/firmaria/docsign/internal/models"
	"github.com/firmaria/docsign/internal/store"
)

// StaffUserKey is the context key for the resolved staff user.
const StaffUserKey contextKey = "staff_user"

// GetStaffUser extracts the resolved staff user from the request context.
func GetStaffUser(ctx context.Context) *models.User {
	if v := ctx.Value(StaffUserKey); v != nil {
		return v.(*models.User)
	}
	return nil
}

// StaffContext returns a middleware that resolves the authenticated user's
// record, validating their role and deriving the tenant scope every staff
// operation is restricted to. It must run after Authenticate.
func StaffContext(st store.Store, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := GetUserID(r.Context())
			if userID == "" {
				writeUnauthorized(w, "Authentication required")
				return
			}

			user, err := st.Users().GetByID(r.Context(), userID)
			if err != nil {
				logger.Error("failed to load staff user", "error", err, "user_id", userID)
				writeUnauthorized(w, "Authentication required")
				return
			}
			if user == nil {
				writeUnauthorized(w, "Unknown user")
				return
			}
			if !auth.ValidRole(user.Role) {
				logger.Warn("user has invalid role", "user_id", userID, "role", user.Role)
				writeForbidden(w, "Access denied")
				return
			}

			ctx := context.WithValue(r.Context(), StaffUserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePermission returns a middleware that rejects users whose role lacks
// the given capability.
func RequirePermission(permission auth.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetStaffUser(r.Context())
			if user == nil {
				writeUnauthorized(w, "Authentication required")
				return
			}
			if err := auth.CheckRolePermission(user.Role, permission); err != nil {
				writeForbidden(w, "Access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
