package middleware

import (
	"net/http"

	"github.com/jmfitness/studio-management/internal"
	"github.com/jmfitness/studio-management/internal/auth"
	"github.com/jmfitness/studio-management/internal/transport"
	"github.com/jmfitness/studio-management/pkg/logger"
)

// RequirePermission rejects callers whose role has no rule at all for the
// resource/action cell. Target-dependent rules are left to the services.
func RequirePermission(resource auth.Resource, action auth.Action) func(http.Handler) http.Handler {
	base := transport.NewBaseHandler(logger.LoggerWrapper())
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := auth.IdentityFromContext(r.Context())
			if !ok || id == nil {
				base.HandleServiceError(w, r, internal.ErrNotAuthenticated)
				return
			}

			if !auth.Grants(id.Role, resource, action) {
				logger.From(r.Context()).Warn("access denied: role lacks permission",
					"user_id", id.ID,
					"role", id.Role,
					"resource", resource,
					"action", action)
				base.HandleServiceError(w, r, internal.ErrPermissionDenied)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireStaff lets admins, funcionarios and professors through.
func RequireStaff(next http.Handler) http.Handler {
	base := transport.NewBaseHandler(logger.LoggerWrapper())
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.IdentityFromContext(r.Context())
		if !ok || id == nil {
			base.HandleServiceError(w, r, internal.ErrNotAuthenticated)
			return
		}
		if !id.Role.IsStaff() {
			base.HandleServiceError(w, r, internal.ErrPermissionDenied)
			return
		}
		next.ServeHTTP(w, r)
	})
}
