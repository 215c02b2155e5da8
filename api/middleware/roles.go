package middleware

import (
	"net/http"

	"github.com/clinicware/medipos-backend/api/responses"
	pkgerrors "github.com/clinicware/medipos-backend/pkg/errors"
	"github.com/clinicware/medipos-backend/pkg/logger"
)

// RequireRole gates a route group on the role the auth middleware put in
// context. A missing role means the request never went through auth.
func RequireRole(role string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actual := RoleFromContext(r.Context())
			if actual == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
				return
			}
			if actual != role {
				if logg != nil {
					ctx := logg.WithFields(r.Context(), map[string]any{
						"required_role": role,
						"actor_role":    actual,
					})
					logg.Warn(ctx, "role denied")
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "role required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
