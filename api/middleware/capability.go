package middleware

import (
	"net/http"

	"github.com/hasanfarsi/dukkan-backend/api/responses"
	"github.com/hasanfarsi/dukkan-backend/internal/authz"
	pkgerrors "github.com/hasanfarsi/dukkan-backend/pkg/errors"
	"github.com/hasanfarsi/dukkan-backend/pkg/logger"
)

// RequireCapability gates a route on the actor's capability set rather than
// on a literal role comparison.
func RequireCapability(cap authz.Capability, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !authz.Allowed(RoleFromContext(r.Context()), cap) {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeForbidden, "missing capability").WithDetails(map[string]any{"capability": string(cap)}))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
