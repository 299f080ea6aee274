package middlewares

import (
	"net/http"

	"github.com/dropDatabas3/authpool/internal/http/errors"
	"github.com/dropDatabas3/authpool/internal/rbac"
)

// RequirePermission exige que el usuario autenticado tenga
// (resource, action). Debe montarse después de RequireAuth.
func RequirePermission(engine *rbac.Engine, resource, action string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r.Context())
			if user == nil {
				errors.WriteError(w, r, errors.ErrTokenMissing)
				return
			}
			ok, err := engine.CheckUserPermission(r.Context(), user.ID, resource, action)
			if err != nil {
				errors.WriteError(w, r, err)
				return
			}
			if !ok {
				errors.WriteError(w, r, errors.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
