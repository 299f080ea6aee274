package auth

import (
	"net/http"

	dto "github.com/dropDatabas3/authpool/internal/http/dto/auth"
	"github.com/dropDatabas3/authpool/internal/http/errors"
	"github.com/dropDatabas3/authpool/internal/http/helpers"
	"github.com/dropDatabas3/authpool/internal/http/middlewares"
)

// Logout maneja POST /api/v1/auth/logout (requiere auth).
// Revoca el access token presentado.
func (c *Controller) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middlewares.GetClaims(r.Context())
	if !ok {
		errors.WriteError(w, r, errors.ErrTokenMissing)
		return
	}
	if err := c.auth.Logout(r.Context(), claims, requestMeta(r)); err != nil {
		errors.WriteError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]bool{"logged_out": true})
}

// Me maneja GET /api/v1/users/me (requiere auth).
func (c *Controller) Me(w http.ResponseWriter, r *http.Request) {
	user := middlewares.GetUser(r.Context())
	if user == nil {
		errors.WriteError(w, r, errors.ErrTokenMissing)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.NewUserView(user))
}
