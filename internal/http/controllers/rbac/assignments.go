package rbac

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	dto "github.com/dropDatabas3/authpool/internal/http/dto/rbac"
	"github.com/dropDatabas3/authpool/internal/http/errors"
	"github.com/dropDatabas3/authpool/internal/http/helpers"
	"github.com/dropDatabas3/authpool/internal/http/middlewares"
)

// AssignUserRoles maneja POST /api/v1/rbac/users/{id}/roles
// Reemplaza el set completo de roles del usuario.
func (c *Controller) AssignUserRoles(w http.ResponseWriter, r *http.Request) {
	var req dto.AssignRolesRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	var grantedBy *string
	if actor := middlewares.GetUser(r.Context()); actor != nil {
		grantedBy = &actor.ID
	}
	if err := c.engine.AssignRolesToUser(r.Context(), chi.URLParam(r, "id"), req.RoleIDs, grantedBy, req.ExpiresAt); err != nil {
		errors.WriteError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]bool{"assigned": true})
}

// RevokeUserRoles maneja DELETE /api/v1/rbac/users/{id}/roles
// Sólo quita los pares indicados.
func (c *Controller) RevokeUserRoles(w http.ResponseWriter, r *http.Request) {
	var req dto.RevokeRolesRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if err := c.engine.RevokeRolesFromUser(r.Context(), chi.URLParam(r, "id"), req.RoleIDs); err != nil {
		errors.WriteError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]bool{"revoked": true})
}

// GetUserRoles maneja GET /api/v1/rbac/users/{id}/roles
func (c *Controller) GetUserRoles(w http.ResponseWriter, r *http.Request) {
	grants, roles, err := c.engine.GetUserRoles(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	roleByID := make(map[string]int, len(roles))
	for i := range roles {
		roleByID[roles[i].ID] = i
	}
	items := make([]dto.GrantView, 0, len(grants))
	for _, g := range grants {
		idx, ok := roleByID[g.RoleID]
		if !ok {
			continue
		}
		items = append(items, dto.GrantView{
			Role:      dto.NewRoleView(&roles[idx]),
			GrantedBy: g.GrantedBy,
			GrantedAt: g.GrantedAt,
			ExpiresAt: g.ExpiresAt,
		})
	}
	helpers.WriteJSON(w, http.StatusOK, items)
}

// GetUserPermissions maneja GET /api/v1/rbac/users/{id}/permissions
func (c *Controller) GetUserPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := c.engine.GetUserPermissions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	items := make([]dto.PermissionView, 0, len(perms))
	for i := range perms {
		items = append(items, dto.NewPermissionView(&perms[i]))
	}
	helpers.WriteJSON(w, http.StatusOK, items)
}

// CheckPermission maneja POST /api/v1/rbac/check-permission
func (c *Controller) CheckPermission(w http.ResponseWriter, r *http.Request) {
	var req dto.CheckPermissionRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if req.UserID == "" || req.Resource == "" || req.Action == "" {
		errors.WriteError(w, r, errors.ErrValidation.WithDetail("user_id, resource and action are required"))
		return
	}
	ok, err := c.engine.CheckUserPermission(r.Context(), req.UserID, req.Resource, req.Action)
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.CheckPermissionResponse{Allowed: ok})
}

// InitDefaults maneja POST /api/v1/rbac/init-defaults
func (c *Controller) InitDefaults(w http.ResponseWriter, r *http.Request) {
	poolID := c.poolID(r.URL.Query().Get("pool_id"))
	if err := c.engine.InitDefaults(r.Context(), poolID); err != nil {
		errors.WriteError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]bool{"initialized": true})
}
