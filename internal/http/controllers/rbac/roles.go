package rbac

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	dto "github.com/dropDatabas3/authpool/internal/http/dto/rbac"
	"github.com/dropDatabas3/authpool/internal/http/errors"
	"github.com/dropDatabas3/authpool/internal/http/helpers"
	"github.com/dropDatabas3/authpool/internal/rbac"
)

// CreateRole maneja POST /api/v1/rbac/roles
func (c *Controller) CreateRole(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateRoleRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if req.Name == "" || req.Code == "" {
		errors.WriteError(w, r, errors.ErrValidation.WithDetail("name and code are required"))
		return
	}
	role, err := c.engine.CreateRole(r.Context(), c.poolID(req.PoolID), rbac.CreateRoleInput{
		Name:        req.Name,
		Code:        req.Code,
		Description: req.Description,
	})
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, dto.NewRoleView(role))
}

// GetRole maneja GET /api/v1/rbac/roles/{id}
func (c *Controller) GetRole(w http.ResponseWriter, r *http.Request) {
	role, err := c.engine.GetRole(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.NewRoleView(role))
}

// UpdateRole maneja PUT /api/v1/rbac/roles/{id}
func (c *Controller) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateRoleRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	role, err := c.engine.UpdateRole(r.Context(), chi.URLParam(r, "id"), rbac.UpdateRoleInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.NewRoleView(role))
}

// ListRoles maneja GET /api/v1/rbac/roles
func (c *Controller) ListRoles(w http.ResponseWriter, r *http.Request) {
	filter := listFilter(r)
	roles, total, err := c.engine.ListRoles(r.Context(), c.poolID(r.URL.Query().Get("pool_id")), filter)
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	items := make([]dto.RoleView, 0, len(roles))
	for i := range roles {
		items = append(items, dto.NewRoleView(&roles[i]))
	}
	helpers.WriteJSON(w, http.StatusOK, dto.ListResponse[dto.RoleView]{
		Items: items, Total: total, Page: filter.Page, PerPage: filter.PerPage,
	})
}

// DeleteRole maneja DELETE /api/v1/rbac/roles/{id}
func (c *Controller) DeleteRole(w http.ResponseWriter, r *http.Request) {
	if err := c.engine.DeleteRole(r.Context(), chi.URLParam(r, "id")); err != nil {
		errors.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AssignRolePermissions maneja POST /api/v1/rbac/roles/{id}/permissions
// Reemplaza el set completo.
func (c *Controller) AssignRolePermissions(w http.ResponseWriter, r *http.Request) {
	var req dto.AssignPermissionsRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if err := c.engine.AssignPermissionsToRole(r.Context(), chi.URLParam(r, "id"), req.PermissionIDs); err != nil {
		errors.WriteError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]bool{"assigned": true})
}

// GetRolePermissions maneja GET /api/v1/rbac/roles/{id}/permissions
func (c *Controller) GetRolePermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := c.engine.GetRolePermissions(r.Context(), chi.URLParam(r, "id"))
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
