package rbac

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	dto "github.com/dropDatabas3/authpool/internal/http/dto/rbac"
	"github.com/dropDatabas3/authpool/internal/http/errors"
	"github.com/dropDatabas3/authpool/internal/http/helpers"
	"github.com/dropDatabas3/authpool/internal/rbac"
)

// CreatePermission maneja POST /api/v1/rbac/permissions
func (c *Controller) CreatePermission(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePermissionRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if req.Name == "" || req.Code == "" || req.Resource == "" || req.Action == "" {
		errors.WriteError(w, r, errors.ErrValidation.WithDetail("name, code, resource and action are required"))
		return
	}
	perm, err := c.engine.CreatePermission(r.Context(), c.poolID(req.PoolID), rbac.CreatePermissionInput{
		Name:        req.Name,
		Code:        req.Code,
		Resource:    req.Resource,
		Action:      req.Action,
		Description: req.Description,
	})
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, dto.NewPermissionView(perm))
}

// GetPermission maneja GET /api/v1/rbac/permissions/{id}
func (c *Controller) GetPermission(w http.ResponseWriter, r *http.Request) {
	perm, err := c.engine.GetPermission(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.NewPermissionView(perm))
}

// UpdatePermission maneja PUT /api/v1/rbac/permissions/{id}
func (c *Controller) UpdatePermission(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdatePermissionRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	perm, err := c.engine.UpdatePermission(r.Context(), chi.URLParam(r, "id"), rbac.UpdatePermissionInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.NewPermissionView(perm))
}

// ListPermissions maneja GET /api/v1/rbac/permissions
func (c *Controller) ListPermissions(w http.ResponseWriter, r *http.Request) {
	filter := listFilter(r)
	perms, total, err := c.engine.ListPermissions(r.Context(), c.poolID(r.URL.Query().Get("pool_id")), filter)
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	items := make([]dto.PermissionView, 0, len(perms))
	for i := range perms {
		items = append(items, dto.NewPermissionView(&perms[i]))
	}
	helpers.WriteJSON(w, http.StatusOK, dto.ListResponse[dto.PermissionView]{
		Items: items, Total: total, Page: filter.Page, PerPage: filter.PerPage,
	})
}

// DeletePermission maneja DELETE /api/v1/rbac/permissions/{id}
func (c *Controller) DeletePermission(w http.ResponseWriter, r *http.Request) {
	if err := c.engine.DeletePermission(r.Context(), chi.URLParam(r, "id")); err != nil {
		errors.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
