// Package rbac define los cuerpos de request/response de roles y permisos.
package rbac

import (
	"time"

	"github.com/dropDatabas3/authpool/internal/domain/repository"
)

// RoleView vista pública de un rol.
type RoleView struct {
	ID          string    `json:"id"`
	PoolID      string    `json:"pool_id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Description string    `json:"description,omitempty"`
	IsSystem    bool      `json:"is_system"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PermissionView vista pública de un permiso.
type PermissionView struct {
	ID          string    `json:"id"`
	PoolID      string    `json:"pool_id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Resource    string    `json:"resource"`
	Action      string    `json:"action"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// GrantView vista de una asignación user-role con su metadata.
type GrantView struct {
	Role      RoleView   `json:"role"`
	GrantedBy *string    `json:"granted_by,omitempty"`
	GrantedAt time.Time  `json:"granted_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// ListResponse respuesta paginada.
type ListResponse[T any] struct {
	Items   []T `json:"items"`
	Total   int `json:"total"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// CreateRoleRequest body de POST /api/v1/rbac/roles
type CreateRoleRequest struct {
	PoolID      string `json:"pool_id,omitempty"`
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
}

// UpdateRoleRequest body de PUT /api/v1/rbac/roles/{id}
type UpdateRoleRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// CreatePermissionRequest body de POST /api/v1/rbac/permissions
type CreatePermissionRequest struct {
	PoolID      string `json:"pool_id,omitempty"`
	Name        string `json:"name"`
	Code        string `json:"code"`
	Resource    string `json:"resource"`
	Action      string `json:"action"`
	Description string `json:"description,omitempty"`
}

// UpdatePermissionRequest body de PUT /api/v1/rbac/permissions/{id}
type UpdatePermissionRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// AssignPermissionsRequest body de POST /api/v1/rbac/roles/{id}/permissions
type AssignPermissionsRequest struct {
	PermissionIDs []string `json:"permission_ids"`
}

// AssignRolesRequest body de POST /api/v1/rbac/users/{id}/roles
type AssignRolesRequest struct {
	RoleIDs   []string   `json:"role_ids"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// RevokeRolesRequest body de DELETE /api/v1/rbac/users/{id}/roles
type RevokeRolesRequest struct {
	RoleIDs []string `json:"role_ids"`
}

// CheckPermissionRequest body de POST /api/v1/rbac/check-permission
type CheckPermissionRequest struct {
	UserID   string `json:"user_id"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

// CheckPermissionResponse respuesta del chequeo.
type CheckPermissionResponse struct {
	Allowed bool `json:"allowed"`
}

// NewRoleView proyecta un rol.
func NewRoleView(r *repository.Role) RoleView {
	return RoleView{
		ID:          r.ID,
		PoolID:      r.UserPoolID,
		Name:        r.Name,
		Code:        r.Code,
		Description: r.Description,
		IsSystem:    r.IsSystem,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// NewPermissionView proyecta un permiso.
func NewPermissionView(p *repository.Permission) PermissionView {
	return PermissionView{
		ID:          p.ID,
		PoolID:      p.UserPoolID,
		Name:        p.Name,
		Code:        p.Code,
		Resource:    p.Resource,
		Action:      p.Action,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
