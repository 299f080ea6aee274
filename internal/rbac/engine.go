// Package rbac implementa roles y permisos por pool: CRUD, asignación
// por reemplazo de set, revocación selectiva y el cómputo de permisos
// efectivos con expiración evaluada en query-time.
package rbac

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/authpool/internal/audit"
	"github.com/dropDatabas3/authpool/internal/domain/repository"
)

// Engine aplica las reglas de negocio sobre el repositorio RBAC.
type Engine struct {
	repo     repository.RBACRepository
	users    repository.UserRepository
	recorder *audit.Recorder

	now func() time.Time
}

func NewEngine(repo repository.RBACRepository, users repository.UserRepository, recorder *audit.Recorder) *Engine {
	return &Engine{repo: repo, users: users, recorder: recorder, now: time.Now}
}

// WithClock fija el reloj. Sólo para tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// ─── Roles ───

// CreateRoleInput alta de rol.
type CreateRoleInput struct {
	Name        string
	Code        string
	Description string
}

func (e *Engine) CreateRole(ctx context.Context, poolID string, in CreateRoleInput) (*repository.Role, error) {
	now := e.now().UTC()
	role := &repository.Role{
		ID:          uuid.NewString(),
		UserPoolID:  poolID,
		Name:        in.Name,
		Code:        in.Code,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.repo.CreateRole(ctx, role); err != nil {
		return nil, err
	}
	e.auditEntry(ctx, poolID, "rbac.role.create", "role", role.ID, nil)
	return role, nil
}

func (e *Engine) GetRole(ctx context.Context, id string) (*repository.Role, error) {
	return e.repo.GetRole(ctx, id)
}

// UpdateRoleInput campos editables de un rol. Nil = sin cambio.
type UpdateRoleInput struct {
	Name        *string
	Description *string
}

// UpdateRole edita name/description. Los roles de sistema no se tocan.
func (e *Engine) UpdateRole(ctx context.Context, id string, in UpdateRoleInput) (*repository.Role, error) {
	role, err := e.repo.GetRole(ctx, id)
	if err != nil {
		return nil, err
	}
	if role.IsSystem {
		return nil, ErrSystemRole
	}
	if in.Name != nil {
		role.Name = *in.Name
	}
	if in.Description != nil {
		role.Description = *in.Description
	}
	role.UpdatedAt = e.now().UTC()
	if err := e.repo.UpdateRole(ctx, role); err != nil {
		return nil, err
	}
	e.auditEntry(ctx, role.UserPoolID, "rbac.role.update", "role", role.ID, nil)
	return role, nil
}

func (e *Engine) ListRoles(ctx context.Context, poolID string, filter repository.ListFilter) ([]repository.Role, int, error) {
	return e.repo.ListRoles(ctx, poolID, filter)
}

// DeleteRole borra un rol no-sistema sin usuarios asignados. El borrado
// arrastra sus role_permissions.
func (e *Engine) DeleteRole(ctx context.Context, id string) error {
	role, err := e.repo.GetRole(ctx, id)
	if err != nil {
		return err
	}
	if role.IsSystem {
		return ErrSystemRole
	}
	n, err := e.repo.CountRoleUsers(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrRoleInUse
	}
	if err := e.repo.DeleteRole(ctx, id); err != nil {
		return err
	}
	e.auditEntry(ctx, role.UserPoolID, "rbac.role.delete", "role", id, nil)
	return nil
}

// ─── Permisos ───

// CreatePermissionInput alta de permiso.
type CreatePermissionInput struct {
	Name        string
	Code        string
	Resource    string
	Action      string
	Description string
}

func (e *Engine) CreatePermission(ctx context.Context, poolID string, in CreatePermissionInput) (*repository.Permission, error) {
	now := e.now().UTC()
	perm := &repository.Permission{
		ID:          uuid.NewString(),
		UserPoolID:  poolID,
		Name:        in.Name,
		Code:        in.Code,
		Resource:    in.Resource,
		Action:      in.Action,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.repo.CreatePermission(ctx, perm); err != nil {
		return nil, err
	}
	e.auditEntry(ctx, poolID, "rbac.permission.create", "permission", perm.ID, nil)
	return perm, nil
}

func (e *Engine) GetPermission(ctx context.Context, id string) (*repository.Permission, error) {
	return e.repo.GetPermission(ctx, id)
}

// UpdatePermissionInput campos editables de un permiso. Nil = sin cambio.
type UpdatePermissionInput struct {
	Name        *string
	Description *string
}

func (e *Engine) UpdatePermission(ctx context.Context, id string, in UpdatePermissionInput) (*repository.Permission, error) {
	perm, err := e.repo.GetPermission(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		perm.Name = *in.Name
	}
	if in.Description != nil {
		perm.Description = *in.Description
	}
	perm.UpdatedAt = e.now().UTC()
	if err := e.repo.UpdatePermission(ctx, perm); err != nil {
		return nil, err
	}
	e.auditEntry(ctx, perm.UserPoolID, "rbac.permission.update", "permission", perm.ID, nil)
	return perm, nil
}

func (e *Engine) ListPermissions(ctx context.Context, poolID string, filter repository.ListFilter) ([]repository.Permission, int, error) {
	return e.repo.ListPermissions(ctx, poolID, filter)
}

// DeletePermission borra el permiso arrastrando sus role_permissions.
func (e *Engine) DeletePermission(ctx context.Context, id string) error {
	perm, err := e.repo.GetPermission(ctx, id)
	if err != nil {
		return err
	}
	if err := e.repo.DeletePermission(ctx, id); err != nil {
		return err
	}
	e.auditEntry(ctx, perm.UserPoolID, "rbac.permission.delete", "permission", id, nil)
	return nil
}

// ─── Asignaciones ───

// AssignPermissionsToRole reemplaza el set completo de permisos del rol.
// Asignar un set vacío deja el rol sin permisos. Todos los permisos
// deben pertenecer al pool del rol.
func (e *Engine) AssignPermissionsToRole(ctx context.Context, roleID string, permissionIDs []string) error {
	role, err := e.repo.GetRole(ctx, roleID)
	if err != nil {
		return err
	}
	for _, pid := range permissionIDs {
		perm, err := e.repo.GetPermission(ctx, pid)
		if err != nil {
			return err
		}
		if perm.UserPoolID != role.UserPoolID {
			return ErrCrossPool
		}
	}
	if err := e.repo.ReplaceRolePermissions(ctx, roleID, permissionIDs); err != nil {
		return err
	}
	e.auditEntry(ctx, role.UserPoolID, "rbac.role.assign_permissions", "role", roleID, nil)
	return nil
}

func (e *Engine) GetRolePermissions(ctx context.Context, roleID string) ([]repository.Permission, error) {
	if _, err := e.repo.GetRole(ctx, roleID); err != nil {
		return nil, err
	}
	return e.repo.GetRolePermissions(ctx, roleID)
}

// AssignRolesToUser reemplaza el set completo de roles del usuario con
// metadata uniforme. Asignar un set vacío revoca todo. Todos los roles
// deben pertenecer al pool del usuario.
func (e *Engine) AssignRolesToUser(ctx context.Context, userID string, roleIDs []string, grantedBy *string, expiresAt *time.Time) error {
	user, err := e.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	now := e.now().UTC()
	grants := make([]repository.UserRoleGrant, 0, len(roleIDs))
	for _, rid := range roleIDs {
		role, err := e.repo.GetRole(ctx, rid)
		if err != nil {
			return err
		}
		if role.UserPoolID != user.UserPoolID {
			return ErrCrossPool
		}
		grants = append(grants, repository.UserRoleGrant{
			UserID:    userID,
			RoleID:    rid,
			GrantedBy: grantedBy,
			GrantedAt: now,
			ExpiresAt: expiresAt,
		})
	}
	if err := e.repo.ReplaceUserRoles(ctx, userID, grants); err != nil {
		return err
	}
	e.auditEntry(ctx, user.UserPoolID, "rbac.user.assign_roles", "user", userID, nil)
	return nil
}

// RevokeRolesFromUser elimina únicamente los pares (user, role) dados.
// A diferencia de la asignación, no toca el resto del set.
func (e *Engine) RevokeRolesFromUser(ctx context.Context, userID string, roleIDs []string) error {
	user, err := e.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if len(roleIDs) == 0 {
		return nil
	}
	if err := e.repo.DeleteUserRoles(ctx, userID, roleIDs); err != nil {
		return err
	}
	e.auditEntry(ctx, user.UserPoolID, "rbac.user.revoke_roles", "user", userID, nil)
	return nil
}

// GetUserRoles retorna los grants del usuario, expirados incluidos.
func (e *Engine) GetUserRoles(ctx context.Context, userID string) ([]repository.UserRoleGrant, []repository.Role, error) {
	if _, err := e.users.GetUser(ctx, userID); err != nil {
		return nil, nil, err
	}
	return e.repo.GetUserRoles(ctx, userID)
}

// GetUserPermissions retorna el set efectivo (deduplicado) del usuario.
// Grants expirados no aportan.
func (e *Engine) GetUserPermissions(ctx context.Context, userID string) ([]repository.Permission, error) {
	return e.repo.GetUserPermissions(ctx, userID, e.now().UTC())
}

// CheckUserPermission reporta si el usuario tiene (resource, action).
func (e *Engine) CheckUserPermission(ctx context.Context, userID, resource, action string) (bool, error) {
	return e.repo.HasUserPermission(ctx, userID, resource, action, e.now().UTC())
}

func (e *Engine) auditEntry(ctx context.Context, poolID, action, resource, resourceID string, err error) {
	if e.recorder == nil {
		return
	}
	e.recorder.Record(ctx, audit.Entry{
		PoolID:     poolID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Success:    err == nil,
		Err:        err,
	})
}
