package rbac

import (
	"context"

	"github.com/google/uuid"

	"github.com/dropDatabas3/authpool/internal/domain/repository"
)

// Códigos reservados de los roles de sistema.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type defaultPermission struct {
	name     string
	code     string
	resource string
	action   string
}

// Set base de permisos. user lleva las tres acciones; role y permission
// sólo read/write, el borrado queda reservado a admin vía user:delete
// más gestión explícita.
var defaultPermissions = []defaultPermission{
	{"Read users", "user:read", "user", "read"},
	{"Write users", "user:write", "user", "write"},
	{"Delete users", "user:delete", "user", "delete"},
	{"Read roles", "role:read", "role", "read"},
	{"Write roles", "role:write", "role", "write"},
	{"Read permissions", "permission:read", "permission", "read"},
	{"Write permissions", "permission:write", "permission", "write"},
}

// InitDefaults siembra los roles de sistema (admin, user) y el set base
// de permisos del pool. Idempotente: lo ya existente se reutiliza y la
// reasignación de sets es un reemplazo estable.
// admin recibe todos los permisos; user los de action=read.
func (e *Engine) InitDefaults(ctx context.Context, poolID string) error {
	adminRole, err := e.ensureSystemRole(ctx, poolID, "Administrator", RoleAdmin, "Full access to pool management")
	if err != nil {
		return err
	}
	userRole, err := e.ensureSystemRole(ctx, poolID, "Regular user", RoleUser, "Read-only access")
	if err != nil {
		return err
	}

	allIDs := make([]string, 0, len(defaultPermissions))
	readIDs := make([]string, 0, 3)
	for _, dp := range defaultPermissions {
		perm, err := e.ensurePermission(ctx, poolID, dp)
		if err != nil {
			return err
		}
		allIDs = append(allIDs, perm.ID)
		if dp.action == "read" {
			readIDs = append(readIDs, perm.ID)
		}
	}

	if err := e.repo.ReplaceRolePermissions(ctx, adminRole.ID, allIDs); err != nil {
		return err
	}
	if err := e.repo.ReplaceRolePermissions(ctx, userRole.ID, readIDs); err != nil {
		return err
	}
	e.auditEntry(ctx, poolID, "rbac.init_defaults", "pool", poolID, nil)
	return nil
}

func (e *Engine) ensureSystemRole(ctx context.Context, poolID, name, code, desc string) (*repository.Role, error) {
	if role, err := e.repo.GetRoleByCode(ctx, poolID, code); err == nil {
		return role, nil
	} else if !repository.IsNotFound(err) {
		return nil, err
	}
	// El alta va directo al repositorio: IsSystem se fija en la
	// creación y los adapters no lo tocan en updates posteriores.
	now := e.now().UTC()
	role := &repository.Role{
		ID:          uuid.NewString(),
		UserPoolID:  poolID,
		Name:        name,
		Code:        code,
		Description: desc,
		IsSystem:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.repo.CreateRole(ctx, role); err != nil {
		if repository.IsConflict(err) {
			// Carrera con otro seed: releer.
			return e.repo.GetRoleByCode(ctx, poolID, code)
		}
		return nil, err
	}
	e.auditEntry(ctx, poolID, "rbac.role.create", "role", role.ID, nil)
	return role, nil
}

func (e *Engine) ensurePermission(ctx context.Context, poolID string, dp defaultPermission) (*repository.Permission, error) {
	perms, _, err := e.repo.ListPermissions(ctx, poolID, repository.ListFilter{Page: 1, PerPage: 200})
	if err != nil {
		return nil, err
	}
	for i := range perms {
		if perms[i].Code == dp.code {
			return &perms[i], nil
		}
	}
	perm, err := e.CreatePermission(ctx, poolID, CreatePermissionInput{
		Name:     dp.name,
		Code:     dp.code,
		Resource: dp.resource,
		Action:   dp.action,
	})
	if err != nil && repository.IsConflict(err) {
		// Carrera con otro seed: releer.
		perms, _, lerr := e.repo.ListPermissions(ctx, poolID, repository.ListFilter{Page: 1, PerPage: 200})
		if lerr != nil {
			return nil, lerr
		}
		for i := range perms {
			if perms[i].Code == dp.code {
				return &perms[i], nil
			}
		}
	}
	return perm, err
}
