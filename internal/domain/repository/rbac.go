package repository

import (
	"context"
	"time"
)

// Role es un bundle de permisos con nombre, scoped al pool.
// Los roles de sistema (IsSystem) están protegidos contra edición/borrado.
type Role struct {
	ID          string
	UserPoolID  string
	Name        string
	Code        string // Único dentro del pool
	Description string
	IsSystem    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Permission describe una capacidad. El par (resource, action) es la
// unidad que se chequea en autorización; el code es etiqueta humana.
type Permission struct {
	ID          string
	UserPoolID  string
	Name        string
	Code        string // Único dentro del pool
	Resource    string
	Action      string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UserRoleGrant es la asignación (user, role) con metadata.
// Un grant con expires_at en el pasado se trata como ausente en todo
// cómputo de permisos: la expiración se aplica en query-time, no hay
// borrado en background.
type UserRoleGrant struct {
	UserID    string
	RoleID    string
	GrantedBy *string
	GrantedAt time.Time
	ExpiresAt *time.Time
}

// ListFilter paginación simple para roles/permisos.
type ListFilter struct {
	Page    int // 1-based
	PerPage int
}

// RBACRepository define la persistencia de roles, permisos y sus
// relaciones. La consistencia de tenant entre entidades relacionadas la
// valida el engine antes de llamar; el repositorio asume IDs del mismo pool.
type RBACRepository interface {
	// ─── Roles ───

	// CreateRole crea un rol. Retorna ErrConflict si (pool, code) ya existe.
	CreateRole(ctx context.Context, role *Role) error

	// GetRole busca un rol por ID. Retorna ErrNotFound si no existe.
	GetRole(ctx context.Context, id string) (*Role, error)

	// GetRoleByCode busca un rol por (pool, code).
	GetRoleByCode(ctx context.Context, poolID, code string) (*Role, error)

	// UpdateRole persiste name/description.
	UpdateRole(ctx context.Context, role *Role) error

	// ListRoles lista roles del pool por created_at desc. Retorna items y total.
	ListRoles(ctx context.Context, poolID string, filter ListFilter) ([]Role, int, error)

	// DeleteRole elimina el rol y sus role_permissions en una transacción.
	DeleteRole(ctx context.Context, id string) error

	// CountRoleUsers retorna cuántos user_roles referencian el rol.
	CountRoleUsers(ctx context.Context, roleID string) (int, error)

	// ─── Permisos ───

	// CreatePermission crea un permiso. Retorna ErrConflict si (pool, code) ya existe.
	CreatePermission(ctx context.Context, perm *Permission) error

	// GetPermission busca un permiso por ID. Retorna ErrNotFound si no existe.
	GetPermission(ctx context.Context, id string) (*Permission, error)

	// UpdatePermission persiste name/description.
	UpdatePermission(ctx context.Context, perm *Permission) error

	// ListPermissions lista permisos del pool por created_at desc.
	ListPermissions(ctx context.Context, poolID string, filter ListFilter) ([]Permission, int, error)

	// DeletePermission elimina el permiso y sus role_permissions en una transacción.
	DeletePermission(ctx context.Context, id string) error

	// ─── Relaciones ───

	// ReplaceRolePermissions reemplaza el set completo de permisos del
	// rol (delete-then-insert) en una transacción. Operación de set, no aditiva.
	ReplaceRolePermissions(ctx context.Context, roleID string, permissionIDs []string) error

	// GetRolePermissions retorna los permisos asignados a un rol.
	GetRolePermissions(ctx context.Context, roleID string) ([]Permission, error)

	// ReplaceUserRoles reemplaza el set completo de roles del usuario
	// (delete-then-insert) en una transacción, con metadata uniforme.
	ReplaceUserRoles(ctx context.Context, userID string, grants []UserRoleGrant) error

	// DeleteUserRoles elimina solo los pares (user, role) indicados.
	DeleteUserRoles(ctx context.Context, userID string, roleIDs []string) error

	// GetUserRoles retorna los grants del usuario con su rol, incluyendo
	// los expirados (la fila existe; el filtro de expiración es de los
	// cómputos de permisos, no del listado).
	GetUserRoles(ctx context.Context, userID string) ([]UserRoleGrant, []Role, error)

	// GetUserPermissions hace el join user_roles → role_permissions →
	// permissions filtrando grants con expires_at IS NULL OR > now,
	// deduplicado.
	GetUserPermissions(ctx context.Context, userID string, now time.Time) ([]Permission, error)

	// HasUserPermission es el mismo join filtrado por (resource, action)
	// exactos; chequeo de existencia.
	HasUserPermission(ctx context.Context, userID, resource, action string, now time.Time) (bool, error)
}
