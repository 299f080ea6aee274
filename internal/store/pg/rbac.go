package pg

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/authpool/internal/domain/repository"
)

type rbacRepo struct {
	pool *pgxpool.Pool
}

// ─── Roles ───

func (r *rbacRepo) CreateRole(ctx context.Context, role *repository.Role) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO roles (id, user_pool_id, name, code, description, is_system, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
		role.ID, role.UserPoolID, role.Name, role.Code, nullIfEmpty(role.Description),
		role.IsSystem, role.CreatedAt,
	)
	return mapErr(err)
}

const roleColumns = `id, user_pool_id, name, code, COALESCE(description, ''), is_system, created_at, updated_at`

func scanRole(row rowScanner) (*repository.Role, error) {
	var role repository.Role
	err := row.Scan(&role.ID, &role.UserPoolID, &role.Name, &role.Code,
		&role.Description, &role.IsSystem, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &role, nil
}

func (r *rbacRepo) GetRole(ctx context.Context, id string) (*repository.Role, error) {
	return scanRole(r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id))
}

func (r *rbacRepo) GetRoleByCode(ctx context.Context, poolID, code string) (*repository.Role, error) {
	return scanRole(r.pool.QueryRow(ctx,
		`SELECT `+roleColumns+` FROM roles WHERE user_pool_id = $1 AND code = $2`, poolID, code))
}

func (r *rbacRepo) UpdateRole(ctx context.Context, role *repository.Role) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE roles SET name = $2, description = $3, updated_at = $4 WHERE id = $1`,
		role.ID, role.Name, nullIfEmpty(role.Description), time.Now().UTC(),
	)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *rbacRepo) ListRoles(ctx context.Context, poolID string, filter repository.ListFilter) ([]repository.Role, int, error) {
	page, perPage := normalizePage(filter.Page, filter.PerPage)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM roles WHERE user_pool_id = $1`, poolID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + roleColumns + ` FROM roles WHERE user_pool_id = $1
		ORDER BY created_at DESC LIMIT ` + itoa(perPage) + ` OFFSET ` + itoa((page-1)*perPage)
	rows, err := r.pool.Query(ctx, query, poolID)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var roles []repository.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, 0, err
		}
		roles = append(roles, *role)
	}
	return roles, total, rows.Err()
}

func (r *rbacRepo) DeleteRole(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, id); err != nil {
		return mapErr(err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return tx.Commit(ctx)
}

func (r *rbacRepo) CountRoleUsers(ctx context.Context, roleID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM user_roles WHERE role_id = $1`, roleID).Scan(&n)
	return n, err
}

// ─── Permisos ───

func (r *rbacRepo) CreatePermission(ctx context.Context, perm *repository.Permission) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO permissions (id, user_pool_id, name, code, resource, action, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`,
		perm.ID, perm.UserPoolID, perm.Name, perm.Code, perm.Resource, perm.Action,
		nullIfEmpty(perm.Description), perm.CreatedAt,
	)
	return mapErr(err)
}

const permColumns = `id, user_pool_id, name, code, resource, action, COALESCE(description, ''), created_at, updated_at`

func scanPermission(row rowScanner) (*repository.Permission, error) {
	var p repository.Permission
	err := row.Scan(&p.ID, &p.UserPoolID, &p.Name, &p.Code, &p.Resource, &p.Action,
		&p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (r *rbacRepo) GetPermission(ctx context.Context, id string) (*repository.Permission, error) {
	return scanPermission(r.pool.QueryRow(ctx, `SELECT `+permColumns+` FROM permissions WHERE id = $1`, id))
}

func (r *rbacRepo) UpdatePermission(ctx context.Context, perm *repository.Permission) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE permissions SET name = $2, description = $3, updated_at = $4 WHERE id = $1`,
		perm.ID, perm.Name, nullIfEmpty(perm.Description), time.Now().UTC(),
	)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *rbacRepo) ListPermissions(ctx context.Context, poolID string, filter repository.ListFilter) ([]repository.Permission, int, error) {
	page, perPage := normalizePage(filter.Page, filter.PerPage)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM permissions WHERE user_pool_id = $1`, poolID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + permColumns + ` FROM permissions WHERE user_pool_id = $1
		ORDER BY created_at DESC LIMIT ` + itoa(perPage) + ` OFFSET ` + itoa((page-1)*perPage)
	rows, err := r.pool.Query(ctx, query, poolID)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var perms []repository.Permission
	for rows.Next() {
		p, err := scanPermission(rows)
		if err != nil {
			return nil, 0, err
		}
		perms = append(perms, *p)
	}
	return perms, total, rows.Err()
}

func (r *rbacRepo) DeletePermission(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE permission_id = $1`, id); err != nil {
		return mapErr(err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM permissions WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return tx.Commit(ctx)
}

// ─── Relaciones ───

func (r *rbacRepo) ReplaceRolePermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	// Operación de set: delete-then-insert en una transacción.
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
		return mapErr(err)
	}
	now := time.Now().UTC()
	for _, permID := range permissionIDs {
		_, err := tx.Exec(ctx,
			`INSERT INTO role_permissions (role_id, permission_id, created_at) VALUES ($1, $2, $3)`,
			roleID, permID, now,
		)
		if err != nil {
			return mapErr(err)
		}
	}
	return tx.Commit(ctx)
}

func (r *rbacRepo) GetRolePermissions(ctx context.Context, roleID string) ([]repository.Permission, error) {
	const query = `
		SELECT p.id, p.user_pool_id, p.name, p.code, p.resource, p.action,
		       COALESCE(p.description, ''), p.created_at, p.updated_at
		FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		WHERE rp.role_id = $1
		ORDER BY p.code`
	rows, err := r.pool.Query(ctx, query, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []repository.Permission
	for rows.Next() {
		p, err := scanPermission(rows)
		if err != nil {
			return nil, err
		}
		perms = append(perms, *p)
	}
	return perms, rows.Err()
}

func (r *rbacRepo) ReplaceUserRoles(ctx context.Context, userID string, grants []repository.UserRoleGrant) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, userID); err != nil {
		return mapErr(err)
	}
	for _, g := range grants {
		_, err := tx.Exec(ctx, `
			INSERT INTO user_roles (user_id, role_id, granted_by, granted_at, expires_at)
			VALUES ($1, $2, $3, $4, $5)`,
			g.UserID, g.RoleID, g.GrantedBy, g.GrantedAt, g.ExpiresAt,
		)
		if err != nil {
			return mapErr(err)
		}
	}
	return tx.Commit(ctx)
}

func (r *rbacRepo) DeleteUserRoles(ctx context.Context, userID string, roleIDs []string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM user_roles WHERE user_id = $1 AND role_id = ANY($2)`,
		userID, roleIDs,
	)
	return mapErr(err)
}

func (r *rbacRepo) GetUserRoles(ctx context.Context, userID string) ([]repository.UserRoleGrant, []repository.Role, error) {
	const query = `
		SELECT ur.user_id, ur.role_id, ur.granted_by, ur.granted_at, ur.expires_at,
		       r.id, r.user_pool_id, r.name, r.code, COALESCE(r.description, ''), r.is_system, r.created_at, r.updated_at
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		WHERE ur.user_id = $1`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var grants []repository.UserRoleGrant
	var roles []repository.Role
	for rows.Next() {
		var g repository.UserRoleGrant
		var role repository.Role
		err := rows.Scan(
			&g.UserID, &g.RoleID, &g.GrantedBy, &g.GrantedAt, &g.ExpiresAt,
			&role.ID, &role.UserPoolID, &role.Name, &role.Code, &role.Description,
			&role.IsSystem, &role.CreatedAt, &role.UpdatedAt,
		)
		if err != nil {
			return nil, nil, err
		}
		grants = append(grants, g)
		roles = append(roles, role)
	}
	return grants, roles, rows.Err()
}

func (r *rbacRepo) GetUserPermissions(ctx context.Context, userID string, now time.Time) ([]repository.Permission, error) {
	const query = `
		SELECT DISTINCT p.id, p.user_pool_id, p.name, p.code, p.resource, p.action,
		       COALESCE(p.description, ''), p.created_at, p.updated_at
		FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		JOIN user_roles ur ON ur.role_id = rp.role_id
		WHERE ur.user_id = $1
		  AND (ur.expires_at IS NULL OR ur.expires_at > $2)
		ORDER BY p.code`
	rows, err := r.pool.Query(ctx, query, userID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []repository.Permission
	for rows.Next() {
		p, err := scanPermission(rows)
		if err != nil {
			return nil, err
		}
		perms = append(perms, *p)
	}
	return perms, rows.Err()
}

func (r *rbacRepo) HasUserPermission(ctx context.Context, userID, resource, action string, now time.Time) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1
			FROM permissions p
			JOIN role_permissions rp ON rp.permission_id = p.id
			JOIN user_roles ur ON ur.role_id = rp.role_id
			WHERE ur.user_id = $1
			  AND p.resource = $2 AND p.action = $3
			  AND (ur.expires_at IS NULL OR ur.expires_at > $4)
		)`
	var ok bool
	err := r.pool.QueryRow(ctx, query, userID, resource, action, now).Scan(&ok)
	return ok, err
}
