package memory

import (
	"context"
	"sort"
	"time"

	"github.com/dropDatabas3/authpool/internal/domain/repository"
)

type rbacRepo Store

func (r *rbacRepo) CreateRole(ctx context.Context, role *repository.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.roles {
		if existing.UserPoolID == role.UserPoolID && existing.Code == role.Code {
			return repository.ErrConflict
		}
	}
	cp := *role
	r.roles[role.ID] = &cp
	return nil
}

func (r *rbacRepo) GetRole(ctx context.Context, id string) (*repository.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	role, ok := r.roles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *role
	return &cp, nil
}

func (r *rbacRepo) GetRoleByCode(ctx context.Context, poolID, code string) (*repository.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, role := range r.roles {
		if role.UserPoolID == poolID && role.Code == code {
			cp := *role
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *rbacRepo) UpdateRole(ctx context.Context, role *repository.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.roles[role.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Name = role.Name
	existing.Description = role.Description
	existing.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *rbacRepo) ListRoles(ctx context.Context, poolID string, filter repository.ListFilter) ([]repository.Role, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*repository.Role
	for _, role := range r.roles {
		if role.UserPoolID == poolID {
			all = append(all, role)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	out := make([]repository.Role, 0, len(all))
	for _, role := range paginate(all, filter.Page, filter.PerPage) {
		out = append(out, *role)
	}
	return out, total, nil
}

func (r *rbacRepo) DeleteRole(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.roles[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.rolePerms, id)
	delete(r.roles, id)
	return nil
}

func (r *rbacRepo) CountRoleUsers(ctx context.Context, roleID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, grants := range r.userRoles {
		if _, ok := grants[roleID]; ok {
			n++
		}
	}
	return n, nil
}

func (r *rbacRepo) CreatePermission(ctx context.Context, perm *repository.Permission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.perms {
		if existing.UserPoolID == perm.UserPoolID && existing.Code == perm.Code {
			return repository.ErrConflict
		}
	}
	cp := *perm
	r.perms[perm.ID] = &cp
	return nil
}

func (r *rbacRepo) GetPermission(ctx context.Context, id string) (*repository.Permission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	perm, ok := r.perms[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *perm
	return &cp, nil
}

func (r *rbacRepo) UpdatePermission(ctx context.Context, perm *repository.Permission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.perms[perm.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Name = perm.Name
	existing.Description = perm.Description
	existing.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *rbacRepo) ListPermissions(ctx context.Context, poolID string, filter repository.ListFilter) ([]repository.Permission, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*repository.Permission
	for _, perm := range r.perms {
		if perm.UserPoolID == poolID {
			all = append(all, perm)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	out := make([]repository.Permission, 0, len(all))
	for _, perm := range paginate(all, filter.Page, filter.PerPage) {
		out = append(out, *perm)
	}
	return out, total, nil
}

func (r *rbacRepo) DeletePermission(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.perms[id]; !ok {
		return repository.ErrNotFound
	}
	for roleID := range r.rolePerms {
		delete(r.rolePerms[roleID], id)
	}
	delete(r.perms, id)
	return nil
}

func (r *rbacRepo) ReplaceRolePermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	set := make(map[string]time.Time, len(permissionIDs))
	for _, id := range permissionIDs {
		set[id] = now
	}
	r.rolePerms[roleID] = set
	return nil
}

func (r *rbacRepo) GetRolePermissions(ctx context.Context, roleID string) ([]repository.Permission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []repository.Permission
	for permID := range r.rolePerms[roleID] {
		if perm, ok := r.perms[permID]; ok {
			out = append(out, *perm)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *rbacRepo) ReplaceUserRoles(ctx context.Context, userID string, grants []repository.UserRoleGrant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := make(map[string]*repository.UserRoleGrant, len(grants))
	for i := range grants {
		g := grants[i]
		set[g.RoleID] = &g
	}
	r.userRoles[userID] = set
	return nil
}

func (r *rbacRepo) DeleteUserRoles(ctx context.Context, userID string, roleIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	grants := r.userRoles[userID]
	for _, id := range roleIDs {
		delete(grants, id)
	}
	return nil
}

func (r *rbacRepo) GetUserRoles(ctx context.Context, userID string) ([]repository.UserRoleGrant, []repository.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var grants []repository.UserRoleGrant
	var roles []repository.Role
	for roleID, g := range r.userRoles[userID] {
		role, ok := r.roles[roleID]
		if !ok {
			continue
		}
		grants = append(grants, *g)
		roles = append(roles, *role)
	}
	return grants, roles, nil
}

// activeRoleIDs retorna los roles del usuario cuyo grant no expiró.
// Un grant con expires_at en el pasado se trata como ausente.
func (r *rbacRepo) activeRoleIDs(userID string, now time.Time) []string {
	var ids []string
	for roleID, g := range r.userRoles[userID] {
		if g.ExpiresAt != nil && !g.ExpiresAt.After(now) {
			continue
		}
		ids = append(ids, roleID)
	}
	return ids
}

func (r *rbacRepo) GetUserPermissions(ctx context.Context, userID string, now time.Time) ([]repository.Permission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[string]bool{}
	var out []repository.Permission
	for _, roleID := range r.activeRoleIDs(userID, now) {
		for permID := range r.rolePerms[roleID] {
			if seen[permID] {
				continue
			}
			if perm, ok := r.perms[permID]; ok {
				seen[permID] = true
				out = append(out, *perm)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r *rbacRepo) HasUserPermission(ctx context.Context, userID, resource, action string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, roleID := range r.activeRoleIDs(userID, now) {
		for permID := range r.rolePerms[roleID] {
			if perm, ok := r.perms[permID]; ok && perm.Resource == resource && perm.Action == action {
				return true, nil
			}
		}
	}
	return false, nil
}
