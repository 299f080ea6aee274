package rbac

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/authpool/internal/audit"
	"github.com/dropDatabas3/authpool/internal/domain/repository"
	"github.com/dropDatabas3/authpool/internal/store/memory"
)

type rbacFixture struct {
	engine *Engine
	store  *memory.Store
	user   *repository.User
	now    *time.Time
}

func newFixture(t *testing.T) *rbacFixture {
	t.Helper()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	now := &base

	st := memory.New()
	email := "alice@example.com"
	user := &repository.User{
		ID:         uuid.NewString(),
		UserPoolID: "pool-1",
		Email:      &email,
		Status:     repository.UserActive,
		CreatedAt:  base,
		UpdatedAt:  base,
	}
	require.NoError(t, st.Users().CreateUser(context.Background(), user, nil))

	engine := NewEngine(st.RBAC(), st.Users(), audit.NewRecorder(st.Audit())).
		WithClock(func() time.Time { return *now })
	return &rbacFixture{engine: engine, store: st, user: user, now: now}
}

func (f *rbacFixture) mustRole(t *testing.T, code string) *repository.Role {
	t.Helper()
	role, err := f.engine.CreateRole(context.Background(), "pool-1", CreateRoleInput{
		Name: code, Code: code,
	})
	require.NoError(t, err)
	return role
}

func (f *rbacFixture) mustPermission(t *testing.T, resource, action string) *repository.Permission {
	t.Helper()
	perm, err := f.engine.CreatePermission(context.Background(), "pool-1", CreatePermissionInput{
		Name: resource + ":" + action, Code: resource + ":" + action,
		Resource: resource, Action: action,
	})
	require.NoError(t, err)
	return perm
}

func TestRoleCRUD(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	role := f.mustRole(t, "editor")
	require.False(t, role.IsSystem)

	got, err := f.engine.GetRole(ctx, role.ID)
	require.NoError(t, err)
	require.Equal(t, "editor", got.Code)

	name := "Content editor"
	updated, err := f.engine.UpdateRole(ctx, role.ID, UpdateRoleInput{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Content editor", updated.Name)

	require.NoError(t, f.engine.DeleteRole(ctx, role.ID))
	_, err = f.engine.GetRole(ctx, role.ID)
	require.True(t, repository.IsNotFound(err))
}

func TestDuplicateRoleCodeConflicts(t *testing.T) {
	f := newFixture(t)
	f.mustRole(t, "editor")
	_, err := f.engine.CreateRole(context.Background(), "pool-1", CreateRoleInput{Name: "x", Code: "editor"})
	require.True(t, repository.IsConflict(err))
}

func TestAssignRolesReplacesExisting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.mustRole(t, "role-a")
	b := f.mustRole(t, "role-b")
	c := f.mustRole(t, "role-c")

	require.NoError(t, f.engine.AssignRolesToUser(ctx, f.user.ID, []string{a.ID, b.ID}, nil, nil))

	// La segunda asignación reemplaza el set completo, no agrega.
	require.NoError(t, f.engine.AssignRolesToUser(ctx, f.user.ID, []string{c.ID}, nil, nil))

	_, roles, err := f.engine.GetUserRoles(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	require.Equal(t, "role-c", roles[0].Code)
}

func TestRevokeRemovesOnlyNamedRoles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.mustRole(t, "role-a")
	b := f.mustRole(t, "role-b")

	require.NoError(t, f.engine.AssignRolesToUser(ctx, f.user.ID, []string{a.ID, b.ID}, nil, nil))
	require.NoError(t, f.engine.RevokeRolesFromUser(ctx, f.user.ID, []string{a.ID}))

	_, roles, err := f.engine.GetUserRoles(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, roles, 1)
	require.Equal(t, "role-b", roles[0].Code)
}

func TestAssignPermissionsReplaces(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	role := f.mustRole(t, "editor")
	read := f.mustPermission(t, "doc", "read")
	write := f.mustPermission(t, "doc", "write")

	require.NoError(t, f.engine.AssignPermissionsToRole(ctx, role.ID, []string{read.ID, write.ID}))
	require.NoError(t, f.engine.AssignPermissionsToRole(ctx, role.ID, []string{read.ID}))

	perms, err := f.engine.GetRolePermissions(ctx, role.ID)
	require.NoError(t, err)
	require.Len(t, perms, 1)
	require.Equal(t, "doc:read", perms[0].Code)
}

func TestCheckUserPermission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	role := f.mustRole(t, "editor")
	read := f.mustPermission(t, "doc", "read")
	require.NoError(t, f.engine.AssignPermissionsToRole(ctx, role.ID, []string{read.ID}))
	require.NoError(t, f.engine.AssignRolesToUser(ctx, f.user.ID, []string{role.ID}, nil, nil))

	ok, err := f.engine.CheckUserPermission(ctx, f.user.ID, "doc", "read")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = f.engine.CheckUserPermission(ctx, f.user.ID, "doc", "delete")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestExpiredGrantCarriesNoPermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	role := f.mustRole(t, "temp")
	read := f.mustPermission(t, "doc", "read")
	require.NoError(t, f.engine.AssignPermissionsToRole(ctx, role.ID, []string{read.ID}))

	expiry := f.now.Add(time.Hour)
	require.NoError(t, f.engine.AssignRolesToUser(ctx, f.user.ID, []string{role.ID}, nil, &expiry))

	ok, err := f.engine.CheckUserPermission(ctx, f.user.ID, "doc", "read")
	require.NoError(t, err)
	require.True(t, ok)

	*f.now = f.now.Add(2 * time.Hour)
	ok, err = f.engine.CheckUserPermission(ctx, f.user.ID, "doc", "read")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSystemRoleIsImmutable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.engine.InitDefaults(ctx, "pool-1"))

	roles, _, err := f.engine.ListRoles(ctx, "pool-1", repository.ListFilter{})
	require.NoError(t, err)
	var admin *repository.Role
	for i := range roles {
		if roles[i].Code == RoleAdmin {
			admin = &roles[i]
		}
	}
	require.NotNil(t, admin)
	require.True(t, admin.IsSystem)

	name := "renamed"
	_, err = f.engine.UpdateRole(ctx, admin.ID, UpdateRoleInput{Name: &name})
	require.ErrorIs(t, err, ErrSystemRole)

	require.ErrorIs(t, f.engine.DeleteRole(ctx, admin.ID), ErrSystemRole)
}

func TestDeleteRoleInUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	role := f.mustRole(t, "editor")
	require.NoError(t, f.engine.AssignRolesToUser(ctx, f.user.ID, []string{role.ID}, nil, nil))

	require.ErrorIs(t, f.engine.DeleteRole(ctx, role.ID), ErrRoleInUse)

	require.NoError(t, f.engine.RevokeRolesFromUser(ctx, f.user.ID, []string{role.ID}))
	require.NoError(t, f.engine.DeleteRole(ctx, role.ID))
}

func TestCrossPoolPermissionAssignmentRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	role := f.mustRole(t, "editor")
	foreign, err := f.engine.CreatePermission(ctx, "pool-2", CreatePermissionInput{
		Name: "doc:read", Code: "doc:read", Resource: "doc", Action: "read",
	})
	require.NoError(t, err)

	err = f.engine.AssignPermissionsToRole(ctx, role.ID, []string{foreign.ID})
	require.ErrorIs(t, err, ErrCrossPool)
}

func TestInitDefaultsIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.engine.InitDefaults(ctx, "pool-1"))
	require.NoError(t, f.engine.InitDefaults(ctx, "pool-1"))

	roles, total, err := f.engine.ListRoles(ctx, "pool-1", repository.ListFilter{})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, roles, 2)

	_, permTotal, err := f.engine.ListPermissions(ctx, "pool-1", repository.ListFilter{})
	require.NoError(t, err)
	require.Equal(t, 7, permTotal)
}

func TestInitDefaultsGrantsAdminEverything(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.engine.InitDefaults(ctx, "pool-1"))

	roles, _, err := f.engine.ListRoles(ctx, "pool-1", repository.ListFilter{})
	require.NoError(t, err)
	byCode := map[string]*repository.Role{}
	for i := range roles {
		byCode[roles[i].Code] = &roles[i]
	}

	adminPerms, err := f.engine.GetRolePermissions(ctx, byCode[RoleAdmin].ID)
	require.NoError(t, err)
	require.Len(t, adminPerms, 7)

	userPerms, err := f.engine.GetRolePermissions(ctx, byCode[RoleUser].ID)
	require.NoError(t, err)
	for _, p := range userPerms {
		require.Equal(t, "read", p.Action, "code=%s", p.Code)
	}
	require.NotEmpty(t, userPerms)
}

func TestSystemFlagSurvivesPersistence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.engine.InitDefaults(ctx, "pool-1"))

	for _, code := range []string{RoleAdmin, RoleUser} {
		role, err := f.store.RBAC().GetRoleByCode(ctx, "pool-1", code)
		require.NoError(t, err)
		require.True(t, role.IsSystem, "rol %s debe persistir is_system", code)
	}
}
