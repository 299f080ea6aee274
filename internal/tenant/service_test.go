package tenant

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/authpool/internal/audit"
	"github.com/dropDatabas3/authpool/internal/domain/repository"
	"github.com/dropDatabas3/authpool/internal/security/password"
	"github.com/dropDatabas3/authpool/internal/store/memory"
)

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	st := memory.New()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := NewService(st.Pools(), st.Users(), audit.NewRecorder(st.Audit()), password.Policy{MinLength: 8}).
		WithClock(func() time.Time { return base })
	return svc, st
}

func TestPoolLifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	pool, err := svc.CreatePool(ctx, CreatePoolInput{Name: "customers", Description: "End users"})
	require.NoError(t, err)
	require.Equal(t, repository.PoolActive, pool.Status)

	got, err := svc.GetPool(ctx, pool.ID)
	require.NoError(t, err)
	require.Equal(t, "customers", got.Name)

	disabled := repository.PoolDisabled
	updated, err := svc.UpdatePool(ctx, pool.ID, repository.UpdatePoolInput{Status: &disabled})
	require.NoError(t, err)
	require.Equal(t, repository.PoolDisabled, updated.Status)

	pools, total, err := svc.ListPools(ctx, repository.ListPoolsFilter{})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, pools, 1)
}

func TestDuplicatePoolName(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreatePool(ctx, CreatePoolInput{Name: "customers"})
	require.NoError(t, err)
	_, err = svc.CreatePool(ctx, CreatePoolInput{Name: "customers"})
	require.True(t, repository.IsConflict(err))
}

func TestCreateApplicationGeneratesCredentials(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	pool, err := svc.CreatePool(ctx, CreatePoolInput{Name: "customers"})
	require.NoError(t, err)

	app, err := svc.CreateApplication(ctx, pool.ID, CreateApplicationInput{Name: "webapp"})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(app.AppID, "app_"))
	require.NotEmpty(t, app.AppSecret)
	require.Equal(t, repository.AppWeb, app.Type)

	other, err := svc.CreateApplication(ctx, pool.ID, CreateApplicationInput{Name: "mobile", Type: repository.AppNative})
	require.NoError(t, err)
	require.NotEqual(t, app.AppID, other.AppID)
	require.NotEqual(t, app.AppSecret, other.AppSecret)

	apps, err := svc.ListApplications(ctx, pool.ID)
	require.NoError(t, err)
	require.Len(t, apps, 2)
}

func TestCreateApplicationRequiresPool(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.CreateApplication(context.Background(), "no-such-pool", CreateApplicationInput{Name: "webapp"})
	require.True(t, repository.IsNotFound(err))
}

func TestAdminUserLifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	email := "alice@example.com"
	user, err := svc.CreateUser(ctx, "pool-1", CreateUserInput{Email: &email, Password: "hunter22hunter22"})
	require.NoError(t, err)

	nick := "Alice"
	updated, err := svc.UpdateUser(ctx, user.ID, repository.UpdateUserInput{Nickname: &nick})
	require.NoError(t, err)
	require.Equal(t, "Alice", updated.Nickname)

	users, total, err := svc.ListUsers(ctx, "pool-1", repository.ListUsersFilter{Keyword: "alice"})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, users, 1)

	// La baja es lógica: el usuario queda bloqueado.
	require.NoError(t, svc.DeleteUser(ctx, user.ID))
	got, err := svc.GetUser(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, repository.UserBlocked, got.Status)
}

func TestCreateUserWithoutIdentifier(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.CreateUser(context.Background(), "pool-1", CreateUserInput{Password: "hunter22hunter22"})
	require.ErrorIs(t, err, ErrMissingIdentifier)
}

func TestChangePassword(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	email := "alice@example.com"
	user, err := svc.CreateUser(ctx, "pool-1", CreateUserInput{Email: &email, Password: "hunter22hunter22"})
	require.NoError(t, err)

	require.ErrorIs(t, svc.ChangePassword(ctx, user.ID, "wrong old", "brand new pass"), ErrWrongPassword)
	require.ErrorIs(t, svc.ChangePassword(ctx, user.ID, "hunter22hunter22", "short"), ErrPasswordTooShort)

	require.NoError(t, svc.ChangePassword(ctx, user.ID, "hunter22hunter22", "brand new pass"))

	cred, err := st.Users().GetCredential(ctx, user.ID, repository.CredentialPassword)
	require.NoError(t, err)
	require.True(t, password.Verify("brand new pass", cred.Secret))
	require.False(t, password.Verify("hunter22hunter22", cred.Secret))
}

func TestAdminResetPasswordSkipsOldCheck(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	email := "alice@example.com"
	user, err := svc.CreateUser(ctx, "pool-1", CreateUserInput{Email: &email, Password: "hunter22hunter22"})
	require.NoError(t, err)

	require.NoError(t, svc.ResetPassword(ctx, user.ID, "forced new pass"))

	cred, err := st.Users().GetCredential(ctx, user.ID, repository.CredentialPassword)
	require.NoError(t, err)
	require.True(t, password.Verify("forced new pass", cred.Secret))
}

func TestResetPasswordCreatesCredentialIfMissing(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	// Usuario sin credencial (alta sin password).
	email := "alice@example.com"
	user, err := svc.CreateUser(ctx, "pool-1", CreateUserInput{Email: &email})
	require.NoError(t, err)

	_, err = st.Users().GetCredential(ctx, user.ID, repository.CredentialPassword)
	require.True(t, repository.IsNotFound(err))

	require.NoError(t, svc.ResetPassword(ctx, user.ID, "first ever pass"))
	cred, err := st.Users().GetCredential(ctx, user.ID, repository.CredentialPassword)
	require.NoError(t, err)
	require.True(t, password.Verify("first ever pass", cred.Secret))
}
