package auth

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/authpool/internal/audit"
	"github.com/dropDatabas3/authpool/internal/domain/repository"
	"github.com/dropDatabas3/authpool/internal/notify"
	"github.com/dropDatabas3/authpool/internal/otp"
	"github.com/dropDatabas3/authpool/internal/security/password"
	"github.com/dropDatabas3/authpool/internal/security/token"
	"github.com/dropDatabas3/authpool/internal/store/memory"
)

var codeRe = regexp.MustCompile(`\d{6}`)

type captureSender struct {
	mu   sync.Mutex
	last notify.Message
}

func (c *captureSender) Send(ctx context.Context, msg notify.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = msg
	return nil
}

func (c *captureSender) lastCode(t *testing.T) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	code := codeRe.FindString(c.last.Body)
	require.NotEmpty(t, code)
	return code
}

type authFixture struct {
	svc    *Service
	store  *memory.Store
	sender *captureSender
	tokens *token.Service
	now    *time.Time
}

func newFixture(t *testing.T) *authFixture {
	t.Helper()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	now := &base
	clock := func() time.Time { return *now }

	st := memory.New()
	sender := &captureSender{}
	engine := otp.NewEngine(st.OTP(), sender, otp.Defaults).WithClock(clock)
	tokens := token.NewService("test-secret-0123456789", "authpool-test", 2*time.Hour, 168*time.Hour, token.NewMemoryRevocations()).WithClock(clock)
	recorder := audit.NewRecorder(st.Audit())
	svc := NewService(st.Users(), engine, tokens, recorder, password.Policy{MinLength: 8}).WithClock(clock)

	return &authFixture{svc: svc, store: st, sender: sender, tokens: tokens, now: now}
}

func (f *authFixture) register(t *testing.T, email, pass string) *repository.User {
	t.Helper()
	user, err := f.svc.Register(context.Background(), "pool-1", RegisterInput{
		Email:    &email,
		Password: pass,
	}, RequestMeta{})
	require.NoError(t, err)
	return user
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user := f.register(t, "alice@example.com", "hunter22hunter22")
	require.Equal(t, repository.UserActive, user.Status)

	pair, err := f.svc.LoginByPassword(ctx, "pool-1", "alice@example.com", "hunter22hunter22", RequestMeta{IP: "1.2.3.4"})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, "Bearer", pair.TokenType)
	require.Equal(t, int64(7200), pair.ExpiresIn)
	require.Equal(t, user.ID, pair.User.ID)

	// last_login_at quedó estampado.
	got, err := f.store.Users().GetUser(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastLoginAt)
}

func TestLoginDoesNotLeakWhichFieldFailed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice@example.com", "hunter22hunter22")

	// Usuario inexistente y password equivocada fallan idéntico.
	_, errNoUser := f.svc.LoginByPassword(ctx, "pool-1", "nobody@example.com", "hunter22hunter22", RequestMeta{})
	_, errBadPass := f.svc.LoginByPassword(ctx, "pool-1", "alice@example.com", "wrong password", RequestMeta{})
	require.ErrorIs(t, errNoUser, ErrInvalidCredentials)
	require.ErrorIs(t, errBadPass, ErrInvalidCredentials)
}

func TestLoginScopedToPool(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice@example.com", "hunter22hunter22")

	_, err := f.svc.LoginByPassword(ctx, "pool-2", "alice@example.com", "hunter22hunter22", RequestMeta{})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestBlockedUserCannotLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.register(t, "alice@example.com", "hunter22hunter22")

	blocked := repository.UserBlocked
	_, err := f.store.Users().UpdateUser(ctx, user.ID, repository.UpdateUserInput{Status: &blocked})
	require.NoError(t, err)

	_, err = f.svc.LoginByPassword(ctx, "pool-1", "alice@example.com", "hunter22hunter22", RequestMeta{})
	require.ErrorIs(t, err, ErrUserBlocked)
}

func TestRegisterValidations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "pool-1", RegisterInput{Password: "hunter22hunter22"}, RequestMeta{})
	require.ErrorIs(t, err, ErrMissingIdentifier)

	email := "alice@example.com"
	_, err = f.svc.Register(ctx, "pool-1", RegisterInput{Email: &email, Password: "short"}, RequestMeta{})
	require.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestRegisterDuplicateIdentifier(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice@example.com", "hunter22hunter22")

	email := "alice@example.com"
	_, err := f.svc.Register(ctx, "pool-1", RegisterInput{Email: &email, Password: "hunter22hunter22"}, RequestMeta{})
	require.True(t, repository.IsConflict(err))

	// El mismo identificador en otro pool no conflictúa.
	_, err = f.svc.Register(ctx, "pool-2", RegisterInput{Email: &email, Password: "hunter22hunter22"}, RequestMeta{})
	require.NoError(t, err)
}

func TestRefreshIssuesNewAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice@example.com", "hunter22hunter22")

	pair, err := f.svc.LoginByPassword(ctx, "pool-1", "alice@example.com", "hunter22hunter22", RequestMeta{})
	require.NoError(t, err)

	refreshed, err := f.svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, refreshed.AccessToken)
	require.NotEqual(t, pair.AccessToken, refreshed.AccessToken)

	// Sin rotación: el refresh token sigue sirviendo.
	_, err = f.svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshBlockedUserLooksInvalid(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.register(t, "alice@example.com", "hunter22hunter22")

	pair, err := f.svc.LoginByPassword(ctx, "pool-1", "alice@example.com", "hunter22hunter22", RequestMeta{})
	require.NoError(t, err)

	blocked := repository.UserBlocked
	_, err = f.store.Users().UpdateUser(ctx, user.ID, repository.UpdateUserInput{Status: &blocked})
	require.NoError(t, err)

	// No se distingue de un token inválido.
	_, err = f.svc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice@example.com", "hunter22hunter22")

	pair, err := f.svc.LoginByPassword(ctx, "pool-1", "alice@example.com", "hunter22hunter22", RequestMeta{})
	require.NoError(t, err)

	_, err = f.svc.Refresh(ctx, pair.AccessToken)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)

	_, err = f.svc.Refresh(ctx, "garbage")
	require.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestLogoutRevokesAccessToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice@example.com", "hunter22hunter22")

	pair, err := f.svc.LoginByPassword(ctx, "pool-1", "alice@example.com", "hunter22hunter22", RequestMeta{})
	require.NoError(t, err)

	claims, err := f.tokens.Verify(ctx, pair.AccessToken, token.TypeAccess)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, claims, RequestMeta{}))

	_, err = f.tokens.Verify(ctx, pair.AccessToken, token.TypeAccess)
	require.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestOTPLoginProvisionsEmailUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SendOTP(ctx, "carol@example.com", repository.OTPLogin, RequestMeta{}))
	code := f.sender.lastCode(t)

	pair, err := f.svc.LoginByOTP(ctx, "pool-1", "carol@example.com", code, RequestMeta{})
	require.NoError(t, err)

	user := pair.User
	require.NotNil(t, user.Email)
	require.Equal(t, "carol@example.com", *user.Email)
	require.True(t, user.EmailVerified)
	require.Equal(t, "carol", user.Nickname)
}

func TestOTPLoginProvisionsPhoneUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SendOTP(ctx, "+5491122334455", repository.OTPLogin, RequestMeta{}))
	code := f.sender.lastCode(t)

	pair, err := f.svc.LoginByOTP(ctx, "pool-1", "+5491122334455", code, RequestMeta{})
	require.NoError(t, err)

	user := pair.User
	require.NotNil(t, user.Phone)
	require.Equal(t, "+5491122334455", *user.Phone)
	require.True(t, user.PhoneVerified)
	require.Equal(t, "user4455", user.Nickname)
}

func TestOTPLoginReusesExistingUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	existing := f.register(t, "alice@example.com", "hunter22hunter22")

	require.NoError(t, f.svc.SendOTP(ctx, "alice@example.com", repository.OTPLogin, RequestMeta{}))
	code := f.sender.lastCode(t)

	pair, err := f.svc.LoginByOTP(ctx, "pool-1", "alice@example.com", code, RequestMeta{})
	require.NoError(t, err)
	require.Equal(t, existing.ID, pair.User.ID)
}

func TestOTPLoginWrongCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SendOTP(ctx, "carol@example.com", repository.OTPLogin, RequestMeta{}))

	_, err := f.svc.LoginByOTP(ctx, "pool-1", "carol@example.com", "badcode", RequestMeta{})
	var inv otp.ErrInvalid
	require.ErrorAs(t, err, &inv)
}

func TestResetPasswordByOTP(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice@example.com", "hunter22hunter22")

	require.NoError(t, f.svc.SendOTP(ctx, "alice@example.com", repository.OTPResetPassword, RequestMeta{}))
	code := f.sender.lastCode(t)

	require.NoError(t, f.svc.ResetPasswordByOTP(ctx, "pool-1", "alice@example.com", code, "new password 99", RequestMeta{}))

	_, err := f.svc.LoginByPassword(ctx, "pool-1", "alice@example.com", "hunter22hunter22", RequestMeta{})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.LoginByPassword(ctx, "pool-1", "alice@example.com", "new password 99", RequestMeta{})
	require.NoError(t, err)
}

func TestResetPasswordUnknownUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.SendOTP(ctx, "ghost@example.com", repository.OTPResetPassword, RequestMeta{}))
	code := f.sender.lastCode(t)

	err := f.svc.ResetPasswordByOTP(ctx, "pool-1", "ghost@example.com", code, "new password 99", RequestMeta{})
	require.True(t, repository.IsNotFound(err))
}

func TestAuditTrailOnLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice@example.com", "hunter22hunter22")

	_, err := f.svc.LoginByPassword(ctx, "pool-1", "alice@example.com", "hunter22hunter22", RequestMeta{IP: "1.2.3.4"})
	require.NoError(t, err)

	var found bool
	for _, l := range f.store.AuditEntries() {
		if l.Action == "auth.login" && l.Success {
			found = true
			require.Equal(t, "1.2.3.4", l.IP)
		}
	}
	require.True(t, found, "login audit entry missing")
}
