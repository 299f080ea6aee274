package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/authpool/internal/audit"
	authsvc "github.com/dropDatabas3/authpool/internal/auth"
	"github.com/dropDatabas3/authpool/internal/bootstrap"
	"github.com/dropDatabas3/authpool/internal/domain/repository"
	adminctrl "github.com/dropDatabas3/authpool/internal/http/controllers/admin"
	authctrl "github.com/dropDatabas3/authpool/internal/http/controllers/auth"
	healthctrl "github.com/dropDatabas3/authpool/internal/http/controllers/health"
	rbacctrl "github.com/dropDatabas3/authpool/internal/http/controllers/rbac"
	"github.com/dropDatabas3/authpool/internal/notify"
	"github.com/dropDatabas3/authpool/internal/otp"
	"github.com/dropDatabas3/authpool/internal/qr"
	"github.com/dropDatabas3/authpool/internal/rate"
	"github.com/dropDatabas3/authpool/internal/rbac"
	"github.com/dropDatabas3/authpool/internal/security/password"
	"github.com/dropDatabas3/authpool/internal/security/token"
	"github.com/dropDatabas3/authpool/internal/store/memory"
	"github.com/dropDatabas3/authpool/internal/tenant"
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

type testEnv struct {
	srv    *httptest.Server
	store  *memory.Store
	engine *rbac.Engine
	sender *captureSender
	poolID string
}

// newEnv levanta el stack completo sobre el store en memoria,
// con rate limit de login bajo para poder probar el 429.
func newEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	st := memory.New()
	sender := &captureSender{}
	recorder := audit.NewRecorder(st.Audit())
	policy := password.Policy{MinLength: 8}

	tokens := token.NewService("router-test-secret", "authpool-test", 2*time.Hour, 168*time.Hour, token.NewMemoryRevocations())
	otpEngine := otp.NewEngine(st.OTP(), sender, otp.Defaults)
	qrSvc := qr.NewService(st.QR(), st.Users(), qr.DefaultTTL)
	auth := authsvc.NewService(st.Users(), otpEngine, tokens, recorder, policy)
	engine := rbac.NewEngine(st.RBAC(), st.Users(), recorder)
	tenants := tenant.NewService(st.Pools(), st.Users(), recorder, policy)

	seeded, err := bootstrap.Seed(ctx, tenants, engine, "default")
	require.NoError(t, err)

	handler := New(Deps{
		Auth:           authctrl.NewController(auth, qrSvc, seeded.Pool.ID, seeded.App.AppID),
		RBAC:           rbacctrl.NewController(engine, seeded.Pool.ID),
		Admin:          adminctrl.NewController(tenants, seeded.Pool.ID),
		Health:         healthctrl.NewController(st),
		Tokens:         tokens,
		Users:          st.Users(),
		Engine:         engine,
		LoginLimiter:   rate.NewMemoryLimiter(5, time.Minute),
		OTPSendLimiter: rate.NewMemoryLimiter(10, time.Minute),
		AllowedOrigins: []string{"*"},
	})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, store: st, engine: engine, sender: sender, poolID: seeded.Pool.ID}
}

func (e *testEnv) do(t *testing.T, method, path, bearer string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := e.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func (e *testEnv) register(t *testing.T, email, pass string) {
	t.Helper()
	resp, body := e.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"email":    email,
		"password": pass,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "body=%v", body)
}

func (e *testEnv) login(t *testing.T, email, pass string) (access, refresh string) {
	t.Helper()
	resp, body := e.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"identifier": email,
		"password":   pass,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, "body=%v", body)
	access, _ = body["access_token"].(string)
	refresh, _ = body["refresh_token"].(string)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
	return access, refresh
}

func TestHealthz(t *testing.T) {
	e := newEnv(t)
	resp, body := e.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", body["status"])
}

func TestLoginFlow(t *testing.T) {
	e := newEnv(t)
	e.register(t, "alice@example.com", "hunter22hunter22")

	access, _ := e.login(t, "alice@example.com", "hunter22hunter22")

	resp, body := e.do(t, http.MethodGet, "/api/v1/users/me", access, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "alice@example.com", body["email"])
}

func TestLoginWrongPassword(t *testing.T) {
	e := newEnv(t)
	e.register(t, "alice@example.com", "hunter22hunter22")

	resp, body := e.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"identifier": "alice@example.com",
		"password":   "nope nope nope",
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "auth_failed", body["code"])
	require.NotEmpty(t, body["request_id"])
}

func TestMeRequiresToken(t *testing.T) {
	e := newEnv(t)

	resp, body := e.do(t, http.MethodGet, "/api/v1/users/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "token_missing", body["code"])

	resp, body = e.do(t, http.MethodGet, "/api/v1/users/me", "garbage-token", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "token_invalid", body["code"])
}

func TestRefreshAndLogout(t *testing.T) {
	e := newEnv(t)
	e.register(t, "alice@example.com", "hunter22hunter22")
	access, refresh := e.login(t, "alice@example.com", "hunter22hunter22")

	resp, body := e.do(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]any{
		"refresh_token": refresh,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, body["access_token"])

	resp, _ = e.do(t, http.MethodPost, "/api/v1/auth/logout", access, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// El access token revocado deja de servir.
	resp, body = e.do(t, http.MethodGet, "/api/v1/users/me", access, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "token_invalid", body["code"])
}

func TestLoginRateLimit(t *testing.T) {
	e := newEnv(t)
	e.register(t, "alice@example.com", "hunter22hunter22")

	var last *http.Response
	var lastBody map[string]any
	for i := 0; i < 6; i++ {
		last, lastBody = e.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
			"identifier": "alice@example.com",
			"password":   "wrong password",
		})
	}
	require.Equal(t, http.StatusTooManyRequests, last.StatusCode)
	require.Equal(t, "rate_limited", lastBody["code"])
	require.NotEmpty(t, last.Header.Get("Retry-After"))
}

func TestRBACForbiddenWithoutRole(t *testing.T) {
	e := newEnv(t)
	e.register(t, "alice@example.com", "hunter22hunter22")
	access, _ := e.login(t, "alice@example.com", "hunter22hunter22")

	resp, body := e.do(t, http.MethodPost, "/api/v1/rbac/roles", access, map[string]any{
		"name": "Editor", "code": "editor",
	})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, "forbidden", body["code"])
}

func TestRBACAdminCanManageRoles(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "root@example.com", "hunter22hunter22")

	// Promover al usuario a admin directamente contra el engine.
	admin, err := e.store.Users().FindByIdentifier(ctx, e.poolID, "root@example.com")
	require.NoError(t, err)
	roles, _, err := e.engine.ListRoles(ctx, e.poolID, repository.ListFilter{})
	require.NoError(t, err)
	for i := range roles {
		if roles[i].Code == rbac.RoleAdmin {
			require.NoError(t, e.engine.AssignRolesToUser(ctx, admin.ID, []string{roles[i].ID}, nil, nil))
		}
	}

	access, _ := e.login(t, "root@example.com", "hunter22hunter22")

	resp, body := e.do(t, http.MethodPost, "/api/v1/rbac/roles", access, map[string]any{
		"name": "Editor", "code": "editor",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "body=%v", body)
	require.Equal(t, "editor", body["code"])

	resp, body = e.do(t, http.MethodGet, "/api/v1/rbac/roles", access, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items, _ := body["items"].([]any)
	require.NotEmpty(t, items)

	// Un usuario sin rol sigue bloqueado para user:read.
	e.register(t, "pleb@example.com", "hunter22hunter22")
	plebAccess, _ := e.login(t, "pleb@example.com", "hunter22hunter22")
	resp, _ = e.do(t, http.MethodGet, "/api/v1/users", plebAccess, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	// El admin sí lista usuarios.
	resp, body = e.do(t, http.MethodGet, "/api/v1/users", access, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, body["items"])
}

func TestOTPLoginOverHTTP(t *testing.T) {
	e := newEnv(t)

	resp, body := e.do(t, http.MethodPost, "/api/v1/auth/otp/send", "", map[string]any{
		"identifier": "carol@example.com",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, "body=%v", body)

	e.sender.mu.Lock()
	code := codeRe.FindString(e.sender.last.Body)
	e.sender.mu.Unlock()
	require.NotEmpty(t, code)

	resp, body = e.do(t, http.MethodPost, "/api/v1/auth/otp/login", "", map[string]any{
		"identifier": "carol@example.com",
		"code":       code,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, "body=%v", body)
	require.NotEmpty(t, body["access_token"])

	user, _ := body["user"].(map[string]any)
	require.Equal(t, "carol@example.com", user["email"])
}

func TestOTPResendThrottledOverHTTP(t *testing.T) {
	e := newEnv(t)

	resp, _ := e.do(t, http.MethodPost, "/api/v1/auth/otp/send", "", map[string]any{
		"identifier": "carol@example.com",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := e.do(t, http.MethodPost, "/api/v1/auth/otp/send", "", map[string]any{
		"identifier": "carol@example.com",
	})
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.Equal(t, "otp_throttled", body["code"])
	require.NotNil(t, body["retry_after_seconds"])
}

func TestQRFlowOverHTTP(t *testing.T) {
	e := newEnv(t)
	e.register(t, "alice@example.com", "hunter22hunter22")
	access, _ := e.login(t, "alice@example.com", "hunter22hunter22")

	resp, body := e.do(t, http.MethodPost, "/api/v1/auth/qr/create", "", map[string]any{})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	scene, _ := body["scene_id"].(string)
	require.NotEmpty(t, scene)

	// Scan y confirm requieren sesión.
	resp, _ = e.do(t, http.MethodPost, "/api/v1/auth/qr/"+scene+"/scan", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = e.do(t, http.MethodPost, "/api/v1/auth/qr/"+scene+"/scan", access, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, "body=%v", body)
	require.Equal(t, "scanned", body["status"])

	resp, body = e.do(t, http.MethodPost, "/api/v1/auth/qr/"+scene+"/confirm", access, map[string]any{
		"confirm": true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, "body=%v", body)
	require.Equal(t, "confirmed", body["status"])

	// El polling de la web recibe los tokens de la sesión confirmada.
	resp, body = e.do(t, http.MethodGet, "/api/v1/auth/qr/"+scene+"/status", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "confirmed", body["status"])
	tokens, _ := body["tokens"].(map[string]any)
	require.NotEmpty(t, tokens["access_token"])

	// La entrega es única: el siguiente poll ve confirmed sin tokens.
	resp, body = e.do(t, http.MethodGet, "/api/v1/auth/qr/"+scene+"/status", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "confirmed", body["status"])
	require.Nil(t, body["tokens"])
}

func TestUnknownRouteEnvelope(t *testing.T) {
	e := newEnv(t)
	resp, body := e.do(t, http.MethodGet, "/api/v1/nope", "", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "not_found", body["code"])
}
