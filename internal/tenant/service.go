// Package tenant administra pools, aplicaciones y usuarios desde el
// plano de gestión. El self-service de usuario final vive en internal/auth.
package tenant

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/authpool/internal/audit"
	"github.com/dropDatabas3/authpool/internal/domain/repository"
	"github.com/dropDatabas3/authpool/internal/security/password"
	"github.com/dropDatabas3/authpool/internal/security/token"
)

// Service expone la administración de tenants.
type Service struct {
	pools    repository.PoolRepository
	users    repository.UserRepository
	recorder *audit.Recorder
	policy   password.Policy

	now func() time.Time
}

func NewService(pools repository.PoolRepository, users repository.UserRepository, recorder *audit.Recorder, policy password.Policy) *Service {
	return &Service{pools: pools, users: users, recorder: recorder, policy: policy, now: time.Now}
}

// WithClock fija el reloj. Sólo para tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// ─── Pools ───

// CreatePoolInput alta de pool.
type CreatePoolInput struct {
	Name        string
	Description string
	Settings    map[string]any
}

func (s *Service) CreatePool(ctx context.Context, in CreatePoolInput) (*repository.UserPool, error) {
	now := s.now().UTC()
	pool := &repository.UserPool{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Settings:    in.Settings,
		Status:      repository.PoolActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.pools.CreatePool(ctx, pool); err != nil {
		return nil, err
	}
	s.auditEntry(ctx, pool.ID, "tenant.pool.create", "pool", pool.ID, nil)
	return pool, nil
}

func (s *Service) GetPool(ctx context.Context, id string) (*repository.UserPool, error) {
	return s.pools.GetPool(ctx, id)
}

func (s *Service) UpdatePool(ctx context.Context, id string, in repository.UpdatePoolInput) (*repository.UserPool, error) {
	pool, err := s.pools.UpdatePool(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.auditEntry(ctx, id, "tenant.pool.update", "pool", id, nil)
	return pool, nil
}

func (s *Service) ListPools(ctx context.Context, filter repository.ListPoolsFilter) ([]repository.UserPool, int, error) {
	return s.pools.ListPools(ctx, filter)
}

// ─── Aplicaciones ───

// CreateApplicationInput alta de aplicación bajo un pool.
type CreateApplicationInput struct {
	Name                 string
	Type                 repository.AppType
	Description          string
	CallbackURLs         []string
	LogoutURLs           []string
	AllowedOrigins       []string
	TokenLifetime        int
	RefreshTokenLifetime int
}

// CreateApplication genera app_id y app_secret. El secret se muestra
// completo una única vez, en esta respuesta.
func (s *Service) CreateApplication(ctx context.Context, poolID string, in CreateApplicationInput) (*repository.Application, error) {
	if _, err := s.pools.GetPool(ctx, poolID); err != nil {
		return nil, err
	}
	appID, err := generateAppID()
	if err != nil {
		return nil, err
	}
	secret, err := token.GenerateOpaqueSecret(32)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	app := &repository.Application{
		ID:                   uuid.NewString(),
		UserPoolID:           poolID,
		Name:                 in.Name,
		Type:                 in.Type,
		AppID:                appID,
		AppSecret:            secret,
		Description:          in.Description,
		CallbackURLs:         in.CallbackURLs,
		LogoutURLs:           in.LogoutURLs,
		AllowedOrigins:       in.AllowedOrigins,
		TokenLifetime:        in.TokenLifetime,
		RefreshTokenLifetime: in.RefreshTokenLifetime,
		Status:               repository.PoolActive,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if app.Type == "" {
		app.Type = repository.AppWeb
	}
	if err := s.pools.CreateApplication(ctx, app); err != nil {
		return nil, err
	}
	s.auditEntry(ctx, poolID, "tenant.app.create", "application", app.AppID, nil)
	return app, nil
}

func (s *Service) GetApplication(ctx context.Context, appID string) (*repository.Application, error) {
	return s.pools.GetApplication(ctx, appID)
}

func (s *Service) ListApplications(ctx context.Context, poolID string) ([]repository.Application, error) {
	return s.pools.ListApplications(ctx, poolID)
}

// ─── Usuarios (plano admin) ───

// CreateUserInput alta administrativa de usuario.
type CreateUserInput struct {
	Username  *string
	Email     *string
	Phone     *string
	Password  string // Opcional: vacío crea el usuario sin credencial
	Nickname  string
	AvatarURL string
	Profile   map[string]any
}

func (s *Service) CreateUser(ctx context.Context, poolID string, in CreateUserInput) (*repository.User, error) {
	if in.Username == nil && in.Email == nil && in.Phone == nil {
		return nil, ErrMissingIdentifier
	}
	now := s.now().UTC()
	user := &repository.User{
		ID:         uuid.NewString(),
		UserPoolID: poolID,
		Username:   in.Username,
		Email:      in.Email,
		Phone:      in.Phone,
		Nickname:   in.Nickname,
		AvatarURL:  in.AvatarURL,
		Profile:    in.Profile,
		Status:     repository.UserActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	var creds []repository.Credential
	if in.Password != "" {
		if ok, _ := s.policy.Validate(in.Password); !ok {
			return nil, ErrPasswordTooShort
		}
		phc, err := password.Hash(password.Default, in.Password)
		if err != nil {
			return nil, err
		}
		creds = append(creds, repository.Credential{
			ID:         uuid.NewString(),
			UserID:     user.ID,
			Type:       repository.CredentialPassword,
			Identifier: identifierOf(user),
			Secret:     phc,
			CreatedAt:  now,
		})
	}
	if err := s.users.CreateUser(ctx, user, creds); err != nil {
		return nil, err
	}
	s.auditEntry(ctx, poolID, "tenant.user.create", "user", user.ID, nil)
	return user, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*repository.User, error) {
	return s.users.GetUser(ctx, id)
}

// UpdateUser aplica cambios de perfil. Un cambio de email o phone
// resetea el flag de verificación correspondiente.
func (s *Service) UpdateUser(ctx context.Context, id string, in repository.UpdateUserInput) (*repository.User, error) {
	user, err := s.users.UpdateUser(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.auditEntry(ctx, user.UserPoolID, "tenant.user.update", "user", id, nil)
	return user, nil
}

func (s *Service) ListUsers(ctx context.Context, poolID string, filter repository.ListUsersFilter) ([]repository.User, int, error) {
	return s.users.ListUsers(ctx, poolID, filter)
}

// DeleteUser es un soft delete: el usuario queda blocked y no puede
// autenticar, pero la fila y su historial persisten.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	blocked := repository.UserBlocked
	user, err := s.users.UpdateUser(ctx, id, repository.UpdateUserInput{Status: &blocked})
	if err != nil {
		return err
	}
	s.auditEntry(ctx, user.UserPoolID, "tenant.user.delete", "user", id, nil)
	return nil
}

// ChangePassword verifica la password vieja antes de reemplazarla.
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if ok, _ := s.policy.Validate(newPassword); !ok {
		return ErrPasswordTooShort
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	cred, err := s.users.GetCredential(ctx, userID, repository.CredentialPassword)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrWrongPassword
		}
		return err
	}
	if !password.Verify(oldPassword, cred.Secret) {
		s.auditEntry(ctx, user.UserPoolID, "tenant.user.change_password", "user", userID, ErrWrongPassword)
		return ErrWrongPassword
	}
	err = s.setPassword(ctx, user, cred.Identifier, newPassword)
	s.auditEntry(ctx, user.UserPoolID, "tenant.user.change_password", "user", userID, err)
	return err
}

// ResetPassword reemplaza la credencial sin verificar la anterior.
// Ruta administrativa; la variante self-service con OTP vive en auth.
func (s *Service) ResetPassword(ctx context.Context, userID, newPassword string) error {
	if ok, _ := s.policy.Validate(newPassword); !ok {
		return ErrPasswordTooShort
	}
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	ident := identifierOf(user)
	if cred, err := s.users.GetCredential(ctx, userID, repository.CredentialPassword); err == nil {
		ident = cred.Identifier
	}
	err = s.setPassword(ctx, user, ident, newPassword)
	s.auditEntry(ctx, user.UserPoolID, "tenant.user.reset_password", "user", userID, err)
	return err
}

func (s *Service) setPassword(ctx context.Context, user *repository.User, identifier, plain string) error {
	phc, err := password.Hash(password.Default, plain)
	if err != nil {
		return err
	}
	return s.users.UpsertCredential(ctx, &repository.Credential{
		ID:         uuid.NewString(),
		UserID:     user.ID,
		Type:       repository.CredentialPassword,
		Identifier: identifier,
		Secret:     phc,
		CreatedAt:  s.now().UTC(),
	})
}

// generateAppID produce un identificador público "app_" + 16 hex.
func generateAppID() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "app_" + hex.EncodeToString(b), nil
}

func identifierOf(u *repository.User) string {
	switch {
	case u.Username != nil:
		return *u.Username
	case u.Email != nil:
		return *u.Email
	case u.Phone != nil:
		return *u.Phone
	}
	return u.ID
}

func (s *Service) auditEntry(ctx context.Context, poolID, action, resource, resourceID string, err error) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(ctx, audit.Entry{
		PoolID:     poolID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Success:    err == nil,
		Err:        err,
	})
}
