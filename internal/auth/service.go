// Package auth implementa los flujos de autenticación de usuario final:
// login por password y por OTP, registro, refresh, logout y reset de
// password. La autorización (RBAC) vive aparte, en internal/rbac.
package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/authpool/internal/audit"
	"github.com/dropDatabas3/authpool/internal/domain/repository"
	"github.com/dropDatabas3/authpool/internal/otp"
	"github.com/dropDatabas3/authpool/internal/security/password"
	"github.com/dropDatabas3/authpool/internal/security/token"
)

// RequestMeta acompaña cada operación con datos del request.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// TokenPair es el resultado de una autenticación exitosa.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string // siempre "Bearer"
	ExpiresIn    int64  // segundos de vida del access token
	User         *repository.User
}

// RegisterInput son los datos de alta self-service.
type RegisterInput struct {
	Username *string
	Email    *string
	Phone    *string
	Password string
	Nickname string
	Profile  map[string]any
}

// Service orquesta autenticación contra el store, el engine OTP y el
// servicio de tokens. Cada operación que muta estado audita el resultado.
type Service struct {
	users    repository.UserRepository
	otp      *otp.Engine
	tokens   *token.Service
	recorder *audit.Recorder
	policy   password.Policy

	now func() time.Time
}

func NewService(users repository.UserRepository, otpEngine *otp.Engine, tokens *token.Service, recorder *audit.Recorder, policy password.Policy) *Service {
	return &Service{
		users:    users,
		otp:      otpEngine,
		tokens:   tokens,
		recorder: recorder,
		policy:   policy,
		now:      time.Now,
	}
}

// WithClock fija el reloj. Sólo para tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// AuthenticateByPassword resuelve identifier dentro del pool y verifica
// la password. Retorna (nil, nil) tanto para usuario inexistente como
// para password equivocada: el caller no puede enumerar usuarios.
func (s *Service) AuthenticateByPassword(ctx context.Context, poolID, identifier, plain string) (*repository.User, error) {
	user, err := s.users.FindByIdentifier(ctx, poolID, identifier)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	cred, err := s.users.GetCredential(ctx, user.ID, repository.CredentialPassword)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if !password.Verify(plain, cred.Secret) {
		return nil, nil
	}
	return user, nil
}

// LoginByPassword autentica y emite la sesión. Deja registro de
// auditoría con el resultado.
func (s *Service) LoginByPassword(ctx context.Context, poolID, identifier, plain string, meta RequestMeta) (*TokenPair, error) {
	user, err := s.AuthenticateByPassword(ctx, poolID, identifier, plain)
	if err != nil {
		return nil, err
	}
	if user == nil {
		s.audit(ctx, poolID, nil, "auth.login", "user", "", meta, ErrInvalidCredentials)
		return nil, ErrInvalidCredentials
	}
	if user.Status == repository.UserBlocked {
		s.audit(ctx, poolID, &user.ID, "auth.login", "user", user.ID, meta, ErrUserBlocked)
		return nil, ErrUserBlocked
	}
	pair, err := s.IssueSessionTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, poolID, &user.ID, "auth.login", "user", user.ID, meta, nil)
	return pair, nil
}

// IssueSessionTokens emite el par access/refresh y estampa last_login_at.
func (s *Service) IssueSessionTokens(ctx context.Context, user *repository.User) (*TokenPair, error) {
	access, ac, err := s.tokens.IssueAccess(user.ID)
	if err != nil {
		return nil, err
	}
	refresh, _, err := s.tokens.IssueRefresh(user.ID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if err := s.users.SetLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLoginAt = &now
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(ac.ExpiresAt.Sub(ac.IssuedAt).Seconds()),
		User:         user,
	}, nil
}

// TokensForUserID emite la sesión para un usuario ya autenticado por
// otro medio (ej: una sesión QR confirmada).
func (s *Service) TokensForUserID(ctx context.Context, userID string) (*TokenPair, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Status == repository.UserBlocked {
		return nil, ErrUserBlocked
	}
	return s.IssueSessionTokens(ctx, user)
}

// Refresh emite un access/refresh nuevo a partir de un refresh válido.
// El refresh presentado sigue siendo válido hasta su expiración.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.Verify(ctx, refreshToken, token.TypeRefresh)
	if err != nil {
		if err == token.ErrInvalidToken {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	user, err := s.users.GetUser(ctx, claims.UserID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	if user.Status != repository.UserActive {
		// Endpoint sin sesión: el estado del usuario no se distingue
		// de un refresh inválido.
		return nil, ErrInvalidRefreshToken
	}
	return s.IssueSessionTokens(ctx, user)
}

// Register da de alta un usuario con credencial password.
// El pre-chequeo de unicidad da errores amables; la constraint del
// store es la que corta la carrera de verdad.
func (s *Service) Register(ctx context.Context, poolID string, in RegisterInput, meta RequestMeta) (*repository.User, error) {
	if in.Username == nil && in.Email == nil && in.Phone == nil {
		return nil, ErrMissingIdentifier
	}
	if ok, _ := s.policy.Validate(in.Password); !ok {
		return nil, ErrPasswordTooShort
	}

	for _, ident := range []*string{in.Username, in.Email, in.Phone} {
		if ident == nil {
			continue
		}
		if _, err := s.users.FindByIdentifier(ctx, poolID, *ident); err == nil {
			s.audit(ctx, poolID, nil, "auth.register", "user", "", meta, repository.ErrConflict)
			return nil, repository.ErrConflict
		} else if !repository.IsNotFound(err) {
			return nil, err
		}
	}

	phc, err := password.Hash(password.Default, in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	user := &repository.User{
		ID:         uuid.NewString(),
		UserPoolID: poolID,
		Username:   in.Username,
		Email:      in.Email,
		Phone:      in.Phone,
		Nickname:   in.Nickname,
		Profile:    in.Profile,
		Status:     repository.UserActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	cred := repository.Credential{
		ID:         uuid.NewString(),
		UserID:     user.ID,
		Type:       repository.CredentialPassword,
		Identifier: primaryIdentifier(in),
		Secret:     phc,
		CreatedAt:  now,
	}
	if err := s.users.CreateUser(ctx, user, []repository.Credential{cred}); err != nil {
		s.audit(ctx, poolID, nil, "auth.register", "user", "", meta, err)
		return nil, err
	}
	s.audit(ctx, poolID, &user.ID, "auth.register", "user", user.ID, meta, nil)
	return user, nil
}

// SendOTP emite un código para identifier. No revela si el
// identificador corresponde a un usuario existente.
func (s *Service) SendOTP(ctx context.Context, identifier string, typ repository.OTPType, meta RequestMeta) error {
	return s.otp.Send(ctx, identifier, typ, otp.SendMeta{IP: meta.IP, UserAgent: meta.UserAgent})
}

// LoginByOTP verifica el código y resuelve el usuario dentro del pool,
// dándolo de alta si no existe (auto-provisioning).
func (s *Service) LoginByOTP(ctx context.Context, poolID, identifier, code string, meta RequestMeta) (*TokenPair, error) {
	if err := s.otp.Verify(ctx, identifier, repository.OTPLogin, code); err != nil {
		s.audit(ctx, poolID, nil, "auth.otp_login", "user", "", meta, err)
		return nil, err
	}

	user, err := s.users.FindByIdentifier(ctx, poolID, identifier)
	if err != nil {
		if !repository.IsNotFound(err) {
			return nil, err
		}
		user, err = s.provisionFromIdentifier(ctx, poolID, identifier)
		if err != nil {
			return nil, err
		}
	}
	if user.Status == repository.UserBlocked {
		s.audit(ctx, poolID, &user.ID, "auth.otp_login", "user", user.ID, meta, ErrUserBlocked)
		return nil, ErrUserBlocked
	}
	pair, err := s.IssueSessionTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, poolID, &user.ID, "auth.otp_login", "user", user.ID, meta, nil)
	return pair, nil
}

// ResetPasswordByOTP reemplaza la credencial password previa
// verificación de un código de tipo reset_password.
func (s *Service) ResetPasswordByOTP(ctx context.Context, poolID, identifier, code, newPassword string, meta RequestMeta) error {
	if ok, _ := s.policy.Validate(newPassword); !ok {
		return ErrPasswordTooShort
	}
	if err := s.otp.Verify(ctx, identifier, repository.OTPResetPassword, code); err != nil {
		s.audit(ctx, poolID, nil, "auth.reset_password", "user", "", meta, err)
		return err
	}
	user, err := s.users.FindByIdentifier(ctx, poolID, identifier)
	if err != nil {
		if repository.IsNotFound(err) {
			// El código era válido pero no hay usuario: no damos pista.
			s.audit(ctx, poolID, nil, "auth.reset_password", "user", "", meta, repository.ErrNotFound)
			return repository.ErrNotFound
		}
		return err
	}
	phc, err := password.Hash(password.Default, newPassword)
	if err != nil {
		return err
	}
	err = s.users.UpsertCredential(ctx, &repository.Credential{
		ID:         uuid.NewString(),
		UserID:     user.ID,
		Type:       repository.CredentialPassword,
		Identifier: identifier,
		Secret:     phc,
		CreatedAt:  s.now().UTC(),
	})
	s.audit(ctx, poolID, &user.ID, "auth.reset_password", "user", user.ID, meta, err)
	return err
}

// Logout revoca el jti del access token presentado y audita la salida.
func (s *Service) Logout(ctx context.Context, claims token.Claims, meta RequestMeta) error {
	err := s.tokens.Revoke(ctx, claims)
	uid := claims.UserID
	s.audit(ctx, "", &uid, "auth.logout", "user", uid, meta, err)
	return err
}

func (s *Service) provisionFromIdentifier(ctx context.Context, poolID, identifier string) (*repository.User, error) {
	now := s.now().UTC()
	user := &repository.User{
		ID:         uuid.NewString(),
		UserPoolID: poolID,
		Status:     repository.UserActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if strings.Contains(identifier, "@") {
		email := identifier
		user.Email = &email
		user.EmailVerified = true
		user.Nickname = identifier[:strings.Index(identifier, "@")]
	} else {
		phone := identifier
		user.Phone = &phone
		user.PhoneVerified = true
		suffix := identifier
		if len(suffix) > 4 {
			suffix = suffix[len(suffix)-4:]
		}
		user.Nickname = "user" + suffix
	}
	if err := s.users.CreateUser(ctx, user, nil); err != nil {
		// Carrera con otro login del mismo identificador: releer.
		if repository.IsConflict(err) {
			return s.users.FindByIdentifier(ctx, poolID, identifier)
		}
		return nil, err
	}
	return user, nil
}

func primaryIdentifier(in RegisterInput) string {
	switch {
	case in.Username != nil:
		return *in.Username
	case in.Email != nil:
		return *in.Email
	default:
		return *in.Phone
	}
}

func (s *Service) audit(ctx context.Context, poolID string, userID *string, action, resource, resourceID string, meta RequestMeta, opErr error) {
	if s.recorder == nil {
		return
	}
	s.recorder.Record(ctx, audit.Entry{
		PoolID:     poolID,
		UserID:     userID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Success:    opErr == nil,
		Err:        opErr,
		IP:         meta.IP,
		UserAgent:  meta.UserAgent,
	})
}
