package token

import (
	"context"
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Tipos de token emitidos.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// ErrInvalidToken cubre firma inválida, formato, expiración, tipo
// equivocado y jti revocado. No se distingue la causa hacia afuera.
var ErrInvalidToken = errors.New("invalid token")

// Claims son los claims propios que viajan en los JWT.
type Claims struct {
	UserID    string
	Type      string
	JTI       string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Service emite y verifica JWT HS256 firmados con un secreto compartido.
type Service struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	revoked    RevocationStore

	// inyectable en tests
	now func() time.Time
}

func NewService(secret, issuer string, accessTTL, refreshTTL time.Duration, revoked RevocationStore) *Service {
	return &Service{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		revoked:    revoked,
		now:        time.Now,
	}
}

// WithClock fija el reloj del servicio. Sólo para tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// IssueAccess emite un access token para userID.
func (s *Service) IssueAccess(userID string) (string, Claims, error) {
	return s.issue(userID, TypeAccess, s.accessTTL)
}

// IssueRefresh emite un refresh token para userID.
func (s *Service) IssueRefresh(userID string) (string, Claims, error) {
	return s.issue(userID, TypeRefresh, s.refreshTTL)
}

func (s *Service) issue(userID, typ string, ttl time.Duration) (string, Claims, error) {
	now := s.now().UTC()
	c := Claims{
		UserID:    userID,
		Type:      typ,
		JTI:       uuid.NewString(),
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	mc := jwtv5.MapClaims{
		"iss": s.issuer,
		"sub": c.UserID,
		"typ": c.Type,
		"jti": c.JTI,
		"iat": c.IssuedAt.Unix(),
		"exp": c.ExpiresAt.Unix(),
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, mc)
	signed, err := tk.SignedString(s.secret)
	if err != nil {
		return "", Claims{}, err
	}
	return signed, c, nil
}

// Verify valida firma, expiración y tipo, y consulta la revocación por jti.
// Cualquier fallo colapsa en ErrInvalidToken.
func (s *Service) Verify(ctx context.Context, raw, expectedType string) (Claims, error) {
	tok, err := jwtv5.Parse(raw, func(t *jwtv5.Token) (any, error) {
		return s.secret, nil
	},
		jwtv5.WithValidMethods([]string{"HS256"}),
		jwtv5.WithTimeFunc(func() time.Time { return s.now() }),
	)
	if err != nil || !tok.Valid {
		return Claims{}, ErrInvalidToken
	}
	mc, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	c, ok := claimsFromMap(mc)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	if expectedType != "" && c.Type != expectedType {
		return Claims{}, ErrInvalidToken
	}
	if s.revoked != nil && c.JTI != "" {
		rev, err := s.revoked.IsRevoked(ctx, c.JTI)
		if err != nil {
			return Claims{}, err
		}
		if rev {
			return Claims{}, ErrInvalidToken
		}
	}
	return c, nil
}

// Revoke invalida el jti de las claims hasta su expiración natural.
func (s *Service) Revoke(ctx context.Context, c Claims) error {
	if s.revoked == nil || c.JTI == "" {
		return nil
	}
	ttl := c.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	return s.revoked.Revoke(ctx, c.JTI, ttl)
}

// DecodeUnverified parsea las claims sin validar la firma.
// Sólo para introspección (ej: conocer el exp de un token ajeno).
// Nunca usar el resultado para autorizar.
func DecodeUnverified(raw string) (Claims, error) {
	tok, _, err := jwtv5.NewParser().ParseUnverified(raw, jwtv5.MapClaims{})
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	mc, ok := tok.Claims.(jwtv5.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	c, ok := claimsFromMap(mc)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	return c, nil
}

func claimsFromMap(mc jwtv5.MapClaims) (Claims, bool) {
	sub, _ := mc["sub"].(string)
	if sub == "" {
		return Claims{}, false
	}
	typ, _ := mc["typ"].(string)
	jti, _ := mc["jti"].(string)
	var iat, exp time.Time
	if f, ok := mc["iat"].(float64); ok {
		iat = time.Unix(int64(f), 0).UTC()
	}
	if f, ok := mc["exp"].(float64); ok {
		exp = time.Unix(int64(f), 0).UTC()
	}
	return Claims{UserID: sub, Type: typ, JTI: jti, IssuedAt: iat, ExpiresAt: exp}, true
}
