// Package auth define los cuerpos de request/response del dominio auth.
package auth

import (
	"time"

	"github.com/dropDatabas3/authpool/internal/auth"
	"github.com/dropDatabas3/authpool/internal/domain/repository"
)

// LoginRequest es el body de POST /api/v1/auth/login
type LoginRequest struct {
	// PoolID es opcional; vacío usa el pool default.
	PoolID string `json:"pool_id,omitempty"`
	// Identifier es username, email o teléfono.
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// UserView es la vista pública de un usuario. Nunca incluye credenciales.
type UserView struct {
	ID            string         `json:"id"`
	PoolID        string         `json:"pool_id"`
	Username      *string        `json:"username,omitempty"`
	Email         *string        `json:"email,omitempty"`
	Phone         *string        `json:"phone,omitempty"`
	Nickname      string         `json:"nickname,omitempty"`
	AvatarURL     string         `json:"avatar_url,omitempty"`
	Profile       map[string]any `json:"profile,omitempty"`
	EmailVerified bool           `json:"email_verified"`
	PhoneVerified bool           `json:"phone_verified"`
	Status        string         `json:"status"`
	LastLoginAt   *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// TokenResponse es la respuesta de un login/refresh exitoso.
type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int64     `json:"expires_in"`
	User         *UserView `json:"user,omitempty"`
}

// NewUserView proyecta un usuario de dominio a su vista pública.
func NewUserView(u *repository.User) *UserView {
	if u == nil {
		return nil
	}
	return &UserView{
		ID:            u.ID,
		PoolID:        u.UserPoolID,
		Username:      u.Username,
		Email:         u.Email,
		Phone:         u.Phone,
		Nickname:      u.Nickname,
		AvatarURL:     u.AvatarURL,
		Profile:       u.Profile,
		EmailVerified: u.EmailVerified,
		PhoneVerified: u.PhoneVerified,
		Status:        string(u.Status),
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
	}
}

// NewTokenResponse proyecta el TokenPair del orquestador.
func NewTokenResponse(p *auth.TokenPair) *TokenResponse {
	return &TokenResponse{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    p.TokenType,
		ExpiresIn:    p.ExpiresIn,
		User:         NewUserView(p.User),
	}
}
