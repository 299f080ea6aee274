// Package admin define los cuerpos de request/response del plano de
// gestión: pools, aplicaciones y usuarios.
package admin

import (
	"time"

	"github.com/dropDatabas3/authpool/internal/domain/repository"
)

// PoolView vista pública de un pool.
type PoolView struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Settings    map[string]any `json:"settings,omitempty"`
	Status      string         `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// ApplicationView vista de una aplicación. AppSecret viaja completo
// sólo en la respuesta de creación.
type ApplicationView struct {
	ID             string    `json:"id"`
	PoolID         string    `json:"pool_id"`
	Name           string    `json:"name"`
	Type           string    `json:"type"`
	AppID          string    `json:"app_id"`
	AppSecret      string    `json:"app_secret,omitempty"`
	Description    string    `json:"description,omitempty"`
	CallbackURLs   []string  `json:"callback_urls,omitempty"`
	LogoutURLs     []string  `json:"logout_urls,omitempty"`
	AllowedOrigins []string  `json:"allowed_origins,omitempty"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

// CreatePoolRequest body de POST /api/v1/pools
type CreatePoolRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Settings    map[string]any `json:"settings,omitempty"`
}

// UpdatePoolRequest body de PUT /api/v1/pools/{id}
type UpdatePoolRequest struct {
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Settings    map[string]any `json:"settings,omitempty"`
	Status      *string        `json:"status,omitempty"`
}

// CreateApplicationRequest body de POST /api/v1/pools/{id}/applications
type CreateApplicationRequest struct {
	Name                 string   `json:"name"`
	Type                 string   `json:"type,omitempty"`
	Description          string   `json:"description,omitempty"`
	CallbackURLs         []string `json:"callback_urls,omitempty"`
	LogoutURLs           []string `json:"logout_urls,omitempty"`
	AllowedOrigins       []string `json:"allowed_origins,omitempty"`
	TokenLifetime        int      `json:"token_lifetime,omitempty"`
	RefreshTokenLifetime int      `json:"refresh_token_lifetime,omitempty"`
}

// CreateUserRequest body de POST /api/v1/users (alta administrativa)
type CreateUserRequest struct {
	PoolID    string         `json:"pool_id,omitempty"`
	Username  *string        `json:"username,omitempty"`
	Email     *string        `json:"email,omitempty"`
	Phone     *string        `json:"phone,omitempty"`
	Password  string         `json:"password,omitempty"`
	Nickname  string         `json:"nickname,omitempty"`
	AvatarURL string         `json:"avatar_url,omitempty"`
	Profile   map[string]any `json:"profile,omitempty"`
}

// UpdateUserRequest body de PUT /api/v1/users/{id}
type UpdateUserRequest struct {
	Username  *string        `json:"username,omitempty"`
	Email     *string        `json:"email,omitempty"`
	Phone     *string        `json:"phone,omitempty"`
	Nickname  *string        `json:"nickname,omitempty"`
	AvatarURL *string        `json:"avatar_url,omitempty"`
	Profile   map[string]any `json:"profile,omitempty"`
	Status    *string        `json:"status,omitempty"`
}

// ChangePasswordRequest body de POST /api/v1/users/me/change-password
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ResetPasswordRequest body de POST /api/v1/users/{id}/reset-password (admin)
type ResetPasswordRequest struct {
	NewPassword string `json:"new_password"`
}

// ListResponse respuesta paginada.
type ListResponse[T any] struct {
	Items   []T `json:"items"`
	Total   int `json:"total"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// NewPoolView proyecta un pool.
func NewPoolView(p *repository.UserPool) PoolView {
	return PoolView{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Settings:    p.Settings,
		Status:      string(p.Status),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// NewApplicationView proyecta una aplicación. includeSecret sólo en el alta.
func NewApplicationView(a *repository.Application, includeSecret bool) ApplicationView {
	v := ApplicationView{
		ID:             a.ID,
		PoolID:         a.UserPoolID,
		Name:           a.Name,
		Type:           string(a.Type),
		AppID:          a.AppID,
		Description:    a.Description,
		CallbackURLs:   a.CallbackURLs,
		LogoutURLs:     a.LogoutURLs,
		AllowedOrigins: a.AllowedOrigins,
		Status:         string(a.Status),
		CreatedAt:      a.CreatedAt,
	}
	if includeSecret {
		v.AppSecret = a.AppSecret
	}
	return v
}
