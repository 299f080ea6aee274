package auth

// RegisterRequest es el body de POST /api/v1/auth/register
type RegisterRequest struct {
	PoolID   string         `json:"pool_id,omitempty"`
	Username *string        `json:"username,omitempty"`
	Email    *string        `json:"email,omitempty"`
	Phone    *string        `json:"phone,omitempty"`
	Password string         `json:"password"`
	Nickname string         `json:"nickname,omitempty"`
	Profile  map[string]any `json:"profile,omitempty"`
}

// RefreshRequest es el body de POST /api/v1/auth/refresh
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ResetPasswordRequest es el body de POST /api/v1/auth/reset-password
type ResetPasswordRequest struct {
	PoolID      string `json:"pool_id,omitempty"`
	Identifier  string `json:"identifier"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}
