package repository

import (
	"context"
	"time"
)

// OTPType propósito de un código de un solo uso.
type OTPType string

const (
	OTPLogin         OTPType = "login"
	OTPRegister      OTPType = "register"
	OTPResetPassword OTPType = "reset_password"
	OTPVerify        OTPType = "verify"
)

// OTPCode es un código efímero. La fila persiste para auditoría aun
// después de usada/expirada/agotada, pero nunca vuelve a ser elegible.
type OTPCode struct {
	ID          string
	Identifier  string // Teléfono o email destino; no necesariamente un usuario resuelto
	CodeHash    string // hex(SHA256(code + salt))
	Salt        string
	Type        OTPType
	Attempts    int
	MaxAttempts int
	ExpiresAt   time.Time
	Used        bool
	IP          string
	UserAgent   string
	CreatedAt   time.Time
}

// OTPRepository define la persistencia de códigos OTP.
// "Activo" siempre significa: no usado, no expirado, el más reciente
// por created_at. El mismo orden se aplica en throttle y en verify.
type OTPRepository interface {
	// CreateOTP persiste un código nuevo.
	CreateOTP(ctx context.Context, code *OTPCode) error

	// NewestActiveOTP retorna el código activo más reciente para
	// (identifier, type) con expires_at > now y used = false, ordenado
	// por created_at descendente. Retorna ErrNotFound si no hay ninguno.
	NewestActiveOTP(ctx context.Context, identifier string, typ OTPType, now time.Time) (*OTPCode, error)

	// UpdateOTP persiste attempts/used. Debe ejecutarse aunque el
	// verify vaya a fallar: el contador de intentos se persiste antes
	// de conocer el resultado.
	UpdateOTP(ctx context.Context, code *OTPCode) error
}
