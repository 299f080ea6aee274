package errors

import (
	"fmt"
	"net/http"
)

// AppError define la estructura estándar para errores de la aplicación.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"` // No se serializa, usado para el header
	Err        error  `json:"-"` // Causa original, útil para logs, no se expone al cliente
}

// Error implementa la interfaz error
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap permite acceder al error original
func (e *AppError) Unwrap() error {
	return e.Err
}

// New crea un nuevo AppError
func New(status int, code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: status,
	}
}

// WithDetail devuelve una COPIA con detalle, para no mutar los errores base.
func (e *AppError) WithDetail(detail string) *AppError {
	c := *e
	c.Detail = detail
	return &c
}

// WithCause devuelve una COPIA conservando la causa original.
func (e *AppError) WithCause(err error) *AppError {
	c := *e
	c.Err = err
	return &c
}

// Errores base. El mapeo desde errores de dominio vive en map.go.
var (
	ErrAuthFailed       = New(http.StatusUnauthorized, "auth_failed", "Invalid credentials")
	ErrTokenMissing     = New(http.StatusUnauthorized, "token_missing", "Missing bearer token")
	ErrTokenInvalid     = New(http.StatusUnauthorized, "token_invalid", "Invalid or expired token")
	ErrForbidden        = New(http.StatusForbidden, "forbidden", "Insufficient permissions")
	ErrUserBlocked      = New(http.StatusForbidden, "user_blocked", "User is blocked")
	ErrNotFound         = New(http.StatusNotFound, "not_found", "Resource not found")
	ErrConflict         = New(http.StatusConflict, "conflict", "Resource already exists")
	ErrStateConflict    = New(http.StatusConflict, "state_conflict", "Operation not allowed in current state")
	ErrValidation       = New(http.StatusUnprocessableEntity, "validation_error", "Invalid input")
	ErrInvalidJSON      = New(http.StatusBadRequest, "invalid_json", "Invalid JSON body")
	ErrRateLimited      = New(http.StatusTooManyRequests, "rate_limited", "Too many requests")
	ErrOTPInvalid       = New(http.StatusBadRequest, "otp_invalid", "Wrong verification code")
	ErrOTPNotFound      = New(http.StatusBadRequest, "otp_not_found", "No active verification code")
	ErrOTPExhausted     = New(http.StatusBadRequest, "otp_exhausted", "Verification code attempts exhausted")
	ErrOTPThrottled     = New(http.StatusTooManyRequests, "otp_throttled", "Code already sent, wait before retrying")
	ErrSessionExpired   = New(http.StatusBadRequest, "qr_session_expired", "Login session expired")
	ErrSessionState     = New(http.StatusConflict, "qr_session_state", "Login session is not in a valid state")
	ErrInternal         = New(http.StatusInternalServerError, "internal_error", "Internal server error")
	ErrMethodNotAllowed = New(http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
)
