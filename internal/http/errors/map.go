package errors

import (
	stderrors "errors"

	"github.com/dropDatabas3/authpool/internal/auth"
	"github.com/dropDatabas3/authpool/internal/domain/repository"
	"github.com/dropDatabas3/authpool/internal/otp"
	"github.com/dropDatabas3/authpool/internal/qr"
	"github.com/dropDatabas3/authpool/internal/rbac"
	"github.com/dropDatabas3/authpool/internal/security/token"
	"github.com/dropDatabas3/authpool/internal/tenant"
)

// Extra son campos adicionales que algunos errores aportan al payload.
type Extra struct {
	RemainingAttempts *int
	RetryAfterSeconds *int
}

// FromError mapea un error de cualquier capa al AppError del contrato.
// Errores no reconocidos colapsan en internal_error conservando la causa.
func FromError(err error) (*AppError, *Extra) {
	if err == nil {
		return ErrInternal, nil
	}

	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, nil
	}

	// OTP: tipos con payload
	var otpInvalid otp.ErrInvalid
	if stderrors.As(err, &otpInvalid) {
		n := otpInvalid.RemainingAttempts
		return ErrOTPInvalid, &Extra{RemainingAttempts: &n}
	}
	var otpThrottled otp.ErrThrottled
	if stderrors.As(err, &otpThrottled) {
		s := otpThrottled.RetryAfterSeconds
		return ErrOTPThrottled, &Extra{RetryAfterSeconds: &s}
	}
	var otpNotFound otp.ErrNotFound
	if stderrors.As(err, &otpNotFound) {
		return ErrOTPNotFound, nil
	}
	var otpExhausted otp.ErrExhausted
	if stderrors.As(err, &otpExhausted) {
		return ErrOTPExhausted, nil
	}

	switch {
	// auth
	case stderrors.Is(err, auth.ErrInvalidCredentials):
		return ErrAuthFailed, nil
	case stderrors.Is(err, auth.ErrUserBlocked):
		return ErrUserBlocked, nil
	case stderrors.Is(err, auth.ErrInvalidRefreshToken):
		return ErrTokenInvalid, nil
	case stderrors.Is(err, auth.ErrPasswordTooShort),
		stderrors.Is(err, tenant.ErrPasswordTooShort):
		return ErrValidation.WithDetail("password too short"), nil
	case stderrors.Is(err, auth.ErrMissingIdentifier),
		stderrors.Is(err, tenant.ErrMissingIdentifier):
		return ErrValidation.WithDetail("at least one identifier required"), nil
	case stderrors.Is(err, tenant.ErrWrongPassword):
		return ErrAuthFailed, nil

	// tokens
	case stderrors.Is(err, token.ErrInvalidToken):
		return ErrTokenInvalid, nil

	// qr
	case stderrors.Is(err, qr.ErrSessionExpired):
		return ErrSessionExpired, nil
	case stderrors.Is(err, qr.ErrSessionState):
		return ErrSessionState, nil

	// rbac
	case stderrors.Is(err, rbac.ErrSystemRole):
		return ErrStateConflict.WithDetail("system role is protected"), nil
	case stderrors.Is(err, rbac.ErrRoleInUse):
		return ErrStateConflict.WithDetail("role has assigned users"), nil
	case stderrors.Is(err, rbac.ErrCrossPool):
		return ErrValidation.WithDetail("entities belong to different pools"), nil

	// repositorio
	case repository.IsNotFound(err):
		return ErrNotFound, nil
	case repository.IsConflict(err):
		return ErrConflict, nil
	case stderrors.Is(err, repository.ErrInvalidInput):
		return ErrValidation, nil
	case stderrors.Is(err, repository.ErrUnauthorized):
		return ErrForbidden, nil
	}

	return ErrInternal.WithCause(err), nil
}
