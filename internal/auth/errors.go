package auth

import "errors"

var (
	// ErrInvalidCredentials cubre identificador inexistente, credencial
	// ausente y password equivocada. Nunca se distingue la causa.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrUserBlocked el usuario existe y autenticó, pero está bloqueado.
	ErrUserBlocked = errors.New("auth: user is blocked")

	// ErrInvalidRefreshToken refresh inválido, expirado o de tipo equivocado.
	ErrInvalidRefreshToken = errors.New("auth: invalid refresh token")

	// ErrPasswordTooShort la password no llega al mínimo.
	ErrPasswordTooShort = errors.New("auth: password too short")

	// ErrMissingIdentifier el registro no trae ningún identificador.
	ErrMissingIdentifier = errors.New("auth: at least one identifier required")
)
