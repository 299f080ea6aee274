package tenant

import "errors"

var (
	// ErrWrongPassword la password vieja no verifica.
	ErrWrongPassword = errors.New("tenant: current password does not match")

	// ErrPasswordTooShort la password nueva no llega al mínimo.
	ErrPasswordTooShort = errors.New("tenant: password too short")

	// ErrMissingIdentifier el alta no trae ningún identificador.
	ErrMissingIdentifier = errors.New("tenant: at least one identifier required")
)
