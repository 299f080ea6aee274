package otp

import "fmt"

// Las fallas de verificación llevan RemainingAttempts para que la capa
// HTTP pueda informar cuántos intentos quedan.

// ErrNotFound indica que no hay ningún código activo para el
// identificador. Cubre códigos inexistentes, expirados y ya usados.
type ErrNotFound struct{}

func (ErrNotFound) Error() string { return "otp: no active code" }

// ErrInvalid indica un código equivocado. El intento ya quedó contado.
type ErrInvalid struct {
	RemainingAttempts int
}

func (e ErrInvalid) Error() string {
	return fmt.Sprintf("otp: wrong code (%d attempts left)", e.RemainingAttempts)
}

// ErrExhausted indica que el código agotó sus intentos.
type ErrExhausted struct{}

func (ErrExhausted) Error() string { return "otp: attempts exhausted" }

// ErrThrottled indica que el último código todavía está en cooldown.
type ErrThrottled struct {
	RetryAfterSeconds int
}

func (e ErrThrottled) Error() string {
	return fmt.Sprintf("otp: resend too soon (retry in %ds)", e.RetryAfterSeconds)
}
