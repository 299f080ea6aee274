// Package notify entrega códigos OTP y avisos al usuario final.
// El canal (email, SMS) se resuelve por la forma del identificador.
package notify

import "context"

// Message es un aviso dirigido a un identificador de login.
type Message struct {
	To      string // email o teléfono
	Subject string
	Body    string
}

// Sender entrega mensajes. La entrega es best-effort: quien llama
// decide si un fallo aborta el flujo o sólo se loguea.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
