package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/dropDatabas3/authpool/internal/observability/logger"
	mail "github.com/go-mail/mail"
)

// SMTPSender entrega mensajes por SMTP. Sólo aplica a identificadores
// con forma de email; para teléfonos delega en un fallback (o log).
type SMTPSender struct {
	Host               string
	Port               int
	From               string
	User               string
	Pass               string
	TLSMode            string // "auto" | "starttls" | "ssl" | "none"
	InsecureSkipVerify bool

	// Fallback para destinos no-email (típicamente LogSender).
	Fallback Sender
}

func NewSMTPSender(host string, port int, from, user, pass string) *SMTPSender {
	return &SMTPSender{
		Host:     host,
		Port:     port,
		From:     from,
		User:     user,
		Pass:     pass,
		TLSMode:  "auto",
		Fallback: NewLogSender(),
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if !strings.Contains(msg.To, "@") {
		if s.Fallback != nil {
			return s.Fallback.Send(ctx, msg)
		}
		return fmt.Errorf("smtp send: %q is not an email address", msg.To)
	}

	log := logger.From(ctx).With(
		logger.Component("notify"),
		logger.String("host", s.Host),
		logger.Identifier(msg.To),
	)

	m := mail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	d := mail.NewDialer(s.Host, s.Port, s.User, s.Pass)
	d.TLSConfig = &tls.Config{
		ServerName:         s.Host,
		InsecureSkipVerify: s.InsecureSkipVerify, // solo dev
	}

	switch s.TLSMode {
	case "ssl":
		d.SSL = true
	case "none":
		d.TLSConfig = &tls.Config{InsecureSkipVerify: s.InsecureSkipVerify}
	default:
		// "auto"/"starttls": go-mail negocia STARTTLS si corresponde
	}

	if err := d.DialAndSend(m); err != nil {
		log.Error("smtp send failed", logger.Err(err))
		return fmt.Errorf("smtp send: %w", err)
	}

	log.Info("email sent")
	return nil
}
