package notify

import (
	"context"

	"github.com/dropDatabas3/authpool/internal/observability/logger"
)

// LogSender escribe los mensajes al log en lugar de enviarlos.
// Default en dev y en tests.
type LogSender struct{}

func NewLogSender() *LogSender { return &LogSender{} }

func (LogSender) Send(ctx context.Context, msg Message) error {
	logger.From(ctx).Info("notify (log sink)",
		logger.Component("notify"),
		logger.Identifier(msg.To),
		logger.String("subject", msg.Subject),
		logger.String("body", msg.Body),
	)
	return nil
}
