package repository

import (
	"context"
	"time"
)

// AuditLog es un registro append-only de acciones relevantes de
// seguridad. El core nunca lo lee, actualiza ni borra.
type AuditLog struct {
	ID           string
	UserPoolID   string
	UserID       *string
	Action       string
	Resource     string
	ResourceID   string
	Details      string // JSON serializado
	Success      bool
	ErrorMessage string
	IP           string
	UserAgent    string
	CreatedAt    time.Time
}

// AuditRepository es el sink de auditoría.
type AuditRepository interface {
	// AppendAudit agrega una entrada. Nunca se muta después.
	AppendAudit(ctx context.Context, entry *AuditLog) error
}
