package repository

import (
	"context"
	"time"
)

// QRStatus estado de una sesión de login por QR.
type QRStatus string

const (
	QRPending   QRStatus = "pending"
	QRScanned   QRStatus = "scanned"
	QRConfirmed QRStatus = "confirmed"
	QRExpired   QRStatus = "expired"
	QRCancelled QRStatus = "cancelled"
)

// QRLoginSession es el handshake de login cross-device. El scene_id es
// la primary key. confirmed/cancelled/expired son terminales.
type QRLoginSession struct {
	SceneID     string
	UserPoolID  string
	AppID       string
	Status      QRStatus
	UserID      *string // Nil hasta confirmar
	ExpiresAt   time.Time
	ScannedAt   *time.Time
	ConfirmedAt *time.Time
	ConsumedAt  *time.Time // Primer poll que entregó tokens
	IP          string     // Cliente web que originó la sesión
	UserAgent   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// QRRepository define la persistencia de sesiones QR.
type QRRepository interface {
	// CreateQRSession persiste una sesión nueva en estado pending.
	CreateQRSession(ctx context.Context, s *QRLoginSession) error

	// GetQRSession busca por scene_id. Retorna ErrNotFound si no existe.
	// Lectura pura: no aplica lazy-expiry (eso es responsabilidad del
	// caller, como función pura de (status, expires_at, now)).
	GetQRSession(ctx context.Context, sceneID string) (*QRLoginSession, error)

	// UpdateQRSession persiste una transición de estado.
	UpdateQRSession(ctx context.Context, s *QRLoginSession) error
}
