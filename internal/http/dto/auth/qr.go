package auth

import (
	"time"

	"github.com/dropDatabas3/authpool/internal/domain/repository"
)

// QRCreateRequest es el body de POST /api/v1/auth/qr/create
type QRCreateRequest struct {
	PoolID string `json:"pool_id,omitempty"`
	AppID  string `json:"app_id,omitempty"`
}

// QRConfirmRequest es el body de POST /api/v1/auth/qr/{scene_id}/confirm
type QRConfirmRequest struct {
	// Confirm true confirma el login; false lo cancela.
	Confirm bool `json:"confirm"`
}

// QRSessionView es la vista pública de una sesión QR.
type QRSessionView struct {
	SceneID     string     `json:"scene_id"`
	Status      string     `json:"status"`
	ExpiresAt   time.Time  `json:"expires_at"`
	ScannedAt   *time.Time `json:"scanned_at,omitempty"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	// Tokens viaja una única vez: el primer poll de una sesión
	// confirmada la consume.
	Tokens *TokenResponse `json:"tokens,omitempty"`
}

// NewQRSessionView proyecta la sesión a su vista pública.
func NewQRSessionView(s *repository.QRLoginSession) *QRSessionView {
	return &QRSessionView{
		SceneID:     s.SceneID,
		Status:      string(s.Status),
		ExpiresAt:   s.ExpiresAt,
		ScannedAt:   s.ScannedAt,
		ConfirmedAt: s.ConfirmedAt,
	}
}
