// Package qr implementa el handshake de login cross-device: una sesión
// efímera identificada por scene_id que el cliente web sondea mientras
// un dispositivo ya autenticado la escanea y confirma.
package qr

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/authpool/internal/domain/repository"
)

var (
	// ErrSessionExpired la sesión venció antes de confirmarse.
	ErrSessionExpired = errors.New("qr: session expired")
	// ErrSessionState la sesión no está en un estado que admita la transición.
	ErrSessionState = errors.New("qr: invalid session state")
)

// DefaultTTL es la vida de una sesión desde su creación.
const DefaultTTL = 2 * time.Minute

// Service gestiona sesiones de login QR.
type Service struct {
	repo  repository.QRRepository
	users repository.UserRepository
	ttl   time.Duration

	now func() time.Time
}

func NewService(repo repository.QRRepository, users repository.UserRepository, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{repo: repo, users: users, ttl: ttl, now: time.Now}
}

// WithClock fija el reloj. Sólo para tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// EffectiveStatus aplica la expiración perezosa como función pura:
// una sesión pending o scanned cuyo expires_at quedó atrás se reporta
// expired sin tocar el almacén. Los estados terminales no expiran.
func EffectiveStatus(status repository.QRStatus, expiresAt, now time.Time) repository.QRStatus {
	switch status {
	case repository.QRPending, repository.QRScanned:
		if !now.Before(expiresAt) {
			return repository.QRExpired
		}
	}
	return status
}

// CreateMeta acompaña la creación con datos del cliente web.
type CreateMeta struct {
	IP        string
	UserAgent string
}

// Create abre una sesión pending para (poolID, appID).
func (s *Service) Create(ctx context.Context, poolID, appID string, meta CreateMeta) (*repository.QRLoginSession, error) {
	now := s.now().UTC()
	sess := &repository.QRLoginSession{
		SceneID:    uuid.NewString(),
		UserPoolID: poolID,
		AppID:      appID,
		Status:     repository.QRPending,
		ExpiresAt:  now.Add(s.ttl),
		IP:         meta.IP,
		UserAgent:  meta.UserAgent,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.CreateQRSession(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// GetStatus retorna la sesión con su estado efectivo. Lectura pura:
// no escribe el estado expired, sólo lo reporta.
func (s *Service) GetStatus(ctx context.Context, sceneID string) (*repository.QRLoginSession, error) {
	sess, err := s.repo.GetQRSession(ctx, sceneID)
	if err != nil {
		return nil, err
	}
	sess.Status = EffectiveStatus(sess.Status, sess.ExpiresAt, s.now().UTC())
	return sess, nil
}

// Poll es la lectura del cliente web. Igual que GetStatus, salvo que
// una sesión confirmada habilita la entrega de tokens exactamente una
// vez: el primer poll que la ve confirmada la marca consumida y retorna
// deliver=true; todo poll posterior la ve confirmada sin tokens.
func (s *Service) Poll(ctx context.Context, sceneID string) (sess *repository.QRLoginSession, deliver bool, err error) {
	sess, err = s.repo.GetQRSession(ctx, sceneID)
	if err != nil {
		return nil, false, err
	}
	now := s.now().UTC()
	sess.Status = EffectiveStatus(sess.Status, sess.ExpiresAt, now)
	if sess.Status != repository.QRConfirmed || sess.UserID == nil || sess.ConsumedAt != nil {
		return sess, false, nil
	}
	sess.ConsumedAt = &now
	sess.UpdatedAt = now
	if err := s.repo.UpdateQRSession(ctx, sess); err != nil {
		return nil, false, err
	}
	return sess, true, nil
}

// Scan marca la sesión como escaneada por un dispositivo autenticado.
// Sólo una sesión pending viva admite el escaneo.
func (s *Service) Scan(ctx context.Context, sceneID string) (*repository.QRLoginSession, error) {
	sess, err := s.repo.GetQRSession(ctx, sceneID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	switch EffectiveStatus(sess.Status, sess.ExpiresAt, now) {
	case repository.QRPending:
	case repository.QRExpired:
		return nil, ErrSessionExpired
	default:
		return nil, ErrSessionState
	}
	sess.Status = repository.QRScanned
	sess.ScannedAt = &now
	sess.UpdatedAt = now
	if err := s.repo.UpdateQRSession(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Confirm resuelve la sesión: confirm=true la confirma con el usuario
// actuante, confirm=false la cancela. Ambos estados son terminales.
// El usuario debe pertenecer al pool de la sesión.
func (s *Service) Confirm(ctx context.Context, sceneID string, actingUser *repository.User, confirm bool) (*repository.QRLoginSession, error) {
	sess, err := s.repo.GetQRSession(ctx, sceneID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()

	if EffectiveStatus(sess.Status, sess.ExpiresAt, now) == repository.QRExpired {
		// Acá sí persistimos: el dispositivo llegó tarde y la sesión
		// queda cerrada para siempre.
		if sess.Status != repository.QRExpired {
			sess.Status = repository.QRExpired
			sess.UpdatedAt = now
			if err := s.repo.UpdateQRSession(ctx, sess); err != nil {
				return nil, err
			}
		}
		return nil, ErrSessionExpired
	}
	if sess.Status != repository.QRPending && sess.Status != repository.QRScanned {
		return nil, ErrSessionState
	}
	if actingUser == nil || actingUser.UserPoolID != sess.UserPoolID {
		return nil, repository.ErrUnauthorized
	}

	if confirm {
		sess.Status = repository.QRConfirmed
		sess.UserID = &actingUser.ID
		sess.ConfirmedAt = &now
		if err := s.users.SetLastLogin(ctx, actingUser.ID, now); err != nil {
			return nil, err
		}
	} else {
		sess.Status = repository.QRCancelled
	}
	sess.UpdatedAt = now
	if err := s.repo.UpdateQRSession(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}
