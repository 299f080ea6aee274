package memory

import (
	"context"

	"github.com/dropDatabas3/authpool/internal/domain/repository"
)

type qrRepo Store

func copyQR(s *repository.QRLoginSession) *repository.QRLoginSession {
	cp := *s
	cp.UserID = copyStr(s.UserID)
	if s.ScannedAt != nil {
		t := *s.ScannedAt
		cp.ScannedAt = &t
	}
	if s.ConfirmedAt != nil {
		t := *s.ConfirmedAt
		cp.ConfirmedAt = &t
	}
	if s.ConsumedAt != nil {
		t := *s.ConsumedAt
		cp.ConsumedAt = &t
	}
	return &cp
}

func (r *qrRepo) CreateQRSession(ctx context.Context, s *repository.QRLoginSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.qrs[s.SceneID]; ok {
		return repository.ErrConflict
	}
	r.qrs[s.SceneID] = copyQR(s)
	return nil
}

func (r *qrRepo) GetQRSession(ctx context.Context, sceneID string) (*repository.QRLoginSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.qrs[sceneID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyQR(s), nil
}

func (r *qrRepo) UpdateQRSession(ctx context.Context, s *repository.QRLoginSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.qrs[s.SceneID]; !ok {
		return repository.ErrNotFound
	}
	r.qrs[s.SceneID] = copyQR(s)
	return nil
}
