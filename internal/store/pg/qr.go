package pg

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/authpool/internal/domain/repository"
)

type qrRepo struct {
	pool *pgxpool.Pool
}

func (r *qrRepo) CreateQRSession(ctx context.Context, s *repository.QRLoginSession) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO qr_login_sessions
			(scene_id, user_pool_id, app_id, status, user_id, expires_at,
			 scanned_at, confirmed_at, consumed_at, ip_address, user_agent, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)`,
		s.SceneID, s.UserPoolID, s.AppID, s.Status, s.UserID, s.ExpiresAt,
		s.ScannedAt, s.ConfirmedAt, s.ConsumedAt, nullIfEmpty(s.IP), nullIfEmpty(s.UserAgent), s.CreatedAt,
	)
	return mapErr(err)
}

func (r *qrRepo) GetQRSession(ctx context.Context, sceneID string) (*repository.QRLoginSession, error) {
	const query = `
		SELECT scene_id, user_pool_id, app_id, status, user_id, expires_at,
		       scanned_at, confirmed_at, consumed_at, COALESCE(ip_address, ''), COALESCE(user_agent, ''),
		       created_at, updated_at
		FROM qr_login_sessions WHERE scene_id = $1`
	var s repository.QRLoginSession
	err := r.pool.QueryRow(ctx, query, sceneID).Scan(
		&s.SceneID, &s.UserPoolID, &s.AppID, &s.Status, &s.UserID, &s.ExpiresAt,
		&s.ScannedAt, &s.ConfirmedAt, &s.ConsumedAt, &s.IP, &s.UserAgent, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &s, nil
}

func (r *qrRepo) UpdateQRSession(ctx context.Context, s *repository.QRLoginSession) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE qr_login_sessions
		SET status = $2, user_id = $3, scanned_at = $4, confirmed_at = $5, consumed_at = $6, updated_at = $7
		WHERE scene_id = $1`,
		s.SceneID, s.Status, s.UserID, s.ScannedAt, s.ConfirmedAt, s.ConsumedAt, time.Now().UTC(),
	)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
