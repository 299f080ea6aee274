package pg

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/authpool/internal/domain/repository"
)

type otpRepo struct {
	pool *pgxpool.Pool
}

func (r *otpRepo) CreateOTP(ctx context.Context, c *repository.OTPCode) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO otp_codes
			(id, identifier, code_hash, salt, type, attempts, max_attempts,
			 expires_at, used, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		c.ID, c.Identifier, c.CodeHash, c.Salt, c.Type, c.Attempts, c.MaxAttempts,
		c.ExpiresAt, c.Used, nullIfEmpty(c.IP), nullIfEmpty(c.UserAgent), c.CreatedAt,
	)
	return mapErr(err)
}

func (r *otpRepo) NewestActiveOTP(ctx context.Context, identifier string, typ repository.OTPType, now time.Time) (*repository.OTPCode, error) {
	// El mismo orden (created_at desc) se usa en throttle y en verify.
	const query = `
		SELECT id, identifier, code_hash, salt, type, attempts, max_attempts,
		       expires_at, used, COALESCE(ip_address, ''), COALESCE(user_agent, ''), created_at
		FROM otp_codes
		WHERE identifier = $1 AND type = $2 AND expires_at > $3 AND used = FALSE
		ORDER BY created_at DESC
		LIMIT 1`
	var c repository.OTPCode
	err := r.pool.QueryRow(ctx, query, identifier, typ, now).Scan(
		&c.ID, &c.Identifier, &c.CodeHash, &c.Salt, &c.Type, &c.Attempts, &c.MaxAttempts,
		&c.ExpiresAt, &c.Used, &c.IP, &c.UserAgent, &c.CreatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (r *otpRepo) UpdateOTP(ctx context.Context, c *repository.OTPCode) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE otp_codes SET attempts = $2, used = $3 WHERE id = $1`,
		c.ID, c.Attempts, c.Used,
	)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
