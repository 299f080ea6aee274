package memory

import (
	"context"
	"time"

	"github.com/dropDatabas3/authpool/internal/domain/repository"
)

type otpRepo Store

func (r *otpRepo) CreateOTP(ctx context.Context, code *repository.OTPCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *code
	r.otps = append(r.otps, &cp)
	return nil
}

func (r *otpRepo) NewestActiveOTP(ctx context.Context, identifier string, typ repository.OTPType, now time.Time) (*repository.OTPCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var newest *repository.OTPCode
	for _, c := range r.otps {
		if c.Identifier != identifier || c.Type != typ || c.Used || !c.ExpiresAt.After(now) {
			continue
		}
		if newest == nil || c.CreatedAt.After(newest.CreatedAt) {
			newest = c
		}
	}
	if newest == nil {
		return nil, repository.ErrNotFound
	}
	cp := *newest
	return &cp, nil
}

func (r *otpRepo) UpdateOTP(ctx context.Context, code *repository.OTPCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.otps {
		if c.ID == code.ID {
			c.Attempts = code.Attempts
			c.Used = code.Used
			return nil
		}
	}
	return repository.ErrNotFound
}
