package token

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// RevocationStore registra jtis revocados hasta que el token expire solo.
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// MemoryRevocations respalda la revocación en un cache TTL en proceso.
// Suficiente para una sola instancia; para varias usar Redis.
type MemoryRevocations struct {
	c *gocache.Cache
}

func NewMemoryRevocations() *MemoryRevocations {
	return &MemoryRevocations{c: gocache.New(gocache.NoExpiration, 5*time.Minute)}
}

func (m *MemoryRevocations) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	m.c.Set(jti, struct{}{}, ttl)
	return nil
}

func (m *MemoryRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	_, found := m.c.Get(jti)
	return found, nil
}
