package token

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRevocations comparte la revocación entre instancias vía Redis.
type RedisRevocations struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisRevocations(rdb *redis.Client, prefix string) *RedisRevocations {
	if prefix == "" {
		prefix = "authpool"
	}
	return &RedisRevocations{rdb: rdb, prefix: prefix}
}

func (r *RedisRevocations) key(jti string) string {
	return r.prefix + ":revoked:" + jti
}

func (r *RedisRevocations) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	return r.rdb.Set(ctx, r.key(jti), "1", ttl).Err()
}

func (r *RedisRevocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.rdb.Exists(ctx, r.key(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
