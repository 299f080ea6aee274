// Package pg implementa store.Store sobre PostgreSQL usando pgxpool
// y SQL crudo. Cada operación multi-paso corre en su propia transacción
// (pool.Begin + defer Rollback); la violación de unique constraint se
// mapea a repository.ErrConflict y es la señal autoritativa de conflicto.
package pg

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/authpool/internal/domain/repository"
)

// Config parámetros de conexión.
type Config struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// Store implementa store.Store sobre un pgxpool.
type Store struct {
	pool *pgxpool.Pool
}

// Connect abre el pool y verifica la conexión.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg: parse DSN: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	} else {
		poolCfg.MaxConns = 10
	}
	if cfg.MaxIdleConns > 0 {
		poolCfg.MinConns = int32(cfg.MaxIdleConns)
	} else {
		poolCfg.MinConns = 2
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping failed: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Pools() repository.PoolRepository  { return &poolRepo{pool: s.pool} }
func (s *Store) Users() repository.UserRepository  { return &userRepo{pool: s.pool} }
func (s *Store) OTP() repository.OTPRepository     { return &otpRepo{pool: s.pool} }
func (s *Store) QR() repository.QRRepository       { return &qrRepo{pool: s.pool} }
func (s *Store) RBAC() repository.RBACRepository   { return &rbacRepo{pool: s.pool} }
func (s *Store) Audit() repository.AuditRepository { return &auditRepo{pool: s.pool} }

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// mapErr traduce errores del driver a los sentinels del dominio.
// 23505 = unique_violation, 23503 = foreign_key_violation.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return repository.ErrConflict
		case "23503":
			return repository.ErrInvalidInput
		}
	}
	return err
}

// nullIfEmpty retorna nil si el string está vacío.
// Útil para insertar campos opcionales.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// normalizePage aplica los defaults de paginación (page 1, per_page 20).
func normalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	return page, perPage
}

func itoa(n int) string { return strconv.Itoa(n) }
