// Package memory implementa store.Store en memoria.
//
// Pensado para desarrollo y tests: un solo mutex serializa todas las
// operaciones, que es exactamente el scope transaccional que piden los
// repositorios (cada operación commitea completa o no commitea).
// Los datos se copian al entrar y salir para que el caller nunca
// comparta punteros con el estado interno.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dropDatabas3/authpool/internal/domain/repository"
)

// Store implementa store.Store en memoria.
type Store struct {
	mu sync.Mutex

	pools map[string]*repository.UserPool
	apps  map[string]*repository.Application // key: app_id público
	users map[string]*repository.User
	creds map[string]*repository.Credential // key: id
	otps  []*repository.OTPCode             // orden de inserción
	qrs   map[string]*repository.QRLoginSession

	roles     map[string]*repository.Role
	perms     map[string]*repository.Permission
	rolePerms map[string]map[string]time.Time                 // roleID -> permID -> created_at
	userRoles map[string]map[string]*repository.UserRoleGrant // userID -> roleID -> grant

	audits []*repository.AuditLog
}

// New crea un Store vacío.
func New() *Store {
	return &Store{
		pools:     map[string]*repository.UserPool{},
		apps:      map[string]*repository.Application{},
		users:     map[string]*repository.User{},
		creds:     map[string]*repository.Credential{},
		qrs:       map[string]*repository.QRLoginSession{},
		roles:     map[string]*repository.Role{},
		perms:     map[string]*repository.Permission{},
		rolePerms: map[string]map[string]time.Time{},
		userRoles: map[string]map[string]*repository.UserRoleGrant{},
	}
}

func (s *Store) Pools() repository.PoolRepository  { return (*poolRepo)(s) }
func (s *Store) Users() repository.UserRepository  { return (*userRepo)(s) }
func (s *Store) OTP() repository.OTPRepository     { return (*otpRepo)(s) }
func (s *Store) QR() repository.QRRepository       { return (*qrRepo)(s) }
func (s *Store) RBAC() repository.RBACRepository   { return (*rbacRepo)(s) }
func (s *Store) Audit() repository.AuditRepository { return (*auditRepo)(s) }

func (s *Store) Ping(ctx context.Context) error { return nil }
func (s *Store) Close() error                   { return nil }

// paginate aplica paginación 1-based con defaults (page 1, per_page 20).
func paginate[T any](items []T, page, perPage int) []T {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	start := (page - 1) * perPage
	if start >= len(items) {
		return nil
	}
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
