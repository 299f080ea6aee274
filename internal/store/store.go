// Package store define el agregado de repositorios que el resto del
// sistema consume, y una factory por driver.
//
// Drivers disponibles:
//   - postgres (internal/store/pg): pgxpool, SQL crudo, producción.
//   - memory   (internal/store/memory): in-process, dev y tests.
package store

import (
	"context"

	"github.com/dropDatabas3/authpool/internal/domain/repository"
)

// Store agrega todos los repositorios del dominio sobre una misma
// base de datos. Cada operación corre en su propio scope transaccional
// interno; no se comparte estado mutable fuera del driver.
type Store interface {
	Pools() repository.PoolRepository
	Users() repository.UserRepository
	OTP() repository.OTPRepository
	QR() repository.QRRepository
	RBAC() repository.RBACRepository
	Audit() repository.AuditRepository

	// Ping verifica la conexión subyacente.
	Ping(ctx context.Context) error

	// Close libera recursos del driver.
	Close() error
}
