package repository

import (
	"context"
	"time"
)

// PoolStatus estado de un user pool.
type PoolStatus string

const (
	PoolActive   PoolStatus = "active"
	PoolDisabled PoolStatus = "disabled"
)

// UserPool es el límite de aislamiento del sistema: usuarios, aplicaciones,
// roles y permisos viven dentro de exactamente un pool.
type UserPool struct {
	ID          string
	Name        string // Único a nivel global
	Description string
	Settings    map[string]any
	Status      PoolStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UpdatePoolInput campos actualizables de un pool. Nil = sin cambio.
type UpdatePoolInput struct {
	Name        *string
	Description *string
	Settings    map[string]any
	Status      *PoolStatus
}

// ListPoolsFilter opciones para listar pools.
type ListPoolsFilter struct {
	Status  PoolStatus // Vacío = todos
	Page    int        // 1-based
	PerPage int
}

// AppType tipo de aplicación OAuth-style.
type AppType string

const (
	AppWeb    AppType = "web"
	AppNative AppType = "native"
	AppSPA    AppType = "spa"
)

// Application es un cliente registrado bajo un pool.
// AppID es inmutable una vez creada.
type Application struct {
	ID                   string
	UserPoolID           string
	Name                 string
	Type                 AppType
	AppID                string // Identificador público, único, generado
	AppSecret            string // Generado, alta entropía
	Description          string
	CallbackURLs         []string
	LogoutURLs           []string
	AllowedOrigins       []string
	TokenLifetime        int // Segundos
	RefreshTokenLifetime int // Segundos
	Status               PoolStatus
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// PoolRepository define operaciones sobre user pools y aplicaciones.
type PoolRepository interface {
	// CreatePool crea un pool. Retorna ErrConflict si el nombre ya existe.
	CreatePool(ctx context.Context, pool *UserPool) error

	// GetPool busca un pool por ID. Retorna ErrNotFound si no existe.
	GetPool(ctx context.Context, id string) (*UserPool, error)

	// GetPoolByName busca un pool por nombre.
	GetPoolByName(ctx context.Context, name string) (*UserPool, error)

	// UpdatePool aplica los campos no-nil. Retorna ErrConflict si el
	// nuevo nombre ya está tomado por otro pool.
	UpdatePool(ctx context.Context, id string, input UpdatePoolInput) (*UserPool, error)

	// ListPools lista pools con paginación. Retorna items y total.
	ListPools(ctx context.Context, filter ListPoolsFilter) ([]UserPool, int, error)

	// CreateApplication registra una aplicación bajo un pool.
	// Retorna ErrConflict si el app_id ya existe.
	CreateApplication(ctx context.Context, app *Application) error

	// GetApplication busca una aplicación por su app_id público.
	GetApplication(ctx context.Context, appID string) (*Application, error)

	// ListApplications lista las aplicaciones de un pool.
	ListApplications(ctx context.Context, poolID string) ([]Application, error)
}
