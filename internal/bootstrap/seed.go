// Package bootstrap siembra el estado mínimo para que una instalación
// nueva sea usable: un pool default, una aplicación registrada y el
// RBAC base del pool. Todo el seed es idempotente y seguro de correr
// en cada arranque.
package bootstrap

import (
	"context"

	"github.com/dropDatabas3/authpool/internal/domain/repository"
	"github.com/dropDatabas3/authpool/internal/observability/logger"
	"github.com/dropDatabas3/authpool/internal/rbac"
	"github.com/dropDatabas3/authpool/internal/tenant"
)

// Result reporta lo sembrado.
type Result struct {
	Pool       *repository.UserPool
	App        *repository.Application
	CreatedNew bool
}

// Seed garantiza pool default + app default + RBAC base.
func Seed(ctx context.Context, tenants *tenant.Service, engine *rbac.Engine, poolName string) (*Result, error) {
	log := logger.From(ctx).With(logger.Component("bootstrap"))

	res := &Result{}
	pool, err := findPoolByName(ctx, tenants, poolName)
	if err != nil {
		if !repository.IsNotFound(err) {
			return nil, err
		}
		pool, err = tenants.CreatePool(ctx, tenant.CreatePoolInput{
			Name:        poolName,
			Description: "Default user pool",
		})
		if err != nil {
			// Carrera con otra instancia sembrando a la vez.
			if repository.IsConflict(err) {
				pool, err = findPoolByName(ctx, tenants, poolName)
			}
			if err != nil {
				return nil, err
			}
		} else {
			res.CreatedNew = true
			log.Info("default pool created", logger.PoolID(pool.ID))
		}
	}
	res.Pool = pool

	apps, err := tenants.ListApplications(ctx, pool.ID)
	if err != nil {
		return nil, err
	}
	if len(apps) == 0 {
		app, err := tenants.CreateApplication(ctx, pool.ID, tenant.CreateApplicationInput{
			Name: "default",
			Type: repository.AppWeb,
		})
		if err != nil {
			return nil, err
		}
		res.App = app
		log.Info("default application created", logger.PoolID(pool.ID), logger.AppID(app.AppID))
	} else {
		res.App = &apps[0]
	}

	if err := engine.InitDefaults(ctx, pool.ID); err != nil {
		return nil, err
	}
	log.Info("bootstrap complete", logger.PoolID(pool.ID))
	return res, nil
}

func findPoolByName(ctx context.Context, tenants *tenant.Service, name string) (*repository.UserPool, error) {
	pools, _, err := tenants.ListPools(ctx, repository.ListPoolsFilter{Page: 1, PerPage: 200})
	if err != nil {
		return nil, err
	}
	for i := range pools {
		if pools[i].Name == name {
			return &pools[i], nil
		}
	}
	return nil, repository.ErrNotFound
}
