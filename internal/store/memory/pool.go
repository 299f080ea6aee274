package memory

import (
	"context"
	"sort"
	"time"

	"github.com/dropDatabas3/authpool/internal/domain/repository"
)

type poolRepo Store

func copyPool(p *repository.UserPool) *repository.UserPool {
	cp := *p
	if p.Settings != nil {
		cp.Settings = make(map[string]any, len(p.Settings))
		for k, v := range p.Settings {
			cp.Settings[k] = v
		}
	}
	return &cp
}

func copyApp(a *repository.Application) *repository.Application {
	cp := *a
	cp.CallbackURLs = append([]string(nil), a.CallbackURLs...)
	cp.LogoutURLs = append([]string(nil), a.LogoutURLs...)
	cp.AllowedOrigins = append([]string(nil), a.AllowedOrigins...)
	return &cp
}

func (r *poolRepo) CreatePool(ctx context.Context, pool *repository.UserPool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.pools {
		if p.Name == pool.Name {
			return repository.ErrConflict
		}
	}
	r.pools[pool.ID] = copyPool(pool)
	return nil
}

func (r *poolRepo) GetPool(ctx context.Context, id string) (*repository.UserPool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pools[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyPool(p), nil
}

func (r *poolRepo) GetPoolByName(ctx context.Context, name string) (*repository.UserPool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.pools {
		if p.Name == name {
			return copyPool(p), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *poolRepo) UpdatePool(ctx context.Context, id string, input repository.UpdatePoolInput) (*repository.UserPool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pools[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if input.Name != nil && *input.Name != p.Name {
		for _, other := range r.pools {
			if other.ID != id && other.Name == *input.Name {
				return nil, repository.ErrConflict
			}
		}
		p.Name = *input.Name
	}
	if input.Description != nil {
		p.Description = *input.Description
	}
	if input.Settings != nil {
		p.Settings = input.Settings
	}
	if input.Status != nil {
		p.Status = *input.Status
	}
	p.UpdatedAt = time.Now().UTC()
	return copyPool(p), nil
}

func (r *poolRepo) ListPools(ctx context.Context, filter repository.ListPoolsFilter) ([]repository.UserPool, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*repository.UserPool
	for _, p := range r.pools {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	out := make([]repository.UserPool, 0, len(all))
	for _, p := range paginate(all, filter.Page, filter.PerPage) {
		out = append(out, *copyPool(p))
	}
	return out, total, nil
}

func (r *poolRepo) CreateApplication(ctx context.Context, app *repository.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.apps[app.AppID]; ok {
		return repository.ErrConflict
	}
	r.apps[app.AppID] = copyApp(app)
	return nil
}

func (r *poolRepo) GetApplication(ctx context.Context, appID string) (*repository.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.apps[appID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyApp(a), nil
}

func (r *poolRepo) ListApplications(ctx context.Context, poolID string) ([]repository.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []repository.Application
	for _, a := range r.apps {
		if a.UserPoolID == poolID {
			out = append(out, *copyApp(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
