package pg

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/authpool/internal/domain/repository"
)

type poolRepo struct {
	pool *pgxpool.Pool
}

func (r *poolRepo) CreatePool(ctx context.Context, p *repository.UserPool) error {
	settings, err := json.Marshal(p.Settings)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO user_pools (id, name, description, settings, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		p.ID, p.Name, nullIfEmpty(p.Description), settings, p.Status, p.CreatedAt,
	)
	return mapErr(err)
}

func (r *poolRepo) GetPool(ctx context.Context, id string) (*repository.UserPool, error) {
	return r.getPool(ctx, `WHERE id = $1`, id)
}

func (r *poolRepo) GetPoolByName(ctx context.Context, name string) (*repository.UserPool, error) {
	return r.getPool(ctx, `WHERE name = $1`, name)
}

func (r *poolRepo) getPool(ctx context.Context, where string, arg any) (*repository.UserPool, error) {
	query := `
		SELECT id, name, COALESCE(description, ''), settings, status, created_at, updated_at
		FROM user_pools ` + where
	var p repository.UserPool
	var settings []byte
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&p.ID, &p.Name, &p.Description, &settings, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	if len(settings) > 0 {
		_ = json.Unmarshal(settings, &p.Settings)
	}
	return &p, nil
}

func (r *poolRepo) UpdatePool(ctx context.Context, id string, input repository.UpdatePoolInput) (*repository.UserPool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if input.Name != nil {
		if _, err := tx.Exec(ctx, `UPDATE user_pools SET name = $2 WHERE id = $1`, id, *input.Name); err != nil {
			return nil, mapErr(err)
		}
	}
	if input.Description != nil {
		if _, err := tx.Exec(ctx, `UPDATE user_pools SET description = $2 WHERE id = $1`, id, nullIfEmpty(*input.Description)); err != nil {
			return nil, mapErr(err)
		}
	}
	if input.Settings != nil {
		settings, err := json.Marshal(input.Settings)
		if err != nil {
			return nil, err
		}
		if _, err := tx.Exec(ctx, `UPDATE user_pools SET settings = $2 WHERE id = $1`, id, settings); err != nil {
			return nil, mapErr(err)
		}
	}
	if input.Status != nil {
		if _, err := tx.Exec(ctx, `UPDATE user_pools SET status = $2 WHERE id = $1`, id, *input.Status); err != nil {
			return nil, mapErr(err)
		}
	}
	tag, err := tx.Exec(ctx, `UPDATE user_pools SET updated_at = $2 WHERE id = $1`, id, time.Now().UTC())
	if err != nil {
		return nil, mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, repository.ErrNotFound
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.GetPool(ctx, id)
}

func (r *poolRepo) ListPools(ctx context.Context, filter repository.ListPoolsFilter) ([]repository.UserPool, int, error) {
	page, perPage := normalizePage(filter.Page, filter.PerPage)

	where, args := "", []any{}
	if filter.Status != "" {
		where = `WHERE status = $1`
		args = append(args, filter.Status)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM user_pools `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, name, COALESCE(description, ''), settings, status, created_at, updated_at
		FROM user_pools ` + where + `
		ORDER BY created_at DESC
		LIMIT ` + itoa(perPage) + ` OFFSET ` + itoa((page-1)*perPage)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var pools []repository.UserPool
	for rows.Next() {
		var p repository.UserPool
		var settings []byte
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &settings, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		if len(settings) > 0 {
			_ = json.Unmarshal(settings, &p.Settings)
		}
		pools = append(pools, p)
	}
	return pools, total, rows.Err()
}

func (r *poolRepo) CreateApplication(ctx context.Context, a *repository.Application) error {
	callbacks, _ := json.Marshal(a.CallbackURLs)
	logouts, _ := json.Marshal(a.LogoutURLs)
	origins, _ := json.Marshal(a.AllowedOrigins)
	_, err := r.pool.Exec(ctx, `
		INSERT INTO applications
			(id, user_pool_id, name, type, app_id, app_secret, description,
			 callback_urls, logout_urls, allowed_origins,
			 token_lifetime, refresh_token_lifetime, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)`,
		a.ID, a.UserPoolID, a.Name, a.Type, a.AppID, a.AppSecret, nullIfEmpty(a.Description),
		callbacks, logouts, origins,
		a.TokenLifetime, a.RefreshTokenLifetime, a.Status, a.CreatedAt,
	)
	return mapErr(err)
}

func (r *poolRepo) GetApplication(ctx context.Context, appID string) (*repository.Application, error) {
	const query = `
		SELECT id, user_pool_id, name, type, app_id, app_secret, COALESCE(description, ''),
		       callback_urls, logout_urls, allowed_origins,
		       token_lifetime, refresh_token_lifetime, status, created_at, updated_at
		FROM applications WHERE app_id = $1`
	row := r.pool.QueryRow(ctx, query, appID)
	return scanApplication(row)
}

func (r *poolRepo) ListApplications(ctx context.Context, poolID string) ([]repository.Application, error) {
	const query = `
		SELECT id, user_pool_id, name, type, app_id, app_secret, COALESCE(description, ''),
		       callback_urls, logout_urls, allowed_origins,
		       token_lifetime, refresh_token_lifetime, status, created_at, updated_at
		FROM applications WHERE user_pool_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, poolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var apps []repository.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, *a)
	}
	return apps, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (*repository.Application, error) {
	var a repository.Application
	var callbacks, logouts, origins []byte
	err := row.Scan(
		&a.ID, &a.UserPoolID, &a.Name, &a.Type, &a.AppID, &a.AppSecret, &a.Description,
		&callbacks, &logouts, &origins,
		&a.TokenLifetime, &a.RefreshTokenLifetime, &a.Status, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	_ = json.Unmarshal(callbacks, &a.CallbackURLs)
	_ = json.Unmarshal(logouts, &a.LogoutURLs)
	_ = json.Unmarshal(origins, &a.AllowedOrigins)
	return &a, nil
}
