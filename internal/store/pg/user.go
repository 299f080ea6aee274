package pg

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/authpool/internal/domain/repository"
)

type userRepo struct {
	pool *pgxpool.Pool
}

const userColumns = `
	id, user_pool_id, username, email, phone, COALESCE(nickname, ''),
	COALESCE(avatar_url, ''), profile, email_verified, phone_verified,
	status, last_login_at, created_at, updated_at`

func scanUser(row rowScanner) (*repository.User, error) {
	var u repository.User
	var profile []byte
	err := row.Scan(
		&u.ID, &u.UserPoolID, &u.Username, &u.Email, &u.Phone, &u.Nickname,
		&u.AvatarURL, &profile, &u.EmailVerified, &u.PhoneVerified,
		&u.Status, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	if len(profile) > 0 {
		_ = json.Unmarshal(profile, &u.Profile)
	}
	return &u, nil
}

func (r *userRepo) CreateUser(ctx context.Context, user *repository.User, creds []repository.Credential) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	profile, err := json.Marshal(user.Profile)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO users
			(id, user_pool_id, username, email, phone, nickname, avatar_url,
			 profile, email_verified, phone_verified, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)`,
		user.ID, user.UserPoolID, user.Username, user.Email, user.Phone,
		nullIfEmpty(user.Nickname), nullIfEmpty(user.AvatarURL),
		profile, user.EmailVerified, user.PhoneVerified, user.Status, user.CreatedAt,
	)
	if err != nil {
		return mapErr(err)
	}

	for _, c := range creds {
		_, err = tx.Exec(ctx, `
			INSERT INTO credentials (id, user_id, type, identifier, secret, salt, provider, expires_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			c.ID, c.UserID, c.Type, c.Identifier, c.Secret,
			nullIfEmpty(c.Salt), nullIfEmpty(c.Provider), c.ExpiresAt, c.CreatedAt,
		)
		if err != nil {
			return mapErr(err)
		}
	}
	return tx.Commit(ctx)
}

func (r *userRepo) GetUser(ctx context.Context, id string) (*repository.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *userRepo) FindByIdentifier(ctx context.Context, poolID, identifier string) (*repository.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE user_pool_id = $1 AND (username = $2 OR email = $2 OR phone = $2)`
	row := r.pool.QueryRow(ctx, query, poolID, identifier)
	return scanUser(row)
}

func (r *userRepo) UpdateUser(ctx context.Context, id string, input repository.UpdateUserInput) (*repository.User, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	set := func(expr string, args ...any) error {
		_, err := tx.Exec(ctx, `UPDATE users SET `+expr+` WHERE id = $1`, append([]any{id}, args...)...)
		return mapErr(err)
	}

	if input.Username != nil {
		if err := set(`username = $2`, *input.Username); err != nil {
			return nil, err
		}
	}
	if input.Email != nil {
		// Cambiar el email resetea la verificación
		if err := set(`email = $2, email_verified = FALSE`, *input.Email); err != nil {
			return nil, err
		}
	}
	if input.Phone != nil {
		if err := set(`phone = $2, phone_verified = FALSE`, *input.Phone); err != nil {
			return nil, err
		}
	}
	if input.Nickname != nil {
		if err := set(`nickname = $2`, nullIfEmpty(*input.Nickname)); err != nil {
			return nil, err
		}
	}
	if input.AvatarURL != nil {
		if err := set(`avatar_url = $2`, nullIfEmpty(*input.AvatarURL)); err != nil {
			return nil, err
		}
	}
	if input.Profile != nil {
		profile, err := json.Marshal(input.Profile)
		if err != nil {
			return nil, err
		}
		if err := set(`profile = $2`, profile); err != nil {
			return nil, err
		}
	}
	if input.Status != nil {
		if err := set(`status = $2`, *input.Status); err != nil {
			return nil, err
		}
	}
	tag, err := tx.Exec(ctx, `UPDATE users SET updated_at = $2 WHERE id = $1`, id, time.Now().UTC())
	if err != nil {
		return nil, mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, repository.ErrNotFound
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.GetUser(ctx, id)
}

func (r *userRepo) ListUsers(ctx context.Context, poolID string, filter repository.ListUsersFilter) ([]repository.User, int, error) {
	page, perPage := normalizePage(filter.Page, filter.PerPage)

	where := []string{`user_pool_id = $1`}
	args := []any{poolID}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, `status = $`+itoa(len(args)))
	}
	if filter.Keyword != "" {
		args = append(args, "%"+filter.Keyword+"%")
		n := itoa(len(args))
		where = append(where, `(username ILIKE $`+n+` OR email ILIKE $`+n+` OR phone ILIKE $`+n+` OR nickname ILIKE $`+n+`)`)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE ` + cond +
		` ORDER BY created_at DESC LIMIT ` + itoa(perPage) + ` OFFSET ` + itoa((page-1)*perPage)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []repository.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *u)
	}
	return users, total, rows.Err()
}

func (r *userRepo) SetLastLogin(ctx context.Context, userID string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET last_login_at = $2 WHERE id = $1`, userID, at)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *userRepo) GetCredential(ctx context.Context, userID string, typ repository.CredentialType) (*repository.Credential, error) {
	const query = `
		SELECT id, user_id, type, identifier, secret, COALESCE(salt, ''), COALESCE(provider, ''), expires_at, created_at
		FROM credentials
		WHERE user_id = $1 AND type = $2`
	var c repository.Credential
	err := r.pool.QueryRow(ctx, query, userID, typ).Scan(
		&c.ID, &c.UserID, &c.Type, &c.Identifier, &c.Secret, &c.Salt, &c.Provider, &c.ExpiresAt, &c.CreatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (r *userRepo) UpsertCredential(ctx context.Context, cred *repository.Credential) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO credentials (id, user_id, type, identifier, secret, salt, provider, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id, type, identifier)
		DO UPDATE SET secret = EXCLUDED.secret, salt = EXCLUDED.salt, expires_at = EXCLUDED.expires_at`,
		cred.ID, cred.UserID, cred.Type, cred.Identifier, cred.Secret,
		nullIfEmpty(cred.Salt), nullIfEmpty(cred.Provider), cred.ExpiresAt, cred.CreatedAt,
	)
	return mapErr(err)
}
