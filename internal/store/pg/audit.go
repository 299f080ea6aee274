package pg

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/authpool/internal/domain/repository"
)

type auditRepo struct {
	pool *pgxpool.Pool
}

func (r *auditRepo) AppendAudit(ctx context.Context, e *repository.AuditLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_logs
			(id, user_pool_id, user_id, action, resource, resource_id, details,
			 success, error_message, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		e.ID, e.UserPoolID, e.UserID, e.Action,
		nullIfEmpty(e.Resource), nullIfEmpty(e.ResourceID), nullIfEmpty(e.Details),
		e.Success, nullIfEmpty(e.ErrorMessage), nullIfEmpty(e.IP), nullIfEmpty(e.UserAgent), e.CreatedAt,
	)
	return mapErr(err)
}
