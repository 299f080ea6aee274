// Package audit registra acciones de seguridad en un sink append-only.
// Una falla de auditoría nunca hace fallar la operación auditada.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/authpool/internal/domain/repository"
	"github.com/dropDatabas3/authpool/internal/observability/logger"
)

// Entry es la vista de alto nivel de un registro de auditoría.
type Entry struct {
	PoolID     string
	UserID     *string
	Action     string // ej: "auth.login", "rbac.role.delete"
	Resource   string
	ResourceID string
	Details    map[string]any
	Success    bool
	Err        error
	IP         string
	UserAgent  string
}

// Recorder persiste entradas vía repositorio y las espeja al log.
type Recorder struct {
	repo repository.AuditRepository

	now func() time.Time
}

func NewRecorder(repo repository.AuditRepository) *Recorder {
	return &Recorder{repo: repo, now: time.Now}
}

// Record persiste la entrada. El error de persistencia se loguea y se
// descarta: auditar es best-effort frente al flujo principal.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	rec := &repository.AuditLog{
		ID:         uuid.NewString(),
		UserPoolID: e.PoolID,
		UserID:     e.UserID,
		Action:     e.Action,
		Resource:   e.Resource,
		ResourceID: e.ResourceID,
		Success:    e.Success,
		IP:         e.IP,
		UserAgent:  e.UserAgent,
		CreatedAt:  r.now().UTC(),
	}
	if e.Err != nil {
		rec.ErrorMessage = e.Err.Error()
	}
	if len(e.Details) > 0 {
		if b, err := json.Marshal(e.Details); err == nil {
			rec.Details = string(b)
		}
	}

	log := logger.From(ctx).With(
		logger.Component("audit"),
		logger.PoolID(e.PoolID),
		logger.Action(e.Action),
		logger.Bool("success", e.Success),
	)
	if e.UserID != nil {
		log = log.With(logger.UserID(*e.UserID))
	}

	if err := r.repo.AppendAudit(ctx, rec); err != nil {
		log.Error("audit append failed", logger.Err(err))
		return
	}
	log.Debug("audit recorded")
}
