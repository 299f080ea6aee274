package memory

import (
	"context"

	"github.com/dropDatabas3/authpool/internal/domain/repository"
)

type auditRepo Store

func (r *auditRepo) AppendAudit(ctx context.Context, entry *repository.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *entry
	r.audits = append(r.audits, &cp)
	return nil
}

// AuditEntries retorna una copia de las entradas acumuladas.
// Solo para tests; el core nunca lee el sink.
func (s *Store) AuditEntries() []repository.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]repository.AuditLog, len(s.audits))
	for i, e := range s.audits {
		out[i] = *e
	}
	return out
}
