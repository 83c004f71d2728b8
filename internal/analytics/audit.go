package analytics

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nulzo/prism-local/internal/store"
	"github.com/nulzo/prism-local/internal/store/model"
	"go.uber.org/zap"
)

const ActionModelDeleted = "model.deleted"

// Auditor records changes made to the model data directory.
type Auditor struct {
	repo   store.Repository
	logger *zap.Logger
}

// NewAuditor returns an Auditor. A nil repo only logs.
func NewAuditor(logger *zap.Logger, repo store.Repository) *Auditor {
	return &Auditor{repo: repo, logger: logger}
}

// Record writes an audit event. Failures are logged, never returned.
func (a *Auditor) Record(ctx context.Context, action, target, ip string, details any) {
	a.logger.Info("audit", zap.String("action", action), zap.String("target", target), zap.String("ip", ip))
	if a.repo == nil {
		return
	}

	raw := []byte("{}")
	if details != nil {
		b, err := json.Marshal(details)
		if err != nil {
			a.logger.Warn("audit details not serializable", zap.Error(err))
		} else {
			raw = b
		}
	}

	event := &model.AuditEvent{
		ID:             uuid.NewString(),
		TargetResource: target,
		Action:         action,
		DetailsJSON:    string(raw),
		IPAddress:      ip,
		CreatedAt:      time.Now().UTC(),
	}
	if err := a.repo.Audit().Log(ctx, event); err != nil {
		a.logger.Error("failed to persist audit event", zap.String("action", action), zap.Error(err))
	}
}
