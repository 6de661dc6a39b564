package service

import (
	"context"
	"time"

	"restaurant-service/internal/models"
	"restaurant-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Auditor emits audit and table-state events. Both are fire-and-forget:
// publish failures are logged and never surface to the caller.
type Auditor struct {
	publisher EventPublisher
	logger    *zap.Logger
}

// NewAuditor creates a new auditor over the given publisher. A nil publisher
// turns the auditor into a no-op, which tests rely on.
func NewAuditor(publisher EventPublisher) *Auditor {
	return &Auditor{
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// Record emits an audit event for a mutating operation.
func (a *Auditor) Record(ctx context.Context, usuarioID *int64, entidad, accion string, entidadID int64, antes, despues map[string]interface{}) {
	if a == nil || a.publisher == nil {
		return
	}

	event := &models.AuditEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeAudit,
			Timestamp: time.Now().UTC(),
		},
		UsuarioID: usuarioID,
		Entidad:   entidad,
		Accion:    accion,
		EntidadID: entidadID,
		Antes:     antes,
		Despues:   despues,
	}

	if err := a.publisher.PublishAudit(ctx, event); err != nil {
		a.logger.Error("Failed to publish audit event",
			zap.String("entidad", entidad),
			zap.String("accion", accion),
			zap.Int64("entidad_id", entidadID),
			zap.Error(err))
	}
}

// TableState emits a table occupancy change for the realtime floor cache.
func (a *Auditor) TableState(ctx context.Context, mesaID int64, estado string) {
	if a == nil || a.publisher == nil {
		return
	}

	event := &models.TableStateChangedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeTableStateChanged,
			Timestamp: time.Now().UTC(),
		},
		MesaID: mesaID,
		Estado: estado,
	}

	if err := a.publisher.PublishTableState(ctx, event); err != nil {
		a.logger.Error("Failed to publish table state event",
			zap.Int64("mesa_id", mesaID),
			zap.String("estado", estado),
			zap.Error(err))
	}
}
