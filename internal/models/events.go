package models

import "time"

// Event types
const (
	EventTypeAudit             = "AUDIT"
	EventTypeTableStateChanged = "TABLE_STATE_CHANGED"
)

// BaseEvent contains common fields for all events.
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// AuditEvent records a mutating operation. Emitted fire-and-forget; a failed
// emit never blocks the operation that produced it.
type AuditEvent struct {
	BaseEvent
	UsuarioID *int64                 `json:"usuario_id,omitempty"`
	Entidad   string                 `json:"entidad"`
	Accion    string                 `json:"accion"`
	EntidadID int64                  `json:"entidad_id,omitempty"`
	Antes     map[string]interface{} `json:"antes,omitempty"`
	Despues   map[string]interface{} `json:"despues,omitempty"`
	IP        string                 `json:"ip,omitempty"`
}

// TableStateChangedEvent announces a table occupancy change so the realtime
// floor cache can be refreshed.
type TableStateChangedEvent struct {
	BaseEvent
	MesaID int64  `json:"mesa_id"`
	Estado string `json:"estado"`
}
