package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"restaurant-service/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher publishes domain events. Audit trail and table state changes
// go to separate topics so the floor cache consumer only sees what it needs.
type EventPublisher struct {
	auditProducer *Producer
	tableProducer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(auditProducer, tableProducer *Producer) *EventPublisher {
	return &EventPublisher{
		auditProducer: auditProducer,
		tableProducer: tableProducer,
	}
}

// PublishAudit publishes an audit trail event
func (ep *EventPublisher) PublishAudit(ctx context.Context, event *models.AuditEvent) error {
	key := fmt.Sprintf("%s-%d", event.Entidad, event.EntidadID)
	return ep.auditProducer.PublishEvent(ctx, key, event)
}

// PublishTableState publishes a table occupancy change
func (ep *EventPublisher) PublishTableState(ctx context.Context, event *models.TableStateChangedEvent) error {
	key := fmt.Sprintf("mesa-%d", event.MesaID)
	return ep.tableProducer.PublishEvent(ctx, key, event)
}

// Close closes both producers
func (ep *EventPublisher) Close() error {
	if err := ep.auditProducer.Close(); err != nil {
		return err
	}
	return ep.tableProducer.Close()
}

// EventHandler routes incoming events to registered callbacks
type EventHandler struct {
	onTableState func(context.Context, *models.TableStateChangedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnTableState registers a handler for table state changes
func (eh *EventHandler) OnTableState(handler func(context.Context, *models.TableStateChangedEvent) error) {
	eh.onTableState = handler
}

// HandleMessage routes a message to the appropriate handler
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	switch baseEvent.EventType {
	case models.EventTypeTableStateChanged:
		if eh.onTableState != nil {
			var event models.TableStateChangedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal table state event: %w", err)
			}
			return eh.onTableState(ctx, &event)
		}
	}

	return nil
}
