package push

import (
	"encoding/json"
	"errors"
	"fmt"

	"cafeteria/internal/models"
)

// EventType is the "type" field of a push envelope
type EventType string

// Event types emitted by the backend
const (
	EventNewOrder          EventType = "new_order"
	EventOrderStatusUpdate EventType = "order_status_update"
	EventOrderCancelled    EventType = "order_cancelled"
)

// Event is a decoded push envelope. Fields not used by a given type are zero.
type Event struct {
	Type        EventType          `json:"type"`
	OrderID     string             `json:"order_id,omitempty"`
	Status      models.OrderStatus `json:"status,omitempty"`
	TableNumber int                `json:"table_number,omitempty"`
	Timestamp   string             `json:"timestamp,omitempty"`
	Order       json.RawMessage    `json:"order,omitempty"`
}

// ErrNotEvent is returned by Decode for payloads that are not an envelope
var ErrNotEvent = errors.New("push payload is not an event")

// Decode parses a push payload. The payload must be a JSON object with a
// non-empty string "type"; anything else is an error. The remaining fields
// are best effort: one with an unexpected type is left zero.
func Decode(data []byte) (Event, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return Event{}, fmt.Errorf("decode push payload: %w", err)
	}
	if envelope == nil {
		return Event{}, fmt.Errorf("%w: null payload", ErrNotEvent)
	}

	var ev Event
	if err := json.Unmarshal(envelope["type"], &ev.Type); err != nil {
		return Event{}, fmt.Errorf("%w: bad type field: %v", ErrNotEvent, err)
	}
	if ev.Type == "" {
		return Event{}, fmt.Errorf("%w: missing type", ErrNotEvent)
	}

	optional(envelope["order_id"], &ev.OrderID)
	optional(envelope["status"], &ev.Status)
	optional(envelope["table_number"], &ev.TableNumber)
	optional(envelope["timestamp"], &ev.Timestamp)
	if order, ok := envelope["order"]; ok && string(order) != "null" {
		ev.Order = order
	}
	return ev, nil
}

func optional(raw json.RawMessage, dst interface{}) {
	if len(raw) == 0 {
		return
	}
	_ = json.Unmarshal(raw, dst)
}

// Invalidates reports whether the event means order state changed on the
// backend. Every other type is ignorable.
func (e Event) Invalidates() bool {
	return e.Type == EventNewOrder || e.Type == EventOrderStatusUpdate
}

// DecodeOrder decodes the embedded order of a new_order event.
func (e Event) DecodeOrder() (*models.Order, error) {
	if len(e.Order) == 0 {
		return nil, fmt.Errorf("event %q carries no order", e.Type)
	}
	var order models.Order
	if err := json.Unmarshal(e.Order, &order); err != nil {
		return nil, fmt.Errorf("decode order of %q event: %w", e.Type, err)
	}
	return &order, nil
}
