package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by this module.
const (
	// TypeImportDone is emitted once an import wrote at least one contact.
	TypeImportDone = "contacts.import_done"

	// TypeCallSettingsChanged is emitted after a call setting was changed on
	// the network.
	TypeCallSettingsChanged = "callsettings.changed"
)

// Event is a notification published through an EventEmitter.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type names what happened, e.g. TypeImportDone
	Type string `json:"type"`

	// Payload carries type-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates an Event with the specified type and payload.
func NewEvent(eventType string, payload any) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// ImportDonePayload is the payload of TypeImportDone.
type ImportDonePayload struct {
	Source           string      `json:"source"`
	Imported         int         `json:"imported"`
	DuplicatesMerged int         `json:"duplicates_merged"`
	ContactIDs       []uuid.UUID `json:"contact_ids,omitempty"`
}

// CallSettingsChangedPayload is the payload of TypeCallSettingsChanged.
type CallSettingsChangedPayload struct {
	Setting string `json:"setting"`
	Key     string `json:"key,omitempty"`
	Enabled bool   `json:"enabled"`
}

// EventHandler processes events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	HandleEvent(ctx context.Context, event *Event) error
}

// EventHandlerFunc adapts a function to EventHandler.
type EventHandlerFunc func(ctx context.Context, event *Event) error

// HandleEvent calls f.
func (f EventHandlerFunc) HandleEvent(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// EventEmitter publishes events to registered handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all interested handlers.
	EmitEvent(ctx context.Context, event *Event) error
}
