package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Topic is the watermill topic all relay events are published on.
const Topic = "chatrelay.events"

type EventType string

const (
	EventTypeExchangeRecorded  EventType = "exchange.recorded"
	EventTypeExchangeRemoved   EventType = "exchange.removed"
	EventTypeConversationReset EventType = "conversation.reset"
	EventTypePersonaUpdated    EventType = "persona.updated"
	EventTypeControlAttached   EventType = "control.attached"
	EventTypeControlExpired    EventType = "control.expired"
	EventTypeCompletionFailed  EventType = "completion.failed"
)

// Event describes a change to the conversation state. Events are
// informational: nothing in the relay reads them back to make decisions.
type Event struct {
	ID        uuid.UUID              `json:"id"`
	Type      EventType              `json:"type"`
	Time      time.Time              `json:"time"`
	MessageID string                 `json:"message_id,omitempty"`
	ControlID string                 `json:"control_id,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

type EventOption func(*Event)

func WithMessageID(id string) EventOption {
	return func(e *Event) {
		e.MessageID = id
	}
}

func WithControlID(id string) EventOption {
	return func(e *Event) {
		e.ControlID = id
	}
}

func WithData(key string, value interface{}) EventOption {
	return func(e *Event) {
		if e.Data == nil {
			e.Data = map[string]interface{}{}
		}
		e.Data[key] = value
	}
}

func NewEvent(t EventType, options ...EventOption) *Event {
	e := &Event{
		ID:   uuid.New(),
		Type: t,
		Time: time.Now(),
	}
	for _, o := range options {
		o(e)
	}
	return e
}

func NewEventFromJson(b []byte) (*Event, error) {
	e := &Event{}
	if err := json.Unmarshal(b, e); err != nil {
		return nil, errors.Wrap(err, "could not decode event")
	}
	if e.Type == "" {
		return nil, errors.New("event has no type")
	}
	return e, nil
}
