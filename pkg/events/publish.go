package events

import (
	"encoding/json"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog/log"
)

// Publisher receives relay events.
type Publisher interface {
	PublishEvent(e *Event) error
}

// PublishBlind publishes e and only logs a failure. A nil publisher is a
// no-op, so components can be built without an event bus.
func PublishBlind(p Publisher, e *Event) {
	if p == nil {
		return
	}
	if err := p.PublishEvent(e); err != nil {
		log.Warn().Err(err).Str("event_type", string(e.Type)).Msg("failed to publish event")
	}
}

// WatermillSink publishes events as JSON messages to a watermill publisher.
type WatermillSink struct {
	publisher message.Publisher
	topic     string
}

var _ Publisher = (*WatermillSink)(nil)

func NewWatermillSink(publisher message.Publisher, topic string) *WatermillSink {
	return &WatermillSink{
		publisher: publisher,
		topic:     topic,
	}
}

func (w *WatermillSink) PublishEvent(e *Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal event to JSON")
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("event_type", string(e.Type))

	err = w.publisher.Publish(w.topic, msg)
	if err != nil {
		log.Error().Err(err).Str("topic", w.topic).Msg("Failed to publish event to watermill")
		return err
	}

	log.Trace().Str("topic", w.topic).Str("event_type", string(e.Type)).Msg("Published event to watermill")
	return nil
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []*Event
}

var _ Publisher = (*Recorder)(nil)

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) PublishEvent(e *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *Recorder) Events() []*Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	ret := make([]*Event, len(r.events))
	copy(ret, r.events)
	return ret
}

// Types returns the types of the recorded events, in publication order.
func (r *Recorder) Types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	ret := make([]EventType, 0, len(r.events))
	for _, e := range r.events {
		ret = append(ret, e.Type)
	}
	return ret
}
