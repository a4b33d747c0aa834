package events

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventRouter_DeliversEventsToHandlers(t *testing.T) {
	router, err := NewEventRouter()
	require.NoError(t, err)

	var mu sync.Mutex
	var received []*Event
	router.AddEventHandler("collect", func(_ context.Context, ev *Event) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, ev)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- router.Run(ctx)
	}()
	<-router.Running()

	sink := router.Sink()
	require.NoError(t, sink.PublishEvent(NewEvent(EventTypeExchangeRecorded, WithMessageID("5"), WithData("response_length", 2))))
	require.NoError(t, sink.PublishEvent(NewEvent(EventTypeControlExpired, WithControlID("abc"))))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 2
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, EventTypeExchangeRecorded, received[0].Type)
	assert.Equal(t, "5", received[0].MessageID)
	assert.EqualValues(t, 2, received[0].Data["response_length"])
	assert.Equal(t, "abc", received[1].ControlID)
	mu.Unlock()

	require.NoError(t, router.Close())
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("router did not stop")
	}
}

func TestEventRouter_KeepsPublishOrder(t *testing.T) {
	router, err := NewEventRouter()
	require.NoError(t, err)

	var mu sync.Mutex
	var ids []string
	router.AddEventHandler("collect", func(_ context.Context, ev *Event) error {
		mu.Lock()
		defer mu.Unlock()
		ids = append(ids, ev.MessageID)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- router.Run(ctx)
	}()
	<-router.Running()

	var want []string
	sink := router.Sink()
	for i := 0; i < 50; i++ {
		id := strconv.Itoa(i)
		want = append(want, id)
		require.NoError(t, sink.PublishEvent(NewEvent(EventTypeExchangeRecorded, WithMessageID(id))))
	}

	// each publish returns once the handler has acked it
	mu.Lock()
	assert.Equal(t, want, ids)
	mu.Unlock()

	require.NoError(t, router.Close())
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("router did not stop")
	}
}

func TestNewEventFromJson(t *testing.T) {
	ev, err := NewEventFromJson([]byte(`{"type": "conversation.reset", "data": {"archived": 3}}`))
	require.NoError(t, err)
	assert.Equal(t, EventTypeConversationReset, ev.Type)

	_, err = NewEventFromJson([]byte(`{}`))
	assert.Error(t, err)
	_, err = NewEventFromJson([]byte(`not json`))
	assert.Error(t, err)
}

type failingPublisher struct{}

func (failingPublisher) PublishEvent(*Event) error { return errors.New("bus down") }

func TestPublishBlind(t *testing.T) {
	// neither a nil publisher nor a failing one may panic or block
	PublishBlind(nil, NewEvent(EventTypePersonaUpdated))
	PublishBlind(failingPublisher{}, NewEvent(EventTypePersonaUpdated))

	r := NewRecorder()
	PublishBlind(r, NewEvent(EventTypePersonaUpdated))
	PublishBlind(r, NewEvent(EventTypeConversationReset))
	assert.Equal(t, []EventType{EventTypePersonaUpdated, EventTypeConversationReset}, r.Types())
	assert.Len(t, r.Events(), 2)
}

func TestBuildRouter_RequiresAddress(t *testing.T) {
	_, err := BuildRouter(context.Background(), RedisSettings{Enabled: true}, false)
	assert.Error(t, err)

	router, err := BuildRouter(context.Background(), RedisSettings{}, false)
	require.NoError(t, err)
	assert.NotNil(t, router.Publisher)
	assert.NotNil(t, router.Subscriber)
	assert.Equal(t, Topic, router.Topic())

	router, err = BuildRouter(context.Background(), RedisSettings{Stream: "relay.audit"}, false)
	require.NoError(t, err)
	assert.Equal(t, "relay.audit", router.Topic())
}
