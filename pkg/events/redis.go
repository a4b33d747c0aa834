package events

import (
	"context"
	"strings"

	"github.com/ThreeDotsLabs/watermill/message"
	rstream "github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisSettings selects a Redis Streams backed router so that other
// processes can follow relay events.
type RedisSettings struct {
	Enabled  bool
	Addr     string
	Stream   string
	Group    string
	Consumer string
}

// BuildRouter constructs an EventRouter backed by Redis Streams when enabled.
// Otherwise it returns the in-memory router.
func BuildRouter(ctx context.Context, s RedisSettings, verbose bool) (*EventRouter, error) {
	stream := s.Stream
	if stream == "" {
		stream = Topic
	}
	if !s.Enabled {
		return NewEventRouter(WithTopic(stream), optVerbose(verbose))
	}
	if s.Addr == "" {
		return nil, errors.New("redis address is required when redis events are enabled")
	}

	client := redis.NewClient(&redis.Options{Addr: s.Addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrapf(err, "could not reach redis at %s", s.Addr)
	}
	if err := ensureGroupAtTail(ctx, client, stream, s.Group); err != nil {
		return nil, err
	}

	marshaler := rstream.DefaultMarshallerUnmarshaller{}
	logger := NewWatermill(log.Logger)

	pub, err := rstream.NewPublisher(rstream.PublisherConfig{
		Client:     client,
		Marshaller: marshaler,
	}, logger)
	if err != nil {
		return nil, err
	}

	sub, err := rstream.NewSubscriber(rstream.SubscriberConfig{
		Client:        client,
		Unmarshaller:  marshaler,
		ConsumerGroup: s.Group,
		Consumer:      s.Consumer,
	}, logger)
	if err != nil {
		return nil, err
	}

	return NewEventRouter(
		WithPublisher(message.Publisher(pub)),
		WithSubscriber(message.Subscriber(sub)),
		WithTopic(stream),
		optVerbose(verbose),
	)
}

func optVerbose(v bool) EventRouterOption {
	if v {
		return WithVerbose(true)
	}
	return func(r *EventRouter) {}
}

// ensureGroupAtTail creates the consumer group at the tail ($) so that a
// fresh relay does not replay the whole stream.
func ensureGroupAtTail(ctx context.Context, client *redis.Client, stream, group string) error {
	if group == "" {
		return nil
	}
	err := client.XGroupCreateMkStream(ctx, stream, group, "$").Err()
	if err != nil {
		if strings.Contains(err.Error(), "BUSYGROUP") {
			return nil
		}
		return errors.Wrapf(err, "could not create consumer group %s", group)
	}
	return nil
}
