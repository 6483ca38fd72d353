package redis

import (
	"context"
	"fmt"

	"card-exchange/internal/core/domain"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// EventStream implements ports.EventPublisher over a Redis stream. Each event
// becomes one XADD entry with the event name plus its payload fields, so
// consumers can replay the economy's history in order.
type EventStream struct {
	client *goredis.Client
	stream string
	log    zerolog.Logger
}

// NewEventStream creates an EventStream publishing to the given stream key.
func NewEventStream(client *goredis.Client, stream string, log zerolog.Logger) *EventStream {
	return &EventStream{
		client: client,
		stream: stream,
		log:    log,
	}
}

// Publish appends the events to the stream in order. The first failure aborts
// the batch; callers treat publishing as best-effort.
func (s *EventStream) Publish(ctx context.Context, events ...domain.Event) error {
	for _, ev := range events {
		values := make(map[string]interface{}, len(ev.Payload)+1)
		values["event"] = ev.Name
		for k, v := range ev.Payload {
			values[k] = v
		}

		err := s.client.XAdd(ctx, &goredis.XAddArgs{
			Stream: s.stream,
			Values: values,
		}).Err()
		if err != nil {
			return fmt.Errorf("publish event %s: %w", ev.Name, err)
		}
		s.log.Debug().Str("event", ev.Name).Msg("event published")
	}
	return nil
}
