package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisPublisher fans events out over Redis pub/sub. Both streams are
// fire-and-forget: a dropped event is recomputed by the next reconcile cycle
// or redelivered by the watcher's idempotency keys, so nothing is queued.
type RedisPublisher struct {
	client *redis.Client
	log    *zap.Logger
}

func NewRedisPublisher(client *redis.Client, log *zap.Logger) *RedisPublisher {
	return &RedisPublisher{client: client, log: log}
}

func (p *RedisPublisher) Publish(ctx context.Context, stream string, event Event) error {
	if event.Type == "" {
		return fmt.Errorf("publish to %s: event type is empty", stream)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}

	if err := p.client.Publish(ctx, stream, string(data)).Err(); err != nil {
		return fmt.Errorf("publish %s to %s: %w", event.Type, stream, err)
	}

	p.log.Debug("event published",
		zap.String("stream", stream),
		zap.String("type", event.Type),
	)
	return nil
}

type RedisSubscriber struct {
	client *redis.Client
	log    *zap.Logger
}

func NewRedisSubscriber(client *redis.Client, log *zap.Logger) *RedisSubscriber {
	return &RedisSubscriber{client: client, log: log}
}

// Subscribe consumes one stream until ctx is cancelled, invoking handler per
// decoded event. Malformed payloads and handler panics are logged and
// skipped; one bad event must not stall snapshot or notification delivery.
func (s *RedisSubscriber) Subscribe(ctx context.Context, stream string, handler func(Event)) error {
	pubsub := s.client.Subscribe(ctx, stream)
	ch := pubsub.Channel()

	s.log.Info("subscribed to event stream", zap.String("stream", stream))

	go func() {
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				dispatchPayload(stream, []byte(msg.Payload), handler, s.log)
			}
		}
	}()

	return nil
}

// dispatchPayload decodes one raw message and hands it to the handler,
// isolating the subscriber loop from both decode failures and handler bugs.
func dispatchPayload(stream string, payload []byte, handler func(Event), log *zap.Logger) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		log.Error("failed to unmarshal event",
			zap.String("stream", stream),
			zap.Error(err),
		)
		return
	}
	if event.Type == "" {
		log.Warn("event without type skipped", zap.String("stream", stream))
		return
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("event handler panicked",
				zap.String("stream", stream),
				zap.String("type", event.Type),
				zap.Any("panic", r),
			)
		}
	}()
	handler(event)
}
