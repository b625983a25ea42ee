package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cg505/ocflib/params"
	"github.com/redis/go-redis/v9"
)

// StreamKey is the Redis stream all lifecycle events are appended to.
const StreamKey = "events:account"

// RedisPublisher appends events to a capped Redis stream. Consumers read
// the stream at their own pace; the publisher never waits for them.
type RedisPublisher struct {
	client redis.UniversalClient
}

// NewRedisPublisher creates a Publisher over the given Redis client.
func NewRedisPublisher(client redis.UniversalClient) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("events: marshal %s: %w", evt.EventName(), err)
	}
	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: params.EventStreamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"type":       evt.EventName(),
			"payload":    payload,
			"created_at": time.Now().UTC().Format(time.RFC3339Nano),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("events: publish %s: %w", evt.EventName(), err)
	}
	return nil
}
