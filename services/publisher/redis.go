package publisher

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher implements Publisher over a Redis stream. The portal
// side consumes the stream to surface newly approved properties.
type RedisPublisher struct {
	client *redis.Client
	stream string
}

// NewRedisPublisher creates a new Redis stream publisher
func NewRedisPublisher(addr string, db int, stream string) *RedisPublisher {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	return &RedisPublisher{
		client: client,
		stream: stream,
	}
}

// PublishProperty appends one approved property to the stream
func (p *RedisPublisher) PublishProperty(ctx context.Context, platform string, payload []byte) error {
	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"platform": platform,
			"payload":  string(payload),
		},
	}).Err()
}

// Close closes the Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
