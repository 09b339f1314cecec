package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

// DefaultRedisChannel is used when no channel is configured.
const DefaultRedisChannel = "dubber:progress"

// RedisOptions configures the Redis publisher.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Channel  string
	RunID    string
}

// Publisher forwards batches to a Redis pub/sub channel as JSON events.
type Publisher struct {
	client  redis.UniversalClient
	channel string
	runID   string
}

type redisEvent struct {
	RunID   string    `json:"run_id,omitempty"`
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// NewRedisPublisher connects to the configured server.
func NewRedisPublisher(opts RedisOptions) (*Publisher, error) {
	addr := strings.TrimSpace(opts.Addr)
	if addr == "" {
		return nil, fmt.Errorf("redis address is empty")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	return NewPublisher(client, opts.Channel, opts.RunID), nil
}

// NewPublisher wraps an existing client.
func NewPublisher(client redis.UniversalClient, channel, runID string) *Publisher {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = DefaultRedisChannel
	}
	return &Publisher{client: client, channel: channel, runID: runID}
}

// Ping checks connectivity.
func (p *Publisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Consume implements Consumer.
func (p *Publisher) Consume(ctx context.Context, batch []Message) error {
	for _, m := range batch {
		payload, err := json.Marshal(redisEvent{RunID: p.runID, Time: m.Time.UTC(), Message: m.Text})
		if err != nil {
			return fmt.Errorf("encode progress event: %w", err)
		}
		if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
			return fmt.Errorf("publish progress to %s: %w", p.channel, err)
		}
	}
	return nil
}

// Close releases the client.
func (p *Publisher) Close() error {
	return p.client.Close()
}
