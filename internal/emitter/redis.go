package emitter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/octobees/places-agent/internal/entity"
)

// DefaultChannel is the pub/sub channel used when none is configured.
const DefaultChannel = "search_progress"

// RedisPublisher publishes every emitted state as JSON on a Redis pub/sub channel so UI
// gateways running in other processes can follow a batch.
type RedisPublisher struct {
	client  redis.UniversalClient
	channel string
}

// NewRedisPublisher builds a publisher for channel (DefaultChannel when empty).
func NewRedisPublisher(client redis.UniversalClient, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{client: client, channel: channel}
}

// Channel returns the configured pub/sub channel name.
func (p *RedisPublisher) Channel() string {
	return p.channel
}

// Emit publishes the serialized state.
func (p *RedisPublisher) Emit(ctx context.Context, state *entity.AgentState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish state to %s: %w", p.channel, err)
	}
	return nil
}

var _ Emitter = (*RedisPublisher)(nil)
