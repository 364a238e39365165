package publisher

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"ueicloud/backend/services/telemetry-service/internal/models"
)

// IngestedEvent is the message published after a reading has been stored.
type IngestedEvent struct {
	Event  string                 `json:"event"`
	Record models.TelemetryRecord `json:"record"`
}

const ingestedEventName = "telemetry.ingested"

// RedisPublisher fans stored readings out over a redis pub/sub channel.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

// NewRedisPublisher returns redis-backed publisher.
func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

// PublishIngested announces a stored reading.
func (p *RedisPublisher) PublishIngested(ctx context.Context, rec models.TelemetryRecord) error {
	if p == nil || p.client == nil {
		return errors.New("publisher: nil redis client")
	}
	data, err := encodeIngested(rec)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, p.channel, data).Err()
}

func encodeIngested(rec models.TelemetryRecord) ([]byte, error) {
	return json.Marshal(IngestedEvent{Event: ingestedEventName, Record: rec})
}
