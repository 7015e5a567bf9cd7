// Package cache publishes room telemetry to a Redis queue for out-of-process
// consumers (analytics, replay tooling). The client is optional: when Rdb is
// nil every publish is a no-op and the server runs standalone.
package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// TelemetryQueueKey is the Redis list telemetry records are pushed onto.
const TelemetryQueueKey = "minormax:telemetry"

// Rdb is the shared Redis client. Nil when REDIS_URL is unset.
var Rdb *redis.Client

// TelemetryRecord is one room event as published to the telemetry queue.
type TelemetryRecord struct {
	RoomID    string                 `json:"roomId"`
	Sequence  int64                  `json:"sequence"`
	ActorID   string                 `json:"actorId,omitempty"`
	Kind      string                 `json:"kind"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Timestamp int64                  `json:"timestamp"`
}

// InitRedis connects the shared client using a redis:// URL and verifies the
// connection with a ping.
func InitRedis(ctx context.Context, url string) error {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	Rdb = client
	logrus.Infof("cache: connected to redis at %s", opts.Addr)
	return nil
}

// PublishTelemetry pushes one record onto the telemetry queue. Callers are
// expected to invoke it from a goroutine with a short timeout; a nil client
// drops the record silently.
func PublishTelemetry(ctx context.Context, rec TelemetryRecord) error {
	if Rdb == nil {
		return nil
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal telemetry record: %w", err)
	}
	if err := Rdb.RPush(ctx, TelemetryQueueKey, raw).Err(); err != nil {
		return fmt.Errorf("push telemetry record: %w", err)
	}
	return nil
}
