package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/natserract/aukro/pkg/aukro"
)

// KeyPrefix namespaces session keys in redis
const KeyPrefix = "aukro:session:"

// Redis keeps the session under a single JSON key, shared by every process using the same name
type Redis struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedis creates a store for the session called name. A zero ttl keeps the key until Clear.
func NewRedis(client redis.Cmdable, name string, ttl time.Duration, logger *zap.Logger) *Redis {
	return &Redis{
		client: client,
		key:    KeyPrefix + name,
		ttl:    ttl,
		logger: logger,
	}
}

func (r *Redis) Load(ctx context.Context) (aukro.SessionRecord, bool, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return aukro.SessionRecord{}, false, nil
	}
	if err != nil {
		r.logger.Error("Failed to load session", zap.String("key", r.key), zap.Error(err))
		return aukro.SessionRecord{}, false, fmt.Errorf("failed to load session %s: %w", r.key, err)
	}

	var record aukro.SessionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return aukro.SessionRecord{}, false, fmt.Errorf("failed to unmarshal session %s: %w", r.key, err)
	}
	return record, true, nil
}

func (r *Redis) Store(ctx context.Context, record aukro.SessionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := r.client.Set(ctx, r.key, data, r.ttl).Err(); err != nil {
		r.logger.Error("Failed to store session", zap.String("key", r.key), zap.Error(err))
		return fmt.Errorf("failed to store session %s: %w", r.key, err)
	}
	r.logger.Debug("Session stored", zap.String("key", r.key), zap.Duration("ttl", r.ttl))
	return nil
}

func (r *Redis) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		r.logger.Error("Failed to clear session", zap.String("key", r.key), zap.Error(err))
		return fmt.Errorf("failed to clear session %s: %w", r.key, err)
	}
	return nil
}
