package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps one hash per pipeline: a field per skill state plus the
// creation time. Saves replace the whole hash atomically and announce the
// pipeline name on the instance's checkpoint channel.
// It is safe for concurrent use.
type RedisStore struct {
	rdb      *redis.Client
	instance string
}

func NewRedisStore(opts *redis.Options, instance string) (*RedisStore, error) {
	if instance == "" {
		return nil, fmt.Errorf("instance name cannot be empty")
	}
	return &RedisStore{rdb: redis.NewClient(opts), instance: instance}, nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisStore) Save(ctx context.Context, c Checkpoint) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid checkpoint: %w", err)
	}

	hash := toHash(c)
	key := Key(s.instance, c.Pipeline)

	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, hash)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write checkpoint to Redis: %w", err)
	}

	if err := s.rdb.Publish(ctx, EventsChannel(s.instance), c.Pipeline).Err(); err != nil {
		return fmt.Errorf("failed to publish checkpoint event: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, pipeline string) (Checkpoint, error) {
	hash, err := s.rdb.HGetAll(ctx, Key(s.instance, pipeline)).Result()
	if err != nil {
		return Checkpoint{}, fmt.Errorf("failed to read checkpoint from Redis: %w", err)
	}
	// HGetAll returns an empty map for missing keys.
	if len(hash) == 0 {
		return Checkpoint{}, fmt.Errorf("%w: %s", ErrNotFound, pipeline)
	}

	c, err := fromHash(pipeline, hash)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("failed to deserialize checkpoint: %w", err)
	}
	return c, nil
}

// Subscribe delivers the names of pipelines whose checkpoint was saved. Close
// the returned PubSub to stop.
func (s *RedisStore) Subscribe(ctx context.Context) *redis.PubSub {
	return s.rdb.Subscribe(ctx, EventsChannel(s.instance))
}

func toHash(c Checkpoint) map[string]interface{} {
	hash := make(map[string]interface{}, len(c.Skills)+1)
	hash[createdAtField] = c.CreatedAtMs
	for name, raw := range c.Skills {
		hash[skillFieldPrefix+name] = string(raw)
	}
	return hash
}

func fromHash(pipeline string, hash map[string]string) (Checkpoint, error) {
	c := Checkpoint{Pipeline: pipeline, Skills: map[string]json.RawMessage{}}
	for field, value := range hash {
		if field == createdAtField {
			ms, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return Checkpoint{}, fmt.Errorf("invalid %s field: %w", createdAtField, err)
			}
			c.CreatedAtMs = ms
			continue
		}
		name, ok := strings.CutPrefix(field, skillFieldPrefix)
		if !ok {
			continue
		}
		if !json.Valid([]byte(value)) {
			return Checkpoint{}, fmt.Errorf("skill %s: state is not valid JSON", name)
		}
		c.Skills[name] = json.RawMessage(value)
	}
	return c, nil
}
