package playerscript

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultRedisKey holds the shared snapshot hash.
const DefaultRedisKey = "ytdetails:player_script"

const (
	fieldURL        = "url"
	fieldObtainedAt = "obtained_at"
)

// RedisStore keeps the shared snapshot in a Redis hash that expires with the TTL.
type RedisStore struct {
	client redis.UniversalClient
	key    string
	logger zerolog.Logger
}

// NewRedisStore returns a store under key, or DefaultRedisKey when key is empty.
func NewRedisStore(client redis.UniversalClient, key string, logger zerolog.Logger) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key, logger: logger}
}

// Load implements SharedStore.
func (r *RedisStore) Load(ctx context.Context) (Snapshot, bool, error) {
	fields, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return Snapshot{}, false, err
	}
	url := fields[fieldURL]
	if url == "" {
		return Snapshot{}, false, nil
	}
	obtainedAt, err := strconv.ParseInt(fields[fieldObtainedAt], 10, 64)
	if err != nil {
		r.logger.Warn().Err(err).Str("key", r.key).Msg("corrupt shared script snapshot")
		return Snapshot{}, false, nil
	}
	return Snapshot{URL: url, ObtainedAt: obtainedAt}, true, nil
}

// Save implements SharedStore; the last writer wins.
func (r *RedisStore) Save(ctx context.Context, s Snapshot) error {
	if s.URL == "" {
		return errors.New("empty script url")
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.key, fieldURL, s.URL, fieldObtainedAt, strconv.FormatInt(s.ObtainedAt, 10))
		pipe.PExpire(ctx, r.key, time.Duration(TTLMillis)*time.Millisecond)
		return nil
	})
	if err != nil {
		return err
	}
	r.logger.Debug().Str("key", r.key).Str("url", s.URL).Msg("shared script snapshot saved")
	return nil
}

// Ping checks the connection.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
