package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/Siddarth2230/shortcode/internal/models"
)

var ErrCacheMiss = errors.New("cache miss")

const DefaultKeyPrefix = "shortcode:code:"

// entry is the cached form of a record. Unlike the API form it keeps the
// sequence number.
type entry struct {
	Code      string     `json:"c"`
	Payload   string     `json:"d"`
	Sequence  uint64     `json:"s"`
	CreatedAt time.Time  `json:"t"`
	UpdatedAt *time.Time `json:"u,omitempty"`
}

// RedisCache keeps records in Redis under prefix+code with a TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisCache creates a Redis cache with default TTL
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl == 0 {
		ttl = time.Hour // default
	}
	return &RedisCache{
		client: client,
		ttl:    ttl,
		prefix: DefaultKeyPrefix,
	}
}

func (r *RedisCache) key(code string) string {
	return r.prefix + code
}

// Get returns ErrCacheMiss when the code is not cached.
func (r *RedisCache) Get(ctx context.Context, code string) (*models.Record, error) {
	data, err := r.client.Get(ctx, r.key(code)).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, errors.Wrapf(err, "redis: get %s", code)
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, errors.Wrapf(err, "redis: decode %s", code)
	}
	return &models.Record{
		Code:      e.Code,
		Payload:   e.Payload,
		Sequence:  e.Sequence,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}, nil
}

// Set stores a record with TTL
func (r *RedisCache) Set(ctx context.Context, rec *models.Record) error {
	data, err := json.Marshal(entry{
		Code:      rec.Code,
		Payload:   rec.Payload,
		Sequence:  rec.Sequence,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	})
	if err != nil {
		return err
	}

	if err := r.client.Set(ctx, r.key(rec.Code), data, r.ttl).Err(); err != nil {
		return errors.Wrapf(err, "redis: set %s", rec.Code)
	}
	return nil
}

// Delete removes a code from Redis
func (r *RedisCache) Delete(ctx context.Context, code string) error {
	return r.client.Del(ctx, r.key(code)).Err()
}

// Ping checks the connection; used at startup to fail fast.
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
