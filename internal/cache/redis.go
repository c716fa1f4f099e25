package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCacheMiss = errors.New("cache miss")
	ErrCacheDown = errors.New("cache unavailable")
)

type CacheConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 5,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// RedisCache stores JSON-encoded values with per-operation deadlines derived
// from the configured read/write timeouts.
type RedisCache struct {
	client       *redis.Client
	metrics      *Metrics
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func NewRedisCache(config *CacheConfig) *RedisCache {
	if config == nil {
		config = DefaultCacheConfig()
	}

	return &RedisCache{
		client: redis.NewClient(&redis.Options{
			Addr:         config.Addr,
			Password:     config.Password,
			DB:           config.DB,
			PoolSize:     config.PoolSize,
			MinIdleConns: config.MinIdleConns,
			MaxRetries:   config.MaxRetries,
			DialTimeout:  config.DialTimeout,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
		}),
		metrics:      NewMetrics(),
		readTimeout:  config.ReadTimeout,
		writeTimeout: config.WriteTimeout,
	}
}

func (r *RedisCache) opContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return context.WithTimeout(context.Background(), timeout)
}

func (r *RedisCache) Set(key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	ctx, cancel := r.opContext(r.writeTimeout)
	defer cancel()

	if err := r.client.Set(ctx, key, data, expiration).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Get decodes the cached value for key into dest. A missing key returns
// ErrCacheMiss; every outcome is counted in the hit/miss metrics.
func (r *RedisCache) Get(key string, dest interface{}) error {
	ctx, cancel := r.opContext(r.readTimeout)
	defer cancel()

	data, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == redis.Nil:
		r.metrics.RecordMiss()
		return ErrCacheMiss
	case err != nil:
		r.metrics.RecordError()
		return fmt.Errorf("get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		r.metrics.RecordError()
		return fmt.Errorf("decode %s: %w", key, err)
	}

	r.metrics.RecordHit()
	return nil
}

// SetWithTags stores a value and records its key under each tag's set so
// the whole group can later be dropped with InvalidateByTag.
func (r *RedisCache) SetWithTags(key string, value interface{}, expiration time.Duration, tags []string) error {
	if err := r.Set(key, value, expiration); err != nil {
		return err
	}

	ctx, cancel := r.opContext(r.writeTimeout)
	defer cancel()

	pipe := r.client.Pipeline()
	for _, tag := range tags {
		tagKey := "tag:" + tag
		pipe.SAdd(ctx, tagKey, key)
		pipe.Expire(ctx, tagKey, expiration)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// InvalidateByTag deletes every key recorded under the tag, plus the tag
// set itself.
func (r *RedisCache) InvalidateByTag(tag string) error {
	ctx, cancel := r.opContext(10 * time.Second)
	defer cancel()

	tagKey := "tag:" + tag
	keys, err := r.client.SMembers(ctx, tagKey).Result()
	if err != nil {
		return fmt.Errorf("members %s: %w", tagKey, err)
	}

	return r.client.Del(ctx, append(keys, tagKey)...).Err()
}

func (r *RedisCache) Delete(key string) error {
	ctx, cancel := r.opContext(r.writeTimeout)
	defer cancel()

	return r.client.Del(ctx, key).Err()
}

// DeletePattern removes every key matching a glob pattern. Invalidation
// sweeps cover few keys, so a SCAN walk is fine here.
func (r *RedisCache) DeletePattern(pattern string) error {
	ctx, cancel := r.opContext(10 * time.Second)
	defer cancel()

	var keys []string
	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan %s: %w", pattern, err)
	}

	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

func (r *RedisCache) Exists(key string) (bool, error) {
	ctx, cancel := r.opContext(r.readTimeout)
	defer cancel()

	n, err := r.client.Exists(ctx, key).Result()
	return n > 0, err
}

func (r *RedisCache) Health() error {
	ctx, cancel := r.opContext(2 * time.Second)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheDown, err)
	}
	return nil
}

func (r *RedisCache) Stats() map[string]interface{} {
	pool := r.client.PoolStats()

	stats := r.metrics.Snapshot()
	stats["pool_hits"] = pool.Hits
	stats["pool_misses"] = pool.Misses
	stats["pool_timeouts"] = pool.Timeouts
	stats["pool_total"] = pool.TotalConns
	stats["pool_idle"] = pool.IdleConns
	return stats
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
