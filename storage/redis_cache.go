package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"homely-price-discovery/models"
	"homely-price-discovery/utils"
)

// RedisCache keeps finished discovery results in Redis so a re-run of the
// same property skips the oracle.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache connects to addr and verifies the connection.
func NewRedisCache(ctx context.Context, addr, password string, db int, ttl time.Duration, retry *utils.RetryConfig) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ping := func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	if err := retry.Do(ctx, "redis-ping", ping); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: %w", err)
	}
	return &RedisCache{rdb: rdb, ttl: ttl}, nil
}

// cachedResult is the stored JSON form of a result.
type cachedResult struct {
	Address    string    `json:"address"`
	Suburb     string    `json:"suburb"`
	Found      bool      `json:"found"`
	Exact      bool      `json:"exact"`
	MinPrice   int       `json:"min_price"`
	MaxPrice   int       `json:"max_price"`
	Calls      int       `json:"calls"`
	Message    string    `json:"message,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}

func toCached(r *models.DiscoveryResult) cachedResult {
	return cachedResult{
		Address:    r.Address,
		Suburb:     r.Suburb,
		Found:      r.Found,
		Exact:      r.Exact,
		MinPrice:   r.Bracket.MinPrice,
		MaxPrice:   r.Bracket.MaxPrice,
		Calls:      r.Calls,
		Message:    r.Message,
		FinishedAt: r.FinishedAt,
	}
}

func (cr cachedResult) result() *models.DiscoveryResult {
	return &models.DiscoveryResult{
		Address:    cr.Address,
		Suburb:     cr.Suburb,
		Found:      cr.Found,
		Exact:      cr.Exact,
		Bracket:    models.Bracket{MinPrice: cr.MinPrice, MaxPrice: cr.MaxPrice},
		Calls:      cr.Calls,
		Message:    cr.Message,
		FinishedAt: cr.FinishedAt,
	}
}

func encodeResult(r *models.DiscoveryResult) ([]byte, error) {
	return json.Marshal(toCached(r))
}

func decodeResult(raw []byte) (*models.DiscoveryResult, error) {
	var cr cachedResult
	if err := json.Unmarshal(raw, &cr); err != nil {
		return nil, err
	}
	return cr.result(), nil
}

// Get returns the cached result for key, if any.
func (c *RedisCache) Get(ctx context.Context, key string) (*models.DiscoveryResult, bool, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis: get: %w", err)
	}
	r, err := decodeResult(raw)
	if err != nil {
		return nil, false, fmt.Errorf("redis: decode %s: %w", key, err)
	}
	return r, true, nil
}

// Put stores r under key for the cache TTL.
func (c *RedisCache) Put(ctx context.Context, key string, r *models.DiscoveryResult) error {
	raw, err := encodeResult(r)
	if err != nil {
		return fmt.Errorf("redis: encode: %w", err)
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set: %w", err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.rdb.Close()
}
