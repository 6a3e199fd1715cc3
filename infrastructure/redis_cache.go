package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"diadesorte/domain/entities"
	"diadesorte/domain/interfaces"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	// DefaultLatestDrawTTL bounds how stale a cached upstream draw may get
	DefaultLatestDrawTTL = 10 * time.Minute
	lastBatchTTL         = 7 * 24 * time.Hour

	latestDrawKey = "diadesorte:latest_draw"
	lastBatchKey  = "diadesorte:last_batch"
)

// ConnectRedis initializes a Redis client from a redis:// URL or host:port
// and checks it answers
func ConnectRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	var client *redis.Client
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis url: %w", err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	log.WithField("addr", client.Options().Addr).Info("Connected to Redis")
	return client, nil
}

// RedisCache keeps the latest upstream draw and the last batch in Redis
type RedisCache struct {
	client    *redis.Client
	latestTTL time.Duration
}

var (
	_ interfaces.DrawCache  = (*RedisCache)(nil)
	_ interfaces.BatchStore = (*RedisCache)(nil)
)

// NewRedisCache creates a cache on client; latestTTL <= 0 uses the default
func NewRedisCache(client *redis.Client, latestTTL time.Duration) *RedisCache {
	if latestTTL <= 0 {
		latestTTL = DefaultLatestDrawTTL
	}
	return &RedisCache{client: client, latestTTL: latestTTL}
}

// GetLatestDraw returns nil, nil on a cache miss
func (c *RedisCache) GetLatestDraw(ctx context.Context) (*entities.Draw, error) {
	var draw entities.Draw
	found, err := c.getJSON(ctx, latestDrawKey, &draw)
	if err != nil || !found {
		return nil, err
	}
	return &draw, nil
}

func (c *RedisCache) SetLatestDraw(ctx context.Context, draw *entities.Draw) error {
	return c.setJSON(ctx, latestDrawKey, draw, c.latestTTL)
}

func (c *RedisCache) SaveLastBatch(ctx context.Context, result *entities.GenerationResult) error {
	return c.setJSON(ctx, lastBatchKey, result, lastBatchTTL)
}

// GetLastBatch returns nil, nil when nothing was generated yet
func (c *RedisCache) GetLastBatch(ctx context.Context) (*entities.GenerationResult, error) {
	var result entities.GenerationResult
	found, err := c.getJSON(ctx, lastBatchKey, &result)
	if err != nil || !found {
		return nil, err
	}
	return &result, nil
}

func (c *RedisCache) getJSON(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func (c *RedisCache) setJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// MemoryCache is the in-process stand-in used when no Redis is configured
type MemoryCache struct {
	mu          sync.RWMutex
	latest      *entities.Draw
	latestUntil time.Time
	latestTTL   time.Duration
	lastBatch   *entities.GenerationResult
	now         func() time.Time
}

var (
	_ interfaces.DrawCache  = (*MemoryCache)(nil)
	_ interfaces.BatchStore = (*MemoryCache)(nil)
)

// NewMemoryCache creates an in-memory cache; latestTTL <= 0 uses the default
func NewMemoryCache(latestTTL time.Duration) *MemoryCache {
	if latestTTL <= 0 {
		latestTTL = DefaultLatestDrawTTL
	}
	return &MemoryCache{latestTTL: latestTTL, now: time.Now}
}

func (c *MemoryCache) GetLatestDraw(ctx context.Context) (*entities.Draw, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.latest == nil || c.now().After(c.latestUntil) {
		return nil, nil
	}
	return c.latest, nil
}

func (c *MemoryCache) SetLatestDraw(ctx context.Context, draw *entities.Draw) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latest = draw
	c.latestUntil = c.now().Add(c.latestTTL)
	return nil
}

func (c *MemoryCache) SaveLastBatch(ctx context.Context, result *entities.GenerationResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastBatch = result
	return nil
}

func (c *MemoryCache) GetLastBatch(ctx context.Context) (*entities.GenerationResult, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastBatch, nil
}
