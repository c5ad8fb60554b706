package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Cache stores resolved sources by media id. Misses and backend failures look the same.
type Cache interface {
	Get(ctx context.Context, mediaID string) (Source, bool)
	Set(ctx context.Context, src Source, ttl time.Duration)
}

type memoryEntry struct {
	src     Source
	expires time.Time
}

// MemoryCache is an in-process Cache with a background sweep of expired entries.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	stop    chan struct{}
	once    sync.Once
}

func NewMemoryCache(sweepInterval time.Duration) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]memoryEntry),
		stop:    make(chan struct{}),
	}
	if sweepInterval > 0 {
		go c.sweep(sweepInterval)
	}
	return c
}

func (c *MemoryCache) Get(_ context.Context, mediaID string) (Source, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[mediaID]
	if !ok || time.Now().After(e.expires) {
		return Source{}, false
	}
	return e.src, true
}

func (c *MemoryCache) Set(_ context.Context, src Source, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[src.MediaID] = memoryEntry{src: src, expires: time.Now().Add(ttl)}
}

func (c *MemoryCache) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for k, e := range c.entries {
				if now.After(e.expires) {
					delete(c.entries, k)
				}
			}
			c.mu.Unlock()
		case <-c.stop:
			return
		}
	}
}

func (c *MemoryCache) Close() {
	c.once.Do(func() { close(c.stop) })
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisCache keeps resolved sources in Redis as JSON under "manifest:<id>".
type RedisCache struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisCache(ctx context.Context, cfg RedisConfig, logger *zap.Logger) (*RedisCache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	logger.Info("connected to redis manifest cache", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	return &RedisCache{client: client, logger: logger}, nil
}

func newRedisCacheWithClient(client *redis.Client, logger *zap.Logger) *RedisCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCache{client: client, logger: logger}
}

func redisKey(mediaID string) string {
	return "manifest:" + mediaID
}

func (c *RedisCache) Get(ctx context.Context, mediaID string) (Source, bool) {
	val, err := c.client.Get(ctx, redisKey(mediaID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Source{}, false
	}
	if err != nil {
		c.logger.Warn("redis get failed", zap.String("media_id", mediaID), zap.Error(err))
		return Source{}, false
	}
	var src Source
	if err := json.Unmarshal(val, &src); err != nil {
		c.logger.Warn("cached source unreadable", zap.String("media_id", mediaID), zap.Error(err))
		return Source{}, false
	}
	return src, true
}

func (c *RedisCache) Set(ctx context.Context, src Source, ttl time.Duration) {
	data, err := json.Marshal(src)
	if err != nil {
		c.logger.Warn("json marshal failed", zap.String("media_id", src.MediaID), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, redisKey(src.MediaID), data, ttl).Err(); err != nil {
		c.logger.Warn("redis set failed", zap.String("media_id", src.MediaID), zap.Error(err))
	}
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// CachedResolver consults Cache before the wrapped resolver. Failures are never
// cached. Concurrent misses for one media id share a single upstream fetch.
type CachedResolver struct {
	Next  SourceResolver
	Cache Cache
	TTL   time.Duration

	group singleflight.Group
}

func (r *CachedResolver) Resolve(ctx context.Context, mediaID string) (Source, error) {
	mediaID = strings.TrimSpace(mediaID)
	if src, ok := r.Cache.Get(ctx, mediaID); ok {
		return src, nil
	}

	// the shared fetch outlives any single caller; the resolver's own timeout bounds it
	fetchCtx := context.WithoutCancel(ctx)
	ch := r.group.DoChan(mediaID, func() (interface{}, error) {
		src, err := r.Next.Resolve(fetchCtx, mediaID)
		if err != nil {
			return Source{}, err
		}
		r.Cache.Set(fetchCtx, src, r.TTL)
		return src, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return Source{}, res.Err
		}
		return res.Val.(Source), nil
	case <-ctx.Done():
		return Source{}, ctx.Err()
	}
}
