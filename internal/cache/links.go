package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sahsisunny/xproli-backend/internal/config"
	"github.com/sahsisunny/xproli-backend/internal/domain"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// LinkCache is a read-through redis cache for resolved links on the redirect
// hot path. All methods are nil-receiver safe so callers can run without
// redis; cache failures degrade to storage lookups, never to errors.
type LinkCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// New connects to redis and verifies the connection.
func New(cfg *config.Redis, log *zap.Logger) (*LinkCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	ttl, err := time.ParseDuration(cfg.LinkTTL)
	if err != nil {
		log.Warn("failed to parse link ttl, using default 5m", zap.Error(err))
		ttl = 5 * time.Minute
	}

	log.Info("connected to redis link cache", zap.String("addr", cfg.Addr), zap.Duration("ttl", ttl))
	return &LinkCache{client: client, ttl: ttl, log: log}, nil
}

func key(linkDomain, slug string) string {
	return "link:" + linkDomain + "/" + slug
}

// Get returns a cached link, or (nil, false) on miss, disabled cache, or any
// redis/decode failure.
func (c *LinkCache) Get(ctx context.Context, linkDomain, slug string) (*domain.Link, bool) {
	if c == nil {
		return nil, false
	}

	raw, err := c.client.Get(ctx, key(linkDomain, slug)).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.log.Debug("link cache get failed", zap.String("slug", slug), zap.Error(err))
		return nil, false
	}

	var link domain.Link
	if err := json.Unmarshal([]byte(raw), &link); err != nil {
		c.log.Warn("corrupt link cache entry", zap.String("slug", slug), zap.Error(err))
		return nil, false
	}
	return &link, true
}

// Set stores a resolved link. Failures are logged and dropped.
func (c *LinkCache) Set(ctx context.Context, link *domain.Link) {
	if c == nil {
		return
	}

	raw, err := json.Marshal(link)
	if err != nil {
		c.log.Warn("failed to marshal link for cache", zap.Int64("link_id", link.ID), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key(link.Domain, link.Slug), raw, c.ttl).Err(); err != nil {
		c.log.Debug("link cache set failed", zap.String("slug", link.Slug), zap.Error(err))
	}
}

// Invalidate drops a cached link after an update or delete.
func (c *LinkCache) Invalidate(ctx context.Context, linkDomain, slug string) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, key(linkDomain, slug)).Err(); err != nil {
		c.log.Debug("link cache invalidate failed", zap.String("slug", slug), zap.Error(err))
	}
}

// Close releases the redis client.
func (c *LinkCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
