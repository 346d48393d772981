package tenant

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/craftpixel/event-relay/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Cache is a Redis read-through cache for resolved tenants, keyed by the
// domain as the pixel sent it. It fails open: any Redis error is treated
// as a miss so resolution falls back to the database.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{client: client, ttl: ttl, logger: logger}
}

func cacheKey(shopDomain string) string {
	return fmt.Sprintf("tenant:%s", shopDomain)
}

// Get returns the cached tenant for a domain, or (nil, false) on a miss.
func (c *Cache) Get(ctx context.Context, shopDomain string) (*domain.Tenant, bool) {
	data, err := c.client.Get(ctx, cacheKey(shopDomain)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("tenant cache read failed", "error", err, "shop_domain", shopDomain)
		}
		return nil, false
	}

	var t domain.Tenant
	if err := json.Unmarshal(data, &t); err != nil {
		c.logger.Warn("tenant cache entry corrupt", "error", err, "shop_domain", shopDomain)
		return nil, false
	}
	return &t, true
}

// Set stores a resolved tenant under the requested domain with the cache TTL.
func (c *Cache) Set(ctx context.Context, shopDomain string, t *domain.Tenant) {
	data, err := json.Marshal(t)
	if err != nil {
		c.logger.Warn("tenant cache encode failed", "error", err, "shop_domain", shopDomain)
		return
	}

	if err := c.client.Set(ctx, cacheKey(shopDomain), data, c.ttl).Err(); err != nil {
		c.logger.Warn("tenant cache write failed", "error", err, "shop_domain", shopDomain)
	}
}

// Invalidate drops a cached domain. Used when provisioning changes land
// before the TTL expires.
func (c *Cache) Invalidate(ctx context.Context, shopDomain string) {
	if err := c.client.Del(ctx, cacheKey(shopDomain)).Err(); err != nil {
		c.logger.Warn("tenant cache invalidation failed", "error", err, "shop_domain", shopDomain)
	}
}
