// Package tenant resolves inbound shop domains to tenant records.
package tenant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/craftpixel/event-relay/internal/domain"
)

// storefrontSuffix is the hosted-storefront domain suffix. Tenants are
// sometimes registered under the bare shop name instead of the full
// storefront domain, so resolution tolerates both forms.
const storefrontSuffix = ".myshopify.com"

// Source is the persistent tenant lookup. Implemented by store.PostgresStore.
type Source interface {
	GetTenantByDomain(ctx context.Context, shopDomain string) (*domain.Tenant, error)
}

// Resolver maps an inbound domain string to a tenant record, consulting a
// Redis cache before the database. Not-found is a defined outcome, not an
// error: Resolve returns (nil, nil).
type Resolver struct {
	source Source
	cache  *Cache
	logger *slog.Logger
}

// NewResolver creates a resolver. The cache may be nil, in which case
// every lookup goes to the source.
func NewResolver(source Source, cache *Cache, logger *slog.Logger) *Resolver {
	return &Resolver{source: source, cache: cache, logger: logger}
}

// Resolve looks up the tenant for a shop domain: exact match first, then
// one retry with the storefront suffix stripped. No further fallback.
func (r *Resolver) Resolve(ctx context.Context, shopDomain string) (*domain.Tenant, error) {
	if t, ok := r.cacheGet(ctx, shopDomain); ok {
		return t, nil
	}

	t, err := r.source.GetTenantByDomain(ctx, shopDomain)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", shopDomain, err)
	}

	if t == nil && strings.HasSuffix(shopDomain, storefrontSuffix) {
		stripped := strings.TrimSuffix(shopDomain, storefrontSuffix)
		t, err = r.source.GetTenantByDomain(ctx, stripped)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", stripped, err)
		}
	}

	if t != nil {
		r.cacheSet(ctx, shopDomain, t)
	}

	return t, nil
}

func (r *Resolver) cacheGet(ctx context.Context, shopDomain string) (*domain.Tenant, bool) {
	if r.cache == nil {
		return nil, false
	}
	return r.cache.Get(ctx, shopDomain)
}

func (r *Resolver) cacheSet(ctx context.Context, shopDomain string, t *domain.Tenant) {
	if r.cache == nil {
		return
	}
	r.cache.Set(ctx, shopDomain, t)
}
