package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/craftpixel/event-relay/internal/domain"
	"github.com/jackc/pgx/v5"
)

// GetTenantByDomain returns the tenant registered under the exact shop
// domain. Not-found is not an error: it returns (nil, nil).
func (s *PostgresStore) GetTenantByDomain(ctx context.Context, shopDomain string) (*domain.Tenant, error) {
	var t domain.Tenant
	var settings, consent []byte

	err := s.pool.QueryRow(ctx, `
		SELECT id, shop_domain, COALESCE(klaviyo_api_key, ''), rate_limit_per_second,
		       event_settings, consent_flags, created_at, updated_at
		FROM tenants WHERE shop_domain = $1
	`, shopDomain).Scan(
		&t.ID, &t.ShopDomain, &t.KlaviyoAPIKey, &t.RateLimitPerSecond,
		&settings, &consent, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("querying tenant: %w", err)
	}

	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &t.EventSettings); err != nil {
			return nil, fmt.Errorf("decoding event settings for %s: %w", t.ID, err)
		}
	}
	if len(consent) > 0 {
		if err := json.Unmarshal(consent, &t.ConsentFlags); err != nil {
			return nil, fmt.Errorf("decoding consent flags for %s: %w", t.ID, err)
		}
	}

	return &t, nil
}

// CountTenants returns the total and credential-configured tenant counts.
func (s *PostgresStore) CountTenants(ctx context.Context) (total, configured int, err error) {
	err = s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE klaviyo_api_key IS NOT NULL AND klaviyo_api_key <> '')
		FROM tenants
	`).Scan(&total, &configured)
	if err != nil {
		return 0, 0, fmt.Errorf("counting tenants: %w", err)
	}
	return total, configured, nil
}
