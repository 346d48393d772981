package domain

import (
	"time"
)

// EventToggle enables or disables forwarding for one event type.
// Enabled is a pointer so that an entry without an explicit value stays
// permissive: only enabled:false blocks.
type EventToggle struct {
	Enabled *bool `json:"enabled,omitempty"`
}

// ConsentFlags holds GDPR-style permission flags for a tenant.
// Absent flags are permissive; only an explicit false withholds consent.
type ConsentFlags struct {
	Marketing *bool `json:"marketing,omitempty"`
	Analytics *bool `json:"analytics,omitempty"`
}

// Tenant is a merchant shop that owns events, provider credentials and
// policy settings. Tenants are provisioned elsewhere; this service only
// reads them.
type Tenant struct {
	ID                 string                 `json:"id"`
	ShopDomain         string                 `json:"shop_domain"`
	KlaviyoAPIKey      string                 `json:"klaviyo_api_key,omitempty"`
	RateLimitPerSecond int                    `json:"rate_limit_per_second"`
	EventSettings      map[string]EventToggle `json:"event_settings,omitempty"`
	ConsentFlags       *ConsentFlags          `json:"consent_flags,omitempty"`
	CreatedAt          time.Time              `json:"created_at"`
	UpdatedAt          time.Time              `json:"updated_at"`
}
