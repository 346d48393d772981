// Package policy decides, per tenant and event type, whether an event may
// be forwarded to the marketing provider.
package policy

import (
	"strings"

	"github.com/craftpixel/event-relay/internal/domain"
)

// Decision is the outcome of a policy check.
type Decision int

const (
	Proceed Decision = iota
	EventDisabled
	NoConsent
)

func (d Decision) String() string {
	switch d {
	case EventDisabled:
		return "event_disabled"
	case NoConsent:
		return "no_consent"
	default:
		return "proceed"
	}
}

// ToggleKey normalizes an event name into its toggle-map key by removing
// all whitespace, e.g. "Add to Cart" -> "AddtoCart".
func ToggleKey(eventName string) string {
	return strings.Join(strings.Fields(eventName), "")
}

// Evaluate checks the tenant's event toggle and consent settings.
// Both are permissive by default: an absent toggle map, an absent key, or
// an entry without an explicit enabled value all proceed, and only an
// explicit marketing:false withholds consent.
func Evaluate(t *domain.Tenant, eventName string) Decision {
	if toggle, ok := t.EventSettings[ToggleKey(eventName)]; ok {
		if toggle.Enabled != nil && !*toggle.Enabled {
			return EventDisabled
		}
	}

	if cf := t.ConsentFlags; cf != nil && cf.Marketing != nil && !*cf.Marketing {
		return NoConsent
	}

	return Proceed
}
