package klaviyo

import (
	"time"

	"github.com/craftpixel/event-relay/internal/domain"
	"github.com/craftpixel/event-relay/internal/payload"
)

// Event is the request body of the Klaviyo events API.
type Event struct {
	Data EventData `json:"data"`
}

type EventData struct {
	Type       string          `json:"type"`
	Attributes EventAttributes `json:"attributes"`
}

type EventAttributes struct {
	Metric     Metric         `json:"metric"`
	Profile    map[string]any `json:"profile"`
	Properties payload.Fields `json:"properties"`
	Time       string         `json:"time"`
}

type Metric struct {
	Name string `json:"name"`
}

// metricNames maps internal storefront event names onto Klaviyo's metric
// vocabulary. Names outside the table pass through unchanged.
var metricNames = map[string]string{
	"Page Viewed":        "Viewed Page",
	"Product Viewed":     "Viewed Product",
	"Add to Cart":        "Added to Cart",
	"Remove from Cart":   "Removed from Cart",
	"Checkout Started":   "Started Checkout",
	"Purchase Completed": "Placed Order",
	"Search Performed":   "Searched Site",
}

// MetricName translates an internal event name to the Klaviyo metric name.
func MetricName(eventName string) string {
	if mapped, ok := metricNames[eventName]; ok {
		return mapped
	}
	return eventName
}

// BuildProfile extracts the customer identity block from the event payload.
// Customer sub-fields are checked in a fixed order and mapped onto
// Klaviyo's profile field names. When no customer field is present the
// profile falls back to a single $anonymous identity derived from the shop
// domain, so the block is never empty.
func BuildProfile(data payload.Fields, shopDomain string) map[string]any {
	profile := make(map[string]any)
	customer := data.Child("customer")

	if email, ok := customer.String("email"); ok {
		profile["email"] = email
	}
	if phone, ok := customer.String("phone"); ok {
		profile["phone_number"] = phone
	}
	if first, ok := customer.String("firstName"); ok {
		profile["first_name"] = first
	}
	if last, ok := customer.String("lastName"); ok {
		profile["last_name"] = last
	}

	if len(profile) == 0 {
		if shopDomain == "" {
			shopDomain = "anonymous"
		}
		profile["$anonymous"] = shopDomain
	}

	return profile
}

// BuildEvent reshapes an enriched storefront event into the Klaviyo event
// schema. It is pure: no I/O and no failure modes, whatever the payload
// shape.
func BuildEvent(eventName string, enriched domain.EnrichedEvent) Event {
	eventTime := enriched.EventTimestamp
	if eventTime == "" {
		eventTime = time.Now().UTC().Format(time.RFC3339)
	}

	return Event{
		Data: EventData{
			Type: "event",
			Attributes: EventAttributes{
				Metric:     Metric{Name: MetricName(eventName)},
				Profile:    BuildProfile(enriched.Data, enriched.StoreDomain),
				Properties: enriched.Properties(),
				Time:       eventTime,
			},
		},
	}
}
