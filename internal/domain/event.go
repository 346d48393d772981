package domain

import (
	"time"

	"github.com/craftpixel/event-relay/internal/payload"
)

// TrackRequest is the inbound event as posted by the storefront pixel.
type TrackRequest struct {
	Event      string         `json:"event"`
	Data       payload.Fields `json:"data"`
	Timestamp  string         `json:"timestamp"`
	ShopDomain string         `json:"shopDomain"`
}

// EnrichedEvent is a TrackRequest payload annotated with tenant context.
// It exists only for the duration of one pipeline run and is passed by
// value to the transformer and forwarder.
type EnrichedEvent struct {
	Data           payload.Fields
	StoreDomain    string
	EventTimestamp string
	ReceivedAt     time.Time
}

// Properties returns the full enriched payload as a single flat property
// set: the original data plus the enrichment keys.
func (e EnrichedEvent) Properties() payload.Fields {
	props := e.Data.Clone()
	props["storeDomain"] = e.StoreDomain
	props["eventTimestamp"] = e.EventTimestamp
	props["receivedAt"] = e.ReceivedAt.UTC().Format(time.RFC3339)
	return props
}
