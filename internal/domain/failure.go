package domain

import (
	"encoding/json"
	"time"
)

// FailedEvent is a durable record of a forward attempt the provider
// rejected. It carries the original request payload verbatim so the
// out-of-band retry mechanism can replay it faithfully. This service
// creates failed events but never mutates or deletes them.
type FailedEvent struct {
	ID         string          `json:"id"`
	TenantID   string          `json:"tenant_id"`
	EventType  string          `json:"event_type"`
	Payload    json.RawMessage `json:"payload"`
	Error      string          `json:"error"`
	RetryCount int             `json:"retry_count"`
	CreatedAt  time.Time       `json:"created_at"`
}

// DebugLog is an append-only processing log entry written once per
// completed pipeline run.
type DebugLog struct {
	ID        string          `json:"id"`
	TenantID  string          `json:"tenant_id"`
	Level     string          `json:"level"`
	Message   string          `json:"message"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
