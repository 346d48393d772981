package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/craftpixel/event-relay/internal/domain"
	"github.com/jackc/pgx/v5"
)

// FailedEventRecord holds data for inserting a failed forward attempt.
type FailedEventRecord struct {
	TenantID  string
	EventType string
	Payload   json.RawMessage
	Error     string
}

// InsertFailedEvent persists one failed forward with retry_count zero.
// The payload is the original request body verbatim so the retry mechanism
// can replay it faithfully.
func (s *PostgresStore) InsertFailedEvent(ctx context.Context, rec FailedEventRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO failed_events (tenant_id, event_type, payload, error, retry_count)
		VALUES ($1, $2, $3, $4, 0)
	`, rec.TenantID, rec.EventType, rec.Payload, rec.Error)
	if err != nil {
		return fmt.Errorf("inserting failed event: %w", err)
	}
	return nil
}

// ListFailedEvents returns failed events, newest first, optionally
// filtered by tenant.
func (s *PostgresStore) ListFailedEvents(ctx context.Context, tenantID string, limit int) ([]domain.FailedEvent, error) {
	query := `SELECT id, tenant_id, event_type, payload, error, retry_count, created_at FROM failed_events`
	args := []interface{}{}
	argIdx := 1

	if tenantID != "" {
		query += fmt.Sprintf(" WHERE tenant_id = $%d", argIdx)
		args = append(args, tenantID)
		argIdx++
	}

	query += " ORDER BY created_at DESC"

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying failed events: %w", err)
	}
	defer rows.Close()

	var events []domain.FailedEvent
	for rows.Next() {
		var fe domain.FailedEvent
		err := rows.Scan(&fe.ID, &fe.TenantID, &fe.EventType, &fe.Payload, &fe.Error, &fe.RetryCount, &fe.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning failed event: %w", err)
		}
		events = append(events, fe)
	}

	if events == nil {
		events = []domain.FailedEvent{}
	}

	return events, nil
}

// GetFailedEvent returns a single failed event by ID, or (nil, nil).
func (s *PostgresStore) GetFailedEvent(ctx context.Context, id string) (*domain.FailedEvent, error) {
	var fe domain.FailedEvent
	err := s.pool.QueryRow(ctx, `
		SELECT id, tenant_id, event_type, payload, error, retry_count, created_at
		FROM failed_events WHERE id = $1
	`, id).Scan(&fe.ID, &fe.TenantID, &fe.EventType, &fe.Payload, &fe.Error, &fe.RetryCount, &fe.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("querying failed event: %w", err)
	}
	return &fe, nil
}
