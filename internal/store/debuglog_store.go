package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/craftpixel/event-relay/internal/domain"
)

// DebugLogRecord holds data for inserting a processing log entry.
type DebugLogRecord struct {
	TenantID string
	Level    string
	Message  string
	Metadata json.RawMessage
}

// InsertDebugLog appends one processing log entry. Entries are never read
// back by the pipeline; they exist for operators.
func (s *PostgresStore) InsertDebugLog(ctx context.Context, rec DebugLogRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO debug_logs (tenant_id, level, message, metadata)
		VALUES ($1, $2, $3, $4)
	`, rec.TenantID, rec.Level, rec.Message, rec.Metadata)
	if err != nil {
		return fmt.Errorf("inserting debug log: %w", err)
	}
	return nil
}

// ListDebugLogs returns log entries, newest first, optionally filtered by
// tenant and level.
func (s *PostgresStore) ListDebugLogs(ctx context.Context, tenantID, level string, limit int) ([]domain.DebugLog, error) {
	query := `SELECT id, tenant_id, level, message, metadata, created_at FROM debug_logs`
	args := []interface{}{}
	argIdx := 1
	conditions := []string{}

	if tenantID != "" {
		conditions = append(conditions, fmt.Sprintf("tenant_id = $%d", argIdx))
		args = append(args, tenantID)
		argIdx++
	}
	if level != "" {
		conditions = append(conditions, fmt.Sprintf("level = $%d", argIdx))
		args = append(args, level)
		argIdx++
	}

	if len(conditions) > 0 {
		query += " WHERE "
		for i, c := range conditions {
			if i > 0 {
				query += " AND "
			}
			query += c
		}
	}

	query += " ORDER BY created_at DESC"

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying debug logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.DebugLog
	for rows.Next() {
		var dl domain.DebugLog
		err := rows.Scan(&dl.ID, &dl.TenantID, &dl.Level, &dl.Message, &dl.Metadata, &dl.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning debug log: %w", err)
		}
		logs = append(logs, dl)
	}

	if logs == nil {
		logs = []domain.DebugLog{}
	}

	return logs, nil
}
