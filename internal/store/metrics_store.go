package store

import (
	"context"
	"fmt"
)

// PipelineMetrics holds aggregated ingestion statistics.
type PipelineMetrics struct {
	TotalTenants      int `json:"total_tenants"`
	ConfiguredTenants int `json:"configured_tenants"`
	FailedEvents      int `json:"failed_events"`
	FailedLast24h     int `json:"failed_last_24h"`
	PendingRetries    int `json:"pending_retries"`
	ProcessedEvents   int `json:"processed_events"`
}

// GetPipelineMetrics returns aggregated pipeline statistics from the
// database. Processed events are counted from the debug log, which gets
// exactly one entry per completed proceed-path run.
func (s *PostgresStore) GetPipelineMetrics(ctx context.Context) (*PipelineMetrics, error) {
	var m PipelineMetrics

	total, configured, err := s.CountTenants(ctx)
	if err != nil {
		return nil, err
	}
	m.TotalTenants = total
	m.ConfiguredTenants = configured

	err = s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE created_at > NOW() - INTERVAL '24 hours'),
		       COUNT(*) FILTER (WHERE retry_count = 0)
		FROM failed_events
	`).Scan(&m.FailedEvents, &m.FailedLast24h, &m.PendingRetries)
	if err != nil {
		return nil, fmt.Errorf("querying failed event metrics: %w", err)
	}

	err = s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM debug_logs WHERE level = 'info'
	`).Scan(&m.ProcessedEvents)
	if err != nil {
		return nil, fmt.Errorf("querying processed event count: %w", err)
	}

	return &m, nil
}
