package schema

import (
	"context"
	"fmt"
	"time"
)

// HealthReport summarizes the physical state of the deployed schema
type HealthReport struct {
	Connected      bool      `json:"connected"`
	TableCount     int       `json:"table_count"`
	IndexCount     int       `json:"index_count"`
	TotalSizeMB    float64   `json:"total_size_mb"`
	DatabaseSizeMB float64   `json:"database_size_mb"`
	CheckedAt      time.Time `json:"checked_at"`
	Error          string    `json:"error,omitempty"`
}

// Health inspects table, index, and size statistics for the public schema
func (m *Manager) Health(ctx context.Context) (*HealthReport, error) {
	report := &HealthReport{CheckedAt: time.Now().UTC()}

	var one int
	if err := m.pool.QueryRow(ctx, `SELECT 1`).Scan(&one); err != nil {
		report.Error = err.Error()
		return report, nil
	}
	report.Connected = true

	err := m.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(pg_total_relation_size(quote_ident(table_name)::regclass)), 0)::float8
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
	`).Scan(&report.TableCount, &report.TotalSizeMB)
	if err != nil {
		return nil, fmt.Errorf("failed to read table stats: %w", err)
	}
	report.TotalSizeMB = report.TotalSizeMB / (1024 * 1024)

	err = m.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM pg_indexes WHERE schemaname = 'public'
	`).Scan(&report.IndexCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count indexes: %w", err)
	}

	err = m.pool.QueryRow(ctx, `
		SELECT pg_database_size(current_database())::float8
	`).Scan(&report.DatabaseSizeMB)
	if err != nil {
		return nil, fmt.Errorf("failed to read database size: %w", err)
	}
	report.DatabaseSizeMB = report.DatabaseSizeMB / (1024 * 1024)

	return report, nil
}
