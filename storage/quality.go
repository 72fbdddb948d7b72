package storage

import (
	"context"
	"fmt"
	"time"
)

const qualityEventColumns = `event_id, event_type, severity, site_id, product_id, batch_number,
	       description, event_date, resolution_status, resolved_at, corrective_action`

// ListQualityEvents returns quality events matching the given filters, newest first
func (s *PostgresStore) ListQualityEvents(ctx context.Context, params QualityEventListParams) ([]*QualityEvent, error) {
	query := `
		SELECT ` + qualityEventColumns + `
		FROM gold_quality_events
		WHERE 1=1
	`
	args := []any{}
	argNum := 1

	if params.Severity != "" {
		query += fmt.Sprintf(" AND severity = $%d", argNum)
		args = append(args, params.Severity)
		argNum++
	}
	if params.ResolutionStatus != "" {
		query += fmt.Sprintf(" AND resolution_status = $%d", argNum)
		args = append(args, params.ResolutionStatus)
		argNum++
	}
	if params.SiteID != "" {
		query += fmt.Sprintf(" AND site_id = $%d", argNum)
		args = append(args, params.SiteID)
		argNum++
	}

	query += " ORDER BY event_date DESC"

	if params.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, params.Limit)
		argNum++
	}
	if params.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, params.Offset)
	}

	return s.queryQualityEvents(ctx, query, args...)
}

// CriticalOpenEvents returns unresolved critical and high severity events,
// newest first
func (s *PostgresStore) CriticalOpenEvents(ctx context.Context, limit int) ([]*QualityEvent, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `
		SELECT ` + qualityEventColumns + `
		FROM gold_quality_events
		WHERE severity IN ('critical', 'high')
		  AND resolution_status IN ('open', 'investigating')
		ORDER BY event_date DESC
		LIMIT $1
	`

	return s.queryQualityEvents(ctx, query, limit)
}

// EventsResolvedBetween returns events resolved within [from, to)
func (s *PostgresStore) EventsResolvedBetween(ctx context.Context, from, to time.Time) ([]*QualityEvent, error) {
	query := `
		SELECT ` + qualityEventColumns + `
		FROM gold_quality_events
		WHERE resolved_at >= $1 AND resolved_at < $2
		ORDER BY resolved_at DESC
	`

	return s.queryQualityEvents(ctx, query, from, to)
}

// queryQualityEvents runs a quality event query and scans all rows
func (s *PostgresStore) queryQualityEvents(ctx context.Context, query string, args ...any) ([]*QualityEvent, error) {
	rows, err := s.getQuerier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query quality events: %w", err)
	}
	defer rows.Close()

	var events []*QualityEvent
	for rows.Next() {
		ev, err := scanQualityEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quality events: %w", err)
	}

	return events, nil
}
