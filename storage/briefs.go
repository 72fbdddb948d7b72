package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// UpsertBrief inserts a brief or replaces the payload of an existing one.
// Brief IDs are deterministic per type and date so regeneration overwrites.
func (s *PostgresStore) UpsertBrief(ctx context.Context, brief *Brief) error {
	if brief.BriefID == "" {
		return fmt.Errorf("brief_id is required")
	}

	payloadJSON, err := json.Marshal(brief.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal brief payload: %w", err)
	}

	query := `
		INSERT INTO morning_briefs (brief_id, brief_date, brief_type, payload, generated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (brief_id) DO UPDATE SET
			payload = EXCLUDED.payload,
			generated_at = EXCLUDED.generated_at
	`

	_, err = s.getQuerier(ctx).Exec(ctx, query, brief.BriefID, brief.BriefDate, brief.BriefType, payloadJSON)
	if err != nil {
		return fmt.Errorf("failed to upsert brief: %w", err)
	}
	return nil
}

// GetBrief retrieves a brief by ID
func (s *PostgresStore) GetBrief(ctx context.Context, briefID string) (*Brief, error) {
	query := `
		SELECT brief_id, brief_date, brief_type, payload, generated_at
		FROM morning_briefs
		WHERE brief_id = $1
	`

	var brief Brief
	var payloadJSON []byte

	err := s.getQuerier(ctx).QueryRow(ctx, query, briefID).Scan(
		&brief.BriefID, &brief.BriefDate, &brief.BriefType, &payloadJSON, &brief.GeneratedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("%w: brief %s", ErrNotFound, briefID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get brief: %w", err)
	}

	if err := json.Unmarshal(payloadJSON, &brief.Payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal brief payload: %w", err)
	}

	return &brief, nil
}

// ListBriefs returns the most recently generated briefs
func (s *PostgresStore) ListBriefs(ctx context.Context, limit int) ([]*Brief, error) {
	if limit <= 0 {
		limit = 30
	}
	query := `
		SELECT brief_id, brief_date, brief_type, payload, generated_at
		FROM morning_briefs
		ORDER BY generated_at DESC
		LIMIT $1
	`

	rows, err := s.getQuerier(ctx).Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list briefs: %w", err)
	}
	defer rows.Close()

	var briefs []*Brief
	for rows.Next() {
		var brief Brief
		var payloadJSON []byte
		if err := rows.Scan(&brief.BriefID, &brief.BriefDate, &brief.BriefType, &payloadJSON, &brief.GeneratedAt); err != nil {
			return nil, fmt.Errorf("failed to scan brief: %w", err)
		}
		if err := json.Unmarshal(payloadJSON, &brief.Payload); err != nil {
			return nil, fmt.Errorf("failed to unmarshal brief payload: %w", err)
		}
		briefs = append(briefs, &brief)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating briefs: %w", err)
	}

	return briefs, nil
}

// DeleteBriefsBefore removes briefs generated before the cutoff and returns
// the number deleted
func (s *PostgresStore) DeleteBriefsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := s.getQuerier(ctx).Exec(ctx, `DELETE FROM morning_briefs WHERE generated_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old briefs: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// InsertQuery records an answered assistant question in the audit log
func (s *PostgresStore) InsertQuery(ctx context.Context, q *AssistantQuery) error {
	sourcesJSON, err := json.Marshal(q.Sources)
	if err != nil {
		return fmt.Errorf("failed to marshal query sources: %w", err)
	}

	query := `
		INSERT INTO rag_queries (query_id, question, answer, sql_generated, provider, model,
		                         confidence, tokens_used, latency_ms, sources, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
	`

	_, err = s.getQuerier(ctx).Exec(ctx, query,
		q.QueryID, q.Question, q.Answer, q.SQLGenerated, q.Provider, q.Model,
		q.Confidence, q.TokensUsed, q.LatencyMs, sourcesJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to insert query log: %w", err)
	}
	return nil
}

// ListQueries returns the most recent assistant queries
func (s *PostgresStore) ListQueries(ctx context.Context, limit int) ([]*AssistantQuery, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT query_id, question, answer, sql_generated, provider, model, confidence,
		       tokens_used, latency_ms, sources, helpful, created_at
		FROM rag_queries
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := s.getQuerier(ctx).Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list queries: %w", err)
	}
	defer rows.Close()

	var queries []*AssistantQuery
	for rows.Next() {
		var q AssistantQuery
		var sourcesJSON []byte
		if err := rows.Scan(
			&q.QueryID, &q.Question, &q.Answer, &q.SQLGenerated, &q.Provider, &q.Model,
			&q.Confidence, &q.TokensUsed, &q.LatencyMs, &sourcesJSON, &q.Helpful, &q.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan query log row: %w", err)
		}
		if len(sourcesJSON) > 0 {
			if err := json.Unmarshal(sourcesJSON, &q.Sources); err != nil {
				return nil, fmt.Errorf("failed to unmarshal query sources: %w", err)
			}
		}
		queries = append(queries, &q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating query log: %w", err)
	}

	return queries, nil
}

// CountQueries returns the total number of logged assistant queries
func (s *PostgresStore) CountQueries(ctx context.Context) (int, error) {
	var count int
	err := s.getQuerier(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM rag_queries`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count queries: %w", err)
	}
	return count, nil
}

// SetQueryFeedback records whether an answer was helpful
func (s *PostgresStore) SetQueryFeedback(ctx context.Context, queryID string, helpful bool) error {
	tag, err := s.getQuerier(ctx).Exec(ctx,
		`UPDATE rag_queries SET helpful = $1 WHERE query_id = $2`, helpful, queryID)
	if err != nil {
		return fmt.Errorf("failed to set query feedback: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: query %s", ErrNotFound, queryID)
	}
	return nil
}

// DeleteQueriesBefore removes query log rows older than the cutoff and
// returns the number deleted
func (s *PostgresStore) DeleteQueriesBefore(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := s.getQuerier(ctx).Exec(ctx, `DELETE FROM rag_queries WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old queries: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
