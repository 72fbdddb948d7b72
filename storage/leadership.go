package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// LeaderAttemptElect attempts to take the named lease. The attempt succeeds
// when the lease is unclaimed, has expired, or is already held by this
// instance.
func (s *PostgresStore) LeaderAttemptElect(ctx context.Context, params *LeaderElectParams) (bool, error) {
	now := time.Now()
	expiresAt := now.Add(params.TTL)

	query := `
		INSERT INTO sally_leadership (name, leader_id, elected_at, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET
			leader_id = EXCLUDED.leader_id,
			elected_at = EXCLUDED.elected_at,
			expires_at = EXCLUDED.expires_at
		WHERE sally_leadership.expires_at < NOW()
		   OR sally_leadership.leader_id = EXCLUDED.leader_id
	`

	tag, err := s.getQuerier(ctx).Exec(ctx, query, params.Name, params.LeaderID, now, expiresAt)
	if err != nil {
		return false, fmt.Errorf("failed to attempt election: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// LeaderAttemptReelect renews the lease if this instance still holds it.
// elected_at is left untouched so it records when the current tenure began.
func (s *PostgresStore) LeaderAttemptReelect(ctx context.Context, params *LeaderElectParams) (bool, error) {
	expiresAt := time.Now().Add(params.TTL)

	query := `
		UPDATE sally_leadership
		SET expires_at = $3
		WHERE name = $1 AND leader_id = $2
	`

	tag, err := s.getQuerier(ctx).Exec(ctx, query, params.Name, params.LeaderID, expiresAt)
	if err != nil {
		return false, fmt.Errorf("failed to attempt reelection: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// LeaderResign releases the named lease if this instance holds it.
func (s *PostgresStore) LeaderResign(ctx context.Context, name, leaderID string) error {
	query := `DELETE FROM sally_leadership WHERE name = $1 AND leader_id = $2`

	_, err := s.getQuerier(ctx).Exec(ctx, query, name, leaderID)
	if err != nil {
		return fmt.Errorf("failed to resign leadership: %w", err)
	}

	return nil
}

// CurrentLeader returns the unexpired holder of the named lease, or nil
// when the lease is free.
func (s *PostgresStore) CurrentLeader(ctx context.Context, name string) (*Leader, error) {
	query := `
		SELECT name, leader_id, elected_at, expires_at
		FROM sally_leadership
		WHERE name = $1 AND expires_at > NOW()
	`

	var leader Leader
	err := s.getQuerier(ctx).QueryRow(ctx, query, name).Scan(
		&leader.Name, &leader.LeaderID, &leader.ElectedAt, &leader.ExpiresAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get current leader: %w", err)
	}

	return &leader, nil
}
