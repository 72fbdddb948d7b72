package schema

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/jackc/pgx/v5"
)

// SchemaVersion is one entry in the version history
type SchemaVersion struct {
	VersionID     int       `json:"version_id"`
	VersionNumber string    `json:"version_number"`
	Description   string    `json:"description"`
	AppliedAt     time.Time `json:"applied_at"`
	AppliedBy     string    `json:"applied_by"`
	RollbackSQL   string    `json:"-"`
}

// RecordVersion appends a version entry to the history. rollbackSQL may be
// empty when the version cannot be reverted.
func (m *Manager) RecordVersion(ctx context.Context, version, description, appliedBy, rollbackSQL string) error {
	if _, err := semver.NewVersion(version); err != nil {
		return fmt.Errorf("invalid version %q: %w", version, err)
	}
	_, err := m.pool.Exec(ctx, `
		INSERT INTO schema_versions (version_number, description, applied_by, rollback_sql)
		VALUES ($1, $2, $3, NULLIF($4, ''))
	`, version, description, appliedBy, rollbackSQL)
	if err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return nil
}

// LatestVersion returns the highest semantic version in the history, or nil
// when no version has been recorded yet
func (m *Manager) LatestVersion(ctx context.Context) (*SchemaVersion, error) {
	versions, err := m.listVersions(ctx)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, nil
	}

	sort.Slice(versions, func(i, j int) bool {
		vi, ei := semver.NewVersion(versions[i].VersionNumber)
		vj, ej := semver.NewVersion(versions[j].VersionNumber)
		if ei != nil || ej != nil {
			return versions[i].VersionNumber < versions[j].VersionNumber
		}
		return vi.LessThan(vj)
	})
	return versions[len(versions)-1], nil
}

// VersionHistory summarizes the recorded schema versions
type VersionHistory struct {
	TotalVersions   int              `json:"total_versions"`
	CurrentVersion  string           `json:"current_version"`
	FirstDeployment *time.Time       `json:"first_deployment,omitempty"`
	LastDeployment  *time.Time       `json:"last_deployment,omitempty"`
	Versions        []*SchemaVersion `json:"versions"`
}

// History returns the full version history, newest first
func (m *Manager) History(ctx context.Context) (*VersionHistory, error) {
	versions, err := m.listVersions(ctx)
	if err != nil {
		return nil, err
	}

	history := &VersionHistory{
		TotalVersions: len(versions),
		Versions:      versions,
	}
	if len(versions) == 0 {
		return history, nil
	}

	sort.Slice(versions, func(i, j int) bool {
		return versions[i].AppliedAt.After(versions[j].AppliedAt)
	})
	first := versions[len(versions)-1].AppliedAt
	last := versions[0].AppliedAt
	history.FirstDeployment = &first
	history.LastDeployment = &last

	latest, err := m.LatestVersion(ctx)
	if err == nil && latest != nil {
		history.CurrentVersion = latest.VersionNumber
	}
	return history, nil
}

// Rollback executes the stored rollback statements for a version and removes
// it from the history
func (m *Manager) Rollback(ctx context.Context, version string) error {
	var sv SchemaVersion
	var rollback *string
	err := m.pool.QueryRow(ctx, `
		SELECT version_id, version_number, rollback_sql
		FROM schema_versions
		WHERE version_number = $1
		ORDER BY version_id DESC
		LIMIT 1
	`, version).Scan(&sv.VersionID, &sv.VersionNumber, &rollback)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrVersionNotFound, version)
	}
	if err != nil {
		return fmt.Errorf("failed to look up version: %w", err)
	}
	if rollback == nil || *rollback == "" {
		return fmt.Errorf("%w: %s", ErrNoRollback, version)
	}

	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin rollback transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, *rollback); err != nil {
		return fmt.Errorf("failed to execute rollback for %s: %w", version, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM schema_versions WHERE version_id = $1`, sv.VersionID); err != nil {
		return fmt.Errorf("failed to remove version record: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit rollback: %w", err)
	}
	return nil
}

func (m *Manager) listVersions(ctx context.Context) ([]*SchemaVersion, error) {
	rows, err := m.pool.Query(ctx, `
		SELECT version_id, version_number, COALESCE(description, ''),
		       applied_at, COALESCE(applied_by, ''), COALESCE(rollback_sql, '')
		FROM schema_versions
		ORDER BY version_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list schema versions: %w", err)
	}
	defer rows.Close()

	var versions []*SchemaVersion
	for rows.Next() {
		var sv SchemaVersion
		if err := rows.Scan(&sv.VersionID, &sv.VersionNumber, &sv.Description,
			&sv.AppliedAt, &sv.AppliedBy, &sv.RollbackSQL); err != nil {
			return nil, fmt.Errorf("failed to scan schema version: %w", err)
		}
		versions = append(versions, &sv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schema versions: %w", err)
	}
	return versions, nil
}
