// Package schema manages the database schema: embedded migrations, version
// history, validation, and health reporting.
package schema

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// ============================================================================
// Errors
// ============================================================================

var (
	// ErrMigrationFailed indicates a migration could not be applied
	ErrMigrationFailed = errors.New("schema: migration failed")

	// ErrVersionNotFound indicates the requested schema version does not exist
	ErrVersionNotFound = errors.New("schema: version not found")

	// ErrNoRollback indicates the version has no recorded rollback statements
	ErrNoRollback = errors.New("schema: version has no rollback sql")
)

// CurrentVersion is the schema version recorded after a full deployment
const CurrentVersion = "1.0.0"

// Manager deploys and inspects the database schema
type Manager struct {
	pool *pgxpool.Pool
}

// NewManager creates a schema manager on the given pool
func NewManager(pool *pgxpool.Pool) *Manager {
	return &Manager{pool: pool}
}

// MigrationResult is the outcome of one migration during a deploy
type MigrationResult struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // applied, skipped, failed
	Error   string `json:"error,omitempty"`
	Elapsed int64  `json:"elapsed_ms"`
}

// DeployResult summarizes a deployment run
type DeployResult struct {
	Migrations []MigrationResult `json:"migrations"`
	Applied    int               `json:"applied"`
	Skipped    int               `json:"skipped"`
	Version    string            `json:"version"`
}

// Deploy applies all pending migrations in order. Each outcome is recorded
// in schema_migrations; the first failure stops the run.
func (m *Manager) Deploy(ctx context.Context) (*DeployResult, error) {
	if err := m.ensureMigrationTable(ctx); err != nil {
		return nil, err
	}

	names, err := migrationNames()
	if err != nil {
		return nil, err
	}

	applied, err := m.appliedMigrations(ctx)
	if err != nil {
		return nil, err
	}

	result := &DeployResult{Version: CurrentVersion}
	for _, name := range names {
		if applied[name] {
			result.Migrations = append(result.Migrations, MigrationResult{Name: name, Status: "skipped"})
			result.Skipped++
			continue
		}

		start := time.Now()
		if err := m.applyMigration(ctx, name); err != nil {
			result.Migrations = append(result.Migrations, MigrationResult{
				Name:    name,
				Status:  "failed",
				Error:   err.Error(),
				Elapsed: time.Since(start).Milliseconds(),
			})
			return result, fmt.Errorf("%w: %s: %v", ErrMigrationFailed, name, err)
		}
		result.Migrations = append(result.Migrations, MigrationResult{
			Name:    name,
			Status:  "applied",
			Elapsed: time.Since(start).Milliseconds(),
		})
		result.Applied++
	}

	if result.Applied > 0 {
		if err := m.RecordVersion(ctx, CurrentVersion, "Gold schema deployment", "sallyd", ""); err != nil {
			return result, err
		}
	}

	return result, nil
}

// StatusReport describes applied and pending migrations
type StatusReport struct {
	AppliedMigrations []AppliedMigration `json:"applied_migrations"`
	PendingMigrations []string           `json:"pending_migrations"`
	CurrentVersion    string             `json:"current_version"`
}

// AppliedMigration is one row of the migration ledger
type AppliedMigration struct {
	Name      string    `json:"name"`
	AppliedAt time.Time `json:"applied_at"`
	Success   bool      `json:"success"`
	Error     string    `json:"error,omitempty"`
}

// Status reports which migrations have been applied and which are pending
func (m *Manager) Status(ctx context.Context) (*StatusReport, error) {
	if err := m.ensureMigrationTable(ctx); err != nil {
		return nil, err
	}

	rows, err := m.pool.Query(ctx, `
		SELECT migration_name, applied_at, success, COALESCE(error_message, '')
		FROM schema_migrations
		ORDER BY migration_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration ledger: %w", err)
	}
	defer rows.Close()

	report := &StatusReport{}
	seen := map[string]bool{}
	for rows.Next() {
		var am AppliedMigration
		if err := rows.Scan(&am.Name, &am.AppliedAt, &am.Success, &am.Error); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		report.AppliedMigrations = append(report.AppliedMigrations, am)
		if am.Success {
			seen[am.Name] = true
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating migration ledger: %w", err)
	}

	names, err := migrationNames()
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		if !seen[name] {
			report.PendingMigrations = append(report.PendingMigrations, name)
		}
	}

	version, err := m.LatestVersion(ctx)
	if err == nil && version != nil {
		report.CurrentVersion = version.VersionNumber
	}

	return report, nil
}

// ensureMigrationTable creates the migration ledger if missing
func (m *Manager) ensureMigrationTable(ctx context.Context) error {
	_, err := m.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			migration_id   SERIAL PRIMARY KEY,
			migration_name VARCHAR(255) UNIQUE NOT NULL,
			applied_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			success        BOOLEAN NOT NULL DEFAULT TRUE,
			error_message  TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to ensure migration table: %w", err)
	}
	return nil
}

// appliedMigrations returns the set of successfully applied migration names
func (m *Manager) appliedMigrations(ctx context.Context) (map[string]bool, error) {
	rows, err := m.pool.Query(ctx, `SELECT migration_name FROM schema_migrations WHERE success`)
	if err != nil {
		return nil, fmt.Errorf("failed to read applied migrations: %w", err)
	}
	defer rows.Close()

	applied := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan migration name: %w", err)
		}
		applied[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating applied migrations: %w", err)
	}
	return applied, nil
}

// applyMigration runs one migration file inside a transaction and records
// the outcome in the ledger
func (m *Manager) applyMigration(ctx context.Context, name string) error {
	sql, err := migrationFS.ReadFile("migrations/" + name)
	if err != nil {
		return fmt.Errorf("failed to read migration %s: %w", name, err)
	}

	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin migration transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, string(sql)); err != nil {
		// Record the failure outside the aborted transaction.
		_, _ = m.pool.Exec(ctx, `
			INSERT INTO schema_migrations (migration_name, success, error_message)
			VALUES ($1, FALSE, $2)
			ON CONFLICT (migration_name) DO UPDATE SET
				success = FALSE, error_message = EXCLUDED.error_message, applied_at = NOW()
		`, name, err.Error())
		return err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO schema_migrations (migration_name, success)
		VALUES ($1, TRUE)
		ON CONFLICT (migration_name) DO UPDATE SET
			success = TRUE, error_message = NULL, applied_at = NOW()
	`, name); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}
	return nil
}

// migrationNames lists the embedded migration files in apply order
func migrationNames() ([]string, error) {
	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}
