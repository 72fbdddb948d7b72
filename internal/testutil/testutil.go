// Package testutil provides test utilities for the supply-management backend
package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TestDB wraps a PostgreSQL connection pool for testing
type TestDB struct {
	Pool *pgxpool.Pool
}

// NewTestDB creates a test database connection from DATABASE_URL env var
// Returns nil if DATABASE_URL is not set (for unit tests)
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Fatalf("Failed to ping database: %v", err)
	}

	return &TestDB{Pool: pool}
}

// Close closes the database connection
func (db *TestDB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// CleanTables truncates all tables for test isolation
func (db *TestDB) CleanTables(ctx context.Context) error {
	tables := []string{
		"gold_temperature_logs",
		"gold_quality_events",
		"gold_shipments",
		"gold_inventory",
		"gold_subjects",
		"gold_clinical_products",
		"gold_clinical_sites",
		"gold_global_studies",
		"gold_regional_depots",
		"gold_global_vendors",
		"rag_queries",
		"morning_briefs",
		"sally_leadership",
	}

	for _, table := range tables {
		_, err := db.Pool.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		if err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
	}

	// vector_embeddings only exists when the pgvector extension is available
	var exists bool
	err := db.Pool.QueryRow(ctx, "SELECT to_regclass('vector_embeddings') IS NOT NULL").Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check vector_embeddings: %w", err)
	}
	if exists {
		if _, err := db.Pool.Exec(ctx, "TRUNCATE TABLE vector_embeddings CASCADE"); err != nil {
			return fmt.Errorf("failed to truncate vector_embeddings: %w", err)
		}
	}

	return nil
}

// SeedMinimalStudy inserts one study, site, and product so foreign keys
// resolve, returning the study ID
func (db *TestDB) SeedMinimalStudy(ctx context.Context, t *testing.T) string {
	t.Helper()

	_, err := db.Pool.Exec(ctx, `
		INSERT INTO gold_global_studies (study_id, study_name, protocol_number, phase,
			therapeutic_area, status, target_enrollment, current_enrollment,
			created_at, updated_at)
		VALUES ('STUDY-T01', 'Test Study', 'TST-001', 'Phase II', 'Testing', 'active',
			100, 40, NOW(), NOW())
		ON CONFLICT (study_id) DO NOTHING
	`)
	if err != nil {
		t.Fatalf("Failed to seed test study: %v", err)
	}

	_, err = db.Pool.Exec(ctx, `
		INSERT INTO gold_clinical_sites (site_id, study_id, site_name, site_number,
			country, city, status, target_enrollment, current_enrollment,
			performance_score, risk_score, created_at, updated_at)
		VALUES ('SITE-T01', 'STUDY-T01', 'Test Site', '9001', 'United States', 'Testville',
			'active', 50, 20, 0.8, 0.2, NOW(), NOW())
		ON CONFLICT (site_id) DO NOTHING
	`)
	if err != nil {
		t.Fatalf("Failed to seed test site: %v", err)
	}

	_, err = db.Pool.Exec(ctx, `
		INSERT INTO gold_clinical_products (product_id, study_id, product_name,
			product_type, dosage_form, strength, storage_conditions,
			shelf_life_months, unit_cost, requires_cold_chain)
		VALUES ('PROD-T01', 'STUDY-T01', 'Test Product', 'investigational', 'tablet',
			'10mg', '15-25C', 24, 10.0, FALSE)
		ON CONFLICT (product_id) DO NOTHING
	`)
	if err != nil {
		t.Fatalf("Failed to seed test product: %v", err)
	}

	return "STUDY-T01"
}

// RequireIntegration skips the test if not running integration tests
func RequireIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("Skipping integration test: DATABASE_URL not set")
	}
}
