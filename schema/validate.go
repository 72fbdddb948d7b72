package schema

import (
	"context"
	"fmt"
)

// coreTables are the tables a healthy deployment must contain
var coreTables = []string{
	"gold_global_studies",
	"gold_clinical_sites",
	"gold_subjects",
	"gold_clinical_products",
	"gold_regional_depots",
	"gold_global_vendors",
	"gold_inventory",
	"gold_shipments",
	"gold_quality_events",
	"gold_temperature_logs",
	"rag_queries",
	"morning_briefs",
	"schema_versions",
}

// ValidationReport is the result of a pre-deployment environment check
type ValidationReport struct {
	Valid    bool     `json:"valid"`
	Issues   []string `json:"issues"`
	Warnings []string `json:"warnings"`
}

// Validate checks that the database is reachable, reports tables that already
// exist, and probes for DDL permissions with a throwaway table. Issues make
// the report invalid; warnings do not.
func (m *Manager) Validate(ctx context.Context) (*ValidationReport, error) {
	report := &ValidationReport{Valid: true, Issues: []string{}, Warnings: []string{}}

	var one int
	if err := m.pool.QueryRow(ctx, `SELECT 1`).Scan(&one); err != nil {
		report.Valid = false
		report.Issues = append(report.Issues, fmt.Sprintf("cannot connect to database: %v", err))
		return report, nil
	}

	existing, err := m.existingTables(ctx)
	if err != nil {
		report.Valid = false
		report.Issues = append(report.Issues, fmt.Sprintf("cannot inspect schema: %v", err))
		return report, nil
	}
	for _, table := range coreTables {
		if existing[table] {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("table %s already exists and will be reused", table))
		}
	}

	if _, err := m.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS _sally_perm_check (id INT)`); err != nil {
		report.Valid = false
		report.Issues = append(report.Issues, fmt.Sprintf("missing CREATE TABLE permission: %v", err))
		return report, nil
	}
	if _, err := m.pool.Exec(ctx, `DROP TABLE IF EXISTS _sally_perm_check`); err != nil {
		report.Warnings = append(report.Warnings, fmt.Sprintf("could not drop probe table: %v", err))
	}

	return report, nil
}

func (m *Manager) existingTables(ctx context.Context) (map[string]bool, error) {
	rows, err := m.pool.Query(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public'
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	tables := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}
	return tables, nil
}
