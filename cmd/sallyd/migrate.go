package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sallytsm/sally/schema"
	"github.com/spf13/cobra"
)

var (
	migrateStatus   bool
	migrateValidate bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Deploy pending schema migrations",
	Long: `Applies pending schema migrations in order. Each outcome is recorded in
the schema_migrations ledger; the first failure stops the run.

Use --status to inspect the ledger without changing anything, or
--validate to probe connectivity and DDL permissions first.`,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateStatus, "status", false, "print applied and pending migrations, change nothing")
	migrateCmd.Flags().BoolVar(&migrateValidate, "validate", false, "check the environment without deploying")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.requireDatabase(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	mgr := schema.NewManager(pool)

	if migrateStatus {
		return printMigrationStatus(ctx, mgr)
	}
	if migrateValidate {
		return printValidation(ctx, mgr)
	}

	result, err := mgr.Deploy(ctx)
	if err != nil {
		return err
	}

	for _, m := range result.Migrations {
		switch m.Status {
		case "applied":
			fmt.Printf("  applied  %s (%dms)\n", m.Name, m.Elapsed)
		case "skipped":
			fmt.Printf("  skipped  %s\n", m.Name)
		default:
			fmt.Printf("  failed   %s: %s\n", m.Name, m.Error)
		}
	}
	fmt.Printf("Schema at version %s (%d applied, %d already present)\n",
		result.Version, result.Applied, result.Skipped)
	return nil
}

func printMigrationStatus(ctx context.Context, mgr *schema.Manager) error {
	status, err := mgr.Status(ctx)
	if err != nil {
		return err
	}

	if len(status.AppliedMigrations) == 0 {
		fmt.Println("No migrations applied yet")
	}
	for _, m := range status.AppliedMigrations {
		outcome := "ok"
		if !m.Success {
			outcome = "failed: " + m.Error
		}
		fmt.Printf("  %s  %s  %s\n", m.AppliedAt.Format("2006-01-02 15:04"), m.Name, outcome)
	}
	for _, name := range status.PendingMigrations {
		fmt.Printf("  pending  %s\n", name)
	}
	fmt.Printf("Current version: %s\n", orNone(status.CurrentVersion))
	return nil
}

func printValidation(ctx context.Context, mgr *schema.Manager) error {
	report, err := mgr.Validate(ctx)
	if err != nil {
		return err
	}

	for _, issue := range report.Issues {
		fmt.Printf("  issue    %s\n", issue)
	}
	for _, warning := range report.Warnings {
		fmt.Printf("  warning  %s\n", warning)
	}
	if !report.Valid {
		return fmt.Errorf("environment not ready for deployment")
	}
	fmt.Println("Environment ready for deployment")
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
