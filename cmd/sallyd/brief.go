package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sallytsm/sally"
	"github.com/sallytsm/sally/briefing"
	"github.com/spf13/cobra"
)

var (
	briefDate string
	briefJSON bool
)

var briefCmd = &cobra.Command{
	Use:   "brief [morning|evening]",
	Short: "Generate a brief on demand",
	Long: `Composes and persists a morning brief or evening summary for the given
day, outside the normal schedule. The generated brief lands in the same
table the scheduler writes to, so the dashboard picks it up.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBrief,
}

func init() {
	briefCmd.Flags().StringVar(&briefDate, "date", "", "brief day as YYYY-MM-DD (default today)")
	briefCmd.Flags().BoolVar(&briefJSON, "json", false, "print the full brief as JSON")
}

func runBrief(cmd *cobra.Command, args []string) error {
	briefType := briefing.TypeMorning
	if len(args) == 1 {
		briefType = args[0]
	}
	if briefType != briefing.TypeMorning && briefType != briefing.TypeEvening {
		return fmt.Errorf("unknown brief type %q: expected morning or evening", briefType)
	}

	day := time.Now()
	if briefDate != "" {
		parsed, err := time.ParseInLocation("2006-01-02", briefDate, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", briefDate)
		}
		day = parsed
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.requireDatabase(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	client, err := sally.NewClient(pool, &sally.ClientConfig{
		Mode:              cfg.Mode,
		Provider:          cfg.Provider,
		Model:             cfg.Model,
		EmbeddingProvider: cfg.EmbeddingProvider,
		Logger:            logger,
	})
	if err != nil {
		return err
	}

	if err := client.Start(ctx); err != nil {
		return err
	}
	defer stopClient(client)

	brief, err := client.GenerateBrief(ctx, briefType, day)
	if err != nil {
		return err
	}

	if briefJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(brief)
	}

	fmt.Printf("%s brief for %s (%s mode)\n", brief.Type, brief.Date, brief.Mode)
	fmt.Printf("  critical alerts:    %d\n", brief.Summary.CriticalAlerts)
	fmt.Printf("  sites low on stock: %d\n", brief.Summary.SitesLowOnStock)
	fmt.Printf("  active shipments:   %d (%d delayed)\n", brief.Summary.ActiveShipments, brief.Summary.DelayedShipments)
	fmt.Printf("  enrollment:         %.1f%%\n", brief.Summary.EnrollmentPercent)
	fmt.Printf("  on-time delivery:   %.1f%%\n", brief.Summary.OnTimeDeliveryRate)
	if brief.Narrative != "" {
		fmt.Printf("\n%s\n", brief.Narrative)
	}
	return nil
}
