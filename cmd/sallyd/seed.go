package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sallytsm/sally/embedding"
	"github.com/sallytsm/sally/rag"
	"github.com/sallytsm/sally/schema"
	"github.com/sallytsm/sally/storage"
	"github.com/sallytsm/sally/vecstore"
	"github.com/spf13/cobra"
)

var (
	seedNoMigrate bool
	seedNoRAG     bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the demo data set",
	Long: `Loads the demo fixture set: two studies, six sites, depots, vendors,
inventory, shipments in flight, quality events, and temperature logs. All
statements upsert, so reseeding is safe.

Pending schema migrations are deployed first and the built-in knowledge
base is ingested into the vector store, unless skipped with --no-migrate
or --no-rag.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().BoolVar(&seedNoMigrate, "no-migrate", false, "do not deploy schema migrations first")
	seedCmd.Flags().BoolVar(&seedNoRAG, "no-rag", false, "do not ingest the knowledge base")
}

func runSeed(cmd *cobra.Command, args []string) error {
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

	if !seedNoMigrate {
		result, err := schema.NewManager(pool).Deploy(ctx)
		if err != nil {
			return fmt.Errorf("failed to deploy schema: %w", err)
		}
		fmt.Printf("Schema at version %s (%d applied)\n", result.Version, result.Applied)
	}

	store := storage.NewPostgresStore(pool)
	if err := store.SeedDemoData(ctx); err != nil {
		return fmt.Errorf("failed to seed demo data: %w", err)
	}
	fmt.Println("Demo data loaded")

	if seedNoRAG {
		return nil
	}

	provider := cfg.EmbeddingProvider
	if provider == "" {
		provider = cfg.Provider
	}
	embedder, err := embedding.NewClient(provider, "")
	if err != nil {
		logger.Printf("[Sally] %s embeddings unavailable (%v), using local embeddings", provider, err)
		embedder = embedding.NewLocalClient()
	}

	svc := rag.NewService(vecstore.NewStore(pool), embedder, store, nil)
	if err := svc.Bootstrap(ctx); err != nil {
		return fmt.Errorf("failed to bootstrap knowledge base: %w", err)
	}

	stats, err := svc.VectorStats(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Knowledge base ready (%d documents in %s)\n", stats.TotalDocuments, svc.Collection())
	return nil
}
