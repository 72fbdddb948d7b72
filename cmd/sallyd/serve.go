package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sallytsm/sally"
	"github.com/sallytsm/sally/ui"
	"github.com/spf13/cobra"
)

var (
	serveListen      string
	serveBasePath    string
	serveTitle       string
	serveReadOnly    bool
	serveMode        string
	serveProvider    string
	serveModel       string
	serveEmbedding   string
	serveNoMigrate   bool
	serveNoRAG       bool
	serveMorningHour int
	serveEveningHour int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the API server and dashboard",
	Long: `Starts the Sally backend: deploys pending schema migrations (unless
--no-migrate), starts leader election, scheduled brief generation, and
retention sweeps, and serves the JSON API under /api/ with the dashboard
at /.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "address to listen on (default :8000, or PORT env)")
	serveCmd.Flags().StringVar(&serveBasePath, "base-path", "", "URL prefix the dashboard is mounted under")
	serveCmd.Flags().StringVar(&serveTitle, "title", "", "dashboard title")
	serveCmd.Flags().BoolVar(&serveReadOnly, "read-only", false, "disable writes through the HTTP surface")
	serveCmd.Flags().StringVar(&serveMode, "mode", "", "application mode: demo or production")
	serveCmd.Flags().StringVar(&serveProvider, "provider", "", "default chat provider: openai, anthropic, or gemini")
	serveCmd.Flags().StringVar(&serveModel, "model", "", "chat model override")
	serveCmd.Flags().StringVar(&serveEmbedding, "embedding-provider", "", "embedding backend: openai, gemini, anthropic, or local")
	serveCmd.Flags().BoolVar(&serveNoMigrate, "no-migrate", false, "skip schema migrations on startup")
	serveCmd.Flags().BoolVar(&serveNoRAG, "no-rag", false, "skip knowledge base bootstrap on startup")
	serveCmd.Flags().IntVar(&serveMorningHour, "morning-hour", 0, "local hour the morning brief is due")
	serveCmd.Flags().IntVar(&serveEveningHour, "evening-hour", 0, "local hour the evening summary is due")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	applyServeFlags(cmd, cfg)

	if err := cfg.requireDatabase(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

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
		RunMigrations:     cfg.RunMigrations,
		BootstrapRAG:      cfg.BootstrapRAG,
		MorningHour:       cfg.MorningHour,
		EveningHour:       cfg.EveningHour,
		Logger:            logger,
		OnError: func(err error) {
			logger.Printf("[Sally] background error: %v", err)
		},
	})
	if err != nil {
		return err
	}

	if err := client.Start(ctx); err != nil {
		return err
	}

	handler := ui.NewHandler(client, &ui.Config{
		BasePath: cfg.BasePath,
		Title:    cfg.Title,
		ReadOnly: cfg.ReadOnly,
		Logger:   slog.New(slog.NewTextHandler(os.Stderr, nil)),
	})

	mux := http.NewServeMux()
	if cfg.BasePath != "" {
		mux.Handle(cfg.BasePath+"/", http.StripPrefix(cfg.BasePath, handler))
	} else {
		mux.Handle("/", handler)
	}

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("[Sally] Serving on %s (mode=%s, instance=%s)", cfg.Listen, cfg.Mode, client.InstanceID())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case sig := <-sigCh:
		logger.Printf("[Sally] Received %s, shutting down", sig)
	case err := <-errCh:
		logger.Printf("[Sally] Server error: %v", err)
		stopClient(client)
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("[Sally] HTTP shutdown: %v", err)
	}

	stopClient(client)
	return nil
}

func applyServeFlags(cmd *cobra.Command, cfg *daemonConfig) {
	flags := cmd.Flags()
	if flags.Changed("listen") {
		cfg.Listen = serveListen
	}
	if flags.Changed("base-path") {
		cfg.BasePath = serveBasePath
	}
	if flags.Changed("title") {
		cfg.Title = serveTitle
	}
	if flags.Changed("read-only") {
		cfg.ReadOnly = serveReadOnly
	}
	if flags.Changed("mode") {
		cfg.Mode = serveMode
	}
	if flags.Changed("provider") {
		cfg.Provider = serveProvider
	}
	if flags.Changed("model") {
		cfg.Model = serveModel
	}
	if flags.Changed("embedding-provider") {
		cfg.EmbeddingProvider = serveEmbedding
	}
	if serveNoMigrate {
		cfg.RunMigrations = false
	}
	if serveNoRAG {
		cfg.BootstrapRAG = false
	}
	if flags.Changed("morning-hour") {
		cfg.MorningHour = serveMorningHour
	}
	if flags.Changed("evening-hour") {
		cfg.EveningHour = serveEveningHour
	}
}

func stopClient(client *sally.Client) {
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()
	if err := client.Stop(stopCtx); err != nil {
		logger.Printf("[Sally] Client stop: %v", err)
	}
}
