package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// daemonConfig is the sallyd configuration. Values resolve in order:
// built-in defaults, then the YAML file, then environment variables,
// then command-line flags.
type daemonConfig struct {
	DatabaseURL string `yaml:"database_url"`

	// Mode is the starting application mode, "demo" or "production"
	Mode string `yaml:"mode"`

	// Provider is the default chat provider ("openai", "anthropic", "gemini")
	Provider string `yaml:"provider"`

	// Model overrides the provider's default chat model
	Model string `yaml:"model"`

	// EmbeddingProvider selects the embedding backend; empty pairs it
	// with the chat provider
	EmbeddingProvider string `yaml:"embedding_provider"`

	// Listen is the address the HTTP server binds to
	Listen string `yaml:"listen"`

	// BasePath is the URL prefix the dashboard is mounted under
	BasePath string `yaml:"base_path"`

	// Title is shown in the dashboard header
	Title string `yaml:"title"`

	// ReadOnly disables writes through the HTTP surface
	ReadOnly bool `yaml:"read_only"`

	// RunMigrations deploys pending schema migrations on startup
	RunMigrations bool `yaml:"run_migrations"`

	// BootstrapRAG ingests the built-in knowledge base on startup
	BootstrapRAG bool `yaml:"bootstrap_rag"`

	// MorningHour and EveningHour are the local hours scheduled briefs
	// are due
	MorningHour int `yaml:"morning_hour"`
	EveningHour int `yaml:"evening_hour"`
}

func defaultDaemonConfig() *daemonConfig {
	return &daemonConfig{
		Mode:          "demo",
		Provider:      "openai",
		Listen:        ":8000",
		Title:         "Sally TSM",
		RunMigrations: true,
		BootstrapRAG:  true,
		MorningHour:   7,
		EveningHour:   19,
	}
}

// loadConfig resolves the daemon configuration from the optional YAML
// file and the environment. A missing file at the default location is
// fine; a missing file named explicitly with --config is an error.
func loadConfig(path string) (*daemonConfig, error) {
	cfg := defaultDaemonConfig()

	explicit := path != ""
	if path == "" {
		path = "sally.yaml"
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case os.IsNotExist(err) && !explicit:
		// No config file, run on defaults and environment
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()

	if databaseURL != "" {
		cfg.DatabaseURL = databaseURL
	}

	return cfg, nil
}

func (c *daemonConfig) applyEnvOverrides() {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("APPLICATION_MODE"); v != "" {
		c.Mode = v
	}
	if v := os.Getenv("PORT"); v != "" {
		c.Listen = ":" + v
	}
}

func (c *daemonConfig) requireDatabase() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("no database configured: set DATABASE_URL, database_url in the config file, or --database-url")
	}
	return nil
}
