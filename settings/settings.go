// Package settings implements the configuration cockpit: connection
// probes for the database, chat providers, and the vector store, plus
// the demo/production mode toggle.
package settings

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sallytsm/sally/llm"
	"github.com/sallytsm/sally/storage"
)

// Application modes
const (
	ModeDemo       = "demo"
	ModeProduction = "production"
)

// ErrInvalidMode indicates a mode outside demo|production
var ErrInvalidMode = errors.New("invalid mode")

// ConnectionTestResult is the outcome of a connectivity probe. Probes
// report failures here rather than as errors so the settings screen can
// render them.
type ConnectionTestResult struct {
	Success   bool           `json:"success"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// ProviderRegistry resolves chat providers for probes. *llm.Registry
// implements this interface.
type ProviderRegistry interface {
	NewChatClient(provider, apiKey, model string) (llm.ChatClient, error)
	List() []*llm.ProviderBundle
}

// Config holds settings service configuration.
type Config struct {
	// Registry resolves chat providers, llm.NewRegistry() when nil
	Registry ProviderRegistry

	// DefaultProvider is preselected in the settings screen, openai
	// when empty
	DefaultProvider string

	// Mode is the starting application mode, demo when empty
	Mode string

	// ConnectTimeout bounds database probes, 10s when zero
	ConnectTimeout time.Duration
}

// Service backs the settings surface.
type Service struct {
	store  storage.Store
	config *Config

	mu   sync.RWMutex
	mode string
}

// NewService creates a settings service. The store may be nil; the
// vector store probe then reports that no database is configured.
func NewService(store storage.Store, config *Config) *Service {
	if config == nil {
		config = &Config{}
	}
	if config.Registry == nil {
		config.Registry = llm.NewRegistry()
	}
	if config.DefaultProvider == "" {
		config.DefaultProvider = "openai"
	}
	if config.Mode == "" {
		config.Mode = ModeDemo
	}
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = 10 * time.Second
	}
	return &Service{store: store, config: config, mode: config.Mode}
}

// ModeStatus describes the current application mode.
type ModeStatus struct {
	Mode       string `json:"mode"`
	IsDemo     bool   `json:"is_demo"`
	Persistent bool   `json:"persistent"`
	Note       string `json:"note,omitempty"`
}

// Mode returns the current application mode.
func (s *Service) Mode() ModeStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ModeStatus{Mode: s.mode, IsDemo: s.mode == ModeDemo}
}

// SwitchMode changes the application mode. The switch lives in process
// memory and resets on restart.
func (s *Service) SwitchMode(mode string) (ModeStatus, error) {
	if mode != ModeDemo && mode != ModeProduction {
		return ModeStatus{}, fmt.Errorf("%w: %q (use demo or production)", ErrInvalidMode, mode)
	}

	s.mu.Lock()
	s.mode = mode
	s.mu.Unlock()

	return ModeStatus{
		Mode:   mode,
		IsDemo: mode == ModeDemo,
		Note:   "mode changes are process local and reset on restart",
	}, nil
}
