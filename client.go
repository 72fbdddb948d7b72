package sally

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sallytsm/sally/analytics"
	"github.com/sallytsm/sally/briefing"
	"github.com/sallytsm/sally/embedding"
	"github.com/sallytsm/sally/hooks"
	"github.com/sallytsm/sally/leadership"
	"github.com/sallytsm/sally/llm"
	"github.com/sallytsm/sally/maintenance"
	"github.com/sallytsm/sally/notifier"
	"github.com/sallytsm/sally/qa"
	"github.com/sallytsm/sally/rag"
	"github.com/sallytsm/sally/report"
	"github.com/sallytsm/sally/scenario"
	"github.com/sallytsm/sally/schema"
	"github.com/sallytsm/sally/settings"
	"github.com/sallytsm/sally/storage"
	"github.com/sallytsm/sally/vecstore"
)

// Version is the current Sally version
const Version = "1.0.0"

// ClientConfig holds configuration for the Client.
type ClientConfig struct {
	// Mode is the starting application mode, "demo" or "production".
	// Default: demo
	Mode string

	// Provider is the default chat provider for the assistant and the
	// brief narrator ("openai", "anthropic", or "gemini").
	// Default: openai
	Provider string

	// Model overrides the provider's default chat model (optional)
	Model string

	// APIKey overrides the provider's environment API key (optional)
	APIKey string

	// EmbeddingProvider selects the embedding backend (optional)
	// One of "openai", "gemini", "anthropic", "local". When empty the
	// chat provider's pairing is used; if that pairing cannot be built
	// the deterministic local model serves as the fallback.
	EmbeddingProvider string

	// InstanceID is a unique identifier for this client instance (optional)
	// If not provided, one is generated
	InstanceID string

	// RunMigrations deploys pending schema migrations during Start
	RunMigrations bool

	// BootstrapRAG ensures the pgvector extension and ingests the built-in
	// knowledge base during Start. Failures are reported through OnError
	// and do not abort startup; the assistant answers without retrieved
	// context until the vector store is usable.
	BootstrapRAG bool

	// MorningHour is the local hour (0-23) the morning brief is due (optional)
	// Default: 7
	MorningHour int

	// EveningHour is the local hour (0-23) the evening summary is due (optional)
	// Default: 19
	EveningHour int

	// BriefCheckInterval is how often the generator checks for due briefs (optional)
	// Default: 15 minutes
	BriefCheckInterval time.Duration

	// LeaderTTL is how long a leadership lease is valid (optional)
	// Default: 30 seconds
	LeaderTTL time.Duration

	// CleanupInterval is how often retention sweeps run when leader (optional)
	// Default: 1 hour
	CleanupInterval time.Duration

	// BriefRetention is how long generated briefs are kept (optional)
	// Default: 90 days
	BriefRetention time.Duration

	// QueryRetention is how long assistant query log rows are kept (optional)
	// Default: 30 days
	QueryRetention time.Duration

	// Logger receives lifecycle messages. Default: log.Default()
	Logger *log.Logger

	// OnError is called when background operations fail
	OnError func(err error)

	// OnBecameLeader is called when this instance becomes the leader
	OnBecameLeader func()

	// OnLostLeadership is called when this instance loses leadership
	OnLostLeadership func()
}

// DefaultClientConfig returns the default client configuration.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		Mode:               settings.ModeDemo,
		Provider:           "openai",
		MorningHour:        briefing.DefaultMorningHour,
		EveningHour:        briefing.DefaultEveningHour,
		BriefCheckInterval: briefing.DefaultCheckInterval,
		LeaderTTL:          leadership.DefaultLeaderTTL,
		CleanupInterval:    maintenance.DefaultCleanupInterval,
		BriefRetention:     maintenance.DefaultBriefRetention,
		QueryRetention:     maintenance.DefaultQueryRetention,
		Logger:             log.Default(),
	}
}

// Client wires the database pool, domain services, and background work
// into one lifecycle. It handles leader election, scheduled brief
// generation, retention sweeps, and hook dispatch.
type Client struct {
	pool       *pgxpool.Pool
	store      storage.Store
	config     *ClientConfig
	instanceID string

	// Providers
	registry *llm.Registry
	embedder embedding.Client

	// Domain services
	schemaMgr *schema.Manager
	vec       *vecstore.Store
	rag       *rag.Service
	qa        *qa.Service
	briefing  *briefing.Service
	analytics *analytics.Service
	scenarios *scenario.Service
	reports   *report.Service
	settings  *settings.Service

	// Hook registry and event bus
	hooks *hooks.Registry
	bus   *notifier.Bus

	// Background services
	elector   *leadership.Elector
	generator *briefing.Generator
	cleanup   *maintenance.Cleanup

	// State
	started  atomic.Bool
	isLeader atomic.Bool

	// Cancellation
	cancel context.CancelFunc
}

// NewClient creates a new Sally client on the given pool.
//
// Example:
//
//	pool, _ := pgxpool.New(ctx, os.Getenv("DATABASE_URL"))
//	client, err := sally.NewClient(pool, &sally.ClientConfig{
//	    Mode:          "demo",
//	    RunMigrations: true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Stop(ctx)
//
//	if err := client.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	brief, err := client.GenerateBrief(ctx, briefing.TypeMorning, time.Now())
func NewClient(pool *pgxpool.Pool, config *ClientConfig) (*Client, error) {
	if pool == nil {
		return nil, fmt.Errorf("%w: database pool is required", ErrInvalidConfig)
	}

	// Apply defaults
	if config == nil {
		config = DefaultClientConfig()
	} else {
		// Apply defaults for zero values
		if config.Mode == "" {
			config.Mode = settings.ModeDemo
		}
		if config.Provider == "" {
			config.Provider = "openai"
		}
		if config.MorningHour == 0 {
			config.MorningHour = briefing.DefaultMorningHour
		}
		if config.EveningHour == 0 {
			config.EveningHour = briefing.DefaultEveningHour
		}
		if config.BriefCheckInterval == 0 {
			config.BriefCheckInterval = briefing.DefaultCheckInterval
		}
		if config.LeaderTTL == 0 {
			config.LeaderTTL = leadership.DefaultLeaderTTL
		}
		if config.CleanupInterval == 0 {
			config.CleanupInterval = maintenance.DefaultCleanupInterval
		}
		if config.BriefRetention == 0 {
			config.BriefRetention = maintenance.DefaultBriefRetention
		}
		if config.QueryRetention == 0 {
			config.QueryRetention = maintenance.DefaultQueryRetention
		}
		if config.Logger == nil {
			config.Logger = log.Default()
		}
	}

	if config.Mode != settings.ModeDemo && config.Mode != settings.ModeProduction {
		return nil, fmt.Errorf("%w: mode must be demo or production, got %q", ErrInvalidConfig, config.Mode)
	}

	// Generate instance ID if not provided
	instanceID := config.InstanceID
	if instanceID == "" {
		instanceID = fmt.Sprintf("sally-%s", uuid.New().String()[:8])
	}

	store := storage.NewPostgresStore(pool)
	registry := llm.NewRegistry()

	// The embedding client pairs with the chat provider unless overridden.
	// Sally must come up without any API keys, so a pairing that cannot be
	// built degrades to the deterministic local model.
	embProvider := config.EmbeddingProvider
	if embProvider == "" {
		embProvider = config.Provider
	}
	embedder, err := embedding.NewClient(embProvider, config.APIKey)
	if err != nil {
		config.Logger.Printf("[Sally] %s embeddings unavailable (%v), using local embeddings", embProvider, err)
		embedder = embedding.NewLocalClient()
	}

	// The narrator and scenario advisor are optional; without a provider
	// key briefs render with no narrative paragraph.
	var narrator llm.ChatClient
	if chat, chatErr := registry.NewChatClient(config.Provider, config.APIKey, config.Model); chatErr == nil {
		narrator = chat
	}

	vec := vecstore.NewStore(pool)
	ragSvc := rag.NewService(vec, embedder, store, nil)

	c := &Client{
		pool:       pool,
		store:      store,
		config:     config,
		instanceID: instanceID,
		registry:   registry,
		embedder:   embedder,
		schemaMgr:  schema.NewManager(pool),
		vec:        vec,
		rag:        ragSvc,
		qa: qa.NewService(store, ragSvc, registry, &qa.Config{
			Provider: config.Provider,
			Model:    config.Model,
			OnError:  config.OnError,
		}),
		briefing: briefing.NewService(store, &briefing.Config{
			Mode:     config.Mode,
			Narrator: narrator,
		}),
		analytics: analytics.NewService(store),
		scenarios: scenario.NewService(&scenario.Config{Advisor: narrator}),
		reports:   report.NewService(store, &report.Config{Mode: config.Mode}),
		settings: settings.NewService(store, &settings.Config{
			Registry:        registry,
			DefaultProvider: config.Provider,
			Mode:            config.Mode,
		}),
		hooks: hooks.NewRegistry(),
		bus:   notifier.NewBus(nil),
	}

	return c, nil
}

// Start begins background operations (event bus, leader election,
// scheduled brief generation). It verifies database connectivity first
// and optionally deploys pending migrations.
func (c *Client) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return ErrClientAlreadyStarted
	}

	// Create cancellable context
	ctx, c.cancel = context.WithCancel(ctx)

	// Verify connectivity before starting anything
	if err := c.store.Ping(ctx); err != nil {
		c.started.Store(false)
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if c.config.RunMigrations {
		result, err := c.schemaMgr.Deploy(ctx)
		if err != nil {
			c.started.Store(false)
			return fmt.Errorf("failed to deploy schema: %w", err)
		}
		if result.Applied > 0 {
			c.config.Logger.Printf("[Sally] Applied %d schema migrations (version %s)", result.Applied, result.Version)
		}
	}

	if c.config.BootstrapRAG {
		if err := c.rag.Bootstrap(ctx); err != nil {
			c.reportError(fmt.Errorf("failed to bootstrap vector store: %w", err))
			c.config.Logger.Printf("[Sally] Vector store unavailable, assistant runs without retrieval: %v", err)
		}
	}

	// Start event bus
	if err := c.bus.Start(ctx); err != nil {
		c.started.Store(false)
		return fmt.Errorf("failed to start event bus: %w", err)
	}

	// Start leader election
	c.elector = leadership.NewElector(c.store, c.instanceID, &leadership.Config{
		LeaderTTL: c.config.LeaderTTL,
	}, leadership.Callbacks{
		OnBecameLeader:   c.onBecameLeader,
		OnLostLeadership: c.onLostLeadership,
		OnError:          c.reportError,
	})
	if err := c.elector.Start(ctx); err != nil {
		_ = c.bus.Stop(ctx) // best-effort cleanup
		c.started.Store(false)
		return fmt.Errorf("failed to start leader election: %w", err)
	}

	// Start scheduled brief generation, gated on leadership
	c.generator = briefing.NewGenerator(c.briefing, &briefing.GeneratorConfig{
		CheckInterval:    c.config.BriefCheckInterval,
		MorningHour:      c.config.MorningHour,
		EveningHour:      c.config.EveningHour,
		IsLeader:         c.elector.IsLeader,
		OnBriefGenerated: c.onBriefGenerated,
		OnError:          c.reportError,
	})
	if err := c.generator.Start(ctx); err != nil {
		_ = c.elector.Stop(ctx) // best-effort cleanup
		_ = c.bus.Stop(ctx)     // best-effort cleanup
		c.started.Store(false)
		return fmt.Errorf("failed to start brief generator: %w", err)
	}

	c.config.Logger.Printf("[Sally] Client started (instance=%s, mode=%s)", c.instanceID, c.briefing.Mode())
	return nil
}

// Stop gracefully shuts down the client.
// It stops all background services in reverse order and resigns
// leadership.
func (c *Client) Stop(ctx context.Context) error {
	if !c.started.Load() {
		return ErrClientNotStarted
	}

	// Cancel background context
	if c.cancel != nil {
		c.cancel()
	}

	// Stop services in reverse order (best-effort, continue on errors)
	if c.generator != nil && c.generator.IsRunning() {
		_ = c.generator.Stop(ctx)
	}

	if c.cleanup != nil && c.cleanup.IsRunning() {
		_ = c.cleanup.Stop(ctx)
	}

	if c.elector != nil {
		_ = c.elector.Stop(ctx)
	}

	if c.bus != nil && c.bus.IsRunning() {
		_ = c.bus.Stop(ctx)
	}

	c.isLeader.Store(false)
	c.started.Store(false)
	c.config.Logger.Printf("[Sally] Client stopped (instance=%s)", c.instanceID)
	return nil
}

// InstanceID returns the unique identifier for this client instance.
func (c *Client) InstanceID() string {
	return c.instanceID
}

// IsLeader returns true if this instance is currently the leader.
func (c *Client) IsLeader() bool {
	return c.isLeader.Load()
}

// IsRunning returns true if the client is running.
func (c *Client) IsRunning() bool {
	return c.started.Load()
}

// Store returns the storage interface for direct access.
func (c *Client) Store() storage.Store {
	return c.store
}

// Pool returns the underlying database pool.
func (c *Client) Pool() *pgxpool.Pool {
	return c.pool
}

// Hooks returns the hook registry for lifecycle callbacks.
func (c *Client) Hooks() *hooks.Registry {
	return c.hooks
}

// Bus returns the in-process event bus feeding the live event stream.
func (c *Client) Bus() *notifier.Bus {
	return c.bus
}

// Providers returns the chat provider registry.
func (c *Client) Providers() *llm.Registry {
	return c.registry
}

// Embedder returns the embedding client in use.
func (c *Client) Embedder() embedding.Client {
	return c.embedder
}

// Schema returns the schema manager.
func (c *Client) Schema() *schema.Manager {
	return c.schemaMgr
}

// VectorStore returns the pgvector document store.
func (c *Client) VectorStore() *vecstore.Store {
	return c.vec
}

// RAG returns the retrieval service.
func (c *Client) RAG() *rag.Service {
	return c.rag
}

// QA returns the question answering service.
func (c *Client) QA() *qa.Service {
	return c.qa
}

// Briefing returns the briefing service.
func (c *Client) Briefing() *briefing.Service {
	return c.briefing
}

// Analytics returns the analytics service.
func (c *Client) Analytics() *analytics.Service {
	return c.analytics
}

// Scenarios returns the scenario service.
func (c *Client) Scenarios() *scenario.Service {
	return c.scenarios
}

// Reports returns the report service.
func (c *Client) Reports() *report.Service {
	return c.reports
}

// Settings returns the settings service.
func (c *Client) Settings() *settings.Service {
	return c.settings
}

// =============================================================================
// Operations
// =============================================================================

// GenerateBrief composes and persists the brief of the given type for the
// given day, dispatching registered hooks around the generation. An error
// from a before-brief hook aborts the generation; after-brief hook errors
// are reported through OnError and do not discard the persisted brief.
func (c *Client) GenerateBrief(ctx context.Context, briefType string, day time.Time) (*briefing.Brief, error) {
	if !c.started.Load() {
		return nil, ErrClientNotStarted
	}

	if err := c.hooks.TriggerBeforeBrief(ctx, briefType, day); err != nil {
		return nil, fmt.Errorf("before-brief hook rejected generation: %w", err)
	}

	brief, err := c.briefing.Generate(ctx, briefType, day)
	if hookErr := c.hooks.TriggerAfterBrief(ctx, briefType, brief, err); hookErr != nil {
		c.reportError(fmt.Errorf("after-brief hook failed: %w", hookErr))
	}
	if err != nil {
		return nil, err
	}

	c.publishBriefEvents(brief)
	return brief, nil
}

// Ask answers a question through the assistant, dispatching registered
// hooks around the call. An error from a before-query hook aborts the
// call; after-query hook errors are reported through OnError.
func (c *Client) Ask(ctx context.Context, req qa.AskRequest) (*qa.Answer, error) {
	if !c.started.Load() {
		return nil, ErrClientNotStarted
	}

	if err := c.hooks.TriggerBeforeQuery(ctx, req.Question); err != nil {
		return nil, fmt.Errorf("before-query hook rejected question: %w", err)
	}

	answer, err := c.qa.Ask(ctx, req)
	if hookErr := c.hooks.TriggerAfterQuery(ctx, req.Question, answer, err); hookErr != nil {
		c.reportError(fmt.Errorf("after-query hook failed: %w", hookErr))
	}
	return answer, err
}

// SwitchMode flips the application between demo and production and
// propagates the mode to the services that compose data.
func (c *Client) SwitchMode(mode string) (settings.ModeStatus, error) {
	status, err := c.settings.SwitchMode(mode)
	if err != nil {
		return status, err
	}

	if err := c.briefing.SetMode(status.Mode); err != nil {
		return status, err
	}
	if err := c.reports.SetMode(status.Mode); err != nil {
		return status, err
	}

	c.publish(notifier.EventModeChanged, fmt.Sprintf(`{"mode":%q}`, status.Mode))
	return status, nil
}

// =============================================================================
// Background callbacks
// =============================================================================

// onBecameLeader is called when this instance becomes the leader.
func (c *Client) onBecameLeader(ctx context.Context) {
	c.isLeader.Store(true)
	c.config.Logger.Printf("[Sally] Instance %s became leader", c.instanceID)

	// Start retention sweeps; only the leader deletes expired rows
	c.cleanup = maintenance.NewCleanup(c.store, &maintenance.CleanupConfig{
		Interval:       c.config.CleanupInterval,
		BriefRetention: c.config.BriefRetention,
		QueryRetention: c.config.QueryRetention,
		OnError:        c.config.OnError,
	})
	if err := c.cleanup.Start(ctx); err != nil {
		c.reportError(fmt.Errorf("failed to start retention cleanup: %w", err))
	}

	c.publish(notifier.EventLeaderChanged,
		fmt.Sprintf(`{"leader_id":%q,"is_leader":true}`, c.instanceID))

	// Call user callback
	if c.config.OnBecameLeader != nil {
		c.config.OnBecameLeader()
	}
}

// onLostLeadership is called when this instance loses leadership.
func (c *Client) onLostLeadership(ctx context.Context) {
	c.isLeader.Store(false)
	c.config.Logger.Printf("[Sally] Instance %s lost leadership", c.instanceID)

	// Stop retention sweeps
	if c.cleanup != nil && c.cleanup.IsRunning() {
		if err := c.cleanup.Stop(ctx); err != nil {
			c.reportError(fmt.Errorf("failed to stop retention cleanup: %w", err))
		}
	}

	c.publish(notifier.EventLeaderChanged,
		fmt.Sprintf(`{"leader_id":%q,"is_leader":false}`, c.instanceID))

	// Call user callback
	if c.config.OnLostLeadership != nil {
		c.config.OnLostLeadership()
	}
}

// onBriefGenerated is called for briefs the scheduler generated. The
// before-brief hooks do not run here; they gate requested generations,
// not the autonomous schedule.
func (c *Client) onBriefGenerated(brief *briefing.Brief) {
	if hookErr := c.hooks.TriggerAfterBrief(context.Background(), brief.Type, brief, nil); hookErr != nil {
		c.reportError(fmt.Errorf("after-brief hook failed: %w", hookErr))
	}
	c.publishBriefEvents(brief)
}

// publishBriefEvents pushes the events a fresh brief implies onto the bus.
func (c *Client) publishBriefEvents(brief *briefing.Brief) {
	briefID := fmt.Sprintf("brief_%s_%s", brief.Type, brief.Date)

	c.publish(notifier.EventBriefGenerated,
		fmt.Sprintf(`{"brief_id":%q,"type":%q,"mode":%q}`, briefID, brief.Type, brief.Mode))

	if brief.Summary.CriticalAlerts > 0 {
		c.publish(notifier.EventQualityEventRaised,
			fmt.Sprintf(`{"source":%q,"critical_alerts":%d}`, briefID, brief.Summary.CriticalAlerts))
	}
	if brief.Summary.DelayedShipments > 0 {
		c.publish(notifier.EventShipmentDelayed,
			fmt.Sprintf(`{"source":%q,"delayed_shipments":%d}`, briefID, brief.Summary.DelayedShipments))
	}
}

// publish sends an event when the bus is running, reporting failures
// instead of propagating them.
func (c *Client) publish(event notifier.EventType, payload string) {
	if c.bus == nil || !c.bus.IsRunning() {
		return
	}
	if err := c.bus.Publish(event, payload); err != nil {
		c.reportError(fmt.Errorf("failed to publish %s event: %w", event, err))
	}
}

func (c *Client) reportError(err error) {
	if c.config.OnError != nil {
		c.config.OnError(err)
	}
}
