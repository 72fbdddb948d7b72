// Package maintenance provides background retention sweeping for stored
// briefs and the assistant query log. The cleanup service is intended to
// run on the leader instance only.
package maintenance

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sallytsm/sally/storage"
)

// Default cleanup configuration values
const (
	DefaultCleanupInterval = 1 * time.Hour
	DefaultBriefRetention  = 90 * 24 * time.Hour
	DefaultQueryRetention  = 30 * 24 * time.Hour
)

// CleanupConfig holds configuration for the cleanup service.
type CleanupConfig struct {
	// Interval is how often to run retention sweeps.
	// Default: 1 hour
	Interval time.Duration

	// BriefRetention is how long generated briefs are kept.
	// Default: 90 days
	BriefRetention time.Duration

	// QueryRetention is how long assistant query log rows are kept.
	// Default: 30 days
	QueryRetention time.Duration

	// OnBriefsDeleted is called when expired briefs are removed.
	// The count is the number of briefs that were deleted.
	OnBriefsDeleted func(count int)

	// OnQueriesDeleted is called when expired query log rows are removed.
	// The count is the number of rows that were deleted.
	OnQueriesDeleted func(count int)

	// OnError is called when a sweep operation fails.
	OnError func(err error)
}

// DefaultCleanupConfig returns the default cleanup configuration.
func DefaultCleanupConfig() *CleanupConfig {
	return &CleanupConfig{
		Interval:       DefaultCleanupInterval,
		BriefRetention: DefaultBriefRetention,
		QueryRetention: DefaultQueryRetention,
	}
}

// CleanupResult holds the results of a retention sweep.
type CleanupResult struct {
	// BriefsDeleted is the number of expired briefs removed.
	BriefsDeleted int

	// QueriesDeleted is the number of expired query log rows removed.
	QueriesDeleted int

	// Errors contains any errors that occurred during the sweep.
	Errors []error
}

// Cleanup sweeps expired briefs and query log rows on an interval.
// This should only be run by the leader instance.
type Cleanup struct {
	store  storage.Store
	config *CleanupConfig

	started atomic.Bool
	done    chan struct{}
	cancel  context.CancelFunc
}

// NewCleanup creates a new cleanup service.
func NewCleanup(store storage.Store, config *CleanupConfig) *Cleanup {
	if config == nil {
		config = DefaultCleanupConfig()
	}
	if config.Interval <= 0 {
		config.Interval = DefaultCleanupInterval
	}
	if config.BriefRetention <= 0 {
		config.BriefRetention = DefaultBriefRetention
	}
	if config.QueryRetention <= 0 {
		config.QueryRetention = DefaultQueryRetention
	}

	return &Cleanup{
		store:  store,
		config: config,
		done:   make(chan struct{}),
	}
}

// Start begins the cleanup loop.
// It returns immediately and runs sweeps in a goroutine.
// This should only be called when this instance is the leader.
func (c *Cleanup) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	ctx, c.cancel = context.WithCancel(ctx)
	go c.run(ctx)

	return nil
}

// Stop stops the cleanup loop.
func (c *Cleanup) Stop(ctx context.Context) error {
	if !c.started.Load() {
		return ErrNotStarted
	}

	c.cancel()
	<-c.done

	c.started.Store(false)
	return nil
}

// run is the main cleanup loop.
func (c *Cleanup) run(ctx context.Context) {
	defer close(c.done)

	// Sweep immediately on start
	c.runCleanup(ctx)

	ticker := time.NewTicker(c.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.runCleanup(ctx)
		}
	}
}

// runCleanup performs one sweep and reports the outcome.
func (c *Cleanup) runCleanup(ctx context.Context) {
	result := c.RunOnce(ctx)

	if c.config.OnBriefsDeleted != nil && result.BriefsDeleted > 0 {
		c.config.OnBriefsDeleted(result.BriefsDeleted)
	}

	if c.config.OnQueriesDeleted != nil && result.QueriesDeleted > 0 {
		c.config.OnQueriesDeleted(result.QueriesDeleted)
	}

	if c.config.OnError != nil {
		for _, err := range result.Errors {
			c.config.OnError(err)
		}
	}
}

// RunOnce performs one retention sweep and returns the result.
// This can be called manually for testing or one-off cleanup.
func (c *Cleanup) RunOnce(ctx context.Context) *CleanupResult {
	result := &CleanupResult{}
	now := time.Now()

	count, err := c.store.DeleteBriefsBefore(ctx, now.Add(-c.config.BriefRetention))
	if err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("failed to delete expired briefs: %w", err))
	} else {
		result.BriefsDeleted = count
	}

	count, err = c.store.DeleteQueriesBefore(ctx, now.Add(-c.config.QueryRetention))
	if err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("failed to delete expired queries: %w", err))
	} else {
		result.QueriesDeleted = count
	}

	return result
}

// IsRunning returns true if the cleanup service is running.
func (c *Cleanup) IsRunning() bool {
	return c.started.Load()
}
