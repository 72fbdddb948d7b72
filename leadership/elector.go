// Package leadership provides leader election for multi-instance deployments.
//
// Scheduled work such as brief generation and retention cleanup must run on
// exactly one instance. Election uses a TTL-based lease stored in the
// sally_leadership table: the leader renews its lease before it expires, and
// any instance can take over a lease that lapsed.
package leadership

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/sallytsm/sally/storage"
)

// LeaseBriefScheduler is the lease contested by instances that want to run
// scheduled brief generation and retention cleanup.
const LeaseBriefScheduler = "brief_scheduler"

// Default configuration values
const (
	DefaultLeaderTTL       = 30 * time.Second
	DefaultElectionPeriod  = 10 * time.Second
	DefaultReelectionDelay = 5 * time.Second
)

// Config holds configuration for the leader elector.
type Config struct {
	// Lease names the lease being contested.
	// Default: LeaseBriefScheduler
	Lease string

	// LeaderTTL is how long a leader's lease is valid.
	// Default: 30 seconds
	LeaderTTL time.Duration

	// ElectionPeriod is how often to attempt becoming leader when not leader.
	// Default: 10 seconds
	ElectionPeriod time.Duration

	// ReelectionDelay is how long to wait between lease renewals while
	// leader. Must be well below LeaderTTL.
	// Default: 5 seconds
	ReelectionDelay time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Lease:           LeaseBriefScheduler,
		LeaderTTL:       DefaultLeaderTTL,
		ElectionPeriod:  DefaultElectionPeriod,
		ReelectionDelay: DefaultReelectionDelay,
	}
}

// Callbacks are called when leadership status changes.
type Callbacks struct {
	// OnBecameLeader is called when this instance becomes the leader.
	// It is called with the context that was passed to Start().
	OnBecameLeader func(ctx context.Context)

	// OnLostLeadership is called when this instance loses leadership,
	// whether through a failed renewal, an explicit Resign(), or Stop().
	OnLostLeadership func(ctx context.Context)

	// OnError is called when an election attempt fails. The elector keeps
	// running and retries on the next tick.
	OnError func(err error)
}

// Elector campaigns for a lease on behalf of one instance.
type Elector struct {
	store      storage.Store
	instanceID string
	config     *Config
	callbacks  Callbacks

	// mu protects isLeader
	mu       sync.RWMutex
	isLeader bool

	started atomic.Bool
	done    chan struct{}
	cancel  context.CancelFunc
}

// NewElector creates a leader elector. An empty instanceID is replaced with
// a generated one so every process gets a distinct identity by default.
func NewElector(store storage.Store, instanceID string, config *Config, callbacks Callbacks) *Elector {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Lease == "" {
		config.Lease = LeaseBriefScheduler
	}
	if instanceID == "" {
		instanceID = fmt.Sprintf("sally-%s", uuid.New().String()[:8])
	}

	return &Elector{
		store:      store,
		instanceID: instanceID,
		config:     config,
		callbacks:  callbacks,
		done:       make(chan struct{}),
	}
}

// InstanceID returns the identity this elector campaigns under.
func (e *Elector) InstanceID() string {
	return e.instanceID
}

// Start begins the election loop in a goroutine and returns immediately.
func (e *Elector) Start(ctx context.Context) error {
	if !e.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	ctx, e.cancel = context.WithCancel(ctx)
	go e.runElectionLoop(ctx)

	return nil
}

// Stop stops the election loop. If this instance is the leader it resigns
// so another instance can take over without waiting for the lease to lapse.
func (e *Elector) Stop(ctx context.Context) error {
	if !e.started.Load() {
		return ErrNotStarted
	}

	e.cancel()
	<-e.done

	e.mu.Lock()
	wasLeader := e.isLeader
	e.isLeader = false
	e.mu.Unlock()

	if wasLeader {
		// Best effort resignation
		resignCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		_ = e.store.LeaderResign(resignCtx, e.config.Lease, e.instanceID)

		if e.callbacks.OnLostLeadership != nil {
			e.callbacks.OnLostLeadership(ctx)
		}
	}

	e.started.Store(false)
	return nil
}

// IsLeader returns true if this instance currently holds the lease.
func (e *Elector) IsLeader() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.isLeader
}

// IsRunning returns true if the elector is running.
func (e *Elector) IsRunning() bool {
	return e.started.Load()
}

// CurrentLeader returns the instance currently holding the lease, or nil
// when the lease is free.
func (e *Elector) CurrentLeader(ctx context.Context) (*storage.Leader, error) {
	return e.store.CurrentLeader(ctx, e.config.Lease)
}

// Resign voluntarily gives up leadership, for graceful handover before
// shutdown.
func (e *Elector) Resign(ctx context.Context) error {
	e.mu.Lock()
	wasLeader := e.isLeader
	e.isLeader = false
	e.mu.Unlock()

	if !wasLeader {
		return nil
	}

	if err := e.store.LeaderResign(ctx, e.config.Lease, e.instanceID); err != nil {
		return err
	}

	if e.callbacks.OnLostLeadership != nil {
		e.callbacks.OnLostLeadership(ctx)
	}

	return nil
}

// runElectionLoop campaigns for the lease until the context is cancelled.
func (e *Elector) runElectionLoop(ctx context.Context) {
	defer close(e.done)

	// Try to become leader immediately
	e.attemptElection(ctx)

	for {
		var delay time.Duration
		if e.IsLeader() {
			delay = e.config.ReelectionDelay
		} else {
			delay = e.config.ElectionPeriod
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
			if e.IsLeader() {
				e.attemptReelection(ctx)
			} else {
				e.attemptElection(ctx)
			}
		}
	}
}

// attemptElection tries to take the lease.
func (e *Elector) attemptElection(ctx context.Context) {
	params := &storage.LeaderElectParams{
		Name:     e.config.Lease,
		LeaderID: e.instanceID,
		TTL:      e.config.LeaderTTL,
	}

	elected, err := e.store.LeaderAttemptElect(ctx, params)
	if err != nil {
		e.reportError(fmt.Errorf("election attempt failed: %w", err))
		return
	}

	if elected {
		e.mu.Lock()
		wasLeader := e.isLeader
		e.isLeader = true
		e.mu.Unlock()

		if !wasLeader && e.callbacks.OnBecameLeader != nil {
			e.callbacks.OnBecameLeader(ctx)
		}
	}
}

// attemptReelection renews the lease. Failure to renew means leadership is
// lost and the instance drops back to campaigning.
func (e *Elector) attemptReelection(ctx context.Context) {
	params := &storage.LeaderElectParams{
		Name:     e.config.Lease,
		LeaderID: e.instanceID,
		TTL:      e.config.LeaderTTL,
	}

	reelected, err := e.store.LeaderAttemptReelect(ctx, params)
	if err != nil {
		e.reportError(fmt.Errorf("reelection attempt failed: %w", err))
	}
	if err != nil || !reelected {
		e.mu.Lock()
		e.isLeader = false
		e.mu.Unlock()

		if e.callbacks.OnLostLeadership != nil {
			e.callbacks.OnLostLeadership(ctx)
		}
	}
}

func (e *Elector) reportError(err error) {
	if e.callbacks.OnError != nil {
		e.callbacks.OnError(err)
	}
}
