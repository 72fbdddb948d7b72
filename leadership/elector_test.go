package leadership

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sallytsm/sally/internal/testutil"
	"github.com/sallytsm/sally/schema"
	"github.com/sallytsm/sally/storage"
)

// mockStore implements the lease operations of storage.Store for testing.
type mockStore struct {
	storage.Store
	leaseName     atomic.Value // string
	leader        atomic.Value // string
	leaderExpires atomic.Value // time.Time
	electCalled   atomic.Int32
	reelectCalled atomic.Int32
	resignCalled  atomic.Int32
	electErr      error
	reelectErr    error
	resignErr     error
}

func (m *mockStore) getLeader() string {
	if v := m.leader.Load(); v != nil {
		return v.(string)
	}
	return ""
}

func (m *mockStore) getLeaderExpires() time.Time {
	if v := m.leaderExpires.Load(); v != nil {
		return v.(time.Time)
	}
	return time.Time{}
}

func (m *mockStore) LeaderAttemptElect(ctx context.Context, params *storage.LeaderElectParams) (bool, error) {
	m.electCalled.Add(1)
	m.leaseName.Store(params.Name)
	if m.electErr != nil {
		return false, m.electErr
	}

	// Free, expired, or already ours
	current := m.getLeader()
	if current == "" || current == params.LeaderID || time.Now().After(m.getLeaderExpires()) {
		m.leader.Store(params.LeaderID)
		m.leaderExpires.Store(time.Now().Add(params.TTL))
		return true, nil
	}

	return false, nil
}

func (m *mockStore) LeaderAttemptReelect(ctx context.Context, params *storage.LeaderElectParams) (bool, error) {
	m.reelectCalled.Add(1)
	if m.reelectErr != nil {
		return false, m.reelectErr
	}

	if m.getLeader() == params.LeaderID {
		m.leaderExpires.Store(time.Now().Add(params.TTL))
		return true, nil
	}

	return false, nil
}

func (m *mockStore) LeaderResign(ctx context.Context, name, leaderID string) error {
	m.resignCalled.Add(1)
	if m.resignErr != nil {
		return m.resignErr
	}

	if m.getLeader() == leaderID {
		m.leader.Store("")
		m.leaderExpires.Store(time.Time{})
	}

	return nil
}

func (m *mockStore) CurrentLeader(ctx context.Context, name string) (*storage.Leader, error) {
	current := m.getLeader()
	if current == "" || time.Now().After(m.getLeaderExpires()) {
		return nil, nil
	}
	return &storage.Leader{
		Name:      name,
		LeaderID:  current,
		ExpiresAt: m.getLeaderExpires(),
	}, nil
}

func fastConfig() *Config {
	return &Config{
		LeaderTTL:       100 * time.Millisecond,
		ElectionPeriod:  50 * time.Millisecond,
		ReelectionDelay: 25 * time.Millisecond,
	}
}

func TestElector_StartStop(t *testing.T) {
	store := &mockStore{}
	elector := NewElector(store, "instance-1", fastConfig(), Callbacks{})

	ctx := context.Background()

	if err := elector.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// Second start should fail
	if err := elector.Start(ctx); err != ErrAlreadyStarted {
		t.Fatalf("Start() error = %v, want %v", err, ErrAlreadyStarted)
	}

	// Give time for at least one election attempt
	time.Sleep(100 * time.Millisecond)

	if err := elector.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	if store.electCalled.Load() == 0 {
		t.Error("Expected at least one election attempt")
	}
}

func TestElector_StopNotStarted(t *testing.T) {
	elector := NewElector(&mockStore{}, "instance-1", nil, Callbacks{})

	if err := elector.Stop(context.Background()); err != ErrNotStarted {
		t.Fatalf("Stop() error = %v, want %v", err, ErrNotStarted)
	}
}

func TestElector_BecomesLeader(t *testing.T) {
	store := &mockStore{}

	var becameLeaderCount atomic.Int32

	elector := NewElector(store, "instance-1", fastConfig(), Callbacks{
		OnBecameLeader: func(ctx context.Context) {
			becameLeaderCount.Add(1)
		},
	})

	ctx := context.Background()

	if err := elector.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// Wait for election
	time.Sleep(100 * time.Millisecond)

	if !elector.IsLeader() {
		t.Error("Expected to be leader")
	}

	if becameLeaderCount.Load() != 1 {
		t.Errorf("OnBecameLeader called %d times, want 1", becameLeaderCount.Load())
	}

	if name := store.leaseName.Load(); name != LeaseBriefScheduler {
		t.Errorf("Contested lease %v, want %s", name, LeaseBriefScheduler)
	}

	if err := elector.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
}

func TestElector_Resign(t *testing.T) {
	store := &mockStore{}

	var lostLeadershipCount atomic.Int32

	elector := NewElector(store, "instance-1", fastConfig(), Callbacks{
		OnLostLeadership: func(ctx context.Context) {
			lostLeadershipCount.Add(1)
		},
	})

	ctx := context.Background()

	if err := elector.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// Wait for election
	time.Sleep(100 * time.Millisecond)

	if !elector.IsLeader() {
		t.Error("Expected to be leader before resign")
	}

	if err := elector.Resign(ctx); err != nil {
		t.Fatalf("Resign() error = %v", err)
	}

	if elector.IsLeader() {
		t.Error("Expected not to be leader after resign")
	}

	if lostLeadershipCount.Load() != 1 {
		t.Errorf("OnLostLeadership called %d times, want 1", lostLeadershipCount.Load())
	}

	if store.resignCalled.Load() != 1 {
		t.Errorf("LeaderResign called %d times, want 1", store.resignCalled.Load())
	}

	if err := elector.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
}

func TestElector_ReelectionMaintainsLeadership(t *testing.T) {
	store := &mockStore{}
	elector := NewElector(store, "instance-1", fastConfig(), Callbacks{})

	ctx := context.Background()

	if err := elector.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// Wait for initial election plus some renewals
	time.Sleep(200 * time.Millisecond)

	if !elector.IsLeader() {
		t.Error("Expected to remain leader")
	}

	if store.reelectCalled.Load() == 0 {
		t.Error("Expected at least one reelection attempt")
	}

	if err := elector.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
}

func TestElector_FailedRenewalDropsLeadership(t *testing.T) {
	store := &mockStore{reelectErr: errors.New("connection reset")}

	var lostLeadershipCount atomic.Int32
	var sawError atomic.Bool

	elector := NewElector(store, "instance-1", fastConfig(), Callbacks{
		OnLostLeadership: func(ctx context.Context) {
			lostLeadershipCount.Add(1)
		},
		OnError: func(err error) {
			sawError.Store(true)
		},
	})

	ctx := context.Background()

	if err := elector.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// Initial election succeeds, first renewal errors out
	time.Sleep(100 * time.Millisecond)

	if !sawError.Load() {
		t.Error("Expected OnError from failed renewal")
	}
	if lostLeadershipCount.Load() == 0 {
		t.Error("Expected OnLostLeadership after failed renewal")
	}

	if err := elector.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
}

func TestElector_GeneratedInstanceID(t *testing.T) {
	a := NewElector(&mockStore{}, "", nil, Callbacks{})
	b := NewElector(&mockStore{}, "", nil, Callbacks{})

	if !strings.HasPrefix(a.InstanceID(), "sally-") {
		t.Errorf("InstanceID = %q, want sally- prefix", a.InstanceID())
	}
	if a.InstanceID() == b.InstanceID() {
		t.Errorf("Expected distinct generated instance IDs, both %q", a.InstanceID())
	}

	c := NewElector(&mockStore{}, "node-7", nil, Callbacks{})
	if c.InstanceID() != "node-7" {
		t.Errorf("InstanceID = %q, want node-7", c.InstanceID())
	}
}

func TestElector_CurrentLeader(t *testing.T) {
	store := &mockStore{}
	elector := NewElector(store, "instance-1", fastConfig(), Callbacks{})

	ctx := context.Background()

	leader, err := elector.CurrentLeader(ctx)
	if err != nil {
		t.Fatalf("CurrentLeader() error = %v", err)
	}
	if leader != nil {
		t.Errorf("Expected no leader before election, got %+v", leader)
	}

	if err := elector.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	leader, err = elector.CurrentLeader(ctx)
	if err != nil {
		t.Fatalf("CurrentLeader() error = %v", err)
	}
	if leader == nil || leader.LeaderID != "instance-1" {
		t.Errorf("CurrentLeader = %+v, want instance-1", leader)
	}

	if err := elector.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Lease != LeaseBriefScheduler {
		t.Errorf("Lease = %q, want %q", config.Lease, LeaseBriefScheduler)
	}
	if config.LeaderTTL != DefaultLeaderTTL {
		t.Errorf("LeaderTTL = %v, want %v", config.LeaderTTL, DefaultLeaderTTL)
	}
	if config.ElectionPeriod != DefaultElectionPeriod {
		t.Errorf("ElectionPeriod = %v, want %v", config.ElectionPeriod, DefaultElectionPeriod)
	}
	if config.ReelectionDelay != DefaultReelectionDelay {
		t.Errorf("ReelectionDelay = %v, want %v", config.ReelectionDelay, DefaultReelectionDelay)
	}
}

// ============================================================================
// INTEGRATION
// ============================================================================

func TestIntegration_LeaseLifecycle(t *testing.T) {
	testutil.RequireIntegration(t)

	db := testutil.NewTestDB(t)
	defer db.Close()
	ctx := context.Background()

	if _, err := schema.NewManager(db.Pool).Deploy(ctx); err != nil {
		t.Fatalf("Failed to deploy schema: %v", err)
	}
	if err := db.CleanTables(ctx); err != nil {
		t.Fatalf("Failed to clean tables: %v", err)
	}

	store := storage.NewPostgresStore(db.Pool)

	paramsA := &storage.LeaderElectParams{Name: LeaseBriefScheduler, LeaderID: "node-a", TTL: time.Minute}
	paramsB := &storage.LeaderElectParams{Name: LeaseBriefScheduler, LeaderID: "node-b", TTL: time.Minute}

	elected, err := store.LeaderAttemptElect(ctx, paramsA)
	if err != nil {
		t.Fatalf("Elect node-a failed: %v", err)
	}
	if !elected {
		t.Fatal("Expected node-a to take the free lease")
	}

	elected, err = store.LeaderAttemptElect(ctx, paramsB)
	if err != nil {
		t.Fatalf("Elect node-b failed: %v", err)
	}
	if elected {
		t.Error("Expected node-b to lose against an unexpired lease")
	}

	// The holder can re-enter election without losing the lease
	elected, err = store.LeaderAttemptElect(ctx, paramsA)
	if err != nil {
		t.Fatalf("Re-elect node-a failed: %v", err)
	}
	if !elected {
		t.Error("Expected node-a to keep its own lease")
	}

	renewed, err := store.LeaderAttemptReelect(ctx, paramsA)
	if err != nil {
		t.Fatalf("Renew node-a failed: %v", err)
	}
	if !renewed {
		t.Error("Expected node-a renewal to succeed")
	}

	renewed, err = store.LeaderAttemptReelect(ctx, paramsB)
	if err != nil {
		t.Fatalf("Renew node-b failed: %v", err)
	}
	if renewed {
		t.Error("Expected node-b renewal to fail while node-a holds the lease")
	}

	leader, err := store.CurrentLeader(ctx, LeaseBriefScheduler)
	if err != nil {
		t.Fatalf("CurrentLeader failed: %v", err)
	}
	if leader == nil || leader.LeaderID != "node-a" {
		t.Fatalf("CurrentLeader = %+v, want node-a", leader)
	}

	if err := store.LeaderResign(ctx, LeaseBriefScheduler, "node-a"); err != nil {
		t.Fatalf("Resign node-a failed: %v", err)
	}

	elected, err = store.LeaderAttemptElect(ctx, paramsB)
	if err != nil {
		t.Fatalf("Elect node-b after resign failed: %v", err)
	}
	if !elected {
		t.Error("Expected node-b to take the lease after resignation")
	}
}

func TestIntegration_ExpiredLeaseTakeover(t *testing.T) {
	testutil.RequireIntegration(t)

	db := testutil.NewTestDB(t)
	defer db.Close()
	ctx := context.Background()

	if _, err := schema.NewManager(db.Pool).Deploy(ctx); err != nil {
		t.Fatalf("Failed to deploy schema: %v", err)
	}
	if err := db.CleanTables(ctx); err != nil {
		t.Fatalf("Failed to clean tables: %v", err)
	}

	store := storage.NewPostgresStore(db.Pool)

	elected, err := store.LeaderAttemptElect(ctx, &storage.LeaderElectParams{
		Name: LeaseBriefScheduler, LeaderID: "node-a", TTL: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Elect node-a failed: %v", err)
	}
	if !elected {
		t.Fatal("Expected node-a to take the free lease")
	}

	time.Sleep(100 * time.Millisecond)

	elected, err = store.LeaderAttemptElect(ctx, &storage.LeaderElectParams{
		Name: LeaseBriefScheduler, LeaderID: "node-b", TTL: time.Minute,
	})
	if err != nil {
		t.Fatalf("Elect node-b failed: %v", err)
	}
	if !elected {
		t.Error("Expected node-b to take over the expired lease")
	}

	leader, err := store.CurrentLeader(ctx, LeaseBriefScheduler)
	if err != nil {
		t.Fatalf("CurrentLeader failed: %v", err)
	}
	if leader == nil || leader.LeaderID != "node-b" {
		t.Fatalf("CurrentLeader = %+v, want node-b", leader)
	}
}
