package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/sallytsm/sally/internal/testutil"
	"github.com/sallytsm/sally/schema"
	"github.com/sallytsm/sally/storage"
)

// fakeAnalyticsStore returns canned rows for the store calls the
// analytics service makes.
type fakeAnalyticsStore struct {
	storage.Store

	study      *storage.Study
	weekly     []*storage.WeeklyCount
	stocks     []*storage.SiteProductStock
	shipments  []*storage.Shipment
	carriers   []*storage.CarrierStats
	tempAlerts []*storage.TemperatureAlert
	readings   []*storage.TemperatureReading
	nearExpiry []*storage.InventoryItem
	products   []*storage.Product
}

func (f *fakeAnalyticsStore) GetStudy(ctx context.Context, studyID string) (*storage.Study, error) {
	return f.study, nil
}

func (f *fakeAnalyticsStore) WeeklyEnrollment(ctx context.Context, studyID string, weeks int) ([]*storage.WeeklyCount, error) {
	return f.weekly, nil
}

func (f *fakeAnalyticsStore) SiteProductStock(ctx context.Context, siteID string) ([]*storage.SiteProductStock, error) {
	return f.stocks, nil
}

func (f *fakeAnalyticsStore) ActiveShipments(ctx context.Context, limit int) ([]*storage.Shipment, error) {
	return f.shipments, nil
}

func (f *fakeAnalyticsStore) CarrierDelayStats(ctx context.Context) ([]*storage.CarrierStats, error) {
	return f.carriers, nil
}

func (f *fakeAnalyticsStore) RecentTemperatureAlerts(ctx context.Context, window time.Duration) ([]*storage.TemperatureAlert, error) {
	return f.tempAlerts, nil
}

func (f *fakeAnalyticsStore) TemperatureSeries(ctx context.Context, window time.Duration) ([]*storage.TemperatureReading, error) {
	return f.readings, nil
}

func (f *fakeAnalyticsStore) NearExpiryItems(ctx context.Context, within time.Duration) ([]*storage.InventoryItem, error) {
	return f.nearExpiry, nil
}

func (f *fakeAnalyticsStore) ListProducts(ctx context.Context) ([]*storage.Product, error) {
	return f.products, nil
}

func TestBandFor(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{1.0, "critical"},
		{0.85, "critical"},
		{0.8, "critical"},
		{0.79, "high"},
		{0.6, "high"},
		{0.59, "medium"},
		{0.3, "medium"},
		{0.29, "low"},
		{0.0, "low"},
	}

	for _, tt := range tests {
		if got := BandFor(tt.score); got != tt.want {
			t.Errorf("BandFor(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestIntegration_AnalyticsOverSeedData(t *testing.T) {
	testutil.RequireIntegration(t)

	ctx := context.Background()
	db := testutil.NewTestDB(t)
	defer db.Close()

	if _, err := schema.NewManager(db.Pool).Deploy(ctx); err != nil {
		t.Fatalf("Failed to deploy schema: %v", err)
	}
	if err := db.CleanTables(ctx); err != nil {
		t.Fatalf("Failed to clean tables: %v", err)
	}

	store := storage.NewPostgresStore(db.Pool)
	if err := store.SeedDemoData(ctx); err != nil {
		t.Fatalf("Failed to seed demo data: %v", err)
	}

	svc := NewService(store)

	forecast, err := svc.DemandForecast(ctx, "STUDY-001", 8)
	if err != nil {
		t.Fatalf("DemandForecast failed: %v", err)
	}
	if len(forecast.Points) != 8 {
		t.Errorf("Expected 8 forecast points, got %d", len(forecast.Points))
	}
	if forecast.Method != "exponential_smoothing" {
		t.Errorf("Expected exponential smoothing over seeded history, got %q", forecast.Method)
	}

	report, err := svc.OptimizeInventory(ctx, OptimizeParams{})
	if err != nil {
		t.Fatalf("OptimizeInventory failed: %v", err)
	}
	if len(report.Recommendations) == 0 {
		t.Error("Expected stock recommendations for seeded inventory")
	}
	if report.ReorderCount == 0 {
		t.Error("Expected at least one reorder recommendation for the low-stock site")
	}

	risks, err := svc.ShipmentRisks(ctx, 0)
	if err != nil {
		t.Fatalf("ShipmentRisks failed: %v", err)
	}
	if len(risks) == 0 {
		t.Error("Expected risk scores for active shipments")
	}
	for _, r := range risks {
		if r.Score < 0 || r.Score > 1 {
			t.Errorf("Shipment %s score %v outside [0, 1]", r.ShipmentID, r.Score)
		}
	}

	waste, err := svc.WasteReport(ctx)
	if err != nil {
		t.Fatalf("WasteReport failed: %v", err)
	}
	if len(waste.Items) == 0 {
		t.Error("Expected near-expiry items in seeded inventory")
	}
	if !waste.TotalValueAtRisk.IsPositive() {
		t.Errorf("Expected positive value at risk, got %s", waste.TotalValueAtRisk)
	}

	projection, err := svc.EnrollmentProjection(ctx, "STUDY-001")
	if err != nil {
		t.Fatalf("EnrollmentProjection failed: %v", err)
	}
	if projection.Classification == "" {
		t.Error("Expected a classification for the seeded study")
	}
}
