package analytics

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/sallytsm/sally/storage"
)

func TestEOQ(t *testing.T) {
	tests := []struct {
		name          string
		annual, order float64
		holding       float64
		want          string
	}{
		{"known quantities", 5200, 50, 4, "360.56"},
		{"higher holding cost shrinks the order", 5200, 50, 25, "144.22"},
		{"zero holding cost", 5200, 50, 0, "0"},
		{"zero demand", 0, 50, 4, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EOQ(
				decimal.NewFromFloat(tt.annual),
				decimal.NewFromFloat(tt.order),
				decimal.NewFromFloat(tt.holding),
			)
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("Expected EOQ %s, got %s", tt.want, got)
			}
		})
	}
}

func TestSafetyStock(t *testing.T) {
	tests := []struct {
		name  string
		sigma float64
		lead  int
		want  int64
	}{
		{"four week lead", 3, 4, 10},
		{"two week lead", 1.5, 2, 4},
		{"zero variability", 0, 2, 0},
		{"zero lead time", 3, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SafetyStock(decimal.NewFromFloat(tt.sigma), tt.lead)
			if !got.Equal(decimal.NewFromInt(tt.want)) {
				t.Errorf("Expected safety stock %d, got %s", tt.want, got)
			}
		})
	}
}

func TestReorderPoint(t *testing.T) {
	tests := []struct {
		name   string
		avg    float64
		lead   int
		safety int64
		want   int64
	}{
		{"whole demand", 10, 2, 10, 30},
		{"fractional demand rounds up", 7.3, 2, 5, 20},
		{"no safety stock", 5, 3, 0, 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ReorderPoint(decimal.NewFromFloat(tt.avg), tt.lead, decimal.NewFromInt(tt.safety))
			if !got.Equal(decimal.NewFromInt(tt.want)) {
				t.Errorf("Expected reorder point %d, got %s", tt.want, got)
			}
		})
	}
}

func TestOptimizeInventory(t *testing.T) {
	store := &fakeAnalyticsStore{
		stocks: []*storage.SiteProductStock{
			{SiteID: "SITE-A", ProductID: "PROD-1", QuantityAvailable: 3, MinimumStockLevel: 10, UnitCost: 100},
			{SiteID: "SITE-B", ProductID: "PROD-1", QuantityAvailable: 60, MinimumStockLevel: 10, UnitCost: 100},
			{SiteID: "SITE-C", ProductID: "PROD-2", QuantityAvailable: 20, MinimumStockLevel: 10, UnitCost: 50},
		},
	}
	svc := NewService(store)

	report, err := svc.OptimizeInventory(context.Background(), OptimizeParams{})
	if err != nil {
		t.Fatalf("OptimizeInventory failed: %v", err)
	}
	if len(report.Recommendations) != 3 {
		t.Fatalf("Expected 3 recommendations, got %d", len(report.Recommendations))
	}

	// weekly demand 5, sigma 1.5, safety ceil(1.65*1.5*sqrt(2)) = 4,
	// reorder 5*2+4 = 14, EOQ sqrt(2*260*50/25) = 32.25
	first := report.Recommendations[0]
	if !first.AvgWeeklyDemand.Equal(decimal.NewFromInt(5)) {
		t.Errorf("Expected weekly demand 5, got %s", first.AvgWeeklyDemand)
	}
	if !first.SafetyStock.Equal(decimal.NewFromInt(4)) {
		t.Errorf("Expected safety stock 4, got %s", first.SafetyStock)
	}
	if !first.ReorderPoint.Equal(decimal.NewFromInt(14)) {
		t.Errorf("Expected reorder point 14, got %s", first.ReorderPoint)
	}
	if !first.EOQ.Equal(decimal.RequireFromString("32.25")) {
		t.Errorf("Expected EOQ 32.25, got %s", first.EOQ)
	}

	actions := make(map[string]string, 3)
	for _, rec := range report.Recommendations {
		actions[rec.SiteID] = rec.Action
	}
	if actions["SITE-A"] != "reorder_now" {
		t.Errorf("Expected SITE-A to reorder, got %q", actions["SITE-A"])
	}
	if actions["SITE-B"] != "overstocked" {
		t.Errorf("Expected SITE-B overstocked, got %q", actions["SITE-B"])
	}
	if actions["SITE-C"] != "ok" {
		t.Errorf("Expected SITE-C ok, got %q", actions["SITE-C"])
	}
	if report.ReorderCount != 1 {
		t.Errorf("Expected 1 reorder, got %d", report.ReorderCount)
	}
}
