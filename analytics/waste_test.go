package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sallytsm/sally/storage"
)

func TestSuggestTransfers(t *testing.T) {
	positions := []*storage.SiteProductStock{
		{SiteID: "SITE-A", ProductID: "PROD-1", QuantityAvailable: 50, MinimumStockLevel: 10},
		{SiteID: "SITE-B", ProductID: "PROD-1", QuantityAvailable: 25, MinimumStockLevel: 10},
		{SiteID: "SITE-C", ProductID: "PROD-1", QuantityAvailable: 2, MinimumStockLevel: 10},
		{SiteID: "SITE-D", ProductID: "PROD-1", QuantityAvailable: 0, MinimumStockLevel: 5},
		{SiteID: "SITE-E", ProductID: "PROD-2", QuantityAvailable: 1, MinimumStockLevel: 10},
	}

	transfers := suggestTransfers(positions)
	if len(transfers) != 2 {
		t.Fatalf("Expected 2 transfers, got %d", len(transfers))
	}

	// SITE-A has the biggest surplus and covers both shortfalls;
	// PROD-2 has no donor at all
	for _, tr := range transfers {
		if tr.ProductID != "PROD-1" {
			t.Errorf("Expected PROD-1 transfers only, got %s", tr.ProductID)
		}
		if tr.FromSiteID != "SITE-A" {
			t.Errorf("Expected SITE-A as donor, got %s", tr.FromSiteID)
		}
		if tr.Rationale == "" {
			t.Error("Expected a rationale on each transfer")
		}
	}
	byReceiver := map[string]int{}
	for _, tr := range transfers {
		byReceiver[tr.ToSiteID] = tr.Quantity
	}
	if byReceiver["SITE-C"] != 8 {
		t.Errorf("Expected 8 units to SITE-C, got %d", byReceiver["SITE-C"])
	}
	if byReceiver["SITE-D"] != 5 {
		t.Errorf("Expected 5 units to SITE-D, got %d", byReceiver["SITE-D"])
	}
}

func TestSuggestTransfers_DonorRunsOut(t *testing.T) {
	positions := []*storage.SiteProductStock{
		{SiteID: "SITE-A", ProductID: "PROD-1", QuantityAvailable: 21, MinimumStockLevel: 10},
		{SiteID: "SITE-B", ProductID: "PROD-1", QuantityAvailable: 2, MinimumStockLevel: 10},
		{SiteID: "SITE-C", ProductID: "PROD-1", QuantityAvailable: 0, MinimumStockLevel: 5},
	}

	transfers := suggestTransfers(positions)
	if len(transfers) != 2 {
		t.Fatalf("Expected 2 transfers, got %d", len(transfers))
	}

	// 11 spare units cover the worst shortfall fully and the second
	// one partially
	total := 0
	for _, tr := range transfers {
		total += tr.Quantity
	}
	if total != 11 {
		t.Errorf("Expected 11 units moved in total, got %d", total)
	}
	byReceiver := map[string]int{}
	for _, tr := range transfers {
		byReceiver[tr.ToSiteID] = tr.Quantity
	}
	if byReceiver["SITE-B"] != 8 {
		t.Errorf("Expected the worst shortfall served first with 8, got %d", byReceiver["SITE-B"])
	}
	if byReceiver["SITE-C"] != 3 {
		t.Errorf("Expected the remaining 3 for SITE-C, got %d", byReceiver["SITE-C"])
	}
}

func TestWasteReport(t *testing.T) {
	urgent := time.Now().Add(10*24*time.Hour + 12*time.Hour)
	warning := time.Now().Add(80*24*time.Hour + 12*time.Hour)

	store := &fakeAnalyticsStore{
		nearExpiry: []*storage.InventoryItem{
			{
				InventoryID:       "INV-2",
				SiteID:            "SITE-B",
				ProductID:         "PROD-2",
				BatchNumber:       "LOT-B",
				QuantityAvailable: 5,
				ExpiryDate:        &warning,
			},
			{
				InventoryID:       "INV-1",
				SiteID:            "SITE-A",
				ProductID:         "PROD-1",
				BatchNumber:       "LOT-A",
				QuantityAvailable: 20,
				ExpiryDate:        &urgent,
			},
		},
		products: []*storage.Product{
			{ProductID: "PROD-1", UnitCost: 10.5},
			{ProductID: "PROD-2", UnitCost: 4},
		},
		stocks: []*storage.SiteProductStock{
			{SiteID: "SITE-A", ProductID: "PROD-1", QuantityAvailable: 50, MinimumStockLevel: 10},
			{SiteID: "SITE-C", ProductID: "PROD-1", QuantityAvailable: 2, MinimumStockLevel: 10},
		},
	}
	svc := NewService(store)

	report, err := svc.WasteReport(context.Background())
	if err != nil {
		t.Fatalf("WasteReport failed: %v", err)
	}
	if len(report.Items) != 2 {
		t.Fatalf("Expected 2 at-risk items, got %d", len(report.Items))
	}

	// Soonest expiry first
	first := report.Items[0]
	if first.InventoryID != "INV-1" {
		t.Errorf("Expected INV-1 sorted first, got %s", first.InventoryID)
	}
	if first.Urgency != "urgent" {
		t.Errorf("Expected urgent within 30 days, got %q", first.Urgency)
	}
	if !first.ValueAtRisk.Equal(decimal.RequireFromString("210")) {
		t.Errorf("Expected 210 at risk for INV-1, got %s", first.ValueAtRisk)
	}
	if report.Items[1].Urgency != "warning" {
		t.Errorf("Expected warning beyond 30 days, got %q", report.Items[1].Urgency)
	}

	// 20*10.5 + 5*4
	if !report.TotalValueAtRisk.Equal(decimal.RequireFromString("230")) {
		t.Errorf("Expected 230 total at risk, got %s", report.TotalValueAtRisk)
	}

	if len(report.Transfers) != 1 {
		t.Fatalf("Expected 1 transfer suggestion, got %d", len(report.Transfers))
	}
	tr := report.Transfers[0]
	if tr.FromSiteID != "SITE-A" || tr.ToSiteID != "SITE-C" || tr.Quantity != 8 {
		t.Errorf("Unexpected transfer %+v", tr)
	}

	// 8 of the 20 near-expiry units at SITE-A find a new home
	if !report.ProjectedWasteAvoided.Equal(decimal.RequireFromString("84")) {
		t.Errorf("Expected 84 waste avoided, got %s", report.ProjectedWasteAvoided)
	}
}

func TestWasteReport_NoTransferPossible(t *testing.T) {
	expiry := time.Now().Add(20 * 24 * time.Hour)
	store := &fakeAnalyticsStore{
		nearExpiry: []*storage.InventoryItem{
			{InventoryID: "INV-1", SiteID: "SITE-A", ProductID: "PROD-1", QuantityAvailable: 3, ExpiryDate: &expiry},
		},
		products: []*storage.Product{{ProductID: "PROD-1", UnitCost: 2}},
		stocks: []*storage.SiteProductStock{
			{SiteID: "SITE-A", ProductID: "PROD-1", QuantityAvailable: 12, MinimumStockLevel: 10},
		},
	}
	svc := NewService(store)

	report, err := svc.WasteReport(context.Background())
	if err != nil {
		t.Fatalf("WasteReport failed: %v", err)
	}
	if len(report.Transfers) != 0 {
		t.Errorf("Expected no transfers without a surplus donor, got %d", len(report.Transfers))
	}
	if !report.ProjectedWasteAvoided.IsZero() {
		t.Errorf("Expected zero waste avoided, got %s", report.ProjectedWasteAvoided)
	}
	if !report.TotalValueAtRisk.Equal(decimal.RequireFromString("6")) {
		t.Errorf("Expected 6 at risk, got %s", report.TotalValueAtRisk)
	}
}
