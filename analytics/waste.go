package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sallytsm/sally/storage"
)

// Expiry horizons
const (
	NearExpiryDays = 90
	UrgentDays     = 30
)

// ExpiryRisk is a batch approaching expiry with its value at risk.
type ExpiryRisk struct {
	InventoryID  string          `json:"inventory_id"`
	SiteID       string          `json:"site_id"`
	ProductID    string          `json:"product_id"`
	BatchNumber  string          `json:"batch_number"`
	ExpiryDate   time.Time       `json:"expiry_date"`
	DaysToExpiry int             `json:"days_to_expiry"`
	Quantity     int             `json:"quantity"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	ValueAtRisk  decimal.Decimal `json:"value_at_risk"`
	Urgency      string          `json:"urgency"`
}

// TransferSuggestion proposes rebalancing stock between sites.
type TransferSuggestion struct {
	ProductID  string `json:"product_id"`
	FromSiteID string `json:"from_site_id"`
	ToSiteID   string `json:"to_site_id"`
	Quantity   int    `json:"quantity"`
	Rationale  string `json:"rationale"`
}

// WasteReport summarizes expiry exposure and mitigation options.
type WasteReport struct {
	Items                 []*ExpiryRisk         `json:"items"`
	TotalValueAtRisk      decimal.Decimal       `json:"total_value_at_risk"`
	Transfers             []*TransferSuggestion `json:"transfers"`
	ProjectedWasteAvoided decimal.Decimal       `json:"projected_waste_avoided"`
	GeneratedAt           time.Time             `json:"generated_at"`
}

// WasteReport values near-expiry stock and suggests transfers from
// high-stock to low-stock sites for the same product.
func (s *Service) WasteReport(ctx context.Context) (*WasteReport, error) {
	nearExpiry, err := s.store.NearExpiryItems(ctx, NearExpiryDays*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("failed to list near-expiry items: %w", err)
	}
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	positions, err := s.store.SiteProductStock(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate stock positions: %w", err)
	}

	unitCosts := make(map[string]decimal.Decimal, len(products))
	for _, p := range products {
		unitCosts[p.ProductID] = decimal.NewFromFloat(p.UnitCost)
	}

	report := &WasteReport{
		TotalValueAtRisk:      decimal.Zero,
		ProjectedWasteAvoided: decimal.Zero,
		GeneratedAt:           time.Now().UTC(),
	}

	now := time.Now()
	nearExpiryBySiteProduct := make(map[string]int)
	for _, item := range nearExpiry {
		if item.ExpiryDate == nil {
			continue
		}
		days := int(item.ExpiryDate.Sub(now).Hours() / 24)
		urgency := "warning"
		if days <= UrgentDays {
			urgency = "urgent"
		}
		unitCost := unitCosts[item.ProductID]
		value := unitCost.Mul(decimal.NewFromInt(int64(item.QuantityAvailable)))

		report.Items = append(report.Items, &ExpiryRisk{
			InventoryID:  item.InventoryID,
			SiteID:       item.SiteID,
			ProductID:    item.ProductID,
			BatchNumber:  item.BatchNumber,
			ExpiryDate:   *item.ExpiryDate,
			DaysToExpiry: days,
			Quantity:     item.QuantityAvailable,
			UnitCost:     unitCost,
			ValueAtRisk:  value,
			Urgency:      urgency,
		})
		report.TotalValueAtRisk = report.TotalValueAtRisk.Add(value)
		nearExpiryBySiteProduct[item.SiteID+"/"+item.ProductID] += item.QuantityAvailable
	}

	sort.SliceStable(report.Items, func(i, j int) bool {
		return report.Items[i].DaysToExpiry < report.Items[j].DaysToExpiry
	})

	report.Transfers = suggestTransfers(positions)
	for _, transfer := range report.Transfers {
		atRisk := nearExpiryBySiteProduct[transfer.FromSiteID+"/"+transfer.ProductID]
		if atRisk == 0 {
			continue
		}
		moved := transfer.Quantity
		if moved > atRisk {
			moved = atRisk
		}
		avoided := unitCosts[transfer.ProductID].Mul(decimal.NewFromInt(int64(moved)))
		report.ProjectedWasteAvoided = report.ProjectedWasteAvoided.Add(avoided)
	}

	return report, nil
}

// suggestTransfers pairs surplus positions (more than twice the minimum
// level) with deficit positions (below minimum) per product.
func suggestTransfers(positions []*storage.SiteProductStock) []*TransferSuggestion {
	type position struct {
		siteID    string
		available int
		minimum   int
	}
	surplus := make(map[string][]position)
	deficit := make(map[string][]position)

	for _, pos := range positions {
		p := position{siteID: pos.SiteID, available: pos.QuantityAvailable, minimum: pos.MinimumStockLevel}
		switch {
		case pos.MinimumStockLevel > 0 && pos.QuantityAvailable > 2*pos.MinimumStockLevel:
			surplus[pos.ProductID] = append(surplus[pos.ProductID], p)
		case pos.QuantityAvailable < pos.MinimumStockLevel:
			deficit[pos.ProductID] = append(deficit[pos.ProductID], p)
		}
	}

	var transfers []*TransferSuggestion
	for productID, needs := range deficit {
		donors := surplus[productID]
		if len(donors) == 0 {
			continue
		}
		// Worst shortfall first
		sort.SliceStable(needs, func(i, j int) bool {
			return needs[i].minimum-needs[i].available > needs[j].minimum-needs[j].available
		})
		sort.SliceStable(donors, func(i, j int) bool {
			return donors[i].available-donors[i].minimum > donors[j].available-donors[j].minimum
		})

		d := 0
		for _, need := range needs {
			required := need.minimum - need.available
			for required > 0 && d < len(donors) {
				spare := donors[d].available - donors[d].minimum
				if spare <= 0 {
					d++
					continue
				}
				qty := required
				if qty > spare {
					qty = spare
				}
				transfers = append(transfers, &TransferSuggestion{
					ProductID:  productID,
					FromSiteID: donors[d].siteID,
					ToSiteID:   need.siteID,
					Quantity:   qty,
					Rationale: fmt.Sprintf("%s holds %d against a minimum of %d while %s is %d below minimum",
						donors[d].siteID, donors[d].available, donors[d].minimum, need.siteID, required),
				})
				donors[d].available -= qty
				required -= qty
			}
		}
	}

	sort.SliceStable(transfers, func(i, j int) bool {
		if transfers[i].ProductID != transfers[j].ProductID {
			return transfers[i].ProductID < transfers[j].ProductID
		}
		return transfers[i].ToSiteID < transfers[j].ToSiteID
	})
	return transfers
}
