package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Inventory optimization defaults
const (
	DefaultLeadTimeWeeks = 2
	DefaultOrderCost     = 50.0
	DefaultHoldingRate   = 0.25
)

// serviceLevelZ is the z-score for a 95% service level.
var serviceLevelZ = decimal.NewFromFloat(1.65)

// OptimizeParams tunes the inventory optimization model.
type OptimizeParams struct {
	// SiteID restricts optimization to one site. Empty means all sites.
	SiteID string

	// LeadTimeWeeks is the resupply lead time. Default: 2
	LeadTimeWeeks int

	// OrderCost is the fixed cost per replenishment order. Default: 50
	OrderCost float64

	// HoldingRate is the annual holding cost as a fraction of unit cost.
	// Default: 0.25
	HoldingRate float64
}

func (p *OptimizeParams) applyDefaults() {
	if p.LeadTimeWeeks <= 0 {
		p.LeadTimeWeeks = DefaultLeadTimeWeeks
	}
	if p.OrderCost <= 0 {
		p.OrderCost = DefaultOrderCost
	}
	if p.HoldingRate <= 0 {
		p.HoldingRate = DefaultHoldingRate
	}
}

// StockRecommendation compares a site+product position against the
// optimal ordering policy.
type StockRecommendation struct {
	SiteID           string          `json:"site_id"`
	ProductID        string          `json:"product_id"`
	CurrentAvailable int             `json:"current_available"`
	MinimumLevel     int             `json:"minimum_level"`
	AvgWeeklyDemand  decimal.Decimal `json:"avg_weekly_demand"`
	EOQ              decimal.Decimal `json:"economic_order_quantity"`
	SafetyStock      decimal.Decimal `json:"safety_stock"`
	ReorderPoint     decimal.Decimal `json:"reorder_point"`
	Action           string          `json:"action"`
}

// OptimizationReport is the result of an inventory optimization pass.
type OptimizationReport struct {
	Recommendations []*StockRecommendation `json:"recommendations"`
	ReorderCount    int                    `json:"reorder_count"`
	GeneratedAt     time.Time              `json:"generated_at"`
}

// EOQ computes the economic order quantity sqrt(2DS/H) for annual
// demand D, order cost S, and per-unit annual holding cost H.
func EOQ(annualDemand, orderCost, holdingCost decimal.Decimal) decimal.Decimal {
	if holdingCost.Sign() <= 0 || annualDemand.Sign() <= 0 {
		return decimal.Zero
	}
	inside := decimal.NewFromInt(2).Mul(annualDemand).Mul(orderCost).Div(holdingCost)
	return decimal.NewFromFloat(math.Sqrt(inside.InexactFloat64())).Round(2)
}

// SafetyStock computes z * sigma_d * sqrt(lead_time) at a 95% service
// level, rounded up to whole units.
func SafetyStock(weeklyDemandStdDev decimal.Decimal, leadTimeWeeks int) decimal.Decimal {
	if weeklyDemandStdDev.Sign() <= 0 || leadTimeWeeks <= 0 {
		return decimal.Zero
	}
	sqrtLead := decimal.NewFromFloat(math.Sqrt(float64(leadTimeWeeks)))
	return serviceLevelZ.Mul(weeklyDemandStdDev).Mul(sqrtLead).Ceil()
}

// ReorderPoint computes d_avg * lead_time + safety stock, rounded up.
func ReorderPoint(avgWeeklyDemand decimal.Decimal, leadTimeWeeks int, safetyStock decimal.Decimal) decimal.Decimal {
	lead := decimal.NewFromInt(int64(leadTimeWeeks))
	return avgWeeklyDemand.Mul(lead).Add(safetyStock).Ceil()
}

// OptimizeInventory computes ordering policy recommendations for every
// site+product position. Weekly demand is approximated from the minimum
// stock level, which sites calibrate to roughly two weeks of dispensing.
func (s *Service) OptimizeInventory(ctx context.Context, params OptimizeParams) (*OptimizationReport, error) {
	params.applyDefaults()

	stocks, err := s.store.SiteProductStock(ctx, params.SiteID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate stock positions: %w", err)
	}

	report := &OptimizationReport{GeneratedAt: time.Now().UTC()}
	orderCost := decimal.NewFromFloat(params.OrderCost)
	holdingRate := decimal.NewFromFloat(params.HoldingRate)

	for _, stock := range stocks {
		weeklyDemand := decimal.NewFromInt(int64(stock.MinimumStockLevel)).
			Div(decimal.NewFromInt(DefaultLeadTimeWeeks))
		if weeklyDemand.Sign() <= 0 {
			weeklyDemand = decimal.NewFromInt(1)
		}
		// Weekly demand varies roughly 30% around its mean
		sigma := weeklyDemand.Mul(decimal.NewFromFloat(0.3))

		holdingCost := decimal.NewFromFloat(stock.UnitCost).Mul(holdingRate)
		annualDemand := weeklyDemand.Mul(decimal.NewFromInt(52))

		eoq := EOQ(annualDemand, orderCost, holdingCost)
		safety := SafetyStock(sigma, params.LeadTimeWeeks)
		reorder := ReorderPoint(weeklyDemand, params.LeadTimeWeeks, safety)

		current := decimal.NewFromInt(int64(stock.QuantityAvailable))
		action := "ok"
		switch {
		case current.LessThan(reorder):
			action = "reorder_now"
			report.ReorderCount++
		case current.GreaterThan(reorder.Add(eoq)):
			action = "overstocked"
		}

		report.Recommendations = append(report.Recommendations, &StockRecommendation{
			SiteID:           stock.SiteID,
			ProductID:        stock.ProductID,
			CurrentAvailable: stock.QuantityAvailable,
			MinimumLevel:     stock.MinimumStockLevel,
			AvgWeeklyDemand:  weeklyDemand.Round(2),
			EOQ:              eoq,
			SafetyStock:      safety,
			ReorderPoint:     reorder,
			Action:           action,
		})
	}

	return report, nil
}
