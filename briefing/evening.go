package briefing

import (
	"context"
	"fmt"
	"time"

	"github.com/sallytsm/sally/storage"
)

// composeEvening builds the evening summary from live data. The day
// boundaries are taken in the day's location.
func (s *Service) composeEvening(ctx context.Context, day time.Time) (*Brief, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.Add(24 * time.Hour)
	tomorrowEnd := dayEnd.Add(24 * time.Hour)

	resolved, err := s.store.EventsResolvedBetween(ctx, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	deliveries, err := s.store.DeliveriesBetween(ctx, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	enrollments, err := s.store.EnrollmentsOn(ctx, day)
	if err != nil {
		return nil, err
	}
	movements, err := s.store.InventoryCountedOn(ctx, day)
	if err != nil {
		return nil, err
	}
	overnight, err := s.store.ShipmentsExpectedBetween(ctx, dayEnd, tomorrowEnd)
	if err != nil {
		return nil, err
	}
	openCritical, err := s.store.CriticalOpenEvents(ctx, maxAlerts)
	if err != nil {
		return nil, err
	}
	delayed, err := s.store.DelayedShipmentCount(ctx)
	if err != nil {
		return nil, err
	}

	deliveryLines, onTimeRate := deliverySection(deliveries)

	brief := &Brief{
		Date: day.Format("2006-01-02"),
		Type: TypeEvening,
		Mode: ModeProduction,
		Summary: Summary{
			CriticalAlerts:     len(openCritical),
			DelayedShipments:   delayed,
			OnTimeDeliveryRate: onTimeRate,
		},
		Sections: Sections{
			ResolvedEvents:     alertLines(resolved),
			Deliveries:         deliveryLines,
			EnrollmentsToday:   enrollments,
			InventoryMovements: movements,
			OvernightShipments: shipmentLines(overnight),
			TomorrowPriorities: tomorrowPriorities(overnight, openCritical),
		},
		AlgorithmsUsed: []string{"rule_based_recommendations", "on_time_rate_daily"},
		GeneratedAt:    time.Now().UTC(),
	}
	return brief, nil
}

// deliverySection flags each delivery on-time when it arrived no later
// than expected, and returns the day's on-time rate.
func deliverySection(deliveries []*storage.Shipment) ([]DeliveryLine, float64) {
	lines := make([]DeliveryLine, 0, len(deliveries))
	onTime := 0
	for _, sh := range deliveries {
		punctual := sh.ActualDelivery != nil &&
			(sh.ExpectedDelivery == nil || !sh.ActualDelivery.After(*sh.ExpectedDelivery))
		if punctual {
			onTime++
		}
		lines = append(lines, DeliveryLine{
			ShipmentID:     sh.ShipmentID,
			SiteID:         sh.DestinationSiteID,
			OnTime:         punctual,
			ActualDelivery: sh.ActualDelivery,
		})
	}

	rate := 0.0
	if len(deliveries) > 0 {
		rate = float64(onTime) / float64(len(deliveries)) * 100
	}
	return lines, rate
}

func tomorrowPriorities(overnight []*storage.Shipment, openCritical []*storage.QualityEvent) []string {
	var priorities []string
	for _, sh := range overnight {
		if sh.Priority == "urgent" || sh.Priority == "high" {
			priorities = append(priorities, fmt.Sprintf("Receive priority shipment %s at %s", sh.ShipmentID, sh.DestinationSiteID))
		}
	}
	for _, sh := range overnight {
		if sh.Priority != "urgent" && sh.Priority != "high" {
			priorities = append(priorities, fmt.Sprintf("Receive shipment %s at %s", sh.ShipmentID, sh.DestinationSiteID))
		}
	}
	for _, ev := range openCritical {
		priorities = append(priorities, fmt.Sprintf("Follow up on open %s event %s", ev.Severity, ev.EventID))
	}
	if len(priorities) > maxRecommendations {
		priorities = priorities[:maxRecommendations]
	}
	return priorities
}
