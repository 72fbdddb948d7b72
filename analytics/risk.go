package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Risk factor weights. Contributions sum to at most 1.0 before clamping.
const (
	weightCarrierHistory = 0.35
	weightColdChain      = 0.15
	weightPriority       = 0.15
	weightExcursion      = 0.20
	weightAlreadyLate    = 0.15
)

// RiskFactor is one scored contribution to a shipment risk.
type RiskFactor struct {
	Name         string  `json:"name"`
	Contribution float64 `json:"contribution"`
	Detail       string  `json:"detail"`
}

// ShipmentRisk is the scored risk for one active shipment.
type ShipmentRisk struct {
	ShipmentID string       `json:"shipment_id"`
	SiteID     string       `json:"site_id"`
	Carrier    string       `json:"carrier"`
	Score      float64      `json:"score"`
	Band       string       `json:"band"`
	Factors    []RiskFactor `json:"factors"`
}

// carrierProfile is delay history normalized per carrier.
type carrierProfile struct {
	delayRate    float64
	avgDelayDays float64
}

// ShipmentRisks scores all active shipments and returns them ordered by
// descending risk. A zero limit returns everything.
func (s *Service) ShipmentRisks(ctx context.Context, limit int) ([]*ShipmentRisk, error) {
	shipments, err := s.store.ActiveShipments(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list active shipments: %w", err)
	}
	carrierStats, err := s.store.CarrierDelayStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load carrier history: %w", err)
	}
	tempAlerts, err := s.store.RecentTemperatureAlerts(ctx, 7*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("failed to load temperature alerts: %w", err)
	}

	profiles := make(map[string]carrierProfile, len(carrierStats))
	for _, cs := range carrierStats {
		profile := carrierProfile{avgDelayDays: cs.AvgDelayDays}
		if cs.Shipments > 0 {
			profile.delayRate = float64(cs.Delayed) / float64(cs.Shipments)
		}
		profiles[cs.Carrier] = profile
	}

	excursions := make(map[string]bool, len(tempAlerts))
	for _, alert := range tempAlerts {
		if alert.ExcursionDetected {
			excursions[alert.ShipmentID] = true
		}
	}

	risks := make([]*ShipmentRisk, 0, len(shipments))
	for _, sh := range shipments {
		risk := &ShipmentRisk{
			ShipmentID: sh.ShipmentID,
			SiteID:     sh.DestinationSiteID,
			Carrier:    sh.Carrier,
		}

		if profile, ok := profiles[sh.Carrier]; ok && profile.delayRate > 0 {
			contribution := weightCarrierHistory * profile.delayRate
			risk.add("carrier_delay_history", contribution,
				fmt.Sprintf("%s delays %.0f%% of shipments, avg %.1f day(s)",
					sh.Carrier, profile.delayRate*100, profile.avgDelayDays))
		}
		if sh.TemperatureControlled {
			risk.add("cold_chain", weightColdChain, "temperature-controlled shipment")
		}
		switch sh.Priority {
		case "urgent":
			risk.add("priority", weightPriority, "urgent shipment, no slack in the schedule")
		case "high":
			risk.add("priority", weightPriority*0.6, "high priority shipment")
		}
		if excursions[sh.ShipmentID] {
			risk.add("temperature_excursion", weightExcursion, "excursion recorded in the last 7 days")
		}
		if sh.Status == "delayed" || pastDue(sh.ExpectedDelivery) {
			risk.add("running_late", weightAlreadyLate, "past its expected delivery")
		}

		if risk.Score > 1 {
			risk.Score = 1
		}
		risk.Band = BandFor(risk.Score)
		risks = append(risks, risk)
	}

	sort.SliceStable(risks, func(i, j int) bool {
		return risks[i].Score > risks[j].Score
	})
	if limit > 0 && len(risks) > limit {
		risks = risks[:limit]
	}
	return risks, nil
}

func (r *ShipmentRisk) add(name string, contribution float64, detail string) {
	r.Factors = append(r.Factors, RiskFactor{
		Name:         name,
		Contribution: contribution,
		Detail:       detail,
	})
	r.Score += contribution
}

func pastDue(expected *time.Time) bool {
	return expected != nil && expected.Before(time.Now())
}
