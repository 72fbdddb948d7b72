package briefing

import (
	"context"
	"fmt"
	"time"

	"github.com/sallytsm/sally/storage"
)

const (
	maxAlerts          = 10
	maxActiveShipments = 20
	maxRecommendations = 8

	behindScheduleThreshold = 0.7
	criticalStockThreshold  = 5

	onTimeWindow = 30 * 24 * time.Hour
)

// composeMorning builds the morning brief from live data.
func (s *Service) composeMorning(ctx context.Context, day time.Time) (*Brief, error) {
	events, err := s.store.CriticalOpenEvents(ctx, maxAlerts)
	if err != nil {
		return nil, err
	}
	lowStock, err := s.store.LowStockSites(ctx)
	if err != nil {
		return nil, err
	}
	active, err := s.store.ActiveShipments(ctx, maxActiveShipments)
	if err != nil {
		return nil, err
	}
	delayed, err := s.store.DelayedShipmentCount(ctx)
	if err != nil {
		return nil, err
	}
	tempAlerts, err := s.store.RecentTemperatureAlerts(ctx, 24*time.Hour)
	if err != nil {
		return nil, err
	}
	enrollment, err := s.store.EnrollmentStats(ctx)
	if err != nil {
		return nil, err
	}
	risky, err := s.store.SitesAtRisk(ctx, 0.3)
	if err != nil {
		return nil, err
	}
	delivery, err := s.store.OnTimeDeliveryRate(ctx, onTimeWindow)
	if err != nil {
		return nil, err
	}

	brief := &Brief{
		Date: day.Format("2006-01-02"),
		Type: TypeMorning,
		Mode: ModeProduction,
		Summary: Summary{
			CriticalAlerts:     len(events),
			SitesLowOnStock:    len(lowStock),
			ActiveShipments:    len(active),
			DelayedShipments:   delayed,
			TemperatureAlerts:  len(tempAlerts),
			EnrollmentPercent:  percentOfTarget(enrollment),
			OnTimeDeliveryRate: delivery.OnTimeRate,
		},
		Sections: Sections{
			Alerts:          alertLines(events),
			InventoryStatus: inventoryLines(lowStock),
			Shipments:       shipmentLines(active),
			Enrollment:      enrollmentSection(enrollment),
			RiskInsights:    riskInsights(risky),
		},
		AlgorithmsUsed: []string{"rule_based_recommendations", "risk_banding", "on_time_rate_30d"},
		GeneratedAt:    time.Now().UTC(),
	}
	brief.Sections.Recommendations = morningRecommendations(lowStock, delayed, tempAlerts, enrollment)

	return brief, nil
}

func alertLines(events []*storage.QualityEvent) []Alert {
	alerts := make([]Alert, 0, len(events))
	for _, ev := range events {
		alerts = append(alerts, Alert{
			EventID:     ev.EventID,
			EventType:   ev.EventType,
			Severity:    ev.Severity,
			SiteID:      ev.SiteID,
			ProductID:   ev.ProductID,
			Description: ev.Description,
			EventDate:   ev.EventDate,
			Status:      ev.ResolutionStatus,
		})
	}
	return alerts
}

func inventoryLines(sites []*storage.SiteStockStatus) []SiteInventory {
	lines := make([]SiteInventory, 0, len(sites))
	for _, site := range sites {
		msg := fmt.Sprintf("%d item(s) below minimum stock level", site.LowItemCount)
		if site.MinAvailable < criticalStockThreshold {
			msg = fmt.Sprintf("critically low stock, only %d unit(s) of the scarcest item left", site.MinAvailable)
		}
		lines = append(lines, SiteInventory{
			SiteID:         site.SiteID,
			SiteName:       site.SiteName,
			LowItems:       site.LowItemCount,
			TotalAvailable: site.TotalAvailable,
			Message:        msg,
		})
	}
	return lines
}

func shipmentLines(shipments []*storage.Shipment) []ShipmentLine {
	lines := make([]ShipmentLine, 0, len(shipments))
	for _, sh := range shipments {
		lines = append(lines, ShipmentLine{
			ShipmentID:       sh.ShipmentID,
			ShipmentNumber:   sh.ShipmentNumber,
			SiteID:           sh.DestinationSiteID,
			Status:           sh.Status,
			Priority:         sh.Priority,
			Carrier:          sh.Carrier,
			ExpectedDelivery: sh.ExpectedDelivery,
		})
	}
	return lines
}

func enrollmentSection(stats *storage.EnrollmentStats) *Enrollment {
	section := &Enrollment{
		TotalTarget:   stats.TotalTarget,
		TotalCurrent:  stats.TotalCurrent,
		PercentOfGoal: percentOfTarget(stats),
		ActiveStudies: stats.ActiveStudies,
		ActiveSites:   stats.ActiveSites,
	}
	for _, study := range stats.BehindSchedule {
		section.BehindSchedule = append(section.BehindSchedule, BehindScheduler{
			StudyID:         study.StudyID,
			StudyName:       study.StudyName,
			PercentOfTarget: study.PercentOfTarget,
		})
	}
	return section
}

func percentOfTarget(stats *storage.EnrollmentStats) float64 {
	if stats.TotalTarget == 0 {
		return 0
	}
	return float64(stats.TotalCurrent) / float64(stats.TotalTarget) * 100
}

// riskInsights groups sites into bands by risk score.
func riskInsights(sites []*storage.Site) []RiskInsight {
	bands := []struct {
		name     string
		min, max float64
		message  string
	}{
		{"critical", 0.8, 1.01, "immediate supply review required"},
		{"high", 0.6, 0.8, "schedule a supply review this week"},
		{"medium", 0.3, 0.6, "monitor closely"},
	}

	var insights []RiskInsight
	for _, band := range bands {
		var ids []string
		for _, site := range sites {
			if site.RiskScore >= band.min && site.RiskScore < band.max {
				ids = append(ids, site.SiteID)
			}
		}
		if len(ids) == 0 {
			continue
		}
		insights = append(insights, RiskInsight{
			Band:    band.name,
			Sites:   ids,
			Message: fmt.Sprintf("%d site(s) in the %s risk band, %s", len(ids), band.name, band.message),
		})
	}
	return insights
}

// morningRecommendations derives the action list from the composed
// sections using fixed business rules.
func morningRecommendations(lowStock []*storage.SiteStockStatus, delayed int, tempAlerts []*storage.TemperatureAlert, enrollment *storage.EnrollmentStats) []string {
	var recs []string

	for _, site := range lowStock {
		if site.MinAvailable < criticalStockThreshold {
			recs = append(recs, fmt.Sprintf("Expedite resupply for %s, stock is critically low", site.SiteID))
		} else {
			recs = append(recs, fmt.Sprintf("Plan resupply for %s, %d item(s) below minimum", site.SiteID, site.LowItemCount))
		}
	}
	if delayed > 0 {
		recs = append(recs, fmt.Sprintf("Review %d delayed shipment(s) and notify the affected sites", delayed))
	}
	if len(tempAlerts) > 0 {
		recs = append(recs, fmt.Sprintf("Investigate %d temperature excursion(s) recorded in the last 24 hours", len(tempAlerts)))
	}
	for _, study := range enrollment.BehindSchedule {
		recs = append(recs, fmt.Sprintf("Review enrollment plan for %s, tracking at %.0f%% of target", study.StudyID, study.PercentOfTarget))
	}

	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs
}
