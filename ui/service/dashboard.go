package service

import (
	"context"
	"time"

	"github.com/sallytsm/sally/leadership"
)

// Dashboard list sizes
const (
	maxCriticalEvents = 5
	maxRecentAlerts   = 5
	maxRecentBriefs   = 4
)

// GetDashboardStats returns the KPI block for the overview page.
func (s *Service) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	status := s.client.Settings().Mode()
	stats := &DashboardStats{
		Mode:       status.Mode,
		IsDemo:     status.IsDemo,
		InstanceID: s.client.InstanceID(),
		IsLeader:   s.client.IsLeader(),
	}

	// Supply KPIs
	criticalEvents, err := s.store.CriticalOpenEvents(ctx, maxCriticalEvents)
	if err != nil {
		return nil, err
	}
	stats.CriticalEvents = criticalEvents
	stats.OpenCriticalEvents = len(criticalEvents)

	lowStock, err := s.store.LowStockSites(ctx)
	if err != nil {
		return nil, err
	}
	stats.LowStockSites = len(lowStock)

	active, err := s.store.ActiveShipments(ctx, MaxPageLimit)
	if err != nil {
		return nil, err
	}
	stats.InTransitShipments = len(active)

	delayed, err := s.store.DelayedShipmentCount(ctx)
	if err != nil {
		return nil, err
	}
	stats.DelayedShipments = delayed

	// Delivery punctuality
	delivery, err := s.store.OnTimeDeliveryRate(ctx, 24*time.Hour)
	if err != nil {
		return nil, err
	}
	stats.Deliveries24h = delivery.Delivered
	stats.OnTimeRate24h = delivery.OnTimeRate

	// Enrollment progress
	enrollment, err := s.store.EnrollmentStats(ctx)
	if err != nil {
		return nil, err
	}
	stats.ActiveStudies = enrollment.ActiveStudies
	stats.ActiveSites = enrollment.ActiveSites
	if enrollment.TotalTarget > 0 {
		stats.EnrollmentPct = float64(enrollment.TotalCurrent) / float64(enrollment.TotalTarget) * 100
	}

	// Assistant usage is best-effort; the overview still renders without it
	if count, err := s.store.CountQueries(ctx); err == nil {
		stats.QuestionsLogged = count
	}

	// Current lease holder
	if leader, err := s.store.CurrentLeader(ctx, leadership.LeaseBriefScheduler); err == nil && leader != nil {
		stats.LeaderInstanceID = leader.LeaderID
	}

	// Recent activity
	if alerts, err := s.store.RecentTemperatureAlerts(ctx, 24*time.Hour); err == nil {
		if len(alerts) > maxRecentAlerts {
			alerts = alerts[:maxRecentAlerts]
		}
		stats.RecentAlerts = alerts
	}
	if briefs, err := s.BriefHistory(ctx, maxRecentBriefs); err == nil {
		stats.RecentBriefs = briefs
	}

	stats.GeneratedAt = time.Now()
	return stats, nil
}
