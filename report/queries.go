package report

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sallytsm/sally/storage"
)

// inventorySummarySQL aggregates stock per site with status bands.
const inventorySummarySQL = `
SELECT
    i.site_id,
    s.site_name,
    SUM(i.quantity_on_hand)::int AS total_units,
    SUM(i.quantity_available)::int AS available_units,
    CASE
        WHEN SUM(i.quantity_available) < 20 THEN 'Critical'
        WHEN SUM(i.quantity_available) < 50 THEN 'Low'
        ELSE 'Healthy'
    END AS status,
    CASE
        WHEN MIN(i.expiry_date)::date - CURRENT_DATE < 30 THEN 'Critical'
        WHEN MIN(i.expiry_date)::date - CURRENT_DATE < 90 THEN 'Warning'
        ELSE 'Normal'
    END AS expiry_status,
    ROUND(SUM(i.quantity_available) * 14.0 / GREATEST(SUM(i.minimum_stock_level), 1))::int AS days_of_supply
FROM gold_inventory i
JOIN gold_clinical_sites s ON s.site_id = i.site_id
%s
GROUP BY i.site_id, s.site_name
ORDER BY available_units ASC`

// shipmentStatusSQL lists shipments with computed delay and excursion counts.
const shipmentStatusSQL = `
SELECT
    sh.shipment_id,
    sh.shipment_number,
    sh.origin_depot_id AS origin,
    sh.destination_site_id AS destination,
    sh.status,
    sh.priority,
    sh.carrier,
    sh.tracking_number,
    sh.shipped_date,
    sh.expected_delivery AS eta,
    CASE
        WHEN sh.actual_delivery IS NOT NULL AND sh.actual_delivery > sh.expected_delivery
            THEN EXTRACT(DAY FROM sh.actual_delivery - sh.expected_delivery)::int
        WHEN sh.actual_delivery IS NULL AND sh.expected_delivery < NOW()
            THEN EXTRACT(DAY FROM NOW() - sh.expected_delivery)::int
        ELSE 0
    END AS days_delayed,
    COUNT(t.log_id) FILTER (WHERE t.excursion_detected) AS excursion_count
FROM gold_shipments sh
LEFT JOIN gold_temperature_logs t ON t.shipment_id = sh.shipment_id
%s
GROUP BY sh.shipment_id
ORDER BY sh.shipped_date DESC NULLS LAST`

// sitePerformanceSQL ranks active sites by enrollment rate.
const sitePerformanceSQL = `
SELECT
    s.site_id,
    s.site_name,
    s.country,
    ROUND((s.current_enrollment / GREATEST(EXTRACT(EPOCH FROM (NOW() - s.activation_date)) / 604800.0, 1.0))::numeric, 2) AS enrollment_rate,
    s.current_enrollment,
    s.target_enrollment,
    CASE
        WHEN s.target_enrollment > 0 THEN ROUND(s.current_enrollment * 100.0 / s.target_enrollment, 1)
        ELSE 0
    END AS progress_percentage,
    CASE
        WHEN COALESCE(SUM(i.quantity_available), 0) < 20 THEN 'Critical'
        WHEN COALESCE(SUM(i.quantity_available), 0) < 50 THEN 'Low'
        ELSE 'Healthy'
    END AS inventory_status,
    s.performance_score
FROM gold_clinical_sites s
LEFT JOIN gold_inventory i ON i.site_id = s.site_id
WHERE s.status = 'active'%s
GROUP BY s.site_id
ORDER BY enrollment_rate DESC`

func (s *Service) inventorySummary(ctx context.Context, req Request) ([]map[string]any, map[string]any, error) {
	filter := ""
	if req.SiteID != "" {
		filter = fmt.Sprintf("WHERE i.site_id = '%s'", req.SiteID)
	}
	result, err := s.store.RunReadOnlyQuery(ctx, fmt.Sprintf(inventorySummarySQL, filter), MaxReportRows)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to run inventory summary: %w", err)
	}
	return result.Rows, summarizeInventory(result.Rows), nil
}

func summarizeInventory(rows []map[string]any) map[string]any {
	totalUnits := 0
	lowStock := 0
	critical := 0
	for _, row := range rows {
		totalUnits += asInt(row["total_units"])
		switch row["status"] {
		case "Low":
			lowStock++
		case "Critical":
			critical++
		}
	}
	return map[string]any{
		"total_sites":     len(rows),
		"total_units":     totalUnits,
		"low_stock_sites": lowStock,
		"critical_sites":  critical,
	}
}

func (s *Service) shipmentStatus(ctx context.Context, req Request) ([]map[string]any, map[string]any, error) {
	filter := ""
	if req.SiteID != "" {
		filter = fmt.Sprintf("WHERE sh.destination_site_id = '%s'", req.SiteID)
	}
	result, err := s.store.RunReadOnlyQuery(ctx, fmt.Sprintf(shipmentStatusSQL, filter), MaxReportRows)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to run shipment status report: %w", err)
	}
	return result.Rows, summarizeShipments(result.Rows), nil
}

func summarizeShipments(rows []map[string]any) map[string]any {
	delivered := 0
	delayed := 0
	onTime := 0
	for _, row := range rows {
		if row["status"] == "delivered" {
			delivered++
		}
		if asInt(row["days_delayed"]) > 0 {
			delayed++
		} else {
			onTime++
		}
	}
	onTimePct := 100.0
	if len(rows) > 0 {
		onTimePct = math.Round(float64(onTime)/float64(len(rows))*1000) / 10
	}
	return map[string]any{
		"total_shipments":    len(rows),
		"delivered":          delivered,
		"delayed":            delayed,
		"on_time_percentage": onTimePct,
	}
}

func (s *Service) sitePerformance(ctx context.Context, req Request) ([]map[string]any, map[string]any, error) {
	filter := ""
	if req.StudyID != "" {
		filter = fmt.Sprintf(" AND s.study_id = '%s'", req.StudyID)
	}
	result, err := s.store.RunReadOnlyQuery(ctx, fmt.Sprintf(sitePerformanceSQL, filter), MaxReportRows)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to run site performance report: %w", err)
	}

	totalEnrolled := 0
	rateSum := 0.0
	for _, row := range result.Rows {
		totalEnrolled += asInt(row["current_enrollment"])
		rateSum += asFloat(row["enrollment_rate"])
	}
	avgRate := 0.0
	if result.RowCount > 0 {
		avgRate = math.Round(rateSum/float64(result.RowCount)*100) / 100
	}
	summary := map[string]any{
		"total_sites":             result.RowCount,
		"total_enrolled":          totalEnrolled,
		"average_enrollment_rate": avgRate,
	}
	return result.Rows, summary, nil
}

func (s *Service) qualityEvents(ctx context.Context, req Request) ([]map[string]any, map[string]any, error) {
	events, err := s.store.ListQualityEvents(ctx, storage.QualityEventListParams{
		SiteID: req.SiteID,
		Limit:  MaxReportRows,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list quality events: %w", err)
	}

	bySeverity := map[string]int{}
	open := 0
	records := make([]map[string]any, 0, len(events))
	for _, e := range events {
		bySeverity[e.Severity]++
		if e.ResolutionStatus == "open" {
			open++
		}
		records = append(records, map[string]any{
			"event_id":          e.EventID,
			"event_type":        e.EventType,
			"severity":          e.Severity,
			"site_id":           e.SiteID,
			"product_id":        e.ProductID,
			"event_date":        e.EventDate,
			"resolution_status": e.ResolutionStatus,
		})
	}
	summary := map[string]any{
		"total_events": len(events),
		"open_events":  open,
		"by_severity":  bySeverity,
	}
	return records, summary, nil
}

func (s *Service) temperatureCompliance(ctx context.Context) ([]map[string]any, map[string]any, error) {
	window := 30 * 24 * time.Hour
	stats, err := s.store.TemperatureCompliance(ctx, window)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to compute temperature compliance: %w", err)
	}
	alerts, err := s.store.RecentTemperatureAlerts(ctx, window)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list temperature alerts: %w", err)
	}

	records := make([]map[string]any, 0, len(alerts))
	for _, a := range alerts {
		records = append(records, map[string]any{
			"log_id":              a.LogID,
			"shipment_number":     a.ShipmentNumber,
			"recorded_at":         a.RecordedAt,
			"temperature_celsius": a.TemperatureCelsius,
			"humidity_percent":    a.HumidityPercent,
			"excursion_detected":  a.ExcursionDetected,
		})
	}
	summary := map[string]any{
		"readings":         stats.Readings,
		"excursions":       stats.Excursions,
		"compliance_pct":   stats.CompliancePct,
		"alerts_triggered": stats.AlertsTriggered,
		"window_days":      30,
	}
	return records, summary, nil
}

func (s *Service) enrollmentProgress(ctx context.Context) ([]map[string]any, map[string]any, error) {
	stats, err := s.store.EnrollmentStats(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to compute enrollment stats: %w", err)
	}
	studies, err := s.store.ListStudies(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list studies: %w", err)
	}

	records := make([]map[string]any, 0, len(studies))
	for _, st := range studies {
		pct := 0.0
		if st.TargetEnrollment > 0 {
			pct = math.Round(float64(st.CurrentEnrollment)/float64(st.TargetEnrollment)*1000) / 10
		}
		records = append(records, map[string]any{
			"study_id":           st.StudyID,
			"study_name":         st.StudyName,
			"target_enrollment":  st.TargetEnrollment,
			"current_enrollment": st.CurrentEnrollment,
			"percent_of_target":  pct,
		})
	}
	summary := map[string]any{
		"total_target":    stats.TotalTarget,
		"total_current":   stats.TotalCurrent,
		"active_studies":  stats.ActiveStudies,
		"active_sites":    stats.ActiveSites,
		"behind_schedule": len(stats.BehindSchedule),
	}
	return records, summary, nil
}

func (s *Service) depotUtilization(ctx context.Context) ([]map[string]any, map[string]any, error) {
	depots, err := s.store.ListDepots(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list depots: %w", err)
	}

	utilSum := 0.0
	constrained := 0
	records := make([]map[string]any, 0, len(depots))
	for _, d := range depots {
		utilSum += d.CurrentUtilization
		// Utilization is stored as a 0..1 fraction.
		if d.CurrentUtilization > 0.85 {
			constrained++
		}
		records = append(records, map[string]any{
			"depot_id":            d.DepotID,
			"depot_name":          d.DepotName,
			"region":              d.Region,
			"capacity_units":      d.CapacityUnits,
			"current_utilization": d.CurrentUtilization,
			"status":              d.Status,
		})
	}
	avgUtilPct := 0.0
	if len(depots) > 0 {
		avgUtilPct = math.Round(utilSum/float64(len(depots))*1000) / 10
	}
	summary := map[string]any{
		"total_depots":            len(depots),
		"average_utilization_pct": avgUtilPct,
		"over_capacity":           constrained,
	}
	return records, summary, nil
}

func (s *Service) vendorPerformance(ctx context.Context) ([]map[string]any, map[string]any, error) {
	vendors, err := s.store.ListVendors(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list vendors: %w", err)
	}

	ratingSum := 0.0
	qualified := 0
	records := make([]map[string]any, 0, len(vendors))
	for _, v := range vendors {
		ratingSum += v.PerformanceRating
		if v.QualificationStatus == "qualified" {
			qualified++
		}
		records = append(records, map[string]any{
			"vendor_id":            v.VendorID,
			"vendor_name":          v.VendorName,
			"vendor_type":          v.VendorType,
			"country":              v.Country,
			"qualification_status": v.QualificationStatus,
			"performance_rating":   v.PerformanceRating,
		})
	}
	avgRating := 0.0
	if len(vendors) > 0 {
		avgRating = math.Round(ratingSum/float64(len(vendors))*100) / 100
	}
	summary := map[string]any{
		"total_vendors":  len(vendors),
		"average_rating": avgRating,
		"qualified":      qualified,
	}
	return records, summary, nil
}

// asInt coerces the numeric types the database driver may return.
func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

// asFloat coerces numeric and pgx numeric-text values to float64.
func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		var f float64
		if _, err := fmt.Sscanf(n, "%g", &f); err == nil {
			return f
		}
		return 0
	default:
		return 0
	}
}
