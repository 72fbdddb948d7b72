package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

const shipmentColumns = `shipment_id, shipment_number, origin_depot_id, destination_site_id,
	       status, priority, carrier, tracking_number, shipped_date, expected_delivery,
	       actual_delivery, delivery_delay_days, temperature_controlled, created_at, updated_at`

// ListShipments returns shipments matching the given filters, newest first
func (s *PostgresStore) ListShipments(ctx context.Context, params ShipmentListParams) ([]*Shipment, error) {
	query := `
		SELECT ` + shipmentColumns + `
		FROM gold_shipments
		WHERE 1=1
	`
	args := []any{}
	argNum := 1

	if params.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, params.Status)
		argNum++
	}
	if params.Carrier != "" {
		query += fmt.Sprintf(" AND carrier = $%d", argNum)
		args = append(args, params.Carrier)
		argNum++
	}
	if params.DestinationSiteID != "" {
		query += fmt.Sprintf(" AND destination_site_id = $%d", argNum)
		args = append(args, params.DestinationSiteID)
		argNum++
	}

	query += " ORDER BY created_at DESC"

	if params.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, params.Limit)
		argNum++
	}
	if params.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, params.Offset)
	}

	return s.queryShipments(ctx, query, args...)
}

// GetShipment retrieves a shipment by ID
func (s *PostgresStore) GetShipment(ctx context.Context, shipmentID string) (*Shipment, error) {
	query := `
		SELECT ` + shipmentColumns + `
		FROM gold_shipments
		WHERE shipment_id = $1
	`

	sh, err := scanShipment(s.getQuerier(ctx).QueryRow(ctx, query, shipmentID))
	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("%w: shipment %s", ErrNotFound, shipmentID)
	}
	if err != nil {
		return nil, err
	}
	return sh, nil
}

// ActiveShipments returns in-transit and pending shipments, soonest expected first
func (s *PostgresStore) ActiveShipments(ctx context.Context, limit int) ([]*Shipment, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT ` + shipmentColumns + `
		FROM gold_shipments
		WHERE status IN ('in_transit', 'pending')
		ORDER BY expected_delivery ASC NULLS LAST
		LIMIT $1
	`

	return s.queryShipments(ctx, query, limit)
}

// DelayedShipmentCount counts shipments flagged delayed or in transit past
// their expected delivery
func (s *PostgresStore) DelayedShipmentCount(ctx context.Context) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM gold_shipments
		WHERE status = 'delayed'
		   OR (status = 'in_transit' AND expected_delivery IS NOT NULL AND expected_delivery < NOW())
	`

	var count int
	if err := s.getQuerier(ctx).QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count delayed shipments: %w", err)
	}
	return count, nil
}

// DeliveriesBetween returns shipments delivered within [from, to)
func (s *PostgresStore) DeliveriesBetween(ctx context.Context, from, to time.Time) ([]*Shipment, error) {
	query := `
		SELECT ` + shipmentColumns + `
		FROM gold_shipments
		WHERE actual_delivery >= $1 AND actual_delivery < $2
		ORDER BY actual_delivery DESC
	`

	return s.queryShipments(ctx, query, from, to)
}

// ShipmentsExpectedBetween returns undelivered shipments expected within [from, to)
func (s *PostgresStore) ShipmentsExpectedBetween(ctx context.Context, from, to time.Time) ([]*Shipment, error) {
	query := `
		SELECT ` + shipmentColumns + `
		FROM gold_shipments
		WHERE actual_delivery IS NULL
		  AND expected_delivery >= $1 AND expected_delivery < $2
		ORDER BY expected_delivery ASC
	`

	return s.queryShipments(ctx, query, from, to)
}

// OnTimeDeliveryRate computes delivery punctuality over the trailing window.
// A delivery is on time when it arrived no later than expected.
func (s *PostgresStore) OnTimeDeliveryRate(ctx context.Context, window time.Duration) (*DeliveryStats, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE actual_delivery <= expected_delivery),
		       COALESCE(AVG(GREATEST(delivery_delay_days, 0)), 0)
		FROM gold_shipments
		WHERE actual_delivery IS NOT NULL
		  AND expected_delivery IS NOT NULL
		  AND actual_delivery >= $1
	`

	var stats DeliveryStats
	err := s.getQuerier(ctx).QueryRow(ctx, query, time.Now().Add(-window)).Scan(
		&stats.Delivered, &stats.OnTime, &stats.AvgDelayDay,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute on-time delivery rate: %w", err)
	}
	if stats.Delivered > 0 {
		stats.OnTimeRate = float64(stats.OnTime) / float64(stats.Delivered) * 100
	}
	return &stats, nil
}

// CarrierDelayStats aggregates historical delay behavior per carrier
func (s *PostgresStore) CarrierDelayStats(ctx context.Context) ([]*CarrierStats, error) {
	query := `
		SELECT carrier,
		       COUNT(*),
		       COUNT(*) FILTER (WHERE delivery_delay_days > 0 OR status = 'delayed'),
		       COALESCE(AVG(GREATEST(delivery_delay_days, 0)), 0)
		FROM gold_shipments
		WHERE carrier <> ''
		GROUP BY carrier
		ORDER BY carrier
	`

	rows, err := s.getQuerier(ctx).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate carrier delays: %w", err)
	}
	defer rows.Close()

	var stats []*CarrierStats
	for rows.Next() {
		var cs CarrierStats
		if err := rows.Scan(&cs.Carrier, &cs.Shipments, &cs.Delayed, &cs.AvgDelayDays); err != nil {
			return nil, fmt.Errorf("failed to scan carrier stats: %w", err)
		}
		stats = append(stats, &cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating carrier stats: %w", err)
	}

	return stats, nil
}

// RecentTemperatureAlerts returns triggered temperature alerts within the window
func (s *PostgresStore) RecentTemperatureAlerts(ctx context.Context, window time.Duration) ([]*TemperatureAlert, error) {
	query := `
		SELECT t.log_id, t.shipment_id, s.shipment_number, t.recorded_at,
		       t.temperature_celsius, t.humidity_percent, t.excursion_detected
		FROM gold_temperature_logs t
		JOIN gold_shipments s ON s.shipment_id = t.shipment_id
		WHERE t.alert_triggered = TRUE AND t.recorded_at >= $1
		ORDER BY t.recorded_at DESC
	`

	rows, err := s.getQuerier(ctx).Query(ctx, query, time.Now().Add(-window))
	if err != nil {
		return nil, fmt.Errorf("failed to list temperature alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*TemperatureAlert
	for rows.Next() {
		var a TemperatureAlert
		if err := rows.Scan(
			&a.LogID, &a.ShipmentID, &a.ShipmentNumber, &a.RecordedAt,
			&a.TemperatureCelsius, &a.HumidityPercent, &a.ExcursionDetected,
		); err != nil {
			return nil, fmt.Errorf("failed to scan temperature alert: %w", err)
		}
		alerts = append(alerts, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating temperature alerts: %w", err)
	}

	return alerts, nil
}

// TemperatureCompliance summarizes excursion-free readings over the window
func (s *PostgresStore) TemperatureCompliance(ctx context.Context, window time.Duration) (*ComplianceStats, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE excursion_detected),
		       COUNT(*) FILTER (WHERE alert_triggered)
		FROM gold_temperature_logs
		WHERE recorded_at >= $1
	`

	var stats ComplianceStats
	err := s.getQuerier(ctx).QueryRow(ctx, query, time.Now().Add(-window)).Scan(
		&stats.Readings, &stats.Excursions, &stats.AlertsTriggered,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute temperature compliance: %w", err)
	}
	if stats.Readings > 0 {
		stats.CompliancePct = float64(stats.Readings-stats.Excursions) / float64(stats.Readings) * 100
	} else {
		stats.CompliancePct = 100
	}
	return &stats, nil
}

// TemperatureSeries returns raw readings within the window, oldest first
func (s *PostgresStore) TemperatureSeries(ctx context.Context, window time.Duration) ([]*TemperatureReading, error) {
	query := `
		SELECT shipment_id, recorded_at, temperature_celsius
		FROM gold_temperature_logs
		WHERE recorded_at >= $1
		ORDER BY shipment_id, recorded_at ASC
	`

	rows, err := s.getQuerier(ctx).Query(ctx, query, time.Now().Add(-window))
	if err != nil {
		return nil, fmt.Errorf("failed to list temperature series: %w", err)
	}
	defer rows.Close()

	var readings []*TemperatureReading
	for rows.Next() {
		var r TemperatureReading
		if err := rows.Scan(&r.ShipmentID, &r.RecordedAt, &r.TemperatureCelsius); err != nil {
			return nil, fmt.Errorf("failed to scan temperature reading: %w", err)
		}
		readings = append(readings, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating temperature series: %w", err)
	}

	return readings, nil
}

// queryShipments runs a shipment query and scans all rows
func (s *PostgresStore) queryShipments(ctx context.Context, query string, args ...any) ([]*Shipment, error) {
	rows, err := s.getQuerier(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query shipments: %w", err)
	}
	defer rows.Close()

	var shipments []*Shipment
	for rows.Next() {
		sh, err := scanShipment(rows)
		if err != nil {
			return nil, err
		}
		shipments = append(shipments, sh)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shipments: %w", err)
	}

	return shipments, nil
}
