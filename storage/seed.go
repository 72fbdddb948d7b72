package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// SeedDemoData loads the demo fixture set used by demo mode and local
// development. All statements upsert so reseeding is safe.
func (s *PostgresStore) SeedDemoData(ctx context.Context) error {
	now := time.Now()
	batch := &pgx.Batch{}

	studies := []struct {
		id, name, protocol, phase, area, status string
		target, current                         int
		startOffset                             int
	}{
		{"STUDY-001", "ONCO-PREVENT Phase III", "ONC-2024-001", "Phase III", "Oncology", "active", 500, 412, -400},
		{"STUDY-002", "CARDIO-SHIELD Phase II", "CRD-2024-002", "Phase II", "Cardiology", "active", 200, 118, -250},
	}
	for _, st := range studies {
		batch.Queue(`
			INSERT INTO gold_global_studies (study_id, study_name, protocol_number, phase,
				therapeutic_area, status, start_date, estimated_completion,
				target_enrollment, current_enrollment, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
			ON CONFLICT (study_id) DO UPDATE SET
				current_enrollment = EXCLUDED.current_enrollment,
				status = EXCLUDED.status,
				updated_at = NOW()`,
			st.id, st.name, st.protocol, st.phase, st.area, st.status,
			now.AddDate(0, 0, st.startOffset), now.AddDate(1, 0, 0), st.target, st.current,
		)
	}

	sites := []struct {
		id, study, name, number, country, city string
		target, current                        int
		performance, risk                      float64
	}{
		{"SITE-001", "STUDY-001", "Memorial Hospital", "1001", "United States", "Boston", 80, 74, 0.92, 0.15},
		{"SITE-002", "STUDY-001", "University Medical Center", "1002", "United States", "Chicago", 75, 61, 0.85, 0.28},
		{"SITE-003", "STUDY-001", "St. Mary's Research Institute", "1003", "Germany", "Munich", 70, 58, 0.81, 0.35},
		{"SITE-004", "STUDY-002", "Northside Clinic", "2001", "Canada", "Toronto", 60, 31, 0.68, 0.55},
		{"SITE-005", "STUDY-002", "City Medical Center", "2002", "United States", "Denver", 70, 38, 0.54, 0.82},
		{"SITE-006", "STUDY-002", "Pacific Health Institute", "2003", "Japan", "Osaka", 70, 49, 0.77, 0.41},
	}
	for _, site := range sites {
		batch.Queue(`
			INSERT INTO gold_clinical_sites (site_id, study_id, site_name, site_number,
				country, city, status, activation_date, target_enrollment,
				current_enrollment, performance_score, risk_score, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, 'active', $7, $8, $9, $10, $11, NOW(), NOW())
			ON CONFLICT (site_id) DO UPDATE SET
				current_enrollment = EXCLUDED.current_enrollment,
				performance_score = EXCLUDED.performance_score,
				risk_score = EXCLUDED.risk_score,
				updated_at = NOW()`,
			site.id, site.study, site.name, site.number, site.country, site.city,
			now.AddDate(0, -10, 0), site.target, site.current, site.performance, site.risk,
		)
	}

	products := []struct {
		id, study, name, ptype, form, strength, storage string
		shelfMonths                                     int
		unitCost                                        float64
		coldChain                                       bool
	}{
		{"PROD-001", "STUDY-001", "Oncoprevin 50mg", "investigational", "tablet", "50mg", "15-25C", 24, 185.50, false},
		{"PROD-002", "STUDY-001", "Oncoprevin Placebo", "placebo", "tablet", "50mg", "15-25C", 36, 12.00, false},
		{"PROD-003", "STUDY-002", "Cardioshield Injection", "investigational", "injection", "10mg/mL", "2-8C", 18, 420.00, true},
	}
	for _, p := range products {
		batch.Queue(`
			INSERT INTO gold_clinical_products (product_id, study_id, product_name,
				product_type, dosage_form, strength, storage_conditions,
				shelf_life_months, unit_cost, requires_cold_chain)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (product_id) DO UPDATE SET
				unit_cost = EXCLUDED.unit_cost`,
			p.id, p.study, p.name, p.ptype, p.form, p.strength, p.storage,
			p.shelfMonths, p.unitCost, p.coldChain,
		)
	}

	depots := []struct {
		id, name, region, country, city string
		capacity                        int
		utilization                     float64
		zones                           string
	}{
		{"DEPOT-001", "Northeast Distribution Center", "North America", "United States", "Newark", 50000, 0.64, "ambient,refrigerated"},
		{"DEPOT-002", "EU Central Depot", "Europe", "Belgium", "Brussels", 35000, 0.71, "ambient,refrigerated,frozen"},
	}
	for _, d := range depots {
		batch.Queue(`
			INSERT INTO gold_regional_depots (depot_id, depot_name, region, country, city,
				capacity_units, current_utilization, temperature_zones, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'operational')
			ON CONFLICT (depot_id) DO UPDATE SET
				current_utilization = EXCLUDED.current_utilization`,
			d.id, d.name, d.region, d.country, d.city, d.capacity, d.utilization, d.zones,
		)
	}

	vendors := []struct {
		id, name, vtype, country, status string
		rating                           float64
	}{
		{"VEND-001", "Global Pharma Logistics", "distribution", "United States", "qualified", 4.6},
		{"VEND-002", "ColdChain Express", "cold_chain", "Netherlands", "qualified", 4.2},
		{"VEND-003", "BioPack Solutions", "packaging", "Ireland", "conditional", 3.4},
	}
	for _, v := range vendors {
		batch.Queue(`
			INSERT INTO gold_global_vendors (vendor_id, vendor_name, vendor_type, country,
				qualification_status, performance_rating, last_audit_date)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (vendor_id) DO UPDATE SET
				performance_rating = EXCLUDED.performance_rating,
				qualification_status = EXCLUDED.qualification_status`,
			v.id, v.name, v.vtype, v.country, v.status, v.rating, now.AddDate(0, -4, 0),
		)
	}

	inventory := []struct {
		id, site, product, batchNo string
		onHand, available, minimum int
		expiryDays                 int
		zone                       string
	}{
		{"INV-001", "SITE-001", "PROD-001", "LOT-24A101", 280, 265, 60, 45, "ambient"},
		{"INV-002", "SITE-001", "PROD-002", "LOT-24P015", 140, 138, 40, 200, "ambient"},
		{"INV-003", "SITE-002", "PROD-001", "LOT-24A102", 96, 88, 60, 120, "ambient"},
		{"INV-004", "SITE-003", "PROD-001", "LOT-24A102", 74, 70, 50, 120, "ambient"},
		{"INV-005", "SITE-004", "PROD-003", "LOT-24C033", 22, 18, 25, 75, "refrigerated"},
		{"INV-006", "SITE-005", "PROD-003", "LOT-24C031", 6, 4, 25, 21, "refrigerated"},
		{"INV-007", "SITE-006", "PROD-003", "LOT-24C034", 48, 41, 25, 160, "refrigerated"},
	}
	for _, inv := range inventory {
		batch.Queue(`
			INSERT INTO gold_inventory (inventory_id, site_id, product_id, batch_number,
				quantity_on_hand, quantity_available, quantity_allocated,
				minimum_stock_level, expiry_date, storage_location, temperature_zone,
				last_counted_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 'pharmacy', $10, NOW(), NOW())
			ON CONFLICT (inventory_id) DO UPDATE SET
				quantity_on_hand = EXCLUDED.quantity_on_hand,
				quantity_available = EXCLUDED.quantity_available,
				expiry_date = EXCLUDED.expiry_date,
				updated_at = NOW()`,
			inv.id, inv.site, inv.product, inv.batchNo, inv.onHand, inv.available,
			inv.onHand-inv.available, inv.minimum, now.AddDate(0, 0, inv.expiryDays), inv.zone,
		)
	}

	shipments := []struct {
		id, number, depot, site, status, priority, carrier, tracking string
		shippedDays, expectedDays                                    int
		actualDays                                                   *int
		delayDays                                                    int
		coldChain                                                    bool
	}{
		{"SHIP-010", "SHP-2025-0110", "DEPOT-001", "SITE-001", "in_transit", "high", "FedEx Priority", "FDX555444333", -2, 1, nil, 0, false},
		{"SHIP-011", "SHP-2025-0111", "DEPOT-001", "SITE-005", "pending", "urgent", "FedEx Priority", "FDX555444401", 0, 2, nil, 0, true},
		{"SHIP-020", "SHP-2025-0120", "DEPOT-002", "SITE-003", "delayed", "standard", "DHL", "DHL889900112", -12, -7, nil, 7, false},
		{"SHIP-021", "SHP-2025-0121", "DEPOT-002", "SITE-004", "in_transit", "high", "DHL", "DHL889900145", -3, 1, nil, 0, true},
		{"SHIP-030", "SHP-2025-0130", "DEPOT-001", "SITE-002", "delivered", "standard", "UPS", "1Z999AA10123", -6, -1, intPtr(-1), 0, false},
		{"SHIP-031", "SHP-2025-0131", "DEPOT-001", "SITE-006", "delivered", "standard", "FedEx Priority", "FDX555444288", -8, -3, intPtr(-2), 0, true},
	}
	for _, sh := range shipments {
		var actual *time.Time
		if sh.actualDays != nil {
			t := now.AddDate(0, 0, *sh.actualDays)
			actual = &t
		}
		batch.Queue(`
			INSERT INTO gold_shipments (shipment_id, shipment_number, origin_depot_id,
				destination_site_id, status, priority, carrier, tracking_number,
				shipped_date, expected_delivery, actual_delivery, delivery_delay_days,
				temperature_controlled, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
			ON CONFLICT (shipment_id) DO UPDATE SET
				status = EXCLUDED.status,
				expected_delivery = EXCLUDED.expected_delivery,
				actual_delivery = EXCLUDED.actual_delivery,
				delivery_delay_days = EXCLUDED.delivery_delay_days,
				updated_at = NOW()`,
			sh.id, sh.number, sh.depot, sh.site, sh.status, sh.priority, sh.carrier,
			sh.tracking, now.AddDate(0, 0, sh.shippedDays), now.AddDate(0, 0, sh.expectedDays),
			actual, sh.delayDays, sh.coldChain,
		)
	}

	events := []struct {
		id, etype, severity, site, product, batchNo, description, resolution string
		daysAgo                                                              int
	}{
		{"QE-001", "temperature_excursion", "critical", "SITE-005", "PROD-003", "LOT-24C031", "Refrigerator excursion to 11.2C for 3 hours during weekend", "open", 1},
		{"QE-002", "shipment_damage", "high", "SITE-003", "PROD-001", "LOT-24A102", "Secondary packaging crushed on arrival, 12 units quarantined", "investigating", 2},
		{"QE-003", "documentation", "high", "SITE-004", "PROD-003", "LOT-24C033", "Chain of custody form missing courier signature", "open", 3},
		{"QE-004", "labeling", "medium", "SITE-002", "PROD-001", "LOT-24A101", "Expiry date font below minimum size on 3 cartons", "resolved", 9},
	}
	for _, ev := range events {
		var resolvedAt *time.Time
		if ev.resolution == "resolved" {
			t := now.AddDate(0, 0, -1)
			resolvedAt = &t
		}
		batch.Queue(`
			INSERT INTO gold_quality_events (event_id, event_type, severity, site_id,
				product_id, batch_number, description, event_date, resolution_status,
				resolved_at, corrective_action)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, '')
			ON CONFLICT (event_id) DO UPDATE SET
				resolution_status = EXCLUDED.resolution_status,
				resolved_at = EXCLUDED.resolved_at`,
			ev.id, ev.etype, ev.severity, ev.site, ev.product, ev.batchNo,
			ev.description, now.AddDate(0, 0, -ev.daysAgo), ev.resolution, resolvedAt,
		)
	}

	results := s.getQuerier(ctx).SendBatch(ctx, batch)
	defer results.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to seed fixture %d: %w", i, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to close seed batch: %w", err)
	}

	if err := s.seedSubjects(ctx); err != nil {
		return err
	}
	return s.seedTemperatureLogs(ctx)
}

// seedSubjects spreads demo enrollments over the trailing 26 weeks so the
// weekly series has realistic shape
func (s *PostgresStore) seedSubjects(ctx context.Context) error {
	now := time.Now()
	batch := &pgx.Batch{}

	// Weekly enrollment counts, oldest week first. The ramp mirrors a study
	// that accelerated then slowed.
	weekly := []int{2, 2, 3, 3, 4, 5, 5, 6, 7, 7, 8, 8, 7, 7, 6, 6, 5, 5, 4, 4, 4, 3, 3, 3, 2, 2}
	sites := []struct{ site, study string }{
		{"SITE-001", "STUDY-001"}, {"SITE-002", "STUDY-001"}, {"SITE-003", "STUDY-001"},
		{"SITE-004", "STUDY-002"}, {"SITE-005", "STUDY-002"}, {"SITE-006", "STUDY-002"},
	}

	seq := 0
	for wi, count := range weekly {
		weekStart := now.AddDate(0, 0, -7*(len(weekly)-wi))
		for c := 0; c < count; c++ {
			seq++
			site := sites[seq%len(sites)]
			enrolled := weekStart.AddDate(0, 0, c%7)
			batch.Queue(`
				INSERT INTO gold_subjects (subject_id, site_id, study_id, enrollment_date,
					status, randomization_arm, last_visit_date, next_visit_date)
				VALUES ($1, $2, $3, $4, 'enrolled', $5, $6, $7)
				ON CONFLICT (subject_id) DO NOTHING`,
				fmt.Sprintf("SUBJ-%04d", seq), site.site, site.study, enrolled,
				[]string{"treatment", "control"}[seq%2], enrolled.AddDate(0, 0, 28),
				enrolled.AddDate(0, 0, 56),
			)
		}
	}

	results := s.getQuerier(ctx).SendBatch(ctx, batch)
	defer results.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to seed subject %d: %w", i, err)
		}
	}
	return results.Close()
}

// seedTemperatureLogs writes a short reading series per cold-chain shipment,
// including one excursion window on the delayed shipment
func (s *PostgresStore) seedTemperatureLogs(ctx context.Context) error {
	now := time.Now()
	batch := &pgx.Batch{}

	series := []struct {
		shipment string
		temps    []float64
	}{
		{"SHIP-011", []float64{4.8, 5.1, 5.0, 4.9, 5.2, 5.0}},
		{"SHIP-021", []float64{5.0, 5.3, 6.1, 9.4, 11.2, 6.8, 5.2}},
		{"SHIP-031", []float64{4.9, 5.0, 5.1, 5.0, 4.8, 5.0}},
	}

	logID := 0
	for _, sr := range series {
		for i, temp := range sr.temps {
			logID++
			excursion := temp > 8.0 || temp < 2.0
			batch.Queue(`
				INSERT INTO gold_temperature_logs (log_id, shipment_id, recorded_at,
					temperature_celsius, humidity_percent, excursion_detected, alert_triggered)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT (log_id) DO NOTHING`,
				fmt.Sprintf("TLOG-%04d", logID), sr.shipment,
				now.Add(-time.Duration(len(sr.temps)-i)*2*time.Hour),
				temp, 45.0+float64(i), excursion, excursion,
			)
		}
	}

	results := s.getQuerier(ctx).SendBatch(ctx, batch)
	defer results.Close()
	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to seed temperature log %d: %w", i, err)
		}
	}
	return results.Close()
}

func intPtr(v int) *int { return &v }
