package report

// Demo datasets mirror the column names of the production queries so
// CSV rendering behaves the same in both modes.

func demoDataset(reportType string) ([]map[string]any, map[string]any) {
	switch reportType {
	case TypeInventorySummary:
		records := []map[string]any{
			{
				"site_id": "SITE-001", "site_name": "Memorial Hospital",
				"total_units": 280, "available_units": 250,
				"status": "Healthy", "expiry_status": "Normal", "days_of_supply": 45,
			},
			{
				"site_id": "SITE-005", "site_name": "City Medical Center",
				"total_units": 30, "available_units": 20,
				"status": "Critical", "expiry_status": "Critical", "days_of_supply": 4,
			},
		}
		return records, summarizeInventory(records)

	case TypeShipmentStatus:
		records := []map[string]any{
			{
				"shipment_id": "SHIP-010", "shipment_number": "SHP-2025-0110",
				"origin": "DEPOT-001", "destination": "SITE-005",
				"status": "in_transit", "priority": "urgent",
				"carrier": "FedEx Priority", "tracking_number": "FDX555444333",
				"shipped_date": "2026-08-18", "eta": "2026-08-24",
				"days_delayed": 0, "excursion_count": 0,
			},
			{
				"shipment_id": "SHIP-020", "shipment_number": "SHP-2025-0120",
				"origin": "DEPOT-002", "destination": "SITE-003",
				"status": "delayed", "priority": "standard",
				"carrier": "DHL", "tracking_number": "DHL889900112",
				"shipped_date": "2026-08-05", "eta": "2026-08-12",
				"days_delayed": 7, "excursion_count": 1,
			},
		}
		return records, summarizeShipments(records)

	case TypeSitePerformance:
		records := []map[string]any{
			{
				"site_id": "SITE-001", "site_name": "Memorial Hospital", "country": "United States",
				"enrollment_rate": 3.5, "current_enrollment": 45, "target_enrollment": 50,
				"progress_percentage": 90.0, "inventory_status": "Healthy", "performance_score": 0.92,
			},
			{
				"site_id": "SITE-005", "site_name": "City Medical Center", "country": "Germany",
				"enrollment_rate": 1.2, "current_enrollment": 12, "target_enrollment": 50,
				"progress_percentage": 24.0, "inventory_status": "Critical", "performance_score": 0.58,
			},
		}
		summary := map[string]any{
			"total_sites":             10,
			"active_sites":            8,
			"average_enrollment_rate": 2.3,
			"total_enrolled":          245,
			"total_target":            500,
		}
		return records, summary

	case TypeQualityEvents:
		records := []map[string]any{
			{
				"event_id": "QE-001", "event_type": "temperature_excursion", "severity": "major",
				"site_id": "SITE-005", "product_id": "PROD-003",
				"event_date": "2026-08-10", "resolution_status": "open",
			},
			{
				"event_id": "QE-002", "event_type": "damaged_packaging", "severity": "minor",
				"site_id": "SITE-002", "product_id": "PROD-001",
				"event_date": "2026-07-28", "resolution_status": "resolved",
			},
		}
		summary := map[string]any{
			"total_events": 2,
			"open_events":  1,
			"by_severity":  map[string]int{"major": 1, "minor": 1},
		}
		return records, summary

	case TypeTemperatureCompliance:
		records := []map[string]any{
			{
				"log_id": "LOG-0101", "shipment_number": "SHP-2025-0110",
				"recorded_at": "2026-08-19T14:00:00Z", "temperature_celsius": 9.8,
				"humidity_percent": 55.0, "excursion_detected": true,
			},
			{
				"log_id": "LOG-0144", "shipment_number": "SHP-2025-0121",
				"recorded_at": "2026-08-20T03:00:00Z", "temperature_celsius": 8.4,
				"humidity_percent": 48.0, "excursion_detected": true,
			},
		}
		summary := map[string]any{
			"readings":         1440,
			"excursions":       12,
			"compliance_pct":   99.2,
			"alerts_triggered": 2,
			"window_days":      30,
		}
		return records, summary

	case TypeEnrollmentProgress:
		records := []map[string]any{
			{
				"study_id": "STUDY-001", "study_name": "Phase III Oncology Trial",
				"target_enrollment": 500, "current_enrollment": 245, "percent_of_target": 49.0,
			},
			{
				"study_id": "STUDY-002", "study_name": "Phase II Cardiology Study",
				"target_enrollment": 200, "current_enrollment": 178, "percent_of_target": 89.0,
			},
		}
		summary := map[string]any{
			"total_target":    700,
			"total_current":   423,
			"active_studies":  2,
			"active_sites":    10,
			"behind_schedule": 1,
		}
		return records, summary

	case TypeDepotUtilization:
		records := []map[string]any{
			{
				"depot_id": "DEPOT-001", "depot_name": "Northeast Distribution Center",
				"region": "North America", "capacity_units": 50000,
				"current_utilization": 0.64, "status": "operational",
			},
			{
				"depot_id": "DEPOT-002", "depot_name": "EU Central Depot",
				"region": "Europe", "capacity_units": 35000,
				"current_utilization": 0.88, "status": "operational",
			},
		}
		summary := map[string]any{
			"total_depots":            2,
			"average_utilization_pct": 76.0,
			"over_capacity":           1,
		}
		return records, summary

	case TypeVendorPerformance:
		records := []map[string]any{
			{
				"vendor_id": "VEND-001", "vendor_name": "Global Pharma Logistics",
				"vendor_type": "distribution", "country": "United States",
				"qualification_status": "qualified", "performance_rating": 4.6,
			},
			{
				"vendor_id": "VEND-002", "vendor_name": "ColdChain Express",
				"vendor_type": "cold_chain", "country": "Netherlands",
				"qualification_status": "qualified", "performance_rating": 4.2,
			},
			{
				"vendor_id": "VEND-003", "vendor_name": "BioPack Solutions",
				"vendor_type": "packaging", "country": "Ireland",
				"qualification_status": "conditional", "performance_rating": 3.4,
			},
		}
		summary := map[string]any{
			"total_vendors":  3,
			"average_rating": 4.07,
			"qualified":      2,
		}
		return records, summary
	}
	return nil, map[string]any{}
}
