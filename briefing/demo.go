package briefing

import "time"

// demoMorningBrief returns the fixed morning brief used in demo mode.
// The content mirrors the demo dataset so drill-down links resolve.
func (s *Service) demoMorningBrief(day time.Time) *Brief {
	now := time.Now().UTC()
	expected := day.Add(30 * time.Hour)

	return &Brief{
		Date: day.Format("2006-01-02"),
		Type: TypeMorning,
		Mode: ModeDemo,
		Summary: Summary{
			CriticalAlerts:     3,
			SitesLowOnStock:    2,
			ActiveShipments:    4,
			DelayedShipments:   1,
			TemperatureAlerts:  1,
			EnrollmentPercent:  77.4,
			OnTimeDeliveryRate: 93.3,
		},
		Sections: Sections{
			Alerts: []Alert{
				{
					EventID:     "QE-001",
					EventType:   "temperature_excursion",
					Severity:    "critical",
					SiteID:      "SITE-005",
					ProductID:   "PROD-003",
					Description: "Refrigerator excursion to 11.2C for 3 hours during weekend",
					EventDate:   now.AddDate(0, 0, -1),
					Status:      "open",
				},
				{
					EventID:     "QE-002",
					EventType:   "shipment_damage",
					Severity:    "high",
					SiteID:      "SITE-003",
					ProductID:   "PROD-001",
					Description: "Secondary packaging crushed on arrival, 12 units quarantined",
					EventDate:   now.AddDate(0, 0, -2),
					Status:      "investigating",
				},
				{
					EventID:     "QE-003",
					EventType:   "documentation",
					Severity:    "high",
					SiteID:      "SITE-004",
					ProductID:   "PROD-003",
					Description: "Chain of custody form missing courier signature",
					EventDate:   now.AddDate(0, 0, -3),
					Status:      "open",
				},
			},
			InventoryStatus: []SiteInventory{
				{
					SiteID:         "SITE-005",
					SiteName:       "City Medical Center",
					LowItems:       1,
					TotalAvailable: 12,
					Message:        "Stock will run out in 3 days at the current dispensing rate",
				},
				{
					SiteID:         "SITE-004",
					SiteName:       "Northside Clinic",
					LowItems:       1,
					TotalAvailable: 28,
					Message:        "1 item(s) below minimum stock level",
				},
			},
			Shipments: []ShipmentLine{
				{ShipmentID: "SHIP-011", ShipmentNumber: "SN-2024-0011", SiteID: "SITE-005", Status: "in_transit", Priority: "urgent", Carrier: "World Courier", ExpectedDelivery: &expected},
				{ShipmentID: "SHIP-021", ShipmentNumber: "SN-2024-0021", SiteID: "SITE-004", Status: "delayed", Priority: "high", Carrier: "Marken"},
				{ShipmentID: "SHIP-031", ShipmentNumber: "SN-2024-0031", SiteID: "SITE-006", Status: "in_transit", Priority: "standard", Carrier: "FedEx"},
				{ShipmentID: "SHIP-030", ShipmentNumber: "SN-2024-0030", SiteID: "SITE-002", Status: "pending", Priority: "standard", Carrier: "DHL"},
			},
			Enrollment: &Enrollment{
				TotalTarget:   425,
				TotalCurrent:  311,
				PercentOfGoal: 73.2,
				ActiveStudies: 2,
				ActiveSites:   6,
				BehindSchedule: []BehindScheduler{
					{StudyID: "STUDY-002", StudyName: "Phase II Oncology Trial", PercentOfTarget: 59.0},
				},
			},
			RiskInsights: []RiskInsight{
				{
					Band:    "critical",
					Sites:   []string{"SITE-005"},
					Message: "1 site(s) in the critical risk band, immediate supply review required",
				},
				{
					Band:    "medium",
					Sites:   []string{"SITE-003", "SITE-004", "SITE-006"},
					Message: "3 site(s) in the medium risk band, monitor closely",
				},
			},
			Recommendations: []string{
				"Expedite resupply for SITE-005, stock is critically low",
				"Review 1 delayed shipment(s) and notify the affected sites",
				"Investigate 1 temperature excursion(s) recorded in the last 24 hours",
				"Review enrollment plan for STUDY-002, tracking at 59% of target",
			},
		},
		AlgorithmsUsed: []string{"rule_based_recommendations", "risk_banding", "on_time_rate_30d"},
		GeneratedAt:    now,
	}
}

// demoEveningSummary returns the fixed evening summary used in demo mode.
func (s *Service) demoEveningSummary(day time.Time) *Brief {
	now := time.Now().UTC()
	delivered := day.Add(14 * time.Hour)

	return &Brief{
		Date: day.Format("2006-01-02"),
		Type: TypeEvening,
		Mode: ModeDemo,
		Summary: Summary{
			CriticalAlerts:     3,
			DelayedShipments:   1,
			OnTimeDeliveryRate: 93.3,
		},
		Sections: Sections{
			ResolvedEvents: []Alert{
				{
					EventID:     "QE-004",
					EventType:   "labeling",
					Severity:    "medium",
					SiteID:      "SITE-002",
					ProductID:   "PROD-001",
					Description: "Expiry date font below minimum size on 3 cartons",
					EventDate:   now.AddDate(0, 0, -9),
					Status:      "resolved",
				},
			},
			Deliveries: []DeliveryLine{
				{ShipmentID: "SHIP-010", SiteID: "SITE-001", OnTime: true, ActualDelivery: &delivered},
			},
			EnrollmentsToday:   3,
			InventoryMovements: 5,
			OvernightShipments: []ShipmentLine{
				{ShipmentID: "SHIP-011", ShipmentNumber: "SN-2024-0011", SiteID: "SITE-005", Status: "in_transit", Priority: "urgent", Carrier: "World Courier"},
			},
			TomorrowPriorities: []string{
				"Receive priority shipment SHIP-011 at SITE-005",
				"Follow up on open critical event QE-001",
				"Confirm replacement delivery window for delayed shipment SHIP-021",
			},
		},
		AlgorithmsUsed: []string{"rule_based_recommendations", "on_time_rate_daily"},
		GeneratedAt:    now,
	}
}
