package scenario

import (
	"fmt"
	"strings"
)

// catalog is the fixed scenario set, in id order.
var catalog = []*Definition{
	{
		ID:          "SCENARIO_01",
		Name:        "Emergency Stock Transfer",
		Description: "Site experiencing critical stock shortage requiring emergency transfer",
		Severity:    "critical",
		Triggers:    []string{"stock_level < critical_threshold", "patient_visit_upcoming", "no_resupply_planned"},
	},
	{
		ID:          "SCENARIO_02",
		Name:        "Temperature Excursion Response",
		Description: "Shipment experienced temperature deviation during transit",
		Severity:    "critical",
		Triggers:    []string{"temp_outside_range", "logger_alert", "shipment_in_transit"},
	},
	{
		ID:          "SCENARIO_03",
		Name:        "Enrollment Surge Management",
		Description: "Unexpected enrollment increase requiring forecast adjustment",
		Severity:    "high",
		Triggers:    []string{"enrollment_rate > forecast", "multiple_sites_affected"},
	},
	{
		ID:          "SCENARIO_04",
		Name:        "Shipment Delay Cascade",
		Description: "Carrier disruption delaying multiple shipments at once",
		Severity:    "high",
		Triggers:    []string{"carrier_disruption", "multiple_shipments_delayed", "buffer_stock_consumed"},
	},
	{
		ID:          "SCENARIO_05",
		Name:        "Batch Recall",
		Description: "Quality failure requiring retrieval of a distributed batch",
		Severity:    "critical",
		Triggers:    []string{"batch_quality_failure", "regulatory_notification", "affected_sites_identified"},
	},
	{
		ID:          "SCENARIO_06",
		Name:        "Depot Capacity Constraint",
		Description: "Storage facility approaching capacity limit",
		Severity:    "high",
		Triggers:    []string{"capacity_utilization > 85%", "incoming_shipments_planned"},
	},
	{
		ID:          "SCENARIO_07",
		Name:        "Customs Clearance Hold",
		Description: "Customs clearance issue causing cross-border shipment delay",
		Severity:    "high",
		Triggers:    []string{"customs_hold", "shipment_delayed > 5_days"},
	},
	{
		ID:          "SCENARIO_08",
		Name:        "Site Closure",
		Description: "Site termination requiring inventory retrieval and reallocation",
		Severity:    "high",
		Triggers:    []string{"site_termination_notice", "remaining_inventory_on_site"},
	},
	{
		ID:          "SCENARIO_09",
		Name:        "Demand Spike",
		Description: "Dispensing rate exceeding forecast and drawing down depot stock",
		Severity:    "medium",
		Triggers:    []string{"dispensing_rate > forecast", "depot_stock_declining"},
	},
	{
		ID:          "SCENARIO_10",
		Name:        "Vendor Audit Failure",
		Description: "Vendor audit findings requiring corrective action and requalification",
		Severity:    "medium",
		Triggers:    []string{"vendor_audit_failed", "capa_required"},
	},
	{
		ID:          "SCENARIO_11",
		Name:        "Cold Chain Equipment Failure",
		Description: "Refrigeration unit failure putting temperature-sensitive stock at risk",
		Severity:    "critical",
		Triggers:    []string{"freezer_alarm", "backup_unit_unavailable"},
	},
	{
		ID:          "SCENARIO_12",
		Name:        "Protocol Amendment Impact",
		Description: "Protocol change affecting supply requirements",
		Severity:    "medium",
		Triggers:    []string{"protocol_amendment_approved", "dosing_schedule_changed"},
	},
}

// buildPlan returns the plan skeleton for a scenario. The first two
// scenarios carry fully worked playbooks, the rest follow a generic
// structure.
func buildPlan(def *Definition) *Plan {
	switch def.ID {
	case "SCENARIO_01":
		return emergencyTransferPlan(def)
	case "SCENARIO_02":
		return temperatureExcursionPlan(def)
	default:
		return genericPlan(def)
	}
}

func emergencyTransferPlan(def *Definition) *Plan {
	return &Plan{
		ScenarioID:   def.ID,
		ScenarioName: def.Name,
		Severity:     def.Severity,
		Status:       "active",
		Summary:      planSummary(def),
		RecommendedActions: []*Action{
			{
				ActionID:      "ACT_01_001",
				Title:         "Verify Critical Stock Level",
				Description:   "Confirm current inventory and upcoming patient visits",
				Priority:      "critical",
				EstimatedTime: "15 minutes",
				AssignedTo:    "Supply Chain Manager",
			},
			{
				ActionID:      "ACT_01_002",
				Title:         "Identify Donor Site",
				Description:   "Find nearest site with excess stock meeting FEFO requirements",
				Priority:      "critical",
				EstimatedTime: "30 minutes",
				AssignedTo:    "Supply Chain Manager",
			},
			{
				ActionID:      "ACT_01_003",
				Title:         "Initiate Emergency Transfer",
				Description:   "Complete emergency transfer form and obtain approvals",
				Priority:      "critical",
				EstimatedTime: "2 hours",
				AssignedTo:    "Clinical Supply Coordinator",
			},
			{
				ActionID:      "ACT_01_004",
				Title:         "Arrange Express Courier",
				Description:   "Book temperature-controlled courier with tracking",
				Priority:      "high",
				EstimatedTime: "1 hour",
				AssignedTo:    "Logistics Coordinator",
			},
			{
				ActionID:      "ACT_01_005",
				Title:         "Update IVRS/IWRS",
				Description:   "Record transfer in randomization system",
				Priority:      "high",
				EstimatedTime: "30 minutes",
				AssignedTo:    "Clinical Supply Coordinator",
			},
		},
		SOPReferences: []string{
			"SOP-CSM-005: Emergency Stock Transfers",
			"SOP-CSM-012: FEFO Principles and Expiry Management",
			"SOP-LOG-003: Express Courier Shipping Procedures",
			"ICH GCP E6(R2): Section 5.14 - Investigational Product Accountability",
		},
		ComplianceNotes: "Ensure GDP compliance: maintain 2-8C throughout transfer, validate courier, document chain of custody, notify QA within 24 hours.",
		AIConfidence:    0.92,
	}
}

func temperatureExcursionPlan(def *Definition) *Plan {
	return &Plan{
		ScenarioID:   def.ID,
		ScenarioName: def.Name,
		Severity:     def.Severity,
		Status:       "active",
		Summary:      planSummary(def),
		RecommendedActions: []*Action{
			{
				ActionID:      "ACT_02_001",
				Title:         "Quarantine Affected Product",
				Description:   "Immediately isolate shipment, apply QUARANTINE label",
				Priority:      "critical",
				EstimatedTime: "10 minutes",
				AssignedTo:    "Site Pharmacist",
			},
			{
				ActionID:      "ACT_02_002",
				Title:         "Download Temperature Logger Data",
				Description:   "Extract complete temperature profile and MKT calculation",
				Priority:      "critical",
				EstimatedTime: "20 minutes",
				AssignedTo:    "QA Specialist",
			},
			{
				ActionID:      "ACT_02_003",
				Title:         "Notify Sponsor QA",
				Description:   "Report excursion details within 2 hours per procedure",
				Priority:      "critical",
				EstimatedTime: "30 minutes",
				AssignedTo:    "Clinical Supply Manager",
			},
			{
				ActionID:      "ACT_02_004",
				Title:         "Initiate Deviation Investigation",
				Description:   "Complete deviation report with root cause analysis",
				Priority:      "high",
				EstimatedTime: "4 hours",
				AssignedTo:    "QA Manager",
			},
			{
				ActionID:      "ACT_02_005",
				Title:         "Request Stability Assessment",
				Description:   "Submit data to stability team for usability decision",
				Priority:      "high",
				EstimatedTime: "1 hour",
				AssignedTo:    "QA Specialist",
			},
		},
		SOPReferences: []string{
			"SOP-QA-008: Temperature Excursion Management",
			"SOP-QA-015: Deviation Reporting and Investigation",
			"SOP-CSM-020: Product Quarantine and Disposition",
			"WHO Technical Report Series 961: Temperature Mapping",
		},
		ComplianceNotes: "Per EU GDP guidelines, product cannot be used until QA dispositions as Released. Document all actions in the device history record. CAPA required for systemic issues.",
		AIConfidence:    0.92,
	}
}

func genericPlan(def *Definition) *Plan {
	num := strings.TrimPrefix(def.ID, "SCENARIO_")
	return &Plan{
		ScenarioID:   def.ID,
		ScenarioName: def.Name,
		Severity:     def.Severity,
		Status:       "active",
		Summary:      planSummary(def),
		RecommendedActions: []*Action{
			{
				ActionID:      fmt.Sprintf("ACT_%s_001", num),
				Title:         "Assess Situation",
				Description:   fmt.Sprintf("Evaluate the %s scenario and confirm the trigger conditions", def.Name),
				Priority:      "high",
				EstimatedTime: "30 minutes",
				AssignedTo:    "Clinical Supply Manager",
			},
			{
				ActionID:      fmt.Sprintf("ACT_%s_002", num),
				Title:         "Execute Standard Procedure",
				Description:   "Work through the applicable standard operating procedure",
				Priority:      "high",
				EstimatedTime: "2 hours",
				AssignedTo:    "Team Lead",
			},
			{
				ActionID:      fmt.Sprintf("ACT_%s_003", num),
				Title:         "Brief Stakeholders",
				Description:   "Notify the study team and record the outcome",
				Priority:      "medium",
				EstimatedTime: "30 minutes",
				AssignedTo:    "Clinical Supply Coordinator",
			},
		},
		SOPReferences: []string{
			fmt.Sprintf("SOP-CSM-1%s: %s Management", num, def.Name),
			"ICH GCP E6(R2): Good Clinical Practice Guidelines",
		},
		ComplianceNotes: "Follow site-specific procedures and applicable regulatory requirements.",
		AIConfidence:    0.75,
	}
}

func planSummary(def *Definition) string {
	return fmt.Sprintf("%s: analysis and recommended response plan based on the current context.", def.Name)
}
