package rag

import "github.com/sallytsm/sally/vecstore"

// KnowledgeBase returns the built-in reference documents the assistant is
// grounded on. They cover the operating rules of the supply chain so answers
// stay consistent with how alerts and briefs are computed.
func KnowledgeBase() []vecstore.Document {
	return []vecstore.Document{
		{
			DocID: "kb-001",
			Content: "Stock level classification: an inventory item is LOW STOCK when its " +
				"quantity available falls below the site's minimum stock level. An item is " +
				"CRITICAL when fewer than 5 units remain available. Sites with critical items " +
				"appear in the morning brief and require a resupply shipment or an inter-site " +
				"transfer within 48 hours.",
			Metadata: map[string]string{"source": "SOP-CSM-001", "topic": "inventory"},
		},
		{
			DocID: "kb-002",
			Content: "Cold chain products must be stored and transported between 2C and 8C. " +
				"Any temperature reading outside this range is an excursion. Excursions trigger " +
				"an alert, a quarantine of the affected units, and a quality event of type " +
				"temperature_excursion. Product disposition requires stability data review by QA " +
				"before release or destruction.",
			Metadata: map[string]string{"source": "SOP-QA-008", "topic": "cold_chain"},
		},
		{
			DocID: "kb-003",
			Content: "Expiry management: items expiring within 90 days are NEAR EXPIRY and " +
				"flagged for relabeling assessment or redistribution to high-enrollment sites. " +
				"Items expiring within 30 days are URGENT and excluded from new dispensing " +
				"plans. Expired product must be quarantined and destroyed under a certificate " +
				"of destruction.",
			Metadata: map[string]string{"source": "SOP-CSM-003", "topic": "expiry"},
		},
		{
			DocID: "kb-004",
			Content: "Shipment delay escalation: a shipment is DELAYED when its status is set " +
				"to delayed or when it remains in transit past its expected delivery date. " +
				"Delays over 24 hours require carrier contact and a revised ETA. Delays over " +
				"72 hours on cold chain shipments require a replacement shipment from the " +
				"nearest regional depot.",
			Metadata: map[string]string{"source": "SOP-CSM-005", "topic": "shipments"},
		},
		{
			DocID: "kb-005",
			Content: "Site risk scoring: each site carries a risk score between 0 and 1 " +
				"derived from enrollment pace, protocol deviations, inventory discipline, and " +
				"data quality. Scores from 0.8 are CRITICAL RISK, 0.6 to 0.8 HIGH, 0.3 to 0.6 " +
				"MEDIUM, below 0.3 LOW. Critical risk sites are reviewed weekly by the supply " +
				"team and receive conservative resupply quantities.",
			Metadata: map[string]string{"source": "SOP-CSM-007", "topic": "risk"},
		},
		{
			DocID: "kb-006",
			Content: "Enrollment monitoring: a study is BEHIND SCHEDULE when current " +
				"enrollment is below 70 percent of target enrollment. Behind-schedule studies " +
				"get enrollment projections in the morning brief. Supply forecasts must use " +
				"actual enrollment velocity, not planned velocity, to avoid overstocking " +
				"slow-enrolling sites.",
			Metadata: map[string]string{"source": "SOP-CSM-002", "topic": "enrollment"},
		},
		{
			DocID: "kb-007",
			Content: "Investigational product accountability: every unit must be traceable " +
				"from depot receipt through dispensing or destruction. Inventory counts are " +
				"reconciled at each monitoring visit. Discrepancies above 2 percent open a " +
				"quality event of type documentation and block further shipments to the site " +
				"until resolved.",
			Metadata: map[string]string{"source": "ICH GCP E6(R2) 4.6", "topic": "accountability"},
		},
		{
			DocID: "kb-008",
			Content: "Storage and distribution practice: depots and sites follow WHO " +
				"Technical Report Series 961 Annex 9 for storage of pharmaceutical products. " +
				"This covers temperature mapping of storage areas, calibrated monitoring " +
				"devices, alarm systems for cold rooms, and segregation of quarantined stock.",
			Metadata: map[string]string{"source": "WHO TRS 961", "topic": "storage"},
		},
		{
			DocID: "kb-009",
			Content: "Resupply planning: reorder quantities use economic order quantity with " +
				"demand from the enrollment forecast, and safety stock sized for 95 percent " +
				"service level over the resupply lead time. The reorder point is lead time " +
				"demand plus safety stock. Cold chain products add one buffer shipment per " +
				"quarter for excursion losses.",
			Metadata: map[string]string{"source": "SOP-CSM-004", "topic": "forecasting"},
		},
		{
			DocID: "kb-010",
			Content: "Blinding and randomization: blinded studies ship active product and " +
				"placebo in matched kits. Kit-level inventory is tracked without revealing " +
				"treatment assignment. Emergency unblinding follows the protocol's code-break " +
				"procedure and is recorded as a quality event.",
			Metadata: map[string]string{"source": "SOP-CSM-006", "topic": "blinding"},
		},
		{
			DocID: "kb-011",
			Content: "Quality event severity: CRITICAL events endanger subject safety or " +
				"product integrity and require action within 24 hours. HIGH events require " +
				"investigation within 3 business days. Open critical and high events for a " +
				"site appear in every morning brief until resolved. Resolution requires a " +
				"documented root cause and corrective action.",
			Metadata: map[string]string{"source": "SOP-QA-002", "topic": "quality"},
		},
		{
			DocID: "kb-012",
			Content: "Carrier performance: on-time delivery rate is the share of delivered " +
				"shipments arriving on or before the expected delivery date. Carriers below " +
				"90 percent on-time over a quarter are put on a corrective action plan; cold " +
				"chain lanes below 95 percent move to a qualified backup carrier.",
			Metadata: map[string]string{"source": "SOP-CSM-008", "topic": "carriers"},
		},
	}
}
