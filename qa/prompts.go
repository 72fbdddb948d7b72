package qa

import "fmt"

const qaPromptTemplate = `You are Sally, an AI assistant specialized in Clinical Trial Supply Management (CTSM).

Your role is to help users with:
- Inventory analysis and stock management
- Protocol compliance and regulatory requirements
- Supply chain optimization
- Clinical trial logistics
- Emergency scenarios and SOP guidance

STRICT RULES:
1. ONLY answer questions related to clinical trial supply management
2. Base answers ONLY on the provided context below
3. If context doesn't contain the answer, say "I don't have that information in the current database"
4. For data queries, generate ONLY SELECT statements (no modifications)
5. Cite specific sources when possible
6. Do not speculate or make up information

Context from knowledge base:
%s

User Question: %s

Grounded Response:`

const sqlPromptTemplate = `You are an expert SQL generator for a Clinical Trial Supply Management database.

DATABASE SCHEMA:
%s

RULES:
1. Generate a single PostgreSQL SELECT statement that answers the question
2. Use only tables and columns listed in the schema above
3. Never modify data, SELECT only
4. Prefer explicit column lists over SELECT *
5. Add LIMIT %d unless the question asks for a single aggregate
6. Return ONLY the SQL statement, no explanation and no markdown

Question: %s

SQL:`

// schemaContext describes the gold-layer tables exposed to SQL
// generation. Kept in sync with the schema migrations by hand.
const schemaContext = `gold_global_studies(study_id, study_name, protocol_number, phase, therapeutic_area, status, start_date, estimated_completion, target_enrollment, current_enrollment)
gold_clinical_sites(site_id, study_id, site_name, site_number, country, city, status, activation_date, target_enrollment, current_enrollment, performance_score, risk_score)
gold_subjects(subject_id, site_id, study_id, enrollment_date, status, randomization_arm, last_visit_date, next_visit_date)
gold_clinical_products(product_id, study_id, product_name, product_type, dosage_form, strength, storage_conditions, shelf_life_months, unit_cost, requires_cold_chain)
gold_regional_depots(depot_id, depot_name, region, country, city, capacity_units, current_utilization, temperature_zones, status)
gold_global_vendors(vendor_id, vendor_name, vendor_type, country, qualification_status, performance_rating, last_audit_date)
gold_inventory(inventory_id, site_id, product_id, batch_number, quantity_on_hand, quantity_available, quantity_allocated, minimum_stock_level, expiry_date, storage_location, temperature_zone, last_counted_at)
gold_shipments(shipment_id, shipment_number, origin_depot_id, destination_site_id, status, priority, carrier, tracking_number, shipped_date, expected_delivery, actual_delivery, delivery_delay_days, temperature_controlled)
gold_quality_events(event_id, event_type, severity, site_id, product_id, batch_number, description, event_date, resolution_status, resolved_at, corrective_action)
gold_temperature_logs(log_id, shipment_id, recorded_at, temperature_celsius, humidity_percent, excursion_detected, alert_triggered)

Notes:
- shipment status is one of: pending, in_transit, delivered, delayed, cancelled
- quality event severity is one of: critical, high, medium, low
- quality event resolution_status is one of: open, investigating, resolved, closed
- inventory is LOW when quantity_available < 10 and CRITICAL when quantity_available < 5
- a site runs low on stock when quantity_available < minimum_stock_level
- products are near expiry when expiry_date falls within 90 days
- shipments are materially delayed when delivery_delay_days > 2
- risk_score bands: low below 0.3, medium below 0.6, high below 0.8, critical at or above 0.8`

// BuildQAPrompt renders the grounded question-answering prompt.
func BuildQAPrompt(context, question string) string {
	return fmt.Sprintf(qaPromptTemplate, context, question)
}

// BuildSQLPrompt renders the natural-language-to-SQL prompt.
func BuildSQLPrompt(question string, maxRows int) string {
	return fmt.Sprintf(sqlPromptTemplate, schemaContext, maxRows, question)
}
