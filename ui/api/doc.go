// Package api provides REST API handlers for the Sally control panel.
//
// The API layer provides JSON endpoints for programmatic access to
// Sally briefing, assistant, and supply analytics features.
//
// # Endpoints
//
// Dashboard:
//   - GET /dashboard/stats - Dashboard statistics
//   - GET /events - SSE stream for real-time updates
//
// Briefs:
//   - GET /briefs/morning - Morning brief (?date=, ?mode=)
//   - GET /briefs/evening - Evening summary (?date=, ?mode=)
//   - POST /briefs/generate - Generate and persist a brief
//   - GET /briefs/history - Recent briefs (paginated)
//
// Assistant:
//   - POST /qa/ask - Ask a question
//   - POST /qa/execute-sql - Run a guarded SELECT
//   - GET /qa/health - Assistant pipeline health
//
// Knowledge base:
//   - POST /rag/ingest - Ingest documents
//   - GET /rag/history - Recent assistant queries
//   - POST /rag/feedback - Record answer feedback
//
// Analytics:
//   - GET /analytics/forecast - Demand forecast (?study_id=, ?weeks=)
//   - GET /analytics/inventory-optimization - EOQ and reorder points
//   - GET /analytics/shipment-risk - Shipments ranked by delay risk
//   - GET /analytics/enrollment - Enrollment projection (?study_id=)
//   - GET /analytics/anomalies - Temperature and enrollment anomalies
//   - GET /analytics/waste - Expiry waste report
//
// Scenarios:
//   - GET /scenarios - List scenario templates
//   - GET /scenarios/{id} - Scenario detail
//   - POST /scenarios/{id}/run - Run a what-if scenario
//
// Reports:
//   - GET /reports/types - Report catalog
//   - POST /reports/generate - Generate a report (JSON or CSV download)
//
// Schema:
//   - GET /schema/status - Deployed vs bundled version
//   - POST /schema/deploy - Apply pending migrations
//   - POST /schema/validate - Validate deployed objects
//   - GET /schema/health - Database health probe
//   - GET /schema/versions - Migration history
//
// Settings:
//   - POST /settings/database/test - Test database credentials
//   - GET /settings/llm-providers - Provider catalog
//   - POST /settings/llm-provider/test - Test a provider key
//   - POST /settings/vector-store/test - Check pgvector readiness
//   - GET /settings/mode - Current application mode
//   - POST /settings/mode/switch - Switch demo/production mode
package api
