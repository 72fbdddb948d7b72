package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sallytsm/sally/analytics"
	"github.com/sallytsm/sally/briefing"
	"github.com/sallytsm/sally/qa"
	"github.com/sallytsm/sally/report"
	"github.com/sallytsm/sally/scenario"
	"github.com/sallytsm/sally/settings"
	"github.com/sallytsm/sally/storage"
	"github.com/sallytsm/sally/ui/service"
	"github.com/sallytsm/sally/vecstore"
)

// Response wraps all API responses.
type Response struct {
	Data  any       `json:"data,omitempty"`
	Error *APIError `json:"error,omitempty"`
	Meta  *Meta     `json:"meta,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Meta contains pagination metadata.
type Meta struct {
	TotalCount int  `json:"total_count,omitempty"`
	HasMore    bool `json:"has_more,omitempty"`
	Limit      int  `json:"limit,omitempty"`
	Offset     int  `json:"offset,omitempty"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{Data: data})
}

// writeJSONWithMeta writes a JSON response with metadata.
func writeJSONWithMeta(w http.ResponseWriter, status int, data any, meta *Meta) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{Data: data, Meta: meta})
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{
		Error: &APIError{Code: code, Message: message},
	})
}

// parseLimit parses a page limit from a query parameter with a default.
// It applies bounds validation to prevent resource exhaustion.
func parseLimit(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return service.ValidateLimit(i)
}

// parseQueryInt parses a plain integer query parameter with a default.
func parseQueryInt(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 0 {
		return defaultVal
	}
	return i
}

// decodeBody decodes a JSON request body into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return false
	}
	return true
}

// requireWritable rejects the request when the UI runs read only.
func (rt *router) requireWritable(w http.ResponseWriter) bool {
	if rt.config.ReadOnly {
		writeError(w, http.StatusForbidden, "read_only", "this deployment is read only")
		return false
	}
	return true
}

// Dashboard handlers

func (rt *router) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := rt.svc.GetDashboardStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Brief handlers

func (rt *router) handleMorningBrief(w http.ResponseWriter, r *http.Request) {
	rt.serveBrief(w, r, briefing.TypeMorning)
}

func (rt *router) handleEveningSummary(w http.ResponseWriter, r *http.Request) {
	rt.serveBrief(w, r, briefing.TypeEvening)
}

func (rt *router) serveBrief(w http.ResponseWriter, r *http.Request, briefType string) {
	day, err := service.ParseDay(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
		return
	}

	brief, err := rt.svc.Brief(r.Context(), briefType, day, r.URL.Query().Get("mode"))
	if err != nil {
		if errors.Is(err, briefing.ErrUnknownMode) {
			writeError(w, http.StatusBadRequest, "invalid_mode", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, brief)
}

type generateBriefRequest struct {
	BriefType string `json:"brief_type"`
	Date      string `json:"date,omitempty"`
}

func (rt *router) handleGenerateBrief(w http.ResponseWriter, r *http.Request) {
	if !rt.requireWritable(w) {
		return
	}

	var req generateBriefRequest
	if !decodeBody(w, r, &req) {
		return
	}
	day, err := service.ParseDay(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
		return
	}

	brief, err := rt.client.GenerateBrief(r.Context(), req.BriefType, day)
	if err != nil {
		if errors.Is(err, briefing.ErrUnknownBriefType) {
			writeError(w, http.StatusBadRequest, "invalid_brief_type", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, brief)
}

func (rt *router) handleBriefHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, "limit", rt.config.PageSize)

	briefs, err := rt.svc.BriefHistory(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	writeJSONWithMeta(w, http.StatusOK, briefs, &Meta{
		TotalCount: len(briefs),
		HasMore:    len(briefs) == limit,
		Limit:      limit,
	})
}

// Assistant handlers

func (rt *router) handleAsk(w http.ResponseWriter, r *http.Request) {
	if !rt.requireWritable(w) {
		return
	}

	var req qa.AskRequest
	if !decodeBody(w, r, &req) {
		return
	}

	answer, err := rt.client.Ask(r.Context(), req)
	if err != nil {
		if errors.Is(err, qa.ErrInvalidRequest) {
			writeError(w, http.StatusBadRequest, "invalid_question", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

type executeSQLRequest struct {
	SQL string `json:"sql"`
}

func (rt *router) handleExecuteSQL(w http.ResponseWriter, r *http.Request) {
	if !rt.requireWritable(w) {
		return
	}

	var req executeSQLRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.SQL == "" {
		writeError(w, http.StatusBadRequest, "missing_param", "sql is required")
		return
	}

	result, err := rt.client.QA().ExecuteSQL(r.Context(), req.SQL)
	if err != nil {
		if errors.Is(err, qa.ErrSQLRejected) {
			writeError(w, http.StatusBadRequest, "invalid_sql", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *router) handleAssistantHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rt.client.QA().Health(r.Context()))
}

// Knowledge base handlers

type ingestRequest struct {
	Documents []vecstore.Document `json:"documents"`
}

type ingestResponse struct {
	Ingested int `json:"ingested"`
}

func (rt *router) handleIngest(w http.ResponseWriter, r *http.Request) {
	if !rt.requireWritable(w) {
		return
	}

	var req ingestRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Documents) == 0 {
		writeError(w, http.StatusBadRequest, "missing_param", "documents are required")
		return
	}

	count, err := rt.client.RAG().IngestDocuments(r.Context(), req.Documents)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, ingestResponse{Ingested: count})
}

func (rt *router) handleQueryHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, "limit", rt.config.PageSize)

	queries, err := rt.client.RAG().History(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	writeJSONWithMeta(w, http.StatusOK, queries, &Meta{
		TotalCount: len(queries),
		HasMore:    len(queries) == limit,
		Limit:      limit,
	})
}

type feedbackRequest struct {
	QueryID string `json:"query_id"`
	Helpful *bool  `json:"helpful"`
}

type feedbackResponse struct {
	Recorded bool `json:"recorded"`
}

func (rt *router) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.QueryID == "" || req.Helpful == nil {
		writeError(w, http.StatusBadRequest, "missing_param", "query_id and helpful are required")
		return
	}

	if err := rt.client.RAG().Feedback(r.Context(), req.QueryID, *req.Helpful); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "query not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, feedbackResponse{Recorded: true})
}

// Analytics handlers

func (rt *router) handleForecast(w http.ResponseWriter, r *http.Request) {
	studyID := r.URL.Query().Get("study_id")
	if studyID == "" {
		writeError(w, http.StatusBadRequest, "missing_param", "study_id is required")
		return
	}
	weeks := parseQueryInt(r, "weeks", 0)

	forecast, err := rt.client.Analytics().DemandForecast(r.Context(), studyID, weeks)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "study not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, forecast)
}

func (rt *router) handleInventoryOptimization(w http.ResponseWriter, r *http.Request) {
	params := analytics.OptimizeParams{
		SiteID:        r.URL.Query().Get("site_id"),
		LeadTimeWeeks: parseQueryInt(r, "lead_time_weeks", 0),
	}

	result, err := rt.client.Analytics().OptimizeInventory(r.Context(), params)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *router) handleShipmentRisk(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, "limit", rt.config.PageSize)

	risks, err := rt.client.Analytics().ShipmentRisks(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, risks)
}

func (rt *router) handleEnrollmentProjection(w http.ResponseWriter, r *http.Request) {
	studyID := r.URL.Query().Get("study_id")
	if studyID == "" {
		writeError(w, http.StatusBadRequest, "missing_param", "study_id is required")
		return
	}

	projection, err := rt.client.Analytics().EnrollmentProjection(r.Context(), studyID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "study not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, projection)
}

type anomalyReport struct {
	Temperature []*analytics.Anomaly `json:"temperature"`
	Enrollment  []*analytics.Anomaly `json:"enrollment"`
}

func (rt *router) handleAnomalies(w http.ResponseWriter, r *http.Request) {
	windowHours := parseQueryInt(r, "window_hours", 168)

	temperature, err := rt.client.Analytics().TemperatureAnomalies(r.Context(), time.Duration(windowHours)*time.Hour)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	report := anomalyReport{Temperature: temperature}
	if studyID := r.URL.Query().Get("study_id"); studyID != "" {
		enrollment, err := rt.client.Analytics().EnrollmentAnomalies(r.Context(), studyID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		report.Enrollment = enrollment
	}
	writeJSON(w, http.StatusOK, report)
}

func (rt *router) handleWaste(w http.ResponseWriter, r *http.Request) {
	waste, err := rt.client.Analytics().WasteReport(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, waste)
}

// Scenario handlers

func (rt *router) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rt.client.Scenarios().List())
}

func (rt *router) handleGetScenario(w http.ResponseWriter, r *http.Request) {
	def, err := rt.client.Scenarios().Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", "scenario not found")
		return
	}
	writeJSON(w, http.StatusOK, def)
}

type runScenarioRequest struct {
	Params map[string]any `json:"params,omitempty"`
}

func (rt *router) handleRunScenario(w http.ResponseWriter, r *http.Request) {
	if !rt.requireWritable(w) {
		return
	}

	var req runScenarioRequest
	if r.ContentLength > 0 && !decodeBody(w, r, &req) {
		return
	}

	plan, err := rt.client.Scenarios().Run(r.Context(), r.PathValue("id"), req.Params)
	if err != nil {
		if errors.Is(err, scenario.ErrUnknownScenario) {
			writeError(w, http.StatusNotFound, "not_found", "scenario not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// Report handlers

func (rt *router) handleReportTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rt.client.Reports().Types())
}

func (rt *router) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	var req report.Request
	if !decodeBody(w, r, &req) {
		return
	}

	rpt, err := rt.client.Reports().Generate(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, report.ErrUnknownType):
			writeError(w, http.StatusBadRequest, "invalid_report_type", err.Error())
		case errors.Is(err, report.ErrUnsupportedFormat):
			writeError(w, http.StatusBadRequest, "unsupported_format", err.Error())
		case errors.Is(err, report.ErrUnknownMode):
			writeError(w, http.StatusBadRequest, "invalid_mode", err.Error())
		case errors.Is(err, report.ErrInvalidFilter):
			writeError(w, http.StatusBadRequest, "invalid_filter", err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		}
		return
	}

	// CSV reports download as attachments
	if rpt.CSV != "" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rpt.ReportID+".csv"))
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, rpt.CSV)
		return
	}
	writeJSON(w, http.StatusOK, rpt)
}

// Schema handlers

func (rt *router) handleSchemaStatus(w http.ResponseWriter, r *http.Request) {
	status, err := rt.client.Schema().Status(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (rt *router) handleSchemaDeploy(w http.ResponseWriter, r *http.Request) {
	if !rt.requireWritable(w) {
		return
	}

	result, err := rt.client.Schema().Deploy(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *router) handleSchemaValidate(w http.ResponseWriter, r *http.Request) {
	result, err := rt.client.Schema().Validate(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *router) handleSchemaHealth(w http.ResponseWriter, r *http.Request) {
	health, err := rt.client.Schema().Health(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, health)
}

func (rt *router) handleSchemaVersions(w http.ResponseWriter, r *http.Request) {
	history, err := rt.client.Schema().History(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, history)
}

// Settings handlers

func (rt *router) handleTestDatabase(w http.ResponseWriter, r *http.Request) {
	var creds settings.DatabaseCredentials
	if !decodeBody(w, r, &creds) {
		return
	}
	writeJSON(w, http.StatusOK, rt.client.Settings().TestDatabaseConnection(r.Context(), creds))
}

func (rt *router) handleListProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rt.client.Settings().ListProviders())
}

type testProviderRequest struct {
	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`
	APIKey   string `json:"api_key,omitempty"`
}

func (rt *router) handleTestProvider(w http.ResponseWriter, r *http.Request) {
	var req testProviderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Provider == "" {
		writeError(w, http.StatusBadRequest, "missing_param", "provider is required")
		return
	}
	writeJSON(w, http.StatusOK, rt.client.Settings().TestProvider(r.Context(), req.Provider, req.Model, req.APIKey))
}

func (rt *router) handleTestVectorStore(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rt.client.Settings().TestVectorStore(r.Context()))
}

func (rt *router) handleGetMode(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rt.client.Settings().Mode())
}

type switchModeRequest struct {
	Mode string `json:"mode"`
}

func (rt *router) handleSwitchMode(w http.ResponseWriter, r *http.Request) {
	if !rt.requireWritable(w) {
		return
	}

	var req switchModeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	status, err := rt.client.SwitchMode(req.Mode)
	if err != nil {
		if errors.Is(err, settings.ErrInvalidMode) {
			writeError(w, http.StatusBadRequest, "invalid_mode", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, status)
}
