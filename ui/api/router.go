package api

import (
	"net/http"

	"github.com/sallytsm/sally"
	"github.com/sallytsm/sally/ui/service"
)

// Config holds API router configuration.
type Config struct {
	// PageSize for pagination.
	PageSize int

	// ReadOnly disables write endpoints.
	ReadOnly bool

	// Logger for structured logging.
	Logger Logger
}

// Logger interface for structured logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// router holds the API router state.
type router struct {
	svc    *service.Service
	client *sally.Client
	config *Config
}

// NewRouter creates a new API router.
func NewRouter(svc *service.Service, client *sally.Client, cfg *Config) http.Handler {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.PageSize < 1 {
		cfg.PageSize = 25
	}

	r := &router{
		svc:    svc,
		client: client,
		config: cfg,
	}

	mux := http.NewServeMux()

	// Dashboard
	mux.HandleFunc("GET /dashboard/stats", r.handleDashboardStats)
	mux.HandleFunc("GET /events", r.handleEvents)

	// Briefs
	mux.HandleFunc("GET /briefs/morning", r.handleMorningBrief)
	mux.HandleFunc("GET /briefs/evening", r.handleEveningSummary)
	mux.HandleFunc("POST /briefs/generate", r.handleGenerateBrief)
	mux.HandleFunc("GET /briefs/history", r.handleBriefHistory)

	// Assistant
	mux.HandleFunc("POST /qa/ask", r.handleAsk)
	mux.HandleFunc("POST /qa/execute-sql", r.handleExecuteSQL)
	mux.HandleFunc("GET /qa/health", r.handleAssistantHealth)

	// Knowledge base
	mux.HandleFunc("POST /rag/ingest", r.handleIngest)
	mux.HandleFunc("GET /rag/history", r.handleQueryHistory)
	mux.HandleFunc("POST /rag/feedback", r.handleFeedback)

	// Analytics
	mux.HandleFunc("GET /analytics/forecast", r.handleForecast)
	mux.HandleFunc("GET /analytics/inventory-optimization", r.handleInventoryOptimization)
	mux.HandleFunc("GET /analytics/shipment-risk", r.handleShipmentRisk)
	mux.HandleFunc("GET /analytics/enrollment", r.handleEnrollmentProjection)
	mux.HandleFunc("GET /analytics/anomalies", r.handleAnomalies)
	mux.HandleFunc("GET /analytics/waste", r.handleWaste)

	// Scenarios
	mux.HandleFunc("GET /scenarios", r.handleListScenarios)
	mux.HandleFunc("GET /scenarios/{id}", r.handleGetScenario)
	mux.HandleFunc("POST /scenarios/{id}/run", r.handleRunScenario)

	// Reports
	mux.HandleFunc("GET /reports/types", r.handleReportTypes)
	mux.HandleFunc("POST /reports/generate", r.handleGenerateReport)

	// Schema
	mux.HandleFunc("GET /schema/status", r.handleSchemaStatus)
	mux.HandleFunc("POST /schema/deploy", r.handleSchemaDeploy)
	mux.HandleFunc("POST /schema/validate", r.handleSchemaValidate)
	mux.HandleFunc("GET /schema/health", r.handleSchemaHealth)
	mux.HandleFunc("GET /schema/versions", r.handleSchemaVersions)

	// Settings
	mux.HandleFunc("POST /settings/database/test", r.handleTestDatabase)
	mux.HandleFunc("GET /settings/llm-providers", r.handleListProviders)
	mux.HandleFunc("POST /settings/llm-provider/test", r.handleTestProvider)
	mux.HandleFunc("POST /settings/vector-store/test", r.handleTestVectorStore)
	mux.HandleFunc("GET /settings/mode", r.handleGetMode)
	mux.HandleFunc("POST /settings/mode/switch", r.handleSwitchMode)

	return withMiddleware(mux, cfg)
}

// withMiddleware wraps the handler with common middleware.
func withMiddleware(handler http.Handler, cfg *Config) http.Handler {
	// Add JSON content type
	handler = jsonMiddleware(handler)
	// Add error recovery
	handler = recoveryMiddleware(handler, cfg.Logger)
	return handler
}

// jsonMiddleware sets JSON content type for all responses. Handlers that
// stream events or CSV downloads override it before writing.
func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// recoveryMiddleware recovers from panics and returns 500.
func recoveryMiddleware(next http.Handler, logger Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if logger != nil {
					logger.Error("panic recovered", "error", err, "path", r.URL.Path)
				}
				http.Error(w, `{"error":{"code":"internal_error","message":"internal server error"}}`, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
