package hooks

import (
	"context"
	"log"
	"time"

	"github.com/sallytsm/sally/briefing"
	"github.com/sallytsm/sally/qa"
)

// LoggingHooks provides built-in logging hooks for observability
type LoggingHooks struct {
	logger *log.Logger
}

// NewLoggingHooks creates logging hooks with the provided logger
func NewLoggingHooks(logger *log.Logger) *LoggingHooks {
	return &LoggingHooks{logger: logger}
}

// DefaultLoggingHooks creates logging hooks with the default logger
func DefaultLoggingHooks() *LoggingHooks {
	return &LoggingHooks{logger: log.Default()}
}

// BeforeBrief logs the start of brief generation
func (h *LoggingHooks) BeforeBrief(ctx context.Context, briefType string, day time.Time) error {
	h.logger.Printf("[Sally] Generating %s brief for %s", briefType, day.Format("2006-01-02"))
	return nil
}

// AfterBrief logs the outcome of brief generation
func (h *LoggingHooks) AfterBrief(ctx context.Context, briefType string, brief *briefing.Brief, err error) error {
	if err != nil {
		h.logger.Printf("[Sally] %s brief failed: %v", briefType, err)
		return nil
	}
	h.logger.Printf("[Sally] %s brief generated (%s mode): %d critical alerts, %d delayed shipments",
		briefType, brief.Mode, brief.Summary.CriticalAlerts, brief.Summary.DelayedShipments)
	return nil
}

// BeforeQuery logs an incoming question
func (h *LoggingHooks) BeforeQuery(ctx context.Context, question string) error {
	h.logger.Printf("[Sally] Answering: %s", preview(question, 80))
	return nil
}

// AfterQuery logs the outcome of an answering attempt
func (h *LoggingHooks) AfterQuery(ctx context.Context, question string, answer *qa.Answer, err error) error {
	if err != nil {
		h.logger.Printf("[Sally] Question failed: %v", err)
		return nil
	}
	h.logger.Printf("[Sally] Answered via %s/%s: confidence=%.2f tokens=%d latency=%dms",
		answer.Provider, answer.Model, answer.Confidence, answer.TokensUsed, answer.LatencyMs)
	return nil
}

// preview truncates text for a single log line.
func preview(text string, max int) string {
	if len(text) > max {
		return text[:max] + "..."
	}
	return text
}

// VerboseLoggingHooks provides detailed logging for debugging
type VerboseLoggingHooks struct {
	logger *log.Logger
}

// NewVerboseLoggingHooks creates verbose logging hooks
func NewVerboseLoggingHooks(logger *log.Logger) *VerboseLoggingHooks {
	return &VerboseLoggingHooks{logger: logger}
}

// BeforeBrief logs detailed brief generation information
func (h *VerboseLoggingHooks) BeforeBrief(ctx context.Context, briefType string, day time.Time) error {
	h.logger.Printf("[Sally][VERBOSE] === Generating Brief ===")
	h.logger.Printf("[Sally][VERBOSE] Type: %s", briefType)
	h.logger.Printf("[Sally][VERBOSE] Date: %s", day.Format("2006-01-02"))
	return nil
}

// AfterBrief logs detailed brief content information
func (h *VerboseLoggingHooks) AfterBrief(ctx context.Context, briefType string, brief *briefing.Brief, err error) error {
	h.logger.Printf("[Sally][VERBOSE] === Brief Complete ===")
	if err != nil {
		h.logger.Printf("[Sally][VERBOSE] Error: %v", err)
		return nil
	}

	h.logger.Printf("[Sally][VERBOSE] Mode: %s", brief.Mode)
	h.logger.Printf("[Sally][VERBOSE] Alerts: %d", len(brief.Sections.Alerts))
	h.logger.Printf("[Sally][VERBOSE] Low-stock sites: %d", len(brief.Sections.InventoryStatus))
	h.logger.Printf("[Sally][VERBOSE] Shipments: %d", len(brief.Sections.Shipments))
	h.logger.Printf("[Sally][VERBOSE] Recommendations: %d", len(brief.Sections.Recommendations))
	h.logger.Printf("[Sally][VERBOSE] Algorithms: %v", brief.AlgorithmsUsed)

	if brief.Narrative != "" {
		h.logger.Printf("[Sally][VERBOSE] Narrative: %s", preview(brief.Narrative, 200))
	}
	return nil
}

// BeforeQuery logs the full question
func (h *VerboseLoggingHooks) BeforeQuery(ctx context.Context, question string) error {
	h.logger.Printf("[Sally][VERBOSE] === Question ===")
	h.logger.Printf("[Sally][VERBOSE] %s", question)
	return nil
}

// AfterQuery logs detailed answer information
func (h *VerboseLoggingHooks) AfterQuery(ctx context.Context, question string, answer *qa.Answer, err error) error {
	h.logger.Printf("[Sally][VERBOSE] === Answer ===")
	if err != nil {
		h.logger.Printf("[Sally][VERBOSE] Error: %v", err)
		return nil
	}

	h.logger.Printf("[Sally][VERBOSE] Provider: %s/%s", answer.Provider, answer.Model)
	h.logger.Printf("[Sally][VERBOSE] Confidence: %.2f", answer.Confidence)
	h.logger.Printf("[Sally][VERBOSE] Tokens: %d", answer.TokensUsed)
	h.logger.Printf("[Sally][VERBOSE] Latency: %dms", answer.LatencyMs)

	if answer.SQLQuery != "" {
		h.logger.Printf("[Sally][VERBOSE] SQL: %s", answer.SQLQuery)
	}
	if len(answer.Sources) > 0 {
		h.logger.Printf("[Sally][VERBOSE] Sources: %v", answer.Sources)
	}
	h.logger.Printf("[Sally][VERBOSE] %s", preview(answer.Answer, 200))
	return nil
}

// MetricsHooks collects metrics for monitoring
type MetricsHooks struct {
	OnMetric func(name string, value float64, tags map[string]string)
}

// NewMetricsHooks creates metrics collection hooks
func NewMetricsHooks(onMetric func(string, float64, map[string]string)) *MetricsHooks {
	return &MetricsHooks{OnMetric: onMetric}
}

// AfterBrief records brief generation metrics
func (h *MetricsHooks) AfterBrief(ctx context.Context, briefType string, brief *briefing.Brief, err error) error {
	tags := map[string]string{"type": briefType}

	if err != nil {
		h.OnMetric("sally.brief.error", 1, tags)
		return nil
	}

	tags["mode"] = brief.Mode
	h.OnMetric("sally.brief.generated", 1, tags)
	h.OnMetric("sally.brief.critical_alerts", float64(brief.Summary.CriticalAlerts), tags)
	h.OnMetric("sally.brief.delayed_shipments", float64(brief.Summary.DelayedShipments), tags)
	return nil
}

// AfterQuery records answering metrics
func (h *MetricsHooks) AfterQuery(ctx context.Context, question string, answer *qa.Answer, err error) error {
	if err != nil {
		h.OnMetric("sally.query.error", 1, nil)
		return nil
	}

	tags := map[string]string{"provider": answer.Provider}
	h.OnMetric("sally.query.success", 1, tags)
	h.OnMetric("sally.query.tokens", float64(answer.TokensUsed), tags)
	h.OnMetric("sally.query.latency_ms", float64(answer.LatencyMs), tags)
	h.OnMetric("sally.query.confidence", answer.Confidence, tags)
	return nil
}
