// Package scenario provides guided response playbooks for recurring
// clinical trial supply situations. Each scenario carries a definition
// with its triggers and severity, and running one produces a
// prioritized action plan with SOP references.
package scenario

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sallytsm/sally/llm"
)

// Run errors
var (
	// ErrUnknownScenario indicates the scenario id is not in the catalog
	ErrUnknownScenario = errors.New("unknown scenario")
)

// Definition describes one scenario in the catalog.
type Definition struct {
	ID          string   `json:"scenario_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Severity    string   `json:"severity"`
	Triggers    []string `json:"triggers"`
}

// Action is one recommended step in an action plan.
type Action struct {
	ActionID      string `json:"action_id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Priority      string `json:"priority"`
	EstimatedTime string `json:"estimated_time"`
	AssignedTo    string `json:"assigned_to,omitempty"`
}

// Plan is the structured response to a scenario run.
type Plan struct {
	RunID              string         `json:"run_id"`
	ScenarioID         string         `json:"scenario_id"`
	ScenarioName       string         `json:"scenario_name"`
	Severity           string         `json:"severity"`
	Status             string         `json:"status"`
	Summary            string         `json:"summary"`
	RecommendedActions []*Action      `json:"recommended_actions"`
	SOPReferences      []string       `json:"sop_references"`
	ComplianceNotes    string         `json:"compliance_notes,omitempty"`
	AIConfidence       float64        `json:"ai_confidence"`
	Params             map[string]any `json:"params,omitempty"`
	Timestamp          time.Time      `json:"timestamp"`
}

// RunRecord is the audit entry kept for each scenario run.
type RunRecord struct {
	RunID      string    `json:"run_id"`
	ScenarioID string    `json:"scenario_id"`
	RanAt      time.Time `json:"ran_at"`
}

// Config holds optional scenario service settings.
type Config struct {
	// Advisor writes the situation summary when configured. The canned
	// plan content does not depend on it.
	Advisor llm.ChatClient
}

// Service serves the scenario catalog and runs action plans.
type Service struct {
	config *Config

	mu   sync.Mutex
	runs []*RunRecord
}

// NewService creates a scenario service.
func NewService(config *Config) *Service {
	if config == nil {
		config = &Config{}
	}
	return &Service{config: config}
}

// List returns the catalog in id order.
func (s *Service) List() []*Definition {
	defs := make([]*Definition, len(catalog))
	copy(defs, catalog)
	return defs
}

// Get returns one scenario definition.
func (s *Service) Get(id string) (*Definition, error) {
	for _, def := range catalog {
		if def.ID == id {
			return def, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownScenario, id)
}

// Run produces the action plan for a scenario. The params map carries
// operational context (site, shipment, product identifiers) and is
// echoed back on the plan.
func (s *Service) Run(ctx context.Context, id string, params map[string]any) (*Plan, error) {
	def, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	plan := buildPlan(def)
	plan.RunID = "run_" + uuid.NewString()
	plan.Params = params
	plan.Timestamp = time.Now().UTC()
	plan.Summary = s.summarize(ctx, def, params, plan.Summary)

	s.mu.Lock()
	s.runs = append(s.runs, &RunRecord{RunID: plan.RunID, ScenarioID: def.ID, RanAt: plan.Timestamp})
	s.mu.Unlock()

	return plan, nil
}

// Runs returns the run records collected so far, oldest first.
func (s *Service) Runs() []*RunRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*RunRecord, len(s.runs))
	copy(out, s.runs)
	return out
}

// summarize asks the advisor for a situation summary and falls back to
// the canned one when no advisor is configured or the call fails.
func (s *Service) summarize(ctx context.Context, def *Definition, params map[string]any, fallback string) string {
	if s.config.Advisor == nil {
		return fallback
	}

	prompt := fmt.Sprintf(advisorPromptTemplate, def.Name, def.Description, def.Severity, formatParams(params))
	resp, err := s.config.Advisor.Chat(ctx, llm.ChatRequest{
		Messages:    llm.UserMessage(prompt),
		MaxTokens:   300,
		Temperature: llm.TemperatureNarrative,
	})
	if err != nil || resp.Text == "" {
		return fallback
	}
	return resp.Text
}

const advisorPromptTemplate = `You are Sally, an expert clinical trial supply management assistant.

Scenario: %s
Description: %s
Severity: %s

Context:
%s

Summarize the situation in 2-3 sentences focused on patient safety and supply continuity. Do not list actions.`

func formatParams(params map[string]any) string {
	if len(params) == 0 {
		return "(none)"
	}
	out := ""
	for k, v := range params {
		out += fmt.Sprintf("- %s: %v\n", k, v)
	}
	return out
}
