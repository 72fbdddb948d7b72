// Package qa implements the grounded question-answering assistant. It
// combines vector retrieval, provider-agnostic chat completion, SQL
// generation with guardrails, and a persistent question log.
package qa

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sallytsm/sally/llm"
	"github.com/sallytsm/sally/rag"
	"github.com/sallytsm/sally/storage"
)

// ============================================================================
// ERRORS
// ============================================================================

var (
	// ErrInvalidRequest indicates request validation failed
	ErrInvalidRequest = errors.New("invalid request")

	// ErrSQLRejected indicates a statement failed the SQL guardrail
	ErrSQLRejected = errors.New("sql rejected")

	// ErrAnswerRejected indicates a model answer failed the response guardrail
	ErrAnswerRejected = errors.New("answer rejected")

	// ErrNoSQL indicates the model produced no usable SELECT statement
	ErrNoSQL = errors.New("no sql statement in model output")
)

// ============================================================================
// CONFIGURATION
// ============================================================================

const (
	// MinQuestionLength is the shortest accepted question, in characters.
	MinQuestionLength = 3
	// MaxQuestionLength is the longest accepted question, in characters.
	MaxQuestionLength = 500

	// MinMaxTokens and MaxMaxTokens bound the per-request completion budget.
	MinMaxTokens = 100
	MaxMaxTokens = 4000

	// DefaultAnswerTokens is the completion budget when a request sets none.
	DefaultAnswerTokens = 1000

	// DefaultSQLRowLimit caps rows fetched by generated SQL.
	DefaultSQLRowLimit = 100

	// ResponseRowLimit caps rows embedded in an answer payload.
	ResponseRowLimit = 50

	// DefaultHistoryLimit is the question log page size.
	DefaultHistoryLimit = 20
)

// Config controls assistant behavior.
type Config struct {
	// Provider is the chat provider used when a request does not name one
	Provider string

	// Model overrides the default chat model of the configured provider
	Model string

	// MaxTokens is the default completion budget for answers
	MaxTokens int

	// SQLRowLimit caps rows fetched by generated SQL statements
	SQLRowLimit int

	// OnError receives failures from best-effort work such as query
	// logging. Optional.
	OnError func(err error)
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:    "openai",
		MaxTokens:   DefaultAnswerTokens,
		SQLRowLimit: DefaultSQLRowLimit,
	}
}

// ============================================================================
// REQUEST / RESPONSE TYPES
// ============================================================================

// AskRequest is a question for the assistant.
type AskRequest struct {
	Question  string `json:"question"`
	Provider  string `json:"llm_provider,omitempty"`
	Model     string `json:"llm_model,omitempty"`
	UseRAG    *bool  `json:"use_rag,omitempty"`
	MaxTokens int    `json:"max_tokens,omitempty"`
}

// Answer is the assistant's response to a question.
type Answer struct {
	Answer          string    `json:"answer"`
	SQLQuery        string    `json:"sql_query,omitempty"`
	ChartSuggestion string    `json:"chart_suggestion,omitempty"`
	Sources         []string  `json:"sources,omitempty"`
	Confidence      float64   `json:"confidence"`
	TokensUsed      int       `json:"tokens_used"`
	Provider        string    `json:"provider"`
	Model           string    `json:"model"`
	QueryID         string    `json:"query_id,omitempty"`
	LatencyMs       int       `json:"latency_ms"`
	Timestamp       time.Time `json:"timestamp"`
}

// SQLAnswer is the response to a natural-language data question. It
// carries the generated statement plus the rows it returned.
type SQLAnswer struct {
	Answer
	Data *storage.QueryResult `json:"data,omitempty"`
}

// ProviderStatus reports whether a chat provider has credentials.
type ProviderStatus struct {
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
}

// HealthReport describes assistant readiness.
type HealthReport struct {
	Status        string           `json:"status"`
	Providers     []ProviderStatus `json:"providers"`
	VectorStore   string           `json:"vector_store"`
	Collection    string           `json:"collection"`
	DocumentCount int              `json:"document_count"`
	QueriesLogged int              `json:"queries_logged"`
	CheckedAt     time.Time        `json:"checked_at"`
}

// ============================================================================
// SERVICE
// ============================================================================

// ClientFactory builds chat clients on demand. *llm.Registry implements
// this interface.
type ClientFactory interface {
	NewChatClient(provider, apiKey, model string) (llm.ChatClient, error)
	List() []*llm.ProviderBundle
}

// Service answers questions about the supply chain.
type Service struct {
	store    storage.Store
	rag      *rag.Service
	registry ClientFactory
	config   *Config
}

// NewService creates an assistant service. The registry must not be nil;
// rag and store may be nil when retrieval or logging is not wired, and
// the affected features degrade rather than fail.
func NewService(store storage.Store, ragSvc *rag.Service, registry ClientFactory, config *Config) *Service {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Provider == "" {
		config.Provider = "openai"
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = DefaultAnswerTokens
	}
	if config.SQLRowLimit <= 0 {
		config.SQLRowLimit = DefaultSQLRowLimit
	}
	return &Service{
		store:    store,
		rag:      ragSvc,
		registry: registry,
		config:   config,
	}
}

// Ask answers a question grounded in the knowledge base. Answers that
// fail the response guardrail are replaced with FallbackAnswer and
// reported with low confidence rather than returned as errors.
func (s *Service) Ask(ctx context.Context, req AskRequest) (*Answer, error) {
	if err := s.normalize(&req); err != nil {
		return nil, err
	}
	start := time.Now()

	client, err := s.registry.NewChatClient(req.Provider, "", req.Model)
	if err != nil {
		return nil, err
	}

	contextText := "No relevant context found."
	var sources []string
	if s.useRAG(req) && s.rag != nil {
		retrieved, retrievedSources, err := s.rag.BuildContext(ctx, req.Question)
		if err != nil {
			return nil, fmt.Errorf("failed to retrieve context: %w", err)
		}
		if retrieved != "" {
			contextText = retrieved
			sources = retrievedSources
		}
	}

	resp, err := client.Chat(ctx, llm.ChatRequest{
		Messages:    llm.UserMessage(BuildQAPrompt(contextText, req.Question)),
		MaxTokens:   req.MaxTokens,
		Temperature: llm.TemperatureNarrative,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}

	answerText := strings.TrimSpace(resp.Text)
	var confidence float64
	if err := ValidateResponse(answerText); err != nil {
		answerText = FallbackAnswer
		confidence = 0.3
	} else if len(sources) > 0 {
		confidence = 0.9
	} else {
		confidence = 0.7
	}

	ans := &Answer{
		Answer:          answerText,
		ChartSuggestion: ExtractChartType(answerText),
		Sources:         sources,
		Confidence:      confidence,
		TokensUsed:      resp.InputTokens + resp.OutputTokens,
		Provider:        client.Provider(),
		Model:           client.Model(),
		LatencyMs:       int(time.Since(start).Milliseconds()),
		Timestamp:       time.Now().UTC(),
	}

	// Surface an embedded statement only when it clears the guardrail.
	if stmt := ExtractSQL(answerText); stmt != "" && ValidateSQL(stmt) == nil {
		ans.SQLQuery = stmt
	}

	s.log(ctx, req.Question, ans)
	return ans, nil
}

// AskSQL turns a natural-language question into a SELECT statement,
// validates it, executes it read-only, and returns the rows.
func (s *Service) AskSQL(ctx context.Context, req AskRequest) (*SQLAnswer, error) {
	if err := s.normalize(&req); err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, fmt.Errorf("sql execution is not configured")
	}
	start := time.Now()

	client, err := s.registry.NewChatClient(req.Provider, "", req.Model)
	if err != nil {
		return nil, err
	}

	resp, err := client.Chat(ctx, llm.ChatRequest{
		Messages:    llm.UserMessage(BuildSQLPrompt(req.Question, s.config.SQLRowLimit)),
		MaxTokens:   req.MaxTokens,
		Temperature: llm.TemperatureSQL,
	})
	if err != nil {
		return nil, fmt.Errorf("sql generation failed: %w", err)
	}

	stmt := ExtractSQL(resp.Text)
	if stmt == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoSQL, truncate(resp.Text, 120))
	}
	if err := ValidateSQL(stmt); err != nil {
		return nil, err
	}

	result, err := s.store.RunReadOnlyQuery(ctx, stmt, s.config.SQLRowLimit)
	if err != nil {
		return nil, fmt.Errorf("query execution failed: %w", err)
	}

	data := *result
	if len(data.Rows) > ResponseRowLimit {
		data.Rows = data.Rows[:ResponseRowLimit]
		data.Truncated = true
	}

	confidence := 0.5
	if result.RowCount > 0 {
		confidence = 0.9
	}

	ans := &SQLAnswer{
		Answer: Answer{
			Answer:     fmt.Sprintf("Query returned %d results.", result.RowCount),
			SQLQuery:   stmt,
			Sources:    ExtractSources(stmt),
			Confidence: confidence,
			TokensUsed: resp.InputTokens + resp.OutputTokens,
			Provider:   client.Provider(),
			Model:      client.Model(),
			LatencyMs:  int(time.Since(start).Milliseconds()),
			Timestamp:  time.Now().UTC(),
		},
		Data: &data,
	}

	s.log(ctx, req.Question, &ans.Answer)
	return ans, nil
}

// ExecuteSQL validates and runs a caller-supplied SELECT statement.
func (s *Service) ExecuteSQL(ctx context.Context, sql string) (*storage.QueryResult, error) {
	if s.store == nil {
		return nil, fmt.Errorf("sql execution is not configured")
	}
	if err := ValidateSQL(sql); err != nil {
		return nil, err
	}
	result, err := s.store.RunReadOnlyQuery(ctx, sql, s.config.SQLRowLimit)
	if err != nil {
		return nil, fmt.Errorf("query execution failed: %w", err)
	}
	return result, nil
}

// History returns recent logged questions, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]*storage.AssistantQuery, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return s.rag.History(ctx, limit)
}

// Feedback records whether a logged answer was helpful.
func (s *Service) Feedback(ctx context.Context, queryID string, helpful bool) error {
	return s.rag.Feedback(ctx, queryID, helpful)
}

// Health reports provider credentials, vector store readiness, and
// question log depth. It never returns an error; failures surface as
// degraded status.
func (s *Service) Health(ctx context.Context) *HealthReport {
	report := &HealthReport{
		Status:      "healthy",
		VectorStore: "unavailable",
		CheckedAt:   time.Now().UTC(),
	}

	anyConfigured := false
	for _, bundle := range s.registry.List() {
		configured := bundle.APIKey() != ""
		if configured {
			anyConfigured = true
		}
		report.Providers = append(report.Providers, ProviderStatus{
			Name:       bundle.Name,
			Configured: configured,
		})
	}

	if s.rag != nil {
		report.Collection = s.rag.Collection()
		if stats, err := s.rag.VectorStats(ctx); err == nil && stats.Installed {
			report.VectorStore = "ready"
			for _, c := range stats.Collections {
				if c.Name == report.Collection {
					report.DocumentCount = c.Documents
				}
			}
		}
	}

	if s.store != nil {
		if count, err := s.store.CountQueries(ctx); err == nil {
			report.QueriesLogged = count
		}
	}

	if !anyConfigured || report.VectorStore != "ready" {
		report.Status = "degraded"
	}
	return report
}

// ============================================================================
// INTERNAL
// ============================================================================

func (s *Service) normalize(req *AskRequest) error {
	req.Question = strings.TrimSpace(req.Question)
	n := utf8.RuneCountInString(req.Question)
	if n < MinQuestionLength || n > MaxQuestionLength {
		return fmt.Errorf("%w: question must be between %d and %d characters",
			ErrInvalidRequest, MinQuestionLength, MaxQuestionLength)
	}
	if req.Provider == "" {
		req.Provider = s.config.Provider
		if req.Model == "" {
			req.Model = s.config.Model
		}
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = s.config.MaxTokens
	}
	if req.MaxTokens < MinMaxTokens || req.MaxTokens > MaxMaxTokens {
		return fmt.Errorf("%w: max_tokens must be between %d and %d",
			ErrInvalidRequest, MinMaxTokens, MaxMaxTokens)
	}
	return nil
}

func (s *Service) useRAG(req AskRequest) bool {
	if req.UseRAG == nil {
		return true
	}
	return *req.UseRAG
}

// log persists the exchange to the question log. Logging is best-effort
// and never fails the request.
func (s *Service) log(ctx context.Context, question string, ans *Answer) {
	if s.rag == nil {
		return
	}
	q := &storage.AssistantQuery{
		Question:     question,
		Answer:       ans.Answer,
		SQLGenerated: ans.SQLQuery,
		Provider:     ans.Provider,
		Model:        ans.Model,
		Confidence:   ans.Confidence,
		TokensUsed:   ans.TokensUsed,
		LatencyMs:    int64(ans.LatencyMs),
		Sources:      ans.Sources,
	}
	if err := s.rag.LogQuery(ctx, q); err != nil {
		if s.config.OnError != nil {
			s.config.OnError(fmt.Errorf("failed to log query: %w", err))
		}
		return
	}
	ans.QueryID = q.QueryID
}

func truncate(text string, max int) string {
	text = strings.TrimSpace(text)
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}
