package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"

// GeminiClient generates completions through the Gemini generateContent API
type GeminiClient struct {
	apiKey     string
	model      string
	httpClient *http.Client
	baseURL    string
}

// NewGeminiClient creates a chat client for the given model
func NewGeminiClient(apiKey, model string) *GeminiClient {
	return &GeminiClient{
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    geminiBaseURL,
	}
}

// Provider returns "gemini"
func (c *GeminiClient) Provider() string { return "gemini" }

// Model returns the configured model identifier
func (c *GeminiClient) Model() string { return c.model }

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerateRequest struct {
	Contents          []geminiContent `json:"contents"`
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	GenerationConfig  struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

type geminiGenerateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
	Error *struct {
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Chat sends the conversation to generateContent. Gemini uses "model" for
// assistant turns; roles are mapped accordingly.
func (c *GeminiClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	payload := geminiGenerateRequest{}
	payload.GenerationConfig.Temperature = req.Temperature
	payload.GenerationConfig.MaxOutputTokens = maxTokens

	if req.System != "" {
		payload.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.System}}}
	}
	for _, m := range req.Messages {
		role := m.Role
		if role == RoleAssistant {
			role = "model"
		}
		payload.Contents = append(payload.Contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: m.Content}},
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: gemini: %v", ErrRequestFailed, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var parsed geminiGenerateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return nil, fmt.Errorf("%w: gemini: %s (%s)", ErrRequestFailed, parsed.Error.Message, parsed.Error.Status)
		}
		return nil, fmt.Errorf("%w: gemini: status %d", ErrRequestFailed, httpResp.StatusCode)
	}
	if len(parsed.Candidates) == 0 {
		return nil, fmt.Errorf("%w: gemini returned no candidates", ErrEmptyResponse)
	}

	var text string
	for _, part := range parsed.Candidates[0].Content.Parts {
		text += part.Text
	}
	if text == "" {
		return nil, fmt.Errorf("%w: gemini candidate had no text", ErrEmptyResponse)
	}

	return &ChatResponse{
		Text:         text,
		InputTokens:  parsed.UsageMetadata.PromptTokenCount,
		OutputTokens: parsed.UsageMetadata.CandidatesTokenCount,
		StopReason:   parsed.Candidates[0].FinishReason,
	}, nil
}
