package tutor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rachitsh/studybuddy/internal/domain"
	"github.com/rachitsh/studybuddy/internal/reliability"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-3-flash-preview"
	requestTimeout = 60 * time.Second
)

// GeminiConfig configures the Gemini-backed client.
type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	// MaxRetries is an opt-in retry count for retryable HTTP statuses.
	// The default of 0 means a failed call immediately becomes a failed turn.
	MaxRetries   int
	RetryBackoff time.Duration
}

// GeminiClient calls the Gemini generateContent API with a structured-output
// response schema, so the model is constrained to the answer contract.
type GeminiClient struct {
	cfg        GeminiConfig
	httpClient *http.Client
}

func NewGeminiClient(cfg GeminiConfig) *GeminiClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 250 * time.Millisecond
	}
	return &GeminiClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiPart struct {
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
	Text       string            `json:"text,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiThinkingConfig struct {
	ThinkingBudget int `json:"thinkingBudget"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string                `json:"responseMimeType"`
	ResponseSchema   any                   `json:"responseSchema"`
	ThinkingConfig   *geminiThinkingConfig `json:"thinkingConfig,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent        `json:"contents"`
	SystemInstruction geminiContent          `json:"systemInstruction"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// answerResponseSchema mirrors domain.StructuredAnswer for Gemini's
// structured output. Every property is required; the validator still
// re-checks the payload because the model contract is not trusted.
func answerResponseSchema() map[string]any {
	str := map[string]any{"type": "STRING"}
	strArray := map[string]any{"type": "ARRAY", "items": str}
	return map[string]any{
		"type": "OBJECT",
		"properties": map[string]any{
			"subject":      str,
			"topic":        str,
			"difficulty":   str,
			"languageUsed": str,
			"solutionSteps": map[string]any{
				"type": "ARRAY",
				"items": map[string]any{
					"type": "OBJECT",
					"properties": map[string]any{
						"stepNumber":  map[string]any{"type": "INTEGER"},
						"title":       str,
						"description": str,
					},
					"required": []string{"stepNumber", "title", "description"},
				},
			},
			"simpleExplanation": str,
			"importantFormulas": strArray,
			"commonMistakes":    strArray,
			"summary":           str,
		},
		"required": []string{
			"subject", "topic", "difficulty", "languageUsed", "solutionSteps",
			"simpleExplanation", "importantFormulas", "commonMistakes", "summary",
		},
	}
}

// Analyze sends one tutoring request and returns the raw JSON payload text.
func (c *GeminiClient) Analyze(ctx context.Context, req Request) (string, error) {
	parts := make([]geminiPart, 0, 2)
	if req.Attachment != nil {
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{
			MimeType: req.Attachment.MimeType,
			Data:     req.Attachment.Data,
		}})
	}
	parts = append(parts, geminiPart{Text: req.Prompt()})

	body := geminiRequest{
		Contents:          []geminiContent{{Parts: parts}},
		SystemInstruction: geminiContent{Parts: []geminiPart{{Text: BuildSystemInstruction(req.Language, req.Mode)}}},
		GenerationConfig: geminiGenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   answerResponseSchema(),
			// Thinking disabled for latency, matching the flash model profile.
			ThinkingConfig: &geminiThinkingConfig{ThinkingBudget: 0},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", domain.ErrBoundary, err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := reliability.ExponentialBackoff(attempt-1, c.cfg.RetryBackoff, 4*time.Second)
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", domain.ErrBoundary, ctx.Err())
			case <-time.After(wait):
			}
		}

		text, retryable, err := c.doRequest(ctx, payload)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return "", lastErr
}

func (c *GeminiClient) doRequest(ctx context.Context, payload []byte) (text string, retryable bool, err error) {
	url := fmt.Sprintf("%s/models/%s:generateContent", c.cfg.BaseURL, c.cfg.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", false, fmt.Errorf("%w: create request: %v", domain.ErrBoundary, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", true, fmt.Errorf("%w: %v", domain.ErrBoundary, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("%w: read response: %v", domain.ErrBoundary, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", reliability.IsRetryableHTTPStatus(resp.StatusCode),
			fmt.Errorf("%w: status %d: %s", domain.ErrBoundary, resp.StatusCode, truncate(raw, 256))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", false, fmt.Errorf("%w: parse response envelope: %v", domain.ErrBoundary, err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", false, fmt.Errorf("%w: no response text generated", domain.ErrBoundary)
	}
	return parsed.Candidates[0].Content.Parts[0].Text, false, nil
}

func truncate(raw []byte, n int) string {
	if len(raw) <= n {
		return string(raw)
	}
	return string(raw[:n]) + "..."
}
