package tutor

import "strings"

// NewClient creates a Gemini-backed client when an API key is configured,
// otherwise the deterministic mock.
func NewClient(cfg GeminiConfig) Client {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return NewMockClient()
	}
	return NewGeminiClient(cfg)
}
