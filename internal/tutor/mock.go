package tutor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rachitsh/studybuddy/internal/domain"
)

// MockClient is a local fallback used when no API key is configured. It
// produces a deterministic, schema-valid answer that echoes the request.
type MockClient struct{}

func NewMockClient() *MockClient { return &MockClient{} }

func (c *MockClient) Analyze(_ context.Context, req Request) (string, error) {
	answer := domain.StructuredAnswer{
		Subject:      "General",
		Topic:        "Mock Response",
		Difficulty:   string(domain.DifficultyEasy),
		LanguageUsed: string(req.Language),
		SolutionSteps: []domain.SolutionStep{
			{StepNumber: 1, Title: "Read the question", Description: fmt.Sprintf("You asked: %s", req.Prompt())},
			{StepNumber: 2, Title: "Mock answer", Description: "This deterministic answer comes from the mock tutor."},
		},
		SimpleExplanation: "The mock tutor answers every question the same way.",
		ImportantFormulas: []string{},
		CommonMistakes:    []string{},
		Summary:           "Mock tutoring answer in " + string(req.Mode) + " mode.",
	}
	raw, err := json.Marshal(answer)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrBoundary, err)
	}
	return string(raw), nil
}
