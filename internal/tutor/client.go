// Package tutor is the boundary to the AI model that produces structured
// tutoring answers. The model is opaque; callers see a typed request and the
// raw JSON payload it returned.
package tutor

import (
	"context"

	"github.com/rachitsh/studybuddy/internal/domain"
)

// DefaultPrompt is sent when a submission has an attachment but no text.
const DefaultPrompt = "Please analyze this problem and explain the solution step-by-step."

// Request captures everything needed for one tutoring call. Language and
// mode are frozen here, so session config changes never affect a request
// that is already in flight.
type Request struct {
	Text       string
	Attachment *domain.Attachment
	Language   domain.Language
	Mode       domain.StudyMode
}

// Prompt returns the effective text prompt for the request.
func (r Request) Prompt() string {
	if r.Text == "" {
		return DefaultPrompt
	}
	return r.Text
}

// Client calls the tutoring model and returns the raw JSON payload. Schema
// validation is deliberately not done here; that belongs to the validator.
type Client interface {
	Analyze(ctx context.Context, req Request) (string, error)
}
