package domain

import "time"

// Role identifies who produced a timeline message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Attachment is a transport-safe encoded file attached to a user message.
// It is immutable once created and owned by the message that carries it.
type Attachment struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"` // base64, standard encoding
	Name     string `json:"name"`
}

// Message is one entry in the conversation timeline. User messages carry
// Text and/or Attachment; assistant messages carry Answer or, on failure,
// IsError with a fixed user-facing text. Messages are never rewritten in
// place after being appended.
type Message struct {
	ID         string            `json:"id"`
	Role       Role              `json:"role"`
	Text       string            `json:"text,omitempty"`
	Attachment *Attachment       `json:"attachment,omitempty"`
	Answer     *StructuredAnswer `json:"answer,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
	IsError    bool              `json:"is_error,omitempty"`
}
