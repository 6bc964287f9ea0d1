package domain

import "time"

// HistoryRecord is the persisted projection of one completed turn. SavedAt
// is assigned by the store at write time, never by the client.
type HistoryRecord struct {
	ID      string           `json:"id"`
	OwnerID string           `json:"owner_id"`
	Query   string           `json:"query"`
	Subject string           `json:"subject"`
	Summary string           `json:"summary"`
	Answer  StructuredAnswer `json:"answer"`
	SavedAt time.Time        `json:"saved_at"`
}

// Identity is the signed-in user supplied by the authentication collaborator.
// The engine treats it as an opaque token scoping history reads and writes.
type Identity struct {
	ID          string `json:"id"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}
