// Package history persists completed tutoring turns to an external store
// and retrieves them for replay into the active conversation.
package history

import (
	"context"

	"github.com/rachitsh/studybuddy/internal/domain"
)

// DefaultListLimit bounds history reads when the caller passes no limit.
const DefaultListLimit = 20

// Store persists and retrieves per-owner history records. Every query is
// scoped by owner; implementations must reject writes without one.
type Store interface {
	Save(ctx context.Context, record domain.HistoryRecord) error
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]domain.HistoryRecord, error)
	Get(ctx context.Context, ownerID, recordID string) (*domain.HistoryRecord, error)
	Close() error
}
