package history

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rachitsh/studybuddy/internal/domain"
)

// InMemoryStore keeps history in process memory for local/dev use and tests.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string][]domain.HistoryRecord
	now     func() time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[string][]domain.HistoryRecord),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *InMemoryStore) Save(_ context.Context, record domain.HistoryRecord) error {
	if strings.TrimSpace(record.OwnerID) == "" {
		return domain.ErrMissingOwner
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	// Mirror the store-assigned timestamp behavior of the real backend.
	record.SavedAt = s.now()
	s.records[record.OwnerID] = append(s.records[record.OwnerID], record)
	return nil
}

func (s *InMemoryStore) ListByOwner(_ context.Context, ownerID string, limit int) ([]domain.HistoryRecord, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, domain.ErrMissingOwner
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	arr := s.records[ownerID]
	out := make([]domain.HistoryRecord, 0, limit)
	for i := len(arr) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, arr[i])
	}
	return out, nil
}

func (s *InMemoryStore) Get(_ context.Context, ownerID, recordID string) (*domain.HistoryRecord, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, domain.ErrMissingOwner
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records[ownerID] {
		if r.ID == recordID {
			rec := r
			return &rec, nil
		}
	}
	return nil, domain.ErrRecordNotFound
}

func (s *InMemoryStore) Close() error { return nil }
