// Package conversation holds the in-memory timeline of the active session
// and the orchestrator that drives one request/response turn against the
// tutor boundary.
package conversation

import (
	"sync"

	"github.com/rachitsh/studybuddy/internal/domain"
)

// Store is the ordered, append-only message timeline for one session. It is
// the single source of truth for what the UI displays. Insertion order is
// display order. No network or persistence side effects live here.
type Store struct {
	mu       sync.RWMutex
	messages []domain.Message
}

func NewStore() *Store {
	return &Store{}
}

// Append adds one message to the end of the timeline.
func (s *Store) Append(msg domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

// ReplaceAll swaps the whole timeline for the given sequence. Used when a
// historical turn is loaded back into the active view; never a merge.
func (s *Store) ReplaceAll(msgs []domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages[:0:0], msgs...)
}

// Snapshot returns a copy of the timeline in display order. Callers own the
// returned slice and cannot disturb the store through it.
func (s *Store) Snapshot() []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Clear empties the timeline. Used on explicit new-conversation and,
// depending on policy, on sign-out.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
}

// Len returns the current timeline length.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}
