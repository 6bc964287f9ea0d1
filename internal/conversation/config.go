package conversation

import (
	"sync"

	"github.com/rachitsh/studybuddy/internal/domain"
)

// SessionConfig holds the language and pedagogical mode for the session.
// Either may change at any time, including while a request is in flight; a
// change only affects the next submission because the orchestrator captures
// both values when it builds the outbound request.
type SessionConfig struct {
	mu       sync.RWMutex
	language domain.Language
	mode     domain.StudyMode
}

func NewSessionConfig() *SessionConfig {
	return &SessionConfig{
		language: domain.LanguageHinglish,
		mode:     domain.ModeSolve,
	}
}

func (c *SessionConfig) Language() domain.Language {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.language
}

func (c *SessionConfig) StudyMode() domain.StudyMode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mode
}

// SetLanguage updates the explanation language; unknown values are ignored.
func (c *SessionConfig) SetLanguage(l domain.Language) bool {
	if !l.IsValid() {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.language = l
	return true
}

// SetStudyMode updates the pedagogical mode; unknown values are ignored.
func (c *SessionConfig) SetStudyMode(m domain.StudyMode) bool {
	if !m.IsValid() {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = m
	return true
}
