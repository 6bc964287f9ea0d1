package conversation

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rachitsh/studybuddy/internal/answer"
	"github.com/rachitsh/studybuddy/internal/domain"
	"github.com/rachitsh/studybuddy/internal/history"
	"github.com/rachitsh/studybuddy/internal/observability"
	"github.com/rachitsh/studybuddy/internal/policy"
	"github.com/rachitsh/studybuddy/internal/protocol"
	"github.com/rachitsh/studybuddy/internal/tutor"
)

// ErrorReplyText is the fixed apology shown for any failed turn. Boundary
// failures and schema mismatches are indistinguishable to the student; the
// distinction lives only in the log.
const ErrorReplyText = "Sorry, I encountered an error. Please try again."

const defaultHistorySaveTimeout = 5 * time.Second

// OrchestratorConfig carries per-session orchestrator settings.
type OrchestratorConfig struct {
	SessionID string
	// ClearOnLogout wipes the visible conversation when the identity goes
	// away. Kept as a policy switch rather than hardwired behavior.
	ClearOnLogout      bool
	HistorySaveTimeout time.Duration
}

// Orchestrator drives one request/response turn at a time for a single
// session. It is the sole writer of the timeline store and the session
// status; the single-flight guard means appends from two submissions can
// never interleave.
type Orchestrator struct {
	cfg     OrchestratorConfig
	store   *Store
	session *SessionConfig
	tutor   tutor.Client
	history history.Store
	metrics *observability.Metrics
	log     zerolog.Logger
	now     func() time.Time

	mu       sync.Mutex
	status   domain.SessionStatus
	identity *domain.Identity

	subMu       sync.Mutex
	subscribers map[int]chan any
	nextSubID   int
}

func NewOrchestrator(
	cfg OrchestratorConfig,
	store *Store,
	session *SessionConfig,
	tutorClient tutor.Client,
	historyStore history.Store,
	metrics *observability.Metrics,
	log zerolog.Logger,
) *Orchestrator {
	if cfg.HistorySaveTimeout <= 0 {
		cfg.HistorySaveTimeout = defaultHistorySaveTimeout
	}
	return &Orchestrator{
		cfg:         cfg,
		store:       store,
		session:     session,
		tutor:       tutorClient,
		history:     historyStore,
		metrics:     metrics,
		log:         log.With().Str("session_id", cfg.SessionID).Logger(),
		now:         func() time.Time { return time.Now().UTC() },
		status:      domain.StatusIdle,
		subscribers: make(map[int]chan any),
	}
}

// Status returns the current session status.
func (o *Orchestrator) Status() domain.SessionStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// Timeline returns a copy of the message timeline in display order.
func (o *Orchestrator) Timeline() []domain.Message {
	return o.store.Snapshot()
}

// Session exposes the mutable language/mode configuration.
func (o *Orchestrator) Session() *SessionConfig {
	return o.session
}

// Identity returns the identity currently scoping history operations.
func (o *Orchestrator) Identity() *domain.Identity {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.identity
}

// Submit runs one full turn: guard, append the user message, call the tutor
// boundary, validate, and append exactly one assistant message (answer or
// fixed error reply). Guard rejections return ErrBusy/ErrEmptySubmission and
// touch nothing; a completed turn always returns nil, with the outcome
// visible in the timeline and status.
func (o *Orchestrator) Submit(ctx context.Context, text string, att *domain.Attachment) error {
	trimmed := strings.TrimSpace(text)

	o.mu.Lock()
	if o.status == domain.StatusAwaitingResponse {
		o.mu.Unlock()
		o.metrics.TurnsTotal.WithLabelValues(observability.OutcomeRejectedBusy).Inc()
		return domain.ErrBusy
	}
	if trimmed == "" && att == nil {
		o.mu.Unlock()
		o.metrics.TurnsTotal.WithLabelValues(observability.OutcomeRejectedEmpty).Inc()
		return domain.ErrEmptySubmission
	}

	userMsg := domain.Message{
		ID:         uuid.NewString(),
		Role:       domain.RoleUser,
		Text:       trimmed,
		Attachment: att,
		Timestamp:  o.now(),
	}
	o.store.Append(userMsg)
	o.setStatusLocked(domain.StatusAwaitingResponse)
	o.publish(protocol.MessageAppended{
		Type:      protocol.TypeMessageAppended,
		SessionID: o.cfg.SessionID,
		Message:   userMsg,
	})

	// Language and mode are captured now; config changes made while this
	// request is in flight only affect the next submission.
	req := tutor.Request{
		Text:       trimmed,
		Attachment: att,
		Language:   o.session.Language(),
		Mode:       o.session.StudyMode(),
	}
	owner := o.identity
	o.mu.Unlock()

	started := time.Now()
	raw, boundaryErr := o.tutor.Analyze(ctx, req)
	o.metrics.ObserveTurnStage(observability.StageBoundaryCall, time.Since(started))

	var validated *domain.StructuredAnswer
	var schemaErr error
	if boundaryErr == nil {
		validateStart := time.Now()
		validated, schemaErr = answer.Parse(raw)
		o.metrics.ObserveTurnStage(observability.StageValidate, time.Since(validateStart))
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	switch {
	case boundaryErr != nil:
		o.log.Warn().Err(boundaryErr).Str("mode", string(req.Mode)).Msg("tutor boundary call failed")
		o.metrics.TurnStages.ObserveIndicator(observability.OutcomeBoundaryError)
		o.failTurnLocked(observability.OutcomeBoundaryError)
	case schemaErr != nil:
		o.log.Warn().Err(schemaErr).Str("mode", string(req.Mode)).Msg("tutor response rejected by validator")
		o.metrics.TurnStages.ObserveIndicator(observability.OutcomeSchemaMismatch)
		o.failTurnLocked(observability.OutcomeSchemaMismatch)
	default:
		assistantMsg := domain.Message{
			ID:        uuid.NewString(),
			Role:      domain.RoleAssistant,
			Answer:    validated,
			Timestamp: o.now(),
		}
		o.store.Append(assistantMsg)
		o.setStatusLocked(domain.StatusSuccess)
		o.publish(protocol.MessageAppended{
			Type:      protocol.TypeMessageAppended,
			SessionID: o.cfg.SessionID,
			Message:   assistantMsg,
		})
		o.metrics.TurnsTotal.WithLabelValues(observability.OutcomeSuccess).Inc()
		o.saveHistoryBestEffort(owner, trimmed, validated)
	}

	o.metrics.ObserveTurnLatency(time.Since(started))
	return nil
}

// failTurnLocked resolves the pending user message with the fixed error
// reply so the pairing invariant holds on every path.
func (o *Orchestrator) failTurnLocked(outcome string) {
	errMsg := domain.Message{
		ID:        uuid.NewString(),
		Role:      domain.RoleAssistant,
		Text:      ErrorReplyText,
		IsError:   true,
		Timestamp: o.now(),
	}
	o.store.Append(errMsg)
	o.setStatusLocked(domain.StatusFailed)
	o.publish(protocol.MessageAppended{
		Type:      protocol.TypeMessageAppended,
		SessionID: o.cfg.SessionID,
		Message:   errMsg,
	})
	o.metrics.TurnsTotal.WithLabelValues(outcome).Inc()
}

// LoadHistorical projects a saved turn back into the active view. It fully
// replaces the timeline and never writes history; the record already exists.
func (o *Orchestrator) LoadHistorical(record domain.HistoryRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.status == domain.StatusAwaitingResponse {
		return domain.ErrBusy
	}

	ans := record.Answer
	msgs := []domain.Message{
		{
			ID:        uuid.NewString(),
			Role:      domain.RoleUser,
			Text:      record.Query,
			Timestamp: o.now(),
		},
		{
			ID:        uuid.NewString(),
			Role:      domain.RoleAssistant,
			Answer:    &ans,
			Timestamp: o.now(),
		},
	}
	o.store.ReplaceAll(msgs)
	o.setStatusLocked(domain.StatusSuccess)
	o.publish(protocol.TimelineReplaced{
		Type:      protocol.TypeTimelineReplaced,
		SessionID: o.cfg.SessionID,
		Messages:  msgs,
	})
	return nil
}

// Reset clears the conversation for an explicit "new chat".
func (o *Orchestrator) Reset() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.status == domain.StatusAwaitingResponse {
		return domain.ErrBusy
	}
	o.clearLocked()
	return nil
}

// SetIdentity records the identity from the auth collaborator. A nil
// identity means signed out; with ClearOnLogout enabled that also wipes the
// visible conversation, unless a turn is mid-flight (the in-flight turn
// still resolves against the old owner it captured).
func (o *Orchestrator) SetIdentity(id *domain.Identity) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.identity = id
	if id == nil && o.cfg.ClearOnLogout && o.status != domain.StatusAwaitingResponse {
		o.clearLocked()
	}
}

func (o *Orchestrator) clearLocked() {
	o.store.Clear()
	o.setStatusLocked(domain.StatusIdle)
	o.publish(protocol.TimelineCleared{
		Type:      protocol.TypeTimelineCleared,
		SessionID: o.cfg.SessionID,
	})
}

func (o *Orchestrator) setStatusLocked(s domain.SessionStatus) {
	if o.status == s {
		return
	}
	o.status = s
	o.publish(protocol.StatusChanged{
		Type:      protocol.TypeStatusChanged,
		SessionID: o.cfg.SessionID,
		Status:    s,
	})
}

// saveHistoryBestEffort persists a completed turn without blocking or
// failing the conversation. Anonymous sessions are simply not saved.
func (o *Orchestrator) saveHistoryBestEffort(owner *domain.Identity, query string, ans *domain.StructuredAnswer) {
	if o.history == nil || owner == nil {
		return
	}
	redacted, _ := policy.RedactQuery(query)
	record := domain.HistoryRecord{
		OwnerID: owner.ID,
		Query:   redacted,
		Subject: ans.Subject,
		Summary: ans.Summary,
		Answer:  *ans,
	}
	go func(r domain.HistoryRecord) {
		saveCtx, cancel := context.WithTimeout(context.Background(), o.cfg.HistorySaveTimeout)
		defer cancel()
		if err := o.history.Save(saveCtx, r); err != nil {
			o.metrics.HistorySaveFailures.Inc()
			o.log.Warn().Err(err).Msg("history save failed, conversation unaffected")
		}
	}(record)
}

// Subscribe registers a listener for timeline and status events. Events are
// dropped rather than blocking the turn when a subscriber falls behind.
func (o *Orchestrator) Subscribe() (<-chan any, func()) {
	ch := make(chan any, 256)
	o.subMu.Lock()
	o.nextSubID++
	id := o.nextSubID
	o.subscribers[id] = ch
	o.subMu.Unlock()

	return ch, func() {
		o.subMu.Lock()
		defer o.subMu.Unlock()
		if c, ok := o.subscribers[id]; ok {
			delete(o.subscribers, id)
			close(c)
		}
	}
}

func (o *Orchestrator) publish(evt any) {
	o.subMu.Lock()
	defer o.subMu.Unlock()
	for _, ch := range o.subscribers {
		select {
		case ch <- evt:
		default:
		}
	}
}
