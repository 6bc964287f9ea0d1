package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rachitsh/studybuddy/internal/attachment"
	"github.com/rachitsh/studybuddy/internal/domain"
	"github.com/rachitsh/studybuddy/internal/engine"
	"github.com/rachitsh/studybuddy/internal/history"
)

type createSessionResponse struct {
	SessionID       string               `json:"session_id"`
	Status          domain.SessionStatus `json:"status"`
	Language        domain.Language      `json:"language"`
	StudyMode       domain.StudyMode     `json:"study_mode"`
	StartedAt       time.Time            `json:"started_at"`
	InactivityTTLMS int64                `json:"inactivity_ttl_ms"`
}

type submitRequest struct {
	Text       string             `json:"text"`
	Attachment *domain.Attachment `json:"attachment,omitempty"`
}

const maxUploadMemory = 4 << 20

// parseSubmitRequest accepts the message as JSON with a pre-encoded
// attachment, or as a multipart form whose file part is encoded here.
func parseSubmitRequest(r *http.Request) (submitRequest, error) {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		var req submitRequest
		if err := decodeJSON(r, &req); err != nil {
			return submitRequest{}, err
		}
		return req, nil
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return submitRequest{}, err
	}
	req := submitRequest{Text: r.FormValue("text")}

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return req, nil
	}
	if err != nil {
		return submitRequest{}, err
	}
	defer file.Close()

	att, err := attachment.Encode(file, header.Header.Get("Content-Type"), header.Filename)
	if err != nil {
		return submitRequest{}, err
	}
	req.Attachment = &att
	return req, nil
}

type timelineResponse struct {
	SessionID string               `json:"session_id"`
	Status    domain.SessionStatus `json:"status"`
	Messages  []apiMessage         `json:"messages"`
}

// apiMessage decorates a timeline message with the canonical difficulty
// styling value, so clients get {Easy, Medium, Hard} or the default style
// without re-deriving it from the free-form answer field.
type apiMessage struct {
	domain.Message
	DifficultyStyle domain.Difficulty `json:"difficulty_style,omitempty"`
}

func toAPIMessages(msgs []domain.Message) []apiMessage {
	out := make([]apiMessage, len(msgs))
	for i, m := range msgs {
		out[i] = apiMessage{Message: m}
		if m.Answer != nil {
			out[i].DifficultyStyle = domain.CanonicalDifficulty(m.Answer.Difficulty)
		}
	}
	return out
}

type identityRequest struct {
	Identity *domain.Identity `json:"identity"`
}

type configRequest struct {
	Language  *domain.Language  `json:"language,omitempty"`
	StudyMode *domain.StudyMode `json:"study_mode,omitempty"`
}

type configResponse struct {
	Language  domain.Language  `json:"language"`
	StudyMode domain.StudyMode `json:"study_mode"`
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*engine.Session, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "missing session id")
		return nil, false
	}
	sess, err := s.sessions.Get(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return nil, false
	}
	return sess, true
}

func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	sess := s.sessions.Create()
	cfg := sess.Orchestrator.Session()
	respondJSON(w, http.StatusCreated, createSessionResponse{
		SessionID:       sess.ID,
		Status:          sess.Orchestrator.Status(),
		Language:        cfg.Language(),
		StudyMode:       cfg.StudyMode(),
		StartedAt:       sess.StartedAt,
		InactivityTTLMS: s.cfg.SessionInactivityTimeout.Milliseconds(),
	})
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if err := s.sessions.End(id); err != nil {
		respondError(w, http.StatusNotFound, "session_not_found", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"session_id": id, "status": "ended"})
}

func (s *Server) handleSubmitMessage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	req, err := parseSubmitRequest(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	err = sess.Orchestrator.Submit(r.Context(), req.Text, req.Attachment)
	switch {
	case errors.Is(err, domain.ErrBusy):
		respondError(w, http.StatusConflict, "request_in_flight", "a submission is already being processed")
		return
	case errors.Is(err, domain.ErrEmptySubmission):
		respondError(w, http.StatusBadRequest, "empty_submission", "text or attachment is required")
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}

	messages := sess.Orchestrator.Timeline()
	if len(messages) > 2 {
		messages = messages[len(messages)-2:]
	}
	respondJSON(w, http.StatusOK, timelineResponse{
		SessionID: sess.ID,
		Status:    sess.Orchestrator.Status(),
		Messages:  toAPIMessages(messages),
	})
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, timelineResponse{
		SessionID: sess.ID,
		Status:    sess.Orchestrator.Status(),
		Messages:  toAPIMessages(sess.Orchestrator.Timeline()),
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.Orchestrator.Reset(); err != nil {
		respondError(w, http.StatusConflict, "request_in_flight", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, timelineResponse{
		SessionID: sess.ID,
		Status:    sess.Orchestrator.Status(),
		Messages:  []apiMessage{},
	})
}

func (s *Server) handleSetIdentity(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req identityRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.Identity != nil && strings.TrimSpace(req.Identity.ID) == "" {
		respondError(w, http.StatusBadRequest, "invalid_identity", "identity.id is required")
		return
	}
	sess.Orchestrator.SetIdentity(req.Identity)
	respondJSON(w, http.StatusOK, map[string]any{
		"session_id": sess.ID,
		"identity":   sess.Orchestrator.Identity(),
	})
}

func (s *Server) handleSetConfig(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req configRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	cfg := sess.Orchestrator.Session()
	if req.Language != nil && !cfg.SetLanguage(*req.Language) {
		respondError(w, http.StatusBadRequest, "invalid_language", "unsupported language: "+string(*req.Language))
		return
	}
	if req.StudyMode != nil && !cfg.SetStudyMode(*req.StudyMode) {
		respondError(w, http.StatusBadRequest, "invalid_study_mode", "unsupported study mode: "+string(*req.StudyMode))
		return
	}
	respondJSON(w, http.StatusOK, configResponse{
		Language:  cfg.Language(),
		StudyMode: cfg.StudyMode(),
	})
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	owner := sess.Orchestrator.Identity()
	if owner == nil {
		respondError(w, http.StatusUnauthorized, "not_signed_in", "history requires a signed-in identity")
		return
	}

	limit := history.DefaultListLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := s.history.ListByOwner(r.Context(), owner.ID, limit)
	if err != nil {
		s.log.Error().Err(err).Str("session_id", sess.ID).Msg("history list failed")
		respondError(w, http.StatusInternalServerError, "history_unavailable", "could not load history")
		return
	}
	if records == nil {
		records = []domain.HistoryRecord{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"records": records})
}

func (s *Server) handleLoadHistory(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	owner := sess.Orchestrator.Identity()
	if owner == nil {
		respondError(w, http.StatusUnauthorized, "not_signed_in", "history requires a signed-in identity")
		return
	}
	recordID := strings.TrimSpace(chi.URLParam(r, "recordID"))
	if recordID == "" {
		respondError(w, http.StatusBadRequest, "invalid_record_id", "missing record id")
		return
	}

	record, err := s.history.Get(r.Context(), owner.ID, recordID)
	switch {
	case errors.Is(err, domain.ErrRecordNotFound):
		respondError(w, http.StatusNotFound, "record_not_found", "no such history record")
		return
	case err != nil:
		s.log.Error().Err(err).Str("session_id", sess.ID).Msg("history get failed")
		respondError(w, http.StatusInternalServerError, "history_unavailable", "could not load record")
		return
	}

	if err := sess.Orchestrator.LoadHistorical(*record); err != nil {
		respondError(w, http.StatusConflict, "request_in_flight", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, timelineResponse{
		SessionID: sess.ID,
		Status:    sess.Orchestrator.Status(),
		Messages:  toAPIMessages(sess.Orchestrator.Timeline()),
	})
}

type suggestion struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Desc   string `json:"desc"`
	Prompt string `json:"prompt"`
}

var suggestions = []suggestion{
	{ID: "maths", Name: "Maths", Desc: "Algebra, Calculus, Geometry", Prompt: "Help me solve this Maths problem step-by-step:"},
	{ID: "physics", Name: "Physics", Desc: "Numericals, Laws, Motion", Prompt: "Explain this Physics numerical and the concepts behind it:"},
	{ID: "chemistry", Name: "Chemistry", Desc: "Reactions, Formulas", Prompt: "Explain this Chemical reaction/formula in detail:"},
	{ID: "commerce", Name: "Accounts / Econ", Desc: "Journal entries, Concepts", Prompt: "Explain this Accounts/Economics concept with examples:"},
	{ID: "coding", Name: "Coding", Desc: "Logic, Debugging, Syntax", Prompt: "Explain the logic of this code and fix any errors:"},
}

func (s *Server) handleSuggestions(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}
