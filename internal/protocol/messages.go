// Package protocol defines the websocket payload variants pushed to a
// connected UI while a session's timeline evolves, plus the small set of
// control messages a client may send back.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rachitsh/studybuddy/internal/domain"
)

// MessageType identifies websocket payload variants.
type MessageType string

const (
	TypeClientControl    MessageType = "client_control"
	TypeStatusChanged    MessageType = "status_changed"
	TypeMessageAppended  MessageType = "message_appended"
	TypeTimelineReplaced MessageType = "timeline_replaced"
	TypeTimelineCleared  MessageType = "timeline_cleared"
	TypeErrorEvent       MessageType = "error_event"
)

var ErrUnsupportedType = errors.New("unsupported message type")

type Envelope struct {
	Type MessageType `json:"type"`
}

// ClientControl carries a UI action over the live socket.
// Supported actions: "reset".
type ClientControl struct {
	Type   MessageType `json:"type"`
	Action string      `json:"action"`
}

type StatusChanged struct {
	Type      MessageType          `json:"type"`
	SessionID string               `json:"session_id"`
	Status    domain.SessionStatus `json:"status"`
}

type MessageAppended struct {
	Type      MessageType    `json:"type"`
	SessionID string         `json:"session_id"`
	Message   domain.Message `json:"message"`
}

type TimelineReplaced struct {
	Type      MessageType      `json:"type"`
	SessionID string           `json:"session_id"`
	Messages  []domain.Message `json:"messages"`
}

type TimelineCleared struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
}

type ErrorEvent struct {
	Type      MessageType `json:"type"`
	SessionID string      `json:"session_id"`
	Code      string      `json:"code"`
	Detail    string      `json:"detail"`
}

// ParseClientMessage decodes and validates one inbound websocket payload.
func ParseClientMessage(raw []byte) (any, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope: %w", err)
	}

	switch env.Type {
	case TypeClientControl:
		var msg ClientControl
		if err := json.Unmarshal(raw, &msg); err != nil {
			return nil, err
		}
		if msg.Action == "" {
			return nil, errors.New("invalid client_control")
		}
		return msg, nil
	default:
		return nil, ErrUnsupportedType
	}
}

// TypeOf reports the message type of a known payload variant.
func TypeOf(v any) (MessageType, bool) {
	switch m := v.(type) {
	case ClientControl:
		return m.Type, true
	case StatusChanged:
		return m.Type, true
	case MessageAppended:
		return m.Type, true
	case TimelineReplaced:
		return m.Type, true
	case TimelineCleared:
		return m.Type, true
	case ErrorEvent:
		return m.Type, true
	default:
		return "", false
	}
}
