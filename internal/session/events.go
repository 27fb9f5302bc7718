package session

import (
	"time"

	"github.com/inkwell-ai/inkwell/internal/chat/contract"
)

type EventType string

const (
	EventTypeUser      EventType = "user"
	EventTypeAssistant EventType = "assistant"
	EventTypeTool      EventType = "tool"
	EventTypeSystem    EventType = "system"
)

// Event is one persisted line of a session transcript.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"ts"`
	Type      EventType `json:"type"`

	// Core content, compatible with contract.Message.
	Role       string               `json:"role"`
	Content    string               `json:"content"`
	Name       string               `json:"name,omitempty"`
	ToolCalls  []*contract.ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string               `json:"tool_call_id,omitempty"`
}

func (e Event) ToMessage() contract.Message {
	return contract.Message{
		Role:       e.Role,
		Content:    e.Content,
		Name:       e.Name,
		ToolCalls:  e.ToolCalls,
		ToolCallID: e.ToolCallID,
	}
}

func eventTypeForRole(role string) EventType {
	switch role {
	case "system":
		return EventTypeSystem
	case "assistant":
		return EventTypeAssistant
	case "tool":
		return EventTypeTool
	default:
		return EventTypeUser
	}
}
