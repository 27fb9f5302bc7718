package store

import (
	"time"

	"github.com/inkwell-ai/inkwell/internal/chat/contract"
)

// --- Session Index (sessions/index.json) ---

type SessionMeta struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	StoryID   string    `json:"story_id"`
	ModelName string    `json:"model_name,omitempty"`
	Status    string    `json:"status"` // "active", "archived"
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type SessionIndex struct {
	Sessions map[string]SessionMeta `json:"sessions"`
}

// --- Transcript (sessions/<id>.jsonl) ---

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

type TranscriptEntry struct {
	ID         string               `json:"id"` // ULID
	Timestamp  time.Time            `json:"ts"`
	Role       Role                 `json:"role"`
	Content    string               `json:"content"`
	Name       string               `json:"name,omitempty"`
	ToolCallID string               `json:"tool_call_id,omitempty"`
	ToolCalls  []*contract.ToolCall `json:"tool_calls,omitempty"`
}
