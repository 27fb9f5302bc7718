package contract

import "encoding/json"

type Message struct {
	Role       string      `json:"role"`
	Content    string      `json:"content"`
	Name       string      `json:"name,omitempty"`
	ToolCallID string      `json:"tool_call_id,omitempty"`
	ToolCalls  []*ToolCall `json:"tool_calls,omitempty"`
}

// ToolCall is a resolved function invocation requested by the model.
// Args is always an object: malformed argument JSON degrades to {} during
// accumulation and never reaches a caller as anything else.
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

type ToolDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// ChatStreamRequest is the body of POST /api/stories/{id}/chat/stream.
type ChatStreamRequest struct {
	Messages       []Message `json:"messages"`
	ModelType      string    `json:"model_type"`
	ModelName      string    `json:"model_name"`
	Tools          []ToolDef `json:"tools,omitempty"`
	ToolChoice     string    `json:"tool_choice,omitempty"`
	AllowWebSearch bool      `json:"allow_web_search,omitempty"`
}

// ToolExecRequest is the body of POST /api/stories/{id}/chat/tools. Tool
// execution is batched server-side: the backend runs every pending call from
// the trailing assistant message in one pass.
type ToolExecRequest struct {
	Messages        []Message `json:"messages"`
	ModelName       string    `json:"model_name"`
	ActiveChapterID int       `json:"active_chapter_id"`
}

type ToolExecResponse struct {
	AppendedMessages []Message `json:"appended_messages"`
	Mutations        Mutations `json:"mutations"`
}

// Mutations reports side effects of server-side tool execution on persisted
// story state. StoryChanged requires the caller to refresh chapter/editor
// state.
type Mutations struct {
	StoryChanged bool `json:"story_changed,omitempty"`
}

// AssistantTurn is one completed model response: the accumulated content of a
// stream plus any resolved tool calls.
type AssistantTurn struct {
	Content   string      `json:"content"`
	ToolCalls []*ToolCall `json:"tool_calls,omitempty"`
}

// AssistantMessage folds a turn into a transcript message. Empty content with
// tool calls present is a valid assistant message and must not be dropped.
func (t *AssistantTurn) AssistantMessage() Message {
	return Message{
		Role:      "assistant",
		Content:   t.Content,
		ToolCalls: t.ToolCalls,
	}
}

// CompletionRequest is the provider-facing request for direct (non-proxy)
// generation.
type CompletionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Tools    []ToolDef `json:"tools,omitempty"`
}

type CompletionResponse struct {
	Content   string      `json:"content"`
	ToolCalls []*ToolCall `json:"tool_calls,omitempty"`
}

// ArgsJSON renders a tool call's arguments back into a JSON string for
// providers that speak the OpenAI wire shape.
func ArgsJSON(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// ParseArgs is the inverse of ArgsJSON. Anything that does not parse as a
// JSON object becomes {}.
func ParseArgs(raw string) map[string]any {
	args := map[string]any{}
	if raw == "" {
		return args
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil || args == nil {
		return map[string]any{}
	}
	return args
}
