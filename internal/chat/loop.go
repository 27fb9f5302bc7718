package chat

import (
	"context"
	"log/slog"

	"github.com/inkwell-ai/inkwell/internal/chat/contract"
	"github.com/inkwell-ai/inkwell/internal/chat/stream"
	"github.com/inkwell-ai/inkwell/internal/notify"
)

// Backend is the slice of the proxy client the loop depends on.
type Backend interface {
	ChatStream(ctx context.Context, storyID string, req contract.ChatStreamRequest, h stream.Handlers) (*contract.AssistantTurn, error)
	ExecuteTools(ctx context.Context, storyID string, req contract.ToolExecRequest) (*contract.ToolExecResponse, error)
}

// Options fix the per-session parameters of a conversation loop.
type Options struct {
	StoryID         string
	ModelType       string
	ModelName       string
	ActiveChapterID int
	AllowWebSearch  bool
}

// Loop drives one conversation turn against the backend:
//
//	Idle -> AwaitingFirstResponse -> [ExecutingTools] -> AwaitingSecondResponse -> Idle
//
// Tool execution happens at most once per turn. When the second response
// itself requests tools, those calls are appended to the transcript but never
// executed. The single-bounce limit is part of the contract, not an
// oversight to fix here.
type Loop struct {
	backend Backend
	events  notify.Events
	opts    Options
}

func NewLoop(backend Backend, events notify.Events, opts Options) *Loop {
	if events == nil {
		events = notify.Nop()
	}
	return &Loop{
		backend: backend,
		events:  events,
		opts:    opts,
	}
}

// Events exposes the loop's observer so callers can funnel their own errors
// through the same sink.
func (l *Loop) Events() notify.Events {
	return l.events
}

func (l *Loop) ModelName() string {
	return l.opts.ModelName
}

// SetModelName switches the model for subsequent turns. The loop is
// single-flight per session so there is no concurrent Send to race with.
func (l *Loop) SetModelName(name string) {
	l.opts.ModelName = name
}

// Send submits the transcript (with the user's newest message already
// appended by the caller) and returns the transcript extended with everything
// this turn produced.
//
// Failure semantics are best-effort: on error the returned transcript keeps
// every message appended so far. Partial progress is never rolled back or
// hidden; the caller surfaces the error and leaves the transcript as is.
func (l *Loop) Send(ctx context.Context, transcript []contract.Message, h stream.Handlers) ([]contract.Message, error) {
	transcript = ensureSystemMessage(transcript)

	first, err := l.backend.ChatStream(ctx, l.opts.StoryID, contract.ChatStreamRequest{
		Messages:       transcript,
		ModelType:      l.opts.ModelType,
		ModelName:      l.opts.ModelName,
		Tools:          Catalog(),
		ToolChoice:     "auto",
		AllowWebSearch: l.opts.AllowWebSearch,
	}, h)
	if err != nil {
		return transcript, err
	}

	// Appended unconditionally: empty content with tool calls is a valid
	// assistant message.
	transcript = append(transcript, first.AssistantMessage())

	if len(first.ToolCalls) == 0 {
		return transcript, nil
	}

	slog.Debug("Assistant requested tools", "count", len(first.ToolCalls), "story", l.opts.StoryID)

	exec, err := l.backend.ExecuteTools(ctx, l.opts.StoryID, contract.ToolExecRequest{
		Messages:        transcript,
		ModelName:       l.opts.ModelName,
		ActiveChapterID: l.opts.ActiveChapterID,
	})
	if err != nil {
		return transcript, err
	}

	transcript = append(transcript, exec.AppendedMessages...)

	if exec.Mutations.StoryChanged {
		l.events.StoryChanged()
	}

	// Single bounce: resubmit with tool results but without the catalogue.
	second, err := l.backend.ChatStream(ctx, l.opts.StoryID, contract.ChatStreamRequest{
		Messages:       transcript,
		ModelType:      l.opts.ModelType,
		ModelName:      l.opts.ModelName,
		AllowWebSearch: l.opts.AllowWebSearch,
	}, h)
	if err != nil {
		return transcript, err
	}

	if len(second.ToolCalls) > 0 {
		slog.Warn("Second response requested tools, not executing", "count", len(second.ToolCalls))
	}
	transcript = append(transcript, second.AssistantMessage())

	return transcript, nil
}

// ensureSystemMessage injects the tool briefing at the head of the transcript
// unless a system message is already present. Idempotent across retries so a
// resubmitted transcript never accumulates duplicate system prompts.
func ensureSystemMessage(transcript []contract.Message) []contract.Message {
	for _, m := range transcript {
		if m.Role == "system" {
			return transcript
		}
	}

	out := make([]contract.Message, 0, len(transcript)+1)
	out = append(out, contract.Message{Role: "system", Content: ToolBriefing})
	out = append(out, transcript...)
	return out
}
