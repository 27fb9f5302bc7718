package stream

import (
	"encoding/json"
	"io"
	"log/slog"
	"strings"

	inkerrors "github.com/inkwell-ai/inkwell/internal/errors"
)

// ToolCallFragment is the partial tool-call data carried by one frame. The
// slot key is Index, not ID: the id may be absent until some later fragment.
type ToolCallFragment struct {
	Index    *int             `json:"index,omitempty"`
	ID       string           `json:"id,omitempty"`
	Function FunctionFragment `json:"function"`
}

type FunctionFragment struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// Handlers receives interpreted stream events incrementally. Any handler may
// be nil.
type Handlers struct {
	// OnContent receives each content delta as it arrives (drives live UI).
	OnContent func(delta string)
	// OnThinking receives reasoning deltas, kept out of the content total.
	OnThinking func(delta string)
	// OnToolCalls receives raw fragments for accumulation.
	OnToolCalls func(fragments []ToolCallFragment)
}

// frame is the union of every payload shape the backend emits.
type frame struct {
	Content   *string            `json:"content"`
	Thinking  *string            `json:"thinking"`
	ToolCalls []ToolCallFragment `json:"tool_calls"`

	Error     json.RawMessage `json:"error"`
	Message   string          `json:"message"`
	Traceback string          `json:"traceback"`
	Status    int             `json:"status"`
	Data      json.RawMessage `json:"data"`
}

// Consume reads frames until the stream ends or a [DONE] sentinel arrives,
// dispatching each to the matching handler. It returns the total accumulated
// content text.
//
// Failure handling is deliberately asymmetric: an error frame whose message
// carries a failure marker aborts the stream immediately, while malformed
// JSON or unrecognized shapes are logged and skipped. Real backend errors
// must stop the conversation; cosmetic parse hiccups must not.
func Consume(r io.Reader, h Handlers) (string, error) {
	var content strings.Builder

	fr := NewFrameReader(r)
	for {
		rawFrame, err := fr.Next()
		if err == io.EOF {
			return content.String(), nil
		}
		if err != nil {
			return content.String(), inkerrors.Wrap(err, "stream read failed")
		}

		payload, ok := DataPayload(rawFrame)
		if !ok {
			continue
		}
		if strings.TrimSpace(payload) == DoneSentinel {
			return content.String(), nil
		}

		var f frame
		if err := json.Unmarshal([]byte(payload), &f); err != nil {
			slog.Warn("Skipping malformed stream frame", "error", err, "payload", truncate(payload, 200))
			continue
		}

		if len(f.Error) > 0 {
			streamErr := interpretErrorFrame(f, payload)
			if inkerrors.HasFailureMarker(streamErr.Message) {
				return content.String(), streamErr
			}
			slog.Warn("Skipping non-fatal error frame", "message", streamErr.Message)
			continue
		}

		switch {
		case f.Content != nil:
			content.WriteString(*f.Content)
			if h.OnContent != nil {
				h.OnContent(*f.Content)
			}
		case f.Thinking != nil:
			if h.OnThinking != nil {
				h.OnThinking(*f.Thinking)
			}
		case f.ToolCalls != nil:
			if h.OnToolCalls != nil {
				h.OnToolCalls(f.ToolCalls)
			}
		default:
			slog.Debug("Ignoring frame with no recognized fields", "payload", truncate(payload, 200))
		}
	}
}

func interpretErrorFrame(f frame, payload string) *inkerrors.StreamError {
	msg := strings.TrimSpace(f.Message)
	if msg == "" {
		// The error field itself may be a bare string.
		var errText string
		if json.Unmarshal(f.Error, &errText) == nil && strings.TrimSpace(errText) != "" {
			msg = strings.TrimSpace(errText)
		} else {
			msg = truncate(payload, 200)
		}
	}

	return &inkerrors.StreamError{
		Message:   msg,
		Traceback: f.Traceback,
		Status:    f.Status,
		Data:      f.Data,
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
