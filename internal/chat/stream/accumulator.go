package stream

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/inkwell-ai/inkwell/internal/chat/contract"
)

// Accumulator merges incremental tool-call fragments into complete calls.
// Slots are keyed by fragment index (default 0) and the sequence grows sparse
// when indices are non-contiguous. Fragments live only for the duration of
// one stream; Finalize resolves them and the accumulator is discarded.
type Accumulator struct {
	slots []*slot
}

type slot struct {
	id   string
	name string
	args string
}

func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Add merges one frame's fragments. Merge rules per field:
//   - id: last non-empty wins.
//   - name: appended only when textually different from what is already
//     accumulated. This suppresses backends that re-send the full name on
//     every chunk while still supporting genuine incremental streaming.
//   - arguments: always appended; they arrive as fragments of one JSON
//     string, never as complete duplicates.
func (a *Accumulator) Add(fragments []ToolCallFragment) {
	for _, frag := range fragments {
		idx := 0
		if frag.Index != nil {
			idx = *frag.Index
		}
		if idx < 0 {
			slog.Warn("Dropping tool-call fragment with negative index", "index", idx)
			continue
		}

		for len(a.slots) <= idx {
			a.slots = append(a.slots, nil)
		}
		if a.slots[idx] == nil {
			a.slots[idx] = &slot{}
		}
		s := a.slots[idx]

		if frag.ID != "" {
			s.id = frag.ID
		}
		if name := frag.Function.Name; name != "" && name != s.name {
			s.name += name
		}
		s.args += frag.Function.Arguments
	}
}

// Finalize resolves the accumulated slots into complete tool calls. Slots
// with neither name nor arguments are dropped. Arguments that fail to parse
// as a JSON object degrade to {}; the failure is logged, not propagated.
func (a *Accumulator) Finalize() []*contract.ToolCall {
	var calls []*contract.ToolCall
	for idx, s := range a.slots {
		if s == nil {
			continue
		}
		if strings.TrimSpace(s.name) == "" && strings.TrimSpace(s.args) == "" {
			continue
		}

		args := map[string]any{}
		if trimmed := strings.TrimSpace(s.args); trimmed != "" {
			if err := json.Unmarshal([]byte(trimmed), &args); err != nil || args == nil {
				slog.Warn("Tool-call arguments did not parse as an object, substituting {}",
					"tool", s.name, "index", idx, "error", err)
				args = map[string]any{}
			}
		}

		id := s.id
		if id == "" {
			id = fmt.Sprintf("call_%d", len(calls)+1)
		}

		calls = append(calls, &contract.ToolCall{
			ID:   id,
			Name: s.name,
			Args: args,
		})
	}
	return calls
}
