package notify

import (
	"fmt"
	"io"
	"log/slog"

	inkerrors "github.com/inkwell-ai/inkwell/internal/errors"
)

// Events is the session-scoped observer through which the chat loop reports
// side effects. It replaces ambient global state: a loop only ever talks to
// the Events instance it was constructed with.
type Events interface {
	// StoryChanged fires when server-side tool execution mutated persisted
	// story state and chapter/editor views need a refresh.
	StoryChanged()
	// StreamError funnels a user-visible failure. Implementations must treat
	// user-initiated cancellation as silent.
	StreamError(err error)
}

// Notifier is the default Events implementation: structured log plus a plain
// line on out for the person at the terminal. All user-visible errors flow
// through here so callers never need bespoke per-call error handling.
type Notifier struct {
	out       io.Writer
	onRefresh func()
}

func New(out io.Writer, onRefresh func()) *Notifier {
	return &Notifier{out: out, onRefresh: onRefresh}
}

func (n *Notifier) StoryChanged() {
	slog.Info("Story state changed by tool execution, refreshing")
	if n.onRefresh != nil {
		n.onRefresh()
	}
}

func (n *Notifier) StreamError(err error) {
	if err == nil {
		return
	}
	if inkerrors.IsSilent(err) {
		slog.Debug("Stream cancelled by user")
		return
	}

	slog.Error("Chat stream failed", "error", err)
	if n.out != nil {
		fmt.Fprintf(n.out, "error: %v\n", err)
	}
}

type nopEvents struct{}

func (nopEvents) StoryChanged()         {}
func (nopEvents) StreamError(err error) {}

// Nop returns an Events sink that drops everything.
func Nop() Events {
	return nopEvents{}
}
