package generate

import (
	"context"
	"log/slog"
	"sync"

	"github.com/inkwell-ai/inkwell/internal/backend"
	"github.com/inkwell-ai/inkwell/internal/chat/stream"
	"github.com/inkwell-ai/inkwell/internal/concurrency"
	inkerrors "github.com/inkwell-ai/inkwell/internal/errors"
)

const (
	ActionWrite    = "write"
	ActionContinue = "continue"
	ActionSummary  = "summary"
)

// Streamer is the slice of the backend client the actions depend on.
type Streamer interface {
	GenerateStream(ctx context.Context, storyID string, req backend.GenerateRequest, h stream.Handlers) (string, error)
	Suggest(ctx context.Context, storyID string, chapterID int, modelName string) (string, error)
}

// Options fix the story and model parameters shared by all actions.
type Options struct {
	StoryID   string
	ModelType string
	ModelName string
}

// Actions runs the one-shot generation flows. Every call takes an explicit
// ctx so a Stop affordance can cancel one action without touching another.
// By default the actions stream through the backend proxy; EnableDirect
// reroutes them to a configured provider.
type Actions struct {
	backend   Streamer
	stories   StoryReader
	completer Completer
	opts      Options
}

func NewActions(b Streamer, opts Options) *Actions {
	return &Actions{backend: b, opts: opts}
}

// WriteChapter generates a full chapter draft.
func (a *Actions) WriteChapter(ctx context.Context, chapterID int, instructions string, h stream.Handlers) (string, error) {
	return a.run(ctx, ActionWrite, chapterID, instructions, h)
}

// ContinueChapter generates prose continuing the chapter's current text.
func (a *Actions) ContinueChapter(ctx context.Context, chapterID int, instructions string, h stream.Handlers) (string, error) {
	return a.run(ctx, ActionContinue, chapterID, instructions, h)
}

// SummarizeChapter generates a replacement summary for the chapter.
func (a *Actions) SummarizeChapter(ctx context.Context, chapterID int, h stream.Handlers) (string, error) {
	return a.run(ctx, ActionSummary, chapterID, "", h)
}

func (a *Actions) run(ctx context.Context, action string, chapterID int, instructions string, h stream.Handlers) (string, error) {
	if a.completer != nil {
		return a.directRun(ctx, action, chapterID, instructions, h)
	}
	return a.backend.GenerateStream(ctx, a.opts.StoryID, backend.GenerateRequest{
		Action:       action,
		ChapterID:    chapterID,
		ModelType:    a.opts.ModelType,
		ModelName:    a.opts.ModelName,
		Instructions: instructions,
	}, h)
}

// GenerateContinuations fetches two continuation suggestions concurrently.
// Both fetches are always joined before returning. A failing fetch yields ""
// in its slot and never aborts its sibling; cancellation is the only silent
// failure.
func (a *Actions) GenerateContinuations(ctx context.Context, chapterID int) [2]string {
	var (
		wg  sync.WaitGroup
		out [2]string
	)

	for i := range out {
		wg.Add(1)
		concurrency.SafeGo(func() {
			defer wg.Done()
			suggestion, err := a.backend.Suggest(ctx, a.opts.StoryID, chapterID, a.opts.ModelName)
			if err != nil {
				if !inkerrors.IsSilent(err) {
					slog.Warn("Continuation fetch failed", "slot", i, "error", err)
				}
				return
			}
			out[i] = suggestion
		}, nil)
	}

	wg.Wait()
	return out
}
