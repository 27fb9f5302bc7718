package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/inkwell-ai/inkwell/internal/backend"
	"github.com/inkwell-ai/inkwell/internal/chat/contract"
	"github.com/inkwell-ai/inkwell/internal/chat/stream"
)

// Completer is the slice of the provider router the direct path depends on.
type Completer interface {
	Generate(ctx context.Context, model string, req contract.CompletionRequest) (*contract.CompletionResponse, error)
}

// StoryReader supplies the story context the direct path needs to build its
// prompt. The backend client satisfies this.
type StoryReader interface {
	GetStory(ctx context.Context, storyID string) (*backend.Story, error)
	GetChapter(ctx context.Context, storyID string, chapterID int) (*backend.Chapter, error)
}

// EnableDirect switches the write/continue/summary actions from the backend
// proxy to a configured provider. The prompt is assembled client-side from
// story and chapter state; the completion comes back in one piece rather than
// as a stream, so handlers see the content as a single delta.
func (a *Actions) EnableDirect(stories StoryReader, completer Completer) {
	a.stories = stories
	a.completer = completer
}

func (a *Actions) directRun(ctx context.Context, action string, chapterID int, instructions string, h stream.Handlers) (string, error) {
	story, err := a.stories.GetStory(ctx, a.opts.StoryID)
	if err != nil {
		return "", fmt.Errorf("load story: %w", err)
	}
	chapter, err := a.stories.GetChapter(ctx, a.opts.StoryID, chapterID)
	if err != nil {
		return "", fmt.Errorf("load chapter %d: %w", chapterID, err)
	}

	resp, err := a.completer.Generate(ctx, a.opts.ModelName, contract.CompletionRequest{
		Messages: directMessages(action, story, chapter, instructions),
	})
	if err != nil {
		return "", err
	}

	if h.OnContent != nil && resp.Content != "" {
		h.OnContent(resp.Content)
	}
	return resp.Content, nil
}

const directBriefing = `You are a fiction writer working on an ongoing story. Write prose only. Do not add headings, notes, or commentary about the task.`

func directMessages(action string, story *backend.Story, chapter *backend.Chapter, instructions string) []contract.Message {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Story: %s\n", story.Title)
	if story.Synopsis != "" {
		fmt.Fprintf(&sb, "Synopsis: %s\n", story.Synopsis)
	}
	fmt.Fprintf(&sb, "Chapter %d: %s\n", chapter.ID, chapter.Title)
	if chapter.Summary != "" {
		fmt.Fprintf(&sb, "Chapter summary: %s\n", chapter.Summary)
	}

	switch action {
	case ActionContinue:
		fmt.Fprintf(&sb, "\nChapter text so far:\n%s\n", chapter.Content)
		sb.WriteString("\nContinue the chapter from where it leaves off.")
	case ActionSummary:
		fmt.Fprintf(&sb, "\nChapter text:\n%s\n", chapter.Content)
		sb.WriteString("\nWrite a replacement summary for this chapter in a few sentences.")
	default:
		if chapter.Content != "" {
			fmt.Fprintf(&sb, "\nCurrent chapter text (to be replaced):\n%s\n", chapter.Content)
		}
		sb.WriteString("\nWrite the full text of this chapter.")
	}

	if instructions != "" {
		fmt.Fprintf(&sb, "\n\nInstructions: %s", instructions)
	}

	return []contract.Message{
		{Role: "system", Content: directBriefing},
		{Role: "user", Content: sb.String()},
	}
}
