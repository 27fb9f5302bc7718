package generate

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-ai/inkwell/internal/backend"
	"github.com/inkwell-ai/inkwell/internal/chat/contract"
	"github.com/inkwell-ai/inkwell/internal/chat/stream"
)

type fakeStreamer struct {
	generateReqs []backend.GenerateRequest
	generateText string
	generateErr  error
	suggestCalls atomic.Int32
	suggestFn    func(call int32) (string, error)
}

func (f *fakeStreamer) GenerateStream(ctx context.Context, storyID string, req backend.GenerateRequest, h stream.Handlers) (string, error) {
	f.generateReqs = append(f.generateReqs, req)
	if f.generateErr != nil {
		return "", f.generateErr
	}
	if h.OnContent != nil {
		h.OnContent(f.generateText)
	}
	return f.generateText, nil
}

func (f *fakeStreamer) Suggest(ctx context.Context, storyID string, chapterID int, modelName string) (string, error) {
	return f.suggestFn(f.suggestCalls.Add(1))
}

func TestActions_RequestShapes(t *testing.T) {
	f := &fakeStreamer{generateText: "prose"}
	a := NewActions(f, Options{StoryID: "story-1", ModelType: "openai", ModelName: "gpt-4o"})

	_, err := a.WriteChapter(context.Background(), 3, "noir tone", stream.Handlers{})
	require.NoError(t, err)
	_, err = a.ContinueChapter(context.Background(), 3, "", stream.Handlers{})
	require.NoError(t, err)
	_, err = a.SummarizeChapter(context.Background(), 3, stream.Handlers{})
	require.NoError(t, err)

	require.Len(t, f.generateReqs, 3)
	assert.Equal(t, ActionWrite, f.generateReqs[0].Action)
	assert.Equal(t, "noir tone", f.generateReqs[0].Instructions)
	assert.Equal(t, ActionContinue, f.generateReqs[1].Action)
	assert.Equal(t, ActionSummary, f.generateReqs[2].Action)
	assert.Empty(t, f.generateReqs[2].Instructions)

	for _, req := range f.generateReqs {
		assert.Equal(t, 3, req.ChapterID)
		assert.Equal(t, "gpt-4o", req.ModelName)
	}
}

func TestActions_StreamedContentReachesHandler(t *testing.T) {
	f := &fakeStreamer{generateText: "The rain kept falling."}
	a := NewActions(f, Options{StoryID: "s"})

	var seen string
	text, err := a.WriteChapter(context.Background(), 1, "", stream.Handlers{
		OnContent: func(d string) { seen += d },
	})
	require.NoError(t, err)
	assert.Equal(t, "The rain kept falling.", text)
	assert.Equal(t, text, seen)
}

type fakeStoryReader struct {
	story   *backend.Story
	chapter *backend.Chapter
}

func (f *fakeStoryReader) GetStory(ctx context.Context, storyID string) (*backend.Story, error) {
	return f.story, nil
}

func (f *fakeStoryReader) GetChapter(ctx context.Context, storyID string, chapterID int) (*backend.Chapter, error) {
	return f.chapter, nil
}

type fakeCompleter struct {
	model    string
	requests []contract.CompletionRequest
	response *contract.CompletionResponse
	err      error
}

func (f *fakeCompleter) Generate(ctx context.Context, model string, req contract.CompletionRequest) (*contract.CompletionResponse, error) {
	f.model = model
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func directFixtures() (*fakeStoryReader, *fakeCompleter) {
	reader := &fakeStoryReader{
		story: &backend.Story{ID: "story-1", Title: "The Tide Atlas", Synopsis: "A cartographer maps a vanishing sea."},
		chapter: &backend.Chapter{
			ID:      3,
			Title:   "Low Water",
			Summary: "Nerin finds the first dry channel.",
			Content: "The channel had been navigable a week ago.",
		},
	}
	completer := &fakeCompleter{response: &contract.CompletionResponse{Content: "New prose."}}
	return reader, completer
}

func TestDirect_BypassesProxy(t *testing.T) {
	streamer := &fakeStreamer{generateText: "proxy prose"}
	reader, completer := directFixtures()

	a := NewActions(streamer, Options{StoryID: "story-1", ModelName: "gpt-4o"})
	a.EnableDirect(reader, completer)

	text, err := a.ContinueChapter(context.Background(), 3, "keep the tone", stream.Handlers{})
	require.NoError(t, err)
	assert.Equal(t, "New prose.", text)
	assert.Empty(t, streamer.generateReqs)
	assert.Equal(t, "gpt-4o", completer.model)
}

func TestDirect_PromptCarriesStoryContext(t *testing.T) {
	reader, completer := directFixtures()
	a := NewActions(&fakeStreamer{}, Options{StoryID: "story-1", ModelName: "gpt-4o"})
	a.EnableDirect(reader, completer)

	_, err := a.ContinueChapter(context.Background(), 3, "end on a cliffhanger", stream.Handlers{})
	require.NoError(t, err)

	require.Len(t, completer.requests, 1)
	msgs := completer.requests[0].Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].Role)

	prompt := msgs[1].Content
	assert.Contains(t, prompt, "The Tide Atlas")
	assert.Contains(t, prompt, "Low Water")
	assert.Contains(t, prompt, "The channel had been navigable a week ago.")
	assert.Contains(t, prompt, "end on a cliffhanger")
	assert.Contains(t, prompt, "Continue the chapter")
}

func TestDirect_ActionsShapeThePrompt(t *testing.T) {
	reader, completer := directFixtures()
	a := NewActions(&fakeStreamer{}, Options{StoryID: "story-1"})
	a.EnableDirect(reader, completer)
	ctx := context.Background()

	_, err := a.WriteChapter(ctx, 3, "", stream.Handlers{})
	require.NoError(t, err)
	_, err = a.SummarizeChapter(ctx, 3, stream.Handlers{})
	require.NoError(t, err)

	require.Len(t, completer.requests, 2)
	assert.Contains(t, completer.requests[0].Messages[1].Content, "Write the full text")
	assert.Contains(t, completer.requests[1].Messages[1].Content, "replacement summary")
}

func TestDirect_ContentReachesHandlerOnce(t *testing.T) {
	reader, completer := directFixtures()
	a := NewActions(&fakeStreamer{}, Options{StoryID: "story-1"})
	a.EnableDirect(reader, completer)

	var deltas []string
	text, err := a.WriteChapter(context.Background(), 3, "", stream.Handlers{
		OnContent: func(d string) { deltas = append(deltas, d) },
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"New prose."}, deltas)
	assert.Equal(t, "New prose.", text)
}

func TestDirect_ProviderErrorPropagates(t *testing.T) {
	reader, completer := directFixtures()
	completer.err = errors.New("provider down")
	a := NewActions(&fakeStreamer{}, Options{StoryID: "story-1"})
	a.EnableDirect(reader, completer)

	_, err := a.WriteChapter(context.Background(), 3, "", stream.Handlers{})
	assert.ErrorContains(t, err, "provider down")
}

func TestGenerateContinuations_BothSucceed(t *testing.T) {
	f := &fakeStreamer{
		suggestFn: func(call int32) (string, error) {
			if call == 1 {
				return "She ran.", nil
			}
			return "She stayed.", nil
		},
	}
	a := NewActions(f, Options{StoryID: "s"})

	out := a.GenerateContinuations(context.Background(), 1)
	assert.NotEmpty(t, out[0])
	assert.NotEmpty(t, out[1])
	assert.Equal(t, int32(2), f.suggestCalls.Load())
}

func TestGenerateContinuations_OneFailureLeavesSiblingIntact(t *testing.T) {
	f := &fakeStreamer{
		suggestFn: func(call int32) (string, error) {
			if call == 1 {
				return "", errors.New("model unavailable")
			}
			return "He waited by the door.", nil
		},
	}
	a := NewActions(f, Options{StoryID: "s"})

	out := a.GenerateContinuations(context.Background(), 1)

	empty, filled := 0, 0
	for _, s := range out {
		if s == "" {
			empty++
		} else {
			filled++
			assert.Equal(t, "He waited by the door.", s)
		}
	}
	assert.Equal(t, 1, empty)
	assert.Equal(t, 1, filled)
}

func TestGenerateContinuations_PanicInFetchIsContained(t *testing.T) {
	f := &fakeStreamer{
		suggestFn: func(call int32) (string, error) {
			if call == 1 {
				panic("provider blew up")
			}
			return "survivor", nil
		},
	}
	a := NewActions(f, Options{StoryID: "s"})

	out := a.GenerateContinuations(context.Background(), 1)

	filled := 0
	for _, s := range out {
		if s != "" {
			filled++
			assert.Equal(t, "survivor", s)
		}
	}
	assert.Equal(t, 1, filled)
}

func TestGenerateContinuations_BothFail(t *testing.T) {
	f := &fakeStreamer{
		suggestFn: func(int32) (string, error) {
			return "", context.Canceled
		},
	}
	a := NewActions(f, Options{StoryID: "s"})

	out := a.GenerateContinuations(context.Background(), 1)
	assert.Equal(t, [2]string{"", ""}, out)
}
