package backend

import (
	"context"

	"github.com/inkwell-ai/inkwell/internal/chat/stream"
	inkerrors "github.com/inkwell-ai/inkwell/internal/errors"
)

// GenerateRequest parameterizes the one-shot generation endpoints. Action is
// one of "write", "continue" or "summary".
type GenerateRequest struct {
	Action       string `json:"action"`
	ChapterID    int    `json:"chapter_id"`
	ModelType    string `json:"model_type,omitempty"`
	ModelName    string `json:"model_name,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

// GenerateStream runs a single generation action against
// /api/stories/{id}/generate/stream and returns the full generated text. The
// response uses the same frame protocol as the chat stream; h receives the
// incremental pieces.
func (c *Client) GenerateStream(ctx context.Context, storyID string, req GenerateRequest, h stream.Handlers) (string, error) {
	resp, err := c.postStream(ctx, c.storyPath(storyID, "generate/stream"), req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	content, err := stream.Consume(resp.Body, h)
	if err != nil {
		return "", inkerrors.MapError(err)
	}
	return content, nil
}

type suggestRequest struct {
	ChapterID int    `json:"chapter_id"`
	ModelName string `json:"model_name,omitempty"`
}

type suggestResponse struct {
	Suggestion string `json:"suggestion"`
}

// Suggest asks the backend for one continuation suggestion for a chapter.
// Callers that want the usual pair run two of these concurrently; see
// internal/generate.
func (c *Client) Suggest(ctx context.Context, storyID string, chapterID int, modelName string) (string, error) {
	var out suggestResponse
	err := c.postJSON(ctx, c.storyPath(storyID, "suggestions"), suggestRequest{
		ChapterID: chapterID,
		ModelName: modelName,
	}, &out)
	if err != nil {
		return "", err
	}
	return out.Suggestion, nil
}
