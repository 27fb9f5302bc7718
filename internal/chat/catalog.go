package chat

import "github.com/inkwell-ai/inkwell/internal/chat/contract"

// The five writing tools form a fixed contract with the backend and the
// model. Names and parameter shapes must match the server side exactly or
// tool calling stops working.
const (
	ToolGetProjectOverview = "get_project_overview"
	ToolGetChapterContent  = "get_chapter_content"
	ToolWriteSummary       = "write_summary"
	ToolWriteChapter       = "write_chapter"
	ToolContinueChapter    = "continue_chapter"
)

// Catalog returns the tool-schema catalogue submitted with the first request
// of every conversation turn.
func Catalog() []contract.ToolDef {
	return []contract.ToolDef{
		{
			Name:        ToolGetProjectOverview,
			Description: "Get an overview of the story: title, synopsis, chapter list with summaries, and sourcebook entries.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
		{
			Name:        ToolGetChapterContent,
			Description: "Get the full text of one chapter.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"chapter_id": map[string]any{
						"type":        "integer",
						"description": "ID of the chapter to read.",
					},
				},
				"required": []string{"chapter_id"},
			},
		},
		{
			Name:        ToolWriteSummary,
			Description: "Replace the summary of a chapter.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"chapter_id": map[string]any{
						"type":        "integer",
						"description": "ID of the chapter to summarize.",
					},
					"summary": map[string]any{
						"type":        "string",
						"description": "The new chapter summary.",
					},
				},
				"required": []string{"chapter_id", "summary"},
			},
		},
		{
			Name:        ToolWriteChapter,
			Description: "Replace the full text of a chapter.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"chapter_id": map[string]any{
						"type":        "integer",
						"description": "ID of the chapter to write.",
					},
					"content": map[string]any{
						"type":        "string",
						"description": "The complete new chapter text.",
					},
				},
				"required": []string{"chapter_id", "content"},
			},
		},
		{
			Name:        ToolContinueChapter,
			Description: "Append new prose to the end of a chapter.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"chapter_id": map[string]any{
						"type":        "integer",
						"description": "ID of the chapter to continue.",
					},
					"content": map[string]any{
						"type":        "string",
						"description": "The prose to append.",
					},
				},
				"required": []string{"chapter_id", "content"},
			},
		},
	}
}

// ToolBriefing is the system message injected ahead of the transcript so the
// model knows which tools exist and when to reach for them.
const ToolBriefing = `You are a writing assistant for a fiction project. You can inspect and modify the story through tools:
- get_project_overview: story synopsis, chapters, and sourcebook.
- get_chapter_content: full text of one chapter.
- write_summary: replace a chapter summary.
- write_chapter: replace a chapter's text.
- continue_chapter: append prose to a chapter.
Read before you write. Prefer continue_chapter over write_chapter when the user asks for more prose. Answer directly when no tool is needed.`
