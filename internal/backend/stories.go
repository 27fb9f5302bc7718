package backend

import (
	"context"
	"fmt"
	"net/url"
)

// Story is the backend's story resource as returned by the read endpoints.
type Story struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Synopsis string    `json:"synopsis,omitempty"`
	Chapters []Chapter `json:"chapters,omitempty"`
}

type Chapter struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	Summary string `json:"summary,omitempty"`
	Content string `json:"content,omitempty"`
}

// SourcebookEntry is one character/place/lore record attached to a story.
type SourcebookEntry struct {
	ID      string `json:"id"`
	StoryID string `json:"story_id"`
	Kind    string `json:"kind"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

// GetStory fetches a story with its chapter list (summaries, no bodies).
// The refresh path after a story_changed mutation lands here.
func (c *Client) GetStory(ctx context.Context, storyID string) (*Story, error) {
	var story Story
	endpoint := fmt.Sprintf("%s/api/stories/%s", c.baseURL, url.PathEscape(storyID))
	if err := c.getJSON(ctx, endpoint, &story); err != nil {
		return nil, err
	}
	return &story, nil
}

// GetChapter fetches one chapter including its full text.
func (c *Client) GetChapter(ctx context.Context, storyID string, chapterID int) (*Chapter, error) {
	var chapter Chapter
	endpoint := fmt.Sprintf("%s/api/stories/%s/chapters/%d", c.baseURL, url.PathEscape(storyID), chapterID)
	if err := c.getJSON(ctx, endpoint, &chapter); err != nil {
		return nil, err
	}
	return &chapter, nil
}

// ListSourcebook fetches every sourcebook entry attached to a story.
func (c *Client) ListSourcebook(ctx context.Context, storyID string) ([]SourcebookEntry, error) {
	var entries []SourcebookEntry
	if err := c.getJSON(ctx, c.storyPath(storyID, "sourcebook"), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
