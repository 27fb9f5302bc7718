package sourcebook

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/inkwell-ai/inkwell/internal/store"
)

const defaultReindexParallelism = 4

// Embedder produces an embedding vector for a piece of text. The provider
// router satisfies this.
type Embedder interface {
	Embed(ctx context.Context, model string, text string) ([]float32, error)
}

// Entry is one sourcebook record: a character, place, or piece of lore.
type Entry struct {
	ID      string
	StoryID string
	Kind    string
	Name    string
	Content string
}

type Match struct {
	Entry Entry
	Score float32
}

// Manager keeps a per-story vector index of sourcebook entries so the chat
// and generation flows can pull relevant lore by meaning rather than name.
type Manager struct {
	store       *store.Worker
	embedder    Embedder
	model       string
	parallelism int
}

func NewManager(s *store.Worker, embedder Embedder, model string, parallelism int) *Manager {
	if parallelism <= 0 {
		parallelism = defaultReindexParallelism
	}
	return &Manager{
		store:       s,
		embedder:    embedder,
		model:       model,
		parallelism: parallelism,
	}
}

func collectionFor(storyID string) string {
	return "sourcebook_" + storyID
}

// Upsert embeds one entry and writes it to the story's collection.
func (m *Manager) Upsert(ctx context.Context, e Entry) error {
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("sourcebook entry requires an id")
	}

	vec, err := m.embedder.Embed(ctx, m.model, embeddingText(e))
	if err != nil {
		return fmt.Errorf("embed sourcebook entry %s: %w", e.ID, err)
	}

	return m.store.UpsertVector(collectionFor(e.StoryID), e.ID, vec, map[string]string{
		"story_id": e.StoryID,
		"kind":     e.Kind,
		"name":     e.Name,
	}, e.Content)
}

// Search embeds the query and returns the closest entries for the story.
func (m *Manager) Search(ctx context.Context, storyID, query string, limit int) ([]Match, error) {
	if limit <= 0 {
		limit = 5
	}

	vec, err := m.embedder.Embed(ctx, m.model, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := m.store.SearchVectors(collectionFor(storyID), vec, limit)
	if err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(results))
	for _, r := range results {
		matches = append(matches, Match{
			Entry: Entry{
				ID:      r.ID,
				StoryID: r.Metadata["story_id"],
				Kind:    r.Metadata["kind"],
				Name:    r.Metadata["name"],
				Content: r.Content,
			},
			Score: r.Score,
		})
	}
	return matches, nil
}

// Reindex re-embeds every entry. Embeddings run concurrently with a bounded
// limit; writes serialize through the store worker anyway.
func (m *Manager) Reindex(ctx context.Context, storyID string, entries []Entry) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.parallelism)

	for _, e := range entries {
		g.Go(func() error {
			if err := m.Upsert(ctx, e); err != nil {
				return err
			}
			slog.Debug("Reindexed sourcebook entry", "story", storyID, "entry", e.ID)
			return nil
		})
	}

	return g.Wait()
}

func embeddingText(e Entry) string {
	var sb strings.Builder
	if e.Name != "" {
		sb.WriteString(e.Name)
		sb.WriteString("\n")
	}
	sb.WriteString(e.Content)
	return sb.String()
}
