package main

import (
	"context"
	"fmt"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"

	"github.com/inkwell-ai/inkwell/internal/sourcebook"
)

var sourcebookCmd = &cobra.Command{
	Use:   "sourcebook",
	Short: "Manage the story sourcebook index",
	Long:  `Add, search, and reindex sourcebook entries (characters, places, lore) in the local semantic index.`,
}

var sourcebookAddCmd = &cobra.Command{
	Use:   "add [name] [content]",
	Short: "Add or update a sourcebook entry",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := buildRuntime(cmd)
		if err != nil {
			return err
		}
		defer r.Stop()

		storyID, err := r.storyID()
		if err != nil {
			return err
		}
		kind, _ := cmd.Flags().GetString("kind")
		id, _ := cmd.Flags().GetString("id")
		if id == "" {
			id = ulid.Make().String()
		}

		entry := sourcebook.Entry{
			ID:      id,
			StoryID: storyID,
			Kind:    kind,
			Name:    args[0],
			Content: args[1],
		}

		sig := NewSignalHandler(context.Background())
		sig.Start()
		defer sig.Stop()

		if err := r.sourcebook.Upsert(sig.Context(), entry); err != nil {
			return err
		}
		fmt.Printf("Indexed %q (%s)\n", entry.Name, entry.ID)
		return nil
	},
}

var sourcebookSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the sourcebook by meaning",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := buildRuntime(cmd)
		if err != nil {
			return err
		}
		defer r.Stop()

		storyID, err := r.storyID()
		if err != nil {
			return err
		}

		sig := NewSignalHandler(context.Background())
		sig.Start()
		defer sig.Stop()

		matches, err := r.sourcebook.Search(sig.Context(), storyID, args[0], r.cfg.Sourcebook.SearchLimit)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			fmt.Println("No matches.")
			return nil
		}
		for _, m := range matches {
			fmt.Printf("%.3f  %s (%s)\n      %s\n", m.Score, m.Entry.Name, m.Entry.Kind, m.Entry.Content)
		}
		return nil
	},
}

var sourcebookReindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the index from the backend's sourcebook",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := buildRuntime(cmd)
		if err != nil {
			return err
		}
		defer r.Stop()

		storyID, err := r.storyID()
		if err != nil {
			return err
		}

		sig := NewSignalHandler(context.Background())
		sig.Start()
		defer sig.Stop()

		remote, err := r.backend.ListSourcebook(sig.Context(), storyID)
		if err != nil {
			return fmt.Errorf("fetch sourcebook: %w", err)
		}

		entries := make([]sourcebook.Entry, 0, len(remote))
		for _, e := range remote {
			entries = append(entries, sourcebook.Entry{
				ID:      e.ID,
				StoryID: storyID,
				Kind:    e.Kind,
				Name:    e.Name,
				Content: e.Content,
			})
		}

		if err := r.sourcebook.Reindex(sig.Context(), storyID, entries); err != nil {
			return err
		}
		fmt.Printf("Reindexed %d entries.\n", len(entries))
		return nil
	},
}

func init() {
	sourcebookCmd.AddCommand(sourcebookAddCmd)
	sourcebookCmd.AddCommand(sourcebookSearchCmd)
	sourcebookCmd.AddCommand(sourcebookReindexCmd)
	sourcebookCmd.PersistentFlags().StringP("workspace", "w", "", "Target workspace ID")
	sourcebookAddCmd.Flags().String("kind", "lore", "Entry kind (character, place, lore)")
	sourcebookAddCmd.Flags().String("id", "", "Entry ID (defaults to a new ULID)")
	rootCmd.AddCommand(sourcebookCmd)
}
