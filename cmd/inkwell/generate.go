package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inkwell-ai/inkwell/internal/chat/stream"
	inkerrors "github.com/inkwell-ai/inkwell/internal/errors"
	"github.com/inkwell-ai/inkwell/internal/generate"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "One-shot generation actions",
	Long:  `Run a single generation action against a chapter: draft it, continue it, summarize it, or fetch continuation suggestions.`,
}

var generateWriteCmd = &cobra.Command{
	Use:   "write",
	Short: "Draft a full chapter",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGeneration(cmd, func(ctx context.Context, a *generate.Actions, chapterID int, instructions string, h stream.Handlers) (string, error) {
			return a.WriteChapter(ctx, chapterID, instructions, h)
		})
	},
}

var generateContinueCmd = &cobra.Command{
	Use:   "continue",
	Short: "Continue a chapter's prose",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGeneration(cmd, func(ctx context.Context, a *generate.Actions, chapterID int, instructions string, h stream.Handlers) (string, error) {
			return a.ContinueChapter(ctx, chapterID, instructions, h)
		})
	},
}

var generateSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize a chapter",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGeneration(cmd, func(ctx context.Context, a *generate.Actions, chapterID int, instructions string, h stream.Handlers) (string, error) {
			return a.SummarizeChapter(ctx, chapterID, h)
		})
	},
}

var generateSuggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Fetch two continuation suggestions",
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
		chapterID, _ := cmd.Flags().GetInt("chapter")

		actions := newActions(r, storyID)

		sig := NewSignalHandler(context.Background())
		sig.Start()
		defer sig.Stop()

		suggestions := actions.GenerateContinuations(sig.Context(), chapterID)
		for i, s := range suggestions {
			fmt.Printf("--- Suggestion %d ---\n", i+1)
			if s == "" {
				fmt.Println("(unavailable)")
				continue
			}
			fmt.Println(s)
		}
		return nil
	},
}

func newActions(r *runtimeComponents, storyID string) *generate.Actions {
	return generate.NewActions(r.backend, generate.Options{
		StoryID:   storyID,
		ModelType: r.cfg.Chat.ModelType,
		ModelName: r.cfg.Chat.ModelName,
	})
}

type generationFn func(ctx context.Context, a *generate.Actions, chapterID int, instructions string, h stream.Handlers) (string, error)

func runGeneration(cmd *cobra.Command, fn generationFn) error {
	r, err := buildRuntime(cmd)
	if err != nil {
		return err
	}
	defer r.Stop()

	storyID, err := r.storyID()
	if err != nil {
		return err
	}
	chapterID, _ := cmd.Flags().GetInt("chapter")
	instructions, _ := cmd.Flags().GetString("instructions")

	actions := newActions(r, storyID)
	if direct, _ := cmd.Flags().GetBool("direct"); direct {
		actions.EnableDirect(r.backend, r.router)
	}

	sig := NewSignalHandler(context.Background())
	sig.Start()
	defer sig.Stop()

	handlers := stream.Handlers{
		OnContent: func(chunk string) { fmt.Print(chunk) },
	}

	_, err = fn(sig.Context(), actions, chapterID, instructions, handlers)
	fmt.Println()
	if err != nil && !inkerrors.IsSilent(err) {
		return err
	}
	return nil
}

func init() {
	generateCmd.AddCommand(generateWriteCmd)
	generateCmd.AddCommand(generateContinueCmd)
	generateCmd.AddCommand(generateSummaryCmd)
	generateCmd.AddCommand(generateSuggestCmd)
	generateCmd.PersistentFlags().StringP("workspace", "w", "", "Target workspace ID")
	generateCmd.PersistentFlags().Int("chapter", 0, "Target chapter ID")
	generateCmd.PersistentFlags().String("instructions", "", "Extra instructions for the model")
	generateCmd.PersistentFlags().Bool("direct", false, "Call the configured provider directly instead of the backend")
	rootCmd.AddCommand(generateCmd)
}
