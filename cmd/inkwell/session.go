package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inkwell-ai/inkwell/internal/format"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage chat sessions",
	Long:  `List, inspect, and reset persisted chat sessions in the workspace.`,
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List persisted sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := buildRuntime(cmd)
		if err != nil {
			return err
		}
		defer r.Stop()

		sessions, err := r.sessions.List()
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}

		f, err := formatterFromFlags(cmd)
		if err != nil {
			return err
		}
		out, err := f.FormatSessions(sessions)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show one session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := buildRuntime(cmd)
		if err != nil {
			return err
		}
		defer r.Stop()

		meta, err := r.sessions.Get(args[0])
		if err != nil {
			return err
		}
		if meta == nil {
			return fmt.Errorf("session %s not found", args[0])
		}

		f, err := formatterFromFlags(cmd)
		if err != nil {
			return err
		}
		out, err := f.FormatSession(meta)
		if err != nil {
			return err
		}
		fmt.Println(out)

		transcript, err := r.sessions.History(args[0])
		if err != nil {
			return err
		}
		for _, m := range transcript {
			fmt.Printf("[%s] %s\n", m.Role, m.Content)
		}
		return nil
	},
}

var sessionResetCmd = &cobra.Command{
	Use:   "reset [id]",
	Short: "Reset a session (delete transcript and index entry)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := buildRuntime(cmd)
		if err != nil {
			return err
		}
		defer r.Stop()

		if err := r.sessions.Reset(args[0]); err != nil {
			return fmt.Errorf("failed to reset session: %w", err)
		}
		fmt.Printf("Session '%s' reset.\n", args[0])
		return nil
	},
}

func formatterFromFlags(cmd *cobra.Command) (format.SessionFormatter, error) {
	raw, _ := cmd.Flags().GetString("output")
	outputFormat, err := format.ParseOutputFormat(raw)
	if err != nil {
		return nil, err
	}
	return format.New(outputFormat)
}

func init() {
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionResetCmd)
	sessionCmd.PersistentFlags().StringP("workspace", "w", "", "Target workspace ID")
	sessionCmd.PersistentFlags().StringP("output", "o", "table", "Output format (table, json, yaml)")
	rootCmd.AddCommand(sessionCmd)
}
