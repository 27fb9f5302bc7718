package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/inkwell-ai/inkwell/internal/config"
	"github.com/inkwell-ai/inkwell/internal/logger"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "inkwell",
	Short: "Inkwell writing assistant",
	Long:  `Inkwell is a terminal client for the Inkwell writing backend: stories, chapters, sourcebook, and AI-assisted chat.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cmd)
		if err != nil {
			return err
		}

		logger.Setup(cfg.Logging.Level)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.inkwell/config.yaml)")
	rootCmd.PersistentFlags().String("logging.level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("backend.base_url", config.DefaultBackendBaseURL, "Inkwell backend base URL")
	rootCmd.PersistentFlags().String("story.id", "", "target story ID")
}
