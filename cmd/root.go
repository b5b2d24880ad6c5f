package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/examgrid/papers-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "papers-cli",
	Short: "Exam paper ingestion pipeline",
	Long:  "Downloads scanned exam papers, extracts text, parses multiple-choice questions, classifies them against a keyword taxonomy with an LLM fallback, and serves the result.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
