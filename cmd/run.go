package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/examgrid/papers-cli/internal/parser"
	"github.com/examgrid/papers-cli/internal/pipeline"
)

var (
	runDir     string
	runSubject string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Ingest every extracted text file: parse, dedupe, classify, store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		chain, tax, err := initClassifier()
		if err != nil {
			return err
		}

		textDir := runDir
		if textDir == "" {
			textDir = cfg.Pipeline.TextDir
		}

		p := pipeline.New(cfg, st, parser.New(parser.Defaults{Subject: runSubject}), chain, tax)
		run, err := p.Run(ctx, textDir)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		zap.L().Info("ingest complete",
			zap.String("run_id", run.ID),
			zap.String("status", string(run.Status)),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	},
}

func init() {
	runCmd.Flags().StringVar(&runDir, "dir", "", "extracted text directory (default from config)")
	runCmd.Flags().StringVar(&runSubject, "subject", "", "default subject for parsed questions")
	rootCmd.AddCommand(runCmd)
}
