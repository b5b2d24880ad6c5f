package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/examgrid/papers-cli/internal/extract"
)

var (
	extractIn  string
	extractOut string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract per-year text files from downloaded PDFs",
	RunE: func(cmd *cobra.Command, args []string) error {
		inDir := extractIn
		if inDir == "" {
			inDir = cfg.Download.OutputDir
		}
		outDir := extractOut
		if outDir == "" {
			outDir = cfg.Extract.OutputDir
		}

		ex := extract.NewPdfToText(cfg.Extract.PdfToTextPath)
		stats, err := extract.Run(cmd.Context(), ex, inDir, outDir)
		if err != nil {
			return eris.Wrap(err, "extract")
		}

		zap.L().Info("extract complete",
			zap.Int("pdfs", stats.PDFs),
			zap.Int("failed", stats.Failed),
			zap.Int("outputs", len(stats.Outputs)),
		)
		return nil
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractIn, "in", "", "PDF directory (default from config)")
	extractCmd.Flags().StringVar(&extractOut, "out", "", "text output directory (default from config)")
	rootCmd.AddCommand(extractCmd)
}
