package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/examgrid/papers-cli/internal/fetcher"
)

var (
	downloadManifest string
	downloadOut      string
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download paper PDFs listed in a manifest",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := fetcher.LoadManifest(downloadManifest)
		if err != nil {
			return err
		}

		outDir := downloadOut
		if outDir == "" {
			outDir = cfg.Download.OutputDir
		}

		d := fetcher.NewDownloader(cfg.Download)
		stats, err := d.FetchAll(cmd.Context(), m, outDir)
		if err != nil {
			return eris.Wrap(err, "download")
		}

		zap.L().Info("download complete",
			zap.Int("downloaded", stats.Downloaded),
			zap.Int("skipped", stats.Skipped),
			zap.Int("failed", stats.Failed),
		)
		return nil
	},
}

func init() {
	downloadCmd.Flags().StringVar(&downloadManifest, "manifest", "papers.yaml", "YAML manifest of paper URLs")
	downloadCmd.Flags().StringVar(&downloadOut, "out", "", "output directory (default from config)")
	rootCmd.AddCommand(downloadCmd)
}
