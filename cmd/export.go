package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/examgrid/papers-cli/internal/pipeline"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write one JSON file of questions per year",
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

		res, err := pipeline.Export(ctx, st, exportOut)
		if err != nil {
			return eris.Wrap(err, "export")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "export", "output directory for per-year JSON files")
	rootCmd.AddCommand(exportCmd)
}
