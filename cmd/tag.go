package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/examgrid/papers-cli/internal/parser"
	"github.com/examgrid/papers-cli/internal/pipeline"
)

var tagLimit int

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Re-classify stored questions that have no subject",
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

		p := pipeline.New(cfg, st, parser.New(parser.Defaults{}), chain, tax)
		res, err := p.Retag(ctx, tagLimit)
		if err != nil {
			return eris.Wrap(err, "retag")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	tagCmd.Flags().IntVar(&tagLimit, "limit", 500, "maximum questions to re-classify")
	rootCmd.AddCommand(tagCmd)
}
