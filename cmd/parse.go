package main

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/examgrid/papers-cli/internal/classify"
	"github.com/examgrid/papers-cli/internal/dedup"
	"github.com/examgrid/papers-cli/internal/model"
	"github.com/examgrid/papers-cli/internal/parser"
	"github.com/examgrid/papers-cli/internal/taxonomy"
)

var (
	parseFile     string
	parseYear     int
	parseSubject  string
	parseTagAfter bool
)

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse one extracted text file into the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		raw, err := os.ReadFile(parseFile)
		if err != nil {
			return eris.Wrapf(err, "read %s", parseFile)
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		p := parser.New(parser.Defaults{
			Year:    parseYear,
			Subject: parseSubject,
		})
		res := p.Parse(filepath.Base(parseFile), string(raw))

		var chain *classify.Chain
		var tax *taxonomy.Taxonomy
		if parseTagAfter {
			chain, tax, err = initClassifier()
			if err != nil {
				return err
			}
		}

		index := dedup.NewIndex()
		var keep []model.Question
		duplicates := 0
		for i := range res.Questions {
			q := res.Questions[i]
			if index.Seen(q.QuestionHash) {
				duplicates++
				continue
			}
			if chain != nil {
				chain.Tag(ctx, &q, tax)
			}
			keep = append(keep, q)
		}

		stored, err := st.UpsertQuestions(ctx, keep)
		if err != nil {
			return eris.Wrap(err, "store questions")
		}
		duplicates += len(keep) - stored

		zap.L().Info("parse complete",
			zap.String("file", parseFile),
			zap.Int("blocks", res.BlocksSeen),
			zap.Int("parsed", len(res.Questions)),
			zap.Int("rejected", res.Rejected),
			zap.Int("duplicates", duplicates),
			zap.Int("stored", stored),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]int{
			"blocks":     res.BlocksSeen,
			"parsed":     len(res.Questions),
			"rejected":   res.Rejected,
			"duplicates": duplicates,
			"stored":     stored,
		})
	},
}

func init() {
	parseCmd.Flags().StringVar(&parseFile, "file", "", "extracted text file (required)")
	parseCmd.Flags().IntVar(&parseYear, "year", 0, "exam year override (default derived from filename)")
	parseCmd.Flags().StringVar(&parseSubject, "subject", "", "default subject for parsed questions")
	parseCmd.Flags().BoolVar(&parseTagAfter, "tag", false, "classify questions before storing")
	_ = parseCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(parseCmd)
}
