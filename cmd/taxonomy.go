package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/examgrid/papers-cli/internal/taxonomy"
)

var taxonomyPath string

var taxonomyCmd = &cobra.Command{
	Use:   "taxonomy",
	Short: "Validate and summarize the keyword taxonomy",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := taxonomyPath
		if path == "" {
			path = cfg.Taxonomy.Path
		}

		tax, err := taxonomy.Load(path)
		if err != nil {
			return err
		}

		subjects, topics, subtopics, keywords := tax.Counts()
		zap.L().Info("taxonomy valid",
			zap.String("path", path),
			zap.Int("subjects", subjects),
			zap.Int("topics", topics),
			zap.Int("subtopics", subtopics),
			zap.Int("keywords", keywords),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]int{
			"subjects":  subjects,
			"topics":    topics,
			"subtopics": subtopics,
			"keywords":  keywords,
		})
	},
}

func init() {
	taxonomyCmd.Flags().StringVar(&taxonomyPath, "path", "", "taxonomy YAML file (default from config)")
	rootCmd.AddCommand(taxonomyCmd)
}
