package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/examgrid/papers-cli/internal/model"
	"github.com/examgrid/papers-cli/internal/store"
)

// ExportResult summarizes one export pass.
type ExportResult struct {
	Years     []int
	Questions int
	Files     []string
}

// exportBatchSize pages ListQuestions so a large year never loads in one go.
const exportBatchSize = 500

// Export writes one JSON file per year under outDir, named <year>.json,
// each holding that year's questions in stable order.
func Export(ctx context.Context, st store.Store, outDir string) (*ExportResult, error) {
	years, err := st.ListYears(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "export: list years")
	}
	if len(years) == 0 {
		return nil, eris.New("export: no questions with a year to export")
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "export: mkdir %s", outDir)
	}

	res := &ExportResult{Years: years}
	for _, year := range years {
		questions, err := listAllForYear(ctx, st, year)
		if err != nil {
			return nil, err
		}

		data, err := json.MarshalIndent(questions, "", "  ")
		if err != nil {
			return nil, eris.Wrapf(err, "export: marshal year %d", year)
		}

		path := filepath.Join(outDir, fmt.Sprintf("%d.json", year))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, eris.Wrapf(err, "export: write %s", path)
		}

		res.Questions += len(questions)
		res.Files = append(res.Files, path)
		zap.L().Info("export: wrote year file",
			zap.Int("year", year),
			zap.Int("questions", len(questions)),
			zap.String("path", path),
		)
	}
	return res, nil
}

func listAllForYear(ctx context.Context, st store.Store, year int) ([]model.Question, error) {
	var all []model.Question
	for offset := 0; ; offset += exportBatchSize {
		batch, err := st.ListQuestions(ctx, store.QuestionFilter{
			Year:   year,
			Limit:  exportBatchSize,
			Offset: offset,
		})
		if err != nil {
			return nil, eris.Wrapf(err, "export: list year %d", year)
		}
		all = append(all, batch...)
		if len(batch) < exportBatchSize {
			return all, nil
		}
	}
}
