package extract

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/examgrid/papers-cli/internal/parser"
)

// Extractor turns one PDF into plain text.
type Extractor interface {
	ExtractText(ctx context.Context, pdfPath string) (string, error)
}

// Stats summarizes one extraction pass.
type Stats struct {
	PDFs    int
	Failed  int
	Outputs []string
}

// undatedStem names the output for PDFs whose filename carries no year.
const undatedStem = "undated"

// Run extracts every .pdf under pdfDir and writes one text file per year
// into outDir. Each PDF's text is preceded by a "### FILE:" header so
// the parser can attribute questions to their source. A failing PDF is
// counted and logged, never fatal.
func Run(ctx context.Context, ex Extractor, pdfDir, outDir string) (Stats, error) {
	var stats Stats

	pdfs, err := listPDFs(pdfDir)
	if err != nil {
		return stats, err
	}
	if len(pdfs) == 0 {
		return stats, eris.Errorf("extract: no .pdf files under %s", pdfDir)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return stats, eris.Wrapf(err, "extract: mkdir %s", outDir)
	}

	// Group by year so every shift of one year lands in one text file.
	byYear := make(map[int][]string)
	for _, pdf := range pdfs {
		year := parser.YearFromFilename(pdf)
		byYear[year] = append(byYear[year], pdf)
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	for _, year := range years {
		stem := undatedStem
		if year > 0 {
			stem = strconv.Itoa(year)
		}

		var sb strings.Builder
		extracted := 0
		for _, pdf := range byYear[year] {
			text, err := ex.ExtractText(ctx, pdf)
			if err != nil {
				zap.L().Warn("extract: pdf failed",
					zap.String("pdf", filepath.Base(pdf)),
					zap.Error(err),
				)
				stats.Failed++
				continue
			}
			sb.WriteString("### FILE: " + filepath.Base(pdf) + "\n")
			sb.WriteString(text)
			if !strings.HasSuffix(text, "\n") {
				sb.WriteString("\n")
			}
			stats.PDFs++
			extracted++
		}
		if extracted == 0 {
			continue
		}

		out := filepath.Join(outDir, stem+".txt")
		if err := os.WriteFile(out, []byte(sb.String()), 0o644); err != nil {
			return stats, eris.Wrapf(err, "extract: write %s", out)
		}
		stats.Outputs = append(stats.Outputs, out)
		zap.L().Info("extract: wrote year file",
			zap.String("path", out),
			zap.Int("pdfs", extracted),
		)
	}
	return stats, nil
}

func listPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "extract: read dir %s", dir)
	}
	var pdfs []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".pdf") {
			continue
		}
		pdfs = append(pdfs, filepath.Join(dir, e.Name()))
	}
	sort.Strings(pdfs)
	return pdfs, nil
}
