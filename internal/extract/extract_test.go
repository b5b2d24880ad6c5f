package extract

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExtractor returns canned text per PDF basename.
type fakeExtractor struct {
	texts map[string]string
}

func (f *fakeExtractor) ExtractText(_ context.Context, pdfPath string) (string, error) {
	text, ok := f.texts[filepath.Base(pdfPath)]
	if !ok {
		return "", eris.Errorf("no text for %s", pdfPath)
	}
	return text, nil
}

func touchPDF(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("%PDF"), 0o644))
}

func TestRun_GroupsByYearWithHeaders(t *testing.T) {
	pdfDir := t.TempDir()
	outDir := t.TempDir()
	touchPDF(t, pdfDir, "2019_shift1.pdf")
	touchPDF(t, pdfDir, "2019_shift2.pdf")
	touchPDF(t, pdfDir, "2021.pdf")

	ex := &fakeExtractor{texts: map[string]string{
		"2019_shift1.pdf": "1. First question?\n",
		"2019_shift2.pdf": "1. Second paper question?\n",
		"2021.pdf":        "1. Later year question?\n",
	}}

	stats, err := Run(context.Background(), ex, pdfDir, outDir)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.PDFs)
	assert.Equal(t, 0, stats.Failed)
	require.Len(t, stats.Outputs, 2)

	data, err := os.ReadFile(filepath.Join(outDir, "2019.txt"))
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "### FILE: 2019_shift1.pdf")
	assert.Contains(t, text, "### FILE: 2019_shift2.pdf")
	assert.Contains(t, text, "First question?")
	assert.Less(t,
		strings.Index(text, "2019_shift1.pdf"),
		strings.Index(text, "2019_shift2.pdf"),
	)

	data, err = os.ReadFile(filepath.Join(outDir, "2021.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "### FILE: 2021.pdf")
}

func TestRun_FailedPDFCountedNotFatal(t *testing.T) {
	pdfDir := t.TempDir()
	outDir := t.TempDir()
	touchPDF(t, pdfDir, "2020_ok.pdf")
	touchPDF(t, pdfDir, "2020_broken.pdf")

	ex := &fakeExtractor{texts: map[string]string{
		"2020_ok.pdf": "1. Works?\n",
	}}

	stats, err := Run(context.Background(), ex, pdfDir, outDir)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.PDFs)
	assert.Equal(t, 1, stats.Failed)

	data, err := os.ReadFile(filepath.Join(outDir, "2020.txt"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "broken")
}

func TestRun_UndatedPDFs(t *testing.T) {
	pdfDir := t.TempDir()
	outDir := t.TempDir()
	touchPDF(t, pdfDir, "mock_test_5.pdf")

	ex := &fakeExtractor{texts: map[string]string{
		"mock_test_5.pdf": "1. No year here?\n",
	}}

	stats, err := Run(context.Background(), ex, pdfDir, outDir)
	require.NoError(t, err)
	require.Len(t, stats.Outputs, 1)
	assert.Equal(t, filepath.Join(outDir, "undated.txt"), stats.Outputs[0])
}

func TestRun_NoPDFs(t *testing.T) {
	_, err := Run(context.Background(), &fakeExtractor{}, t.TempDir(), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no .pdf files")
}
