package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/examgrid/papers-cli/internal/classify"
	"github.com/examgrid/papers-cli/internal/config"
	"github.com/examgrid/papers-cli/internal/model"
	"github.com/examgrid/papers-cli/internal/parser"
	"github.com/examgrid/papers-cli/internal/store"
	"github.com/examgrid/papers-cli/internal/taxonomy"
)

const samplePaper = `1. What is the normal serum potassium range?
A) 1.5 - 2.0 mEq/L
B) 3.5 - 5.0 mEq/L
C) 7.0 - 8.0 mEq/L
D) 9.0 - 10.0 mEq/L
Answer: B
`

func testPipeline(st store.Store) *Pipeline {
	cfg := &config.Config{
		Pipeline: config.PipelineConfig{MaxConcurrentFiles: 1},
	}
	tax := &taxonomy.Taxonomy{
		Subjects: []taxonomy.Subject{{
			Name: "Physiology",
			Topics: []taxonomy.Topic{{
				Name:     "Electrolytes",
				Keywords: []string{"potassium", "serum"},
			}},
		}},
	}
	chain := classify.NewChain(
		classify.Options{DefaultSubject: "General"},
		classify.NewRuleScorer(1),
	)
	return New(cfg, st, parser.New(parser.Defaults{}), chain, tax)
}

func writePaper(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestPipeline_Run_IngestsAndTags(t *testing.T) {
	dir := t.TempDir()
	writePaper(t, dir, "2019_paper.txt", samplePaper)

	st := new(mockStore)
	st.On("CreateRun", mock.Anything, mock.Anything).Return("run-1", nil).Once()
	st.On("UpsertQuestions", mock.Anything, mock.MatchedBy(func(qs []model.Question) bool {
		return len(qs) == 1 &&
			qs[0].Year == 2019 &&
			qs[0].Subject == "Physiology" &&
			qs[0].Topic == "Electrolytes" &&
			qs[0].TagMethod == model.TagMethodRule
	})).Return(1, nil).Once()
	st.On("CompleteRun", mock.Anything, mock.Anything).Return(nil).Once()

	p := testPipeline(st)
	run, err := p.Run(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, model.RunStatusComplete, run.Status)
	assert.Equal(t, 1, run.Stats.FilesProcessed)
	assert.Equal(t, 1, run.Stats.Parsed)
	assert.Equal(t, 1, run.Stats.TaggedRule)
	assert.Equal(t, 1, run.Stats.Stored)
	assert.Equal(t, 0, run.Stats.Duplicates)
	st.AssertExpectations(t)
}

func TestPipeline_Run_DeduplicatesAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	writePaper(t, dir, "2019_a.txt", samplePaper)
	writePaper(t, dir, "2019_b.txt", samplePaper)

	st := new(mockStore)
	st.On("CreateRun", mock.Anything, mock.Anything).Return("run-1", nil).Once()
	// First file stores its question; the second file's copy is caught
	// by the in-run index and never reaches the store.
	st.On("UpsertQuestions", mock.Anything, mock.MatchedBy(func(qs []model.Question) bool {
		return len(qs) == 1
	})).Return(1, nil).Once()
	st.On("UpsertQuestions", mock.Anything, mock.MatchedBy(func(qs []model.Question) bool {
		return len(qs) == 0
	})).Return(0, nil).Once()
	st.On("CompleteRun", mock.Anything, mock.Anything).Return(nil).Once()

	p := testPipeline(st)
	run, err := p.Run(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 2, run.Stats.FilesProcessed)
	assert.Equal(t, 2, run.Stats.Parsed)
	assert.Equal(t, 1, run.Stats.Duplicates)
	assert.Equal(t, 1, run.Stats.Stored)
	st.AssertExpectations(t)
}

func TestPipeline_Run_DefaultLabelsWhenNoKeywordHits(t *testing.T) {
	dir := t.TempDir()
	writePaper(t, dir, "2020_misc.txt", `1. Which planet is largest?
A) Mars
B) Venus
C) Jupiter
D) Mercury
Answer: C
`)

	st := new(mockStore)
	st.On("CreateRun", mock.Anything, mock.Anything).Return("run-1", nil).Once()
	st.On("UpsertQuestions", mock.Anything, mock.MatchedBy(func(qs []model.Question) bool {
		return len(qs) == 1 &&
			qs[0].Subject == "General" &&
			qs[0].TagMethod == model.TagMethodDefault
	})).Return(1, nil).Once()
	st.On("CompleteRun", mock.Anything, mock.Anything).Return(nil).Once()

	p := testPipeline(st)
	run, err := p.Run(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 1, run.Stats.TaggedDefault)
	st.AssertExpectations(t)
}

func TestPipeline_Run_NoFiles(t *testing.T) {
	st := new(mockStore)
	p := testPipeline(st)

	_, err := p.Run(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no .txt files")
}

func TestPipeline_Run_MissingDir(t *testing.T) {
	st := new(mockStore)
	p := testPipeline(st)

	_, err := p.Run(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

func TestPipeline_Retag_UpdatesUntagged(t *testing.T) {
	untagged := model.Question{
		ID:           "q-1",
		QuestionText: "Normal serum potassium range?",
		Options: map[string]string{
			"A": "low", "B": "3.5 - 5.0", "C": "high", "D": "very high",
		},
		CorrectAnswer: "B",
	}

	st := new(mockStore)
	st.On("ListUntagged", mock.Anything, 50).Return([]model.Question{untagged}, nil).Once()
	st.On("UpdateLabels", mock.Anything, mock.MatchedBy(func(q model.Question) bool {
		return q.ID == "q-1" && q.Subject == "Physiology"
	})).Return(nil).Once()

	p := testPipeline(st)
	res, err := p.Retag(context.Background(), 50)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Examined)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 0, res.Failed)
	st.AssertExpectations(t)
}

func TestExport_WritesPerYearFiles(t *testing.T) {
	outDir := t.TempDir()

	q := model.Question{
		ID:           "q-2019-1",
		Year:         2019,
		QuestionText: "sample",
		Options: map[string]string{
			"A": "a", "B": "b", "C": "c", "D": "d",
		},
		CorrectAnswer: "A",
	}

	st := new(mockStore)
	st.On("ListYears", mock.Anything).Return([]int{2019}, nil).Once()
	st.On("ListQuestions", mock.Anything, store.QuestionFilter{
		Year: 2019, Limit: exportBatchSize, Offset: 0,
	}).Return([]model.Question{q}, nil).Once()

	res, err := Export(context.Background(), st, outDir)
	require.NoError(t, err)

	assert.Equal(t, []int{2019}, res.Years)
	assert.Equal(t, 1, res.Questions)
	require.Len(t, res.Files, 1)

	data, err := os.ReadFile(filepath.Join(outDir, "2019.json"))
	require.NoError(t, err)

	var got []model.Question
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 1)
	assert.Equal(t, "q-2019-1", got[0].ID)
}

func TestExport_NoYears(t *testing.T) {
	st := new(mockStore)
	st.On("ListYears", mock.Anything).Return([]int{}, nil).Once()

	_, err := Export(context.Background(), st, t.TempDir())
	require.Error(t, err)
}
