package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examgrid/papers-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func sampleQuestion(hash string) model.Question {
	return model.Question{
		ID:           uuid.New().String(),
		Year:         2019,
		Subject:      "Pharmacology",
		Topic:        "Dosing",
		QuestionText: "What is the loading dose?",
		Options: map[string]string{
			"A": "5 mg", "B": "10 mg", "C": "15 mg", "D": "20 mg",
		},
		CorrectAnswer: "B",
		SourceFile:    "2019_paper.txt",
		QuestionHash:  hash,
		TagMethod:     model.TagMethodRule,
		TagScore:      3,
	}
}

func TestSQLite_UpsertQuestions_InsertAndRoundTrip(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	q := sampleQuestion("hash-a")
	n, err := st.UpsertQuestions(ctx, []model.Question{q})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := st.ListQuestions(ctx, QuestionFilter{Year: 2019})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, q.ID, got[0].ID)
	assert.Equal(t, q.QuestionText, got[0].QuestionText)
	assert.Equal(t, q.Options, got[0].Options)
	assert.Equal(t, q.CorrectAnswer, got[0].CorrectAnswer)
	assert.Equal(t, q.TagMethod, got[0].TagMethod)
}

func TestSQLite_UpsertQuestions_DuplicateHashSkipped(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	first := sampleQuestion("hash-dup")
	second := sampleQuestion("hash-dup")
	second.QuestionText = "Reworded but same content hash"

	n, err := st.UpsertQuestions(ctx, []model.Question{first})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = st.UpsertQuestions(ctx, []model.Question{second})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	got, err := st.ListQuestions(ctx, QuestionFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, first.QuestionText, got[0].QuestionText)
}

func TestSQLite_ListQuestions_Filters(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	pharm := sampleQuestion("hash-1")
	peds := sampleQuestion("hash-2")
	peds.Year = 2021
	peds.Subject = "Pediatrics"
	peds.Topic = "Nutrition"

	_, err := st.UpsertQuestions(ctx, []model.Question{pharm, peds})
	require.NoError(t, err)

	got, err := st.ListQuestions(ctx, QuestionFilter{Subject: "pediatrics"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Pediatrics", got[0].Subject)

	got, err = st.ListQuestions(ctx, QuestionFilter{Year: 2019})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, pharm.ID, got[0].ID)

	got, err = st.ListQuestions(ctx, QuestionFilter{Topic: "Cardiology"})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLite_ListYears(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	a := sampleQuestion("hash-y1")
	a.Year = 2021
	b := sampleQuestion("hash-y2")
	b.Year = 2017
	c := sampleQuestion("hash-y3")
	c.Year = 0

	_, err := st.UpsertQuestions(ctx, []model.Question{a, b, c})
	require.NoError(t, err)

	years, err := st.ListYears(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{2017, 2021}, years)
}

func TestSQLite_ListUntagged_And_UpdateLabels(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	q := sampleQuestion("hash-untagged")
	q.Subject = ""
	q.Topic = ""
	q.TagMethod = ""
	q.TagScore = 0

	_, err := st.UpsertQuestions(ctx, []model.Question{q})
	require.NoError(t, err)

	untagged, err := st.ListUntagged(ctx, 10)
	require.NoError(t, err)
	require.Len(t, untagged, 1)

	tagged := untagged[0]
	tagged.Subject = "Pharmacology"
	tagged.Topic = "Dosing"
	tagged.TagMethod = model.TagMethodFallback
	tagged.TagScore = 1
	require.NoError(t, st.UpdateLabels(ctx, tagged))

	untagged, err = st.ListUntagged(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, untagged)

	got, err := st.ListQuestions(ctx, QuestionFilter{Subject: "Pharmacology"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.TagMethodFallback, got[0].TagMethod)
}

func TestSQLite_UpdateLabels_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	q := sampleQuestion("hash-missing")
	err := st.UpdateLabels(context.Background(), q)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLite_Runs_CreateAndComplete(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	id, err := st.CreateRun(ctx, model.IngestRun{SourceDir: "/data/papers"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	err = st.CompleteRun(ctx, model.IngestRun{
		ID:     id,
		Status: model.RunStatusComplete,
		Stats:  &model.RunStats{FilesProcessed: 3, Parsed: 42, Stored: 40},
	})
	require.NoError(t, err)
}

func TestSQLite_CompleteRun_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.CompleteRun(context.Background(), model.IngestRun{
		ID:     "no-such-run",
		Status: model.RunStatusFailed,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
