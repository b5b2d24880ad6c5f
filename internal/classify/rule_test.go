package classify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examgrid/papers-cli/internal/model"
	"github.com/examgrid/papers-cli/internal/taxonomy"
)

func testTaxonomy() *taxonomy.Taxonomy {
	return &taxonomy.Taxonomy{
		Subjects: []taxonomy.Subject{
			{
				Name: "Pharmacology",
				Topics: []taxonomy.Topic{
					{
						Name:     "Pharmacology",
						Keywords: []string{"insulin", "dose"},
						Subtopics: []taxonomy.Subtopic{
							{Name: "Dosage", Keywords: []string{"dose", "mg"}},
							{Name: "Administration", Keywords: []string{"insulin", "injection"}},
						},
					},
				},
			},
			{
				Name: "Pediatrics",
				Topics: []taxonomy.Topic{
					{
						Name:     "Pediatrics",
						Keywords: []string{"zinc", "diarrhea"},
					},
				},
			},
		},
	}
}

func questionWith(text string) *model.Question {
	return &model.Question{
		QuestionText: text,
		Options: model.Options{
			"A": "first",
			"B": "second",
			"C": "third",
			"D": "fourth",
		},
		CorrectAnswer: "A",
	}
}

func TestRuleScorer_MatchesKeywords(t *testing.T) {
	scorer := NewRuleScorer(1)
	q := questionWith("The insulin dose for this patient is adjusted daily.")

	res, ok, err := scorer.Classify(context.Background(), q, testTaxonomy())

	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Pharmacology", res.Subject)
	assert.Equal(t, "Pharmacology", res.Topic)
	assert.Equal(t, model.TagMethodRule, res.Method)
	assert.Equal(t, 2, res.Score)
}

func TestRuleScorer_SubtopicBySameScheme(t *testing.T) {
	scorer := NewRuleScorer(1)
	q := questionWith("The insulin injection site is rotated.")

	res, ok, err := scorer.Classify(context.Background(), q, testTaxonomy())

	require.NoError(t, err)
	require.True(t, ok)
	// "insulin" and "injection" both hit Administration; Dosage gets 0.
	assert.Equal(t, "Administration", res.Subtopic)
}

func TestRuleScorer_BelowThresholdUndecided(t *testing.T) {
	scorer := NewRuleScorer(2)
	q := questionWith("Only the word zinc appears here.")

	_, ok, err := scorer.Classify(context.Background(), q, testTaxonomy())

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRuleScorer_NoKeywordsUndecided(t *testing.T) {
	scorer := NewRuleScorer(1)
	q := questionWith("Nothing from the taxonomy shows up in this text.")

	_, ok, err := scorer.Classify(context.Background(), q, testTaxonomy())

	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRuleScorer_EmptyTaxonomy(t *testing.T) {
	scorer := NewRuleScorer(1)
	q := questionWith("insulin dose")

	_, ok, err := scorer.Classify(context.Background(), q, &taxonomy.Taxonomy{})
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = scorer.Classify(context.Background(), q, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRuleScorer_TieBreaksByDeclarationOrder(t *testing.T) {
	tax := &taxonomy.Taxonomy{
		Subjects: []taxonomy.Subject{
			{Name: "First", Topics: []taxonomy.Topic{{Name: "Alpha", Keywords: []string{"fever"}}}},
			{Name: "Second", Topics: []taxonomy.Topic{{Name: "Beta", Keywords: []string{"fever"}}}},
		},
	}
	scorer := NewRuleScorer(1)
	q := questionWith("Patient has a fever.")

	res, ok, err := scorer.Classify(context.Background(), q, tax)

	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "First", res.Subject)
	assert.Equal(t, "Alpha", res.Topic)
}

func TestRuleScorer_DistinctKeywordsCountOnce(t *testing.T) {
	scorer := NewRuleScorer(2)
	q := questionWith("dose dose dose dose")

	// "dose" repeated still scores 1, below the threshold of 2.
	_, ok, err := scorer.Classify(context.Background(), q, testTaxonomy())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRuleScorer_SearchesOptionsAndExplanation(t *testing.T) {
	scorer := NewRuleScorer(2)
	q := questionWith("Which regimen is correct?")
	q.Options["B"] = "10 units of insulin"
	q.Explanation = "The dose depends on blood glucose."

	res, ok, err := scorer.Classify(context.Background(), q, testTaxonomy())

	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, res.Score)
}

func TestRuleScorer_Deterministic(t *testing.T) {
	scorer := NewRuleScorer(1)
	q := questionWith("insulin dose and zinc for diarrhea")
	tax := testTaxonomy()

	first, ok1, _ := scorer.Classify(context.Background(), q, tax)
	require.True(t, ok1)
	for range 10 {
		res, ok, _ := scorer.Classify(context.Background(), q, tax)
		require.True(t, ok)
		assert.Equal(t, first, res)
	}
}
