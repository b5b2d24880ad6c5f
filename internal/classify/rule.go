package classify

import (
	"context"
	"strings"

	"github.com/examgrid/papers-cli/internal/model"
	"github.com/examgrid/papers-cli/internal/taxonomy"
)

// RuleScorer labels questions by counting distinct taxonomy keywords
// appearing in the question text. Ties are broken by taxonomy
// declaration order: the first-declared topic with the best score wins.
type RuleScorer struct {
	// MinScore is the confidence floor; a best score below it means the
	// rules cannot decide and the chain falls through.
	MinScore int
}

// NewRuleScorer creates a RuleScorer with the given threshold. Values
// below 1 are clamped to 1.
func NewRuleScorer(minScore int) *RuleScorer {
	if minScore < 1 {
		minScore = 1
	}
	return &RuleScorer{MinScore: minScore}
}

func (r *RuleScorer) Name() string { return "rule" }

// Classify scores every topic against the question text. A nil or empty
// taxonomy is not an error; it simply never matches.
func (r *RuleScorer) Classify(_ context.Context, q *model.Question, tax *taxonomy.Taxonomy) (Result, bool, error) {
	if tax.Empty() {
		return Result{}, false, nil
	}

	text := strings.ToLower(model.NormalizeSpace(questionText(q)))

	var best Result
	var bestTopic *taxonomy.Topic
	for si := range tax.Subjects {
		subj := &tax.Subjects[si]
		for ti := range subj.Topics {
			topic := &subj.Topics[ti]
			score := countMatches(text, topic.AllKeywords())
			// Strictly-greater keeps the first-declared topic on ties.
			if score > best.Score {
				best = Result{
					Subject: subj.Name,
					Topic:   topic.Name,
					Score:   score,
				}
				bestTopic = topic
			}
		}
	}

	if best.Score < r.MinScore {
		return Result{}, false, nil
	}

	best.Method = model.TagMethodRule
	best.Subtopic = bestSubtopic(text, bestTopic)
	return best, true, nil
}

// bestSubtopic applies the same scoring scheme restricted to the winning
// topic's subtopic keyword sets. No match leaves the subtopic empty.
func bestSubtopic(text string, topic *taxonomy.Topic) string {
	bestName := ""
	bestScore := 0
	for _, st := range topic.Subtopics {
		if score := countMatches(text, st.Keywords); score > bestScore {
			bestScore = score
			bestName = st.Name
		}
	}
	return bestName
}

// countMatches counts distinct keywords present in text as a
// case-insensitive substring. Each keyword counts once no matter how
// often it occurs.
func countMatches(text string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		k := strings.ToLower(strings.TrimSpace(kw))
		if k == "" {
			continue
		}
		if strings.Contains(text, k) {
			n++
		}
	}
	return n
}
