// Package classify assigns subject/topic/subtopic labels to parsed
// questions. Cheap keyword-rule scoring runs first; an external oracle is
// consulted only when the rules are not confident; pipeline defaults
// close the chain. Every label carries provenance for which method
// produced it.
package classify

import (
	"context"

	"go.uber.org/zap"

	"github.com/examgrid/papers-cli/internal/model"
	"github.com/examgrid/papers-cli/internal/taxonomy"
)

// Result is one classification outcome with provenance.
type Result struct {
	Subject  string `json:"subject"`
	Topic    string `json:"topic"`
	Subtopic string `json:"subtopic"`
	Method   string `json:"method"`
	Score    int    `json:"score"`
}

// Strategy is one way of producing a label. ok=false means the strategy
// could not decide ("unknown"); the chain then falls through to the next
// one. Errors are per-question and never abort a batch.
type Strategy interface {
	Name() string
	Classify(ctx context.Context, q *model.Question, tax *taxonomy.Taxonomy) (Result, bool, error)
}

// Options configures the chain's terminal default behavior.
type Options struct {
	// Override lets a computed label replace a pre-existing non-empty
	// label on the question. Off by default.
	Override bool

	DefaultSubject  string
	DefaultTopic    string
	DefaultSubtopic string
}

// Chain runs strategies in fixed order and applies the first decisive
// result to the question. Given identical inputs the outcome is
// identical: no randomness, no map-order dependence.
type Chain struct {
	strategies []Strategy
	opts       Options
}

// NewChain composes strategies in the order given.
func NewChain(opts Options, strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies, opts: opts}
}

// Tag labels one question in place and returns the applied result. When
// no strategy decides, the pipeline defaults are applied with
// method=default and existing labels are left untouched.
func (c *Chain) Tag(ctx context.Context, q *model.Question, tax *taxonomy.Taxonomy) Result {
	for _, s := range c.strategies {
		res, ok, err := s.Classify(ctx, q, tax)
		if err != nil {
			zap.L().Warn("classify: strategy failed, treating as unknown",
				zap.String("strategy", s.Name()),
				zap.String("question_hash", q.QuestionHash),
				zap.Error(err),
			)
			continue
		}
		if !ok {
			continue
		}
		c.apply(q, res)
		return res
	}

	res := Result{
		Subject:  c.opts.DefaultSubject,
		Topic:    c.opts.DefaultTopic,
		Subtopic: c.opts.DefaultSubtopic,
		Method:   model.TagMethodDefault,
	}
	c.apply(q, res)
	return res
}

// apply writes canonicalized labels onto the question. A pre-existing
// non-empty label survives unless Override is set.
func (c *Chain) apply(q *model.Question, res Result) {
	set := func(dst *string, val string) {
		if val == "" {
			return
		}
		if *dst != "" && !c.opts.Override {
			return
		}
		*dst = model.CanonicalLabel(val)
	}
	set(&q.Subject, res.Subject)
	set(&q.Topic, res.Topic)
	set(&q.Subtopic, res.Subtopic)
	q.TagMethod = res.Method
	q.TagScore = res.Score
}

// questionText concatenates the searchable text of a question: stem, all
// option texts in label order, and the explanation.
func questionText(q *model.Question) string {
	out := q.QuestionText
	for _, label := range model.OptionLabels {
		out += " " + q.Options[label]
	}
	if q.Explanation != "" {
		out += " " + q.Explanation
	}
	return out
}
