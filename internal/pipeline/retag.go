package pipeline

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// RetagResult summarizes one re-tagging pass over stored questions.
type RetagResult struct {
	Examined int
	Updated  int
	Failed   int
}

// Retag re-runs the classifier chain over stored questions that have no
// subject yet and writes the new labels back. Per-question failures are
// counted, never fatal.
func (p *Pipeline) Retag(ctx context.Context, limit int) (*RetagResult, error) {
	log := zap.L()

	questions, err := p.store.ListUntagged(ctx, limit)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: list untagged")
	}

	res := &RetagResult{Examined: len(questions)}
	for i := range questions {
		q := &questions[i]
		p.chain.Tag(ctx, q, p.tax)
		if q.Subject == "" {
			continue
		}
		if err := p.store.UpdateLabels(ctx, *q); err != nil {
			log.Warn("pipeline: retag update failed",
				zap.String("id", q.ID),
				zap.Error(err),
			)
			res.Failed++
			continue
		}
		res.Updated++
	}

	log.Info("pipeline: retag complete",
		zap.Int("examined", res.Examined),
		zap.Int("updated", res.Updated),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}
