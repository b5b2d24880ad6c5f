package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/examgrid/papers-cli/internal/classify"
	"github.com/examgrid/papers-cli/internal/store"
	"github.com/examgrid/papers-cli/internal/taxonomy"
	anthropicpkg "github.com/examgrid/papers-cli/pkg/anthropic"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "papers.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initClassifier builds the strategy chain: keyword rules first, then
// the Claude oracle when enabled, then pipeline defaults.
func initClassifier() (*classify.Chain, *taxonomy.Taxonomy, error) {
	tax, err := taxonomy.Load(cfg.Taxonomy.Path)
	if err != nil {
		return nil, nil, eris.Wrap(err, "load taxonomy")
	}

	strategies := []classify.Strategy{
		classify.NewRuleScorer(cfg.Classify.MinScore),
	}
	if cfg.Classify.UseFallback {
		if cfg.Anthropic.Key == "" {
			return nil, nil, eris.New("classify.use_fallback requires an Anthropic API key (PAPERS_ANTHROPIC_KEY)")
		}
		client := anthropicpkg.NewClient(cfg.Anthropic.Key)
		timeout := time.Duration(cfg.Anthropic.TimeoutSecs) * time.Second
		strategies = append(strategies, classify.NewOracle(client, cfg.Anthropic.Model, timeout))
	}

	chain := classify.NewChain(classify.Options{
		Override:        cfg.Classify.Override,
		DefaultSubject:  cfg.Classify.DefaultSubject,
		DefaultTopic:    cfg.Classify.DefaultTopic,
		DefaultSubtopic: cfg.Classify.DefaultSubtopic,
	}, strategies...)

	return chain, tax, nil
}
