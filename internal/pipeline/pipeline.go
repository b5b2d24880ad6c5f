// Package pipeline orchestrates the ingest flow: read extracted text
// files, parse questions, deduplicate, classify, and persist.
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/examgrid/papers-cli/internal/classify"
	"github.com/examgrid/papers-cli/internal/config"
	"github.com/examgrid/papers-cli/internal/dedup"
	"github.com/examgrid/papers-cli/internal/model"
	"github.com/examgrid/papers-cli/internal/parser"
	"github.com/examgrid/papers-cli/internal/store"
	"github.com/examgrid/papers-cli/internal/taxonomy"
)

// Pipeline wires the parser, classifier chain, and store together for
// one ingest run over a directory of extracted text files.
type Pipeline struct {
	cfg    *config.Config
	store  store.Store
	parser *parser.Parser
	chain  *classify.Chain
	tax    *taxonomy.Taxonomy
	index  *dedup.Index
}

// New creates a Pipeline with all dependencies.
func New(cfg *config.Config, st store.Store, p *parser.Parser, chain *classify.Chain, tax *taxonomy.Taxonomy) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		store:  st,
		parser: p,
		chain:  chain,
		tax:    tax,
		index:  dedup.NewIndex(),
	}
}

// Run ingests every .txt file under textDir. Files are processed
// concurrently up to pipeline.max_concurrent_files; a failing file is
// counted and logged, never fatal. Returns the completed run record.
func (p *Pipeline) Run(ctx context.Context, textDir string) (*model.IngestRun, error) {
	log := zap.L().With(zap.String("dir", textDir))

	files, err := listTextFiles(textDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, eris.Errorf("pipeline: no .txt files under %s", textDir)
	}
	log.Info("pipeline: starting ingest", zap.Int("files", len(files)))

	runID, err := p.store.CreateRun(ctx, model.IngestRun{SourceDir: textDir})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}

	var mu sync.Mutex
	var total model.RunStats

	g, gCtx := errgroup.WithContext(ctx)
	limit := p.cfg.Pipeline.MaxConcurrentFiles
	if limit <= 0 {
		limit = 1
	}
	g.SetLimit(limit)

	for _, file := range files {
		g.Go(func() error {
			stats, fileErr := p.processFile(gCtx, file)
			mu.Lock()
			defer mu.Unlock()
			if fileErr != nil {
				log.Warn("pipeline: file failed",
					zap.String("file", filepath.Base(file)),
					zap.Error(fileErr),
				)
				total.FilesFailed++
				return nil
			}
			total.Add(stats)
			total.FilesProcessed++
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// Only context cancellation surfaces here.
		return nil, eris.Wrap(err, "pipeline: ingest")
	}

	run := model.IngestRun{
		ID:        runID,
		SourceDir: textDir,
		Status:    model.RunStatusComplete,
		Stats:     &total,
	}
	if total.FilesProcessed == 0 {
		run.Status = model.RunStatusFailed
	}
	if err := p.store.CompleteRun(ctx, run); err != nil {
		log.Warn("pipeline: failed to record run completion", zap.Error(err))
	}

	log.Info("pipeline: ingest complete",
		zap.String("run_id", runID),
		zap.Int("files", total.FilesProcessed),
		zap.Int("parsed", total.Parsed),
		zap.Int("rejected", total.Rejected),
		zap.Int("duplicates", total.Duplicates),
		zap.Int("stored", total.Stored),
	)
	return &run, nil
}

// processFile parses one text file, labels the surviving questions, and
// persists them. Stats cover only this file.
func (p *Pipeline) processFile(ctx context.Context, path string) (model.RunStats, error) {
	var stats model.RunStats

	raw, err := os.ReadFile(path)
	if err != nil {
		return stats, eris.Wrapf(err, "pipeline: read %s", path)
	}

	res := p.parser.Parse(filepath.Base(path), string(raw))
	stats.BlocksSeen = res.BlocksSeen
	stats.Parsed = len(res.Questions)
	stats.Rejected = res.Rejected

	var keep []model.Question
	for i := range res.Questions {
		q := &res.Questions[i]
		if p.index.Seen(q.QuestionHash) {
			stats.Duplicates++
			continue
		}
		tagged := p.chain.Tag(ctx, q, p.tax)
		switch tagged.Method {
		case model.TagMethodRule:
			stats.TaggedRule++
		case model.TagMethodFallback:
			stats.TaggedFallback++
		default:
			stats.TaggedDefault++
		}
		keep = append(keep, *q)
	}

	stored, err := p.store.UpsertQuestions(ctx, keep)
	if err != nil {
		return stats, eris.Wrapf(err, "pipeline: store %s", path)
	}
	// Rows already present from an earlier run are duplicates too.
	stats.Duplicates += len(keep) - stored
	stats.Stored = stored
	return stats, nil
}

func listTextFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: read dir %s", dir)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".txt") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
