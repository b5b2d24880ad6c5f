// Package store persists parsed questions and ingest run records to
// SQLite or Postgres behind a single interface.
package store

import (
	"context"

	"github.com/examgrid/papers-cli/internal/model"
)

// QuestionFilter narrows ListQuestions. Zero values mean "no filter"
// for that dimension. Label filters are matched case-insensitively.
type QuestionFilter struct {
	Year     int
	Subject  string
	Topic    string
	Subtopic string
	Limit    int
	Offset   int
}

// Store is the persistence contract shared by the SQLite and Postgres
// backends. Upserts are idempotent on question_hash so re-running an
// ingest over the same files never duplicates rows.
type Store interface {
	// Migrate creates or updates the schema. Safe to call on every start.
	Migrate(ctx context.Context) error

	// UpsertQuestions inserts questions, skipping any whose content hash
	// already exists. Returns the number of rows actually inserted.
	UpsertQuestions(ctx context.Context, questions []model.Question) (int, error)

	// ListQuestions returns questions matching the filter, ordered by
	// year then source file then id.
	ListQuestions(ctx context.Context, f QuestionFilter) ([]model.Question, error)

	// ListYears returns the distinct years present, ascending.
	ListYears(ctx context.Context) ([]int, error)

	// ListUntagged returns questions with an empty subject, for re-tagging.
	ListUntagged(ctx context.Context, limit int) ([]model.Question, error)

	// UpdateLabels rewrites the classification columns for one question.
	UpdateLabels(ctx context.Context, q model.Question) error

	// CreateRun records the start of an ingest run and returns its id.
	CreateRun(ctx context.Context, run model.IngestRun) (string, error)

	// CompleteRun records final status and stats for a run.
	CompleteRun(ctx context.Context, run model.IngestRun) error

	Close() error
}
