package store

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/examgrid/papers-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. Tests substitute
// a pgxmock pool through this interface.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS questions (
	id             TEXT PRIMARY KEY,
	year           INTEGER NOT NULL DEFAULT 0,
	subject        TEXT NOT NULL DEFAULT '',
	topic          TEXT NOT NULL DEFAULT '',
	subtopic       TEXT NOT NULL DEFAULT '',
	question_text  TEXT NOT NULL,
	options        JSONB NOT NULL,
	correct_answer TEXT NOT NULL,
	explanation    TEXT NOT NULL DEFAULT '',
	source_pdf     TEXT NOT NULL DEFAULT '',
	source_file    TEXT NOT NULL DEFAULT '',
	question_hash  TEXT NOT NULL UNIQUE,
	tag_method     TEXT NOT NULL DEFAULT '',
	tag_score      INTEGER NOT NULL DEFAULT 0,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS ingest_runs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	source_dir TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	stats      JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_questions_year ON questions(year);
CREATE INDEX IF NOT EXISTS idx_questions_subject ON questions(subject);
CREATE INDEX IF NOT EXISTS idx_questions_topic ON questions(topic);
CREATE INDEX IF NOT EXISTS idx_ingest_runs_status ON ingest_runs(status);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) UpsertQuestions(ctx context.Context, questions []model.Question) (int, error) {
	inserted := 0
	for _, q := range questions {
		optionsJSON, err := json.Marshal(q.Options)
		if err != nil {
			return inserted, eris.Wrapf(err, "postgres: marshal options for %s", q.ID)
		}
		tag, err := s.pool.Exec(ctx, `
			INSERT INTO questions (
				id, year, subject, topic, subtopic, question_text, options,
				correct_answer, explanation, source_pdf, source_file,
				question_hash, tag_method, tag_score
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			ON CONFLICT (question_hash) DO NOTHING`,
			q.ID, q.Year, q.Subject, q.Topic, q.Subtopic, q.QuestionText,
			string(optionsJSON), q.CorrectAnswer, q.Explanation,
			q.SourcePDF, q.SourceFile, q.QuestionHash, q.TagMethod, q.TagScore,
		)
		if err != nil {
			return inserted, eris.Wrapf(err, "postgres: upsert question %s", q.ID)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

func (s *PostgresStore) ListQuestions(ctx context.Context, f QuestionFilter) ([]model.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE 1=1`
	var args []any

	if f.Year > 0 {
		args = append(args, f.Year)
		query += ` AND year = $` + strconv.Itoa(len(args))
	}
	if f.Subject != "" {
		args = append(args, f.Subject)
		query += ` AND lower(subject) = lower($` + strconv.Itoa(len(args)) + `)`
	}
	if f.Topic != "" {
		args = append(args, f.Topic)
		query += ` AND lower(topic) = lower($` + strconv.Itoa(len(args)) + `)`
	}
	if f.Subtopic != "" {
		args = append(args, f.Subtopic)
		query += ` AND lower(subtopic) = lower($` + strconv.Itoa(len(args)) + `)`
	}
	query += ` ORDER BY year, source_file, id`

	limit := f.Limit
	if limit <= 0 {
		limit = 500
	}
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))

	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list questions")
	}
	defer rows.Close()

	return scanPgxQuestions(rows)
}

func (s *PostgresStore) ListYears(ctx context.Context) ([]int, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT DISTINCT year FROM questions WHERE year > 0 ORDER BY year`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list years")
	}
	defer rows.Close()

	var years []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, eris.Wrap(err, "postgres: scan year")
		}
		years = append(years, y)
	}
	return years, eris.Wrap(rows.Err(), "postgres: list years iterate")
}

func (s *PostgresStore) ListUntagged(ctx context.Context, limit int) ([]model.Question, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE subject = '' ORDER BY year, id LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list untagged")
	}
	defer rows.Close()

	return scanPgxQuestions(rows)
}

func (s *PostgresStore) UpdateLabels(ctx context.Context, q model.Question) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE questions SET subject = $1, topic = $2, subtopic = $3, tag_method = $4, tag_score = $5 WHERE id = $6`,
		q.Subject, q.Topic, q.Subtopic, q.TagMethod, q.TagScore, q.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update labels %s", q.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: question %s not found", q.ID)
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, run model.IngestRun) (string, error) {
	id := run.ID
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO ingest_runs (id, source_dir, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, run.SourceDir, string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return "", eris.Wrap(err, "postgres: insert run")
	}
	return id, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, run model.IngestRun) error {
	statsJSON, err := json.Marshal(run.Stats)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal stats")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE ingest_runs SET status = $1, stats = $2, updated_at = $3 WHERE id = $4`,
		string(run.Status), string(statsJSON), time.Now().UTC(), run.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", run.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: run %s not found", run.ID)
	}
	return nil
}

func scanPgxQuestions(rows pgx.Rows) ([]model.Question, error) {
	var out []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *q)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate questions")
}
