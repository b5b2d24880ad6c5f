package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/examgrid/papers-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS questions (
	id             TEXT PRIMARY KEY,
	year           INTEGER NOT NULL DEFAULT 0,
	subject        TEXT NOT NULL DEFAULT '',
	topic          TEXT NOT NULL DEFAULT '',
	subtopic       TEXT NOT NULL DEFAULT '',
	question_text  TEXT NOT NULL,
	options        TEXT NOT NULL,
	correct_answer TEXT NOT NULL,
	explanation    TEXT NOT NULL DEFAULT '',
	source_pdf     TEXT NOT NULL DEFAULT '',
	source_file    TEXT NOT NULL DEFAULT '',
	question_hash  TEXT NOT NULL UNIQUE,
	tag_method     TEXT NOT NULL DEFAULT '',
	tag_score      INTEGER NOT NULL DEFAULT 0,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS ingest_runs (
	id         TEXT PRIMARY KEY,
	source_dir TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	stats      TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_questions_year ON questions(year);
CREATE INDEX IF NOT EXISTS idx_questions_subject ON questions(subject);
CREATE INDEX IF NOT EXISTS idx_questions_topic ON questions(topic);
CREATE INDEX IF NOT EXISTS idx_ingest_runs_status ON ingest_runs(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertQuestions(ctx context.Context, questions []model.Question) (int, error) {
	if len(questions) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin upsert")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO questions (
			id, year, subject, topic, subtopic, question_text, options,
			correct_answer, explanation, source_pdf, source_file,
			question_hash, tag_method, tag_score
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(question_hash) DO NOTHING`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare upsert")
	}
	defer stmt.Close()

	inserted := 0
	for _, q := range questions {
		optionsJSON, err := json.Marshal(q.Options)
		if err != nil {
			return inserted, eris.Wrapf(err, "sqlite: marshal options for %s", q.ID)
		}
		res, err := stmt.ExecContext(ctx,
			q.ID, q.Year, q.Subject, q.Topic, q.Subtopic, q.QuestionText,
			string(optionsJSON), q.CorrectAnswer, q.Explanation,
			q.SourcePDF, q.SourceFile, q.QuestionHash, q.TagMethod, q.TagScore,
		)
		if err != nil {
			return inserted, eris.Wrapf(err, "sqlite: upsert question %s", q.ID)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return inserted, eris.Wrap(err, "sqlite: rows affected")
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit upsert")
	}
	return inserted, nil
}

const questionColumns = `id, year, subject, topic, subtopic, question_text, options,
	correct_answer, explanation, source_pdf, source_file, question_hash, tag_method, tag_score`

func (s *SQLiteStore) ListQuestions(ctx context.Context, f QuestionFilter) ([]model.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE 1=1`
	var args []any

	if f.Year > 0 {
		query += ` AND year = ?`
		args = append(args, f.Year)
	}
	if f.Subject != "" {
		query += ` AND subject = ? COLLATE NOCASE`
		args = append(args, f.Subject)
	}
	if f.Topic != "" {
		query += ` AND topic = ? COLLATE NOCASE`
		args = append(args, f.Topic)
	}
	if f.Subtopic != "" {
		query += ` AND subtopic = ? COLLATE NOCASE`
		args = append(args, f.Subtopic)
	}
	query += ` ORDER BY year, source_file, id`

	limit := f.Limit
	if limit <= 0 {
		limit = 500
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if f.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, f.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list questions")
	}
	defer rows.Close()

	return scanQuestions(rows)
}

func (s *SQLiteStore) ListYears(ctx context.Context) ([]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT year FROM questions WHERE year > 0 ORDER BY year`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list years")
	}
	defer rows.Close()

	var years []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan year")
		}
		years = append(years, y)
	}
	return years, eris.Wrap(rows.Err(), "sqlite: list years iterate")
}

func (s *SQLiteStore) ListUntagged(ctx context.Context, limit int) ([]model.Question, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE subject = '' ORDER BY year, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list untagged")
	}
	defer rows.Close()

	return scanQuestions(rows)
}

func (s *SQLiteStore) UpdateLabels(ctx context.Context, q model.Question) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE questions SET subject = ?, topic = ?, subtopic = ?, tag_method = ?, tag_score = ? WHERE id = ?`,
		q.Subject, q.Topic, q.Subtopic, q.TagMethod, q.TagScore, q.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update labels %s", q.ID)
	}
	return checkRowsAffected(res, "question", q.ID)
}

func (s *SQLiteStore) CreateRun(ctx context.Context, run model.IngestRun) (string, error) {
	id := run.ID
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ingest_runs (id, source_dir, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, run.SourceDir, string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: insert run")
	}
	return id, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, run model.IngestRun) error {
	statsJSON, err := json.Marshal(run.Stats)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal stats")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE ingest_runs SET status = ?, stats = ?, updated_at = ? WHERE id = ?`,
		string(run.Status), string(statsJSON), time.Now().UTC(), run.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", run.ID)
	}
	return checkRowsAffected(res, "run", run.ID)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuestion(row rowScanner) (*model.Question, error) {
	var q model.Question
	var optionsJSON string
	err := row.Scan(
		&q.ID, &q.Year, &q.Subject, &q.Topic, &q.Subtopic, &q.QuestionText,
		&optionsJSON, &q.CorrectAnswer, &q.Explanation,
		&q.SourcePDF, &q.SourceFile, &q.QuestionHash, &q.TagMethod, &q.TagScore,
	)
	if err != nil {
		return nil, eris.Wrap(err, "store: scan question")
	}
	if err := json.Unmarshal([]byte(optionsJSON), &q.Options); err != nil {
		return nil, eris.Wrapf(err, "store: unmarshal options for %s", q.ID)
	}
	return &q, nil
}

func scanQuestions(rows *sql.Rows) ([]model.Question, error) {
	var out []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *q)
	}
	return out, eris.Wrap(rows.Err(), "store: iterate questions")
}

func checkRowsAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "store: rows affected")
	}
	if n == 0 {
		return eris.Errorf("store: %s %s not found", kind, id)
	}
	return nil
}
