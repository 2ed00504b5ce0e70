package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is the SQL DDL for the lectures table. Execute it via
// [PostgresStore.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS lectures (
    id                   UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    title                TEXT NOT NULL,
    transcript           JSONB NOT NULL DEFAULT '[]',
    translation          JSONB NOT NULL DEFAULT '[]',
    translation_language TEXT NOT NULL DEFAULT '',
    summary              TEXT NOT NULL DEFAULT '',
    keywords             JSONB NOT NULL DEFAULT '[]',
    questions            JSONB NOT NULL DEFAULT '[]',
    status               TEXT NOT NULL DEFAULT 'draft',
    created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_lectures_status ON lectures(status);
`

// DB is the database interface used by [PostgresStore]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore is a [Store] backed by a PostgreSQL database. Line buffers
// and enrichment lists are serialised as JSONB.
type PostgresStore struct {
	db DB
}

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a [PostgresStore] on the given connection or
// pool. The caller is responsible for calling [PostgresStore.Migrate] to
// ensure the schema exists before issuing queries.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Connect opens a pgx pool for the given DSN and verifies it with a ping.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("store: parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return pool, nil
}

// Migrate executes the [Schema] DDL, creating the lectures table and index
// if they do not already exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}

// Create persists a new lecture and fills in the generated fields.
func (s *PostgresStore) Create(ctx context.Context, l *Lecture) error {
	if err := l.Validate(); err != nil {
		return err
	}

	transcriptJSON, err := json.Marshal(emptySlice(l.Transcript))
	if err != nil {
		return fmt.Errorf("store: marshal transcript: %w", err)
	}
	translationJSON, err := json.Marshal(emptySlice(l.Translation))
	if err != nil {
		return fmt.Errorf("store: marshal translation: %w", err)
	}
	keywordsJSON, err := json.Marshal(emptySlice(l.Keywords))
	if err != nil {
		return fmt.Errorf("store: marshal keywords: %w", err)
	}
	questionsJSON, err := json.Marshal(emptySlice(l.Questions))
	if err != nil {
		return fmt.Errorf("store: marshal questions: %w", err)
	}

	const query = `
		INSERT INTO lectures (
			title, transcript, translation, translation_language,
			summary, keywords, questions, status
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, status, created_at, updated_at`

	err = s.db.QueryRow(ctx, query,
		l.Title, transcriptJSON, translationJSON, l.TranslationLanguage,
		l.Summary, keywordsJSON, questionsJSON, defaultStatus(l.Status),
	).Scan(&l.ID, &l.Status, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("store: create lecture: %w", err)
	}
	return nil
}

// Get returns the lecture with the given ID, or (nil, nil) when it does not
// exist.
func (s *PostgresStore) Get(ctx context.Context, id string) (*Lecture, error) {
	const query = `
		SELECT id, title, transcript, translation, translation_language,
		       summary, keywords, questions, status, created_at, updated_at
		FROM lectures
		WHERE id = $1`

	l, err := scanLecture(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: get lecture %q: %w", id, err)
	}
	return l, nil
}

// List returns lectures newest first, optionally filtered by status.
func (s *PostgresStore) List(ctx context.Context, status Status) ([]Lecture, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if status == "" {
		const query = `
			SELECT id, title, transcript, translation, translation_language,
			       summary, keywords, questions, status, created_at, updated_at
			FROM lectures
			ORDER BY created_at DESC`
		rows, err = s.db.Query(ctx, query)
	} else {
		if !status.IsValid() {
			return nil, fmt.Errorf("store: list: unknown status %q", status)
		}
		const query = `
			SELECT id, title, transcript, translation, translation_language,
			       summary, keywords, questions, status, created_at, updated_at
			FROM lectures
			WHERE status = $1
			ORDER BY created_at DESC`
		rows, err = s.db.Query(ctx, query, status)
	}
	if err != nil {
		return nil, fmt.Errorf("store: list lectures: %w", err)
	}
	defer rows.Close()

	var lectures []Lecture
	for rows.Next() {
		l, err := scanLecture(rows)
		if err != nil {
			return nil, fmt.Errorf("store: list scan: %w", err)
		}
		lectures = append(lectures, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list lectures: %w", err)
	}
	return lectures, nil
}

// UpdateStatus moves a lecture to the given status.
func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, status Status) error {
	if !status.IsValid() {
		return fmt.Errorf("store: update status: unknown status %q", status)
	}

	const query = `
		UPDATE lectures SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	var discard any
	err := s.db.QueryRow(ctx, query, id, status).Scan(&discard)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %q", ErrNotFound, id)
		}
		return fmt.Errorf("store: update status: %w", err)
	}
	return nil
}

// UpdateEnrichment attaches AI-generated material to a lecture.
func (s *PostgresStore) UpdateEnrichment(ctx context.Context, id string, e Enrichment) error {
	keywordsJSON, err := json.Marshal(emptySlice(e.Keywords))
	if err != nil {
		return fmt.Errorf("store: marshal keywords: %w", err)
	}
	questionsJSON, err := json.Marshal(emptySlice(e.Questions))
	if err != nil {
		return fmt.Errorf("store: marshal questions: %w", err)
	}

	const query = `
		UPDATE lectures SET
			summary = $2, keywords = $3, questions = $4, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	var discard any
	err = s.db.QueryRow(ctx, query, id, e.Summary, keywordsJSON, questionsJSON).Scan(&discard)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %q", ErrNotFound, id)
		}
		return fmt.Errorf("store: update enrichment: %w", err)
	}
	return nil
}

// Delete removes a lecture. Deleting a missing lecture is not an error.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM lectures WHERE id = $1`
	if _, err := s.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("store: delete lecture %q: %w", id, err)
	}
	return nil
}

// scanLecture reads one lecture row. The source may be a pgx.Row or a
// pgx.Rows positioned on a row.
func scanLecture(row pgx.Row) (*Lecture, error) {
	var l Lecture
	var transcriptJSON, translationJSON, keywordsJSON, questionsJSON []byte

	err := row.Scan(
		&l.ID, &l.Title, &transcriptJSON, &translationJSON, &l.TranslationLanguage,
		&l.Summary, &keywordsJSON, &questionsJSON, &l.Status, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(transcriptJSON, &l.Transcript); err != nil {
		return nil, fmt.Errorf("unmarshal transcript: %w", err)
	}
	if err := json.Unmarshal(translationJSON, &l.Translation); err != nil {
		return nil, fmt.Errorf("unmarshal translation: %w", err)
	}
	if err := json.Unmarshal(keywordsJSON, &l.Keywords); err != nil {
		return nil, fmt.Errorf("unmarshal keywords: %w", err)
	}
	if err := json.Unmarshal(questionsJSON, &l.Questions); err != nil {
		return nil, fmt.Errorf("unmarshal questions: %w", err)
	}
	return &l, nil
}

// defaultStatus returns the status value, defaulting to draft if empty.
func defaultStatus(s Status) Status {
	if s == "" {
		return StatusDraft
	}
	return s
}

// emptySlice returns s if non-nil, otherwise an empty non-nil slice. This
// ensures JSON marshalling produces "[]" instead of "null".
func emptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
