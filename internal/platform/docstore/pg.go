package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// The body column is json, not jsonb, so key order survives a round trip.
const createTableSQL = `CREATE TABLE IF NOT EXISTS registry_documents (
	name       TEXT PRIMARY KEY,
	body       JSON NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const selectDocumentSQL = `SELECT body::text FROM registry_documents WHERE name = $1`

const upsertDocumentSQL = `INSERT INTO registry_documents (name, body, updated_at)
VALUES ($1, $2::json, now())
ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body, updated_at = now()`

// Querier is the subset of *pgxpool.Pool the store needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGStore keeps the document as a single row in Postgres.
type PGStore struct {
	db     Querier
	name   string
	logger zerolog.Logger
}

func NewPGStore(db Querier, name string, logger zerolog.Logger) *PGStore {
	return &PGStore{db: db, name: name, logger: logger}
}

// EnsureSchema creates the documents table if it is missing.
func (s *PGStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create registry_documents: %w", err)
	}
	return nil
}

// Load mirrors FileStore.Load: no row or an undecodable body is an empty document.
func (s *PGStore) Load(ctx context.Context) (*Document, error) {
	var body string
	err := s.db.QueryRow(ctx, selectDocumentSQL, s.name).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return NewDocument(), nil
		}
		return nil, fmt.Errorf("load document %q: %w", s.name, err)
	}

	doc, err := Decode([]byte(body))
	if err != nil {
		s.logger.Warn().Err(err).Str("document", s.name).Msg("stored document is not valid, treating as empty")
		return NewDocument(), nil
	}
	return doc, nil
}

func (s *PGStore) Save(ctx context.Context, doc *Document) error {
	data, err := doc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if _, err := s.db.Exec(ctx, upsertDocumentSQL, s.name, string(data)); err != nil {
		return fmt.Errorf("save document %q: %w", s.name, err)
	}
	return nil
}
