package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"tlangau-server/internal/domain"
	"tlangau-server/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.DocumentStore = (*DocStore)(nil)

// DocStore implements the document-store contract on a single Postgres
// table of (collection, key, jsonb). Atomicity leans on the database:
// conditional creates are ON CONFLICT DO NOTHING, counter bumps are a single
// UPDATE, bulk deletes are one statement.
type DocStore struct {
	pool *pgxpool.Pool
}

func NewDocStore(pool *pgxpool.Pool) *DocStore {
	return &DocStore{pool: pool}
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (s *DocStore) Put(ctx context.Context, collection, key string, doc repository.Document) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	const q = `
INSERT INTO documents (collection, key, doc) VALUES ($1, $2, $3)
ON CONFLICT (collection, key) DO UPDATE SET doc = EXCLUDED.doc;
`
	if _, err := s.pool.Exec(ctx, q, collection, key, b); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("put %s/%s: %w", collection, key, err)
	}
	return nil
}

func (s *DocStore) PutIfAbsent(ctx context.Context, collection, key string, doc repository.Document) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	const q = `
INSERT INTO documents (collection, key, doc) VALUES ($1, $2, $3)
ON CONFLICT (collection, key) DO NOTHING;
`
	tag, err := s.pool.Exec(ctx, q, collection, key, b)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("put-if-absent %s/%s: %w", collection, key, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

func (s *DocStore) Patch(ctx context.Context, collection, key string, partial repository.Document) error {
	b, err := json.Marshal(partial)
	if err != nil {
		return fmt.Errorf("encode patch: %w", err)
	}
	// jsonb || merges top-level fields and never removes fields not named.
	const q = `
UPDATE documents SET doc = doc || $3
 WHERE collection = $1 AND key = $2;
`
	tag, err := s.pool.Exec(ctx, q, collection, key, b)
	if err != nil {
		return fmt.Errorf("patch %s/%s: %w", collection, key, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *DocStore) Get(ctx context.Context, collection, key string) (repository.Document, error) {
	const q = `SELECT doc FROM documents WHERE collection = $1 AND key = $2;`
	return s.scanOne(s.pool.QueryRow(ctx, q, collection, key), collection)
}

func (s *DocStore) FindOneBy(ctx context.Context, collection, field, value string) (repository.Document, error) {
	q := fmt.Sprintf(`
SELECT doc FROM documents
 WHERE collection = $1 AND %s = $2
 ORDER BY COALESCE(doc->>'created_at', doc->>'createdAt') DESC NULLS LAST
 LIMIT 1;`, fieldExpr(field))
	return s.scanOne(s.pool.QueryRow(ctx, q, collection, value), collection)
}

func (s *DocStore) FindAllBy(ctx context.Context, collection, field, value string) ([]repository.Document, error) {
	q := fmt.Sprintf(`
SELECT doc FROM documents
 WHERE collection = $1 AND %s = $2
 ORDER BY COALESCE(doc->>'created_at', doc->>'createdAt') DESC NULLS LAST;`, fieldExpr(field))
	rows, err := s.pool.Query(ctx, q, collection, value)
	if err != nil {
		return nil, fmt.Errorf("find-all %s by %s: %w", collection, field, err)
	}
	defer rows.Close()
	return s.scanMany(rows, collection)
}

func (s *DocStore) List(ctx context.Context, collection string) ([]repository.Document, error) {
	const q = `
SELECT doc FROM documents
 WHERE collection = $1
 ORDER BY COALESCE(doc->>'created_at', doc->>'createdAt') DESC NULLS LAST;`
	rows, err := s.pool.Query(ctx, q, collection)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	defer rows.Close()
	return s.scanMany(rows, collection)
}

func (s *DocStore) Delete(ctx context.Context, collection, key string) error {
	const q = `DELETE FROM documents WHERE collection = $1 AND key = $2;`
	tag, err := s.pool.Exec(ctx, q, collection, key)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, key, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *DocStore) BulkDelete(ctx context.Context, collection string, keys []string) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	const q = `DELETE FROM documents WHERE collection = $1 AND key = ANY($2);`
	tag, err := s.pool.Exec(ctx, q, collection, keys)
	if err != nil {
		return 0, fmt.Errorf("bulk delete %s: %w", collection, err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *DocStore) Increment(ctx context.Context, collection, key string, path []string, delta int64) error {
	// Single-statement bump with zero default; concurrent callers cannot
	// interleave between the read and the write.
	const q = `
UPDATE documents
   SET doc = jsonb_set(doc, $3, to_jsonb(COALESCE((doc#>>$3)::bigint, 0) + $4), true)
 WHERE collection = $1 AND key = $2;
`
	tag, err := s.pool.Exec(ctx, q, collection, key, path, delta)
	if err != nil {
		return fmt.Errorf("increment %s/%s %v: %w", collection, key, path, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *DocStore) SetIfAbsentPath(ctx context.Context, collection, key string, path []string, value interface{}) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode value: %w", err)
	}
	// The path guard makes the write first-wins under concurrent callers.
	// jsonb_set silently no-ops on a missing intermediate key, so the parent
	// object is materialized first when a legacy row lacks it.
	const q = `
UPDATE documents
   SET doc = jsonb_set(
         CASE WHEN jsonb_typeof(doc #> $5) = 'object' THEN doc
              ELSE jsonb_set(doc, $5, '{}'::jsonb, true) END,
         $3, $4, true)
 WHERE collection = $1 AND key = $2 AND doc #> $3 IS NULL;
`
	parent := path[:len(path)-1]
	tag, err := s.pool.Exec(ctx, q, collection, key, path, b, parent)
	if err != nil {
		return fmt.Errorf("set-if-absent %s/%s %v: %w", collection, key, path, err)
	}
	if tag.RowsAffected() == 0 {
		if _, getErr := s.Get(ctx, collection, key); errors.Is(getErr, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return domain.ErrAlreadyExists
	}
	return nil
}

func (s *DocStore) scanOne(row pgx.Row, collection string) (repository.Document, error) {
	var b []byte
	if err := row.Scan(&b); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	var doc repository.Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return NormalizeDocument(collection, doc), nil
}

func (s *DocStore) scanMany(rows pgx.Rows, collection string) ([]repository.Document, error) {
	var out []repository.Document
	for rows.Next() {
		var b []byte
		if err := rows.Scan(&b); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		var doc repository.Document
		if err := json.Unmarshal(b, &doc); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		out = append(out, NormalizeDocument(collection, doc))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

// fieldExpr matches a canonical field, tolerating the legacy camelCase
// spelling on rows written by older logic.
func fieldExpr(field string) string {
	if alias, ok := legacyAliases[field]; ok {
		return fmt.Sprintf("COALESCE(doc->>'%s', doc->>'%s')", field, alias)
	}
	return fmt.Sprintf("doc->>'%s'", field)
}
