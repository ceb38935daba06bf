package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
)

// NewPgxPool connects to Postgres and verifies the connection.
func NewPgxPool(ctx context.Context, url string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pool, err := pgxpool.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return pool, nil
}

// schema is applied at startup. The documents table is the generic keyed
// JSON store; expression indexes back the equality lookups, and the partial
// unique index on access_codes order_id is what guarantees at most one code
// per order even when two fulfillment triggers race.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		collection text  NOT NULL,
		key        text  NOT NULL,
		doc        jsonb NOT NULL,
		PRIMARY KEY (collection, key)
	)`,
	`CREATE INDEX IF NOT EXISTS documents_email_idx
		ON documents ((doc->>'email'))`,
	`CREATE INDEX IF NOT EXISTS documents_payment_request_idx
		ON documents ((doc->>'payment_request_id')) WHERE collection = 'orders'`,
	`CREATE INDEX IF NOT EXISTS documents_used_by_account_idx
		ON documents ((doc->>'used_by_account')) WHERE collection = 'access_codes'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS access_codes_one_per_order_idx
		ON documents ((doc->>'order_id')) WHERE collection = 'access_codes'`,
}

// EnsureSchema creates the documents table and its indexes.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
