// Package postgres implements contentstore.Store over PostgreSQL via pgx,
// with pool injection and an idempotent Init step.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nevindra/ragforge"
	"github.com/nevindra/ragforge/contentstore"
)

// Store implements contentstore.Store backed by a "content_items" table.
// The caller owns and closes pool.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store using an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Init creates the content_items table if it does not already exist. Safe
// to call multiple times.
func (s *Store) Init(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS content_items (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		category TEXT NOT NULL,
		mime_type TEXT NOT NULL,
		body TEXT NOT NULL DEFAULT '',
		created_at BIGINT NOT NULL,
		deleted BOOLEAN NOT NULL DEFAULT FALSE,
		version INTEGER NOT NULL DEFAULT 1
	)`)
	if err != nil {
		return fmt.Errorf("contentstore/postgres: init: %w", err)
	}
	return nil
}

// Get fetches a content item by id.
func (s *Store) Get(ctx context.Context, id string) (ragforge.ContentItem, bool, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, user_id, category, mime_type, body, created_at, deleted, version
		 FROM content_items WHERE id = $1`, id)

	var item ragforge.ContentItem
	err := row.Scan(&item.ID, &item.UserID, &item.Category, &item.MimeType, &item.Body, &item.CreatedAtEpochSeconds, &item.Deleted, &item.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return ragforge.ContentItem{}, false, nil
	}
	if err != nil {
		return ragforge.ContentItem{}, false, fmt.Errorf("contentstore/postgres: get %s: %w", id, err)
	}
	return item, true, nil
}

// Upsert writes or replaces a content item, used by ingest entrypoints
// before the event is placed on the new-content queue.
func (s *Store) Upsert(ctx context.Context, item ragforge.ContentItem) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO content_items (id, user_id, category, mime_type, body, created_at, deleted, version)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET
		   user_id = EXCLUDED.user_id,
		   category = EXCLUDED.category,
		   mime_type = EXCLUDED.mime_type,
		   body = EXCLUDED.body,
		   created_at = EXCLUDED.created_at,
		   deleted = EXCLUDED.deleted,
		   version = EXCLUDED.version`,
		item.ID, item.UserID, item.Category, item.MimeType, item.Body, item.CreatedAtEpochSeconds, item.Deleted, item.Version)
	if err != nil {
		return fmt.Errorf("contentstore/postgres: upsert %s: %w", item.ID, err)
	}
	return nil
}

var _ contentstore.Store = (*Store)(nil)
