// Curatus - Personalized Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

package database

import (
	"context"
	"fmt"
)

// schema is the complete DDL, idempotent by construction. Genres and
// streaming providers are stored as JSON text; embeddings as
// little-endian float32 blobs.
const schema = `
CREATE SEQUENCE IF NOT EXISTS media_items_id_seq;

CREATE TABLE IF NOT EXISTS media_items (
	id BIGINT PRIMARY KEY DEFAULT nextval('media_items_id_seq'),
	user_id BIGINT NOT NULL,
	title TEXT NOT NULL,
	media_type TEXT NOT NULL,
	year INTEGER NOT NULL DEFAULT 0,
	external_id TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'to_consume',
	rating INTEGER NOT NULL DEFAULT 0,
	genres TEXT NOT NULL DEFAULT '[]',
	embedding BLOB,
	channel_name TEXT NOT NULL DEFAULT '',
	external_url TEXT NOT NULL DEFAULT '',
	cover_url TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL DEFAULT current_timestamp
);

CREATE INDEX IF NOT EXISTS idx_media_items_user ON media_items (user_id, media_type);

CREATE SEQUENCE IF NOT EXISTS recommendations_id_seq;

CREATE TABLE IF NOT EXISTS recommendations (
	id BIGINT PRIMARY KEY DEFAULT nextval('recommendations_id_seq'),
	user_id BIGINT NOT NULL,
	media_type TEXT NOT NULL,
	external_id TEXT NOT NULL,
	title TEXT NOT NULL,
	year INTEGER NOT NULL DEFAULT 0,
	cover_url TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	score DOUBLE NOT NULL,
	source TEXT NOT NULL,
	genre_name TEXT NOT NULL DEFAULT '',
	catalog_rating DOUBLE NOT NULL DEFAULT 0,
	is_streamable BOOLEAN NOT NULL DEFAULT FALSE,
	streaming_providers TEXT NOT NULL DEFAULT '[]',
	external_url TEXT NOT NULL DEFAULT '',
	generated_at TIMESTAMP NOT NULL,
	is_dismissed BOOLEAN NOT NULL DEFAULT FALSE,
	added_to_library BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_recommendations_user ON recommendations (user_id, media_type);
CREATE INDEX IF NOT EXISTS idx_recommendations_dismissed ON recommendations (user_id, is_dismissed, generated_at);
`

// initSchema applies the DDL. Safe to run on every startup.
func (db *DB) initSchema(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}
