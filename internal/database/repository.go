// Curatus - Personalized Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/curatus

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/tomtom215/curatus/internal/embedding"
	"github.com/tomtom215/curatus/internal/engine"
	"github.com/tomtom215/curatus/internal/logging"
)

// DB implements engine.Repository.
var _ engine.Repository = (*DB)(nil)

// MediaForUser returns the user's full library with genres, embeddings,
// and short-video metadata loaded.
func (db *DB) MediaForUser(ctx context.Context, userID int64) ([]engine.MediaItem, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, user_id, title, media_type, year, external_id, description,
		       status, rating, genres, embedding, channel_name, external_url, cover_url
		FROM media_items
		WHERE user_id = ?
		ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying media items: %w", err)
	}
	defer closeQuietly(rows)

	var items []engine.MediaItem
	for rows.Next() {
		var m engine.MediaItem
		var genresJSON string
		var embeddingBlob []byte
		if err := rows.Scan(&m.ID, &m.UserID, &m.Title, &m.Type, &m.Year,
			&m.ExternalID, &m.Description, &m.Status, &m.Rating,
			&genresJSON, &embeddingBlob, &m.ChannelName, &m.ExternalURL, &m.CoverURL); err != nil {
			return nil, fmt.Errorf("scanning media item: %w", err)
		}
		if err := json.Unmarshal([]byte(genresJSON), &m.Genres); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Int64("media_id", m.ID).Msg("malformed genres column")
		}
		m.Embedding = embedding.DecodeVector(embeddingBlob)
		items = append(items, m)
	}
	return items, rows.Err()
}

// InsertMediaItem stores one library entry and returns its id.
func (db *DB) InsertMediaItem(ctx context.Context, m engine.MediaItem) (int64, error) {
	genresJSON, err := json.Marshal(genresOrEmpty(m.Genres))
	if err != nil {
		return 0, fmt.Errorf("encoding genres: %w", err)
	}
	var id int64
	err = db.conn.QueryRowContext(ctx, `
		INSERT INTO media_items
			(user_id, title, media_type, year, external_id, description,
			 status, rating, genres, embedding, channel_name, external_url, cover_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		m.UserID, m.Title, m.Type, m.Year, m.ExternalID, m.Description,
		m.Status, m.Rating, string(genresJSON), embedding.EncodeVector(m.Embedding),
		m.ChannelName, m.ExternalURL, m.CoverURL).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting media item: %w", err)
	}
	return id, nil
}

// UpdateMediaEmbedding stores a freshly computed embedding for an item.
func (db *DB) UpdateMediaEmbedding(ctx context.Context, mediaID int64, vec []float32) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE media_items SET embedding = ? WHERE id = ?`,
		embedding.EncodeVector(vec), mediaID)
	if err != nil {
		return fmt.Errorf("updating embedding: %w", err)
	}
	return nil
}

// recommendationColumns is the scan order shared by all slate queries.
const recommendationColumns = `id, user_id, media_type, external_id, title, year,
	cover_url, description, score, source, genre_name, catalog_rating,
	is_streamable, streaming_providers, external_url, generated_at,
	is_dismissed, added_to_library`

// filterClause builds the WHERE tail for a recommendation filter.
func filterClause(userID int64, f engine.RecommendationFilter) (string, []any) {
	clause := " WHERE user_id = ?"
	args := []any{userID}
	if f.MediaType != "" {
		clause += " AND media_type = ?"
		args = append(args, f.MediaType)
	}
	if f.Genre != "" {
		clause += " AND genre_name = ?"
		args = append(args, f.Genre)
	}
	if f.Dismissed != nil {
		clause += " AND is_dismissed = ?"
		args = append(args, *f.Dismissed)
	}
	if f.Added != nil {
		clause += " AND added_to_library = ?"
		args = append(args, *f.Added)
	}
	if !f.Since.IsZero() {
		clause += " AND generated_at > ?"
		args = append(args, f.Since)
	}
	return clause, args
}

// Recommendations returns the user's recommendations matching the
// filter, best score first.
func (db *DB) Recommendations(ctx context.Context, userID int64, f engine.RecommendationFilter) ([]engine.Recommendation, error) {
	clause, args := filterClause(userID, f)
	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+recommendationColumns+" FROM recommendations"+clause+
			" ORDER BY score DESC, id ASC", args...)
	if err != nil {
		return nil, fmt.Errorf("querying recommendations: %w", err)
	}
	defer closeQuietly(rows)
	return scanRecommendations(ctx, rows)
}

// RecommendationsPage returns one page ordered by (score DESC, id ASC),
// resuming after the cursor position. A zero cursor starts from the top.
func (db *DB) RecommendationsPage(ctx context.Context, userID int64, f engine.RecommendationFilter, afterScore float64, afterID int64, limit int) ([]engine.Recommendation, error) {
	clause, args := filterClause(userID, f)
	if afterID > 0 {
		clause += " AND (score < ? OR (score = ? AND id > ?))"
		args = append(args, afterScore, afterScore, afterID)
	}
	args = append(args, limit)
	rows, err := db.conn.QueryContext(ctx,
		"SELECT "+recommendationColumns+" FROM recommendations"+clause+
			" ORDER BY score DESC, id ASC LIMIT ?", args...)
	if err != nil {
		return nil, fmt.Errorf("querying recommendation page: %w", err)
	}
	defer closeQuietly(rows)
	return scanRecommendations(ctx, rows)
}

// CountRecommendations counts recommendations matching the filter.
func (db *DB) CountRecommendations(ctx context.Context, userID int64, f engine.RecommendationFilter) (int, error) {
	clause, args := filterClause(userID, f)
	var n int
	if err := db.conn.QueryRowContext(ctx,
		"SELECT count(*) FROM recommendations"+clause, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting recommendations: %w", err)
	}
	return n, nil
}

// UserIDs returns every user with at least one media item, ascending.
// The periodic refresh service iterates this set.
func (db *DB) UserIDs(ctx context.Context) ([]int64, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT DISTINCT user_id FROM media_items ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("querying user ids: %w", err)
	}
	defer closeQuietly(rows)

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanRecommendations(ctx context.Context, rows *sql.Rows) ([]engine.Recommendation, error) {
	var recs []engine.Recommendation
	for rows.Next() {
		var r engine.Recommendation
		var providersJSON string
		if err := rows.Scan(&r.ID, &r.UserID, &r.MediaType, &r.ExternalID, &r.Title,
			&r.Year, &r.CoverURL, &r.Description, &r.Score, &r.Source, &r.GenreName,
			&r.CatalogRating, &r.IsStreamable, &providersJSON, &r.ExternalURL,
			&r.GeneratedAt, &r.IsDismissed, &r.AddedToLibrary); err != nil {
			return nil, fmt.Errorf("scanning recommendation: %w", err)
		}
		if err := json.Unmarshal([]byte(providersJSON), &r.StreamingProviders); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Int64("rec_id", r.ID).Msg("malformed providers column")
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

// ReplaceRecommendations atomically garbage-collects old dismissed
// recommendations, deletes the non-dismissed slate, and inserts recs.
func (db *DB) ReplaceRecommendations(ctx context.Context, userID int64, recs []engine.Recommendation, dismissedBefore time.Time) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		if err := gcDismissed(ctx, tx, userID, dismissedBefore); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM recommendations WHERE user_id = ? AND is_dismissed = FALSE`,
			userID); err != nil {
			return fmt.Errorf("deleting previous slate: %w", err)
		}
		return insertRecommendations(ctx, tx, recs)
	})
}

// InsertRecommendations atomically garbage-collects old dismissed
// recommendations and inserts recs, preserving the existing slate.
func (db *DB) InsertRecommendations(ctx context.Context, userID int64, recs []engine.Recommendation, dismissedBefore time.Time) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		if err := gcDismissed(ctx, tx, userID, dismissedBefore); err != nil {
			return err
		}
		return insertRecommendations(ctx, tx, recs)
	})
}

func gcDismissed(ctx context.Context, tx *sql.Tx, userID int64, before time.Time) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM recommendations WHERE user_id = ? AND is_dismissed = TRUE AND generated_at < ?`,
		userID, before); err != nil {
		return fmt.Errorf("deleting old dismissed recommendations: %w", err)
	}
	return nil
}

func insertRecommendations(ctx context.Context, tx *sql.Tx, recs []engine.Recommendation) error {
	if len(recs) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO recommendations
			(user_id, media_type, external_id, title, year, cover_url, description,
			 score, source, genre_name, catalog_rating, is_streamable,
			 streaming_providers, external_url, generated_at, is_dismissed, added_to_library)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, FALSE, FALSE)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer closeQuietly(stmt)

	for _, r := range recs {
		providersJSON, err := json.Marshal(genresOrEmpty(r.StreamingProviders))
		if err != nil {
			return fmt.Errorf("encoding providers: %w", err)
		}
		if _, err := stmt.ExecContext(ctx,
			r.UserID, r.MediaType, r.ExternalID, r.Title, r.Year, r.CoverURL,
			r.Description, r.Score, r.Source, r.GenreName, r.CatalogRating,
			r.IsStreamable, string(providersJSON), r.ExternalURL, r.GeneratedAt); err != nil {
			return fmt.Errorf("inserting recommendation %q: %w", r.ExternalID, err)
		}
	}
	return nil
}

// DismissRecommendation marks a recommendation dismissed. Idempotent.
func (db *DB) DismissRecommendation(ctx context.Context, userID, recID int64) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE recommendations SET is_dismissed = TRUE WHERE user_id = ? AND id = ?`,
		userID, recID)
	if err != nil {
		return fmt.Errorf("dismissing recommendation: %w", err)
	}
	return nil
}

// MarkAddedToLibrary marks a recommendation as added. Idempotent.
func (db *DB) MarkAddedToLibrary(ctx context.Context, userID int64, externalID string, mediaType engine.MediaType) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE recommendations SET added_to_library = TRUE
		 WHERE user_id = ? AND external_id = ? AND media_type = ?`,
		userID, externalID, mediaType)
	if err != nil {
		return fmt.Errorf("marking recommendation added: %w", err)
	}
	return nil
}

// inTx runs fn inside a transaction, rolling back on any error.
func (db *DB) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logging.Ctx(ctx).Warn().Err(rbErr).Msg("rollback failed")
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// genresOrEmpty keeps JSON columns non-null for nil slices.
func genresOrEmpty(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
