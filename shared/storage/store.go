// Package storage persists the video corpus, chunk embeddings, the current
// trend set, and the latest run's recommendations in a single SQLite file.
// The match orchestrator is the only writer during a run.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"repack-agent/internal/models"
)

//go:embed schema.sql
var schemaFS embed.FS

// schemaVersion is bumped on any schema change. There is no migration
// path; delete the database file and re-ingest after a bump.
const schemaVersion = 1

var (
	// ErrNotFound is returned by single-record lookups when no row matches.
	ErrNotFound = errors.New("record not found")
	// ErrSchemaMismatch indicates the database was created by a different
	// schema version.
	ErrSchemaMismatch = errors.New("schema version mismatch")
)

// Store wraps the SQLite database holding trends, videos, chunks and
// recommendations.
type Store struct {
	db           *sql.DB
	embeddingDim int
}

// Open opens (creating if necessary) the database at path. embeddingDim is
// the expected embedding vector length; stored embeddings of any other
// length are treated as corruption and surfaced as fatal errors on read.
func Open(ctx context.Context, path string, embeddingDim int) (*Store, error) {
	if embeddingDim <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", embeddingDim)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	// modernc.org/sqlite serializes access itself; a single connection
	// avoids table-lock errors from the pool.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, embeddingDim: embeddingDim}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		schemaSQL, err := schemaFS.ReadFile("schema.sql")
		if err != nil {
			return fmt.Errorf("read embedded schema: %w", err)
		}
		if _, err := s.db.ExecContext(ctx, string(schemaSQL)); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		return nil
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete the database and re-ingest)",
			ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

// UpsertVideo inserts a video or replaces an existing one with the same ID.
// Replacing a video drops its chunks (re-ingestion writes fresh ones).
func (s *Store) UpsertVideo(ctx context.Context, v *models.Video) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO videos (id, title, transcript, intro, published_at, url, content_type)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			transcript = excluded.transcript,
			intro = excluded.intro,
			published_at = excluded.published_at,
			url = excluded.url,
			content_type = excluded.content_type`,
		v.ID, v.Title, v.Transcript, v.Intro, v.PublishedAt, v.URL, string(v.ContentType))
	if err != nil {
		return fmt.Errorf("upsert video %s: %w", v.ID, err)
	}
	return nil
}

// GetVideo returns ErrNotFound when no video has the given ID.
func (s *Store) GetVideo(ctx context.Context, id string) (*models.Video, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, transcript, intro, published_at, url, content_type
		FROM videos WHERE id = ?`, id)
	v, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("video %s: %w", id, ErrNotFound)
	}
	return v, err
}

func (s *Store) AllVideos(ctx context.Context) ([]*models.Video, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, transcript, intro, published_at, url, content_type
		FROM videos ORDER BY published_at`)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	var videos []*models.Video
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideo(row rowScanner) (*models.Video, error) {
	var v models.Video
	var contentType string
	if err := row.Scan(&v.ID, &v.Title, &v.Transcript, &v.Intro, &v.PublishedAt, &v.URL, &contentType); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan video row: %w", err)
	}
	v.ContentType = models.ContentType(contentType)
	return &v, nil
}

// ReplaceChunks deletes a video's chunks and writes the given set in one
// transaction. Embedding lengths are validated before anything is written.
func (s *Store) ReplaceChunks(ctx context.Context, videoID string, chunks []*models.VideoChunk) error {
	for _, c := range chunks {
		if len(c.Embedding) != s.embeddingDim {
			return fmt.Errorf("chunk %s/%d: %w", c.VideoID, c.Index,
				dimensionError(len(c.Embedding), s.embeddingDim))
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin chunk tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE video_id = ?", videoID); err != nil {
		return fmt.Errorf("clear chunks for %s: %w", videoID, err)
	}
	for _, c := range chunks {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO chunks (video_id, idx, text, embedding) VALUES (?, ?, ?, ?)",
			c.VideoID, c.Index, c.Text, encodeEmbedding(c.Embedding)); err != nil {
			return fmt.Errorf("insert chunk %s/%d: %w", c.VideoID, c.Index, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit chunk tx: %w", err)
	}
	return nil
}

// AllChunks returns every stored chunk with its embedding decoded. An
// embedding whose length does not match the configured dimension is a
// consistency error, not a skippable row.
func (s *Store) AllChunks(ctx context.Context) ([]*models.VideoChunk, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT video_id, idx, text, embedding FROM chunks ORDER BY video_id, idx")
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []*models.VideoChunk
	for rows.Next() {
		var c models.VideoChunk
		var blob []byte
		if err := rows.Scan(&c.VideoID, &c.Index, &c.Text, &blob); err != nil {
			return nil, fmt.Errorf("scan chunk row: %w", err)
		}
		emb, err := decodeEmbedding(blob, s.embeddingDim)
		if err != nil {
			return nil, fmt.Errorf("chunk %s/%d: %w", c.VideoID, c.Index, err)
		}
		c.Embedding = emb
		chunks = append(chunks, &c)
	}
	return chunks, rows.Err()
}

// ReplaceTrends swaps the entire trend set in one transaction. A fetch
// cycle always replaces, never merges.
func (s *Store) ReplaceTrends(ctx context.Context, trends []*models.Trend) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin trend tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM trends"); err != nil {
		return fmt.Errorf("clear trends: %w", err)
	}
	for _, t := range trends {
		keywords, err := json.Marshal(t.Keywords)
		if err != nil {
			return fmt.Errorf("marshal keywords for trend %s: %w", t.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO trends (id, title, summary, keywords, source, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			t.ID, t.Title, t.Summary, string(keywords), t.Source, t.CreatedAt); err != nil {
			return fmt.Errorf("insert trend %s: %w", t.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit trend tx: %w", err)
	}
	return nil
}

// GetTrend returns ErrNotFound when no trend has the given ID.
func (s *Store) GetTrend(ctx context.Context, id string) (*models.Trend, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, title, summary, keywords, source, created_at FROM trends WHERE id = ?", id)
	t, err := scanTrend(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("trend %s: %w", id, ErrNotFound)
	}
	return t, err
}

func (s *Store) AllTrends(ctx context.Context) ([]*models.Trend, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, title, summary, keywords, source, created_at FROM trends ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("query trends: %w", err)
	}
	defer rows.Close()

	var trends []*models.Trend
	for rows.Next() {
		t, err := scanTrend(rows)
		if err != nil {
			return nil, err
		}
		trends = append(trends, t)
	}
	return trends, rows.Err()
}

func scanTrend(row rowScanner) (*models.Trend, error) {
	var t models.Trend
	var keywords string
	if err := row.Scan(&t.ID, &t.Title, &t.Summary, &keywords, &t.Source, &t.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan trend row: %w", err)
	}
	if err := json.Unmarshal([]byte(keywords), &t.Keywords); err != nil {
		return nil, fmt.Errorf("unmarshal keywords for trend %s: %w", t.ID, err)
	}
	return &t, nil
}

// InsertRecommendation persists one accepted pair. Accepted pairs are
// written as they are decided, so an interrupted run keeps its partial
// results.
func (s *Store) InsertRecommendation(ctx context.Context, r *models.Recommendation) error {
	titles, err := json.Marshal(r.Titles)
	if err != nil {
		return fmt.Errorf("marshal titles: %w", err)
	}
	thumbnails, err := json.Marshal(r.Thumbnails)
	if err != nil {
		return fmt.Errorf("marshal thumbnails: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO recommendations
			(trend_id, video_id, semantic_relevance, intro_support, honesty_risk,
			 titles, thumbnails, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.TrendID, r.VideoID, r.SemanticRelevance, r.IntroSupport, r.HonestyRisk,
		string(titles), string(thumbnails), r.Notes, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert recommendation (%s, %s): %w", r.TrendID, r.VideoID, err)
	}
	return nil
}

// ClearRecommendations wipes the previous run's snapshot.
func (s *Store) ClearRecommendations(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM recommendations"); err != nil {
		return fmt.Errorf("clear recommendations: %w", err)
	}
	return nil
}

func (s *Store) AllRecommendations(ctx context.Context) ([]*models.Recommendation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT trend_id, video_id, semantic_relevance, intro_support, honesty_risk,
		       titles, thumbnails, notes, created_at
		FROM recommendations ORDER BY trend_id, video_id`)
	if err != nil {
		return nil, fmt.Errorf("query recommendations: %w", err)
	}
	defer rows.Close()

	var recs []*models.Recommendation
	for rows.Next() {
		var r models.Recommendation
		var titles, thumbnails string
		if err := rows.Scan(&r.TrendID, &r.VideoID, &r.SemanticRelevance, &r.IntroSupport,
			&r.HonestyRisk, &titles, &thumbnails, &r.Notes, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan recommendation row: %w", err)
		}
		if err := json.Unmarshal([]byte(titles), &r.Titles); err != nil {
			return nil, fmt.Errorf("unmarshal titles for (%s, %s): %w", r.TrendID, r.VideoID, err)
		}
		if err := json.Unmarshal([]byte(thumbnails), &r.Thumbnails); err != nil {
			return nil, fmt.Errorf("unmarshal thumbnails for (%s, %s): %w", r.TrendID, r.VideoID, err)
		}
		recs = append(recs, &r)
	}
	return recs, rows.Err()
}
