// Package ingest builds the searchable corpus: video metadata from the
// channel's upload list, transcripts from a local directory, chunked and
// embedded into storage.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"repack-agent/internal/models"
	"repack-agent/shared/config"
	"repack-agent/shared/storage"
)

// embedBatchSize bounds one embedding request; long transcripts produce
// more chunks than the API accepts in a single call.
const embedBatchSize = 32

type Store interface {
	GetVideo(ctx context.Context, id string) (*models.Video, error)
	UpsertVideo(ctx context.Context, v *models.Video) error
	ReplaceChunks(ctx context.Context, videoID string, chunks []*models.VideoChunk) error
}

type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type Ingester struct {
	config   *config.Config
	store    Store
	embedder Embedder
}

func NewIngester(cfg *config.Config, store Store, embedder Embedder) *Ingester {
	return &Ingester{config: cfg, store: store, embedder: embedder}
}

// IngestDirectory walks the transcript directory and ingests every
// `<video-id>.txt` file. Videos already synced from YouTube keep their
// metadata; a transcript without a known video gets a minimal record so
// the pipeline can still use it. Returns the number of videos ingested.
func (i *Ingester) IngestDirectory(ctx context.Context) (int, error) {
	dir := i.config.Ingest.TranscriptDir
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read transcript directory %s: %w", dir, err)
	}

	ingested := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		videoID := strings.TrimSuffix(entry.Name(), ".txt")

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			log.Printf("Warning: Failed to read transcript for %s: %v", videoID, err)
			continue
		}

		if err := i.IngestTranscript(ctx, videoID, string(data)); err != nil {
			return ingested, fmt.Errorf("failed to ingest %s: %w", videoID, err)
		}
		ingested++
	}

	log.Printf("Ingestion complete: %d videos", ingested)
	return ingested, nil
}

// IngestTranscript attaches a transcript to a video, chunks it, embeds the
// chunks in batches and replaces the video's stored chunk set.
func (i *Ingester) IngestTranscript(ctx context.Context, videoID, transcript string) error {
	video, err := i.store.GetVideo(ctx, videoID)
	if errors.Is(err, storage.ErrNotFound) {
		video = &models.Video{
			ID:          videoID,
			Title:       videoID,
			ContentType: models.ContentTypeLongForm,
		}
	} else if err != nil {
		return err
	}

	video.Transcript = transcript
	video.Intro = IntroExcerpt(transcript, i.config.Ingest.IntroWordCount)

	chunks := ChunkTranscript(videoID, transcript, i.config.Ingest.ChunkSize, i.config.Ingest.ChunkOverlap)
	if len(chunks) == 0 {
		log.Printf("Warning: Transcript for %s is empty, skipping", videoID)
		return nil
	}
	log.Printf("Ingesting %s: %d chunks", videoID, len(chunks))

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]
		texts := make([]string, 0, len(batch))
		for _, c := range batch {
			texts = append(texts, c.Text)
		}
		vecs, err := i.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to embed chunks for %s: %w", videoID, err)
		}
		for j, vec := range vecs {
			batch[j].Embedding = vec
		}
	}

	if err := i.store.UpsertVideo(ctx, video); err != nil {
		return err
	}
	return i.store.ReplaceChunks(ctx, videoID, chunks)
}
