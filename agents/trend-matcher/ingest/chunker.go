package ingest

import (
	"strings"

	"repack-agent/internal/models"
)

// ChunkTranscript splits a transcript into fixed-size character windows
// with overlap, so context spanning a boundary appears in both neighbors.
// Chunks are the unit of embedding and retrieval; they are created once at
// ingestion and never mutated.
func ChunkTranscript(videoID, transcript string, size, overlap int) []*models.VideoChunk {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return nil
	}

	step := size - overlap
	var chunks []*models.VideoChunk
	for start := 0; start < len(transcript); start += step {
		end := start + size
		if end > len(transcript) {
			end = len(transcript)
		}
		text := strings.TrimSpace(transcript[start:end])
		if text != "" {
			chunks = append(chunks, &models.VideoChunk{
				VideoID: videoID,
				Index:   len(chunks),
				Text:    text,
			})
		}
		if end == len(transcript) {
			break
		}
	}
	return chunks
}

// IntroExcerpt returns the first wordCount words of the transcript. The
// excerpt is fixed at ingestion and later shown to the model as the
// video's opening, so intro support can be judged without the full text.
func IntroExcerpt(transcript string, wordCount int) string {
	words := strings.Fields(transcript)
	if len(words) > wordCount {
		words = words[:wordCount]
	}
	return strings.Join(words, " ")
}
