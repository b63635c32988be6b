package trendmatcher

import (
	"context"
	"fmt"
	"log"
	"sort"

	"repack-agent/internal/models"
)

// Candidate is a video shortlisted for one trend, with its mean chunk
// similarity and its best chunks (best-first) for the evaluation prompt.
type Candidate struct {
	Video     *models.Video
	Score     float64
	TopChunks []*models.VideoChunk
}

type scoredChunk struct {
	chunk *models.VideoChunk
	score float64
}

type videoScore struct {
	videoID string
	chunks  []scoredChunk
	sum     float64
}

func (v *videoScore) mean() float64 {
	return v.sum / float64(len(v.chunks))
}

// getCandidateVideos reduces the corpus to the top-K videos for a trend.
// The trend query is enriched, embedded once, scored against every stored
// chunk, and chunk scores are averaged per video: the mean rewards videos
// that are broadly on-theme instead of videos with one lucky chunk. An
// embedding failure propagates; an empty chunk store yields an empty list.
func (a *MatchAgent) getCandidateVideos(ctx context.Context, trend *models.Trend) ([]*Candidate, error) {
	chunks, err := a.store.AllChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load chunks: %w", err)
	}
	if len(chunks) == 0 {
		log.Printf("Warning: No chunks in storage - has ingestion been run? Returning no candidates for trend %s", trend.ID)
		return nil, nil
	}

	query := enrichTrendQuery(trend)
	queryVec, err := a.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed trend query: %w", err)
	}

	// Group chunk scores by owning video, keeping insertion order so that
	// equal means rank deterministically.
	byVideo := make(map[string]*videoScore)
	var order []string
	for _, chunk := range chunks {
		score := CosineSimilarity(queryVec, chunk.Embedding)
		vs, ok := byVideo[chunk.VideoID]
		if !ok {
			vs = &videoScore{videoID: chunk.VideoID}
			byVideo[chunk.VideoID] = vs
			order = append(order, chunk.VideoID)
		}
		vs.chunks = append(vs.chunks, scoredChunk{chunk: chunk, score: score})
		vs.sum += score
	}

	ranked := make([]*videoScore, 0, len(order))
	for _, id := range order {
		ranked = append(ranked, byVideo[id])
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].mean() > ranked[j].mean()
	})

	k := a.config.Matcher.CandidateCount
	if k > len(ranked) {
		k = len(ranked)
	}

	candidates := make([]*Candidate, 0, k)
	for _, vs := range ranked[:k] {
		video, err := a.store.GetVideo(ctx, vs.videoID)
		if err != nil {
			// A chunk pointing at a missing video is stale data, not a
			// reason to fail the trend.
			log.Printf("Warning: Skipping chunks for missing video %s: %v", vs.videoID, err)
			continue
		}

		sort.SliceStable(vs.chunks, func(i, j int) bool {
			return vs.chunks[i].score > vs.chunks[j].score
		})
		n := a.config.Matcher.ChunksPerVideo
		if n > len(vs.chunks) {
			n = len(vs.chunks)
		}
		top := make([]*models.VideoChunk, 0, n)
		for _, sc := range vs.chunks[:n] {
			top = append(top, sc.chunk)
		}

		candidates = append(candidates, &Candidate{
			Video:     video,
			Score:     vs.mean(),
			TopChunks: top,
		})
	}
	return candidates, nil
}
