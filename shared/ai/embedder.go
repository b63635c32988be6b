package ai

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"repack-agent/shared/config"
)

// Embedder produces fixed-length embedding vectors via the Gemini API.
type Embedder struct {
	client *genai.Client
	model  string
	dim    int
}

func NewEmbedder(cfg *config.Config) (*Embedder, error) {
	ctx := context.Background()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.AI.GeminiAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Embedder{
		client: client,
		model:  cfg.AI.EmbeddingModel,
		dim:    cfg.AI.EmbeddingDim,
	}, nil
}

// Embed returns the embedding for a single text. Used for query vectors
// inside candidate retrieval; a failure here propagates (there is no safe
// synthetic embedding).
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds several texts in one request. Used during ingestion.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, 0, len(texts))
	for _, t := range texts {
		contents = append(contents, genai.NewContentFromText(t, genai.RoleUser))
	}

	result, err := e.client.Models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		OutputDimensionality: genai.Ptr(int32(e.dim)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to embed %d texts: %w", len(texts), err)
	}

	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding API returned %d vectors for %d texts", len(result.Embeddings), len(texts))
	}

	vecs := make([][]float32, 0, len(texts))
	for i, emb := range result.Embeddings {
		if len(emb.Values) != e.dim {
			return nil, fmt.Errorf("embedding %d has dimension %d, expected %d", i, len(emb.Values), e.dim)
		}
		vecs = append(vecs, emb.Values)
	}
	return vecs, nil
}
