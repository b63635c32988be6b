package ai

import (
	"context"
	"fmt"
	"log"
	"strings"

	"google.golang.org/genai"

	"repack-agent/internal/models"
	"repack-agent/shared/config"
)

// Completer is the generation provider consumed by the Evaluator. The
// provider is asked to emit JSON but nothing guarantees it does; the repair
// cascade exists because this contract is soft.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Evaluator issues exactly one model call per (trend, candidate) pair and
// converts the response into an Evaluation. It never returns an error:
// malformed output and transport failures both degrade to a conservative,
// always-rejected Evaluation, so the caller's control flow never branches
// on evaluation failure.
type Evaluator struct {
	completer    Completer
	promptChunks int
}

func NewEvaluator(cfg *config.Config) (*Evaluator, error) {
	ctx := context.Background()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.AI.GeminiAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Evaluator{
		completer:    &geminiCompleter{client: client, model: cfg.AI.Model},
		promptChunks: cfg.Matcher.ChunksForPrompt,
	}, nil
}

// NewEvaluatorWithCompleter wires a custom generation provider. Used by
// tests to exercise the cascade without network calls.
func NewEvaluatorWithCompleter(completer Completer, promptChunks int) *Evaluator {
	return &Evaluator{completer: completer, promptChunks: promptChunks}
}

// Evaluate judges whether video can honestly be repackaged around trend.
// chunks must already be ordered best-first; only the top promptChunks are
// sent to the model.
func (e *Evaluator) Evaluate(ctx context.Context, trend *models.Trend, video *models.Video, chunks []*models.VideoChunk) *models.Evaluation {
	if len(chunks) > e.promptChunks {
		chunks = chunks[:e.promptChunks]
	}

	systemPrompt, userPrompt := buildEvaluationPrompt(trend, video, chunks)

	response, err := e.completer.Complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		log.Printf("Warning: Model call failed for trend %s, video %s: %v", trend.ID, video.ID, err)
		return conservativeEvaluation(fmt.Sprintf("model call failed: %v", err))
	}

	eval, err := decodeEvaluation(response)
	if err != nil {
		log.Printf("Warning: Unusable model response for trend %s, video %s: %v", trend.ID, video.ID, err)
		return conservativeEvaluation(fmt.Sprintf("unusable model response: %v", err))
	}
	return eval
}

// conservativeEvaluation is the sentinel for any evaluation failure: all
// scores at their most restrictive end, so the acceptance gate always
// rejects it.
func conservativeEvaluation(reason string) *models.Evaluation {
	return &models.Evaluation{
		SemanticRelevance: 0,
		IntroSupport:      0,
		HonestyRisk:       1.0,
		Allowed:           false,
		Titles:            []string{},
		Thumbnails:        []string{},
		Notes:             reason,
	}
}

func buildEvaluationPrompt(trend *models.Trend, video *models.Video, chunks []*models.VideoChunk) (string, string) {
	systemPrompt := `You are an editorial reviewer for a long-form video channel. You judge whether an existing video can honestly be repackaged (new title and thumbnail) around a trending news topic.

Be strict: a repackage is honest only if the video's actual content substantially covers the trend, and the video's opening minutes deliver on the new framing. Clickbait that the content cannot back up must be rejected.

Respond with a single JSON object in exactly this format:
{
  "semantic_relevance": number (0-1, how much the video content overlaps the trend),
  "intro_support": number (0-1, how well the video's intro supports the new angle),
  "honesty_risk": number (0-1, risk that the new framing misleads viewers),
  "allowed": boolean (your overall verdict),
  "titles": ["2-3 candidate titles for the repackaged video"],
  "thumbnails": ["2-3 short thumbnail concepts"],
  "notes": "one or two sentences explaining your verdict"
}`

	var excerpts strings.Builder
	for i, c := range chunks {
		fmt.Fprintf(&excerpts, "Excerpt %d:\n%s\n\n", i+1, c.Text)
	}

	userPrompt := fmt.Sprintf(`TRENDING TOPIC:
Title: %s
Summary: %s
Keywords: %s

CANDIDATE VIDEO:
Title: %s
Published: %s

VIDEO INTRO (opening of the transcript):
%s

MOST RELEVANT TRANSCRIPT EXCERPTS:
%s`,
		trend.Title,
		trend.Summary,
		strings.Join(trend.Keywords, ", "),
		video.Title,
		video.PublishedAt.Format("2006-01-02"),
		video.Intro,
		excerpts.String(),
	)

	return systemPrompt, userPrompt
}

// geminiCompleter calls the Gemini API with the response type biased
// toward JSON.
type geminiCompleter struct {
	client *genai.Client
	model  string
}

func (g *geminiCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(userPrompt, genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	responseText := result.Text()
	if responseText == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return responseText, nil
}
