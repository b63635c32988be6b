package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"repack-agent/internal/models"
)

type fakeCompleter struct {
	response   string
	err        error
	lastSystem string
	lastUser   string
	calls      int
}

func (f *fakeCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.calls++
	f.lastSystem = systemPrompt
	f.lastUser = userPrompt
	return f.response, f.err
}

func testTrend() *models.Trend {
	return &models.Trend{
		ID:       "t1",
		Title:    "AI regulation vote",
		Summary:  "Parliament votes on the new AI act.",
		Keywords: []string{"ai", "regulation"},
	}
}

func testVideo() *models.Video {
	return &models.Video{
		ID:          "v1",
		Title:       "What the AI act means for you",
		Intro:       "Today we look at the AI act and what it changes.",
		PublishedAt: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestEvaluateParsesModelResponse(t *testing.T) {
	completer := &fakeCompleter{response: validResponse}
	evaluator := NewEvaluatorWithCompleter(completer, 3)

	eval := evaluator.Evaluate(context.Background(), testTrend(), testVideo(), nil)

	if completer.calls != 1 {
		t.Fatalf("expected exactly one model call, got %d", completer.calls)
	}
	if eval.SemanticRelevance != 0.8 || !eval.Allowed {
		t.Errorf("unexpected evaluation: %+v", eval)
	}
}

func TestEvaluateTransportFailureDegradesToSentinel(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("rate limited")}
	evaluator := NewEvaluatorWithCompleter(completer, 3)

	eval := evaluator.Evaluate(context.Background(), testTrend(), testVideo(), nil)

	assertConservative(t, eval)
	if !strings.Contains(eval.Notes, "rate limited") {
		t.Errorf("notes should record the failure reason, got %q", eval.Notes)
	}
}

func TestEvaluateGarbageResponseDegradesToSentinel(t *testing.T) {
	completer := &fakeCompleter{response: "I'd rather not say."}
	evaluator := NewEvaluatorWithCompleter(completer, 3)

	eval := evaluator.Evaluate(context.Background(), testTrend(), testVideo(), nil)

	assertConservative(t, eval)
}

func assertConservative(t *testing.T, eval *models.Evaluation) {
	t.Helper()
	if eval.Allowed {
		t.Error("sentinel must have allowed=false")
	}
	if eval.HonestyRisk != 1.0 {
		t.Errorf("sentinel honesty risk = %v, want 1.0", eval.HonestyRisk)
	}
	if eval.SemanticRelevance != 0 || eval.IntroSupport != 0 {
		t.Errorf("sentinel scores should be 0, got %+v", eval)
	}
	if len(eval.Titles) != 0 || len(eval.Thumbnails) != 0 {
		t.Error("sentinel must carry empty packaging lists")
	}
}

func TestEvaluateTruncatesChunksForPrompt(t *testing.T) {
	completer := &fakeCompleter{response: validResponse}
	evaluator := NewEvaluatorWithCompleter(completer, 3)

	chunks := []*models.VideoChunk{
		{VideoID: "v1", Index: 0, Text: "chunk-alpha"},
		{VideoID: "v1", Index: 1, Text: "chunk-beta"},
		{VideoID: "v1", Index: 2, Text: "chunk-gamma"},
		{VideoID: "v1", Index: 3, Text: "chunk-delta"},
		{VideoID: "v1", Index: 4, Text: "chunk-epsilon"},
	}

	evaluator.Evaluate(context.Background(), testTrend(), testVideo(), chunks)

	for _, want := range []string{"chunk-alpha", "chunk-beta", "chunk-gamma"} {
		if !strings.Contains(completer.lastUser, want) {
			t.Errorf("prompt missing expected excerpt %q", want)
		}
	}
	for _, excluded := range []string{"chunk-delta", "chunk-epsilon"} {
		if strings.Contains(completer.lastUser, excluded) {
			t.Errorf("prompt should not carry excerpt %q beyond the window", excluded)
		}
	}
}

func TestEvaluatePromptCarriesTrendAndIntro(t *testing.T) {
	completer := &fakeCompleter{response: validResponse}
	evaluator := NewEvaluatorWithCompleter(completer, 3)

	evaluator.Evaluate(context.Background(), testTrend(), testVideo(), nil)

	for _, want := range []string{
		"AI regulation vote",
		"Parliament votes on the new AI act.",
		"ai, regulation",
		"Today we look at the AI act and what it changes.",
	} {
		if !strings.Contains(completer.lastUser, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if !strings.Contains(completer.lastSystem, "JSON") {
		t.Error("system prompt should demand JSON output")
	}
}
