package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
ai:
  gemini_api_key: test-key
news:
  feed_url: https://example.com/feed.xml
`)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("GEMINI_API_KEY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.AI.Model != "gemini-2.5-flash" {
		t.Errorf("default model = %q", cfg.AI.Model)
	}
	if cfg.AI.EmbeddingDim != 768 {
		t.Errorf("default embedding dim = %d", cfg.AI.EmbeddingDim)
	}
	if cfg.Matcher.CandidateCount != 3 {
		t.Errorf("default candidate count = %d", cfg.Matcher.CandidateCount)
	}
	if cfg.Matcher.ChunksForPrompt != 3 {
		t.Errorf("default chunks for prompt = %d", cfg.Matcher.ChunksForPrompt)
	}
	if cfg.Matcher.Thresholds.SemanticRelevance != 0.65 ||
		cfg.Matcher.Thresholds.IntroSupport != 0.65 ||
		cfg.Matcher.Thresholds.HonestyRisk != 0.30 {
		t.Errorf("default thresholds = %+v", cfg.Matcher.Thresholds)
	}
	if cfg.Ingest.ChunkSize != 1200 || cfg.Ingest.ChunkOverlap != 200 {
		t.Errorf("default chunking = %+v", cfg.Ingest)
	}
	if cfg.Storage.Path != "data/repack.db" {
		t.Errorf("default storage path = %q", cfg.Storage.Path)
	}
}

func TestLoadThresholdOverride(t *testing.T) {
	path := writeConfig(t, `
ai:
  gemini_api_key: test-key
news:
  feed_url: https://example.com/feed.xml
matcher:
  thresholds:
    intro_support: 0.70
`)
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Matcher.Thresholds.IntroSupport != 0.70 {
		t.Errorf("intro support threshold = %v, want 0.70", cfg.Matcher.Thresholds.IntroSupport)
	}
	if cfg.Matcher.Thresholds.SemanticRelevance != 0.65 {
		t.Errorf("other thresholds should keep defaults, got %v", cfg.Matcher.Thresholds.SemanticRelevance)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
	}{
		{
			name: "Missing Gemini key",
			content: `
news:
  feed_url: https://example.com/feed.xml
`,
		},
		{
			name: "Missing feed URL",
			content: `
ai:
  gemini_api_key: test-key
`,
		},
		{
			name: "Channel without OAuth credentials",
			content: `
ai:
  gemini_api_key: test-key
news:
  feed_url: https://example.com/feed.xml
youtube:
  channel_id: UC123
`,
		},
		{
			name: "Overlap not smaller than chunk size",
			content: `
ai:
  gemini_api_key: test-key
news:
  feed_url: https://example.com/feed.xml
ingest:
  chunk_size: 100
  chunk_overlap: 100
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CONFIG_FILE", writeConfig(t, tt.content))
			t.Setenv("GEMINI_API_KEY", "")
			t.Setenv("GOOGLE_CLIENT_ID", "")
			t.Setenv("GOOGLE_CLIENT_SECRET", "")

			if _, err := Load(); err == nil {
				t.Error("Load() should fail validation")
			}
		})
	}
}

func TestLoadEnvFallback(t *testing.T) {
	path := writeConfig(t, `
news:
  feed_url: https://example.com/feed.xml
`)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("GEMINI_API_KEY", "from-env")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AI.GeminiAPIKey != "from-env" {
		t.Errorf("API key = %q, want env fallback", cfg.AI.GeminiAPIKey)
	}
}
