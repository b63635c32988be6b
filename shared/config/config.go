package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	AI         AIConfig         `yaml:"ai"`
	YouTube    YouTubeConfig    `yaml:"youtube"`
	News       NewsConfig       `yaml:"news"`
	Matcher    MatcherConfig    `yaml:"matcher"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Storage    StorageConfig    `yaml:"storage"`
	Email      EmailConfig      `yaml:"email"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Schedule   string           `yaml:"schedule"`
}

type AIConfig struct {
	GeminiAPIKey   string `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	Model          string `yaml:"model"`
	EmbeddingModel string `yaml:"embedding_model"`
	EmbeddingDim   int    `yaml:"embedding_dim"`
}

type YouTubeConfig struct {
	ClientID     string `yaml:"client_id" env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"GOOGLE_CLIENT_SECRET"`
	TokenFile    string `yaml:"token_file"`
	ChannelID    string `yaml:"channel_id"`
	// Uploads at or above this duration are ingested as long-form.
	LongFormMinutes int `yaml:"long_form_minutes"`
}

type NewsConfig struct {
	FeedURL   string `yaml:"feed_url"`
	Source    string `yaml:"source"`
	MaxTrends int    `yaml:"max_trends"`
}

// Thresholds are the acceptance gate cutoffs. All four must hold at once
// for a candidate to be accepted.
type Thresholds struct {
	SemanticRelevance float64 `yaml:"semantic_relevance"`
	IntroSupport      float64 `yaml:"intro_support"`
	HonestyRisk       float64 `yaml:"honesty_risk"`
}

type MatcherConfig struct {
	// CandidateCount is how many videos similarity ranking keeps per trend.
	CandidateCount int `yaml:"candidate_count"`
	// ChunksPerVideo is how many top chunks are retained per candidate;
	// ChunksForPrompt is how many of those actually go to the model.
	ChunksPerVideo  int        `yaml:"chunks_per_video"`
	ChunksForPrompt int        `yaml:"chunks_for_prompt"`
	Thresholds      Thresholds `yaml:"thresholds"`
}

type IngestConfig struct {
	TranscriptDir  string `yaml:"transcript_dir"`
	ChunkSize      int    `yaml:"chunk_size"`
	ChunkOverlap   int    `yaml:"chunk_overlap"`
	IntroWordCount int    `yaml:"intro_word_count"`
}

type StorageConfig struct {
	Path string `yaml:"path"`
}

type EmailConfig struct {
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	Username   string `yaml:"username" env:"EMAIL_USERNAME"`
	Password   string `yaml:"password" env:"EMAIL_PASSWORD"`
	FromEmail  string `yaml:"from_email"`
	ToEmail    string `yaml:"to_email"`
}

type MonitoringConfig struct {
	HealthPort int `yaml:"health_port"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
	}

	if cfg.AI.GeminiAPIKey == "" {
		cfg.AI.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.YouTube.ClientID == "" {
		cfg.YouTube.ClientID = os.Getenv("GOOGLE_CLIENT_ID")
	}
	if cfg.YouTube.ClientSecret == "" {
		cfg.YouTube.ClientSecret = os.Getenv("GOOGLE_CLIENT_SECRET")
	}
	if cfg.Email.Username == "" {
		cfg.Email.Username = os.Getenv("EMAIL_USERNAME")
	}
	if cfg.Email.Password == "" {
		cfg.Email.Password = os.Getenv("EMAIL_PASSWORD")
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.AI.Model == "" {
		c.AI.Model = "gemini-2.5-flash"
	}
	if c.AI.EmbeddingModel == "" {
		c.AI.EmbeddingModel = "gemini-embedding-001"
	}
	if c.AI.EmbeddingDim == 0 {
		c.AI.EmbeddingDim = 768
	}
	if c.YouTube.TokenFile == "" {
		c.YouTube.TokenFile = "youtube_token.json"
	}
	if c.YouTube.LongFormMinutes == 0 {
		c.YouTube.LongFormMinutes = 4
	}
	if c.News.MaxTrends == 0 {
		c.News.MaxTrends = 10
	}
	if c.Matcher.CandidateCount == 0 {
		c.Matcher.CandidateCount = 3
	}
	if c.Matcher.ChunksPerVideo == 0 {
		c.Matcher.ChunksPerVideo = 5
	}
	if c.Matcher.ChunksForPrompt == 0 {
		c.Matcher.ChunksForPrompt = 3
	}
	if c.Matcher.Thresholds.SemanticRelevance == 0 {
		c.Matcher.Thresholds.SemanticRelevance = 0.65
	}
	if c.Matcher.Thresholds.IntroSupport == 0 {
		c.Matcher.Thresholds.IntroSupport = 0.65
	}
	if c.Matcher.Thresholds.HonestyRisk == 0 {
		c.Matcher.Thresholds.HonestyRisk = 0.30
	}
	if c.Ingest.TranscriptDir == "" {
		c.Ingest.TranscriptDir = "transcripts"
	}
	if c.Ingest.ChunkSize == 0 {
		c.Ingest.ChunkSize = 1200
	}
	if c.Ingest.ChunkOverlap == 0 {
		c.Ingest.ChunkOverlap = 200
	}
	if c.Ingest.IntroWordCount == 0 {
		c.Ingest.IntroWordCount = 120
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "data/repack.db"
	}
	if c.Monitoring.HealthPort == 0 {
		c.Monitoring.HealthPort = 8080
	}
	if c.Schedule == "" {
		c.Schedule = "0 0 7 * * *" // Daily at 7 AM
	}
}

func (c *Config) validate() error {
	if c.AI.GeminiAPIKey == "" {
		return fmt.Errorf("Gemini API key is required (set GEMINI_API_KEY or ai.gemini_api_key)")
	}
	if c.News.FeedURL == "" {
		return fmt.Errorf("news feed URL is required (set news.feed_url)")
	}
	if c.YouTube.ChannelID != "" {
		if c.YouTube.ClientID == "" {
			return fmt.Errorf("YouTube client ID is required when a channel is configured (set GOOGLE_CLIENT_ID or youtube.client_id)")
		}
		if c.YouTube.ClientSecret == "" {
			return fmt.Errorf("YouTube client secret is required when a channel is configured (set GOOGLE_CLIENT_SECRET or youtube.client_secret)")
		}
	}
	if c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		return fmt.Errorf("chunk overlap (%d) must be smaller than chunk size (%d)", c.Ingest.ChunkOverlap, c.Ingest.ChunkSize)
	}
	return nil
}
