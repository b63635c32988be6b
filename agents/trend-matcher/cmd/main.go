package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	trendmatcher "repack-agent/agents/trend-matcher"
	"repack-agent/agents/trend-matcher/ingest"
	"repack-agent/agents/trend-matcher/ingest/youtube"
	"repack-agent/internal/models"
	"repack-agent/shared/ai"
	"repack-agent/shared/config"
	"repack-agent/shared/scheduler"
	"repack-agent/shared/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Create context that responds to signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	agent := trendmatcher.NewMatchAgent(cfg)
	s := scheduler.New(cfg, agent)

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--once":
			fmt.Println("Running once...")
			if err := agent.Initialize(); err != nil {
				log.Fatalf("Failed to initialize agent: %v", err)
			}
			if err := s.RunOnce(ctx); err != nil {
				log.Fatalf("Failed to run: %v", err)
			}
			return
		case "--ingest":
			if err := runIngestion(ctx, cfg); err != nil {
				log.Fatalf("Ingestion failed: %v", err)
			}
			return
		case "--sync":
			if err := runLibrarySync(ctx, cfg); err != nil {
				log.Fatalf("Library sync failed: %v", err)
			}
			return
		default:
			log.Fatalf("Unknown flag %s (want --once, --ingest or --sync)", os.Args[1])
		}
	}

	fmt.Println("Starting scheduler...")
	if err := s.Start(ctx); err != nil {
		log.Fatalf("Scheduler failed: %v", err)
	}
}

// runLibrarySync pulls the channel's upload metadata into storage.
// Transcripts are ingested separately with --ingest.
func runLibrarySync(ctx context.Context, cfg *config.Config) error {
	if cfg.YouTube.ChannelID == "" {
		return fmt.Errorf("youtube.channel_id is not configured")
	}

	store, err := storage.Open(ctx, cfg.Storage.Path, cfg.AI.EmbeddingDim)
	if err != nil {
		return err
	}
	defer store.Close()

	client, err := youtube.NewClient(&cfg.YouTube)
	if err != nil {
		return err
	}

	videos, err := client.GetChannelUploads(ctx, 200)
	if err != nil {
		return err
	}

	synced := 0
	for _, v := range videos {
		if v.ContentType != models.ContentTypeLongForm {
			continue // shorts are not repack targets
		}
		if err := store.UpsertVideo(ctx, v); err != nil {
			return err
		}
		synced++
	}
	log.Printf("Library sync complete: %d long-form videos", synced)
	return nil
}

// runIngestion chunks and embeds every transcript in the transcript
// directory.
func runIngestion(ctx context.Context, cfg *config.Config) error {
	store, err := storage.Open(ctx, cfg.Storage.Path, cfg.AI.EmbeddingDim)
	if err != nil {
		return err
	}
	defer store.Close()

	embedder, err := ai.NewEmbedder(cfg)
	if err != nil {
		return err
	}

	_, err = ingest.NewIngester(cfg, store, embedder).IngestDirectory(ctx)
	return err
}
