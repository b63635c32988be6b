package trendmatcher

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"repack-agent/agents/trend-matcher/news"
	"repack-agent/internal/models"
	"repack-agent/shared/ai"
	"repack-agent/shared/config"
	"repack-agent/shared/email"
	"repack-agent/shared/progress"
	"repack-agent/shared/scheduler"
	"repack-agent/shared/storage"
)

// Store is the persistence surface the matcher needs. Lookups return
// storage.ErrNotFound for missing records; they never invent data.
type Store interface {
	AllTrends(ctx context.Context) ([]*models.Trend, error)
	GetTrend(ctx context.Context, id string) (*models.Trend, error)
	GetVideo(ctx context.Context, id string) (*models.Video, error)
	AllChunks(ctx context.Context) ([]*models.VideoChunk, error)
	ReplaceTrends(ctx context.Context, trends []*models.Trend) error
	InsertRecommendation(ctx context.Context, rec *models.Recommendation) error
	ClearRecommendations(ctx context.Context) error
	AllRecommendations(ctx context.Context) ([]*models.Recommendation, error)
}

// Embedder produces the query vector for candidate retrieval.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Evaluator judges one (trend, candidate) pair. It never fails: a broken
// response or transport error comes back as an always-rejected Evaluation.
type Evaluator interface {
	Evaluate(ctx context.Context, trend *models.Trend, video *models.Video, chunks []*models.VideoChunk) *models.Evaluation
}

// MatchAgent implements the scheduler.Agent interface. A scheduled run
// fetches the current trend set, re-matches the whole corpus against it,
// and mails the accepted recommendations.
type MatchAgent struct {
	config      *config.Config
	store       Store
	embedder    Embedder
	evaluator   Evaluator
	newsClient  *news.Client
	emailSender *email.Sender
	sink        progress.Sink
}

func NewMatchAgent(cfg *config.Config) *MatchAgent {
	return &MatchAgent{
		config: cfg,
		sink:   progress.LogSink{},
	}
}

func (m *MatchAgent) Name() string {
	return "Trend Matcher"
}

// SetSink replaces the progress consumer. The default logs each event;
// interactive callers can attach a channel sink instead (or in addition,
// via progress.MultiSink).
func (m *MatchAgent) SetSink(sink progress.Sink) {
	m.sink = sink
}

func (m *MatchAgent) Initialize() error {
	log.Printf("Initializing %s...", m.Name())

	if m.store == nil {
		store, err := storage.Open(context.Background(), m.config.Storage.Path, m.config.AI.EmbeddingDim)
		if err != nil {
			return fmt.Errorf("failed to open storage: %w", err)
		}
		m.store = store
		log.Printf("Storage opened at %s", m.config.Storage.Path)
	}

	if m.embedder == nil {
		embedder, err := ai.NewEmbedder(m.config)
		if err != nil {
			return fmt.Errorf("failed to create embedder: %w", err)
		}
		m.embedder = embedder
		log.Println("Embedder initialized")
	}

	if m.evaluator == nil {
		evaluator, err := ai.NewEvaluator(m.config)
		if err != nil {
			return fmt.Errorf("failed to create evaluator: %w", err)
		}
		m.evaluator = evaluator
		log.Println("Evaluator initialized")
	}

	if m.newsClient == nil {
		m.newsClient = news.NewClient(&m.config.News)
		log.Println("News client initialized")
	}

	if m.emailSender == nil && m.config.Email.Username != "" {
		m.emailSender = email.NewSender(&m.config.Email)
		log.Println("Email sender initialized")
	}

	return nil
}

func (m *MatchAgent) RunOnce(ctx context.Context, events *scheduler.AgentEvents) error {
	startTime := time.Now()

	log.Println("Fetching trending topics...")
	trends, err := m.newsClient.FetchTrends(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch trends: %w", err)
	}
	if len(trends) == 0 {
		log.Println("No trends fetched, nothing to match")
		events.OnSuccess(&models.RunReport{}, time.Since(startTime))
		return nil
	}

	if err := m.store.ReplaceTrends(ctx, trends); err != nil {
		return fmt.Errorf("failed to store trends: %w", err)
	}
	log.Printf("Stored %d trends", len(trends))

	trendIDs := make([]string, 0, len(trends))
	for _, t := range trends {
		trendIDs = append(trendIDs, t.ID)
	}

	report, err := m.Match(ctx, trendIDs)
	if err != nil {
		return fmt.Errorf("match run failed: %w", err)
	}

	if m.emailSender != nil && report.Accepted > 0 {
		recs, err := m.store.AllRecommendations(ctx)
		if err != nil {
			events.OnPartialFailure(fmt.Errorf("failed to load recommendations for report: %w", err), time.Since(startTime))
		} else if err := m.emailSender.SendReport(m.buildReport(ctx, recs, report)); err != nil {
			events.OnPartialFailure(fmt.Errorf("failed to send email report: %w", err), time.Since(startTime))
		} else {
			log.Println("Email report sent successfully")
		}
	}

	events.OnSuccess(report, time.Since(startTime))
	return nil
}

// Match runs the full pipeline over the given trend IDs and returns the
// run's counters. The previous recommendation snapshot is cleared before
// the first trend is processed; accepted pairs are persisted as they are
// decided, so an interrupted run leaves valid partial results. One trend
// is fully processed before the next begins, and candidates are evaluated
// strictly one at a time - the worst-case model call count is always
// trends x candidates.
func (m *MatchAgent) Match(ctx context.Context, trendIDs []string) (*models.RunReport, error) {
	report := &models.RunReport{}

	if err := m.store.ClearRecommendations(ctx); err != nil {
		return report, fmt.Errorf("failed to clear previous recommendations: %w", err)
	}

	m.sink.Publish(progress.Event{Type: progress.EventStart, TrendCount: len(trendIDs)})

	for _, trendID := range trendIDs {
		trend, err := m.store.GetTrend(ctx, trendID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				log.Printf("Warning: Skipping unknown trend %s", trendID)
				continue
			}
			return report, fmt.Errorf("failed to look up trend %s: %w", trendID, err)
		}
		report.Trends++

		m.sink.Publish(progress.Event{
			Type:       progress.EventTrend,
			TrendID:    trend.ID,
			TrendTitle: trend.Title,
		})

		candidates, err := m.getCandidateVideos(ctx, trend)
		if err != nil {
			if errors.Is(err, storage.ErrDimensionMismatch) {
				// Corrupt embeddings poison every trend; surface it.
				return report, fmt.Errorf("chunk store is inconsistent: %w", err)
			}
			log.Printf("Warning: Candidate retrieval failed for trend %s: %v", trend.ID, err)
			continue
		}

		m.sink.Publish(progress.Event{
			Type:       progress.EventCandidates,
			TrendID:    trend.ID,
			TrendTitle: trend.Title,
			Candidates: len(candidates),
		})

		for _, cand := range candidates {
			eval := m.evaluator.Evaluate(ctx, trend, cand.Video, cand.TopChunks)
			report.Evaluated++

			ok, reason := accept(eval, m.config.Matcher.Thresholds)
			if !ok {
				m.sink.Publish(progress.Event{
					Type:       progress.EventRejected,
					TrendID:    trend.ID,
					TrendTitle: trend.Title,
					VideoID:    cand.Video.ID,
					VideoTitle: cand.Video.Title,
					Reason:     reason,
				})
				continue
			}

			rec := &models.Recommendation{
				TrendID:           trend.ID,
				VideoID:           cand.Video.ID,
				SemanticRelevance: eval.SemanticRelevance,
				IntroSupport:      eval.IntroSupport,
				HonestyRisk:       eval.HonestyRisk,
				Titles:            eval.Titles,
				Thumbnails:        eval.Thumbnails,
				Notes:             eval.Notes,
				CreatedAt:         time.Now(),
			}
			if err := m.store.InsertRecommendation(ctx, rec); err != nil {
				return report, fmt.Errorf("failed to persist recommendation (%s, %s): %w", trend.ID, cand.Video.ID, err)
			}
			report.Accepted++

			m.sink.Publish(progress.Event{
				Type:       progress.EventAccepted,
				TrendID:    trend.ID,
				TrendTitle: trend.Title,
				VideoID:    cand.Video.ID,
				VideoTitle: cand.Video.Title,
			})
		}
	}

	m.sink.Publish(progress.Event{
		Type:      progress.EventComplete,
		Evaluated: report.Evaluated,
		Accepted:  report.Accepted,
		Rejected:  report.Rejected(),
	})

	return report, nil
}

func (m *MatchAgent) buildReport(ctx context.Context, recs []*models.Recommendation, report *models.RunReport) *email.Report {
	items := make([]*email.ReportItem, 0, len(recs))
	for _, rec := range recs {
		item := &email.ReportItem{Recommendation: rec}
		if trend, err := m.store.GetTrend(ctx, rec.TrendID); err == nil {
			item.TrendTitle = trend.Title
		}
		if video, err := m.store.GetVideo(ctx, rec.VideoID); err == nil {
			item.VideoTitle = video.Title
			item.VideoURL = video.URL
		}
		items = append(items, item)
	}
	return &email.Report{
		Date:  time.Now(),
		Items: items,
		Run:   report,
	}
}
