package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"stagefinder/internal/api"
	stagefinderconfig "stagefinder/internal/config"
	"stagefinder/internal/discovery"
	"stagefinder/internal/extraction"
	"stagefinder/internal/frequency"
	"stagefinder/internal/review"
	"stagefinder/internal/scrape"
	"stagefinder/internal/store"
	"stagefinder/pkg/clients"
	"stagefinder/pkg/config"
	"stagefinder/pkg/database"
	"stagefinder/pkg/llm"
	"stagefinder/pkg/logging"
	"stagefinder/pkg/monitoring"
	"stagefinder/pkg/server"
	"stagefinder/pkg/version"
)

func main() {
	// Setup logger
	logger := logging.NewLoggerWithService("stagefinder")

	// Load environment variables
	config.LoadEnv(logger)

	logger.Info("Starting Stagefinder (event discovery and tracking API)")

	cfg := stagefinderconfig.LoadConfig()

	// Connect to database
	dbConfig := database.DefaultConfig()
	dbConfig.URL = cfg.DatabaseURL
	db := database.MustConnect(dbConfig, logger)
	defer func() { _ = db.Close() }()

	st := store.New(db)
	{
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := st.ApplySchema(ctx); err != nil {
			cancel()
			logger.WithError(err).Fatal("Failed to apply database schema")
		}
		cancel()
	}

	// Setup monitoring
	healthChecker := monitoring.NewHealthChecker("stagefinder", version.Version)
	metricsCollector := monitoring.NewMetricsCollector("stagefinder", version.Version, version.GitCommit)

	healthChecker.AddCheck("database", monitoring.DatabaseHealthCheck(db))
	healthChecker.AddCheck("config", monitoring.ConfigurationHealthCheck(map[string]string{
		"DATABASE_URL": cfg.DatabaseURL,
	}))

	// Shared pacers keep outbound traffic polite: one spaces page fetches,
	// one spaces model calls, one spaces whole-source runs.
	fetchPacer := clients.NewPacer(clients.PacerConfig{Name: "fetch", Interval: cfg.FetchPace, Logger: logger})
	llmPacer := clients.NewPacer(clients.PacerConfig{Name: "llm", Interval: cfg.LLMPace, Logger: logger})
	sourcePacer := clients.NewPacer(clients.PacerConfig{Name: "source", Interval: cfg.SourcePause, Logger: logger})

	fetcher := scrape.NewFetcher(&http.Client{Timeout: 10 * time.Second}, fetchPacer)

	// The model is optional: without it, extraction and frequency analysis
	// are disabled and discovery falls back to pattern guessing.
	var llmClient llm.Client
	client, err := llm.NewClient(llm.Config{
		Provider: cfg.LLMProvider,
		Model:    cfg.LLMModel,
		APIKey:   cfg.LLMAPIKey,
		APIURL:   cfg.LLMAPIURL,
	})
	if err != nil {
		logger.WithError(err).Warn("LLM client not configured - discovery will use pattern guessing only")
	} else {
		llmClient = client
	}

	reviewManager := review.NewManager(st, logger)

	var discoverer api.Discoverer
	var pipeline api.ExtractionRunner
	var analyzer api.FrequencyRunner
	if llmClient != nil {
		discoverer = discovery.NewAIDiscoverer(llmClient, fetcher, logger)
		analyzer = frequency.NewAnalyzer(fetcher, llmClient, llmPacer, logger)
		pipeline = extraction.NewPipeline(extraction.PipelineConfig{
			Fetcher:     fetcher,
			Extractor:   extraction.NewExtractor(llmClient),
			Verifier:    extraction.NewVerifier(fetcher, llmClient, logger),
			Queue:       st,
			LLMPacer:    llmPacer,
			SourcePacer: sourcePacer,
			Logger:      logger,
			MaxPosts:    cfg.MaxPostsPerSource,
		})
	} else {
		pipeline = disabledPipeline{}
		analyzer = disabledAnalyzer{}
	}

	// Create handler metrics
	handlerMetrics := &api.Metrics{
		ExtractionRuns:   metricsCollector.NewCounter("extraction_runs_total", "Extraction pipeline runs", []string{"status"}),
		CandidatesQueued: metricsCollector.NewCounter("candidates_queued_total", "Event candidates queued for review", []string{"verified"}),
		EventsSwept:      metricsCollector.NewCounter("events_swept_total", "Expired events removed", []string{"trigger"}),
	}

	// Scheduled retirement of events past their retention window
	sweeper, err := review.NewSweeper(reviewManager, cfg.SweepSchedule, logger, handlerMetrics.EventsSwept)
	if err != nil {
		logger.WithError(err).Fatal("Invalid sweep schedule")
	}
	sweeper.Start()
	defer sweeper.Stop()

	// Setup router with unified monitoring (health/metrics only)
	router := server.SetupServiceRouter(logger, "stagefinder", healthChecker, metricsCollector)

	apiServer := api.New(api.Config{
		Store:      st,
		Discoverer: discoverer,
		Pipeline:   pipeline,
		Analyzer:   analyzer,
		Review:     reviewManager,
		Metrics:    handlerMetrics,
		Logger:     logger,
	})
	apiServer.RegisterRoutes(router)

	// Start HTTP server with graceful shutdown
	serverConfig := server.DefaultConfig("stagefinder", cfg.Port)
	if err := server.Start(serverConfig, router, logger); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}
}

// disabledPipeline and disabledAnalyzer stand in when no model is
// configured, so the corresponding endpoints answer with a clear error
// instead of panicking.
type disabledPipeline struct{}

func (disabledPipeline) RunPerson(context.Context, store.Person, []store.Source) (extraction.Summary, error) {
	return extraction.Summary{}, errLLMDisabled
}

func (disabledPipeline) RunSource(context.Context, store.Source) (extraction.Summary, error) {
	return extraction.Summary{}, errLLMDisabled
}

type disabledAnalyzer struct{}

func (disabledAnalyzer) AnalyzeAll(context.Context, []store.Source, frequency.UpdateFunc) ([]frequency.Report, error) {
	return nil, errLLMDisabled
}

var errLLMDisabled = errors.New("no LLM provider configured")
