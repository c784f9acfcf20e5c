package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"job-pipeline-go/internal/app"
	"job-pipeline-go/internal/config"
	"job-pipeline-go/internal/enrich"
	"job-pipeline-go/internal/scraper"
	"job-pipeline-go/internal/storage"
)

func main() {
	configFile := flag.String("config", "config.json", "Configuration file path")
	once := flag.Bool("once", false, "Run a single sweep and exit")
	flag.Parse()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		log.Fatalf("Failed to apply environment: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	logger, logFile, err := app.SetupLogging(cfg.Monitoring.LogFile, cfg.Monitoring.LogLevel)
	if err != nil {
		log.Fatalf("Failed to setup logging: %v", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize storage", "err", err)
		os.Exit(1)
	}
	defer closeStore()

	var enricher *enrich.Enricher
	if cfg.Batch.Enrich {
		var closeEnricher func()
		enricher, closeEnricher, err = app.NewEnricher(ctx, cfg, store, logger)
		if err != nil {
			logger.Error("failed to initialize enrichment", "err", err)
			os.Exit(1)
		}
		defer closeEnricher()
	}

	metrics := scraper.NewMetrics()
	pipeline := app.NewPipeline(cfg, logger)
	driver := scraper.NewBatchDriver(pipeline, store, scraper.BatchOptions{
		Method:       cfg.Batch.Method,
		PauseBetween: cfg.Batch.PauseBetween,
		Metrics:      metrics,
		Logger:       logger,
	})

	logger.Info("starting job pipeline",
		"site", cfg.Scraper.SiteName,
		"sink", cfg.Database.Driver,
		"method", cfg.Batch.Method,
		"methods", pipeline.Methods(),
		"schedule", cfg.Batch.Schedule,
	)

	c := &cycle{
		cfg:      cfg,
		store:    store,
		driver:   driver,
		enricher: enricher,
		metrics:  metrics,
		logger:   logger,
	}

	if *once {
		c.run(ctx)
		return
	}

	sched := cron.New()
	if _, err := sched.AddFunc(cfg.Batch.Schedule, func() { c.run(ctx) }); err != nil {
		logger.Error("invalid batch schedule", "schedule", cfg.Batch.Schedule, "err", err)
		os.Exit(1)
	}
	sched.Start()
	logger.Info("scheduler started", "schedule", cfg.Batch.Schedule)

	// Run immediately so the first results do not wait for a tick.
	go c.run(ctx)

	<-ctx.Done()
	logger.Info("shutting down gracefully")

	<-sched.Stop().Done()
	c.wait()
	logger.Info("job pipeline shutdown complete")
}

// cycle is one scheduled sweep over the batch locations followed by
// optional enrichment. Overlapping ticks are skipped.
type cycle struct {
	cfg      *config.Config
	store    storage.Store
	driver   *scraper.BatchDriver
	enricher *enrich.Enricher
	metrics  *scraper.Metrics
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup
}

func (c *cycle) run(ctx context.Context) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		c.logger.Warn("previous cycle still running, skipping tick")
		return
	}
	c.running = true
	c.wg.Add(1)
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
		c.wg.Done()
	}()

	start := time.Now()
	c.logger.InfoContext(ctx, "cycle started")

	locations, err := app.Locations(ctx, c.cfg, c.store)
	if err != nil {
		c.logger.ErrorContext(ctx, "cycle aborted", "err", err)
		return
	}
	if len(locations) == 0 {
		c.logger.WarnContext(ctx, "no locations configured, nothing to scrape")
		return
	}

	// Every location has been handled once; start the next sweep fresh.
	if c.driver.Processed() >= len(locations) {
		c.driver.ResetProcessed()
	}

	report, err := c.driver.RunLocations(ctx, locations, c.cfg.Batch.Keywords)
	if err != nil {
		c.logger.WarnContext(ctx, "sweep interrupted", "err", err, "processed", len(report.Locations))
		return
	}

	if c.enricher != nil {
		companies := report.Companies()
		if len(companies) > 0 {
			res, err := c.enricher.ProcessCompanies(ctx, companies)
			if err != nil {
				c.logger.WarnContext(ctx, "enrichment interrupted", "err", err)
			}
			for _, msg := range res.Errors {
				c.logger.DebugContext(ctx, "enrichment skipped company", "reason", msg)
			}
		}
	}

	c.logger.InfoContext(ctx, "cycle finished", "elapsed", time.Since(start))
	c.printMetrics(ctx)
}

func (c *cycle) wait() {
	c.wg.Wait()
}

func (c *cycle) printMetrics(ctx context.Context) {
	m := c.metrics.Snapshot()
	c.logger.InfoContext(ctx, "pipeline metrics",
		"runs", m.TotalRuns,
		"failed_runs", m.TotalFailedRuns,
		"scraped", m.TotalJobsScraped,
		"saved", m.TotalJobsSaved,
		"duplicates", m.TotalDuplicates,
		"discarded", m.TotalDiscarded,
		"last_run", m.LastRunDuration,
	)
	for name, perf := range m.StrategyPerformance {
		c.logger.InfoContext(ctx, "strategy performance",
			"strategy", name,
			"attempts", perf.Attempts,
			"successes", perf.Successes,
			"failures", perf.Failures,
			"records", perf.Records,
			"response_time", perf.ResponseTime,
			"last_kind", perf.LastKind,
		)
	}
}
