// cmd/tools/seed-domains/main.go
//
// Seeds the database by running a scrape source through the full scoring
// pipeline. Defaults to the built-in sample source with enrichment lookups
// disabled, so it works offline against a fresh database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"domain-finder/internal/analyzer"
	"domain-finder/internal/common/config"
	"domain-finder/internal/common/database"
	"domain-finder/internal/common/logger"
	"domain-finder/internal/pipeline"
	"domain-finder/internal/scoring"
	"domain-finder/internal/scraper"
	"domain-finder/internal/store"
)

// offlineEnricher skips the network lookups so seeding only uses the
// attributes the scrape source already carries.
type offlineEnricher struct{}

func (offlineEnricher) Analyze(_ context.Context, domain string) (*analyzer.Enrichment, error) {
	return &analyzer.Enrichment{Domain: domain}, nil
}

func main() {
	sourceName := flag.String("source", "sample", "Scrape source to run (sample, apify, expiredlist)")
	limit := flag.Int("limit", 0, "Max candidates to seed (0 uses the configured batch limit)")
	enrich := flag.Bool("enrich", false, "Run live RDAP/Wayback enrichment instead of offline seeding")
	timeout := flag.Duration("timeout", 2*time.Minute, "Overall run timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		fmt.Printf("Error connecting to postgres: %v\n", err)
		os.Exit(1)
	}
	defer pg.Close()

	if err := store.Migrate(ctx, pg, log); err != nil {
		fmt.Printf("Error running migrations: %v\n", err)
		os.Exit(1)
	}

	scraperCfg := cfg.Scraper
	scraperCfg.Source = *sourceName
	source, err := scraper.NewSource(scraperCfg, log)
	if err != nil {
		fmt.Printf("Error creating scrape source: %v\n", err)
		os.Exit(1)
	}

	var enricher pipeline.Enricher = offlineEnricher{}
	if *enrich {
		enricher = analyzer.New(cfg.Analyzer, nil, log)
	}

	scoringCfg := scoring.DefaultConfig()
	if cfg.Scoring.AcquisitionCost > 0 {
		scoringCfg.AcquisitionCost = cfg.Scoring.AcquisitionCost
	}
	if cfg.Scoring.MinQualityScore > 0 {
		scoringCfg.MinQualityScore = cfg.Scoring.MinQualityScore
	}

	batchLimit := cfg.Scraper.BatchLimit
	if *limit > 0 {
		batchLimit = *limit
	}

	pipe := pipeline.New(pipeline.Options{
		Source:      source,
		Enricher:    enricher,
		Domains:     store.NewDomainStore(pg, log),
		Scores:      store.NewScoreStore(pg, log),
		ScoringCfg:  scoringCfg,
		BatchLimit:  batchLimit,
		Concurrency: cfg.Analyzer.Concurrency,
		Logger:      log,
	})

	result, err := pipe.Run(ctx)
	if err != nil {
		fmt.Printf("Error running pipeline: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Seeded %d domains from %s (%d scraped, %d failed) in %s\n",
		result.Scored, result.Source, result.Scraped, result.Failed, result.Duration.Round(time.Millisecond))
}
