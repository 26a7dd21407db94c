// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"domain-finder/internal/alert"
	"domain-finder/internal/analyzer"
	"domain-finder/internal/api"
	commonaws "domain-finder/internal/common/aws"
	"domain-finder/internal/common/config"
	"domain-finder/internal/common/database"
	"domain-finder/internal/common/logger"
	"domain-finder/internal/common/observability"
	"domain-finder/internal/pipeline"
	"domain-finder/internal/scheduler"
	"domain-finder/internal/scoring"
	"domain-finder/internal/scraper"
	"domain-finder/internal/search"
	"domain-finder/internal/store"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	zapLog.Info("Starting domain-finder server...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	// Rebuild the logger with the configured level and format.
	zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.NewZapAdapter(zapLog)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	if err := store.Migrate(ctx, pg, log); err != nil {
		zapLog.Fatal("migration failed", zap.Error(err))
	}

	// --- Init Redis with retry (optional, enables the enrichment cache) ---
	var redis *database.RedisClient
	if cfg.Database.Redis.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			redis, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redis.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redis.Close()
		zapLog.Info("Redis connected successfully")
	} else {
		zapLog.Info("Redis disabled, enrichment cache off")
	}

	// --- Init Elasticsearch with retry (optional, enables /search) ---
	var esClient *database.ElasticsearchClient
	if cfg.Database.Elasticsearch.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		zapLog.Info("Elasticsearch connected successfully")
	} else {
		zapLog.Info("Elasticsearch disabled, /api/v1/search will return 503")
	}

	// --- Stores ---
	domains := store.NewDomainStore(pg, log)
	scores := store.NewScoreStore(pg, log)
	portfolio := store.NewPortfolioStore(pg, log)
	alerts := store.NewAlertStore(pg, log)

	// --- Scoring engine configuration ---
	scoringCfg := scoring.DefaultConfig()
	if cfg.Scoring.AcquisitionCost > 0 {
		scoringCfg.AcquisitionCost = cfg.Scoring.AcquisitionCost
	}
	if cfg.Scoring.MinQualityScore > 0 {
		scoringCfg.MinQualityScore = cfg.Scoring.MinQualityScore
	}

	// --- Enrichment analyzer ---
	var cache analyzer.Cache
	if redis != nil {
		cache = redis
	}
	enricher := analyzer.New(cfg.Analyzer, cache, log)

	// --- Scrape source ---
	source, err := scraper.NewSource(cfg.Scraper, log)
	if err != nil {
		zapLog.Fatal("scrape source init failed", zap.Error(err))
	}
	zapLog.Info("Scrape source ready", zap.String("source", source.Name()))

	// --- Search indexer ---
	var indexer *search.Indexer
	if esClient != nil {
		indexer = search.NewIndexer(esClient, cfg.Search.Index, log)
		if err := indexer.EnsureIndex(ctx); err != nil {
			zapLog.Fatal("elasticsearch index setup failed", zap.Error(err))
		}
	}

	// --- Alert delivery (SES, SNS, Slack) ---
	var emailSender alert.EmailSender
	var smsSender alert.SMSSender
	if cfg.Alerts.Enabled && cfg.Alerts.AWS.SES.Enabled {
		sesClient, err := commonaws.NewSESClient(ctx, cfg.Alerts.AWS.Region)
		if err != nil {
			zapLog.Fatal("ses client init failed", zap.Error(err))
		}
		emailSender = sesClient
	}
	if cfg.Alerts.Enabled && cfg.Alerts.AWS.SNS.Enabled {
		snsClient, err := commonaws.NewSNSClient(ctx, cfg.Alerts.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client init failed", zap.Error(err))
		}
		smsSender = snsClient
	}
	notifier := alert.NewService(cfg.Alerts, emailSender, smsSender, alerts, log)

	// --- Discovery pipeline ---
	pipelineOpts := pipeline.Options{
		Source:      source,
		Enricher:    enricher,
		Domains:     domains,
		Scores:      scores,
		Notifier:    notifier,
		ScoringCfg:  scoringCfg,
		BatchLimit:  cfg.Scraper.BatchLimit,
		Concurrency: cfg.Analyzer.Concurrency,
		Obs:         obs,
		Logger:      log,
	}
	if indexer != nil {
		pipelineOpts.Indexer = indexer
	}
	pipe := pipeline.New(pipelineOpts)

	// --- Scheduler ---
	sched := scheduler.New(cfg.Scheduler, scheduler.RunnerFunc(func(ctx context.Context) error {
		_, err := pipe.Run(ctx)
		return err
	}), domains, log)
	if err := sched.Start(ctx); err != nil {
		zapLog.Fatal("scheduler start failed", zap.Error(err))
	}

	// --- HTTP API ---
	serverOpts := api.Options{
		Config:     cfg.Server,
		ScoringCfg: scoringCfg,
		Domains:    domains,
		Scores:     scores,
		Portfolio:  portfolio,
		Alerts:     alerts,
		Enricher:   enricher,
		Runner:     pipe,
		Logger:     log,
	}
	if indexer != nil {
		serverOpts.Searcher = indexer
	}
	server := api.NewServer(serverOpts)

	go func() {
		if err := server.Start(); err != nil {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	sched.Stop()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	zapLog.Info("Server stopped gracefully")
}
