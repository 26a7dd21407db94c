// Package pipeline drives one discovery run end to end: scrape candidates,
// enrich each with registration and history data, score, persist, index, and
// finally alert subscribers. Enrichment and scoring run on a bounded worker
// pool; a failure on one domain never aborts the run.
package pipeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"domain-finder/internal/analyzer"
	"domain-finder/internal/common/logger"
	"domain-finder/internal/common/metrics"
	"domain-finder/internal/common/observability"
	"domain-finder/internal/scoring"
	"domain-finder/internal/scraper"
	"domain-finder/internal/store"
)

// Enricher is the analyzer surface the pipeline depends on.
type Enricher interface {
	Analyze(ctx context.Context, domain string) (*analyzer.Enrichment, error)
}

// DomainWriter is the domain persistence surface.
type DomainWriter interface {
	Upsert(ctx context.Context, d *store.Domain) (*store.Domain, error)
}

// ScoreWriter appends score history rows.
type ScoreWriter interface {
	Append(ctx context.Context, domainID int64, bd scoring.ScoreBreakdown) (*store.ScoreRecord, error)
}

// Indexer mirrors scored domains into the search index.
type Indexer interface {
	IndexDomain(ctx context.Context, d *store.Domain) error
}

// Notifier fans scored domains out to subscribers.
type Notifier interface {
	Notify(ctx context.Context, domains []store.Domain) (int, error)
}

// RunResult summarizes one pipeline run.
type RunResult struct {
	RunID    string        `json:"run_id"`
	Source   string        `json:"source"`
	Scraped  int           `json:"scraped"`
	Scored   int           `json:"scored"`
	Failed   int           `json:"failed"`
	Alerted  int           `json:"alerted"`
	Duration time.Duration `json:"duration"`
}

type Pipeline struct {
	source      scraper.Source
	enricher    Enricher
	domains     DomainWriter
	scores      ScoreWriter
	indexer     Indexer  // nil when search is disabled
	notifier    Notifier // nil when alerts are disabled
	scoringCfg  scoring.Config
	batchLimit  int
	concurrency int
	obs         *observability.Observability
	logger      logger.Logger
}

type Options struct {
	Source      scraper.Source
	Enricher    Enricher
	Domains     DomainWriter
	Scores      ScoreWriter
	Indexer     Indexer
	Notifier    Notifier
	ScoringCfg  scoring.Config
	BatchLimit  int
	Concurrency int
	Obs         *observability.Observability
	Logger      logger.Logger
}

func New(opts Options) *Pipeline {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 5
	}
	return &Pipeline{
		source:      opts.Source,
		enricher:    opts.Enricher,
		domains:     opts.Domains,
		scores:      opts.Scores,
		indexer:     opts.Indexer,
		notifier:    opts.Notifier,
		scoringCfg:  opts.ScoringCfg,
		batchLimit:  opts.BatchLimit,
		concurrency: opts.Concurrency,
		obs:         opts.Obs,
		logger:      opts.Logger,
	}
}

// Run executes one full discovery run.
func (p *Pipeline) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{
		RunID:  uuid.New().String(),
		Source: p.source.Name(),
	}
	start := time.Now()

	p.logger.Info("Pipeline run starting", map[string]interface{}{
		"run_id": result.RunID,
		"source": result.Source,
	})
	metrics.PipelineActive.WithLabelValues(result.Source).Inc()
	defer metrics.PipelineActive.WithLabelValues(result.Source).Dec()

	candidates, err := p.source.Fetch(ctx, p.batchLimit)
	if err != nil {
		metrics.ScrapeRunsTotal.WithLabelValues(result.Source, "error").Inc()
		if p.obs != nil {
			p.obs.RecordRun(ctx, "error")
		}
		return result, err
	}
	result.Scraped = len(candidates)
	metrics.ScrapeRunsTotal.WithLabelValues(result.Source, "ok").Inc()

	scored := p.processAll(ctx, candidates, result)

	if p.notifier != nil && len(scored) > 0 {
		alerted, err := p.notifier.Notify(ctx, scored)
		if err != nil {
			p.logger.WithError(err).Warn("Alert fan-out failed", map[string]interface{}{
				"run_id": result.RunID,
			})
		}
		result.Alerted = alerted
	}

	result.Duration = time.Since(start)
	if p.obs != nil {
		p.obs.RecordRun(ctx, "ok")
		p.obs.RecordRunDuration(ctx, result.Duration, "ok")
	}

	p.logger.Info("Pipeline run finished", map[string]interface{}{
		"run_id":   result.RunID,
		"scraped":  result.Scraped,
		"scored":   result.Scored,
		"failed":   result.Failed,
		"alerted":  result.Alerted,
		"duration": result.Duration.String(),
	})
	return result, nil
}

// processAll runs the per-candidate work on a bounded pool and returns the
// successfully scored domains ordered by score descending.
func (p *Pipeline) processAll(ctx context.Context, candidates []scraper.Candidate, result *RunResult) []store.Domain {
	var (
		mu     sync.Mutex
		scored []store.Domain
		wg     sync.WaitGroup
		sem    = make(chan struct{}, p.concurrency)
	)

	for _, cand := range candidates {
		wg.Add(1)
		sem <- struct{}{}
		go func(cand scraper.Candidate) {
			defer wg.Done()
			defer func() { <-sem }()

			d, err := p.processOne(ctx, cand)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed++
				return
			}
			result.Scored++
			scored = append(scored, *d)
		}(cand)
	}
	wg.Wait()

	sortByScoreDesc(scored)
	return scored
}

// processOne enriches, scores, and persists a single candidate.
func (p *Pipeline) processOne(ctx context.Context, cand scraper.Candidate) (*store.Domain, error) {
	enrichment, err := p.enricher.Analyze(ctx, cand.FullName())
	if err != nil {
		metrics.DomainsFailed.WithLabelValues("enrich").Inc()
		p.logger.WithError(err).Warn("Enrichment failed", map[string]interface{}{
			"domain": cand.FullName(),
		})
		return nil, err
	}

	attrs := buildAttributes(cand, enrichment)
	breakdown := scoring.Score(attrs, p.scoringCfg)

	d := buildDomain(cand, enrichment, breakdown)
	stored, err := p.domains.Upsert(ctx, d)
	if err != nil {
		metrics.DomainsFailed.WithLabelValues("persist").Inc()
		p.logger.WithError(err).Error("Domain upsert failed", map[string]interface{}{
			"domain": cand.FullName(),
		})
		return nil, err
	}

	if _, err := p.scores.Append(ctx, stored.ID, breakdown); err != nil {
		p.logger.WithError(err).Warn("Score history append failed", map[string]interface{}{
			"domain_id": stored.ID,
		})
	}

	if p.indexer != nil {
		// Search is an auxiliary index; an indexing failure does not fail
		// the domain.
		if err := p.indexer.IndexDomain(ctx, stored); err != nil {
			metrics.DomainsFailed.WithLabelValues("index").Inc()
			p.logger.WithError(err).Warn("Search indexing failed", map[string]interface{}{
				"domain_id": stored.ID,
			})
		}
	}

	metrics.DomainsScored.WithLabelValues(string(breakdown.Grade)).Inc()
	if p.obs != nil {
		p.obs.RecordScore(ctx, breakdown.TotalScore, string(breakdown.Grade))
	}
	return stored, nil
}

// buildAttributes merges scraped and enriched signals; the scrape wins for
// fields both provide, since listings publish fresher marketplace data.
func buildAttributes(cand scraper.Candidate, e *analyzer.Enrichment) scoring.DomainAttributes {
	attrs := scoring.DomainAttributes{
		DomainName:    cand.DomainName,
		TLD:           cand.TLD,
		AgeDays:       cand.AgeDays,
		BacklinkCount: cand.BacklinkCount,
		KeywordHits:   scoring.DetectKeywords(cand.DomainName),
	}
	if attrs.AgeDays == 0 {
		attrs.AgeDays = e.AgeDays
	}
	if attrs.BacklinkCount == 0 {
		attrs.BacklinkCount = e.BacklinkCount
	}
	if e.EstimatedDA > 0 {
		da := e.EstimatedDA
		attrs.DomainAuthority = &da
	}
	attrs.TrafficSignal = e.TrafficSignal
	return attrs
}

func buildDomain(cand scraper.Candidate, e *analyzer.Enrichment, bd scoring.ScoreBreakdown) *store.Domain {
	d := &store.Domain{
		DomainName:    cand.DomainName,
		TLD:           cand.TLD,
		AgeDays:       cand.AgeDays,
		BacklinkCount: cand.BacklinkCount,

		WaybackSnapshots: e.WaybackSnapshots,
		Registered:       e.Registered,
		FirstSeen:        e.FirstSeen,
		TrafficSignal:    e.TrafficSignal,

		QualityScore:      bd.TotalScore,
		Grade:             string(bd.Grade),
		PriceEstimateLow:  bd.PriceEstimateLow,
		PriceEstimateHigh: bd.PriceEstimateHigh,
		ROIEstimate:       bd.ROIEstimate,

		Status:      "available",
		LastChecked: time.Now().UTC(),
	}
	if cand.Price > 0 {
		price := cand.Price
		d.Price = &price
	}
	if d.AgeDays == 0 {
		d.AgeDays = e.AgeDays
	}
	if d.BacklinkCount == 0 {
		d.BacklinkCount = e.BacklinkCount
	}
	if e.EstimatedDA > 0 {
		da := e.EstimatedDA
		d.EstimatedDA = &da
	}
	if e.Registered {
		d.Status = "taken"
	}
	return d
}

func sortByScoreDesc(domains []store.Domain) {
	sort.Slice(domains, func(i, j int) bool {
		return domains[i].QualityScore > domains[j].QualityScore
	})
}
