package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domain-finder/internal/analyzer"
	"domain-finder/internal/common/logger"
	"domain-finder/internal/scoring"
	"domain-finder/internal/scraper"
	"domain-finder/internal/store"
)

type fakeEnricher struct {
	failFor map[string]bool
	byName  map[string]*analyzer.Enrichment
}

func (f *fakeEnricher) Analyze(_ context.Context, domain string) (*analyzer.Enrichment, error) {
	if f.failFor[domain] {
		return nil, errors.New("lookup blew up")
	}
	if e, ok := f.byName[domain]; ok {
		return e, nil
	}
	return &analyzer.Enrichment{Domain: domain}, nil
}

type memDomainWriter struct {
	mu     sync.Mutex
	nextID int64
	stored []*store.Domain
	err    error
}

func (m *memDomainWriter) Upsert(_ context.Context, d *store.Domain) (*store.Domain, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	d.ID = m.nextID
	m.stored = append(m.stored, d)
	return d, nil
}

type memScoreWriter struct {
	mu    sync.Mutex
	count int
}

func (m *memScoreWriter) Append(_ context.Context, domainID int64, bd scoring.ScoreBreakdown) (*store.ScoreRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count++
	return &store.ScoreRecord{DomainID: domainID, TotalScore: bd.TotalScore}, nil
}

type memIndexer struct {
	mu      sync.Mutex
	indexed int
	err     error
}

func (m *memIndexer) IndexDomain(_ context.Context, _ *store.Domain) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.indexed++
	return nil
}

type memNotifier struct {
	got []store.Domain
}

func (m *memNotifier) Notify(_ context.Context, domains []store.Domain) (int, error) {
	m.got = domains
	return len(domains), nil
}

type failingSource struct{}

func (failingSource) Name() string { return "broken" }
func (failingSource) Fetch(context.Context, int) ([]scraper.Candidate, error) {
	return nil, errors.New("source exploded")
}

func newTestPipeline(t *testing.T, opts Options) *Pipeline {
	t.Helper()
	if opts.Source == nil {
		opts.Source = scraper.NewSampleSource()
	}
	if opts.Enricher == nil {
		opts.Enricher = &fakeEnricher{}
	}
	if opts.Domains == nil {
		opts.Domains = &memDomainWriter{}
	}
	if opts.Scores == nil {
		opts.Scores = &memScoreWriter{}
	}
	if opts.ScoringCfg == (scoring.Config{}) {
		opts.ScoringCfg = scoring.DefaultConfig()
	}
	opts.Concurrency = 3
	opts.Logger = logger.NewTestLogger(t)
	return New(opts)
}

func TestPipeline_Run_ScoresEveryCandidate(t *testing.T) {
	domains := &memDomainWriter{}
	scores := &memScoreWriter{}
	indexer := &memIndexer{}
	notifier := &memNotifier{}

	p := newTestPipeline(t, Options{
		Domains:  domains,
		Scores:   scores,
		Indexer:  indexer,
		Notifier: notifier,
	})

	result, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, "sample", result.Source)
	assert.Equal(t, 10, result.Scraped)
	assert.Equal(t, 10, result.Scored)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 10, result.Alerted)
	assert.Positive(t, result.Duration)

	assert.Equal(t, 10, scores.count)
	assert.Equal(t, 10, indexer.indexed)

	// Notified domains arrive best-first.
	require.Len(t, notifier.got, 10)
	for i := 1; i < len(notifier.got); i++ {
		assert.GreaterOrEqual(t, notifier.got[i-1].QualityScore, notifier.got[i].QualityScore)
	}
}

func TestPipeline_Run_IsolatesPerDomainFailures(t *testing.T) {
	enricher := &fakeEnricher{failFor: map[string]bool{
		"techstartup.com": true,
		"cloudbase.io":    true,
	}}

	p := newTestPipeline(t, Options{Enricher: enricher})

	result, err := p.Run(context.Background())
	require.NoError(t, err, "individual failures must not abort the run")
	assert.Equal(t, 10, result.Scraped)
	assert.Equal(t, 8, result.Scored)
	assert.Equal(t, 2, result.Failed)
}

func TestPipeline_Run_IndexFailureDoesNotFailDomain(t *testing.T) {
	indexer := &memIndexer{err: errors.New("es down")}

	p := newTestPipeline(t, Options{Indexer: indexer})

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, result.Scored)
	assert.Equal(t, 0, result.Failed)
}

func TestPipeline_Run_SourceFailure(t *testing.T) {
	p := newTestPipeline(t, Options{Source: failingSource{}})

	result, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, result.Scraped)
	assert.Equal(t, 0, result.Scored)
}

func TestPipeline_Run_DeterministicScores(t *testing.T) {
	first := &memDomainWriter{}
	p1 := newTestPipeline(t, Options{Domains: first})
	_, err := p1.Run(context.Background())
	require.NoError(t, err)

	second := &memDomainWriter{}
	p2 := newTestPipeline(t, Options{Domains: second})
	_, err = p2.Run(context.Background())
	require.NoError(t, err)

	byName := func(ds []*store.Domain) map[string]float64 {
		out := make(map[string]float64, len(ds))
		for _, d := range ds {
			out[d.FullName()] = d.QualityScore
		}
		return out
	}
	assert.Equal(t, byName(first.stored), byName(second.stored))
}

func TestBuildAttributes_ScrapeWinsOverEnrichment(t *testing.T) {
	cand := scraper.Candidate{DomainName: "techstartup", TLD: "com", AgeDays: 2920, BacklinkCount: 45}
	e := &analyzer.Enrichment{AgeDays: 100, BacklinkCount: 3, EstimatedDA: 20}

	attrs := buildAttributes(cand, e)

	assert.Equal(t, 2920, attrs.AgeDays)
	assert.Equal(t, 45, attrs.BacklinkCount)
	require.NotNil(t, attrs.DomainAuthority)
	assert.Equal(t, 20, *attrs.DomainAuthority)
	assert.Equal(t, []scoring.KeywordCategory{scoring.CategoryTech}, attrs.KeywordHits)
}

func TestBuildAttributes_EnrichmentFillsGaps(t *testing.T) {
	cand := scraper.Candidate{DomainName: "qwrtzxy", TLD: "info"}
	signal := 12.0
	e := &analyzer.Enrichment{AgeDays: 500, BacklinkCount: 7, TrafficSignal: &signal}

	attrs := buildAttributes(cand, e)

	assert.Equal(t, 500, attrs.AgeDays)
	assert.Equal(t, 7, attrs.BacklinkCount)
	assert.Nil(t, attrs.DomainAuthority)
	require.NotNil(t, attrs.TrafficSignal)
	assert.Equal(t, 12.0, *attrs.TrafficSignal)
}

func TestBuildDomain_RegisteredBecomesTaken(t *testing.T) {
	cand := scraper.Candidate{DomainName: "datahub", TLD: "org", Price: 200}
	bd := scoring.Score(scoring.DomainAttributes{DomainName: "datahub", TLD: "org"}, scoring.DefaultConfig())

	d := buildDomain(cand, &analyzer.Enrichment{Registered: true}, bd)
	assert.Equal(t, "taken", d.Status)
	require.NotNil(t, d.Price)
	assert.Equal(t, 200.0, *d.Price)

	d = buildDomain(cand, &analyzer.Enrichment{}, bd)
	assert.Equal(t, "available", d.Status)
}
