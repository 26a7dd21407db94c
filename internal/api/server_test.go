package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domain-finder/internal/analyzer"
	"domain-finder/internal/common/config"
	apperrors "domain-finder/internal/common/errors"
	"domain-finder/internal/common/logger"
	"domain-finder/internal/pipeline"
	"domain-finder/internal/scoring"
	"domain-finder/internal/search"
	"domain-finder/internal/store"
)

type fakeDomainStore struct {
	byID       map[int64]*store.Domain
	nextID     int64
	lastFilter store.DomainFilter
}

func newFakeDomainStore() *fakeDomainStore {
	return &fakeDomainStore{byID: map[int64]*store.Domain{}}
}

func (f *fakeDomainStore) Upsert(_ context.Context, d *store.Domain) (*store.Domain, error) {
	if d.ID == 0 {
		f.nextID++
		d.ID = f.nextID
	}
	f.byID[d.ID] = d
	return d, nil
}

func (f *fakeDomainStore) GetByID(_ context.Context, id int64) (*store.Domain, error) {
	d, ok := f.byID[id]
	if !ok {
		return nil, apperrors.NewDomainNotFoundError(id)
	}
	return d, nil
}

func (f *fakeDomainStore) List(_ context.Context, filter store.DomainFilter) ([]store.Domain, int, error) {
	f.lastFilter = filter
	var out []store.Domain
	for _, d := range f.byID {
		if filter.MinScore != nil && d.QualityScore < *filter.MinScore {
			continue
		}
		if filter.Status != "" && d.Status != filter.Status {
			continue
		}
		out = append(out, *d)
	}
	return out, len(out), nil
}

func (f *fakeDomainStore) Top(_ context.Context, limit int) ([]store.Domain, error) {
	out, _, _ := f.List(context.Background(), store.DomainFilter{Limit: limit})
	return out, nil
}

func (f *fakeDomainStore) MarkChecked(_ context.Context, id int64) error {
	if _, ok := f.byID[id]; !ok {
		return apperrors.NewDomainNotFoundError(id)
	}
	return nil
}

type fakeScoreStore struct {
	appended []scoring.ScoreBreakdown
	history  []store.ScoreRecord
}

func (f *fakeScoreStore) Append(_ context.Context, domainID int64, bd scoring.ScoreBreakdown) (*store.ScoreRecord, error) {
	f.appended = append(f.appended, bd)
	return &store.ScoreRecord{DomainID: domainID, TotalScore: bd.TotalScore}, nil
}

func (f *fakeScoreStore) History(_ context.Context, _ int64, _ int) ([]store.ScoreRecord, error) {
	return f.history, nil
}

type fakePortfolioStore struct {
	byID   map[int64]*store.PortfolioItem
	nextID int64
}

func newFakePortfolioStore() *fakePortfolioStore {
	return &fakePortfolioStore{byID: map[int64]*store.PortfolioItem{}}
}

func (f *fakePortfolioStore) Create(_ context.Context, item *store.PortfolioItem) (*store.PortfolioItem, error) {
	if item.Status == "" {
		item.Status = "holding"
	}
	if !store.ValidPortfolioStatus(item.Status) {
		return nil, apperrors.NewValidationFailedError("invalid portfolio status: " + item.Status)
	}
	f.nextID++
	item.ID = f.nextID
	f.byID[item.ID] = item
	return item, nil
}

func (f *fakePortfolioStore) GetByID(_ context.Context, id int64) (*store.PortfolioItem, error) {
	item, ok := f.byID[id]
	if !ok {
		return nil, apperrors.NewResourceNotFoundError("Portfolio item", id)
	}
	return item, nil
}

func (f *fakePortfolioStore) List(_ context.Context, status string) ([]store.PortfolioItem, error) {
	var out []store.PortfolioItem
	for _, item := range f.byID {
		if status == "" || item.Status == status {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (f *fakePortfolioStore) Update(_ context.Context, id int64, upd store.PortfolioUpdate) (*store.PortfolioItem, error) {
	item, ok := f.byID[id]
	if !ok {
		return nil, apperrors.NewResourceNotFoundError("Portfolio item", id)
	}
	if upd.SalePrice != nil {
		item.SalePrice = upd.SalePrice
	}
	if upd.Status != nil {
		item.Status = *upd.Status
	}
	return item, nil
}

func (f *fakePortfolioStore) Delete(_ context.Context, id int64) error {
	if _, ok := f.byID[id]; !ok {
		return apperrors.NewResourceNotFoundError("Portfolio item", id)
	}
	delete(f.byID, id)
	return nil
}

type fakeAlertStore struct {
	subs []store.AlertSubscription
}

func (f *fakeAlertStore) CreateSubscription(_ context.Context, sub *store.AlertSubscription) (*store.AlertSubscription, error) {
	sub.ID = int64(len(f.subs) + 1)
	sub.Active = true
	f.subs = append(f.subs, *sub)
	return sub, nil
}

func (f *fakeAlertStore) ListSubscriptions(_ context.Context, _ bool) ([]store.AlertSubscription, error) {
	return f.subs, nil
}

func (f *fakeAlertStore) DeleteSubscription(_ context.Context, id int64) error {
	if int(id) > len(f.subs) {
		return apperrors.NewResourceNotFoundError("Alert subscription", id)
	}
	return nil
}

type fakeEnricher struct {
	enrichment *analyzer.Enrichment
	err        error
}

func (f *fakeEnricher) Analyze(_ context.Context, domain string) (*analyzer.Enrichment, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.enrichment != nil {
		return f.enrichment, nil
	}
	return &analyzer.Enrichment{Domain: domain}, nil
}

type fakeSearcher struct {
	docs []search.Document
}

func (f *fakeSearcher) Search(_ context.Context, _ string, _ float64, _ int) ([]search.Document, error) {
	return f.docs, nil
}

type fakeRunner struct {
	result *pipeline.RunResult
	err    error
}

func (f *fakeRunner) Run(context.Context) (*pipeline.RunResult, error) {
	return f.result, f.err
}

type testEnv struct {
	server    *Server
	domains   *fakeDomainStore
	scores    *fakeScoreStore
	portfolio *fakePortfolioStore
	alerts    *fakeAlertStore
	enricher  *fakeEnricher
	runner    *fakeRunner
}

func newTestServer(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		domains:   newFakeDomainStore(),
		scores:    &fakeScoreStore{},
		portfolio: newFakePortfolioStore(),
		alerts:    &fakeAlertStore{},
		enricher:  &fakeEnricher{},
		runner:    &fakeRunner{result: &pipeline.RunResult{RunID: "run-1", Scored: 3}},
	}
	env.server = NewServer(Options{
		Config:     config.ServerConfig{Host: "127.0.0.1", Port: 0},
		ScoringCfg: scoring.DefaultConfig(),
		Domains:    env.domains,
		Scores:     env.scores,
		Portfolio:  env.portfolio,
		Alerts:     env.alerts,
		Enricher:   env.enricher,
		Searcher:   nil,
		Runner:     env.runner,
		Logger:     logger.NewTestLogger(t),
	})
	return env
}

func doRequest(t *testing.T, env *testEnv, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	env.server.Routes().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	env := newTestServer(t)
	rec := doRequest(t, env, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCreateDomain_ScoresSynchronously(t *testing.T) {
	env := newTestServer(t)

	rec := doRequest(t, env, http.MethodPost, "/api/v1/domains", `{
		"domain_name": "techstartup",
		"tld": "com",
		"age_days": 2920,
		"backlink_count": 45
	}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := rec.Body.String()
	assert.Contains(t, body, `"grade":"D"`)
	assert.Contains(t, body, `"recommendation":"WATCH"`)
	assert.Contains(t, body, `"breakdown"`)

	require.Len(t, env.scores.appended, 1)
	assert.InDelta(t, 45.5, env.scores.appended[0].TotalScore, 0.5)
}

func TestCreateDomain_RejectsUnknownFields(t *testing.T) {
	env := newTestServer(t)

	rec := doRequest(t, env, http.MethodPost, "/api/v1/domains",
		`{"domain_name":"x","tld":"com","grade":"A"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_FAILED")
}

func TestCreateDomain_RejectsMissingTLD(t *testing.T) {
	env := newTestServer(t)

	rec := doRequest(t, env, http.MethodPost, "/api/v1/domains", `{"domain_name":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateDomain_RejectsBadCharacters(t *testing.T) {
	env := newTestServer(t)

	rec := doRequest(t, env, http.MethodPost, "/api/v1/domains",
		`{"domain_name":"bad_name!","tld":"com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetDomain_NotFound(t *testing.T) {
	env := newTestServer(t)

	rec := doRequest(t, env, http.MethodGet, "/api/v1/domains/99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "DOMAIN_NOT_FOUND")
}

func TestListDomains_ParsesFilters(t *testing.T) {
	env := newTestServer(t)
	env.domains.byID[1] = &store.Domain{ID: 1, DomainName: "cloudbase", TLD: "io", QualityScore: 91.5, Status: "available"}
	env.domains.byID[2] = &store.Domain{ID: 2, DomainName: "qwrtzxy", TLD: "info", QualityScore: 8, Status: "available"}

	rec := doRequest(t, env, http.MethodGet,
		"/api/v1/domains?min_score=50&tld=IO&sort_by=quality_score&limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Contains(t, rec.Body.String(), "cloudbase")
	assert.NotContains(t, rec.Body.String(), "qwrtzxy")

	require.NotNil(t, env.domains.lastFilter.MinScore)
	assert.Equal(t, 50.0, *env.domains.lastFilter.MinScore)
	assert.Equal(t, "io", env.domains.lastFilter.TLD)
	assert.Equal(t, 5, env.domains.lastFilter.Limit)
	assert.True(t, env.domains.lastFilter.SortDesc)
}

func TestRecheckDomain_AppliesEnrichment(t *testing.T) {
	env := newTestServer(t)
	env.domains.byID[1] = &store.Domain{ID: 1, DomainName: "techstartup", TLD: "com", Status: "available"}
	signal := 40.0
	env.enricher.enrichment = &analyzer.Enrichment{
		Registered:       true,
		AgeDays:          2920,
		BacklinkCount:    45,
		EstimatedDA:      20,
		WaybackSnapshots: 40,
		TrafficSignal:    &signal,
	}

	rec := doRequest(t, env, http.MethodPost, "/api/v1/domains/1/recheck", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	d := env.domains.byID[1]
	assert.Equal(t, "taken", d.Status)
	assert.Equal(t, 2920, d.AgeDays)
	assert.Equal(t, 45, d.BacklinkCount)
	require.NotNil(t, d.EstimatedDA)
	assert.Equal(t, 20, *d.EstimatedDA)
	assert.Greater(t, d.QualityScore, 0.0)
	require.Len(t, env.scores.appended, 1)
}

func TestScoreHistory_UnknownDomain(t *testing.T) {
	env := newTestServer(t)

	rec := doRequest(t, env, http.MethodGet, "/api/v1/domains/42/scores", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearch_DisabledReturns503(t *testing.T) {
	env := newTestServer(t)

	rec := doRequest(t, env, http.MethodGet, "/api/v1/search?q=cloud", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSearch_Enabled(t *testing.T) {
	env := newTestServer(t)
	env.server.searcher = &fakeSearcher{docs: []search.Document{
		{DomainID: 1, FullName: "cloudbase.io", QualityScore: 91.5},
	}}

	rec := doRequest(t, env, http.MethodGet, "/api/v1/search?q=cloud&min_score=50", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cloudbase.io")
}

func TestPortfolio_CreateAndMarkSold(t *testing.T) {
	env := newTestServer(t)
	env.domains.byID[1] = &store.Domain{ID: 1, DomainName: "cloudbase", TLD: "io"}

	rec := doRequest(t, env, http.MethodPost, "/api/v1/portfolio",
		`{"domain_id":1,"purchase_price":120,"notes":"auction win"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doRequest(t, env, http.MethodPatch, "/api/v1/portfolio/1",
		`{"sale_price":450,"status":"sold"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	item := env.portfolio.byID[1]
	assert.Equal(t, "sold", item.Status)
	require.NotNil(t, item.SalePrice)
	assert.Equal(t, 450.0, *item.SalePrice)
}

func TestPortfolio_CreateRequiresDomainID(t *testing.T) {
	env := newTestServer(t)

	rec := doRequest(t, env, http.MethodPost, "/api/v1/portfolio", `{"purchase_price":10}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPortfolio_UpdateRejectsUnknownStatus(t *testing.T) {
	env := newTestServer(t)

	rec := doRequest(t, env, http.MethodPatch, "/api/v1/portfolio/1", `{"status":"flipped"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPortfolio_DeleteNotFound(t *testing.T) {
	env := newTestServer(t)

	rec := doRequest(t, env, http.MethodDelete, "/api/v1/portfolio/9", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAlerts_CreateAndList(t *testing.T) {
	env := newTestServer(t)

	rec := doRequest(t, env, http.MethodPost, "/api/v1/alerts/subscriptions",
		`{"email":"buyer@example.com","min_quality_score":75}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, env, http.MethodGet, "/api/v1/alerts/subscriptions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "buyer@example.com")
}

func TestAlerts_CreateRejectsOutOfRangeThreshold(t *testing.T) {
	env := newTestServer(t)

	rec := doRequest(t, env, http.MethodPost, "/api/v1/alerts/subscriptions",
		`{"email":"buyer@example.com","min_quality_score":140}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportOpportunities_CSV(t *testing.T) {
	env := newTestServer(t)
	env.domains.byID[1] = &store.Domain{
		ID: 1, DomainName: "cloudbase", TLD: "io", QualityScore: 91.5, Grade: "A",
		AgeDays: 3650, BacklinkCount: 210, Status: "available",
		PriceEstimateLow: 10000, PriceEstimateHigh: 100000,
		LastChecked: time.Now(),
	}
	env.domains.byID[2] = &store.Domain{
		ID: 2, DomainName: "qwrtzxy", TLD: "info", QualityScore: 8, Grade: "F",
		Status: "available", LastChecked: time.Now(),
	}

	rec := doRequest(t, env, http.MethodGet, "/api/v1/export/opportunities.csv", "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "opportunities.csv")

	body := rec.Body.String()
	assert.Contains(t, body, "domain,quality_score,grade,recommendation")
	assert.Contains(t, body, "cloudbase.io")
	assert.Contains(t, body, "STRONG BUY")
	assert.NotContains(t, body, "qwrtzxy.info", "below the default score floor")
}

func TestAdminScrape_RunsPipeline(t *testing.T) {
	env := newTestServer(t)

	rec := doRequest(t, env, http.MethodPost, "/api/v1/admin/scrape", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"run_id":"run-1"`)
	assert.Contains(t, rec.Body.String(), `"scored":3`)
}
