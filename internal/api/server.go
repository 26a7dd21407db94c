// Package api exposes the REST surface: domain listings and scoring,
// portfolio tracking, alert subscriptions, CSV exports, and the admin
// trigger for a discovery run.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"domain-finder/internal/analyzer"
	"domain-finder/internal/common/config"
	apperrors "domain-finder/internal/common/errors"
	"domain-finder/internal/common/logger"
	"domain-finder/internal/common/metrics"
	"domain-finder/internal/pipeline"
	"domain-finder/internal/scoring"
	"domain-finder/internal/search"
	"domain-finder/internal/store"
)

var errSearchDisabled = errors.New("search is not enabled")

type DomainStore interface {
	Upsert(ctx context.Context, d *store.Domain) (*store.Domain, error)
	GetByID(ctx context.Context, id int64) (*store.Domain, error)
	List(ctx context.Context, f store.DomainFilter) ([]store.Domain, int, error)
	Top(ctx context.Context, limit int) ([]store.Domain, error)
	MarkChecked(ctx context.Context, id int64) error
}

type ScoreStore interface {
	Append(ctx context.Context, domainID int64, bd scoring.ScoreBreakdown) (*store.ScoreRecord, error)
	History(ctx context.Context, domainID int64, limit int) ([]store.ScoreRecord, error)
}

type PortfolioStore interface {
	Create(ctx context.Context, item *store.PortfolioItem) (*store.PortfolioItem, error)
	GetByID(ctx context.Context, id int64) (*store.PortfolioItem, error)
	List(ctx context.Context, status string) ([]store.PortfolioItem, error)
	Update(ctx context.Context, id int64, upd store.PortfolioUpdate) (*store.PortfolioItem, error)
	Delete(ctx context.Context, id int64) error
}

type AlertStore interface {
	CreateSubscription(ctx context.Context, sub *store.AlertSubscription) (*store.AlertSubscription, error)
	ListSubscriptions(ctx context.Context, activeOnly bool) ([]store.AlertSubscription, error)
	DeleteSubscription(ctx context.Context, id int64) error
}

type Enricher interface {
	Analyze(ctx context.Context, domain string) (*analyzer.Enrichment, error)
}

// Searcher is nil when Elasticsearch is disabled.
type Searcher interface {
	Search(ctx context.Context, query string, minScore float64, limit int) ([]search.Document, error)
}

type PipelineRunner interface {
	Run(ctx context.Context) (*pipeline.RunResult, error)
}

type Options struct {
	Config     config.ServerConfig
	ScoringCfg scoring.Config
	Domains    DomainStore
	Scores     ScoreStore
	Portfolio  PortfolioStore
	Alerts     AlertStore
	Enricher   Enricher
	Searcher   Searcher
	Runner     PipelineRunner
	Logger     logger.Logger
}

type Server struct {
	cfg        config.ServerConfig
	scoringCfg scoring.Config
	domains    DomainStore
	scores     ScoreStore
	portfolio  PortfolioStore
	alerts     AlertStore
	enricher   Enricher
	searcher   Searcher
	runner     PipelineRunner
	errors     *apperrors.ErrorHandler
	logger     logger.Logger
	httpServer *http.Server
}

func NewServer(opts Options) *Server {
	s := &Server{
		cfg:        opts.Config,
		scoringCfg: opts.ScoringCfg,
		domains:    opts.Domains,
		scores:     opts.Scores,
		portfolio:  opts.Portfolio,
		alerts:     opts.Alerts,
		enricher:   opts.Enricher,
		searcher:   opts.Searcher,
		runner:     opts.Runner,
		errors:     apperrors.NewErrorHandler(opts.Logger),
		logger:     opts.Logger,
	}
	s.httpServer = &http.Server{
		Addr:              opts.Config.Addr(),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Routes builds the full handler tree.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/v1/domains", s.handleListDomains)
	mux.HandleFunc("POST /api/v1/domains", s.handleCreateDomain)
	mux.HandleFunc("GET /api/v1/domains/top", s.handleTopDomains)
	mux.HandleFunc("GET /api/v1/domains/{id}", s.handleGetDomain)
	mux.HandleFunc("POST /api/v1/domains/{id}/recheck", s.handleRecheckDomain)
	mux.HandleFunc("GET /api/v1/domains/{id}/scores", s.handleScoreHistory)

	mux.HandleFunc("GET /api/v1/search", s.handleSearch)

	mux.HandleFunc("POST /api/v1/portfolio", s.handleCreatePortfolioItem)
	mux.HandleFunc("GET /api/v1/portfolio", s.handleListPortfolio)
	mux.HandleFunc("GET /api/v1/portfolio/{id}", s.handleGetPortfolioItem)
	mux.HandleFunc("PATCH /api/v1/portfolio/{id}", s.handleUpdatePortfolioItem)
	mux.HandleFunc("DELETE /api/v1/portfolio/{id}", s.handleDeletePortfolioItem)

	mux.HandleFunc("POST /api/v1/alerts/subscriptions", s.handleCreateSubscription)
	mux.HandleFunc("GET /api/v1/alerts/subscriptions", s.handleListSubscriptions)
	mux.HandleFunc("DELETE /api/v1/alerts/subscriptions/{id}", s.handleDeleteSubscription)

	mux.HandleFunc("GET /api/v1/export/domains.csv", s.handleExportDomains)
	mux.HandleFunc("GET /api/v1/export/portfolio.csv", s.handleExportPortfolio)
	mux.HandleFunc("GET /api/v1/export/opportunities.csv", s.handleExportOpportunities)

	mux.HandleFunc("POST /api/v1/admin/scrape", s.handleTriggerScrape)

	return s.withRequestLogging(mux)
}

// Start blocks serving HTTP until Shutdown or a listener error.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", map[string]interface{}{"addr": s.httpServer.Addr})
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())

		s.logger.Debug("Request handled", map[string]interface{}{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": elapsed.String(),
		})
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Error("Response encoding failed", nil)
	}
}

// pathID parses the {id} segment.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationFailedError("id must be a positive integer")
	}
	return id, nil
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func queryFloat(r *http.Request, key string) (*float64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, apperrors.NewValidationFailedError(key + " must be a number")
	}
	return &v, nil
}
