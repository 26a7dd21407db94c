package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"domain-finder/internal/common/config"
	apperrors "domain-finder/internal/common/errors"
	commonhttp "domain-finder/internal/common/http"
	"domain-finder/internal/common/logger"
	"domain-finder/internal/common/metrics"
)

// ApifySource runs a marketplace actor synchronously and reads its dataset
// items. The actor is expected to emit one object per expired domain.
type ApifySource struct {
	client *commonhttp.Client
	cfg    config.ApifyConfig
	logger logger.Logger
}

func NewApifySource(cfg config.ApifyConfig, log logger.Logger) *ApifySource {
	return &ApifySource{
		client: commonhttp.NewClient(config.GetDuration(cfg.Timeout)),
		cfg:    cfg,
		logger: log,
	}
}

func (s *ApifySource) Name() string { return "apify" }

// apifyItem tolerates the common field spellings actors use.
type apifyItem struct {
	Domain    string  `json:"domain"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	AgeYears  float64 `json:"age_years"`
	AgeDays   int     `json:"age_days"`
	Backlinks int     `json:"backlinks"`
}

func (s *ApifySource) Fetch(ctx context.Context, limit int) ([]Candidate, error) {
	endpoint := fmt.Sprintf("%s/v2/acts/%s/run-sync-get-dataset-items?token=%s&limit=%s",
		s.cfg.BaseURL,
		url.PathEscape(s.cfg.ActorID),
		url.QueryEscape(s.cfg.Token),
		strconv.Itoa(limit))

	var items []apifyItem
	status, err := s.client.PostJSON(ctx, endpoint, nil, map[string]interface{}{}, &items)
	if err != nil {
		metrics.ExternalAPICalls.WithLabelValues("apify", "error").Inc()
		if status >= 500 {
			return nil, apperrors.NewScrapeSourceDownError(s.Name(), status)
		}
		return nil, apperrors.NewScrapeFailedError(s.Name(), err)
	}
	metrics.ExternalAPICalls.WithLabelValues("apify", "ok").Inc()

	candidates := make([]Candidate, 0, len(items))
	for _, item := range items {
		full := item.Domain
		if full == "" {
			full = item.Name
		}
		name, tld := splitDomain(full)
		if name == "" || tld == "" {
			s.logger.Debug("Skipping malformed apify item", map[string]interface{}{"raw": full})
			continue
		}
		ageDays := item.AgeDays
		if ageDays == 0 && item.AgeYears > 0 {
			ageDays = int(item.AgeYears * 365.25)
		}
		candidates = append(candidates, Candidate{
			DomainName:    name,
			TLD:           tld,
			Price:         item.Price,
			AgeDays:       ageDays,
			BacklinkCount: item.Backlinks,
		})
		if limit > 0 && len(candidates) >= limit {
			break
		}
	}

	s.logger.Info("Apify scrape finished", map[string]interface{}{
		"items":      len(items),
		"candidates": len(candidates),
	})
	return candidates, nil
}
