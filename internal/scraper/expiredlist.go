package scraper

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"domain-finder/internal/common/config"
	apperrors "domain-finder/internal/common/errors"
	commonhttp "domain-finder/internal/common/http"
	"domain-finder/internal/common/logger"
	"domain-finder/internal/common/metrics"
)

// ExpiredListSource scrapes a public expired-domain listing page. The page
// is a plain HTML table; columns are located by header text so minor layout
// changes upstream do not break the scrape.
type ExpiredListSource struct {
	client *commonhttp.Client
	cfg    config.ExpiredListConfig
	logger logger.Logger
}

func NewExpiredListSource(cfg config.ExpiredListConfig, log logger.Logger) *ExpiredListSource {
	return &ExpiredListSource{
		client: commonhttp.NewClient(config.GetDuration(cfg.Timeout)),
		cfg:    cfg,
		logger: log,
	}
}

func (s *ExpiredListSource) Name() string { return "expiredlist" }

func (s *ExpiredListSource) Fetch(ctx context.Context, limit int) ([]Candidate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BaseURL, nil)
	if err != nil {
		return nil, apperrors.NewScrapeFailedError(s.Name(), err)
	}
	req.Header.Set("User-Agent", "domain-finder/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		metrics.ExternalAPICalls.WithLabelValues("expiredlist", "error").Inc()
		return nil, apperrors.NewScrapeFailedError(s.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.ExternalAPICalls.WithLabelValues("expiredlist", "error").Inc()
		return nil, apperrors.NewScrapeSourceDownError(s.Name(), resp.StatusCode)
	}
	metrics.ExternalAPICalls.WithLabelValues("expiredlist", "ok").Inc()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, apperrors.NewScrapeFailedError(s.Name(), err)
	}

	candidates := s.parseTable(doc, limit)
	s.logger.Info("Expired-list scrape finished", map[string]interface{}{
		"candidates": len(candidates),
	})
	return candidates, nil
}

// parseTable walks the first table whose header row mentions "domain".
func (s *ExpiredListSource) parseTable(doc *goquery.Document, limit int) []Candidate {
	var candidates []Candidate

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		cols := headerColumns(table)
		if _, ok := cols["domain"]; !ok {
			return true // not the listing table, keep looking
		}

		table.Find("tbody tr, tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
			cells := row.Find("td")
			if cells.Length() == 0 {
				return true // header row
			}
			cand, ok := s.parseRow(cells, cols)
			if ok {
				candidates = append(candidates, cand)
			}
			return limit <= 0 || len(candidates) < limit
		})
		return false
	})

	return candidates
}

func (s *ExpiredListSource) parseRow(cells *goquery.Selection, cols map[string]int) (Candidate, bool) {
	name, tld := splitDomain(cellText(cells, cols["domain"]))
	if name == "" || tld == "" {
		return Candidate{}, false
	}

	cand := Candidate{DomainName: name, TLD: tld}
	if idx, ok := cols["price"]; ok {
		cand.Price = parsePrice(cellText(cells, idx))
	}
	if idx, ok := cols["age"]; ok {
		// Listings publish age in years.
		years, _ := strconv.ParseFloat(cleanNumber(cellText(cells, idx)), 64)
		cand.AgeDays = int(years * 365.25)
	}
	if idx, ok := cols["backlinks"]; ok {
		cand.BacklinkCount, _ = strconv.Atoi(cleanNumber(cellText(cells, idx)))
	}
	return cand, true
}

// headerColumns maps lower-cased header keywords to column indexes.
func headerColumns(table *goquery.Selection) map[string]int {
	cols := make(map[string]int)
	table.Find("th").Each(func(i int, th *goquery.Selection) {
		text := strings.ToLower(strings.TrimSpace(th.Text()))
		for _, key := range []string{"domain", "price", "age", "backlinks"} {
			if strings.Contains(text, key) {
				cols[key] = i
			}
		}
	})
	return cols
}

func cellText(cells *goquery.Selection, idx int) string {
	return strings.TrimSpace(cells.Eq(idx).Text())
}

func parsePrice(text string) float64 {
	price, _ := strconv.ParseFloat(cleanNumber(text), 64)
	return price
}

// cleanNumber strips currency symbols and separators ("$1,250" -> "1250").
func cleanNumber(text string) string {
	var b strings.Builder
	for _, r := range text {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
