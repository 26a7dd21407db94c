// Package scraper discovers expired-domain candidates. A Source yields raw
// candidates from one upstream (the Apify marketplace actor, a public
// expired-domain listing page, or the built-in sample set); the pipeline
// decides what happens to them.
package scraper

import (
	"context"
	"fmt"
	"strings"

	"domain-finder/internal/common/config"
	apperrors "domain-finder/internal/common/errors"
	"domain-finder/internal/common/logger"
)

// Candidate is one scraped domain before enrichment and scoring. Zero-valued
// fields simply mean the source did not publish that signal.
type Candidate struct {
	DomainName    string
	TLD           string
	Price         float64
	AgeDays       int
	BacklinkCount int
}

// FullName returns "name.tld".
func (c Candidate) FullName() string {
	return c.DomainName + "." + c.TLD
}

// Source yields a batch of candidates from one upstream.
type Source interface {
	Name() string
	Fetch(ctx context.Context, limit int) ([]Candidate, error)
}

// NewSource builds the source selected in config.
func NewSource(cfg config.ScraperConfig, log logger.Logger) (Source, error) {
	switch cfg.Source {
	case "apify":
		return NewApifySource(cfg.Apify, log), nil
	case "expiredlist":
		return NewExpiredListSource(cfg.ExpiredList, log), nil
	case "sample", "":
		return NewSampleSource(), nil
	default:
		return nil, apperrors.NewValidationFailedError(
			fmt.Sprintf("unknown scraper source %q", cfg.Source))
	}
}

// splitDomain splits "example.co.uk" into ("example", "co.uk"). Names
// without a dot get an empty TLD and are filtered out by callers.
func splitDomain(full string) (string, string) {
	full = strings.ToLower(strings.TrimSpace(full))
	full = strings.TrimPrefix(full, "www.")
	idx := strings.Index(full, ".")
	if idx <= 0 {
		return full, ""
	}
	return full[:idx], full[idx+1:]
}
