// Package analyzer enriches a candidate domain with public registration and
// history data: RDAP for registration events, the Wayback Machine for
// snapshot history, and WhoisJSON for backlink counts when an API key is
// configured. Results are cached in Redis so re-checks within the TTL skip
// the external calls.
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"domain-finder/internal/common/config"
	apperrors "domain-finder/internal/common/errors"
	commonhttp "domain-finder/internal/common/http"
	"domain-finder/internal/common/logger"
	"domain-finder/internal/common/metrics"
)

// Enrichment is everything the lookups could learn about one domain.
type Enrichment struct {
	Domain           string     `json:"domain"`
	Registered       bool       `json:"registered"`
	AgeDays          int        `json:"age_days"`
	BacklinkCount    int        `json:"backlink_count"`
	EstimatedDA      int        `json:"estimated_da"`
	WaybackSnapshots int        `json:"wayback_snapshots"`
	FirstSeen        *time.Time `json:"first_seen,omitempty"`

	// TrafficSignal is the Wayback-derived historical-visits proxy; nil when
	// the domain has no archive history at all.
	TrafficSignal *float64 `json:"traffic_signal,omitempty"`
}

// Cache is the subset of the Redis wrapper the analyzer needs; nil disables
// caching.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

type Analyzer struct {
	client *commonhttp.Client
	cache  Cache
	cfg    config.AnalyzerConfig
	logger logger.Logger
}

func New(cfg config.AnalyzerConfig, cache Cache, log logger.Logger) *Analyzer {
	return &Analyzer{
		client: commonhttp.NewClient(config.GetDuration(cfg.Timeout)),
		cache:  cache,
		cfg:    cfg,
		logger: log,
	}
}

func cacheKey(domain string) string {
	return "analyzer:" + domain
}

// Analyze runs all lookups for a full domain name ("example.com"). Lookup
// failures degrade to zero-valued fields rather than failing the whole
// enrichment; only a cache round-trip error on a fresh result is surfaced.
func (a *Analyzer) Analyze(ctx context.Context, domain string) (*Enrichment, error) {
	if a.cache != nil {
		if cached, err := a.cache.Get(ctx, cacheKey(domain)); err == nil && cached != "" {
			var e Enrichment
			if err := json.Unmarshal([]byte(cached), &e); err == nil {
				a.logger.Debug("Analyzer cache hit", map[string]interface{}{"domain": domain})
				return &e, nil
			}
		}
	}

	e := &Enrichment{Domain: domain}

	registered, ageDays, err := a.lookupRDAP(ctx, domain)
	if err != nil {
		a.logger.WithError(err).Warn("RDAP lookup failed", map[string]interface{}{"domain": domain})
	} else {
		e.Registered = registered
		e.AgeDays = ageDays
	}

	snapshots, firstSeen, err := a.lookupWayback(ctx, domain)
	if err != nil {
		a.logger.WithError(err).Warn("Wayback lookup failed", map[string]interface{}{"domain": domain})
	} else {
		e.WaybackSnapshots = snapshots
		e.FirstSeen = firstSeen
		if snapshots > 0 {
			// Snapshot count is the best traffic proxy we have for a
			// dropped domain.
			signal := float64(snapshots)
			e.TrafficSignal = &signal
		}
	}

	e.BacklinkCount = a.lookupBacklinks(ctx, domain, e.WaybackSnapshots)
	e.EstimatedDA = EstimateAuthority(e.BacklinkCount)

	if a.cache != nil {
		payload, _ := json.Marshal(e)
		ttl := time.Duration(a.cfg.CacheTTL) * time.Second
		if err := a.cache.Set(ctx, cacheKey(domain), string(payload), ttl); err != nil {
			a.logger.WithError(err).Warn("Analyzer cache write failed", map[string]interface{}{"domain": domain})
		}
	}

	return e, nil
}

// rdapResponse is the subset of an RDAP domain object we read.
type rdapResponse struct {
	Events []struct {
		EventAction string `json:"eventAction"`
		EventDate   string `json:"eventDate"`
	} `json:"events"`
}

// lookupRDAP returns whether the domain is registered and, if so, its age in
// days derived from the registration event. A 404 means unregistered.
func (a *Analyzer) lookupRDAP(ctx context.Context, domain string) (bool, int, error) {
	endpoint := fmt.Sprintf("%s/domain/%s", a.cfg.RDAPBaseURL, url.PathEscape(domain))

	var resp rdapResponse
	status, err := a.client.GetJSON(ctx, endpoint, nil, &resp)
	if status == http.StatusNotFound {
		metrics.ExternalAPICalls.WithLabelValues("rdap", "not_found").Inc()
		return false, 0, nil
	}
	if err != nil {
		metrics.ExternalAPICalls.WithLabelValues("rdap", "error").Inc()
		return false, 0, apperrors.NewRDAPLookupFailedError(domain, err)
	}
	metrics.ExternalAPICalls.WithLabelValues("rdap", "ok").Inc()

	for _, event := range resp.Events {
		if event.EventAction != "registration" {
			continue
		}
		regDate, err := time.Parse(time.RFC3339, event.EventDate)
		if err != nil {
			continue
		}
		age := int(time.Since(regDate).Hours() / 24)
		if age < 0 {
			age = 0
		}
		return true, age, nil
	}
	return true, 0, nil
}

type waybackAvailableResponse struct {
	ArchivedSnapshots struct {
		Closest struct {
			Available bool   `json:"available"`
			Timestamp string `json:"timestamp"`
		} `json:"closest"`
	} `json:"archived_snapshots"`
}

// lookupWayback returns the snapshot count (bounded by the CDX query limit)
// and the first-seen time from the availability API.
func (a *Analyzer) lookupWayback(ctx context.Context, domain string) (int, *time.Time, error) {
	availURL := fmt.Sprintf("%s/wayback/available?url=%s", a.cfg.WaybackBaseURL, url.QueryEscape(domain))

	var avail waybackAvailableResponse
	if _, err := a.client.GetJSON(ctx, availURL, nil, &avail); err != nil {
		metrics.ExternalAPICalls.WithLabelValues("wayback", "error").Inc()
		return 0, nil, apperrors.NewWaybackLookupFailedError(domain, err)
	}

	var firstSeen *time.Time
	if avail.ArchivedSnapshots.Closest.Available {
		if ts, err := time.Parse("20060102150405", avail.ArchivedSnapshots.Closest.Timestamp); err == nil {
			firstSeen = &ts
		}
	}

	cdxURL := fmt.Sprintf("%s/cdx/search/cdx?url=%s&output=json&fl=timestamp&limit=1000",
		a.cfg.WaybackBaseURL, url.QueryEscape(domain))

	var cdxRows [][]string
	if _, err := a.client.GetJSON(ctx, cdxURL, nil, &cdxRows); err != nil {
		// Availability worked; treat a CDX failure as zero snapshots.
		metrics.ExternalAPICalls.WithLabelValues("wayback", "partial").Inc()
		return 0, firstSeen, nil
	}
	metrics.ExternalAPICalls.WithLabelValues("wayback", "ok").Inc()

	snapshots := len(cdxRows)
	if snapshots > 0 {
		snapshots-- // first CDX row is the header
	}
	return snapshots, firstSeen, nil
}

type whoisBacklinkResponse struct {
	BacklinkCount int `json:"backlink_count"`
}

// lookupBacklinks asks WhoisJSON when a key is configured, otherwise falls
// back to a snapshot-based estimate.
func (a *Analyzer) lookupBacklinks(ctx context.Context, domain string, snapshots int) int {
	if a.cfg.WhoisJSON.APIKey == "" || a.cfg.WhoisJSON.BaseURL == "" {
		return EstimateBacklinksFromSnapshots(snapshots)
	}

	endpoint := fmt.Sprintf("%s/backlinks?domain=%s", a.cfg.WhoisJSON.BaseURL, url.QueryEscape(domain))
	headers := map[string]string{"Authorization": "Token=" + a.cfg.WhoisJSON.APIKey}

	var resp whoisBacklinkResponse
	if _, err := a.client.GetJSON(ctx, endpoint, headers, &resp); err != nil {
		metrics.ExternalAPICalls.WithLabelValues("whoisjson", "error").Inc()
		a.logger.WithError(err).Warn("WhoisJSON lookup failed, using snapshot estimate",
			map[string]interface{}{"domain": domain})
		return EstimateBacklinksFromSnapshots(snapshots)
	}
	metrics.ExternalAPICalls.WithLabelValues("whoisjson", "ok").Inc()
	return resp.BacklinkCount
}
