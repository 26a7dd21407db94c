// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of HTTP request handling in seconds",
		},
		[]string{"method", "route"},
	)

	ScrapeRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrape_runs_total",
			Help: "Total number of scrape runs by source and outcome",
		},
		[]string{"source", "status"},
	)

	DomainsScored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domains_scored_total",
			Help: "Total number of domains scored by grade",
		},
		[]string{"grade"},
	)

	DomainsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domains_failed_total",
			Help: "Total number of domains that failed during a pipeline run",
		},
		[]string{"stage"},
	)

	AlertsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerts_sent_total",
			Help: "Total number of alerts delivered by channel",
		},
		[]string{"channel", "status"},
	)

	ExternalAPICalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "external_api_calls_total",
			Help: "Total number of calls to external lookup APIs",
		},
		[]string{"api", "status"},
	)

	PipelineActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pipeline_domains_active",
			Help: "Number of domains currently being processed by the pipeline",
		},
		[]string{"source"},
	)
)
